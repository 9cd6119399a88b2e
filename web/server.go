package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// HealthCheck reports whether the storage backend answers
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.Warn("web: Storage ping failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Storage: "disconnected"})
		return
	}

	c.JSON(http.StatusOK, healthResponse{Status: "healthy", Storage: "connected"})
}

func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	// Public routes
	router.GET("/health", h.HealthCheck)
	router.GET("/auth/login", h.Login)
	router.GET("/auth/steam/callback", h.SteamCallback)
	router.GET("/auth/logout", h.Logout)

	// Protected routes
	authorized := router.Group("/")
	authorized.Use(AuthMiddleware(h.sessions))
	{
		authorized.GET("/notifications", h.Notifications)
		authorized.POST("/notifications/reset", h.ResetNotifications)
		authorized.GET("/friends", h.ListFriends)
		authorized.PUT("/friends/:account_id", h.Follow)
		authorized.DELETE("/friends/:account_id", h.Unfollow)
		authorized.GET("/users", h.ListUsers)
		authorized.GET("/users/:id", h.GetUser)
	}

	return router
}

type Server struct {
	srv *http.Server
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		slog.Info("web: Server starting", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	slog.Info("web: Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("web: Server forced to shutdown", "error", err)
		return err
	}

	return nil
}
