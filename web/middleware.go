package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const steamIDKey = "steamID"

// AuthMiddleware requires a valid session cookie
func AuthMiddleware(sessions *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "sign in with Steam first"})
			return
		}

		steamID, err := sessions.Parse(token)
		if err != nil {
			message := "invalid session"
			if errors.Is(err, ErrSessionExpired) {
				message = "session expired"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: message})
			return
		}

		c.Set(steamIDKey, steamID)
		c.Next()
	}
}

// GetSteamID extracts the signed-in SteamID64 from context
func GetSteamID(c *gin.Context) int64 {
	if steamID, exists := c.Get(steamIDKey); exists {
		return steamID.(int64)
	}
	return 0
}

// RequestLogger logs every request with slog
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		c.Next()

		slog.Info("web: Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"took", time.Since(started),
		)
	}
}
