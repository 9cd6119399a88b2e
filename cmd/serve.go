package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.skobk.in/skobkin/dota2-notify-bot/checker"
	"git.skobk.in/skobkin/dota2-notify-bot/steam"
	"git.skobk.in/skobkin/dota2-notify-bot/web"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot, the web server and the match checker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	botUsername := a.cfg.Telegram.Username
	if botUsername == "" {
		me, err := a.api.GetMe()
		if err != nil {
			slog.Warn("main: Cannot resolve bot username, link buttons are disabled", "error", err)
		} else {
			botUsername = me.Username
		}
	}

	sessions := web.NewSessions(a.cfg.Web.JWTSecret, web.DefaultSessionTTL)
	handler := web.NewHandler(a.store, steam.NewClient(a.cfg.API.SteamKey, a.cfg.API.Timeout()), a.matches, sessions, web.Options{
		PublicBaseURL: a.cfg.Web.PublicBaseURL,
		BotUsername:   botUsername,
		CookieSecure:  a.cfg.Web.CookieSecure,
	})
	server := web.NewServer(a.cfg.Web.Addr, web.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.bot.Run(ctx)
	})
	g.Go(func() error {
		return server.Run(ctx)
	})

	if a.cfg.Checker.Enabled() {
		scheduler := checker.NewScheduler(a.checker, a.cfg.Checker.Interval())
		g.Go(func() error {
			scheduler.Start(ctx)
			return nil
		})
		defer scheduler.Stop()
	} else {
		slog.Warn("main: Match checker is disabled")
	}

	slog.Info("main: Service started", "addr", a.cfg.Web.Addr, "storage", a.cfg.Storage.Driver)

	if err := g.Wait(); err != nil {
		slog.Error("main: Service stopped with error", "error", err)
		return err
	}

	slog.Info("main: Service stopped")

	return nil
}
