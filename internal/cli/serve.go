package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeguardhq/codeguard/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the GitHub webhook endpoint",
	Long: `Start the HTTP server that receives GitHub pull_request webhooks,
verifies their signatures, and runs reviews in the background. Also exposes
/health and Prometheus /metrics.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, app, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	webhook := server.NewWebhookHandler(cfg.GitHub.WebhookSecret, app, app.Log)
	addr := fmt.Sprintf("%s:%d", cfg.HTTPServer.Address, cfg.HTTPServer.Port)
	srv := server.New(addr, app.Log, webhook, app.Registry)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		app.Log.Error("HTTP server error", slog.String("error", err.Error()))
		return err
	case sig := <-quit:
		app.Log.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		app.Log.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		return err
	}

	return nil
}
