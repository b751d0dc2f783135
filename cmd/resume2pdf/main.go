package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"resume2pdf/internal/config"
	"resume2pdf/internal/http/server"
	"resume2pdf/internal/infra/chrome"
	"resume2pdf/internal/infra/logging"
)

func main() {
	cfg := config.Load()
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	logging.SetLogLevel(cfg.Logger.Level)

	renderer, err := chrome.NewRenderer(cfg)
	if err != nil {
		logging.Error("Chrome pool unavailable, falling back to per-request browsers", "error", err)
		renderer = chrome.NewLauncher(cfg)
	}

	app := server.New(server.Deps{Config: cfg, Renderer: renderer})

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed

	if err := renderer.Close(); err != nil {
		logging.Error("Renderer close failed", "error", err)
	}
}

// startServer starts the listeners and blocks until a shutdown signal has been
// handled. With TLS enabled the plain port only redirects to HTTPS.
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	apps := []*fiber.App{app}

	if cfg.Server.TLS.Enabled {
		go func() {
			addr := cfg.Server.Host + cfg.Server.TLS.HTTPSPort
			logging.Info("HTTPS server listening", "addr", addr)
			if err := app.ListenTLS(addr, cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil {
				logging.Error("Server error", "error", err)
			}
		}()
		if cfg.Server.TLS.RedirectHTTP {
			redirect := server.NewRedirectApp(cfg)
			apps = append(apps, redirect)
			go func() {
				if err := redirect.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
					logging.Error("Redirect server error", "error", err)
				}
			}()
		}
	} else {
		go func() {
			addr := cfg.Server.Host + cfg.Server.Port
			logging.Info("HTTP server listening", "addr", addr)
			if err := app.Listen(addr); err != nil {
				logging.Error("Server error", "error", err)
			}
		}()
	}

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint
	signal.Stop(sigint)

	logging.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, a := range apps {
		if err := a.ShutdownWithContext(ctx); err != nil {
			logging.Error("Server forced to shutdown", "error", err)
		}
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
