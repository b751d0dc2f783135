package server

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"resume2pdf/internal/config"
	"resume2pdf/internal/http/handlers"
	"resume2pdf/internal/http/middleware"
	"resume2pdf/internal/infra/chrome"
)

const (
	StatsPath   = "/ops/chrome/stats"
	MonitorPath = "/ops/monitor"
)

// Deps are the collaborators the HTTP layer needs. A nil Renderer gets a
// per-request Launcher.
type Deps struct {
	Config   config.Config
	Renderer chrome.Renderer
}

// New creates the Fiber app with middleware and routes.
func New(deps Deps) *fiber.App {
	cfg := deps.Config
	renderer := deps.Renderer
	if renderer == nil {
		renderer = chrome.NewLauncher(cfg)
	}

	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		BodyLimit:             cfg.Server.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          handlers.ErrorHandler,
	})

	middleware.Register(app, cfg)
	registerRoutes(app, cfg, renderer)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func registerRoutes(app *fiber.App, cfg config.Config, renderer chrome.Renderer) {
	svc := handlers.NewConvertService(cfg, renderer)

	app.Get("/", svc.HandleInfo())
	app.Post(handlers.ConvertPath, svc.HandleConvert)

	app.Get(StatsPath, svc.HandleRendererStats)
	app.Get(MonitorPath, monitor.New(monitor.Config{Title: "resume2pdf"}))
}

// NewRedirectApp answers every plain HTTP request with a 302 to the HTTPS
// listener.
func NewRedirectApp(cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(func(c *fiber.Ctx) error {
		return c.Redirect(httpsURL(cfg, c.Hostname(), c.OriginalURL()), fiber.StatusFound)
	})
	return app
}

func httpsURL(cfg config.Config, hostHeader, uri string) string {
	host := hostHeader
	if h, _, err := net.SplitHostPort(hostHeader); err == nil {
		host = h
	}
	if host == "" {
		host = cfg.Server.Domain
	}

	port := strings.TrimPrefix(cfg.Server.TLS.HTTPSPort, ":")
	if port != "" && port != "443" {
		host = net.JoinHostPort(host, port)
	}
	return "https://" + host + uri
}
