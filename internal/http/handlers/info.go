package handlers

import (
	"sort"

	"github.com/gofiber/fiber/v2"

	"resume2pdf/internal/config"
	"resume2pdf/internal/domain"
)

const (
	serviceName    = "Resume HTML to PDF Converter API"
	serviceVersion = "1.0.0"
	ConvertPath    = "/convert-to-pdf"
)

// infoPayload describes the API and the accepted configuration options.
func infoPayload(cfg config.Config, defaults domain.RenderConfig) fiber.Map {
	formats := make([]string, 0, len(cfg.PDF.PaperSizes))
	for name := range cfg.PDF.PaperSizes {
		formats = append(formats, name)
	}
	sort.Strings(formats)

	return fiber.Map{
		"message":   serviceName,
		"version":   serviceVersion,
		"endpoints": []string{ConvertPath},
		"configOptions": fiber.Map{
			"format":              formats,
			"margin":              "Object with top, right, bottom, left in px/cm/mm/in/pt",
			"scale":               "Number between 0.1 and 2",
			"landscape":           "Boolean",
			"printBackground":     "Boolean",
			"preferCSSPageSize":   "Boolean",
			"displayHeaderFooter": "Boolean",
			"headerTemplate":      "HTML string",
			"footerTemplate":      "HTML string",
			"pageRanges":          `String (e.g., "1-5, 8")`,
		},
		"defaults": defaults,
	}
}

// HandleInfo serves the capability document. It has no side effects.
func (svc *ConvertService) HandleInfo() fiber.Handler {
	payload := infoPayload(*svc.Config, svc.Defaults)
	return func(c *fiber.Ctx) error {
		return c.JSON(payload)
	}
}

// HandleRendererStats exposes the renderer's capacity and counters.
func (svc *ConvertService) HandleRendererStats(c *fiber.Ctx) error {
	return c.JSON(svc.Renderer.Stats())
}
