package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"resume2pdf/internal/config"
	"resume2pdf/internal/domain"
	"resume2pdf/internal/infra/chrome"
	"resume2pdf/internal/infra/logging"
	"resume2pdf/internal/infra/workspace"
)

// Messages returned to callers.
const (
	msgHTMLRequired = "HTML content is required"
	msgInvalidScale = "Scale must be between 0.1 and 2"
	msgInvalidBody  = "Invalid JSON body"
	msgRenderFailed = "Failed to generate PDF"
	contentTypePDF  = "application/pdf"
	contentTypeJSON = "application/json"
)

// ConvertRequest is the body of POST /convert-to-pdf.
type ConvertRequest struct {
	HTML   string                  `json:"html"`
	Config *domain.RenderOverrides `json:"config,omitempty"`
}

// ConvertService bundles configuration and dependencies for conversions.
type ConvertService struct {
	Config     *config.Config
	Renderer   chrome.Renderer
	Workspaces *workspace.Manager
	Defaults   domain.RenderConfig
}

// NewConvertService creates a ConvertService. The default paper format comes
// from pdf.default_paper.
func NewConvertService(cfg config.Config, renderer chrome.Renderer) *ConvertService {
	defaults := domain.DefaultRenderConfig()
	if cfg.PDF.DefaultPaper != "" {
		defaults.Format = cfg.PDF.DefaultPaper
	}
	return &ConvertService{
		Config:     &cfg,
		Renderer:   renderer,
		Workspaces: workspace.NewManager(cfg.Workspace.BaseDir, cfg.Workspace.Prefix),
		Defaults:   defaults,
	}
}

// HandleConvert validates the request, renders the PDF and sends it back.
func (svc *ConvertService) HandleConvert(c *fiber.Ctx) error {
	req, err := parseConvertRequest(c)
	if err == nil {
		err = req.Validate()
	}
	var opts domain.RenderConfig
	if err == nil {
		opts, err = domain.Merge(svc.Defaults, req.Config)
	}
	if err != nil {
		return validationError(err)
	}

	pdfBuf, err := svc.convert(c.UserContext(), req.HTML, opts)
	if err != nil {
		logging.Error("PDF generation failed", "error", err, "request_id", requestID(c))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   msgRenderFailed,
			"details": err.Error(),
		})
	}

	logging.Info("PDF generated", "bytes", len(pdfBuf), "request_id", requestID(c))

	c.Set(fiber.HeaderContentType, contentTypePDF)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+svc.Config.PDF.DownloadFilename)
	return c.Send(pdfBuf)
}

// convert runs one request through its own workspace, which is released on
// every path.
func (svc *ConvertService) convert(ctx context.Context, html string, opts domain.RenderConfig) ([]byte, error) {
	ws, err := svc.Workspaces.Acquire()
	if err != nil {
		return nil, domain.NewRenderError(domain.StageWorkspace, err)
	}
	defer ws.Release()

	if err := ws.WriteInput(html); err != nil {
		return nil, domain.NewRenderError(domain.StageWorkspace, err)
	}

	if err := svc.Renderer.Render(ctx, chrome.Job{
		InputPath:  ws.InputPath,
		OutputPath: ws.OutputPath,
		Options:    opts,
	}); err != nil {
		return nil, domain.NewRenderError(domain.StagePrint, err)
	}

	pdfBuf, err := ws.ReadOutput()
	if err != nil {
		return nil, domain.NewRenderError(domain.StageRead, err)
	}
	return pdfBuf, nil
}

// parseConvertRequest decodes a JSON body. Bodies that are not JSON count as
// empty, so they fail the html check rather than the decoder.
func parseConvertRequest(c *fiber.Ctx) (*ConvertRequest, error) {
	var req ConvertRequest
	body := c.Body()
	if len(body) == 0 || !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), contentTypeJSON) {
		return &req, nil
	}
	if err := c.App().Config().JSONDecoder(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidBody, err)
	}
	return &req, nil
}

// Validate checks the fields the handler needs before touching the disk.
func (r *ConvertRequest) Validate() error {
	if r.HTML == "" {
		return domain.ErrHTMLRequired
	}
	return nil
}

// validationError maps caller mistakes to 400 responses.
func validationError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidBody):
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	case errors.Is(err, domain.ErrHTMLRequired):
		return fiber.NewError(fiber.StatusBadRequest, msgHTMLRequired)
	case errors.Is(err, domain.ErrInvalidScale):
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidScale)
	default:
		return err
	}
}

func requestID(c *fiber.Ctx) string {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
