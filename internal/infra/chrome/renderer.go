// Package chrome drives headless Chromium through chromedp to print local
// HTML files to PDF.
package chrome

import (
	"context"
	"time"

	"resume2pdf/internal/config"
	"resume2pdf/internal/domain"
)

// Job is one print request: read InputPath, write the PDF to OutputPath.
type Job struct {
	InputPath  string
	OutputPath string
	Options    domain.RenderConfig
}

// Stats is a point-in-time view of a renderer.
type Stats struct {
	Mode         string    `json:"mode"`
	Enabled      bool      `json:"enabled"`
	Capacity     int       `json:"capacity"`
	Idle         int       `json:"idle"`
	InUse        int       `json:"in_use"`
	Renders      int64     `json:"renders"`
	Failures     int64     `json:"failures"`
	Restarts     int       `json:"restarts"`
	LastRestart  time.Time `json:"last_restart,omitempty"`
	ProfileDir   string    `json:"profile_dir,omitempty"`
	PoolSizeConf int       `json:"pool_size_conf"`
	TimeoutSecs  int       `json:"timeout_secs"`
}

// Renderer turns a Job into a PDF file. Implementations are safe for
// concurrent use.
type Renderer interface {
	Render(ctx context.Context, job Job) error
	Stats() Stats
	Close() error
}

// NewRenderer returns a per-request Launcher, or a Pool when
// pdf.chrome_pool_size is positive.
func NewRenderer(cfg config.Config) (Renderer, error) {
	if cfg.PDF.ChromePoolSize > 0 {
		return NewPool(cfg)
	}
	return NewLauncher(cfg), nil
}
