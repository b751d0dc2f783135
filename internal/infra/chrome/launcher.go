package chrome

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"

	"resume2pdf/internal/config"
	"resume2pdf/internal/domain"
	"resume2pdf/internal/infra/logging"
)

// Launcher starts a dedicated browser process for every render and tears it
// down afterwards. At most pdf.max_concurrent_renders browsers run at once.
type Launcher struct {
	cfg config.Config
	sem *semaphore.Weighted

	capacity int64
	active   atomic.Int64
	renders  atomic.Int64
	failures atomic.Int64
}

func NewLauncher(cfg config.Config) *Launcher {
	capacity := int64(cfg.PDF.MaxConcurrentRenders)
	if capacity <= 0 {
		capacity = 1
	}
	return &Launcher{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(capacity),
		capacity: capacity,
	}
}

// Render waits for a free slot, then launches, prints and closes a browser.
// The whole call, waiting included, is bounded by pdf.timeout_secs.
func (l *Launcher) Render(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.RenderTimeout())
	defer cancel()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		l.failures.Add(1)
		return domain.NewRenderError(domain.StageAdmission, err)
	}
	defer l.sem.Release(1)

	l.active.Add(1)
	defer l.active.Add(-1)
	l.renders.Add(1)

	err := l.render(ctx, job)
	if err != nil {
		l.failures.Add(1)
	}
	return err
}

func (l *Launcher) render(ctx context.Context, job Job) error {
	profileDir, err := createProfileDir(l.cfg)
	if err != nil {
		return domain.NewRenderError(domain.StageLaunch, err)
	}
	defer func() {
		if err := os.RemoveAll(profileDir); err != nil {
			logging.Warn("Chrome profile cleanup failed", "path", profileDir, "error", err)
		}
	}()

	// Cancelling allocCtx kills the process and waits for it to exit.
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(l.cfg, profileDir)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer func() {
		if err := chromedp.Cancel(browserCtx); err != nil && !IsSessionInterrupted(err) {
			logging.Warn("Chrome close failed", "error", err)
		}
		browserCancel()
	}()

	if err := chromedp.Run(browserCtx); err != nil {
		return domain.NewRenderError(domain.StageLaunch, err)
	}
	return runJob(browserCtx, job, l.cfg.PDF.PaperSizes)
}

func (l *Launcher) Stats() Stats {
	inUse := int(l.active.Load())
	return Stats{
		Mode:         "per_request",
		Enabled:      true,
		Capacity:     int(l.capacity),
		Idle:         int(l.capacity) - inUse,
		InUse:        inUse,
		Renders:      l.renders.Load(),
		Failures:     l.failures.Load(),
		PoolSizeConf: l.cfg.PDF.ChromePoolSize,
		TimeoutSecs:  l.cfg.PDF.TimeoutSecs,
	}
}

// Close is a no-op: every browser is already gone when Render returns.
func (l *Launcher) Close() error { return nil }
