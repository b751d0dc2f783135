package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"

	"resume2pdf/internal/config"
	"resume2pdf/internal/domain"
	"resume2pdf/internal/infra/logging"
)

const (
	acquireTimeout = 5 * time.Second
	warmupTimeout  = 15 * time.Second
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("chrome pool closed")

var errBrowserUnavailable = errors.New("chrome pool has no running browser")

// Pool keeps one warm browser and hands out up to pdf.chrome_pool_size tabs.
// A tab that fails because the browser died triggers a Restart, so later
// requests get a fresh process. The failed request itself is not retried.
type Pool struct {
	cfg config.Config

	mu            sync.Mutex
	sem           chan struct{}
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	profileDir    string
	closed        bool
	restarts      int
	lastRestart   time.Time

	renders  atomic.Int64
	failures atomic.Int64
}

// Tab is a checked-out browser tab.
type Tab struct {
	Ctx    context.Context
	cancel context.CancelFunc
}

// NewPool starts the browser and fills the tab semaphore.
func NewPool(cfg config.Config) (*Pool, error) {
	if cfg.PDF.ChromePoolSize <= 0 {
		return nil, errors.New("chrome pool disabled: pdf.chrome_pool_size must be positive")
	}

	p := &Pool{
		cfg: cfg,
		sem: make(chan struct{}, cfg.PDF.ChromePoolSize),
	}
	if err := p.start(); err != nil {
		return nil, err
	}
	for i := 0; i < cfg.PDF.ChromePoolSize; i++ {
		p.sem <- struct{}{}
	}
	logging.Info("Chrome pool ready", "size", cfg.PDF.ChromePoolSize, "profile_dir", p.profileDir)
	return p, nil
}

// start launches a browser with a fresh profile. Callers hold mu or own p exclusively.
func (p *Pool) start() error {
	profileDir, err := createProfileDir(p.cfg)
	if err != nil {
		return err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(p.cfg, profileDir)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run allocates the browser and binds it to browserCtx; it must not
	// run under a deadline of its own.
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(browserCtx) }()

	select {
	case err = <-done:
	case <-time.After(warmupTimeout):
		err = context.DeadlineExceeded
	}
	if err != nil {
		browserCancel()
		allocCancel()
		_ = os.RemoveAll(profileDir)
		return err
	}

	p.allocCtx, p.allocCancel = allocCtx, allocCancel
	p.browserCtx, p.browserCancel = browserCtx, browserCancel
	p.profileDir = profileDir
	return nil
}

// stop closes the browser and removes its profile. Callers hold mu.
func (p *Pool) stop() {
	if p.browserCancel != nil {
		p.browserCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
	if p.profileDir != "" {
		if err := os.RemoveAll(p.profileDir); err != nil {
			logging.Warn("Chrome profile cleanup failed", "path", p.profileDir, "error", err)
		}
	}
	p.browserCtx, p.browserCancel = nil, nil
	p.allocCtx, p.allocCancel = nil, nil
	p.profileDir = ""
}

// Acquire blocks until a tab token is free or ctx ends. If the browser is
// down it is launched again first.
func (p *Pool) Acquire(ctx context.Context) (*Tab, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case <-p.sem:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.sem <- struct{}{}
		return nil, ErrPoolClosed
	}
	// A failed Restart leaves no browser behind; try again before giving up.
	if p.browserCtx == nil {
		if err := p.start(); err != nil {
			p.sem <- struct{}{}
			return nil, fmt.Errorf("%w: %v", errBrowserUnavailable, err)
		}
		p.restarts++
		p.lastRestart = time.Now()
		logging.Info("Chrome pool relaunched", "profile_dir", p.profileDir)
	}
	tabCtx, cancel := chromedp.NewContext(p.browserCtx)
	return &Tab{Ctx: tabCtx, cancel: cancel}, nil
}

// Release closes the tab and returns its token. If renderErr shows the browser
// is gone, the browser is restarted first.
func (p *Pool) Release(tab *Tab, renderErr error) {
	if tab != nil && tab.cancel != nil {
		tab.cancel()
	}
	if browserGone(renderErr) {
		logging.Warn("Chrome session interrupted; restarting pool", "error", renderErr)
		if err := p.Restart(); err != nil {
			logging.Error("Chrome pool restart failed", "error", err)
		}
	}

	select {
	case p.sem <- struct{}{}:
	default:
	}
}

// Restart replaces the browser process and its profile.
func (p *Pool) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}

	p.stop()
	if err := p.start(); err != nil {
		return err
	}
	p.restarts++
	p.lastRestart = time.Now()
	return nil
}

// Render prints job in a pooled tab.
func (p *Pool) Render(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.RenderTimeout())
	defer cancel()

	acquireCtx, acquireCancel := context.WithTimeout(ctx, acquireTimeout)
	tab, err := p.Acquire(acquireCtx)
	acquireCancel()
	if err != nil {
		p.failures.Add(1)
		return domain.NewRenderError(domain.StageAdmission, err)
	}
	p.renders.Add(1)

	tabCtx, tabCancel := context.WithTimeout(tab.Ctx, p.cfg.RenderTimeout())
	stop := context.AfterFunc(ctx, tabCancel)
	err = runJob(tabCtx, job, p.cfg.PDF.PaperSizes)
	// Errors caused by our own deadline or cancellation say nothing about the browser.
	var sessionErr error
	if err != nil && ctx.Err() == nil && tabCtx.Err() == nil {
		sessionErr = err
	}
	stop()
	tabCancel()

	p.Release(tab, sessionErr)
	if err != nil {
		p.failures.Add(1)
	}
	return err
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{
		Mode:         "pool",
		Enabled:      !p.closed && p.sem != nil,
		Renders:      p.renders.Load(),
		Failures:     p.failures.Load(),
		Restarts:     p.restarts,
		LastRestart:  p.lastRestart,
		ProfileDir:   p.profileDir,
		PoolSizeConf: p.cfg.PDF.ChromePoolSize,
		TimeoutSecs:  p.cfg.PDF.TimeoutSecs,
	}
	if s.Enabled {
		s.Capacity = cap(p.sem)
		s.Idle = len(p.sem)
		s.InUse = s.Capacity - s.Idle
	}
	return s
}

// Close shuts the browser down. It is safe to call more than once.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.stop()
	return nil
}
