package chrome

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resume2pdf/internal/config"
	"resume2pdf/internal/domain"
)

func testConfig(poolSize int) config.Config {
	cfg := config.Default()
	cfg.PDF.ChromePoolSize = poolSize
	cfg.PDF.UserDataDir = filepath.Join(os.TempDir(), "resume2pdf-chrome-tests")
	cfg.PDF.TimeoutSecs = 1
	return cfg
}

func TestCreateProfileDir_DefaultAndCustomBase(t *testing.T) {
	cfg := testConfig(1)
	cfg.PDF.UserDataDir = ""
	dir1, err := createProfileDir(cfg)
	if err != nil {
		t.Fatalf("createProfileDir default base failed: %v", err)
	}
	defer os.RemoveAll(dir1)
	if _, err := os.Stat(dir1); err != nil {
		t.Fatalf("expected created dir to exist: %v", err)
	}

	customBase := t.TempDir()
	cfg.PDF.UserDataDir = customBase
	dir2, err := createProfileDir(cfg)
	if err != nil {
		t.Fatalf("createProfileDir custom base failed: %v", err)
	}
	defer os.RemoveAll(dir2)
	if filepath.Dir(dir2) != customBase {
		t.Fatalf("expected profile dir under custom base %q, got %q", customBase, dir2)
	}
}

func TestCreateProfileDir_InvalidBase(t *testing.T) {
	cfg := testConfig(1)
	cfg.PDF.UserDataDir = "/dev/null/x"
	if _, err := createProfileDir(cfg); err == nil {
		t.Fatalf("expected error for invalid base dir")
	}
}

func TestPoolAcquireReleaseAndClose(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 1), browserCtx: context.Background()}
	p.sem <- struct{}{}

	tab, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected acquire success, got %v", err)
	}
	if tab == nil {
		t.Fatalf("expected non-nil tab")
	}
	if len(p.sem) != 0 {
		t.Fatalf("expected token consumed after acquire")
	}

	p.Release(tab, nil)
	if len(p.sem) != 1 {
		t.Fatalf("expected token returned after release")
	}

	p.closed = true
	if _, err := p.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPoolAcquireWithoutBrowserReturnsToken(t *testing.T) {
	cfg := testConfig(1)
	cfg.PDF.UserDataDir = t.TempDir()
	cfg.PDF.ChromePath = "/definitely/missing/chrome"
	p := &Pool{cfg: cfg, sem: make(chan struct{}, 1)}
	p.sem <- struct{}{}

	if _, err := p.Acquire(context.Background()); !errors.Is(err, errBrowserUnavailable) {
		t.Fatalf("expected errBrowserUnavailable when no browser can start, got %v", err)
	}
	if len(p.sem) != 1 {
		t.Fatalf("expected token to be returned")
	}
	entries, _ := os.ReadDir(cfg.PDF.UserDataDir)
	if len(entries) != 0 {
		t.Fatalf("expected failed launch to leave no profile dir, found %d entries", len(entries))
	}
}

func TestPoolFailedRestartIsRetriedOnEveryRender(t *testing.T) {
	cfg := testConfig(1)
	cfg.PDF.UserDataDir = t.TempDir()
	cfg.PDF.ChromePath = "/definitely/missing/chrome"
	p := &Pool{cfg: cfg, sem: make(chan struct{}, 1)}
	p.sem <- struct{}{}

	if err := p.Restart(); err == nil {
		t.Fatalf("expected restart to fail without a browser")
	}

	for i := 0; i < 3; i++ {
		err := p.Render(context.Background(), Job{Options: domain.DefaultRenderConfig()})
		var re *domain.RenderError
		if !errors.As(err, &re) || re.Stage != domain.StageAdmission {
			t.Fatalf("render %d: expected admission error, got %v", i, err)
		}
		// The launch error shows a new start was attempted.
		if !strings.Contains(err.Error(), "/definitely/missing/chrome") {
			t.Fatalf("render %d: expected a fresh launch attempt, got %v", i, err)
		}
	}
	if len(p.sem) != 1 {
		t.Fatalf("expected token returned after failed launches")
	}
}

func TestPoolAcquireContextCanceled(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 1), browserCtx: context.Background()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestPoolAcquireTimesOutWhenNoCapacity(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 1), browserCtx: context.Background()}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected acquire deadline exceeded, got %v", err)
	}
}

func TestPoolReleaseAfterOwnDeadlineDoesNotRestart(t *testing.T) {
	p := &Pool{cfg: testConfig(1), sem: make(chan struct{}, 1), browserCtx: context.Background()}
	p.sem <- struct{}{}

	tab, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	p.Release(tab, context.DeadlineExceeded)

	if st := p.Stats(); st.Restarts != 0 || st.Idle != 1 {
		t.Fatalf("unexpected stats after slow render: %+v", st)
	}
}

func TestPoolReleaseAfterCrashOnClosedPoolKeepsToken(t *testing.T) {
	p := &Pool{cfg: testConfig(1), sem: make(chan struct{}, 1), browserCtx: context.Background()}
	p.sem <- struct{}{}

	tab, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	p.closed = true
	p.Release(tab, errors.New("target closed"))

	if len(p.sem) != 1 {
		t.Fatalf("expected token returned even when restart fails")
	}
}

func TestPoolStatsAndClose(t *testing.T) {
	p := &Pool{sem: make(chan struct{}, 2), cfg: testConfig(2), profileDir: t.TempDir(), browserCtx: context.Background()}
	p.sem <- struct{}{}
	p.sem <- struct{}{}

	st := p.Stats()
	if !st.Enabled || st.Mode != "pool" || st.Capacity != 2 || st.Idle != 2 || st.InUse != 0 {
		t.Fatalf("unexpected stats before acquire: %+v", st)
	}

	tab, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	st = p.Stats()
	if st.InUse != 1 {
		t.Fatalf("expected one in use, got %+v", st)
	}
	p.Release(tab, nil)

	profileDir := p.profileDir
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = p.Close() // idempotent
	st = p.Stats()
	if st.Enabled {
		t.Fatalf("expected stats disabled after close: %+v", st)
	}
	if _, err := os.Stat(profileDir); !os.IsNotExist(err) {
		t.Fatalf("expected profile dir removed on close, stat err=%v", err)
	}
}

func TestPoolRestartClosed(t *testing.T) {
	p := &Pool{closed: true}
	if err := p.Restart(); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPoolRenderOnClosedPool(t *testing.T) {
	p := &Pool{cfg: testConfig(1), sem: make(chan struct{}, 1), closed: true}

	err := p.Render(context.Background(), Job{Options: domain.DefaultRenderConfig()})
	var re *domain.RenderError
	if !errors.As(err, &re) || re.Stage != domain.StageAdmission {
		t.Fatalf("expected admission render error, got %v", err)
	}
	if p.Stats().Failures != 1 {
		t.Fatalf("expected failure to be counted")
	}
}

func TestNewPool_Disabled(t *testing.T) {
	if _, err := NewPool(testConfig(0)); err == nil {
		t.Fatalf("expected disabled pool error")
	}
}

func TestNewPool_BrowserMissing(t *testing.T) {
	cfg := testConfig(1)
	cfg.PDF.UserDataDir = t.TempDir()
	cfg.PDF.ChromePath = "/definitely/missing/chrome"

	if _, err := NewPool(cfg); err == nil {
		t.Fatalf("expected pool init to fail without a browser")
	}
	entries, _ := os.ReadDir(cfg.PDF.UserDataDir)
	if len(entries) != 0 {
		t.Fatalf("expected profile dir cleaned up after failed start, found %d entries", len(entries))
	}
}

func TestNewRenderer_SelectsMode(t *testing.T) {
	r, err := NewRenderer(testConfig(0))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, ok := r.(*Launcher); !ok {
		t.Fatalf("expected per-request launcher, got %T", r)
	}
}
