// Package workspace manages the per-request scratch directory that holds the
// input HTML and the rendered PDF.
package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"resume2pdf/internal/infra/logging"
)

const (
	inputName  = "input.html"
	outputName = "output.pdf"

	defaultPrefix = "resume-"
)

// Manager creates workspaces under BaseDir (the OS temp dir when empty).
type Manager struct {
	BaseDir string
	Prefix  string
}

// NewManager returns a Manager rooted at baseDir.
func NewManager(baseDir, prefix string) *Manager {
	return &Manager{BaseDir: baseDir, Prefix: prefix}
}

// Workspace is owned by exactly one request.
type Workspace struct {
	Dir        string
	InputPath  string
	OutputPath string

	once sync.Once
}

// Acquire creates a fresh, uniquely named directory. The input and output
// files are not created yet.
func (m *Manager) Acquire() (*Workspace, error) {
	prefix := m.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	if m.BaseDir != "" {
		if err := os.MkdirAll(m.BaseDir, 0o700); err != nil {
			return nil, err
		}
	}

	dir, err := os.MkdirTemp(m.BaseDir, prefix+"*")
	if err != nil {
		return nil, err
	}
	// Chromium resolves file:// URLs against absolute paths only.
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	return &Workspace{
		Dir:        dir,
		InputPath:  filepath.Join(dir, inputName),
		OutputPath: filepath.Join(dir, outputName),
	}, nil
}

// WriteInput stores html verbatim as UTF-8.
func (w *Workspace) WriteInput(html string) error {
	return os.WriteFile(w.InputPath, []byte(html), 0o600)
}

// ReadOutput returns the rendered PDF.
func (w *Workspace) ReadOutput() ([]byte, error) {
	return os.ReadFile(w.OutputPath)
}

// Release deletes both files and the directory. Only the first call does
// anything; failures are logged and dropped.
func (w *Workspace) Release() {
	w.once.Do(func() {
		for _, p := range []string{w.InputPath, w.OutputPath} {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logging.Warn("Workspace cleanup failed", "path", p, "error", err)
			}
		}
		if err := os.RemoveAll(w.Dir); err != nil {
			logging.Warn("Workspace cleanup failed", "path", w.Dir, "error", err)
		}
	})
}
