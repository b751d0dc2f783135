package domain

import (
	"errors"
	"fmt"
)

// Validation errors. They are caller mistakes and map to HTTP 400.
var (
	ErrHTMLRequired = errors.New("html content is required")
	ErrInvalidScale = errors.New("scale must be between 0.1 and 2")
	ErrInvalidBody  = errors.New("invalid json body")
)

// ErrRenderFailure matches every *RenderError.
var ErrRenderFailure = errors.New("render failure")

// Render stages.
const (
	StageWorkspace = "workspace"
	StageAdmission = "admission"
	StageLaunch    = "launch"
	StageNavigate  = "navigate"
	StagePrint     = "print"
	StageWrite     = "write"
	StageRead      = "read"
)

// RenderError reports why a PDF could not be produced. Stage tells which step
// failed; callers treat all stages alike.
type RenderError struct {
	Stage string
	Err   error
}

// NewRenderError wraps err for the given stage. A nil err yields nil.
func NewRenderError(stage string, err error) error {
	if err == nil {
		return nil
	}
	var re *RenderError
	if errors.As(err, &re) {
		return err
	}
	return &RenderError{Stage: stage, Err: err}
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRenderFailure }
