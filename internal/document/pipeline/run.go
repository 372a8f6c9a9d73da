package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	apperrors "quotation-service/internal/common/errors"
	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/observability"
	"quotation-service/internal/common/tempdir"
	"quotation-service/internal/models"
)

// Run is one pipeline execution holding a ready artifact. It owns every
// temporary directory created for it until Close.
type Run struct {
	ID       string
	Kind     models.OutputKind
	Tool     string
	FileName string
	Size     int64

	path    string
	started time.Time
	scope   *tempdir.Scope
	obs     *observability.Observability
	log     logger.Logger

	mu        sync.Mutex
	state     State
	streamErr error
	closeOnce sync.Once
}

// State returns the current lifecycle state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ContentType of the artifact.
func (r *Run) ContentType() string {
	return r.Kind.ContentType()
}

// Dirs lists the temporary directories the run created.
func (r *Run) Dirs() []string {
	return r.scope.Paths()
}

func (r *Run) transition(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.log.Debug("Run state changed", logger.Fields{"state": string(s)})
}

func (r *Run) stat() error {
	size, err := fileSize(r.path)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("artifact missing: %w", err))
	}
	r.Size = size
	return nil
}

// fail releases everything and returns the error in its response form. The
// error carries the run id and tool so the response writer can log it once.
func (r *Run) fail(err error) *apperrors.StandardError {
	stdErr := apperrors.Normalize(err).WithMetadata("runId", r.ID)
	r.transition(StateFailed)
	r.closeOnce.Do(func() {
		_ = r.scope.Release()
	})
	fields := logger.Fields{
		"code":     string(stdErr.Code),
		"duration": time.Since(r.started).String(),
	}
	if r.Tool != "" {
		stdErr.WithMetadata("tool", r.Tool)
		fields["tool"] = r.Tool
	}
	r.log.Debug("Quotation run failed", fields)
	recordRun(context.Background(), r.obs, r.Kind, r.started, stdErr)
	return stdErr
}

// WriteTo streams the artifact. A completed copy moves the run to Delivered.
func (r *Run) WriteTo(w io.Writer) (int64, error) {
	f, err := os.Open(r.path)
	if err != nil {
		r.setStreamErr(err)
		return 0, err
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		r.setStreamErr(err)
		return n, err
	}
	r.transition(StateDelivered)
	return n, nil
}

func (r *Run) setStreamErr(err error) {
	r.mu.Lock()
	r.streamErr = err
	r.mu.Unlock()
}

// Close removes the run's directories. Safe to call more than once; cleanup
// failures are logged by the scope, not returned.
func (r *Run) Close() error {
	r.closeOnce.Do(func() {
		_ = r.scope.Release()

		r.mu.Lock()
		state, streamErr := r.state, r.streamErr
		r.mu.Unlock()

		var stdErr *apperrors.StandardError
		if state != StateDelivered {
			if streamErr == nil {
				streamErr = fmt.Errorf("artifact not streamed")
			}
			stdErr = apperrors.NewInternalError(streamErr)
			r.transition(StateFailed)
			r.log.Warn("Artifact delivery interrupted", logger.Fields{"error": streamErr.Error()})
		} else {
			r.log.Info("Quotation delivered", logger.Fields{
				"state":    string(state),
				"tool":     r.Tool,
				"bytes":    r.Size,
				"duration": time.Since(r.started).String(),
			})
		}
		recordRun(context.Background(), r.obs, r.Kind, r.started, stdErr)
	})
	return nil
}
