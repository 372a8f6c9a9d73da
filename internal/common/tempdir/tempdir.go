// Package tempdir tracks the temporary directories a pipeline run creates and
// removes each of them exactly once.
package tempdir

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/metrics"
)

// ErrScopeReleased is returned by NewDir after Release has run.
var ErrScopeReleased = errors.New("temp dir scope already released")

var removeAll = os.RemoveAll

// DirAllocator hands out scoped temporary directories.
type DirAllocator interface {
	NewDir(pattern string) (*Dir, error)
}

// Dir is one temporary directory owned by a Scope.
type Dir struct {
	Path string

	once sync.Once
	err  error
}

// Remove deletes the directory tree. Later calls return the first result.
func (d *Dir) Remove() error {
	_, err := d.remove()
	return err
}

// remove also reports whether this call did the removal.
func (d *Dir) remove() (first bool, err error) {
	d.once.Do(func() {
		d.err = removeAll(d.Path)
		metrics.TempDirsActive.Dec()
		first = true
	})
	return first, d.err
}

// Scope records directories on creation and releases them together.
type Scope struct {
	base string
	log  logger.Logger

	mu       sync.Mutex
	dirs     []*Dir
	released bool
}

// NewScope creates a scope rooted at base (os.TempDir() when empty).
func NewScope(base string, log logger.Logger) *Scope {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Scope{base: base, log: log}
}

// NewDir creates a directory and records it before returning it.
func (s *Scope) NewDir(pattern string) (*Dir, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil, ErrScopeReleased
	}

	path, err := os.MkdirTemp(s.base, pattern)
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	d := &Dir{Path: path}
	s.dirs = append(s.dirs, d)
	metrics.TempDirsActive.Inc()
	return d, nil
}

// Paths lists the directories recorded so far.
func (s *Scope) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.dirs))
	for i, d := range s.dirs {
		out[i] = d.Path
	}
	return out
}

// Release removes every recorded directory. It is safe to call more than
// once; failures are returned joined on every call but logged only by the
// call that attempted the removal.
func (s *Scope) Release() error {
	s.mu.Lock()
	s.released = true
	dirs := s.dirs
	s.mu.Unlock()

	var errs []error
	for _, d := range dirs {
		first, err := d.remove()
		if err == nil {
			continue
		}
		if first {
			s.log.Warn("Failed to remove temp dir", logger.Fields{
				"path":  d.Path,
				"error": err.Error(),
			})
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
