// Package sink records each accepted quotation in one or more external
// stores. Writes are fire-and-forget from the caller's point of view; see
// Dispatcher.
package sink

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"quotation-service/internal/common/metrics"
)

// Row is one record laid out in a fixed column order.
type Row struct {
	Columns []string
	Values  []string
}

// BuildRow picks columns out of data; absent fields become "".
func BuildRow(columns []string, data map[string]string) Row {
	row := Row{
		Columns: append([]string(nil), columns...),
		Values:  make([]string, len(columns)),
	}
	for i, c := range columns {
		row.Values[i] = data[c]
	}
	return row
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]string {
	out := make(map[string]string, len(r.Columns))
	for i, c := range r.Columns {
		if i < len(r.Values) {
			out[c] = r.Values[i]
		}
	}
	return out
}

// Document is the row as a JSON-friendly map with a creation timestamp.
func (r Row) Document(now time.Time) map[string]interface{} {
	doc := make(map[string]interface{}, len(r.Columns)+1)
	for k, v := range r.Map() {
		doc[k] = v
	}
	doc["created_at"] = now.UTC().Format(time.RFC3339)
	return doc
}

type Sink interface {
	Name() string
	AppendRow(ctx context.Context, row Row) error
}

// Nop drops every row.
type Nop struct{}

func (Nop) Name() string                         { return "nop" }
func (Nop) AppendRow(context.Context, Row) error { return nil }

// Multi appends to every backend concurrently. One failing backend does not
// stop the others; the errors are joined.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Name() string { return "multi" }

// Len is the number of backends.
func (m *Multi) Len() int { return len(m.sinks) }

func (m *Multi) AppendRow(ctx context.Context, row Row) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, s := range m.sinks {
		s := s
		g.Go(func() error {
			err := s.AppendRow(ctx, row)
			result := "success"
			if err != nil {
				result = "error"
				mu.Lock()
				errs = append(errs, &BackendError{Sink: s.Name(), Err: err})
				mu.Unlock()
			}
			metrics.SinkWrites.WithLabelValues(s.Name(), result).Inc()
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// BackendError names the backend that failed.
type BackendError struct {
	Sink string
	Err  error
}

func (e *BackendError) Error() string { return e.Sink + ": " + e.Err.Error() }

func (e *BackendError) Unwrap() error { return e.Err }
