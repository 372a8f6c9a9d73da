package sink

import (
	"context"
	"sync"
	"time"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/metrics"
)

// Dispatcher runs appends in the background, detached from the request that
// triggered them, and keeps count so shutdown can drain them.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	logger  logger.Logger

	wg sync.WaitGroup
}

// NewDispatcher wraps s; a nil sink disables dispatching.
func NewDispatcher(s Sink, timeout time.Duration, log logger.Logger) *Dispatcher {
	if s == nil {
		s = Nop{}
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Dispatcher{
		sink:    s,
		timeout: timeout,
		logger:  log.WithFields(logger.Fields{"component": "sink"}),
	}
}

// Enabled reports whether rows go anywhere.
func (d *Dispatcher) Enabled() bool {
	_, nop := d.sink.(Nop)
	return !nop
}

// Dispatch schedules row and returns immediately. Request-scoped values on
// ctx are kept; its cancellation is not.
func (d *Dispatcher) Dispatch(ctx context.Context, row Row) {
	if !d.Enabled() {
		return
	}

	bg := context.WithoutCancel(ctx)
	d.wg.Add(1)
	metrics.SinkInFlight.Inc()
	go func() {
		defer d.wg.Done()
		defer metrics.SinkInFlight.Dec()

		wctx, cancel := context.WithTimeout(bg, d.timeout)
		defer cancel()

		start := time.Now()
		if err := d.sink.AppendRow(wctx, row); err != nil {
			d.logger.Error("Failed to append quotation row", logger.Fields{
				"sink":     d.sink.Name(),
				"error":    err.Error(),
				"duration": time.Since(start).String(),
			})
			return
		}
		d.logger.Debug("Quotation row appended", logger.Fields{
			"sink":     d.sink.Name(),
			"duration": time.Since(start).String(),
		})
	}()
}

// Wait blocks until in-flight appends finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
