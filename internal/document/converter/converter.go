// Package converter turns rendered .docx files into PDF with external tools.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/metrics"
	"quotation-service/internal/common/tempdir"
)

// Output is a converted file and the scoped directory that holds it.
type Output struct {
	Path string
	Dir  *tempdir.Dir
}

// Converter is one external conversion tool.
type Converter interface {
	Name() string
	// Probe reports whether the tool answers; ctx carries the probe timeout.
	Probe(ctx context.Context) error
	// Convert writes <source base>.pdf into a new directory from dirs.
	Convert(ctx context.Context, source string, dirs tempdir.DirAllocator) (*Output, error)
}

// Registry probes converters in priority order.
type Registry struct {
	converters   []Converter
	probeTimeout time.Duration
	logger       logger.Logger
}

func NewRegistry(probeTimeout time.Duration, log logger.Logger, converters ...Converter) *Registry {
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Registry{converters: converters, probeTimeout: probeTimeout, logger: log}
}

// Names lists the configured tools in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.converters))
	for i, c := range r.converters {
		names[i] = c.Name()
	}
	return names
}

// Detect returns the first converter whose probe succeeds. Nothing is cached.
func (r *Registry) Detect(ctx context.Context) (Converter, bool) {
	for _, c := range r.converters {
		pctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
		err := c.Probe(pctx)
		cancel()

		if err == nil {
			metrics.ConverterProbes.WithLabelValues(c.Name(), "true").Inc()
			return c, true
		}
		metrics.ConverterProbes.WithLabelValues(c.Name(), "false").Inc()
		r.logger.Debug("Converter unavailable", logger.Fields{"tool": c.Name(), "error": err.Error()})

		if ctx.Err() != nil {
			return nil, false
		}
	}
	return nil, false
}

func expectedOutput(dir, source string) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(dir, base+".pdf")
}

// checkOutput confirms the tool left a file at path and, when verify is
// set, that pdfcpu reads at least one page from it.
func checkOutput(path string, verify bool) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrConversionOutputMissing, filepath.Base(path))
	}
	if !verify {
		return nil
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s is not a readable PDF: %v", ErrConversionOutputMissing, filepath.Base(path), err)
	}
	if pages < 1 {
		return fmt.Errorf("%w: %s has no pages", ErrConversionOutputMissing, filepath.Base(path))
	}
	return nil
}

func observe(tool string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrConversionTimeout):
		result = "timeout"
	default:
		result = "error"
	}
	metrics.ConversionDuration.WithLabelValues(tool, result).Observe(time.Since(start).Seconds())
}
