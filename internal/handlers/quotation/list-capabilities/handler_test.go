package listcapabilities

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/tempdir"
	"quotation-service/internal/document/converter"
)

type stubConverter struct {
	name     string
	probeErr error
}

func (s *stubConverter) Name() string                { return s.name }
func (s *stubConverter) Probe(context.Context) error { return s.probeErr }
func (s *stubConverter) Convert(context.Context, string, tempdir.DirAllocator) (*converter.Output, error) {
	return nil, errors.New("not used")
}

func registry(available bool) *converter.Registry {
	var probeErr error
	if !available {
		probeErr = errors.New("not installed")
	}
	return converter.NewRegistry(time.Second, nil,
		&stubConverter{name: "libreoffice", probeErr: errors.New("not installed")},
		&stubConverter{name: "pandoc", probeErr: probeErr},
	)
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandler_Capabilities(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		want      string
	}{
		{
			name:      "tool available",
			available: true,
			want:      `{"available_tool":"pandoc","portable_supported":true,"supported_kinds":["document","portable"]}`,
		},
		{
			name:      "no tool",
			available: false,
			want:      `{"available_tool":null,"portable_supported":false,"supported_kinds":["document"]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(nil, registry(tt.available), logger.NewTestLogger(t))
			rec := get(h, Route)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}

func TestHandler_Legacy(t *testing.T) {
	h := NewHandler(&Config{Legacy: true}, registry(true), logger.NewTestLogger(t))
	rec := get(h, LegacyRoute)
	assert.JSONEq(t, `{"herramienta_disponible":"pandoc","puede_generar_pdf":true,"formatos_soportados":["word","pdf"]}`, rec.Body.String())

	h = NewHandler(&Config{Legacy: true}, registry(false), logger.NewTestLogger(t))
	rec = get(h, LegacyRoute)
	assert.JSONEq(t, `{"herramienta_disponible":null,"puede_generar_pdf":false,"formatos_soportados":["word"]}`, rec.Body.String())
}

type countingDetector struct{ calls int }

func (d *countingDetector) Detect(context.Context) (converter.Converter, bool) {
	d.calls++
	return nil, false
}

func TestHandler_ProbesEveryRequest(t *testing.T) {
	d := &countingDetector{}
	h := NewHandler(nil, d, logger.NewTestLogger(t))
	get(h, Route)
	get(h, Route)
	assert.Equal(t, 2, d.calls)
}
