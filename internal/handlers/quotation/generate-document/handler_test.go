package generatedocument

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/tempdir"
	"quotation-service/internal/document/converter"
	"quotation-service/internal/document/formatter"
	"quotation-service/internal/document/pipeline"
	"quotation-service/internal/document/renderer"
	"quotation-service/internal/testutil"
)

type fakeConverter struct {
	available bool
}

func (c *fakeConverter) Name() string { return "libreoffice" }

func (c *fakeConverter) Probe(context.Context) error {
	if !c.available {
		return errors.New("not installed")
	}
	return nil
}

func (c *fakeConverter) Convert(_ context.Context, source string, dirs tempdir.DirAllocator) (*converter.Output, error) {
	dir, err := dirs.NewDir("fake-convert-*")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir.Path, strings.TrimSuffix(filepath.Base(source), ".docx")+".pdf")
	if err := os.WriteFile(path, testutil.MinimalPDF(), 0o644); err != nil {
		return nil, err
	}
	return &converter.Output{Path: path, Dir: dir}, nil
}

func newTestHandler(t *testing.T, cfg *Config, convAvailable bool) (*Handler, string) {
	t.Helper()
	return newTestHandlerWithLogger(t, cfg, convAvailable, logger.NewTestLogger(t))
}

func newTestHandlerWithLogger(t *testing.T, cfg *Config, convAvailable bool, log logger.Logger) (*Handler, string) {
	t.Helper()

	tmpl := filepath.Join(t.TempDir(), "Formato.docx")
	testutil.WriteDocx(t, tmpl, map[string]string{
		"word/document.xml": testutil.Body("Cliente: {{ nombre }}", "Total: {{ total_general }}"),
	})

	base := t.TempDir()
	p, err := pipeline.New(pipeline.Config{
		TemplatePath: tmpl,
		TempDir:      base,
		Rules:        pipeline.ContextRules{CurrencyFields: []string{"total_general"}},
	}, pipeline.Deps{
		Formatter:  formatter.New(formatter.DefaultLocale()),
		Renderer:   renderer.New("cotizacion", log),
		Converters: converter.NewRegistry(time.Second, log, &fakeConverter{available: convAvailable}),
		Logger:     log,
	})
	require.NoError(t, err)
	return NewHandler(cfg, p, log), base
}

func post(h http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error.Code
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandler_Document(t *testing.T) {
	h, base := newTestHandler(t, nil, true)

	rec := post(h, Route, `{"nombre":"Ana","total_general":1500000}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", rec.Header().Get("Content-Type"))
	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.True(t, strings.HasPrefix(params["filename"], "cotizacion_"))
	assert.True(t, strings.HasSuffix(params["filename"], ".docx"))
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))

	doc := testutil.ReadDocxBytes(t, rec.Body.Bytes(), "word/document.xml")
	assert.Contains(t, doc, "Cliente: Ana")
	assert.Contains(t, doc, "Total: 1.500.000")
	assertEmptyDir(t, base)
}

func TestHandler_FormatSelection(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		body        string
		contentType string
	}{
		{"default", Route, `{"nombre":"Ana"}`, "wordprocessingml"},
		{"query", Route + "?format=pdf", `{"nombre":"Ana"}`, "application/pdf"},
		{"body format", Route, `{"nombre":"Ana","format":"portable"}`, "application/pdf"},
		{"legacy body key", Route, `{"nombre":"Ana","formato":"pdf"}`, "application/pdf"},
		{"query wins over body", Route + "?format=word", `{"formato":"pdf"}`, "wordprocessingml"},
		{"format beats formato", Route, `{"format":"docx","formato":"pdf"}`, "wordprocessingml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, base := newTestHandler(t, nil, true)
			rec := post(h, tt.target, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assertEmptyDir(t, base)
		})
	}
}

func TestHandler_PortableSetsTool(t *testing.T) {
	h, _ := newTestHandler(t, nil, true)

	rec := post(h, Route+"?format=pdf", `{"nombre":"Ana"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "libreoffice", rec.Header().Get("X-Conversion-Tool"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestHandler_ForceKind(t *testing.T) {
	h, _ := newTestHandler(t, &Config{MaxBodyBytes: 1 << 20, ForceKind: "document"}, false)

	rec := post(h, WordRoute, `{"nombre":"Ana","formato":"pdf"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "wordprocessingml")
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    *Config
		target string
		body   string
		status int
		code   string
	}{
		{"unsupported kind", nil, Route, `{"formato":"excel"}`, http.StatusBadRequest, "INVALID_OUTPUT_KIND"},
		{"malformed json", nil, Route, `{"nombre":`, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"empty body", nil, Route, ``, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"array body", nil, Route, `[1,2]`, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"trailing data", nil, Route, `{} {}`, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"too large", &Config{MaxBodyBytes: 16}, Route, `{"nombre":"` + strings.Repeat("a", 64) + `"}`, http.StatusBadRequest, "INVALID_REQUEST_BODY"},
		{"nested record", nil, Route, `{"nombre":{"first":"Ana"}}`, http.StatusBadRequest, "INVALID_RECORD"},
		{"no converter", nil, Route + "?format=pdf", `{}`, http.StatusServiceUnavailable, "NO_CONVERTER_AVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, base := newTestHandler(t, tt.cfg, false)
			rec := post(h, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.code, errorCode(t, rec))
			assert.Empty(t, rec.Header().Get("Content-Disposition"))
			assertEmptyDir(t, base)
		})
	}
}

func TestHandler_FailedRunLoggedOnce(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		level zapcore.Level
		code  string
	}{
		{"invalid kind", `{"formato":"excel"}`, zapcore.WarnLevel, "INVALID_OUTPUT_KIND"},
		{"invalid record", `{"nombre":["Ana"]}`, zapcore.WarnLevel, "INVALID_RECORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			h, _ := newTestHandlerWithLogger(t, nil, true, logger.NewZapAdapter(zap.New(core)))

			rec := post(h, Route, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			fields := entries[0].ContextMap()
			assert.Equal(t, tt.code, fields["errorCode"])
			assert.NotEmpty(t, fields["runId"])
		})
	}
}

func TestNewInput(t *testing.T) {
	in := newInput("", map[string]interface{}{"nombre": "Ana", "formato": "pdf"})
	assert.Equal(t, "pdf", in.Format)
	assert.NotContains(t, in.Record, "formato")
	assert.Equal(t, "Ana", in.Record["nombre"])

	in = newInput("", nil)
	assert.Equal(t, "", in.Format)
	assert.Empty(t, in.Record)
}
