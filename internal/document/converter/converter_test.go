package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotation-service/internal/common/config"
	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/tempdir"
	"quotation-service/internal/testutil"
)

// fakeRunner records invocations and delegates to fn.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(ctx context.Context, name string, args []string) (string, string, error)
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	if r.fn == nil {
		return "", "", nil
	}
	return r.fn(ctx, name, args)
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts need a unix shell")
	}
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newScope(t *testing.T) (*tempdir.Scope, string) {
	t.Helper()
	base := t.TempDir()
	scope := tempdir.NewScope(base, logger.NewTestLogger(t))
	t.Cleanup(func() { _ = scope.Release() })
	return scope, base
}

func sourceDocx(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cotizacion_abc.docx")
	require.NoError(t, os.WriteFile(path, []byte("docx"), 0o600))
	return path
}

func TestLibreOffice_Convert(t *testing.T) {
	scope, _ := newScope(t)
	runner := &fakeRunner{fn: func(_ context.Context, _ string, args []string) (string, string, error) {
		out := argAfter(args, "--outdir")
		src := args[len(args)-1]
		base := strings.TrimSuffix(filepath.Base(src), ".docx")
		return "", "", os.WriteFile(filepath.Join(out, base+".pdf"), testutil.MinimalPDF(), 0o600)
	}}
	lo := &LibreOffice{Binary: "libreoffice", Timeout: time.Second, Verify: true, Runner: runner}

	src := sourceDocx(t)
	out, err := lo.Convert(context.Background(), src, scope)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out.Dir.Path, "cotizacion_abc.pdf"), out.Path)
	assert.Contains(t, scope.Paths(), out.Dir.Path)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "libreoffice", call[0])
	assert.Contains(t, call, "--headless")
	assert.Contains(t, call, "-env:UserInstallation=file://"+filepath.ToSlash(filepath.Join(out.Dir.Path, "profile")))
	assert.Equal(t, "pdf", argAfter(call, "--convert-to"))
	assert.Equal(t, src, call[len(call)-1])
}

func TestPandoc_Convert(t *testing.T) {
	scope, _ := newScope(t)
	runner := &fakeRunner{fn: func(_ context.Context, _ string, args []string) (string, string, error) {
		return "", "", os.WriteFile(argAfter(args, "-o"), testutil.MinimalPDF(), 0o600)
	}}
	p := &Pandoc{Binary: "pandoc", PDFEngine: "xelatex", Timeout: time.Second, Verify: true, Runner: runner}

	src := sourceDocx(t)
	out, err := p.Convert(context.Background(), src, scope)
	require.NoError(t, err)

	assert.Equal(t, "cotizacion_abc.pdf", filepath.Base(out.Path))
	assert.Equal(t, []string{"pandoc", src, "-o", out.Path, "--pdf-engine=xelatex"}, runner.calls[0])
}

func TestConvert_OutputMissing(t *testing.T) {
	scope, _ := newScope(t)
	lo := &LibreOffice{Binary: "libreoffice", Timeout: time.Second, Runner: &fakeRunner{}}

	_, err := lo.Convert(context.Background(), sourceDocx(t), scope)
	assert.ErrorIs(t, err, ErrConversionOutputMissing)
}

func TestConvert_VerifyRejectsGarbage(t *testing.T) {
	scope, _ := newScope(t)
	runner := &fakeRunner{fn: func(_ context.Context, _ string, args []string) (string, string, error) {
		return "", "", os.WriteFile(argAfter(args, "-o"), []byte("not a pdf at all"), 0o600)
	}}

	verified := &Pandoc{Binary: "pandoc", PDFEngine: "xelatex", Timeout: time.Second, Verify: true, Runner: runner}
	_, err := verified.Convert(context.Background(), sourceDocx(t), scope)
	assert.ErrorIs(t, err, ErrConversionOutputMissing)

	unverified := &Pandoc{Binary: "pandoc", PDFEngine: "xelatex", Timeout: time.Second, Verify: false, Runner: runner}
	_, err = unverified.Convert(context.Background(), sourceDocx(t), scope)
	assert.NoError(t, err)
}

func TestConvert_ToolError(t *testing.T) {
	scope, _ := newScope(t)
	script := writeScript(t, `echo "Error: source file could not be loaded" >&2; exit 3`)
	lo := &LibreOffice{Binary: script, Timeout: 5 * time.Second, Runner: &ExecRunner{}}

	_, err := lo.Convert(context.Background(), sourceDocx(t), scope)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "libreoffice", toolErr.Tool)
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Contains(t, toolErr.Stderr, "could not be loaded")
}

func TestConvert_MissingBinary(t *testing.T) {
	scope, _ := newScope(t)
	p := &Pandoc{Binary: filepath.Join(t.TempDir(), "nope"), Timeout: time.Second, Runner: &ExecRunner{}}

	_, err := p.Convert(context.Background(), sourceDocx(t), scope)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, -1, toolErr.ExitCode)
}

func TestConvert_TimeoutKillsProcessGroup(t *testing.T) {
	scope, _ := newScope(t)
	// The background sleep keeps stdout open; only a group kill ends it early.
	script := writeScript(t, "sleep 30 &\nsleep 30")
	lo := &LibreOffice{Binary: script, Timeout: 200 * time.Millisecond, Runner: &ExecRunner{WaitDelay: 10 * time.Second}}

	start := time.Now()
	_, err := lo.Convert(context.Background(), sourceDocx(t), scope)
	assert.ErrorIs(t, err, ErrConversionTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestChromium_Convert(t *testing.T) {
	scope, _ := newScope(t)
	runner := &fakeRunner{fn: func(_ context.Context, _ string, args []string) (string, string, error) {
		return "", "", os.WriteFile(argAfter(args, "-o"), []byte("<html></html>"), 0o600)
	}}
	printer := printerFunc(func(_ context.Context, htmlPath, pdfPath string) error {
		if _, err := os.Stat(htmlPath); err != nil {
			return err
		}
		return os.WriteFile(pdfPath, testutil.MinimalPDF(), 0o600)
	})
	c := &Chromium{PandocBinary: "pandoc", Timeout: time.Second, Verify: true, Runner: runner, Printer: printer}

	out, err := c.Convert(context.Background(), sourceDocx(t), scope)
	require.NoError(t, err)
	assert.Equal(t, "cotizacion_abc.pdf", filepath.Base(out.Path))
	assert.Equal(t, "html5", argAfter(runner.calls[0], "-t"))
}

func TestChromium_PrinterFailure(t *testing.T) {
	scope, _ := newScope(t)
	printer := printerFunc(func(context.Context, string, string) error { return errors.New("chrome crashed") })
	c := &Chromium{PandocBinary: "pandoc", Timeout: time.Second, Runner: &fakeRunner{}, Printer: printer}

	_, err := c.Convert(context.Background(), sourceDocx(t), scope)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "chromium", toolErr.Tool)
}

func TestChromium_ProbeNeedsBrowser(t *testing.T) {
	c := &Chromium{PandocBinary: "pandoc", BrowserBin: filepath.Join(t.TempDir(), "chrome"), Runner: &fakeRunner{}}
	assert.ErrorIs(t, c.Probe(context.Background()), ErrBrowserNotFound)
}

type printerFunc func(ctx context.Context, htmlPath, pdfPath string) error

func (f printerFunc) PrintToPDF(ctx context.Context, htmlPath, pdfPath string) error {
	return f(ctx, htmlPath, pdfPath)
}

type stubConverter struct {
	name     string
	probeErr error
	probes   int
}

func (s *stubConverter) Name() string { return s.name }
func (s *stubConverter) Probe(context.Context) error {
	s.probes++
	return s.probeErr
}
func (s *stubConverter) Convert(context.Context, string, tempdir.DirAllocator) (*Output, error) {
	return nil, errors.New("not used")
}

func TestRegistry_Detect(t *testing.T) {
	lo := &stubConverter{name: "libreoffice", probeErr: errors.New("not installed")}
	pd := &stubConverter{name: "pandoc"}
	r := NewRegistry(time.Second, logger.NewTestLogger(t), lo, pd)

	got, ok := r.Detect(context.Background())
	require.True(t, ok)
	assert.Equal(t, "pandoc", got.Name())

	// Not cached: every call probes again.
	_, _ = r.Detect(context.Background())
	assert.Equal(t, 2, lo.probes)
	assert.Equal(t, []string{"libreoffice", "pandoc"}, r.Names())
}

func TestRegistry_DetectNone(t *testing.T) {
	r := NewRegistry(time.Second, nil,
		&stubConverter{name: "libreoffice", probeErr: errors.New("missing")},
		&stubConverter{name: "pandoc", probeErr: errors.New("missing")},
	)
	_, ok := r.Detect(context.Background())
	assert.False(t, ok)

	_, ok = NewRegistry(0, nil).Detect(context.Background())
	assert.False(t, ok)
}

func TestRegistry_ProbeTimeout(t *testing.T) {
	script := writeScript(t, "sleep 30")
	lo := &LibreOffice{Binary: script, Runner: &ExecRunner{WaitDelay: time.Second}}
	r := NewRegistry(150*time.Millisecond, nil, lo)

	start := time.Now()
	_, ok := r.Detect(context.Background())
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.ConvertersConfig{
		Order:        []string{"libreoffice", "pandoc", "chromium"},
		ProbeTimeout: 100,
		LibreOffice:  config.LibreOfficeConfig{Binary: "soffice", Timeout: 60000},
		Pandoc:       config.PandocConfig{Binary: "pandoc", PDFEngine: "xelatex", Timeout: 30000},
	}
	assert.Equal(t, []string{"libreoffice", "pandoc"}, NewFromConfig(cfg, &fakeRunner{}, nil).Names())

	cfg.Chromium.Enabled = true
	cfg.Order = []string{"chromium", "pandoc"}
	assert.Equal(t, []string{"chromium", "pandoc"}, NewFromConfig(cfg, &fakeRunner{}, nil).Names())
}
