package converter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/process"
	"quotation-service/internal/common/tempdir"
)

// ErrBrowserNotFound is returned by Probe when no Chrome binary is located.
var ErrBrowserNotFound = errors.New("chrome binary not found")

// Printer prints a local HTML file to PDF.
type Printer interface {
	PrintToPDF(ctx context.Context, htmlPath, pdfPath string) error
}

// Chromium renders the docx to standalone HTML with pandoc, then prints it
// with headless Chrome. It needs no LaTeX engine.
type Chromium struct {
	PandocBinary string
	BrowserBin   string
	Timeout      time.Duration
	Verify       bool
	Runner       CommandRunner
	Printer      Printer
	Logger       logger.Logger
}

func (c *Chromium) Name() string { return "chromium" }

func (c *Chromium) Probe(ctx context.Context) error {
	if _, _, err := c.Runner.Run(ctx, c.PandocBinary, "--version"); err != nil {
		return err
	}
	if c.BrowserBin != "" {
		if _, err := os.Stat(c.BrowserBin); err != nil {
			return fmt.Errorf("%w: %v", ErrBrowserNotFound, err)
		}
		return nil
	}
	if _, ok := launcher.LookPath(); !ok {
		return ErrBrowserNotFound
	}
	return nil
}

func (c *Chromium) Convert(ctx context.Context, source string, dirs tempdir.DirAllocator) (out *Output, err error) {
	start := time.Now()
	defer func() { observe(c.Name(), start, err) }()

	dir, err := dirs.NewDir("quotation-convert-*")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	htmlPath := filepath.Join(dir.Path, base+".html")
	_, stderr, runErr := c.Runner.Run(ctx, c.PandocBinary, source,
		"-t", "html5",
		"--standalone",
		"--extract-media="+filepath.Join(dir.Path, "media"),
		"-o", htmlPath,
	)
	if err := classify("pandoc", stderr, runErr); err != nil {
		return nil, err
	}

	path := expectedOutput(dir.Path, source)
	if err := c.Printer.PrintToPDF(ctx, htmlPath, path); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, ErrConversionTimeout
		}
		return nil, &ToolError{Tool: c.Name(), ExitCode: -1, Stderr: err.Error()}
	}

	if err := checkOutput(path, c.Verify); err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Debug("Converted with chromium", logger.Fields{"output": filepath.Base(path)})
	}
	return &Output{Path: path, Dir: dir}, nil
}

// RodPrinter launches a fresh headless Chrome per document. The browser
// profile lives next to the HTML file so it is removed with the run.
type RodPrinter struct {
	BrowserBin string
	NoSandbox  bool
}

const (
	paperWidthInches  = 8.5
	paperHeightInches = 11
	marginInches      = 0.5
)

func (p *RodPrinter) PrintToPDF(ctx context.Context, htmlPath, pdfPath string) error {
	l := launcher.New().
		Context(ctx).
		Headless(true).
		Leakless(false).
		NoSandbox(p.NoSandbox).
		UserDataDir(filepath.Join(filepath.Dir(htmlPath), "chrome-profile"))
	if p.BrowserBin != "" {
		l = l.Bin(p.BrowserBin)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching chrome: %w", err)
	}
	defer func() {
		process.KillProcessGroup(l.PID())
		l.Kill()
	}()

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connecting to chrome: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + filepath.ToSlash(htmlPath)})
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("loading page: %w", err)
	}

	reader, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:      floatPtr(paperWidthInches),
		PaperHeight:     floatPtr(paperHeightInches),
		MarginTop:       floatPtr(marginInches),
		MarginBottom:    floatPtr(marginInches),
		MarginLeft:      floatPtr(marginInches),
		MarginRight:     floatPtr(marginInches),
		PrintBackground: true,
	})
	if err != nil {
		return fmt.Errorf("printing PDF: %w", err)
	}

	f, err := os.Create(pdfPath)
	if err != nil {
		return fmt.Errorf("creating PDF: %w", err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing PDF: %w", err)
	}
	return f.Close()
}

func floatPtr(v float64) *float64 {
	return &v
}
