package converter

import (
	"context"
	"net/url"
	"path/filepath"
	"time"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/tempdir"
)

// LibreOffice converts with a headless office suite.
type LibreOffice struct {
	Binary  string
	Timeout time.Duration
	Verify  bool
	Runner  CommandRunner
	Logger  logger.Logger
}

func (c *LibreOffice) Name() string { return "libreoffice" }

func (c *LibreOffice) Probe(ctx context.Context) error {
	_, _, err := c.Runner.Run(ctx, c.Binary, "--version")
	return err
}

// Convert runs soffice with a profile inside the output directory so
// concurrent conversions do not fight over the user profile lock.
func (c *LibreOffice) Convert(ctx context.Context, source string, dirs tempdir.DirAllocator) (out *Output, err error) {
	start := time.Now()
	defer func() { observe(c.Name(), start, err) }()

	dir, err := dirs.NewDir("quotation-convert-*")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	profile := (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(dir.Path, "profile"))}).String()
	_, stderr, runErr := c.Runner.Run(ctx, c.Binary,
		"--headless",
		"-env:UserInstallation="+profile,
		"--convert-to", "pdf",
		"--outdir", dir.Path,
		source,
	)
	if err := classify(c.Name(), stderr, runErr); err != nil {
		return nil, err
	}

	path := expectedOutput(dir.Path, source)
	if err := checkOutput(path, c.Verify); err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Debug("Converted with libreoffice", logger.Fields{"output": filepath.Base(path)})
	}
	return &Output{Path: path, Dir: dir}, nil
}
