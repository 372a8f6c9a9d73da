package converter

import (
	"context"
	"path/filepath"
	"time"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/tempdir"
)

// Pandoc converts through pandoc and a LaTeX PDF engine.
type Pandoc struct {
	Binary    string
	PDFEngine string
	Timeout   time.Duration
	Verify    bool
	Runner    CommandRunner
	Logger    logger.Logger
}

func (c *Pandoc) Name() string { return "pandoc" }

func (c *Pandoc) Probe(ctx context.Context) error {
	_, _, err := c.Runner.Run(ctx, c.Binary, "--version")
	return err
}

func (c *Pandoc) Convert(ctx context.Context, source string, dirs tempdir.DirAllocator) (out *Output, err error) {
	start := time.Now()
	defer func() { observe(c.Name(), start, err) }()

	dir, err := dirs.NewDir("quotation-convert-*")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	path := expectedOutput(dir.Path, source)
	_, stderr, runErr := c.Runner.Run(ctx, c.Binary, source, "-o", path, "--pdf-engine="+c.PDFEngine)
	if err := classify(c.Name(), stderr, runErr); err != nil {
		return nil, err
	}

	if err := checkOutput(path, c.Verify); err != nil {
		return nil, err
	}
	if c.Logger != nil {
		c.Logger.Debug("Converted with pandoc", logger.Fields{"output": filepath.Base(path), "engine": c.PDFEngine})
	}
	return &Output{Path: path, Dir: dir}, nil
}
