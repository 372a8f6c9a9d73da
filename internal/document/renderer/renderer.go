// Package renderer fills a .docx quotation template with a rendering context.
package renderer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
	"github.com/google/uuid"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/tempdir"
)

// Artifact is a rendered file and the scoped directory that holds it.
type Artifact struct {
	Path string
	Name string
	Dir  *tempdir.Dir
}

type Renderer struct {
	prefix string
	set    *pongo2.TemplateSet
	logger logger.Logger
}

// New returns a Renderer that names artifacts <prefix>_<uuid>.docx.
func New(prefix string, log logger.Logger) *Renderer {
	if prefix == "" {
		prefix = "cotizacion"
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Renderer{
		prefix: prefix,
		set:    pongo2.NewSet("quotation", pongo2.MustNewLocalFileSystemLoader("")),
		logger: log,
	}
}

// Render merges data into the template at templatePath and writes the result
// into a new directory obtained from dirs. Placeholders missing from data
// render empty.
func (r *Renderer) Render(ctx context.Context, templatePath string, data map[string]string, dirs tempdir.DirAllocator) (*Artifact, error) {
	info, err := os.Stat(templatePath)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
	}

	zr, err := zip.OpenReader(templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrTemplateRender, filepath.Base(templatePath), err)
	}
	defer zr.Close()

	pctx := make(pongo2.Context, len(data))
	for k, v := range data {
		pctx[k] = v
	}

	rendered := make(map[string][]byte)
	for _, f := range zr.File {
		if !isTemplatedPart(f.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := r.renderPart(f, pctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateRender, f.Name, err)
		}
		rendered[f.Name] = out
	}
	if _, ok := rendered["word/document.xml"]; !ok {
		return nil, fmt.Errorf("%w: %s has no word/document.xml", ErrTemplateRender, filepath.Base(templatePath))
	}

	dir, err := dirs.NewDir("quotation-render-*")
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s_%s.docx", r.prefix, uuid.NewString())
	path := filepath.Join(dir.Path, name)
	if err := writeDocx(path, zr.File, rendered); err != nil {
		return nil, err
	}

	r.logger.Debug("Template rendered", logger.Fields{
		"template": filepath.Base(templatePath),
		"artifact": name,
		"parts":    len(rendered),
	})

	return &Artifact{Path: path, Name: name, Dir: dir}, nil
}

func (r *Renderer) renderPart(f *zip.File, pctx pongo2.Context) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	src, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	tpl, err := r.set.FromString(mergeSplitPlaceholders(string(src)))
	if err != nil {
		return nil, err
	}
	return tpl.ExecuteBytes(pctx)
}

// writeDocx writes entries in template order, substituting rendered parts.
func writeDocx(path string, files []*zip.File, rendered map[string][]byte) (err error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fs.FileMode(0o600))
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing artifact: %w", cerr)
		}
	}()

	zw := zip.NewWriter(out)
	for _, f := range files {
		body, ok := rendered[f.Name]
		if !ok {
			if err := zw.Copy(f); err != nil {
				return fmt.Errorf("copying %s: %w", f.Name, err)
			}
			continue
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing artifact: %w", err)
	}
	return nil
}
