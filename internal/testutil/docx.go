// Package testutil builds minimal .docx files for tests.
package testutil

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`

// Body wraps paragraphs in a WordprocessingML document part.
func Body(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

// WriteDocx writes a docx at path with the given parts plus [Content_Types].xml.
func WriteDocx(t testing.TB, path string, parts map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = io.WriteString(w, contentTypes)
	require.NoError(t, err)

	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// ReadPart returns one zip entry of the docx at path.
func ReadPart(t testing.TB, path, name string) string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("part %s not found in %s", name, path)
	return ""
}

// ReadDocxBytes reads a part from an in-memory docx.
func ReadDocxBytes(t testing.TB, data []byte, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "artifact.docx")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return ReadPart(t, path, name)
}
