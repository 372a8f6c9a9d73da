package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, "app:\n  name: quotes\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "quotes", cfg.App.Name)
	assert.Equal(t, ":5000", cfg.Server.Address)
	assert.Equal(t, 120000, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "cotizacion", cfg.Template.ArtifactPrefix)
	assert.True(t, filepath.IsAbs(cfg.Template.Path))
	assert.Equal(t, "Formato.docx", filepath.Base(cfg.Template.Path))
	assert.Equal(t, DefaultColumns, cfg.Sink.Columns)
	assert.Len(t, cfg.Sink.Columns, 14)
	assert.Equal(t, []string{"libreoffice", "pandoc", "chromium"}, cfg.Converters.Order)
	assert.True(t, cfg.Converters.VerifyOutput)
	assert.False(t, cfg.Sink.Enabled)
	assert.Equal(t, "es", cfg.Formatter.Language)
	assert.Equal(t, "pesos colombianos", cfg.Formatter.CurrencyName)
	assert.Equal(t, "total_general_texto", cfg.Template.WordsField)
	assert.Equal(t, 60000, cfg.Converters.LibreOffice.Timeout)
	assert.Equal(t, 30000, cfg.Converters.Pandoc.Timeout)
	assert.Equal(t, "xelatex", cfg.Converters.Pandoc.PDFEngine)
}

func TestLoadFromFile_ExplicitValues(t *testing.T) {
	tmpl := filepath.Join(t.TempDir(), "custom.docx")
	path := writeConfig(t, `
template:
  path: `+tmpl+`
  currency_fields: [amount]
converters:
  order: [pandoc]
  verify_output: false
sink:
  enabled: true
  backends: [redis]
database:
  redis:
    address: localhost:6379
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, tmpl, cfg.Template.Path)
	assert.Equal(t, []string{"amount"}, cfg.Template.CurrencyFields)
	assert.Equal(t, []string{"pandoc"}, cfg.Converters.Order)
	assert.False(t, cfg.Converters.VerifyOutput)
	assert.True(t, cfg.Sink.HasBackend("redis"))
	assert.False(t, cfg.Sink.HasBackend("sheets"))
}

func TestLoadFromFile_ExpandsEnvVars(t *testing.T) {
	t.Setenv("QUOTES_SHEET", "sheet-123")
	path := writeConfig(t, `
sink:
  enabled: true
  backends: [sheets]
  sheets:
    spreadsheet_id: ${QUOTES_SHEET}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sheet-123", cfg.Sink.Sheets.SpreadsheetID)
}

func TestLoadFromFile_PortOverride(t *testing.T) {
	t.Setenv("PORT", "8088")
	path := writeConfig(t, "app:\n  name: quotes\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":8088", cfg.Server.Address)
}

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown converter",
			body:    "converters:\n  order: [wkhtmltopdf]\n",
			wantErr: "unknown converter",
		},
		{
			name:    "unknown sink",
			body:    "sink:\n  enabled: true\n  backends: [kafka]\n",
			wantErr: "unknown backend",
		},
		{
			name:    "sheets without spreadsheet",
			body:    "sink:\n  enabled: true\n  backends: [sheets]\n",
			wantErr: "spreadsheet_id",
		},
		{
			name:    "postgres without host",
			body:    "sink:\n  enabled: true\n  backends: [postgres]\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "elasticsearch without addresses",
			body:    "sink:\n  enabled: true\n  backends: [elasticsearch]\n",
			wantErr: "addresses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SHEETS_SPREADSHEET_ID", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "quotes", SSLMode: "disable"}
	assert.Equal(t, "host='db' port='5432' user='u' password='p' dbname='quotes' sslmode='disable'", p.GetDSN())

	p = PostgresConfig{Host: "db", Database: "quotes", Password: "it's"}
	assert.Equal(t, `host='db' password='it\'s' dbname='quotes'`, p.GetDSN())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
