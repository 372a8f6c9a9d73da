package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	f, err := parseFlags([]string{"quotation-server", "-c", "cfg.yaml", "--address", ":9000", "--log-level", "debug", "--log-format", "console"})
	require.NoError(t, err)
	assert.Equal(t, "cfg.yaml", f.configPath)
	assert.Equal(t, ":9000", f.address)
	assert.Equal(t, "debug", f.logLevel)
	assert.Equal(t, "console", f.logFormat)

	_, err = parseFlags([]string{"quotation-server", "--unknown"})
	assert.Error(t, err)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SERVER_ADDRESS", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: quotation-service
server:
  address: ":5000"
template:
  path: /srv/templates/Formato.docx
logging:
  level: info
  format: json
`), 0o644))

	cfg, err := loadConfig(&flags{configPath: path, address: ":9000", logLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/srv/templates/Formato.docx", cfg.Template.Path)
	assert.Equal(t, Version, cfg.App.Version)
}
