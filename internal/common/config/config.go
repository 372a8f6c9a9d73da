// internal/common/config/config.go
package config

import (
	"fmt"
	"strings"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Template      TemplateConfig      `mapstructure:"template"`
	Formatter     FormatterConfig     `mapstructure:"formatter"`
	Converters    ConvertersConfig    `mapstructure:"converters"`
	Sink          SinkConfig          `mapstructure:"sink"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64    `mapstructure:"max_body_bytes"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

// TemplateConfig describes the quotation template and how records map onto it.
type TemplateConfig struct {
	Path           string              `mapstructure:"path"` // relative paths resolve against the executable dir
	ArtifactPrefix string              `mapstructure:"artifact_prefix"`
	TempDir        string              `mapstructure:"temp_dir"` // empty = os.TempDir()
	CurrencyFields []string            `mapstructure:"currency_fields"`
	Aliases        map[string][]string `mapstructure:"aliases"`
	WordsField     string              `mapstructure:"words_field"`
	WordsSource    string              `mapstructure:"words_source"`
	SchemaPath     string              `mapstructure:"schema_path"` // JSON schema for records; empty = flat object
}

type FormatterConfig struct {
	Language       string `mapstructure:"language"`
	GroupSeparator string `mapstructure:"group_separator"`
	CurrencyName   string `mapstructure:"currency_name"`
}

// ConvertersConfig lists conversion tools in priority order.
type ConvertersConfig struct {
	Order        []string          `mapstructure:"order"`
	ProbeTimeout int               `mapstructure:"probe_timeout"` // milliseconds
	VerifyOutput bool              `mapstructure:"verify_output"`
	LibreOffice  LibreOfficeConfig `mapstructure:"libreoffice"`
	Pandoc       PandocConfig      `mapstructure:"pandoc"`
	Chromium     ChromiumConfig    `mapstructure:"chromium"`
}

type LibreOfficeConfig struct {
	Binary  string `mapstructure:"binary"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type PandocConfig struct {
	Binary    string `mapstructure:"binary"`
	PDFEngine string `mapstructure:"pdf_engine"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

type ChromiumConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BrowserBin string `mapstructure:"browser_bin"`
	NoSandbox  bool   `mapstructure:"no_sandbox"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
}

// SinkConfig controls the fire-and-forget record sink.
type SinkConfig struct {
	Enabled       bool                `mapstructure:"enabled"`
	Backends      []string            `mapstructure:"backends"`
	Timeout       int                 `mapstructure:"timeout"` // milliseconds
	Columns       []string            `mapstructure:"columns"`
	Sheets        SheetsConfig        `mapstructure:"sheets"`
	Firestore     FirestoreConfig     `mapstructure:"firestore"`
	Postgres      PostgresSinkConfig  `mapstructure:"postgres"`
	Redis         RedisSinkConfig     `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

type SheetsConfig struct {
	SpreadsheetID    string `mapstructure:"spreadsheet_id"`
	Range            string `mapstructure:"range"`
	CredentialsEnv   string `mapstructure:"credentials_env"`
	Endpoint         string `mapstructure:"endpoint"`
	ValueInputOption string `mapstructure:"value_input_option"` // RAW (default) or USER_ENTERED
}

type FirestoreConfig struct {
	ProjectID  string `mapstructure:"project_id"`
	Collection string `mapstructure:"collection"`
}

type PostgresSinkConfig struct {
	Table string `mapstructure:"table"`
}

type RedisSinkConfig struct {
	Key string `mapstructure:"key"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the key=value connection string, leaving out empty values.
func (p PostgresConfig) GetDSN() string {
	port := ""
	if p.Port > 0 {
		port = fmt.Sprint(p.Port)
	}
	pairs := []struct{ k, v string }{
		{"host", p.Host},
		{"port", port},
		{"user", p.User},
		{"password", p.Password},
		{"dbname", p.Database},
		{"sslmode", p.SSLMode},
	}
	var parts []string
	for _, kv := range pairs {
		if kv.v == "" {
			continue
		}
		v := strings.ReplaceAll(kv.v, `\`, `\\`)
		v = strings.ReplaceAll(v, "'", `\'`)
		parts = append(parts, fmt.Sprintf("%s='%s'", kv.k, v))
	}
	return strings.Join(parts, " ")
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// HasBackend reports whether the named sink backend is configured.
func (s SinkConfig) HasBackend(name string) bool {
	for _, b := range s.Backends {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}
