// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Known converter and sink names.
var (
	KnownConverters = []string{"libreoffice", "pandoc", "chromium"}
	KnownSinks      = []string{"sheets", "firestore", "postgres", "redis", "elasticsearch"}
)

// DefaultColumns is the column order of the quotation spreadsheet.
var DefaultColumns = []string{
	"nombre",
	"telefono",
	"correo",
	"diseno_arquitectonico",
	"diseno_estructural",
	"acompanamiento_licencias",
	"subtotal_etapa_1",
	"diseno_electrico",
	"diseno_hidraulico",
	"presupuesto_proyecto",
	"subtotal_etapa_2",
	"total_general",
	"total_general_texto",
	"costo_construccion",
}

// DefaultCurrencyFields are the columns rendered as grouped amounts.
var DefaultCurrencyFields = []string{
	"diseno_arquitectonico",
	"diseno_estructural",
	"acompanamiento_licencias",
	"subtotal_etapa_1",
	"diseno_electrico",
	"diseno_hidraulico",
	"presupuesto_proyecto",
	"subtotal_etapa_2",
	"total_general",
	"costo_construccion",
}

// DefaultAliases maps template keys to the alternate keys older clients send.
var DefaultAliases = map[string][]string{
	"diseno_arquitectonico":    {"Diseño_Arquitectonico"},
	"diseno_estructural":       {"Diseño_Estructural"},
	"acompanamiento_licencias": {"Acompañamiento_Licencias"},
	"subtotal_etapa_1":         {"Subtotal_Etapa_I"},
	"diseno_electrico":         {"Diseño_Electrico"},
	"diseno_hidraulico":        {"Diseño_Hidraulico"},
	"presupuesto_proyecto":     {"Presupuesto_Proyecto"},
	"subtotal_etapa_2":         {"Subtotal_Etapa_II"},
	"total_general":            {"Total_General"},
	"total_general_texto":      {"Total_General_Texto"},
	"costo_construccion":       {"Costo_Construccion"},
}

// Load reads configs/config.yaml (plus config.<env>.yaml) with env overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)
	cfg.Template.Path = resolveInstallPath(cfg.Template.Path)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers defaults that zero values cannot express.
func setDefaults(v *viper.Viper) {
	v.SetDefault("converters.verify_output", true)
	v.SetDefault("sink.enabled", false)
	v.SetDefault("sink.backends", []string{"sheets"})
}

// loadEnvFile loads the first .env found walking up from the working dir.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills values the hosting platform passes as plain env vars.
func overrideEmptyConfig(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SERVER_ADDRESS") == "" {
		cfg.Server.Address = ":" + port
	}
	if cfg.Sink.Sheets.SpreadsheetID == "" {
		if val := os.Getenv("SHEETS_SPREADSHEET_ID"); val != "" {
			cfg.Sink.Sheets.SpreadsheetID = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "quotation-service"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":5000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	if cfg.Template.Path == "" {
		cfg.Template.Path = "Formato.docx"
	}
	if cfg.Template.ArtifactPrefix == "" {
		cfg.Template.ArtifactPrefix = "cotizacion"
	}
	if len(cfg.Template.CurrencyFields) == 0 {
		cfg.Template.CurrencyFields = DefaultCurrencyFields
	}
	if cfg.Template.Aliases == nil {
		cfg.Template.Aliases = DefaultAliases
	}
	if cfg.Template.WordsField == "" {
		cfg.Template.WordsField = "total_general_texto"
	}
	if cfg.Template.WordsSource == "" {
		cfg.Template.WordsSource = "total_general"
	}

	if cfg.Formatter.Language == "" {
		cfg.Formatter.Language = "es"
	}
	if cfg.Formatter.GroupSeparator == "" {
		cfg.Formatter.GroupSeparator = "."
	}
	if cfg.Formatter.CurrencyName == "" {
		cfg.Formatter.CurrencyName = "pesos colombianos"
	}

	if len(cfg.Converters.Order) == 0 {
		cfg.Converters.Order = KnownConverters
	}
	if cfg.Converters.ProbeTimeout == 0 {
		cfg.Converters.ProbeTimeout = 5000
	}
	if cfg.Converters.LibreOffice.Binary == "" {
		cfg.Converters.LibreOffice.Binary = "libreoffice"
	}
	if cfg.Converters.LibreOffice.Timeout == 0 {
		cfg.Converters.LibreOffice.Timeout = 60000
	}
	if cfg.Converters.Pandoc.Binary == "" {
		cfg.Converters.Pandoc.Binary = "pandoc"
	}
	if cfg.Converters.Pandoc.PDFEngine == "" {
		cfg.Converters.Pandoc.PDFEngine = "xelatex"
	}
	if cfg.Converters.Pandoc.Timeout == 0 {
		cfg.Converters.Pandoc.Timeout = 30000
	}
	if cfg.Converters.Chromium.Timeout == 0 {
		cfg.Converters.Chromium.Timeout = 60000
	}

	if cfg.Sink.Timeout == 0 {
		cfg.Sink.Timeout = 15000
	}
	if len(cfg.Sink.Columns) == 0 {
		cfg.Sink.Columns = DefaultColumns
	}
	if cfg.Sink.Sheets.Range == "" {
		cfg.Sink.Sheets.Range = "Sheet1"
	}
	if cfg.Sink.Sheets.CredentialsEnv == "" {
		cfg.Sink.Sheets.CredentialsEnv = "GOOGLE_CREDENTIALS"
	}
	if cfg.Sink.Firestore.Collection == "" {
		cfg.Sink.Firestore.Collection = "quotations"
	}
	if cfg.Sink.Postgres.Table == "" {
		cfg.Sink.Postgres.Table = "quotation_records"
	}
	if cfg.Sink.Redis.Key == "" {
		cfg.Sink.Redis.Key = "quotations"
	}
	if cfg.Sink.Elasticsearch.Index == "" {
		cfg.Sink.Elasticsearch.Index = "quotations"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
}

// resolveInstallPath anchors relative template paths at the executable's directory.
func resolveInstallPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	exe, err := os.Executable()
	if err != nil {
		return path
	}
	return filepath.Join(filepath.Dir(exe), path)
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Template.Path == "" {
		return fmt.Errorf("template.path is required")
	}

	for _, name := range cfg.Converters.Order {
		if !contains(KnownConverters, name) {
			return fmt.Errorf("converters.order: unknown converter %q", name)
		}
	}

	if !cfg.Sink.Enabled {
		return nil
	}
	for _, name := range cfg.Sink.Backends {
		if !contains(KnownSinks, name) {
			return fmt.Errorf("sink.backends: unknown backend %q", name)
		}
	}
	if cfg.Sink.HasBackend("sheets") && cfg.Sink.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sink.sheets.spreadsheet_id is required")
	}
	if cfg.Sink.HasBackend("firestore") && cfg.Sink.Firestore.ProjectID == "" {
		return fmt.Errorf("sink.firestore.project_id is required")
	}
	if cfg.Sink.HasBackend("postgres") {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
	}
	if cfg.Sink.HasBackend("redis") && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	if cfg.Sink.HasBackend("elasticsearch") && len(cfg.Sink.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("sink.elasticsearch.addresses is required")
	}
	return nil
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if strings.EqualFold(item, name) {
			return true
		}
	}
	return false
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
