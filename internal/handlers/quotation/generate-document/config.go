// internal/handlers/quotation/generate-document/config.go
package generatedocument

type Config struct {
	MaxBodyBytes int64
	// ForceKind overrides whatever the request asks for; the legacy
	// /generar-word route sets it to "document".
	ForceKind string
}

func LoadConfig() *Config {
	return &Config{
		MaxBodyBytes: 1 << 20,
	}
}
