// internal/handlers/quotation/list-capabilities/config.go
package listcapabilities

import "time"

type Config struct {
	// Timeout bounds the whole detection pass.
	Timeout time.Duration
	// Legacy selects the original Spanish response shape.
	Legacy bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 20 * time.Second,
	}
}
