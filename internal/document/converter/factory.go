package converter

import (
	"quotation-service/internal/common/config"
	"quotation-service/internal/common/logger"
)

// NewFromConfig builds the registry in the configured order. The chromium
// converter is skipped unless enabled.
func NewFromConfig(cfg config.ConvertersConfig, runner CommandRunner, log logger.Logger) *Registry {
	if runner == nil {
		runner = &ExecRunner{}
	}

	var converters []Converter
	for _, name := range cfg.Order {
		switch name {
		case "libreoffice":
			converters = append(converters, &LibreOffice{
				Binary:  cfg.LibreOffice.Binary,
				Timeout: config.GetDuration(cfg.LibreOffice.Timeout),
				Verify:  cfg.VerifyOutput,
				Runner:  runner,
				Logger:  log,
			})
		case "pandoc":
			converters = append(converters, &Pandoc{
				Binary:    cfg.Pandoc.Binary,
				PDFEngine: cfg.Pandoc.PDFEngine,
				Timeout:   config.GetDuration(cfg.Pandoc.Timeout),
				Verify:    cfg.VerifyOutput,
				Runner:    runner,
				Logger:    log,
			})
		case "chromium":
			if !cfg.Chromium.Enabled {
				continue
			}
			converters = append(converters, &Chromium{
				PandocBinary: cfg.Pandoc.Binary,
				BrowserBin:   cfg.Chromium.BrowserBin,
				Timeout:      config.GetDuration(cfg.Chromium.Timeout),
				Verify:       cfg.VerifyOutput,
				Runner:       runner,
				Printer:      &RodPrinter{BrowserBin: cfg.Chromium.BrowserBin, NoSandbox: cfg.Chromium.NoSandbox},
				Logger:       log,
			})
		}
	}

	return NewRegistry(config.GetDuration(cfg.ProbeTimeout), log, converters...)
}
