// cmd/quotation-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"quotation-service/internal/common/config"
	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/observability"
	"quotation-service/internal/common/validation"
	"quotation-service/internal/document/converter"
	"quotation-service/internal/document/formatter"
	"quotation-service/internal/document/pipeline"
	"quotation-service/internal/document/renderer"
	gd "quotation-service/internal/handlers/quotation/generate-document"
	lc "quotation-service/internal/handlers/quotation/list-capabilities"
	"quotation-service/internal/server"
	"quotation-service/internal/sink"
)

// Version is set at build time via ldflags.
var Version = "dev"

type flags struct {
	configPath string
	address    string
	logLevel   string
	logFormat  string
	version    bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "path to a YAML config file (default: search ./configs)")
	fs.StringVar(&f.address, "address", "", "listen address, overrides server.address")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "", "json or console")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	return f, nil
}

func loadConfig(f *flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFromFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if f.address != "" {
		cfg.Server.Address = f.address
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Logging.Format = f.logFormat
	}
	if cfg.App.Version == "" {
		cfg.App.Version = Version
	}
	return cfg, nil
}

func main() {
	f, err := parseFlags(os.Args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if f.version {
		fmt.Println(Version)
		return
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}

	zapLog := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(logger.Fields{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	// Error ignored: maxprocs.Set only fails on an invalid GOMAXPROCS env value.
	_, _ = maxprocs.Set(maxprocs.Logger(zapLog.Sugar().Infof))

	if err := run(cfg, log); err != nil {
		zapLog.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	obs := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	}, log)

	locale, err := formatter.NewLocale(cfg.Formatter.Language, cfg.Formatter.GroupSeparator, cfg.Formatter.CurrencyName)
	if err != nil {
		return fmt.Errorf("formatter locale: %w", err)
	}

	validator, err := validation.NewRecordValidatorFromFile(cfg.Template.SchemaPath)
	if err != nil {
		return err
	}

	converters := converter.NewFromConfig(cfg.Converters, &converter.ExecRunner{}, log)

	sinks := sink.NewFromConfig(context.Background(), cfg, log)
	dispatcher := sink.NewDispatcher(sinks.Sink, config.GetDuration(cfg.Sink.Timeout), log)

	p, err := pipeline.New(pipeline.Config{
		TemplatePath: cfg.Template.Path,
		TempDir:      cfg.Template.TempDir,
		Columns:      cfg.Sink.Columns,
		Rules: pipeline.ContextRules{
			Fields:         cfg.Sink.Columns,
			CurrencyFields: cfg.Template.CurrencyFields,
			Aliases:        cfg.Template.Aliases,
			WordsField:     cfg.Template.WordsField,
			WordsSource:    cfg.Template.WordsSource,
		},
	}, pipeline.Deps{
		Formatter:     formatter.New(locale),
		Renderer:      renderer.New(cfg.Template.ArtifactPrefix, log),
		Converters:    converters,
		Validator:     validator,
		Sink:          dispatcher,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Template.Path); err != nil {
		log.Warn("Template not found; generation requests will fail until it exists", logger.Fields{
			"template": cfg.Template.Path,
		})
	}

	handler := server.NewRouter(server.Options{
		Server:       cfg.Server,
		ServiceName:  cfg.Observability.ServiceName,
		Version:      cfg.App.Version,
		TemplatePath: cfg.Template.Path,
		Logger:       log,
	}, server.Routes{
		Generate:           gd.NewHandler(&gd.Config{MaxBodyBytes: cfg.Server.MaxBodyBytes}, p, log),
		GenerateWord:       gd.NewHandler(&gd.Config{MaxBodyBytes: cfg.Server.MaxBodyBytes, ForceKind: "document"}, p, log),
		Capabilities:       lc.NewHandler(nil, converters, log),
		CapabilitiesLegacy: lc.NewHandler(&lc.Config{Timeout: 20 * time.Second, Legacy: true}, converters, log),
	})
	srv := server.New(cfg.Server, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Quotation server listening", logger.Fields{
			"address":    cfg.Server.Address,
			"template":   cfg.Template.Path,
			"converters": converters.Names(),
			"sink":       dispatcher.Enabled(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case sig := <-sigCh:
		log.Info("Shutdown signal received", logger.Fields{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP shutdown incomplete", logger.Fields{"error": err.Error()})
	}
	if err := dispatcher.Wait(ctx); err != nil {
		log.Warn("Sink writes still in flight at shutdown", logger.Fields{"error": err.Error()})
	}
	if err := sinks.Close(); err != nil {
		log.Warn("Closing sink backends", logger.Fields{"error": err.Error()})
	}
	if err := obs.Shutdown(ctx); err != nil {
		log.Warn("Telemetry flush failed", logger.Fields{"error": err.Error()})
	}
	log.Info("Quotation server stopped", nil)
	return nil
}
