// Package server assembles the HTTP surface: quotation routes, probes,
// metrics and the middleware around them.
package server

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"quotation-service/internal/common/config"
	"quotation-service/internal/common/logger"
)

// Routes are the application handlers mounted by NewRouter.
type Routes struct {
	Generate           http.Handler // POST /generate-document, /generar-documento
	GenerateWord       http.Handler // POST /generar-word
	Capabilities       http.Handler // GET /capabilities
	CapabilitiesLegacy http.Handler // GET /herramientas-disponibles
}

type Options struct {
	Server       config.ServerConfig
	ServiceName  string
	Version      string
	TemplatePath string
	Logger       logger.Logger
}

// NewRouter mounts routes and wraps them in the standard middleware.
func NewRouter(opts Options, routes Routes) http.Handler {
	mux := http.NewServeMux()

	handle := func(method, path string, h http.Handler) {
		if h == nil {
			return
		}
		mux.Handle(method+" "+path, instrument(path, h))
	}

	handle(http.MethodPost, "/generate-document", routes.Generate)
	handle(http.MethodPost, "/generar-documento", routes.Generate)
	handle(http.MethodPost, "/generar-word", routes.GenerateWord)
	handle(http.MethodGet, "/capabilities", routes.Capabilities)
	handle(http.MethodGet, "/herramientas-disponibles", routes.CapabilitiesLegacy)

	handle(http.MethodGet, "/health", healthHandler(opts.Version))
	handle(http.MethodGet, "/ready", readyHandler(opts.TemplatePath))
	mux.Handle("GET /metrics", promhttp.Handler())

	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	name := opts.ServiceName
	if name == "" {
		name = "quotation-service"
	}
	return Chain(mux,
		RequestID(),
		Recover(opts.Logger),
		AccessLog(opts.Logger),
		CORS(opts.Server.AllowedOrigins),
		func(h http.Handler) http.Handler { return otelhttp.NewHandler(h, name) },
	)
}

// New returns an http.Server configured from cfg.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadTimeout:       config.GetDuration(cfg.ReadTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      config.GetDuration(cfg.WriteTimeout),
		IdleTimeout:       2 * time.Minute,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func healthHandler(version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"version": version,
			"time":    time.Now().Format(time.RFC3339),
		})
	})
}

// readyHandler reports ready while the template is readable.
func readyHandler(templatePath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := os.Stat(templatePath)
		if err != nil || info.IsDir() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": "template not found",
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}
