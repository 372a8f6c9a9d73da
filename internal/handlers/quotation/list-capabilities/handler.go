// internal/handlers/quotation/list-capabilities/handler.go
package listcapabilities

import (
	"context"
	"encoding/json"
	"net/http"

	"quotation-service/internal/common/logger"
	"quotation-service/internal/document/converter"
	"quotation-service/internal/models"
)

const (
	Route       = "/capabilities"
	LegacyRoute = "/herramientas-disponibles"
)

// Detector probes the configured conversion tools.
type Detector interface {
	Detect(ctx context.Context) (converter.Converter, bool)
}

type Handler struct {
	config   *Config
	detector Detector
	logger   logger.Logger
}

func NewHandler(config *Config, detector Detector, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config:   config,
		detector: detector,
		logger:   log.WithFields(map[string]interface{}{"handler": "list-capabilities"}),
	}
}

// Capabilities probes the tools now; results are never cached.
func (h *Handler) Capabilities(ctx context.Context) Output {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	out := Output{SupportedKinds: []models.OutputKind{models.OutputDocument}}
	if tool, ok := h.detector.Detect(ctx); ok {
		name := tool.Name()
		out.AvailableTool = &name
		out.PortableSupported = true
		out.SupportedKinds = append(out.SupportedKinds, models.OutputPortable)
	}
	return out
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	out := h.Capabilities(r.Context())

	var body interface{} = out
	if h.config.Legacy {
		body = toLegacy(out)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("failed to write capabilities", map[string]interface{}{"error": err.Error()})
	}
}
