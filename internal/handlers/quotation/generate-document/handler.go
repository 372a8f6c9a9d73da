// internal/handlers/quotation/generate-document/handler.go
package generatedocument

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	apperrors "quotation-service/internal/common/errors"
	"quotation-service/internal/common/logger"
	"quotation-service/internal/document/pipeline"
)

const (
	Route       = "/generate-document"
	LegacyRoute = "/generar-documento"
	WordRoute   = "/generar-word"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Run, error)
}

type Handler struct {
	config   *Config
	pipeline Runner
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, p Runner, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config:   config,
		pipeline: p,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log.WithFields(map[string]interface{}{"handler": "generate-document"}),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	in, err := h.decode(w, r)
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	if h.config.ForceKind != "" {
		in.Format = h.config.ForceKind
	}

	run, err := h.pipeline.Run(r.Context(), pipeline.Request{Kind: in.Format, Record: in.Record})
	if err != nil {
		h.errors.WriteError(w, r, err)
		return
	}
	defer run.Close()

	header := w.Header()
	header.Set("Content-Type", run.ContentType())
	header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": run.FileName}))
	header.Set("Content-Length", strconv.FormatInt(run.Size, 10))
	header.Set("X-Run-ID", run.ID)
	if run.Tool != "" {
		header.Set("X-Conversion-Tool", run.Tool)
	}
	w.WriteHeader(http.StatusOK)

	if n, err := run.WriteTo(w); err != nil {
		h.logger.Warn("artifact stream interrupted", map[string]interface{}{
			"runId":   run.ID,
			"written": n,
			"error":   err.Error(),
		})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty request body")
		}
		return Input{}, apperrors.NewInvalidRequestBodyError(err)
	}
	if dec.More() {
		return Input{}, apperrors.NewInvalidRequestBodyError(errors.New("trailing data after JSON object"))
	}
	return newInput(r.URL.Query().Get(formatKey), body), nil
}
