// Package pipeline turns one quotation record into a delivered artifact:
// format, render, optionally convert, stream, clean up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "quotation-service/internal/common/errors"
	"quotation-service/internal/common/logger"
	"quotation-service/internal/common/metrics"
	"quotation-service/internal/common/observability"
	"quotation-service/internal/common/tempdir"
	"quotation-service/internal/common/validation"
	"quotation-service/internal/document/converter"
	"quotation-service/internal/document/formatter"
	"quotation-service/internal/document/renderer"
	"quotation-service/internal/models"
	"quotation-service/internal/sink"
)

// State is where a run is in its lifecycle.
type State string

const (
	StateReceived     State = "received"
	StateRendered     State = "rendered"
	StateDirectOutput State = "direct_output"
	StateConverting   State = "converting"
	StateDelivered    State = "delivered"
	StateFailed       State = "failed"
)

// Detector finds a usable conversion tool.
type Detector interface {
	Detect(ctx context.Context) (converter.Converter, bool)
	Names() []string
}

// Dispatcher accepts rows for background delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, row sink.Row)
}

type Config struct {
	TemplatePath string
	TempDir      string
	Columns      []string
	Rules        ContextRules
}

// Deps are the collaborators a Pipeline drives.
type Deps struct {
	Formatter     *formatter.Formatter
	Renderer      *renderer.Renderer
	Converters    Detector
	Validator     *validation.RecordValidator
	Sink          Dispatcher
	Observability *observability.Observability
	Logger        logger.Logger
}

type Pipeline struct {
	cfg  Config
	deps Deps
	log  logger.Logger
}

func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Formatter == nil || deps.Renderer == nil || deps.Converters == nil {
		return nil, errors.New("pipeline: formatter, renderer and converters are required")
	}
	if deps.Validator == nil {
		v, err := validation.NewRecordValidator("")
		if err != nil {
			return nil, err
		}
		deps.Validator = v
	}
	if deps.Sink == nil {
		deps.Sink = sink.NewDispatcher(nil, 0, nil)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	return &Pipeline{
		cfg:  cfg,
		deps: deps,
		log:  deps.Logger.WithFields(logger.Fields{"component": "pipeline"}),
	}, nil
}

// Request is one inbound submission. Kind is the raw, unparsed output kind.
type Request struct {
	Kind   string
	Record models.QuotationRecord
}

// Run executes every stage up to a ready artifact. On error nothing is left
// on disk and the error is a *errors.StandardError. On success the caller
// streams the artifact with WriteTo and must Close the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Run, error) {
	run := &Run{
		ID:      uuid.NewString(),
		state:   StateReceived,
		started: time.Now(),
		scope:   tempdir.NewScope(p.cfg.TempDir, p.log),
		obs:     p.deps.Observability,
	}
	fields := logger.Fields{"runId": run.ID}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		fields["requestId"] = id
	}
	run.log = p.log.WithFields(fields)

	ctx, span := p.deps.Observability.StartSpan(ctx, "quotation.run", attribute.String("run.id", run.ID))
	defer span.End()

	if err := p.execute(ctx, run, req); err != nil {
		stdErr := run.fail(err)
		span.RecordError(stdErr)
		span.SetStatus(codes.Error, string(stdErr.Code))
		return nil, stdErr
	}
	span.SetAttributes(attribute.String("run.kind", string(run.Kind)), attribute.String("run.tool", run.Tool))
	return run, nil
}

func (p *Pipeline) execute(ctx context.Context, run *Run, req Request) error {
	kind, err := models.ParseOutputKind(req.Kind)
	if err != nil {
		return apperrors.NewInvalidOutputKindError(req.Kind).WithCause(err)
	}
	run.Kind = kind
	run.log = run.log.WithFields(logger.Fields{"kind": string(kind)})
	run.transition(StateReceived)

	result, err := p.deps.Validator.Validate(req.Record)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return apperrors.NewInvalidRecordError(strings.Join(result.GetErrorMessages(), "; "))
	}

	data := BuildContext(req.Record, p.cfg.Rules, p.deps.Formatter)
	p.deps.Sink.Dispatch(ctx, sink.BuildRow(p.cfg.Columns, data))

	rctx, rspan := p.deps.Observability.StartSpan(ctx, "quotation.render")
	doc, err := p.deps.Renderer.Render(rctx, p.cfg.TemplatePath, data, run.scope)
	rspan.End()
	if err != nil {
		return mapRenderError(p.cfg.TemplatePath, err)
	}
	run.transition(StateRendered)

	if kind == models.OutputDocument {
		run.path, run.FileName = doc.Path, doc.Name
		run.transition(StateDirectOutput)
		return run.stat()
	}

	run.transition(StateConverting)
	tool, ok := p.deps.Converters.Detect(ctx)
	if !ok {
		return apperrors.NewNoConverterAvailableError(p.deps.Converters.Names())
	}
	run.Tool = tool.Name()
	run.log = run.log.WithFields(logger.Fields{"tool": run.Tool})

	cctx, cspan := p.deps.Observability.StartSpan(ctx, "quotation.convert", attribute.String("tool", run.Tool))
	out, err := tool.Convert(cctx, doc.Path, run.scope)
	cspan.End()
	if err != nil {
		return mapConvertError(run.Tool, err)
	}

	// the intermediate document is no longer needed
	if err := doc.Dir.Remove(); err != nil {
		run.log.Warn("Failed to remove rendered document", logger.Fields{"error": err.Error()})
	}
	run.path = out.Path
	run.FileName = strings.TrimSuffix(doc.Name, ".docx") + "." + kind.Extension()
	return run.stat()
}

func mapRenderError(path string, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, renderer.ErrTemplateNotFound):
		return apperrors.NewTemplateNotFoundError(path).WithCause(err)
	case errors.Is(err, renderer.ErrTemplateRender):
		return apperrors.NewTemplateRenderFailedError(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewInternalError(err)
	default:
		return apperrors.NewInternalError(fmt.Errorf("render: %w", err))
	}
}

func mapConvertError(tool string, err error) *apperrors.StandardError {
	var toolErr *converter.ToolError
	switch {
	case errors.Is(err, converter.ErrConversionTimeout):
		return apperrors.NewConversionTimeoutError(tool, err)
	case errors.Is(err, converter.ErrConversionOutputMissing):
		return apperrors.NewConversionOutputMissingError(tool, err)
	case errors.As(err, &toolErr):
		return apperrors.NewConversionToolError(tool, err).WithMetadata("exitCode", toolErr.ExitCode)
	default:
		return apperrors.NewInternalError(fmt.Errorf("convert with %s: %w", tool, err))
	}
}

func outcome(err *apperrors.StandardError) string {
	if err == nil {
		return string(StateDelivered)
	}
	return strings.ToLower(string(err.Code))
}

func recordRun(ctx context.Context, obs *observability.Observability, kind models.OutputKind, started time.Time, err *apperrors.StandardError) {
	k := string(kind)
	if k == "" {
		k = "unknown"
	}
	metrics.PipelineRunsTotal.WithLabelValues(k, outcome(err)).Inc()
	metrics.PipelineRunDuration.WithLabelValues(k).Observe(time.Since(started).Seconds())
	obs.RecordRunProcessed(ctx, k, outcome(err))
	obs.RecordRunDuration(ctx, time.Since(started), k)
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
