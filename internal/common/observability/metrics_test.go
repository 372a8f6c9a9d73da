package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotation-service/internal/common/logger"
)

func TestNew_RecordsAndShutsDown(t *testing.T) {
	o := New(Options{ServiceName: "quotation-service-test"}, logger.NewTestLogger(t))
	require.NotNil(t, o)

	ctx, span := o.StartSpan(context.Background(), "render")
	assert.True(t, span.SpanContext().IsValid())
	o.RecordRunProcessed(ctx, "document", "delivered")
	o.RecordRunDuration(ctx, 120*time.Millisecond, "document")
	span.End()

	assert.NoError(t, o.Shutdown(context.Background()))
}

func TestNoopAndNil(t *testing.T) {
	var nilObs *Observability
	assert.NotPanics(t, func() {
		_, span := nilObs.StartSpan(context.Background(), "convert")
		span.End()
		nilObs.RecordRunProcessed(context.Background(), "portable", "failed")
		assert.NoError(t, nilObs.Shutdown(context.Background()))

		o := NewNoop()
		_, span = o.StartSpan(context.Background(), "convert")
		span.End()
		o.RecordRunDuration(context.Background(), time.Second, "portable")
	})
}
