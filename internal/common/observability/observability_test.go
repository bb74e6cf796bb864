package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"easyapply/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_Spans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	o := New("test", logger.NewTestLogger(t), rec)
	defer o.Shutdown()

	ctx, parent := o.StartSpan(context.Background(), "cycle", attribute.String("run.id", "r1"))
	_, child := o.StartSpan(ctx, "login")
	EndSpan(child, errors.New("challenge"))
	EndSpan(parent, nil)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "login", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
	assert.Contains(t, ended[1].Attributes(), attribute.String("run.id", "r1"))

	// metrics never fail the caller
	o.RecordCycle(context.Background(), "completed", time.Second)
	o.RecordSubmitted(context.Background(), "golang", 2)
}

func TestObservability_NilSafe(t *testing.T) {
	var o *Observability

	ctx, span := o.StartSpan(context.Background(), "cycle")
	assert.NotNil(t, ctx)
	EndSpan(span, errors.New("ignored"))

	o.RecordCycle(context.Background(), "failed", time.Second)
	o.RecordSubmitted(context.Background(), "golang", 1)
	o.Shutdown()
}
