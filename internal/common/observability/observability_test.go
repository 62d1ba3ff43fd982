package observability

import (
	"context"
	"testing"
	"time"

	"onboarding-service/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan_WithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "onboarding.submit", attribute.String("userEmail", "a@b.com"))
	defer span.End()
	assert.NotNil(t, ctx)
}

func TestZeroValueIsSafe(t *testing.T) {
	o := &Observability{}
	ctx := context.Background()
	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "index-application", "completed")
		o.RecordJobDuration(ctx, "index-application", time.Second)
		o.RecordSubmission(ctx, "under_review")
		o.Shutdown(ctx)
	})
}

func TestNew_MetricsOnly(t *testing.T) {
	o := New("onboarding-test", "", logger.NewTestLogger(t))
	defer o.Shutdown(context.Background())

	assert.Nil(t, o.tracerProvider)
	assert.NotPanics(t, func() { o.RecordSubmission(context.Background(), "under_review") })
}
