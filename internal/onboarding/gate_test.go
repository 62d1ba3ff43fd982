package onboarding

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/models"
	"onboarding-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct {
	*StorageApplicationRepository
}

func (failingRepo) Save(context.Context, *models.Application) error {
	return stderrors.New("connection reset by peer")
}

type recordingRecorder struct{ statuses []string }

func (r *recordingRecorder) RecordSubmission(_ context.Context, status string) {
	r.statuses = append(r.statuses, status)
}

func acmeDraft() models.Draft {
	d := models.NewDraft()
	d.BusinessProfile = models.BusinessProfile{BusinessName: "Acme LLC", EIN: "12-3456789"}
	return d
}

func TestSubmissionGate_AcmeScenario(t *testing.T) {
	repo := NewStorageApplicationRepository(storage.NewMemory())
	reviews := &fakeReviewStarter{}
	gate := NewSubmissionGate(repo, "", logger.NewTestLogger(t), WithReviewStarter(reviews))
	ctx := context.Background()

	before, err := gate.Status(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, before)

	start := time.Now().Add(-time.Second)
	app, err := gate.Submit(ctx, testUser, acmeDraft())
	require.NoError(t, err)

	assert.NotEqual(t, models.StatusPending, app.Status)
	assert.Equal(t, models.StatusUnderReview, app.Status)
	assert.False(t, app.SubmittedAt.IsZero())
	assert.WithinDuration(t, time.Now(), app.SubmittedAt, 5*time.Second)
	assert.False(t, app.SubmittedAt.Before(start.Truncate(time.Second)))
	assert.NotEmpty(t, app.ID)

	raw, err := json.Marshal(app)
	require.NoError(t, err)
	var wire struct {
		Status      string `json:"status"`
		SubmittedAt string `json:"submittedAt"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))
	_, err = time.Parse(time.RFC3339, wire.SubmittedAt)
	assert.NoError(t, err, "submittedAt %q is not ISO-8601", wire.SubmittedAt)

	after, err := gate.Status(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, after)
	assert.Equal(t, 1, reviews.count())
}

func TestSubmissionGate_ResubmissionOverwrites(t *testing.T) {
	repo := NewStorageApplicationRepository(storage.NewMemory())
	gate := NewSubmissionGate(repo, models.StatusUnderReview, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := gate.Submit(ctx, testUser, acmeDraft())
	require.NoError(t, err)

	second := acmeDraft()
	second.BusinessProfile.BusinessName = "Acme Holdings LLC"
	app, err := gate.Submit(ctx, testUser, second)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, app.ID)

	stored, err := gate.Application(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings LLC", stored.Draft.BusinessProfile.BusinessName)
	assert.Equal(t, app.ID, stored.ID)
}

func TestSubmissionGate_ConfiguredPendingStatus(t *testing.T) {
	repo := NewStorageApplicationRepository(storage.NewMemory())
	gate := NewSubmissionGate(repo, models.StatusPending, logger.NewTestLogger(t))

	app, err := gate.Submit(context.Background(), testUser, acmeDraft())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.False(t, app.SubmittedAt.IsZero())
}

func TestSubmissionGate_ReviewHandOffFailureDoesNotFailSubmission(t *testing.T) {
	repo := NewStorageApplicationRepository(storage.NewMemory())
	reviews := &fakeReviewStarter{err: stderrors.New("broker unavailable")}
	recorder := &recordingRecorder{}
	gate := NewSubmissionGate(repo, models.StatusUnderReview, logger.NewTestLogger(t),
		WithReviewStarter(reviews), WithSubmissionRecorder(recorder))

	app, err := gate.Submit(context.Background(), testUser, acmeDraft())
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderReview, app.Status)
	assert.Equal(t, 1, reviews.count())
	assert.Equal(t, []string{"under_review"}, recorder.statuses)
}

func TestSubmissionGate_PersistFailure(t *testing.T) {
	reviews := &fakeReviewStarter{}
	gate := NewSubmissionGate(failingRepo{}, models.StatusUnderReview, logger.NewTestLogger(t), WithReviewStarter(reviews))

	_, err := gate.Submit(context.Background(), testUser, acmeDraft())
	require.Error(t, err)

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSubmissionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, 0, reviews.count(), "nothing is handed off when the record was not saved")
}

func TestSubmissionGate_SnapshotIsIndependentOfDraft(t *testing.T) {
	repo := NewStorageApplicationRepository(storage.NewMemory())
	gate := NewSubmissionGate(repo, models.StatusUnderReview, logger.NewTestLogger(t),
		WithClock(func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.FixedZone("CST", -6*3600)) }))

	d := acmeDraft()
	d.Customers = threeCustomers()
	app, err := gate.Submit(context.Background(), testUser, d)
	require.NoError(t, err)

	d.Customers[0].CustomerName = "changed after submit"
	assert.Equal(t, "Globex", app.Draft.Customers[0].CustomerName)
	assert.Equal(t, time.UTC, app.SubmittedAt.Location())
	assert.Equal(t, 18, app.SubmittedAt.Hour())
}

func TestSubmissionGate_ApplicationNotFound(t *testing.T) {
	gate := NewSubmissionGate(NewStorageApplicationRepository(storage.NewMemory()), "", logger.NewTestLogger(t))

	_, err := gate.Application(context.Background(), testUser)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeApplicationMissing, stdErr.Code)
}

func TestApplyDecision(t *testing.T) {
	reviewedAt := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	app := &models.Application{Status: models.StatusUnderReview}

	require.NoError(t, ApplyDecision(app, models.ReviewDecision{
		Status: models.StatusApproved, ReviewedBy: "analyst@factoring.example", Notes: "clean file", ReviewedAt: reviewedAt,
	}))
	assert.Equal(t, models.StatusApproved, app.Status)
	assert.Equal(t, "analyst@factoring.example", app.ReviewedBy)
	require.NotNil(t, app.ReviewedAt)
	assert.True(t, reviewedAt.Equal(*app.ReviewedAt))

	err := ApplyDecision(app, models.ReviewDecision{Status: models.StatusRejected})
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidStatusTransition, stdErr.Code)
	assert.Equal(t, models.StatusApproved, app.Status)
}

func TestApplyDecision_StaleApplicationID(t *testing.T) {
	app := &models.Application{ID: "app-2", Status: models.StatusUnderReview}

	err := ApplyDecision(app, models.ReviewDecision{ApplicationID: "app-1", Status: models.StatusApproved})
	assert.ErrorIs(t, err, ErrApplicationSuperseded)
	assert.Equal(t, models.StatusUnderReview, app.Status)
	assert.Nil(t, app.ReviewedAt)

	require.NoError(t, ApplyDecision(app, models.ReviewDecision{ApplicationID: "app-2", Status: models.StatusApproved}))
	assert.Equal(t, models.StatusApproved, app.Status)
}
