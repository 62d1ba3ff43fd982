package onboarding

import (
	"context"
	stderrors "errors"
	"time"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/common/metrics"
	"onboarding-service/internal/common/observability"
	"onboarding-service/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrApplicationNotFound is returned by repositories when the applicant has
// not submitted.
var ErrApplicationNotFound = stderrors.New("application not found")

// ErrApplicationUnreadable is returned when a stored application cannot be
// decoded. Retrying the read does not help.
var ErrApplicationUnreadable = stderrors.New("stored application is unreadable")

// ErrApplicationSuperseded is returned when a review decision names a
// submission that a newer one has replaced.
var ErrApplicationSuperseded = stderrors.New("application superseded")

// ApplicationRepository persists submitted applications, one per applicant.
type ApplicationRepository interface {
	// Save inserts or overwrites the applicant's application.
	Save(ctx context.Context, app *models.Application) error
	Get(ctx context.Context, userEmail string) (*models.Application, error)
	// UpdateReview applies a review decision, enforcing the status lifecycle.
	UpdateReview(ctx context.Context, userEmail string, decision models.ReviewDecision) (*models.Application, error)
}

// ReviewStarter hands a submitted application to the review subsystem.
type ReviewStarter interface {
	StartReview(ctx context.Context, app models.Application) error
}

// SubmissionRecorder receives submission outcomes for otel metrics.
type SubmissionRecorder interface {
	RecordSubmission(ctx context.Context, status string)
}

// SubmissionGate turns a draft into a submitted application.
type SubmissionGate struct {
	repo            ApplicationRepository
	reviews         ReviewStarter
	recorder        SubmissionRecorder
	submittedStatus models.ApplicationStatus
	now             func() time.Time
	newID           func() string
	logger          logger.Logger
}

type GateOption func(*SubmissionGate)

// WithReviewStarter enables the hand-off to review after each submission.
func WithReviewStarter(rs ReviewStarter) GateOption {
	return func(g *SubmissionGate) { g.reviews = rs }
}

func WithSubmissionRecorder(r SubmissionRecorder) GateOption {
	return func(g *SubmissionGate) { g.recorder = r }
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) GateOption {
	return func(g *SubmissionGate) { g.now = now }
}

// NewSubmissionGate builds a gate that stamps submittedStatus on every
// submission. An empty status defaults to under_review.
func NewSubmissionGate(repo ApplicationRepository, submittedStatus models.ApplicationStatus, log logger.Logger, opts ...GateOption) *SubmissionGate {
	if submittedStatus == "" {
		submittedStatus = models.StatusUnderReview
	}
	g := &SubmissionGate{
		repo:            repo,
		submittedStatus: submittedStatus,
		now:             time.Now,
		newID:           func() string { return uuid.New().String() },
		logger:          log.WithFields(map[string]interface{}{"component": "submission-gate"}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit accepts any draft. A second submission by the same applicant
// overwrites the first. The review hand-off is best effort: its failure is
// logged and the submission still stands.
func (g *SubmissionGate) Submit(ctx context.Context, userEmail string, draft models.Draft) (*models.Application, error) {
	ctx, span := observability.StartSpan(ctx, "onboarding.submit", attribute.String("userEmail", userEmail))
	defer span.End()

	app := &models.Application{
		ID:          g.newID(),
		UserEmail:   userEmail,
		Draft:       draft.Clone().Normalize(),
		Status:      g.submittedStatus,
		SubmittedAt: g.now().UTC().Truncate(time.Second),
	}

	if err := g.repo.Save(ctx, app); err != nil {
		metrics.Submissions.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		g.logger.Error("application not persisted", map[string]interface{}{
			"userEmail": userEmail,
			"error":     err,
		})
		return nil, errors.NewSubmissionFailedError(err)
	}

	metrics.Submissions.WithLabelValues("submitted").Inc()
	if g.recorder != nil {
		g.recorder.RecordSubmission(ctx, string(app.Status))
	}
	g.logger.Info("application submitted", map[string]interface{}{
		"userEmail":     userEmail,
		"applicationId": app.ID,
		"status":        string(app.Status),
	})

	if g.reviews != nil {
		if err := g.reviews.StartReview(ctx, *app); err != nil {
			metrics.Submissions.WithLabelValues("review_start_failed").Inc()
			span.RecordError(err)
			g.logger.Error("review hand-off failed", map[string]interface{}{
				"userEmail":     userEmail,
				"applicationId": app.ID,
				"error":         err,
			})
		}
	}

	return app, nil
}

// Status returns the applicant's application status, or pending when nothing
// has been submitted.
func (g *SubmissionGate) Status(ctx context.Context, userEmail string) (models.ApplicationStatus, error) {
	app, err := g.repo.Get(ctx, userEmail)
	if stderrors.Is(err, ErrApplicationNotFound) {
		return models.StatusPending, nil
	}
	if err != nil {
		return "", err
	}
	return app.Status, nil
}

// Application returns the submitted application.
func (g *SubmissionGate) Application(ctx context.Context, userEmail string) (*models.Application, error) {
	app, err := g.repo.Get(ctx, userEmail)
	if stderrors.Is(err, ErrApplicationNotFound) {
		return nil, errors.NewApplicationNotFoundError(userEmail)
	}
	return app, err
}

// ApplyDecision validates a review decision against app and applies it.
func ApplyDecision(app *models.Application, decision models.ReviewDecision) error {
	if decision.ApplicationID != "" && decision.ApplicationID != app.ID {
		return ErrApplicationSuperseded
	}
	if !app.Status.CanTransitionTo(decision.Status) {
		return errors.NewInvalidStatusTransitionError(string(app.Status), string(decision.Status))
	}
	reviewedAt := decision.ReviewedAt.UTC()
	app.Status = decision.Status
	app.ReviewedBy = decision.ReviewedBy
	app.ReviewedAt = &reviewedAt
	app.Notes = decision.Notes
	return nil
}
