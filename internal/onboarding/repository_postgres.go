package onboarding

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/models"
)

const (
	upsertApplicationSQL = `
		INSERT INTO onboarding_applications (
			id, user_email, draft, status, submitted_at, reviewed_by, reviewed_at, notes
		) VALUES ($1, $2, $3, $4, $5, NULL, NULL, NULL)
		ON CONFLICT (user_email) DO UPDATE SET
			id = EXCLUDED.id,
			draft = EXCLUDED.draft,
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at,
			reviewed_by = NULL,
			reviewed_at = NULL,
			notes = NULL`

	selectApplicationSQL = `
		SELECT id, user_email, draft, status, submitted_at, reviewed_by, reviewed_at, notes
		FROM onboarding_applications
		WHERE user_email = $1`

	updateReviewSQL = `
		UPDATE onboarding_applications
		SET status = $1, reviewed_by = $2, reviewed_at = $3, notes = $4
		WHERE user_email = $5 AND status = $6 AND id = $7`
)

// PostgresApplicationRepository stores applications in PostgreSQL, one row
// per applicant.
type PostgresApplicationRepository struct {
	db *sql.DB
}

func NewPostgresApplicationRepository(db *sql.DB) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

func (r *PostgresApplicationRepository) Save(ctx context.Context, app *models.Application) error {
	draftJSON, err := json.Marshal(app.Draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, upsertApplicationSQL,
		app.ID,
		app.UserEmail,
		draftJSON,
		string(app.Status),
		app.SubmittedAt,
	); err != nil {
		return fmt.Errorf("upsert application: %w", err)
	}
	return nil
}

func (r *PostgresApplicationRepository) Get(ctx context.Context, userEmail string) (*models.Application, error) {
	var (
		app        models.Application
		draftJSON  []byte
		status     string
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
		notes      sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectApplicationSQL, userEmail).Scan(
		&app.ID,
		&app.UserEmail,
		&draftJSON,
		&status,
		&app.SubmittedAt,
		&reviewedBy,
		&reviewedAt,
		&notes,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select application: %w", err)
	}

	if err := json.Unmarshal(draftJSON, &app.Draft); err != nil {
		return nil, fmt.Errorf("%w: decode draft: %v", ErrApplicationUnreadable, err)
	}
	app.Draft = app.Draft.Normalize()
	app.Status = models.ApplicationStatus(status)
	app.SubmittedAt = app.SubmittedAt.UTC()
	app.ReviewedBy = reviewedBy.String
	app.Notes = notes.String
	if reviewedAt.Valid {
		t := reviewedAt.Time.UTC()
		app.ReviewedAt = &t
	}
	return &app, nil
}

// UpdateReview guards the write with the status and id it was validated
// against, so a concurrent decision or re-submission surfaces as an invalid
// transition instead of being overwritten.
func (r *PostgresApplicationRepository) UpdateReview(ctx context.Context, userEmail string, decision models.ReviewDecision) (*models.Application, error) {
	app, err := r.Get(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	from := app.Status
	if err := ApplyDecision(app, decision); err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, updateReviewSQL,
		string(app.Status),
		app.ReviewedBy,
		*app.ReviewedAt,
		app.Notes,
		userEmail,
		string(from),
		app.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if n == 0 {
		return nil, errors.NewInvalidStatusTransitionError(string(from), string(decision.Status)).
			WithMetadata("reason", "status changed concurrently")
	}
	return app, nil
}
