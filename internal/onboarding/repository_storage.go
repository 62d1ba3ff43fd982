package onboarding

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"onboarding-service/internal/models"
	"onboarding-service/internal/storage"
)

// StorageApplicationRepository keeps applications in the draft storage
// backend. Besides the full record it writes applicationStatus and
// submittedAt as standalone keys.
type StorageApplicationRepository struct {
	storage storage.Storage
}

func NewStorageApplicationRepository(st storage.Storage) *StorageApplicationRepository {
	return &StorageApplicationRepository{storage: st}
}

func (r *StorageApplicationRepository) Save(ctx context.Context, app *models.Application) error {
	blob, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	if err := r.storage.Set(ctx, userKey(app.UserEmail, keyApplication), string(blob)); err != nil {
		return err
	}
	if err := r.storage.Set(ctx, userKey(app.UserEmail, keyApplicationStatus), string(app.Status)); err != nil {
		return err
	}
	return r.storage.Set(ctx, userKey(app.UserEmail, keySubmittedAt), app.SubmittedAt.UTC().Format(time.RFC3339))
}

func (r *StorageApplicationRepository) Get(ctx context.Context, userEmail string) (*models.Application, error) {
	raw, err := r.storage.Get(ctx, userKey(userEmail, keyApplication))
	if stderrors.Is(err, storage.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	var app models.Application
	if err := json.Unmarshal([]byte(raw), &app); err != nil {
		return nil, fmt.Errorf("%w: decode application: %v", ErrApplicationUnreadable, err)
	}
	app.Draft = app.Draft.Normalize()
	return &app, nil
}

// UpdateReview is read-modify-write without a guard; the last decision wins.
func (r *StorageApplicationRepository) UpdateReview(ctx context.Context, userEmail string, decision models.ReviewDecision) (*models.Application, error) {
	app, err := r.Get(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if err := ApplyDecision(app, decision); err != nil {
		return nil, err
	}
	blob, err := json.Marshal(app)
	if err != nil {
		return nil, fmt.Errorf("marshal application: %w", err)
	}
	if err := r.storage.Set(ctx, userKey(userEmail, keyApplication), string(blob)); err != nil {
		return nil, err
	}
	if err := r.storage.Set(ctx, userKey(userEmail, keyApplicationStatus), string(app.Status)); err != nil {
		return nil, err
	}
	return app, nil
}
