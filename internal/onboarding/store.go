package onboarding

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/common/metrics"
	"onboarding-service/internal/models"
	"onboarding-service/internal/storage"
)

// onboardingData is the persisted blob of the four wizard sections. The
// agreement lives under its own key.
type onboardingData struct {
	BusinessProfile models.BusinessProfile `json:"businessProfile"`
	Customers       []models.Customer      `json:"customers"`
	BankConnection  models.BankConnection  `json:"bankConnection"`
	Invoices        []models.Invoice       `json:"invoices"`
}

// DraftStore loads and saves drafts. Persistence is best effort: Load never
// fails and Save never reports failure to its caller, so the in-memory draft
// stays authoritative for the rest of the request.
type DraftStore struct {
	storage storage.Storage
	logger  logger.Logger
}

func NewDraftStore(st storage.Storage, log logger.Logger) *DraftStore {
	return &DraftStore{
		storage: st,
		logger:  log.WithFields(map[string]interface{}{"component": "draft-store"}),
	}
}

// Load returns the persisted draft, or an empty draft when none exists or the
// backend cannot be read.
func (s *DraftStore) Load(ctx context.Context, userEmail string) models.Draft {
	draft := models.NewDraft()

	raw, err := s.storage.Get(ctx, userKey(userEmail, keyOnboardingData))
	switch {
	case err == nil:
		var data onboardingData
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			s.fallback(userEmail, "corrupt", err)
			return draft
		}
		draft.BusinessProfile = data.BusinessProfile
		draft.Customers = data.Customers
		draft.BankConnection = data.BankConnection
		draft.Invoices = data.Invoices
	case stderrors.Is(err, storage.ErrNotFound):
	default:
		s.fallback(userEmail, "unavailable", err)
		return draft
	}

	raw, err = s.storage.Get(ctx, userKey(userEmail, keyFactoringAgreement))
	switch {
	case err == nil:
		var fa models.FactoringAgreement
		if err := json.Unmarshal([]byte(raw), &fa); err != nil {
			s.fallback(userEmail, "corrupt", err)
		} else {
			draft.FactoringAgreement = &fa
		}
	case stderrors.Is(err, storage.ErrNotFound):
	default:
		s.fallback(userEmail, "unavailable", err)
	}

	return draft.Normalize()
}

// Save writes the full draft. Writing the same value twice leaves storage
// unchanged.
func (s *DraftStore) Save(ctx context.Context, userEmail string, draft models.Draft) {
	draft = draft.Normalize()

	blob, err := json.Marshal(onboardingData{
		BusinessProfile: draft.BusinessProfile,
		Customers:       draft.Customers,
		BankConnection:  draft.BankConnection,
		Invoices:        draft.Invoices,
	})
	if err != nil {
		s.persistFailed(userEmail, err)
		return
	}
	if err := s.storage.Set(ctx, userKey(userEmail, keyOnboardingData), string(blob)); err != nil {
		s.persistFailed(userEmail, err)
		return
	}

	agreementKey := userKey(userEmail, keyFactoringAgreement)
	if draft.FactoringAgreement == nil {
		if err := s.storage.Delete(ctx, agreementKey); err != nil {
			s.persistFailed(userEmail, err)
		}
		return
	}
	blob, err = json.Marshal(draft.FactoringAgreement)
	if err != nil {
		s.persistFailed(userEmail, err)
		return
	}
	if err := s.storage.Set(ctx, agreementKey, string(blob)); err != nil {
		s.persistFailed(userEmail, err)
	}
}

// MergeSection replaces one section of current, persists the result and
// returns it. Only a value of the wrong type for key is an error.
func (s *DraftStore) MergeSection(ctx context.Context, userEmail string, current models.Draft, key models.SectionKey, value interface{}) (models.Draft, error) {
	next, err := current.WithSection(key, value)
	if err != nil {
		metrics.DraftSaves.WithLabelValues(string(key), "rejected").Inc()
		return current, errors.NewInvalidSectionError(string(key)).WithMetadata("cause", err.Error())
	}
	s.Save(ctx, userEmail, next)
	metrics.DraftSaves.WithLabelValues(string(key), "merged").Inc()
	return next, nil
}

func (s *DraftStore) persistFailed(userEmail string, err error) {
	metrics.DraftPersistFailures.Inc()
	s.logger.Warn("draft not persisted, continuing in memory", map[string]interface{}{
		"userEmail": userEmail,
		"errorCode": string(errors.ErrCodeDraftPersistFailed),
		"error":     err,
	})
}

func (s *DraftStore) fallback(userEmail, reason string, err error) {
	metrics.DraftLoadFallbacks.WithLabelValues(reason).Inc()
	s.logger.Warn("draft load fell back to empty draft", map[string]interface{}{
		"userEmail": userEmail,
		"reason":    reason,
		"error":     err,
	})
}
