package onboarding

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/common/metrics"
	"onboarding-service/internal/storage"
)

// ProgressStore keeps sequencer state between requests of one wizard run.
// Like drafts, it is best effort.
type ProgressStore struct {
	storage storage.Storage
	logger  logger.Logger
}

func NewProgressStore(st storage.Storage, log logger.Logger) *ProgressStore {
	return &ProgressStore{
		storage: st,
		logger:  log.WithFields(map[string]interface{}{"component": "progress-store"}),
	}
}

// Load returns the sequencer for userEmail, starting a fresh run when
// nothing usable is stored.
func (p *ProgressStore) Load(ctx context.Context, userEmail string) *Sequencer {
	raw, err := p.storage.Get(ctx, userKey(userEmail, keyProgress))
	if err != nil {
		if !stderrors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("progress unavailable, starting at first step", map[string]interface{}{
				"userEmail": userEmail,
				"error":     err,
			})
		}
		return NewSequencer()
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		p.logger.Warn("progress corrupt, starting at first step", map[string]interface{}{
			"userEmail": userEmail,
			"error":     err,
		})
		return NewSequencer()
	}
	return RestoreSequencer(st)
}

func (p *ProgressStore) Save(ctx context.Context, userEmail string, st State) {
	blob, err := json.Marshal(st)
	if err == nil {
		err = p.storage.Set(ctx, userKey(userEmail, keyProgress), string(blob))
	}
	if err != nil {
		metrics.DraftPersistFailures.Inc()
		p.logger.Warn("progress not persisted", map[string]interface{}{
			"userEmail": userEmail,
			"error":     err,
		})
	}
}
