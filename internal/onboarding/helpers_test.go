package onboarding

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/models"
	"onboarding-service/internal/storage"
)

const testUser = "owner@acme.com"

var errQuotaExceeded = stderrors.New("quota exceeded")

// flakyStorage wraps Memory with switchable read and write failures.
type flakyStorage struct {
	*storage.Memory
	mu         sync.Mutex
	failWrites bool
	failReads  bool
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{Memory: storage.NewMemory()}
}

func (f *flakyStorage) setFailWrites(v bool) {
	f.mu.Lock()
	f.failWrites = v
	f.mu.Unlock()
}

func (f *flakyStorage) setFailReads(v bool) {
	f.mu.Lock()
	f.failReads = v
	f.mu.Unlock()
}

func (f *flakyStorage) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failReads
	f.mu.Unlock()
	if fail {
		return "", errQuotaExceeded
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyStorage) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return errQuotaExceeded
	}
	return f.Memory.Set(ctx, key, value)
}

func (f *flakyStorage) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return errQuotaExceeded
	}
	return f.Memory.Delete(ctx, keys...)
}

type fakeReviewStarter struct {
	mu      sync.Mutex
	started []models.Application
	err     error
}

func (f *fakeReviewStarter) StartReview(_ context.Context, app models.Application) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, app)
	return f.err
}

func (f *fakeReviewStarter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

type testEnv struct {
	storage *flakyStorage
	reviews *fakeReviewStarter
	repo    *StorageApplicationRepository
	manager *SessionManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewTestLogger(t)
	st := newFlakyStorage()
	reviews := &fakeReviewStarter{}
	repo := NewStorageApplicationRepository(st)

	bank := NewBankConnector(0, 1, log)
	bank.roll = func() float64 { return 0 }

	manager := NewSessionManager(Dependencies{
		Drafts:   NewDraftStore(st, log),
		Progress: NewProgressStore(st, log),
		Gate:     NewSubmissionGate(repo, models.StatusUnderReview, log, WithReviewStarter(reviews)),
		Bank:     bank,
		Limits:   Limits{MaxInvoiceSize: DefaultMaxInvoiceSize, AgreementVersion: "2.1"},
		Logger:   log,
	})
	manager.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	return &testEnv{storage: st, reviews: reviews, repo: repo, manager: manager}
}

func acmeProfile() models.BusinessProfile {
	return models.BusinessProfile{
		BusinessName: "Acme LLC",
		BusinessType: models.BusinessTypeLLC,
		Industry:     models.IndustryManufacturing,
		EIN:          "12-3456789",
		State:        "TX",
		City:         "Austin",
		Street:       "100 Congress Ave",
		Zip:          "78701",
	}
}

func threeCustomers() []models.Customer {
	return []models.Customer{
		{CustomerName: "Globex", ContactPerson: "Hank Scorpio", Email: "hank@globex.com", Phone: "(555) 010-0001"},
		{CustomerName: "Initech", ContactPerson: "Bill Lumbergh", Email: "bill@initech.com"},
		{CustomerName: "Umbrella", ContactPerson: "Albert Wesker", Email: "wesker@umbrella.com"},
	}
}
