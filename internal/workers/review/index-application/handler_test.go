// internal/workers/review/index-application/handler_test.go
package indexapplication

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/models"
	"onboarding-service/internal/onboarding"
	"onboarding-service/internal/storage"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type recordedRequest struct {
	Method string
	Path   string
	Body   ApplicationDocument
}

// fakeElasticsearch answers index requests the way a cluster does.
type fakeElasticsearch struct {
	mu       sync.Mutex
	status   int
	requests []recordedRequest
}

func (f *fakeElasticsearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var doc ApplicationDocument
	_ = json.NewDecoder(r.Body).Decode(&doc)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: doc})
	status := f.status
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
	if status >= 300 {
		_, _ = w.Write([]byte(`{"error":{"type":"cluster_block_exception"},"status":500}`))
		return
	}
	_, _ = w.Write([]byte(`{"_index":"applications","_id":"` + doc.ApplicationID + `","result":"created"}`))
}

func createTestApplication() *models.Application {
	d := models.NewDraft()
	d.BusinessProfile = models.BusinessProfile{
		BusinessName: "Acme LLC",
		BusinessType: models.BusinessTypeLLC,
		Industry:     models.IndustryManufacturing,
		State:        "TX",
	}
	d.Customers = []models.Customer{{CustomerName: "Globex"}, {CustomerName: "Initech"}}
	d.BankConnection = models.BankConnection{BankID: "pnc", BankName: "PNC Bank"}
	return &models.Application{
		ID:          "4f1c2a9e-0000-4000-8000-000000000001",
		UserEmail:   "owner@acme.com",
		Draft:       d,
		Status:      models.StatusUnderReview,
		SubmittedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func setupHandler(t *testing.T, es *fakeElasticsearch) *Handler {
	t.Helper()
	srv := httptest.NewServer(es)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)

	repo := onboarding.NewStorageApplicationRepository(storage.NewMemory())
	require.NoError(t, repo.Save(context.Background(), createTestApplication()))

	return NewHandler(DefaultConfig(), client, repo, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_IndexesApplication(t *testing.T) {
	es := &fakeElasticsearch{}
	h := setupHandler(t, es)

	output, err := h.Execute(context.Background(), &Input{UserEmail: "owner@acme.com"})
	require.NoError(t, err)
	assert.True(t, output.Indexed)
	assert.Equal(t, "created", output.Result)
	assert.Equal(t, "applications", output.Index)

	require.Len(t, es.requests, 1)
	req := es.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/applications/_doc/4f1c2a9e-0000-4000-8000-000000000001", req.Path)
	assert.Equal(t, "Acme LLC", req.Body.BusinessName)
	assert.Equal(t, "PNC Bank", req.Body.BankName)
	assert.Equal(t, 2, req.Body.CustomerCount)
	assert.Equal(t, 0, req.Body.InvoiceCount)
	assert.Equal(t, "under_review", req.Body.Status)
	assert.Equal(t, "2026-05-01T12:00:00Z", req.Body.SubmittedAt)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_SupersededApplication(t *testing.T) {
	es := &fakeElasticsearch{}
	h := setupHandler(t, es)

	output, err := h.Execute(context.Background(), &Input{
		ApplicationID: "4f1c2a9e-0000-4000-8000-0000000000aa",
		UserEmail:     "owner@acme.com",
	})
	require.NoError(t, err)
	assert.True(t, output.Superseded)
	assert.False(t, output.Indexed)
	assert.Equal(t, "4f1c2a9e-0000-4000-8000-0000000000aa", output.DocumentID)
	assert.Empty(t, es.requests)

	output, err = h.Execute(context.Background(), &Input{
		ApplicationID: "4f1c2a9e-0000-4000-8000-000000000001",
		UserEmail:     "owner@acme.com",
	})
	require.NoError(t, err)
	assert.True(t, output.Indexed)
	assert.False(t, output.Superseded)
	assert.Len(t, es.requests, 1)
}

func TestHandler_Execute_ClusterError(t *testing.T) {
	h := setupHandler(t, &fakeElasticsearch{status: http.StatusInternalServerError})

	_, err := h.Execute(context.Background(), &Input{UserEmail: "owner@acme.com"})
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeIndexFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_NotSubmitted(t *testing.T) {
	es := &fakeElasticsearch{}
	h := setupHandler(t, es)

	_, err := h.Execute(context.Background(), &Input{UserEmail: "someone@else.com"})
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeApplicationMissing, stdErr.Code)
	assert.Empty(t, es.requests)
}

type failingReader struct {
	err error
}

func (f failingReader) Get(context.Context, string) (*models.Application, error) {
	return nil, f.err
}

func TestHandler_Execute_RepositoryErrors(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      errors.ErrorCode
		wantRetryable bool
	}{
		{
			name:     "unreadable snapshot",
			err:      fmt.Errorf("%w: decode draft: unexpected end of JSON input", onboarding.ErrApplicationUnreadable),
			wantCode: errors.ErrCodeApplicationValidationFailed,
		},
		{
			name:          "store unavailable",
			err:           fmt.Errorf("select application: connection refused"),
			wantCode:      errors.ErrCodeDatabaseConnectionFailed,
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			es := &fakeElasticsearch{}
			h := setupHandler(t, es)
			h.apps = failingReader{err: tt.err}

			_, err := h.Execute(context.Background(), &Input{UserEmail: "owner@acme.com"})
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
			assert.Empty(t, es.requests)
		})
	}
}

func TestNewApplicationDocument(t *testing.T) {
	doc := NewApplicationDocument(createTestApplication())
	assert.Equal(t, "llc", doc.BusinessType)
	assert.Equal(t, "manufacturing", doc.Industry)
	assert.Equal(t, "owner@acme.com", doc.UserEmail)
}
