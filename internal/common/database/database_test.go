package database

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"onboarding-service/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresClient_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS onboarding_applications").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewPostgresFromDB(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

type esCall struct {
	Method string
	Path   string
	Body   string
}

func newFakeCluster(t *testing.T, indexExists bool) (*ElasticsearchClient, *[]esCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []esCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, esCall{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead && !indexExists:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut:
			_, _ = w.Write([]byte(`{"acknowledged":true,"index":"applications"}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, &calls
}

func TestElasticsearchClient_EnsureIndex_CreatesMissingIndex(t *testing.T) {
	client, calls := newFakeCluster(t, false)

	require.NoError(t, client.EnsureIndex(context.Background(), "applications"))

	require.Len(t, *calls, 2)
	assert.Equal(t, http.MethodHead, (*calls)[0].Method)
	assert.Equal(t, http.MethodPut, (*calls)[1].Method)
	assert.Equal(t, "/applications", (*calls)[1].Path)
	assert.Contains(t, (*calls)[1].Body, `"mappings"`)
}

func TestElasticsearchClient_EnsureIndex_ExistingIndex(t *testing.T) {
	client, calls := newFakeCluster(t, true)

	require.NoError(t, client.EnsureIndex(context.Background(), "applications"))
	assert.Len(t, *calls, 1)
}
