package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt:
    secret: test-secret
onboarding:
  storage_backend: memory
  application_store: storage
workers:
  index-application:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "under_review", cfg.Onboarding.SubmittedStatus)
	assert.Equal(t, int64(10*1024*1024), cfg.Onboarding.MaxInvoiceSize)
	assert.Equal(t, 0.8, cfg.Onboarding.BankConnectSuccessRate)
	assert.Equal(t, "application-review", cfg.Camunda.ReviewProcessID)
	assert.Equal(t, "applications", cfg.Database.Elasticsearch.ApplicationIndex)
	assert.Equal(t, "email", cfg.Auth.JWT.EmailClaim)
	assert.Equal(t, 5, cfg.Workers["index-application"].MaxJobsActive)
	assert.Equal(t, 30000, cfg.Workers["index-application"].Timeout)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_ONBOARDING_SECRET", "from-env")
	path := writeConfig(t, `
auth:
  jwt:
    secret: ${TEST_ONBOARDING_SECRET}
onboarding:
  storage_backend: memory
  application_store: storage
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWT.Secret)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			body:    "onboarding:\n  storage_backend: memory\n  application_store: storage\n",
			wantErr: "auth.jwt.secret is required",
		},
		{
			name:    "redis backend without address",
			body:    "auth:\n  jwt:\n    secret: s\nonboarding:\n  application_store: storage\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "postgres store without host",
			body:    "auth:\n  jwt:\n    secret: s\nonboarding:\n  storage_backend: memory\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "unsupported submitted status",
			body:    "auth:\n  jwt:\n    secret: s\nonboarding:\n  storage_backend: memory\n  application_store: storage\n  submitted_status: approved\n",
			wantErr: "submitted_status",
		},
		{
			name:    "camunda enabled without broker",
			body:    "auth:\n  jwt:\n    secret: s\nonboarding:\n  storage_backend: memory\n  application_store: storage\ncamunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address",
		},
	}

	t.Setenv("ONBOARDING_JWT_SECRET", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{}}
	wc := GetWorkerConfig(cfg, "send-notification")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
}
