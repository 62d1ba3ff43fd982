// internal/workers/review/validate-application-data/config.go
package validateapplicationdata

import (
	"fmt"
	"time"

	"onboarding-service/internal/common/config"
	"onboarding-service/internal/onboarding"
)

type Config struct {
	Enabled        bool
	MaxJobsActive  int
	Timeout        time.Duration
	MaxInvoiceSize int64
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		MaxJobsActive:  5,
		Timeout:        10 * time.Second,
		MaxInvoiceSize: onboarding.DefaultMaxInvoiceSize,
	}
}

// LoadConfig builds the worker config from the shared worker settings.
func LoadConfig(cfg *config.Config) *Config {
	wc := config.GetWorkerConfig(cfg, TaskType)
	c := DefaultConfig()
	c.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		c.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	if cfg.Onboarding.MaxInvoiceSize > 0 {
		c.MaxInvoiceSize = cfg.Onboarding.MaxInvoiceSize
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
