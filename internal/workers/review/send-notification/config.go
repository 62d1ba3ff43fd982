// internal/workers/review/send-notification/config.go
package sendnotification

import (
	"fmt"
	"time"

	"onboarding-service/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	EmailEnabled  bool
	SNSEnabled    bool
	StaffTopicARN string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       10 * time.Second,
		EmailEnabled:  true,
		SNSEnabled:    false,
	}
}

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
	c.EmailEnabled = cfg.Integrations.AWS.SES.Enabled
	c.SNSEnabled = cfg.Integrations.AWS.SNS.Enabled
	c.StaffTopicARN = cfg.Integrations.AWS.SNS.StaffTopicARN
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.SNSEnabled && c.StaffTopicARN == "" {
		return fmt.Errorf("staff_topic_arn is required when sns is enabled")
	}
	return nil
}
