package onboarding

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/common/metrics"
	"onboarding-service/internal/models"
)

type BankPartner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BankPartners is the catalogue offered on the bank step.
var BankPartners = []BankPartner{
	{ID: "chase", Name: "Chase"},
	{ID: "bofa", Name: "Bank of America"},
	{ID: "wells-fargo", Name: "Wells Fargo"},
	{ID: "citi", Name: "Citibank"},
	{ID: "us-bank", Name: "U.S. Bank"},
	{ID: "pnc", Name: "PNC Bank"},
}

func FindBankPartner(id string) (BankPartner, bool) {
	id = strings.TrimSpace(id)
	for _, p := range BankPartners {
		if p.ID == id {
			return p, true
		}
	}
	return BankPartner{}, false
}

// BankConnector simulates linking a partner bank: a fixed delay followed by
// a random outcome. Failures are retryable and the applicant may try again
// any number of times.
type BankConnector struct {
	delay       time.Duration
	successRate float64
	roll        func() float64
	logger      logger.Logger
}

func NewBankConnector(delay time.Duration, successRate float64, log logger.Logger) *BankConnector {
	return &BankConnector{
		delay:       delay,
		successRate: successRate,
		roll:        rand.Float64,
		logger:      log.WithFields(map[string]interface{}{"component": "bank-connector"}),
	}
}

// Connect returns the bankConnection section for a successful link. A
// cancelled context abandons the attempt without an outcome.
func (c *BankConnector) Connect(ctx context.Context, bankID string) (models.BankConnection, error) {
	partner, ok := FindBankPartner(bankID)
	if !ok {
		return models.BankConnection{}, errors.NewUnknownBankPartnerError(bankID)
	}

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			metrics.BankConnectAttempts.WithLabelValues("cancelled").Inc()
			return models.BankConnection{}, ctx.Err()
		}
	}

	if c.roll() >= c.successRate {
		metrics.BankConnectAttempts.WithLabelValues("failed").Inc()
		c.logger.Info("bank connection failed", map[string]interface{}{"bankId": partner.ID})
		return models.BankConnection{}, errors.NewBankConnectFailedError(partner.ID, "the bank did not respond, please try again")
	}

	metrics.BankConnectAttempts.WithLabelValues("connected").Inc()
	return models.BankConnection{BankID: partner.ID, BankName: partner.Name}, nil
}
