package api

import (
	"encoding/json"
	"fmt"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/validation"
	"onboarding-service/internal/models"
)

// draftPatch is a request body keyed like the draft itself, e.g.
// {"customers": [...]}. Only the keys present are decoded.
type draftPatch map[string]json.RawMessage

func parseDraftPatch(raw []byte) (draftPatch, error) {
	patch := draftPatch{}
	if raw == nil {
		return patch, nil
	}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, errors.NewInvalidPayloadError(err.Error())
	}
	return patch, nil
}

// section decodes the value stored under key into its typed form.
func (p draftPatch) section(key models.SectionKey) (interface{}, bool, error) {
	raw, ok := p[string(key)]
	if !ok {
		return nil, false, nil
	}
	value, err := decodeSection(key, raw)
	return value, true, err
}

// bankConnection is only ever written by POST /bank/connect.
func errBankConnectionViaConnect() error {
	return errors.NewInvalidPayloadError("bankConnection is set through /v1/onboarding/bank/connect")
}

func decodeSection(key models.SectionKey, raw json.RawMessage) (interface{}, error) {
	var (
		value interface{}
		err   error
	)
	switch key {
	case models.SectionBusinessProfile:
		var bp models.BusinessProfile
		err = json.Unmarshal(raw, &bp)
		bp.EIN = validation.NormalizeEIN(bp.EIN)
		value = bp
	case models.SectionCustomers:
		customers := []models.Customer{}
		err = json.Unmarshal(raw, &customers)
		value = customers
	case models.SectionBankConnection:
		return nil, errBankConnectionViaConnect()
	case models.SectionInvoices:
		invoices := []models.Invoice{}
		err = json.Unmarshal(raw, &invoices)
		value = invoices
	case models.SectionFactoringAgreement:
		var fa *models.FactoringAgreement
		err = json.Unmarshal(raw, &fa)
		value = fa
	default:
		return nil, errors.NewInvalidSectionError(string(key))
	}
	if err != nil {
		return nil, errors.NewInvalidPayloadError(fmt.Sprintf("%s: %v", key, err))
	}
	return value, nil
}
