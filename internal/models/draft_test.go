package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft() Draft {
	return Draft{
		BusinessProfile: BusinessProfile{BusinessName: "Acme LLC", EIN: "12-3456789"},
		Customers: []Customer{
			{CustomerName: "Globex", ContactPerson: "Hank", Email: "hank@globex.com"},
		},
		BankConnection: BankConnection{BankID: "chase", BankName: "Chase"},
		Invoices:       []Invoice{{Name: "inv-1.pdf", Size: 2048}},
	}
}

func TestDraft_WithSection_LeavesOtherSectionsUntouched(t *testing.T) {
	before := sampleDraft()
	beforeJSON, err := json.Marshal(before)
	require.NoError(t, err)

	after, err := before.WithSection(SectionInvoices, []Invoice{})
	require.NoError(t, err)

	assert.Empty(t, after.Invoices)
	assert.Equal(t, before.BusinessProfile, after.BusinessProfile)
	assert.Equal(t, before.Customers, after.Customers)
	assert.Equal(t, before.BankConnection, after.BankConnection)

	// the receiver itself is not modified
	afterJSON, err := json.Marshal(before)
	require.NoError(t, err)
	assert.JSONEq(t, string(beforeJSON), string(afterJSON))
}

func TestDraft_WithSection_CopiesSlices(t *testing.T) {
	customers := []Customer{{CustomerName: "A"}}
	d, err := NewDraft().WithSection(SectionCustomers, customers)
	require.NoError(t, err)

	customers[0].CustomerName = "mutated"
	assert.Equal(t, "A", d.Customers[0].CustomerName)
}

func TestDraft_WithSection_RejectsWrongType(t *testing.T) {
	d := sampleDraft()
	out, err := d.WithSection(SectionCustomers, BusinessProfile{})
	assert.Error(t, err)
	assert.Equal(t, d, out)

	_, err = d.WithSection(SectionKey("nope"), nil)
	assert.Error(t, err)
}

func TestDraft_WithSection_Agreement(t *testing.T) {
	d, err := NewDraft().WithSection(SectionFactoringAgreement, &FactoringAgreement{Agreed: true, Signature: "J. Doe"})
	require.NoError(t, err)
	require.NotNil(t, d.FactoringAgreement)
	assert.True(t, d.FactoringAgreement.Agreed)

	d, err = d.WithSection(SectionFactoringAgreement, (*FactoringAgreement)(nil))
	require.NoError(t, err)
	assert.Nil(t, d.FactoringAgreement)
}

func TestDraft_HasOnboardingData(t *testing.T) {
	assert.False(t, NewDraft().HasOnboardingData())
	assert.True(t, sampleDraft().HasOnboardingData())

	onlyBank := NewDraft()
	onlyBank.BankConnection = BankConnection{BankName: "Manual Bank", IsManual: true}
	assert.True(t, onlyBank.HasOnboardingData())

	// address fields alone are not onboarding data
	addressOnly := NewDraft()
	addressOnly.BusinessProfile.City = "Austin"
	assert.False(t, addressOnly.HasOnboardingData())
}

func TestDraft_IsComplete(t *testing.T) {
	d := sampleDraft()
	assert.False(t, d.IsComplete())

	d.FactoringAgreement = &FactoringAgreement{Agreed: true, Signature: "Jane Doe"}
	assert.True(t, d.IsComplete())
}

func TestParseSectionKey(t *testing.T) {
	k, ok := ParseSectionKey("bankConnection")
	assert.True(t, ok)
	assert.Equal(t, SectionBankConnection, k)

	_, ok = ParseSectionKey("applicationStatus")
	assert.False(t, ok)
}

func TestApplicationStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusUnderReview))
	assert.False(t, StatusPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusUnderReview.CanTransitionTo(StatusApproved))
	assert.True(t, StatusUnderReview.CanTransitionTo(StatusRejected))
	assert.False(t, StatusApproved.CanTransitionTo(StatusRejected))
	assert.False(t, StatusRejected.CanTransitionTo(StatusUnderReview))
	assert.True(t, StatusApproved.IsFinal())
}
