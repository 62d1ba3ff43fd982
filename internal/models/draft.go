package models

import "fmt"

// SectionKey names one top-level key of a Draft.
type SectionKey string

const (
	SectionBusinessProfile    SectionKey = "businessProfile"
	SectionCustomers          SectionKey = "customers"
	SectionBankConnection     SectionKey = "bankConnection"
	SectionInvoices           SectionKey = "invoices"
	SectionFactoringAgreement SectionKey = "factoringAgreement"
)

// Sections lists every section in wizard order.
var Sections = []SectionKey{
	SectionBusinessProfile,
	SectionCustomers,
	SectionBankConnection,
	SectionInvoices,
	SectionFactoringAgreement,
}

// ParseSectionKey returns the SectionKey for s or false when it is unknown.
func ParseSectionKey(s string) (SectionKey, bool) {
	for _, k := range Sections {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

type BusinessType string

const (
	BusinessTypeLLC            BusinessType = "llc"
	BusinessTypeCorporation    BusinessType = "corporation"
	BusinessTypeSoleProprietor BusinessType = "sole_proprietorship"
	BusinessTypePartnership    BusinessType = "partnership"
	BusinessTypeNonProfit      BusinessType = "non_profit"
)

var BusinessTypes = []BusinessType{
	BusinessTypeLLC,
	BusinessTypeCorporation,
	BusinessTypeSoleProprietor,
	BusinessTypePartnership,
	BusinessTypeNonProfit,
}

type Industry string

const (
	IndustryManufacturing Industry = "manufacturing"
	IndustryWholesale     Industry = "wholesale"
	IndustryRetail        Industry = "retail"
	IndustryConstruction  Industry = "construction"
	IndustryTransport     Industry = "transportation"
	IndustryStaffing      Industry = "staffing"
	IndustryHealthcare    Industry = "healthcare"
	IndustryTechnology    Industry = "technology"
	IndustryServices      Industry = "professional_services"
	IndustryOther         Industry = "other"
)

var Industries = []Industry{
	IndustryManufacturing,
	IndustryWholesale,
	IndustryRetail,
	IndustryConstruction,
	IndustryTransport,
	IndustryStaffing,
	IndustryHealthcare,
	IndustryTechnology,
	IndustryServices,
	IndustryOther,
}

type BusinessProfile struct {
	BusinessName string       `json:"businessName"`
	BusinessType BusinessType `json:"businessType"`
	Industry     Industry     `json:"industry"`
	EIN          string       `json:"ein"`
	State        string       `json:"state"`
	City         string       `json:"city"`
	Street       string       `json:"street"`
	Building     string       `json:"building"`
	Zip          string       `json:"zip"`
}

type Customer struct {
	CustomerName   string `json:"customerName"`
	ContactPerson  string `json:"contactPerson"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	BillingAddress string `json:"billingAddress"`
}

// BankConnection is absent while its zero value.
type BankConnection struct {
	BankID   string `json:"bankId,omitempty"`
	BankName string `json:"bankName,omitempty"`
	IsManual bool   `json:"isManual"`
}

func (b BankConnection) IsConnected() bool {
	return b.BankID != "" || b.BankName != ""
}

// Invoice is upload metadata only; file content is never part of a Draft.
type Invoice struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type FactoringAgreement struct {
	Agreed           bool   `json:"agreed"`
	Signature        string `json:"signature"`
	SignedAt         string `json:"signedAt,omitempty"`
	AgreementVersion string `json:"agreementVersion,omitempty"`
}

// Draft is the applicant's in-progress onboarding data. It is a value: every
// mutation goes through WithSection, which replaces exactly one section.
type Draft struct {
	BusinessProfile    BusinessProfile     `json:"businessProfile"`
	Customers          []Customer          `json:"customers"`
	BankConnection     BankConnection      `json:"bankConnection"`
	Invoices           []Invoice           `json:"invoices"`
	FactoringAgreement *FactoringAgreement `json:"factoringAgreement,omitempty"`
}

// NewDraft returns an all-empty Draft with non-nil lists.
func NewDraft() Draft {
	return Draft{
		Customers: []Customer{},
		Invoices:  []Invoice{},
	}
}

// Clone returns a deep copy.
func (d Draft) Clone() Draft {
	out := d
	out.Customers = append([]Customer{}, d.Customers...)
	out.Invoices = append([]Invoice{}, d.Invoices...)
	if d.FactoringAgreement != nil {
		fa := *d.FactoringAgreement
		out.FactoringAgreement = &fa
	}
	return out
}

// Normalize replaces nil lists with empty ones so a stored and a fresh draft
// compare equal.
func (d Draft) Normalize() Draft {
	if d.Customers == nil {
		d.Customers = []Customer{}
	}
	if d.Invoices == nil {
		d.Invoices = []Invoice{}
	}
	return d
}

// WithSection returns a copy of d with section key replaced by value. value
// must be the section's type (or a pointer to it); other sections are untouched.
func (d Draft) WithSection(key SectionKey, value interface{}) (Draft, error) {
	out := d.Clone()
	switch key {
	case SectionBusinessProfile:
		switch v := value.(type) {
		case BusinessProfile:
			out.BusinessProfile = v
		case *BusinessProfile:
			out.BusinessProfile = derefOrZero(v)
		default:
			return d, sectionTypeError(key, value)
		}
	case SectionCustomers:
		v, ok := value.([]Customer)
		if !ok {
			return d, sectionTypeError(key, value)
		}
		out.Customers = append([]Customer{}, v...)
	case SectionBankConnection:
		switch v := value.(type) {
		case BankConnection:
			out.BankConnection = v
		case *BankConnection:
			out.BankConnection = derefOrZero(v)
		default:
			return d, sectionTypeError(key, value)
		}
	case SectionInvoices:
		v, ok := value.([]Invoice)
		if !ok {
			return d, sectionTypeError(key, value)
		}
		out.Invoices = append([]Invoice{}, v...)
	case SectionFactoringAgreement:
		switch v := value.(type) {
		case FactoringAgreement:
			out.FactoringAgreement = &v
		case *FactoringAgreement:
			if v == nil {
				out.FactoringAgreement = nil
			} else {
				fa := *v
				out.FactoringAgreement = &fa
			}
		default:
			return d, sectionTypeError(key, value)
		}
	default:
		return d, fmt.Errorf("unknown section %q", key)
	}
	return out.Normalize(), nil
}

// Section returns the current value of one section.
func (d Draft) Section(key SectionKey) (interface{}, bool) {
	switch key {
	case SectionBusinessProfile:
		return d.BusinessProfile, true
	case SectionCustomers:
		return append([]Customer{}, d.Customers...), true
	case SectionBankConnection:
		return d.BankConnection, true
	case SectionInvoices:
		return append([]Invoice{}, d.Invoices...), true
	case SectionFactoringAgreement:
		if d.FactoringAgreement == nil {
			return nil, true
		}
		return *d.FactoringAgreement, true
	}
	return nil, false
}

// HasOnboardingData reports whether the applicant has entered anything worth
// showing on the dashboard: a business name, a customer, a bank connection or
// an invoice.
func (d Draft) HasOnboardingData() bool {
	return d.BusinessProfile.BusinessName != "" ||
		len(d.Customers) > 0 ||
		d.BankConnection.IsConnected() ||
		len(d.Invoices) > 0
}

// IsComplete reports whether the draft carries everything a finished wizard
// run produces: a named business, a bank connection and a signed agreement.
func (d Draft) IsComplete() bool {
	return d.BusinessProfile.BusinessName != "" &&
		d.BankConnection.IsConnected() &&
		d.FactoringAgreement != nil &&
		d.FactoringAgreement.Agreed &&
		d.FactoringAgreement.Signature != ""
}

func derefOrZero[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func sectionTypeError(key SectionKey, value interface{}) error {
	return fmt.Errorf("section %q does not accept %T", key, value)
}
