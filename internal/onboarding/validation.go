package onboarding

import (
	"fmt"
	"path/filepath"
	"strings"

	"onboarding-service/internal/common/validation"
	"onboarding-service/internal/models"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxInvoiceSize is the upload ceiling when none is configured.
const DefaultMaxInvoiceSize int64 = 10 * 1024 * 1024

// invoiceTypes maps each accepted MIME type to its file extensions.
var invoiceTypes = map[string][]string{
	"application/pdf":    {".pdf"},
	"application/msword": {".doc"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {".docx"},
	"image/png":  {".png"},
	"image/jpeg": {".jpg", ".jpeg"},
}

// ValidateBusinessProfile requires a name, known enum values and a
// hyphenated EIN.
func ValidateBusinessProfile(p models.BusinessProfile) validation.FieldErrors {
	fe := validation.FieldErrors{}
	if validation.IsBlank(p.BusinessName) {
		fe.Add("businessName", "Business name is required")
	}
	if !validation.OneOf(p.BusinessType, models.BusinessTypes) {
		fe.Add("businessType", "Select a business type")
	}
	if !validation.OneOf(p.Industry, models.Industries) {
		fe.Add("industry", "Select an industry")
	}
	switch {
	case validation.IsBlank(p.EIN):
		fe.Add("ein", "EIN is required")
	case !validation.IsValidEIN(p.EIN):
		fe.Add("ein", "EIN must be in the format 12-3456789")
	}
	return fe
}

// ValidateCustomers checks every entry. An empty list is valid.
func ValidateCustomers(customers []models.Customer) validation.FieldErrors {
	fe := validation.FieldErrors{}
	for i, c := range customers {
		prefix := fmt.Sprintf("customers[%d]", i)
		if validation.IsBlank(c.CustomerName) {
			fe.Add(prefix+".customerName", "Customer name is required")
		}
		if validation.IsBlank(c.ContactPerson) {
			fe.Add(prefix+".contactPerson", "Contact person is required")
		}
		if !validation.IsValidEmail(c.Email) {
			fe.Add(prefix+".email", "Enter a valid email address")
		}
		if c.Phone != "" && !validation.IsValidPhone(c.Phone) {
			fe.Add(prefix+".phone", "Phone may contain only digits, spaces, parentheses and dashes")
		}
	}
	return fe
}

// ManualBankDetails is the manual-entry bank form. Only the bank name is
// retained in the draft.
type ManualBankDetails struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
	AccountType   string `json:"accountType"`
}

// BankConnectRequest selects a partner bank or carries manual details.
type BankConnectRequest struct {
	BankID string             `json:"bankId,omitempty"`
	Manual *ManualBankDetails `json:"manual,omitempty"`
}

// ValidateBankConnectRequest checks the form before a connection attempt.
func ValidateBankConnectRequest(req BankConnectRequest) validation.FieldErrors {
	fe := validation.FieldErrors{}
	if req.Manual != nil {
		m := req.Manual
		if validation.IsBlank(m.BankName) {
			fe.Add("manual.bankName", "Bank name is required")
		}
		if validation.IsBlank(m.AccountNumber) {
			fe.Add("manual.accountNumber", "Account number is required")
		}
		if validation.IsBlank(m.RoutingNumber) {
			fe.Add("manual.routingNumber", "Routing number is required")
		}
		if validation.IsBlank(m.AccountType) {
			fe.Add("manual.accountType", "Account type is required")
		}
		return fe
	}
	if validation.IsBlank(req.BankID) {
		fe.Add("bankId", "Select a bank or enter details manually")
	} else if _, ok := FindBankPartner(req.BankID); !ok {
		fe.Add("bankId", "Unknown bank")
	}
	return fe
}

// ValidateBankConnect checks the bankConnection section before advancing: a
// connected partner bank or a manual entry with a bank name.
func ValidateBankConnect(conn models.BankConnection) validation.FieldErrors {
	fe := validation.FieldErrors{}
	if conn.IsManual {
		if validation.IsBlank(conn.BankName) {
			fe.Add("bankName", "Bank name is required")
		}
		return fe
	}
	if _, ok := FindBankPartner(conn.BankID); !ok {
		fe.Add("bankId", "Connect a bank to continue")
	}
	return fe
}

// InvoiceUpload describes one uploaded file. Head holds the leading bytes
// used to detect the type when the client did not declare one.
type InvoiceUpload struct {
	Name        string
	Size        int64
	ContentType string
	Head        []byte
}

// DetectInvoiceType returns the effective MIME type of an upload.
func DetectInvoiceType(u InvoiceUpload) string {
	declared := strings.ToLower(strings.TrimSpace(u.ContentType))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if len(u.Head) == 0 {
		return declared
	}
	detected := mimetype.Detect(u.Head)
	for allowed := range invoiceTypes {
		if detected.Is(allowed) {
			return allowed
		}
	}
	return detected.String()
}

// ValidateInvoiceUpload enforces the size ceiling and the accepted types.
func ValidateInvoiceUpload(u InvoiceUpload, maxSize int64) validation.FieldErrors {
	if maxSize <= 0 {
		maxSize = DefaultMaxInvoiceSize
	}
	fe := validation.FieldErrors{}
	if validation.IsBlank(u.Name) {
		fe.Add("name", "File name is required")
	}
	if u.Size < 0 {
		fe.Add("size", "File size is invalid")
	} else if u.Size > maxSize {
		fe.Add("size", fmt.Sprintf("File exceeds the %d MB limit", maxSize/(1024*1024)))
	}
	if _, ok := invoiceTypes[DetectInvoiceType(u)]; !ok {
		fe.Add("type", "Only PDF, DOC, DOCX, PNG and JPG files are accepted")
	}
	return fe
}

// ValidateInvoices checks retained invoice metadata, where only the name
// and size survive.
func ValidateInvoices(invoices []models.Invoice, maxSize int64) validation.FieldErrors {
	if maxSize <= 0 {
		maxSize = DefaultMaxInvoiceSize
	}
	fe := validation.FieldErrors{}
	for i, inv := range invoices {
		prefix := fmt.Sprintf("invoices[%d]", i)
		if validation.IsBlank(inv.Name) {
			fe.Add(prefix+".name", "File name is required")
		} else if !hasInvoiceExtension(inv.Name) {
			fe.Add(prefix+".name", "Only PDF, DOC, DOCX, PNG and JPG files are accepted")
		}
		if inv.Size < 0 || inv.Size > maxSize {
			fe.Add(prefix+".size", "File size is out of range")
		}
	}
	return fe
}

func hasInvoiceExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, exts := range invoiceTypes {
		for _, e := range exts {
			if e == ext {
				return true
			}
		}
	}
	return false
}

// ValidateAgreement requires the checkbox and a signature.
func ValidateAgreement(fa models.FactoringAgreement) validation.FieldErrors {
	fe := validation.FieldErrors{}
	if !fa.Agreed {
		fe.Add("agreed", "You must accept the factoring agreement")
	}
	if validation.IsBlank(fa.Signature) {
		fe.Add("signature", "Signature is required")
	}
	return fe
}

// ValidateSection dispatches to the validator for key.
func ValidateSection(key models.SectionKey, value interface{}, maxInvoiceSize int64) (validation.FieldErrors, bool) {
	switch key {
	case models.SectionBusinessProfile:
		v, ok := value.(models.BusinessProfile)
		if !ok {
			return nil, false
		}
		return ValidateBusinessProfile(v), true
	case models.SectionCustomers:
		v, ok := value.([]models.Customer)
		if !ok {
			return nil, false
		}
		return ValidateCustomers(v), true
	case models.SectionBankConnection:
		v, ok := value.(models.BankConnection)
		if !ok {
			return nil, false
		}
		return ValidateBankConnect(v), true
	case models.SectionInvoices:
		v, ok := value.([]models.Invoice)
		if !ok {
			return nil, false
		}
		return ValidateInvoices(v, maxInvoiceSize), true
	case models.SectionFactoringAgreement:
		switch v := value.(type) {
		case nil:
			return ValidateAgreement(models.FactoringAgreement{}), true
		case models.FactoringAgreement:
			return ValidateAgreement(v), true
		case *models.FactoringAgreement:
			if v == nil {
				return ValidateAgreement(models.FactoringAgreement{}), true
			}
			return ValidateAgreement(*v), true
		}
	}
	return nil, false
}

// ValidateDraft runs every section validator over a full draft, as the
// review pipeline does on the submitted snapshot. Field paths are prefixed
// with the section key.
func ValidateDraft(d models.Draft, maxInvoiceSize int64) validation.FieldErrors {
	fe := validation.FieldErrors{}
	fe.Merge(string(models.SectionBusinessProfile), ValidateBusinessProfile(d.BusinessProfile))
	fe.Merge("", ValidateCustomers(d.Customers))
	fe.Merge(string(models.SectionBankConnection), ValidateBankConnect(d.BankConnection))
	fe.Merge("", ValidateInvoices(d.Invoices, maxInvoiceSize))
	if d.FactoringAgreement == nil {
		fe.Add(string(models.SectionFactoringAgreement), "Factoring agreement is not signed")
	} else {
		fe.Merge(string(models.SectionFactoringAgreement), ValidateAgreement(*d.FactoringAgreement))
	}
	return fe
}
