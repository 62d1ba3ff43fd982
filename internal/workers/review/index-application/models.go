// internal/workers/review/index-application/models.go
package indexapplication

import (
	"time"

	"onboarding-service/internal/models"
)

type Input struct {
	ApplicationID string `json:"applicationId"`
	UserEmail     string `json:"userEmail"`
}

type Output struct {
	Indexed    bool   `json:"indexed"`
	Index      string `json:"index"`
	DocumentID string `json:"documentId"`
	Result     string `json:"result"`
	Superseded bool   `json:"superseded"`
}

// ApplicationDocument is the searchable projection read by the review console.
type ApplicationDocument struct {
	ApplicationID string `json:"applicationId"`
	UserEmail     string `json:"userEmail"`
	BusinessName  string `json:"businessName"`
	BusinessType  string `json:"businessType,omitempty"`
	Industry      string `json:"industry,omitempty"`
	State         string `json:"state,omitempty"`
	BankName      string `json:"bankName,omitempty"`
	CustomerCount int    `json:"customerCount"`
	InvoiceCount  int    `json:"invoiceCount"`
	Status        string `json:"status"`
	SubmittedAt   string `json:"submittedAt"`
}

func NewApplicationDocument(app *models.Application) ApplicationDocument {
	bp := app.Draft.BusinessProfile
	return ApplicationDocument{
		ApplicationID: app.ID,
		UserEmail:     app.UserEmail,
		BusinessName:  bp.BusinessName,
		BusinessType:  string(bp.BusinessType),
		Industry:      string(bp.Industry),
		State:         bp.State,
		BankName:      app.Draft.BankConnection.BankName,
		CustomerCount: len(app.Draft.Customers),
		InvoiceCount:  len(app.Draft.Invoices),
		Status:        string(app.Status),
		SubmittedAt:   app.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

type indexResponse struct {
	ID     string `json:"_id"`
	Result string `json:"result"`
}
