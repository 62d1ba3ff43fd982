// internal/workers/review/apply-review-decision/models.go
package applyreviewdecision

type Input struct {
	ApplicationID string `json:"applicationId"`
	UserEmail     string `json:"userEmail"`
	Decision      string `json:"decision"`
	ReviewedBy    string `json:"reviewedBy"`
	Notes         string `json:"notes,omitempty"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	ReviewedBy    string `json:"reviewedBy"`
	ReviewedAt    string `json:"reviewedAt"`
	Superseded    bool   `json:"superseded"`
}
