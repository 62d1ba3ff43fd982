package models

import "time"

type ApplicationStatus string

const (
	// StatusPending is what an applicant sees before anything is submitted.
	StatusPending     ApplicationStatus = "pending"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
)

func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	switch st := ApplicationStatus(s); st {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected:
		return st, true
	}
	return "", false
}

// IsFinal reports whether no review action may move the status further.
func (s ApplicationStatus) IsFinal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransitionTo enforces pending -> under_review -> approved | rejected.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusUnderReview
	case StatusUnderReview:
		return next == StatusApproved || next == StatusRejected
	}
	return false
}

// Application is the frozen snapshot of a Draft handed to review. Only the
// review fields change after submission.
type Application struct {
	ID          string            `json:"id"`
	UserEmail   string            `json:"userEmail"`
	Draft       Draft             `json:"draft"`
	Status      ApplicationStatus `json:"status"`
	SubmittedAt time.Time         `json:"submittedAt"`
	ReviewedBy  string            `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time        `json:"reviewedAt,omitempty"`
	Notes       string            `json:"notes,omitempty"`
}

// ReviewDecision is the set of fields the review subsystem may change.
type ReviewDecision struct {
	// ApplicationID, when set, pins the decision to one submission.
	ApplicationID string            `json:"applicationId,omitempty"`
	Status        ApplicationStatus `json:"status"`
	ReviewedBy    string            `json:"reviewedBy"`
	Notes         string            `json:"notes,omitempty"`
	ReviewedAt    time.Time         `json:"reviewedAt"`
}
