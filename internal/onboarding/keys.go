package onboarding

import "strings"

// Storage keys are namespaced per applicant: onboarding:<userEmail>:<name>.
const (
	keyOnboardingData     = "onboardingData"
	keyFactoringAgreement = "factoringAgreement"
	keyProgress           = "progress"
	keyApplicationStatus  = "applicationStatus"
	keySubmittedAt        = "submittedAt"
	keyApplication        = "application"
)

func userKey(userEmail, name string) string {
	return "onboarding:" + strings.ToLower(strings.TrimSpace(userEmail)) + ":" + name
}
