// internal/workers/review/send-notification/templates.go
package sendnotification

import (
	"fmt"
	"strings"
)

func applicantMessage(input *Input) (message, error) {
	name := input.BusinessName
	if name == "" {
		name = "your business"
	}

	switch input.NotificationType {
	case NotificationSubmitted:
		return message{
			Subject: "We received your onboarding application",
			Body: fmt.Sprintf(
				"Thank you for submitting the onboarding application for %s.\n\n"+
					"Our team is reviewing it and will contact you with a decision.\n\n"+
					"Reference: %s\n",
				name, input.ApplicationID),
		}, nil
	case NotificationDecision:
		var b strings.Builder
		fmt.Fprintf(&b, "The onboarding application for %s has been %s.\n\n", name, humanStatus(input.Status))
		if input.Notes != "" {
			fmt.Fprintf(&b, "Reviewer notes: %s\n\n", input.Notes)
		}
		fmt.Fprintf(&b, "Reference: %s\n", input.ApplicationID)
		return message{
			Subject: fmt.Sprintf("Your onboarding application was %s", humanStatus(input.Status)),
			Body:    b.String(),
		}, nil
	}
	return message{}, fmt.Errorf("unknown notification type: %s", input.NotificationType)
}

func staffMessage(input *Input) message {
	return message{
		Subject: fmt.Sprintf("Onboarding application %s", input.NotificationType),
		Body: fmt.Sprintf("application=%s business=%q applicant=%s status=%s",
			input.ApplicationID, input.BusinessName, input.UserEmail, input.Status),
	}
}

func humanStatus(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
