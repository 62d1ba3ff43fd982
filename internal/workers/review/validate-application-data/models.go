// internal/workers/review/validate-application-data/models.go
package validateapplicationdata

type Input struct {
	ApplicationID string `json:"applicationId"`
	UserEmail     string `json:"userEmail"`
}

type Output struct {
	ApplicationID string            `json:"applicationId"`
	IsValid       bool              `json:"isValid"`
	Superseded    bool              `json:"superseded"`
	FieldErrors   map[string]string `json:"fieldErrors"`
}
