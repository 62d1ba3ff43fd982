package api

import (
	"encoding/json"
	"io"
	"net/http"

	"onboarding-service/internal/common/errors"
	"onboarding-service/internal/common/logger"
	"onboarding-service/internal/common/validation"
)

const maxJSONBody = 1 << 20

type errorBody struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	Retryable   bool              `json:"retryable"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

func writeJSON(log logger.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

// writeError renders err as {"error": {...}}. Errors that are not
// StandardErrors are reported as internal without their text.
func writeError(log logger.Logger, w http.ResponseWriter, err error) {
	stdErr, ok := errors.AsStandardError(err)
	if !ok {
		log.Error("unhandled request error", map[string]interface{}{"error": err.Error()})
		writeJSON(log, w, http.StatusInternalServerError, map[string]errorBody{
			"error": {Code: "INTERNAL", Message: "Internal server error"},
		})
		return
	}

	status := errors.HTTPStatus(stdErr.Code)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", map[string]interface{}{
			"code":    string(stdErr.Code),
			"details": stdErr.Details,
		})
	}

	body := errorBody{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
	}
	if fe, ok := stdErr.Metadata["fieldErrors"].(map[string]string); ok {
		body.FieldErrors = fe
	}
	writeJSON(log, w, status, map[string]errorBody{"error": body})
}

// readBody reads a JSON body and checks it against schema. An empty body
// is returned as nil without error.
func readBody(w http.ResponseWriter, r *http.Request, schema *validation.Schema) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return nil, errors.NewInvalidPayloadError(err.Error())
	}
	if len(raw) == 0 {
		return nil, nil
	}
	if fe := schema.Validate(raw); fe.HasErrors() {
		return nil, errors.NewInvalidPayloadError("body does not match "+schema.Name()).
			WithMetadata("fieldErrors", map[string]string(fe))
	}
	return raw, nil
}
