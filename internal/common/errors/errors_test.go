package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	stdErr := NewApplicationValidationFailedError("2 validation errors").
		WithMetadata("fieldErrors", map[string]string{"ein": "invalid"})

	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "APPLICATION_VALIDATION_FAILED", bpmnErr.Code)
	assert.Equal(t, 0, bpmnErr.Retries)
	assert.False(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "APPLICATION_VALIDATION_FAILED", vars["errorCode"])
	assert.Equal(t, "APPLICATION_VALIDATION_FAILED", vars["originalErrorCode"])
	assert.Equal(t, map[string]string{"ein": "invalid"}, vars["fieldErrors"])
}

func TestConvertToBPMNError_RetryableCodes(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewIndexFailedError("applications", fmt.Errorf("503")))
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
}

func TestAsStandardError_Unwraps(t *testing.T) {
	wrapped := fmt.Errorf("connect: %w", NewBankConnectFailedError("chase", "timeout"))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeBankConnectFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)

	_, ok = AsStandardError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeUnauthenticated, http.StatusUnauthorized},
		{ErrCodeInvalidSection, http.StatusBadRequest},
		{ErrCodeSectionValidationFailed, http.StatusUnprocessableEntity},
		{ErrCodeInvoiceRejected, http.StatusUnprocessableEntity},
		{ErrCodeApplicationMissing, http.StatusNotFound},
		{ErrCodeBankConnectFailed, http.StatusBadGateway},
		{ErrCodeSubmissionFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "BANK", GetErrorCategory(ErrCodeBankConnectFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDraftPersistFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvoiceRejected))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeUnauthenticated))
}
