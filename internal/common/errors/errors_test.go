package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// BPMN Conversion Tests
// ==========================

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"business error", NewUserNotFoundError("u1"), "USER_NOT_FOUND", 0},
		{"retryable infra error", NewQueryExecutionFailedError("user_matches", fmt.Errorf("boom")), "QUERY_EXECUTION_FAILED", 3},
		{"genai timeout shares generation code", NewGenAITimeoutError(), "RECIPE_GENERATION_FAILED", 1},
		{"unmapped code passes through", newError(ErrCodeInternal, "x", "", true), "INTERNAL_ERROR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	stdErr := NewQueryExecutionFailedError("conversation", fmt.Errorf("boom")).
		WithMetadata("queryType", "conversation")

	vars := ConvertToBPMNError(stdErr).ToErrorVariables()
	assert.Equal(t, "conversation", vars["queryType"])
	assert.Equal(t, "QUERY_EXECUTION_FAILED", vars["errorCode"])
	assert.Equal(t, true, vars["retryable"])
}

func TestNonRetryableErrorGetsNoRetries(t *testing.T) {
	stdErr := NewQueryExecutionFailedError("user_profile", fmt.Errorf("boom"))
	stdErr.Retryable = false

	assert.Zero(t, ConvertToBPMNError(stdErr).Retries)
}

// ==========================
// Utility Tests
// ==========================

func TestAsStandardError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("record swipe: %w", NewReceiverNotFoundError("u9"))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeReceiverNotFound, stdErr.Code)

	_, ok = AsStandardError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeDatabaseInsertFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeSearchTimeout))
	assert.False(t, IsRetryableErrorCode(ErrCodeFavoriteAlreadyExists))
	assert.False(t, IsRetryableErrorCode(ErrCodeUserNotFound))
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeUserNotFound:            "PROFILE",
		ErrCodeSwipeRecordFailed:       "MATCHING",
		ErrCodeRecipeParseFailed:       "RECIPE",
		ErrCodeNutritionLookupFailed:   "NUTRITION",
		ErrCodeQueryTimeout:            "DATABASE",
		ErrCodeIndexNotFound:           "SEARCH",
		ErrCodeNotificationSendFailed:  "NOTIFICATION",
		ErrCodeMessageValidationFailed: "CHAT",
		ErrCodeInputValidationFailed:   "VALIDATION",
		ErrCodeUnsupportedOperation:    "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}
