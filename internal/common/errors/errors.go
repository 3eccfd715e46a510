// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Matching / profile errors
const (
	ErrCodeUserNotFound             ErrorCode = "USER_NOT_FOUND"
	ErrCodeProfileValidationFailed  ErrorCode = "PROFILE_VALIDATION_FAILED"
	ErrCodeSwipeRecordFailed        ErrorCode = "SWIPE_RECORD_FAILED"
	ErrCodeCompatibilityScoreFailed ErrorCode = "COMPATIBILITY_SCORE_FAILED"
	ErrCodeMessageValidationFailed  ErrorCode = "MESSAGE_VALIDATION_FAILED"
	ErrCodeReceiverNotFound         ErrorCode = "RECEIVER_NOT_FOUND"
	ErrCodeFavoriteAlreadyExists    ErrorCode = "FAVORITE_ALREADY_EXISTS"
	ErrCodeRecipeGenerationFailed   ErrorCode = "RECIPE_GENERATION_FAILED"
	ErrCodeRecipeParseFailed        ErrorCode = "RECIPE_PARSE_FAILED"
	ErrCodeNutritionLookupFailed    ErrorCode = "NUTRITION_LOOKUP_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInputValidationFailed    ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeUnsupportedOperation     ErrorCode = "UNSUPPORTED_OPERATION"
	ErrCodeRealtimePublishFailed    ErrorCode = "REALTIME_PUBLISH_FAILED"
	ErrCodeGenAITimeout             ErrorCode = "GENAI_TIMEOUT"
	ErrCodeRankingFailed            ErrorCode = "RANKING_FAILED"
)

// Data access errors
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeInvalidQueryType         ErrorCode = "INVALID_QUERY_TYPE"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair that ends up in the BPMN error variables.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewUserNotFoundError(userID string) *StandardError {
	return newError(ErrCodeUserNotFound, "User not found", fmt.Sprintf("userId: %s", userID), false)
}

func NewProfileValidationFailedError(details string) *StandardError {
	return newError(ErrCodeProfileValidationFailed, "Profile update validation failed", details, false)
}

func NewSwipeRecordFailedError(err error) *StandardError {
	return newError(ErrCodeSwipeRecordFailed, "Failed to record swipe", err.Error(), true)
}

// NewMessageValidationFailedError is returned when content or receiverId is missing.
func NewMessageValidationFailedError(details string) *StandardError {
	return newError(ErrCodeMessageValidationFailed, "Content and receiverId are required", details, false)
}

func NewReceiverNotFoundError(receiverID string) *StandardError {
	return newError(ErrCodeReceiverNotFound, "Receiver not found", fmt.Sprintf("receiverId: %s", receiverID), false)
}

func NewFavoriteAlreadyExistsError(recipeID string) *StandardError {
	return newError(ErrCodeFavoriteAlreadyExists, "Recipe already in favorites", fmt.Sprintf("recipeId: %s", recipeID), false)
}

func NewRecipeGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeRecipeGenerationFailed, "Failed to generate recipes", err.Error(), true)
}

func NewRecipeParseFailedError(err error) *StandardError {
	return newError(ErrCodeRecipeParseFailed, "Failed to parse generated recipes", err.Error(), true)
}

func NewGenAITimeoutError() *StandardError {
	return newError(ErrCodeGenAITimeout, "Recipe generation timeout", "completion call exceeded deadline", true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

func NewInputValidationFailedError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Job input validation failed", details, false)
}

func NewUnsupportedOperationError(operation string) *StandardError {
	return newError(ErrCodeUnsupportedOperation, "Unsupported operation", fmt.Sprintf("operation: %s", operation), false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewInvalidQueryTypeError(queryType string) *StandardError {
	return newError(ErrCodeInvalidQueryType, "Unsupported query type", fmt.Sprintf("queryType: %s", queryType), false)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewSearchTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError("RESOURCE_NOT_FOUND", fmt.Sprintf("Resource not found in %s", service), details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes modelled in the BPMN diagrams.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUserNotFound:                  "USER_NOT_FOUND",
	ErrCodeProfileValidationFailed:       "PROFILE_VALIDATION_FAILED",
	ErrCodeSwipeRecordFailed:             "SWIPE_RECORD_FAILED",
	ErrCodeCompatibilityScoreFailed:      "COMPATIBILITY_SCORE_FAILED",
	ErrCodeRankingFailed:                 "RANKING_FAILED",
	ErrCodeMessageValidationFailed:       "MESSAGE_VALIDATION_FAILED",
	ErrCodeReceiverNotFound:              "RECEIVER_NOT_FOUND",
	ErrCodeFavoriteAlreadyExists:         "FAVORITE_ALREADY_EXISTS",
	ErrCodeRecipeGenerationFailed:        "RECIPE_GENERATION_FAILED",
	ErrCodeRecipeParseFailed:             "RECIPE_PARSE_FAILED",
	ErrCodeGenAITimeout:                  "RECIPE_GENERATION_FAILED",
	ErrCodeNutritionLookupFailed:         "NUTRITION_LOOKUP_FAILED",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
	ErrCodeRealtimePublishFailed:         "NOTIFICATION_SEND_FAILED",
	ErrCodeInputValidationFailed:         "INPUT_VALIDATION_FAILED",
	ErrCodeUnsupportedOperation:          "UNSUPPORTED_OPERATION",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeInvalidQueryType:              "INVALID_QUERY_TYPE",
	ErrCodeDatabaseInsertFailed:          "DATABASE_INSERT_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:                 "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeRealtimePublishFailed,
		ErrCodeSwipeRecordFailed,
		ErrCodeCompatibilityScoreFailed,
		ErrCodeRankingFailed,
		ErrCodeRecipeGenerationFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeNutritionLookupFailed,
		ErrCodeRecipeParseFailed:
		return 2

	case ErrCodeGenAITimeout:
		return 1

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError unwraps err looking for a *StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "USER") || strings.Contains(codeStr, "PROFILE") || strings.Contains(codeStr, "RECEIVER"):
		return "PROFILE"
	case strings.Contains(codeStr, "SWIPE") || strings.Contains(codeStr, "COMPATIBILITY") || strings.Contains(codeStr, "RANKING"):
		return "MATCHING"
	case strings.Contains(codeStr, "RECIPE") || strings.Contains(codeStr, "FAVORITE") || strings.Contains(codeStr, "GENAI"):
		return "RECIPE"
	case strings.Contains(codeStr, "NUTRITION"):
		return "NUTRITION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "REALTIME"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "MESSAGE"):
		return "CHAT"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
