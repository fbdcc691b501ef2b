// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeQueryValidationFailed ErrorCode = "QUERY_VALIDATION_FAILED"
	ErrCodeInvalidQueryType      ErrorCode = "INVALID_QUERY_TYPE"

	ErrCodeDecompositionFailed ErrorCode = "DECOMPOSITION_FAILED"
	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMResponseInvalid  ErrorCode = "LLM_RESPONSE_INVALID"

	ErrCodeRetrievalFailed     ErrorCode = "RETRIEVAL_FAILED"
	ErrCodeAuxiliaryJoinFailed ErrorCode = "AUXILIARY_JOIN_FAILED"
	ErrCodeVectorSearchFailed  ErrorCode = "VECTOR_SEARCH_FAILED"
	ErrCodeEmbeddingFailed     ErrorCode = "EMBEDDING_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeWorkflowUnavailable ErrorCode = "WORKFLOW_UNAVAILABLE"
	ErrCodeWorkflowTimeout     ErrorCode = "WORKFLOW_TIMEOUT"
	ErrCodeWorkflowRejected    ErrorCode = "WORKFLOW_REJECTED"

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

// IsClientError reports whether the error was caused by caller input.
func (e *StandardError) IsClientError() bool {
	return GetErrorCategory(e.Code) == "VALIDATION"
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

// NewQueryValidationFailedError rejects missing or malformed query input.
func NewQueryValidationFailedError(details string) *StandardError {
	return newError(ErrCodeQueryValidationFailed, "Search query validation failed", details, false)
}

// NewInvalidQueryTypeError creates a non-retryable invalid query type error.
func NewInvalidQueryTypeError(queryType string) *StandardError {
	return newError(ErrCodeInvalidQueryType, "Unsupported query type", fmt.Sprintf("queryType: %s", queryType), false)
}

// NewDecompositionFailedError is recovered locally by falling back.
func NewDecompositionFailedError(err error) *StandardError {
	return newError(ErrCodeDecompositionFailed, "Query decomposition failed", err.Error(), true)
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError(timeout time.Duration) *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM decomposition timeout",
		fmt.Sprintf("LLM call exceeded %s timeout", timeout), true)
}

// NewLLMResponseInvalidError is never retried: the same prompt yields the
// same malformed shape.
func NewLLMResponseInvalidError(details string) *StandardError {
	return newError(ErrCodeLLMResponseInvalid, "LLM returned an invalid decomposition", details, false)
}

// NewRetrievalFailedError reports a failed primary filter query.
func NewRetrievalFailedError(err error) *StandardError {
	return newError(ErrCodeRetrievalFailed, "Retrieval failed", err.Error(), true)
}

// NewAuxiliaryJoinFailedError is logged for diagnostics only.
func NewAuxiliaryJoinFailedError(join string, err error) *StandardError {
	return newError(ErrCodeAuxiliaryJoinFailed, "Auxiliary join failed",
		fmt.Sprintf("join: %s, error: %s", join, err.Error()), true)
}

func NewVectorSearchFailedError(err error) *StandardError {
	return newError(ErrCodeVectorSearchFailed, "Vector similarity search failed", err.Error(), true)
}

func NewEmbeddingFailedError(err error) *StandardError {
	return newError(ErrCodeEmbeddingFailed, "Embedding generation failed", err.Error(), true)
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

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Search index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// NewWorkflowUnavailableError reports an unreachable or overloaded broker.
func NewWorkflowUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeWorkflowUnavailable, "Workflow engine unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewWorkflowTimeoutError(operation string, timeout time.Duration) *StandardError {
	return newError(ErrCodeWorkflowTimeout, "Workflow engine request timeout",
		fmt.Sprintf("operation: %s exceeded %s", operation, timeout), true)
}

// NewWorkflowRejectedError covers unknown processes, bad variables and
// authentication failures.
func NewWorkflowRejectedError(operation string, err error) *StandardError {
	return newError(ErrCodeWorkflowRejected, "Workflow engine rejected the request",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRetrievalFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeEmbeddingFailed,
		ErrCodeWorkflowUnavailable:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeVectorSearchFailed,
		ErrCodeDecompositionFailed,
		ErrCodeWorkflowTimeout:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "DECOMPOSITION") || strings.Contains(codeStr, "EMBEDDING"):
		return "AI"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "RETRIEVAL") || strings.Contains(codeStr, "JOIN"):
		return "RETRIEVAL"
	case strings.HasPrefix(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	default:
		return "OTHER"
	}
}

// AsStandardError unwraps err into a StandardError, or wraps it as an
// internal error.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}
