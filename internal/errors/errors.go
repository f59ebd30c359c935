package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
)

// VaultError represents a structured error with HTTP context
type VaultError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *VaultError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *VaultError) Unwrap() error {
	return e.Cause
}

// Error codes used across the API. Per-item scan failures are never
// surfaced through these — they are swallowed into aggregate counters.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeNotFound     = "NOT_FOUND"
	CodeIO           = "IO_ERROR"
	CodeExternalTool = "EXTERNAL_TOOL_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
	CodeDatabase     = "DATABASE_ERROR"
)

// ToGinResponse sends the error as a standardized JSON response
func (e *VaultError) ToGinResponse(c *gin.Context) {
	statusCode := e.HTTPStatus
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}

	response := gin.H{
		"error": e.Message,
		"code":  e.Code,
	}

	if len(e.Context) > 0 {
		response["details"] = e.Context
	}

	logger.ErrorStructured("HTTP error response",
		logger.Int("status", statusCode),
		logger.String("code", e.Code),
		logger.String("message", e.Message),
		logger.String("path", c.Request.URL.Path),
		logger.String("method", c.Request.Method))

	c.JSON(statusCode, response)
}

// Common error constructors

func NewValidationError(message string, field string) *VaultError {
	return &VaultError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Context:    map[string]interface{}{"field": field},
	}
}

func NewConflictError(message string, key string) *VaultError {
	return &VaultError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Context:    map[string]interface{}{"key": key},
	}
}

func NewNotFoundError(resource string, id string) *VaultError {
	return &VaultError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
		Context:    map[string]interface{}{"resource": resource, "id": id},
	}
}

// NewIOError wraps a filesystem access failure at drive level (missing
// mount, unreadable root). Per-file read failures never become VaultErrors.
func NewIOError(message string, path string, cause error) *VaultError {
	return &VaultError{
		Code:       CodeIO,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Context:    map[string]interface{}{"path": path},
		Cause:      cause,
	}
}

// NewExternalToolError reports a third-party tool failure together with
// manual fallback instructions so the caller can degrade gracefully.
func NewExternalToolError(tool string, fallback string, cause error) *VaultError {
	return &VaultError{
		Code:       CodeExternalTool,
		Message:    "external tool failed: " + tool,
		HTTPStatus: http.StatusOK,
		Context:    map[string]interface{}{"tool": tool, "manual_fallback": fallback},
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *VaultError {
	return &VaultError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewDatabaseError(operation string, cause error) *VaultError {
	return &VaultError{
		Code:       CodeDatabase,
		Message:    "Database operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Context:    map[string]interface{}{"operation": operation},
		Cause:      cause,
	}
}

// IsConflict reports whether err is (or wraps) a conflict error.
func IsConflict(err error) bool {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Code == CodeConflict
	}
	return false
}

// IsNotFound reports whether err is (or wraps) a not-found error.
func IsNotFound(err error) bool {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Code == CodeNotFound
	}
	return false
}

// IsValidation reports whether err is (or wraps) a validation error.
func IsValidation(err error) bool {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Code == CodeValidation
	}
	return false
}

// HTTP helpers to eliminate duplicate error handling

// HandleValidationError sends a validation error response
func HandleValidationError(c *gin.Context, message string, field string) {
	NewValidationError(message, field).ToGinResponse(c)
}

// HandleConflict sends a conflict error response
func HandleConflict(c *gin.Context, message string, key string) {
	NewConflictError(message, key).ToGinResponse(c)
}

// HandleNotFound sends a not found error response
func HandleNotFound(c *gin.Context, resource string, id string) {
	NewNotFoundError(resource, id).ToGinResponse(c)
}

// HandleInternalError sends an internal server error response
func HandleInternalError(c *gin.Context, message string, err error) {
	NewInternalError(message, err).ToGinResponse(c)
}

// HandleDatabaseError sends a database error response
func HandleDatabaseError(c *gin.Context, operation string, err error) {
	NewDatabaseError(operation, err).ToGinResponse(c)
}

// HandleError inspects err and sends the matching response; unknown error
// types fall through to an internal error.
func HandleError(c *gin.Context, err error) {
	var ve *VaultError
	if errors.As(err, &ve) {
		ve.ToGinResponse(c)
		return
	}
	NewInternalError("unexpected error", err).ToGinResponse(c)
}
