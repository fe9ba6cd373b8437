package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorCode classifies an AppError.
type ErrorCode string

const (
	// CodeUnauthenticated means the operation needs an identity and the caller has none.
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	// CodeInvalidOperation means the input was malformed (empty content, self-follow, ...).
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"
	// CodeNotFound means a referenced entity does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"
	// CodeNotFoundOrForbidden conflates "missing" and "not yours" for edit/delete.
	CodeNotFoundOrForbidden ErrorCode = "NOT_FOUND_OR_FORBIDDEN"
	// CodeAlreadyExists marks a duplicate like/follow/account.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// CodeStorageFault marks an object-store failure.
	CodeStorageFault ErrorCode = "STORAGE_FAULT"
	// CodeInternal marks an unexpected store or transport fault.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	Code    ErrorCode `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsFault reports whether the error is an unexpected fault rather than a
// business outcome the caller should see as a declined operation.
func (e *AppError) IsFault() bool {
	return e.Code == CodeInternal || e.Code == CodeStorageFault
}

// Predefined error constructors
func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: message}
}

func NewInvalidOperationError(message string) *AppError {
	return &AppError{Code: CodeInvalidOperation, Message: message}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

// NewNotFoundOrForbiddenError is returned for edit/delete of a resource that
// is missing or owned by someone else. The message is identical in both cases.
func NewNotFoundOrForbiddenError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFoundOrForbidden,
		Message: fmt.Sprintf("%s %v not found or not permitted", resource, id),
	}
}

func NewAlreadyExistsError(message string) *AppError {
	return &AppError{Code: CodeAlreadyExists, Message: message}
}

func NewStorageError(err error) *AppError {
	return &AppError{
		Code:    CodeStorageFault,
		Message: "Storage unavailable",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// CodeOf extracts the AppError code from err, or CodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// StatusFor maps an error code onto an HTTP status.
func StatusFor(code ErrorCode) int {
	switch code {
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeInvalidOperation:
		return fiber.StatusBadRequest
	case CodeNotFound, CodeNotFoundOrForbidden:
		return fiber.StatusNotFound
	case CodeAlreadyExists:
		return fiber.StatusOK
	case CodeStorageFault:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response. Faults are rendered
// with their generic message only; the wrapped cause is never sent to clients.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{Error: err.Error()}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response.Error = appErr.Message
		response.Code = appErr.Code
	} else {
		response.Error = "Internal server error"
		response.Code = CodeInternal
	}

	return c.Status(status).JSON(response)
}
