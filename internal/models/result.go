package models

import "errors"

// Result is the envelope every mutation returns. Expected business outcomes
// (already liked, not found for edit, ...) are declined results, not errors.
type Result[T any] struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Code    ErrorCode `json:"code,omitempty"`
	Payload *T        `json:"payload,omitempty"`
}

// Succeed builds a successful result.
func Succeed[T any](message string, payload *T) *Result[T] {
	return &Result[T]{Success: true, Message: message, Payload: payload}
}

// Decline builds an unsuccessful result for a business outcome.
func Decline[T any](code ErrorCode, message string) *Result[T] {
	return &Result[T]{Success: false, Message: message, Code: code}
}

// Outcome turns err into a declined result when it is a business outcome.
// Faults and foreign errors are returned unchanged with a nil result.
func Outcome[T any](err error) (*Result[T], error) {
	var appErr *AppError
	if errors.As(err, &appErr) && !appErr.IsFault() {
		return Decline[T](appErr.Code, appErr.Message), nil
	}
	return nil, err
}
