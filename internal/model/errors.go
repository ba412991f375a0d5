package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failed operation for callers.
type ErrorCode string

const (
	CodeValidation           ErrorCode = "VALIDATION_ERROR"
	CodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	CodeConversationNotFound ErrorCode = "CONVERSATION_NOT_FOUND"
	CodeDuplicateMessage     ErrorCode = "DUPLICATE_MESSAGE"
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// Error is a typed domain error carrying its taxonomy code.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match two domain errors by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// ValidationError reports malformed or missing input. Never mutates state.
func ValidationError(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent referenced entity.
func NotFoundError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// DuplicateMessageError reports an idempotency conflict: the message was
// already delivered, which a retrying caller treats as success.
func DuplicateMessageError(externalID string) *Error {
	return &Error{Code: CodeDuplicateMessage, Message: fmt.Sprintf("message %q already ingested", externalID)}
}

// InternalError wraps an unexpected orchestration fault.
func InternalError(err error) *Error {
	return &Error{Code: CodeInternal, Message: err.Error()}
}

// CodeOf extracts the taxonomy code from any error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its response status.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUserNotFound, CodeConversationNotFound:
		return http.StatusNotFound
	case CodeDuplicateMessage:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
