//
// Tencent is pleased to support the open source community by making trip-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trip-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an adapter failure.
type ErrorCode string

// Adapter error taxonomy. NoResults means the call succeeded semantically but
// matched nothing and must never be retried; Unavailable and RateLimited are
// transient; InvalidParameters marks a planning bug, not a remote condition.
const (
	CodeUnavailable       ErrorCode = "unavailable"
	CodeInvalidParameters ErrorCode = "invalid_parameters"
	CodeNoResults         ErrorCode = "no_results"
	CodeRateLimited       ErrorCode = "rate_limited"
)

// AdapterError is the typed failure an adapter returns in place of a result.
type AdapterError struct {
	// Code places the failure in the shared taxonomy.
	Code ErrorCode
	// Message describes the failure for logs and step records.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// NewError builds an adapter error with the given code and message.
func NewError(code ErrorCode, message string) *AdapterError {
	return &AdapterError{Code: code, Message: message}
}

// Errorf builds an adapter error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *AdapterError {
	return &AdapterError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an adapter error wrapping an underlying cause.
func WrapError(code ErrorCode, message string, cause error) *AdapterError {
	return &AdapterError{Code: code, Message: message, Err: cause}
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

// Unwrap returns the underlying cause.
func (e *AdapterError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient and worth another
// attempt.
func (e *AdapterError) Retryable() bool {
	return e.Code == CodeUnavailable || e.Code == CodeRateLimited
}

// AsAdapterError extracts an *AdapterError from an error chain.
func AsAdapterError(err error) (*AdapterError, bool) {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Retryable reports whether err is a transient adapter failure. Errors
// outside the taxonomy are not retryable.
func Retryable(err error) bool {
	ae, ok := AsAdapterError(err)
	return ok && ae.Retryable()
}
