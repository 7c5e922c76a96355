/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrInvalidArgument     ErrorCode = "INVALID_ARGUMENT"
	ErrNotFound            ErrorCode = "NOT_FOUND"
	ErrNotOwner            ErrorCode = "NOT_OWNER"
	ErrInactiveAccount     ErrorCode = "INACTIVE_ACCOUNT"
	ErrInsufficientFunds   ErrorCode = "INSUFFICIENT_FUNDS"
	ErrConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	ErrStorageUnavailable  ErrorCode = "STORAGE_UNAVAILABLE"
	ErrUnauthenticated     ErrorCode = "UNAUTHENTICATED"
)

// APIError is the single error type returned by the ledger. Details may hold an
// underlying driver error and never leaves the process.
type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any APIError carrying the same code, so callers can write
// errors.Is(err, apierror.ErrInsufficientFunds.Err()).
func (e APIError) Is(target error) bool {
	var t APIError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// Unwrap exposes Details when it is an error.
func (e APIError) Unwrap() error {
	if err, ok := e.Details.(error); ok {
		return err
	}
	return nil
}

// Err returns a bare error of the given code for use as an errors.Is target.
func (c ErrorCode) Err() error {
	return APIError{Code: c}
}

// Retryable reports whether the caller may retry the whole operation unchanged.
func (c ErrorCode) Retryable() bool {
	return c == ErrConcurrencyConflict
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	if details != nil {
		logrus.WithField("code", code).Error(details)
	}
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// CodeOf extracts the code of err, defaulting to STORAGE_UNAVAILABLE for foreign errors.
func CodeOf(err error) ErrorCode {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrStorageUnavailable
}

// Public returns the view of err that may be shown to an external caller.
// NOT_OWNER is reported exactly like NOT_FOUND and details are dropped.
func Public(err error) APIError {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return APIError{Code: ErrStorageUnavailable, Message: "service temporarily unavailable"}
	}
	switch apiErr.Code {
	case ErrNotOwner, ErrNotFound:
		return APIError{Code: ErrNotFound, Message: "account not found"}
	case ErrStorageUnavailable:
		return APIError{Code: ErrStorageUnavailable, Message: "service temporarily unavailable"}
	}
	return APIError{Code: apiErr.Code, Message: apiErr.Message}
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.Code {
	case ErrInvalidArgument:
		return http.StatusBadRequest
	case ErrNotFound, ErrNotOwner:
		return http.StatusNotFound
	case ErrInactiveAccount, ErrInsufficientFunds:
		return http.StatusUnprocessableEntity
	case ErrConcurrencyConflict:
		return http.StatusConflict
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
