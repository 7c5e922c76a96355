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

package apierror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zenvest/ledger/internal/apierror"
)

func TestNewAPIError(t *testing.T) {
	details := errors.New("connection refused")
	apiErr := apierror.NewAPIError(apierror.ErrStorageUnavailable, "Failed to load account", details)

	assert.Equal(t, apierror.ErrStorageUnavailable, apiErr.Code)
	assert.Equal(t, "Failed to load account", apiErr.Message)
	assert.Equal(t, details, apiErr.Details)
	assert.Equal(t, "STORAGE_UNAVAILABLE: Failed to load account", apiErr.Error())
	assert.ErrorIs(t, apiErr, details)
}

func TestAPIError_Is(t *testing.T) {
	err := fmt.Errorf("withdraw: %w", apierror.NewAPIError(apierror.ErrInsufficientFunds, "balance too low", nil))

	assert.ErrorIs(t, err, apierror.ErrInsufficientFunds.Err())
	assert.NotErrorIs(t, err, apierror.ErrNotFound.Err())
	assert.Equal(t, apierror.ErrInsufficientFunds, apierror.CodeOf(err))
	assert.Equal(t, apierror.ErrStorageUnavailable, apierror.CodeOf(errors.New("boom")))
}

func TestPublic(t *testing.T) {
	notOwner := apierror.Public(apierror.NewAPIError(apierror.ErrNotOwner, "account acc_1 belongs to usr_2", nil))
	notFound := apierror.Public(apierror.NewAPIError(apierror.ErrNotFound, "account acc_9 not found", nil))
	assert.Equal(t, notFound, notOwner)

	storage := apierror.Public(apierror.NewAPIError(apierror.ErrStorageUnavailable, "pq: deadlock", errors.New("pq: deadlock")))
	assert.Nil(t, storage.Details)
	assert.NotContains(t, storage.Message, "pq")

	assert.Equal(t, apierror.ErrStorageUnavailable, apierror.Public(errors.New("raw")).Code)
	assert.True(t, apierror.ErrConcurrencyConflict.Retryable())
	assert.False(t, apierror.ErrInsufficientFunds.Retryable())
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "InvalidArgument", err: apierror.NewAPIError(apierror.ErrInvalidArgument, "bad amount", nil), expected: http.StatusBadRequest},
		{name: "NotFound", err: apierror.NewAPIError(apierror.ErrNotFound, "missing", nil), expected: http.StatusNotFound},
		{name: "NotOwner", err: apierror.NewAPIError(apierror.ErrNotOwner, "not yours", nil), expected: http.StatusNotFound},
		{name: "Inactive", err: apierror.NewAPIError(apierror.ErrInactiveAccount, "inactive", nil), expected: http.StatusUnprocessableEntity},
		{name: "InsufficientFunds", err: apierror.NewAPIError(apierror.ErrInsufficientFunds, "low", nil), expected: http.StatusUnprocessableEntity},
		{name: "Conflict", err: apierror.NewAPIError(apierror.ErrConcurrencyConflict, "busy", nil), expected: http.StatusConflict},
		{name: "Unauthenticated", err: apierror.NewAPIError(apierror.ErrUnauthenticated, "who", nil), expected: http.StatusUnauthorized},
		{name: "Storage", err: apierror.NewAPIError(apierror.ErrStorageUnavailable, "down", nil), expected: http.StatusServiceUnavailable},
		{name: "Unknown Error", err: errors.New("Unknown error"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, apierror.MapErrorToHTTPStatus(tt.err))
		})
	}
}
