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
package database

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"github.com/zenvest/ledger/internal/apierror"
	"github.com/zenvest/ledger/model"
)

// ErrVersionConflict is returned when a row changed between read and write.
// It carries the CONCURRENCY_CONFLICT code so callers may retry.
var ErrVersionConflict = apierror.APIError{Code: apierror.ErrConcurrencyConflict, Message: "account was modified concurrently"}

// NextBalance applies delta to the account's balance and enforces the account
// rules shared by every datasource.
func NextBalance(account *model.Account, delta model.Money) (model.Money, error) {
	if !account.Active {
		return model.Money{}, apierror.NewAPIError(apierror.ErrInactiveAccount, "account is not active", nil)
	}
	next, ok := account.Balance.AddChecked(delta)
	if !ok {
		return model.Money{}, apierror.NewAPIError(apierror.ErrInvalidArgument, "amount out of range", nil)
	}
	if next.IsNegative() {
		return model.Money{}, apierror.NewAPIError(apierror.ErrInsufficientFunds, "insufficient funds", nil)
	}
	return next, nil
}

// ValidateNewAccount checks a record before it is first stored.
func ValidateNewAccount(account model.Account) error {
	if account.OwnerID == "" {
		return apierror.NewAPIError(apierror.ErrInvalidArgument, "owner is required", nil)
	}
	if account.Balance.IsNegative() {
		return apierror.NewAPIError(apierror.ErrInvalidArgument, "opening balance must not be negative", nil)
	}
	return nil
}

func accountNotFound(id string) error {
	return apierror.NewAPIError(apierror.ErrNotFound, "account "+id+" not found", nil)
}

// storageError maps a driver error to the ledger's error codes.
func storageError(message string, err error) error {
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "check_violation":
			return apierror.NewAPIError(apierror.ErrInsufficientFunds, "insufficient funds", err)
		case "serialization_failure", "deadlock_detected", "lock_not_available":
			return apierror.NewAPIError(apierror.ErrConcurrencyConflict, message, err)
		case "unique_violation":
			return apierror.NewAPIError(apierror.ErrInvalidArgument, "record already exists", err)
		case "foreign_key_violation":
			return apierror.NewAPIError(apierror.ErrNotFound, "referenced account does not exist", err)
		}
	}
	return apierror.NewAPIError(apierror.ErrStorageUnavailable, message, err)
}
