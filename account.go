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
package ledger

import (
	"context"
	"strings"

	"github.com/zenvest/ledger/internal/apierror"
	"github.com/zenvest/ledger/model"
)

// CreateAccount opens an active account for principal. An empty ownerName
// falls back to the principal's display name.
func (l *Ledger) CreateAccount(ctx context.Context, principal model.Principal, ownerName string, openingBalance model.Money) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "CreateAccount")
	defer span.End()

	if principal.UserID == "" {
		return nil, fail(span, "create account", apierror.NewAPIError(apierror.ErrUnauthenticated, "no authenticated user", nil))
	}
	ownerName = strings.TrimSpace(ownerName)
	if ownerName == "" {
		ownerName = principal.Name
	}
	account, err := l.datasource.CreateAccount(ctx, model.Account{
		OwnerID:   principal.UserID,
		OwnerName: ownerName,
		Balance:   openingBalance,
		Active:    true,
	})
	if err != nil {
		return nil, fail(span, "create account", err)
	}
	return &account, nil
}

func (l *Ledger) GetAccount(ctx context.Context, principal model.Principal, accountID string) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "GetAccount")
	defer span.End()

	account, err := l.authorize(ctx, principal, accountID)
	if err != nil {
		return nil, fail(span, "get account", err)
	}
	return account, nil
}

// ListAccounts returns all accounts owned by principal.
func (l *Ledger) ListAccounts(ctx context.Context, principal model.Principal) ([]model.Account, error) {
	ctx, span := tracer.Start(ctx, "ListAccounts")
	defer span.End()

	if principal.UserID == "" {
		return nil, fail(span, "list accounts", apierror.NewAPIError(apierror.ErrUnauthenticated, "no authenticated user", nil))
	}
	accounts, err := l.datasource.ListAccountsByOwner(ctx, principal.UserID)
	if err != nil {
		return nil, fail(span, "list accounts", err)
	}
	return accounts, nil
}

// UpdateAccount changes the owner name and/or active flag. The balance is never
// touched here. The account lock is held so the change does not race a money
// movement on the same account.
func (l *Ledger) UpdateAccount(ctx context.Context, principal model.Principal, accountID string, update model.AccountUpdate) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "UpdateAccount")
	defer span.End()

	account, err := l.updateAccount(ctx, principal, accountID, update)
	if err != nil {
		return nil, fail(span, "update account", err)
	}
	return account, nil
}

func (l *Ledger) updateAccount(ctx context.Context, principal model.Principal, accountID string, update model.AccountUpdate) (*model.Account, error) {
	account, err := l.authorize(ctx, principal, accountID)
	if err != nil {
		return nil, err
	}
	if update.OwnerName == nil && update.Active == nil {
		return account, nil
	}
	if update.OwnerName != nil && strings.TrimSpace(*update.OwnerName) == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidArgument, "owner name must not be empty", nil)
	}

	release, err := l.locks.Acquire(ctx, accountID)
	if err != nil {
		return nil, lockError(err)
	}
	defer release()

	if update.OwnerName != nil {
		account, err = l.datasource.RenameAccount(ctx, accountID, strings.TrimSpace(*update.OwnerName))
		if err != nil {
			return nil, err
		}
	}
	if update.Active != nil {
		account, err = l.datasource.UpdateAccountActive(ctx, accountID, *update.Active)
		if err != nil {
			return nil, err
		}
	}
	return account, nil
}
