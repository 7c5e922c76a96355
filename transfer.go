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

	"github.com/zenvest/ledger/database"
	"github.com/zenvest/ledger/internal/apierror"
	"github.com/zenvest/ledger/model"
	"go.opentelemetry.io/otel/attribute"
)

// Transfer moves amount from an account owned by principal to any other
// account. Both balances and the transfer record commit together, and the
// returned record carries the source balance after the debit.
func (l *Ledger) Transfer(ctx context.Context, principal model.Principal, fromAccountID, toAccountID string, amount model.Money, description string) (*model.Transfer, error) {
	ctx, span := tracer.Start(ctx, "Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.from", fromAccountID),
		attribute.String("account.to", toAccountID),
		attribute.Int64("amount", amount.MinorUnits()),
	)

	transfer, err := l.transfer(ctx, principal, fromAccountID, toAccountID, amount, description)
	if err != nil {
		return nil, fail(span, "transfer", err)
	}
	l.notify(ctx, EventTransfer, transfer)
	return transfer, nil
}

func (l *Ledger) transfer(ctx context.Context, principal model.Principal, fromAccountID, toAccountID string, amount model.Money, description string) (*model.Transfer, error) {
	if fromAccountID == toAccountID {
		return nil, apierror.NewAPIError(apierror.ErrInvalidArgument, "cannot transfer to the same account", nil)
	}
	from, err := l.authorize(ctx, principal, fromAccountID)
	if err != nil {
		return nil, err
	}
	if !from.Active {
		return nil, apierror.NewAPIError(apierror.ErrInactiveAccount, "source account is not active", nil)
	}
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	if toAccountID == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidArgument, "destination account id is required", nil)
	}

	var recorded *model.Transfer
	err = l.execute(ctx, []string{fromAccountID, toAccountID}, func(ctx context.Context, tx database.Tx) error {
		fromBalance, err := tx.ApplyBalanceDelta(ctx, fromAccountID, amount.Neg())
		if err != nil {
			return err
		}
		if _, err := tx.ApplyBalanceDelta(ctx, toAccountID, amount); err != nil {
			return err
		}
		recorded, err = tx.AppendTransfer(ctx, &model.Transfer{
			FromAccountID:    fromAccountID,
			ToAccountID:      toAccountID,
			Amount:           amount,
			Description:      description,
			FromBalanceAfter: fromBalance,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// GetTransferHistory lists every transfer in which principal owns either side.
func (l *Ledger) GetTransferHistory(ctx context.Context, principal model.Principal) ([]model.Transfer, error) {
	ctx, span := tracer.Start(ctx, "GetTransferHistory")
	defer span.End()

	if principal.UserID == "" {
		return nil, fail(span, "transfer history", apierror.NewAPIError(apierror.ErrUnauthenticated, "no authenticated user", nil))
	}
	transfers, err := l.datasource.ListTransfersByOwner(ctx, principal.UserID)
	if err != nil {
		return nil, fail(span, "transfer history", err)
	}
	return transfers, nil
}
