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
	"iter"

	"github.com/zenvest/ledger/database"
	"github.com/zenvest/ledger/internal/apierror"
	"github.com/zenvest/ledger/model"
	"go.opentelemetry.io/otel/attribute"
)

const (
	EventDeposit    = "transaction.deposit"
	EventWithdrawal = "transaction.withdrawal"
	EventTransfer   = "transfer.applied"
)

// Deposit credits amount to an account owned by principal and records a
// DEPOSIT entry carrying the resulting balance.
func (l *Ledger) Deposit(ctx context.Context, principal model.Principal, accountID string, amount model.Money, description string) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Deposit")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID), attribute.Int64("amount", amount.MinorUnits()))

	txn, err := l.recordTransaction(ctx, principal, accountID, model.KindDeposit, amount, description)
	if err != nil {
		return nil, fail(span, "deposit", err)
	}
	l.notify(ctx, EventDeposit, txn)
	return txn, nil
}

// Withdraw debits amount from an account owned by principal. The balance check
// happens inside the balance update, so a concurrent withdrawal can never
// slip between a check and the write.
func (l *Ledger) Withdraw(ctx context.Context, principal model.Principal, accountID string, amount model.Money, description string) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Withdraw")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID), attribute.Int64("amount", amount.MinorUnits()))

	txn, err := l.recordTransaction(ctx, principal, accountID, model.KindWithdrawal, amount, description)
	if err != nil {
		return nil, fail(span, "withdraw", err)
	}
	l.notify(ctx, EventWithdrawal, txn)
	return txn, nil
}

func (l *Ledger) recordTransaction(ctx context.Context, principal model.Principal, accountID string, kind model.TransactionKind, amount model.Money, description string) (*model.Transaction, error) {
	account, err := l.authorize(ctx, principal, accountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, apierror.NewAPIError(apierror.ErrInactiveAccount, "account is not active", nil)
	}
	if err := requirePositive(amount); err != nil {
		return nil, err
	}

	var recorded *model.Transaction
	err = l.execute(ctx, []string{accountID}, func(ctx context.Context, tx database.Tx) error {
		txn := &model.Transaction{
			AccountID:   accountID,
			Kind:        kind,
			Amount:      amount,
			Description: description,
		}
		balance, err := tx.ApplyBalanceDelta(ctx, accountID, txn.Delta())
		if err != nil {
			return err
		}
		txn.BalanceAfter = balance
		recorded, err = tx.AppendTransaction(ctx, txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// GetTransactionsForAccount returns the account's journal, oldest first. The
// sequence reads lazily and may be ranged over more than once.
func (l *Ledger) GetTransactionsForAccount(ctx context.Context, principal model.Principal, accountID string) (iter.Seq2[*model.Transaction, error], error) {
	spanCtx, span := tracer.Start(ctx, "GetTransactionsForAccount")
	defer span.End()

	if _, err := l.authorize(spanCtx, principal, accountID); err != nil {
		return nil, fail(span, "list transactions", err)
	}
	return l.datasource.ListTransactionsByAccount(ctx, accountID), nil
}
