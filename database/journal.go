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
	"iter"
	"time"

	"github.com/zenvest/ledger/model"
)

const transactionColumns = `id, transaction_id, account_id, kind, amount, description, balance_after, created_at, hash`

func appendTransaction(ctx context.Context, q queryer, txn *model.Transaction) (*model.Transaction, error) {
	if txn.TransactionID == "" {
		txn.TransactionID = model.GenerateUUIDWithSuffix("txn")
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now()
	}
	txn.Hash = txn.HashTxn()

	err := q.QueryRowContext(ctx, `
		INSERT INTO transactions (transaction_id, account_id, kind, amount, description, balance_after, created_at, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, txn.TransactionID, txn.AccountID, string(txn.Kind), txn.Amount, txn.Description, txn.BalanceAfter, txn.CreatedAt, txn.Hash).Scan(&txn.ID)
	if err != nil {
		return nil, storageError("Failed to record transaction", err)
	}
	txn.Sequence = txn.ID
	return txn, nil
}

func appendTransfer(ctx context.Context, q queryer, transfer *model.Transfer) (*model.Transfer, error) {
	if transfer.TransferID == "" {
		transfer.TransferID = model.GenerateUUIDWithSuffix("trf")
	}
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = now()
	}
	transfer.Hash = transfer.HashTxn()

	err := q.QueryRowContext(ctx, `
		INSERT INTO transfers (transfer_id, from_account_id, to_account_id, amount, description, from_balance_after, created_at, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, transfer.TransferID, transfer.FromAccountID, transfer.ToAccountID, transfer.Amount, transfer.Description, transfer.FromBalanceAfter, transfer.CreatedAt, transfer.Hash).Scan(&transfer.ID)
	if err != nil {
		return nil, storageError("Failed to record transfer", err)
	}
	transfer.Sequence = transfer.ID
	return transfer, nil
}

// AppendTransaction records a single entry outside any enclosing Atomic unit.
func (d Datasource) AppendTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "AppendTransaction")
	defer span.End()
	return appendTransaction(ctx, d.Conn, txn)
}

func (d Datasource) AppendTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	ctx, span := tracer.Start(ctx, "AppendTransfer")
	defer span.End()
	return appendTransfer(ctx, d.Conn, transfer)
}

// ListTransactionsByAccount pages through the account's entries with a keyset on
// (created_at, id), so rows appended while the caller iterates never shift a page.
func (d Datasource) ListTransactionsByAccount(ctx context.Context, accountID string) iter.Seq2[*model.Transaction, error] {
	limit := d.pageSize()
	return func(yield func(*model.Transaction, error) bool) {
		ctx, span := tracer.Start(ctx, "ListTransactionsByAccount")
		defer span.End()

		var lastCreated time.Time
		var lastID int64
		for {
			page, err := d.transactionPage(ctx, accountID, lastCreated, lastID, limit)
			if err != nil {
				span.RecordError(err)
				yield(nil, err)
				return
			}
			for _, txn := range page {
				if !yield(txn, nil) {
					return
				}
			}
			if len(page) < limit {
				return
			}
			last := page[len(page)-1]
			lastCreated, lastID = last.CreatedAt, last.ID
		}
	}
}

func (d Datasource) transactionPage(ctx context.Context, accountID string, afterCreated time.Time, afterID int64, limit int) ([]*model.Transaction, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = $1 AND (created_at, id) > ($2, $3)
		ORDER BY created_at, id
		LIMIT $4
	`, accountID, afterCreated, afterID, limit)
	if err != nil {
		return nil, storageError("Failed to list transactions", err)
	}
	defer rows.Close()

	page := make([]*model.Transaction, 0, limit)
	for rows.Next() {
		txn := &model.Transaction{}
		var kind string
		err := rows.Scan(&txn.ID, &txn.TransactionID, &txn.AccountID, &kind, &txn.Amount, &txn.Description, &txn.BalanceAfter, &txn.CreatedAt, &txn.Hash)
		if err != nil {
			return nil, storageError("Failed to scan transaction", err)
		}
		txn.Kind = model.TransactionKind(kind)
		txn.Sequence = txn.ID
		page = append(page, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("Failed to list transactions", err)
	}
	return page, nil
}

// ListTransfersByOwner returns transfers where the owner holds either side,
// oldest first, with both owners' names attached.
func (d Datasource) ListTransfersByOwner(ctx context.Context, ownerID string) ([]model.Transfer, error) {
	ctx, span := tracer.Start(ctx, "ListTransfersByOwner")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `
		SELECT t.id, t.transfer_id, t.from_account_id, t.to_account_id, t.amount, t.description,
			t.from_balance_after, t.created_at, t.hash, fa.owner_name, ta.owner_name
		FROM transfers t
		JOIN accounts fa ON fa.account_id = t.from_account_id
		JOIN accounts ta ON ta.account_id = t.to_account_id
		WHERE fa.owner_id = $1 OR ta.owner_id = $1
		ORDER BY t.created_at, t.id
	`, ownerID)
	if err != nil {
		return nil, storageError("Failed to list transfers", err)
	}
	defer rows.Close()

	transfers := []model.Transfer{}
	for rows.Next() {
		var t model.Transfer
		err := rows.Scan(&t.ID, &t.TransferID, &t.FromAccountID, &t.ToAccountID, &t.Amount, &t.Description,
			&t.FromBalanceAfter, &t.CreatedAt, &t.Hash, &t.FromOwnerName, &t.ToOwnerName)
		if err != nil {
			return nil, storageError("Failed to scan transfer", err)
		}
		t.Sequence = t.ID
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("Failed to list transfers", err)
	}
	return transfers, nil
}
