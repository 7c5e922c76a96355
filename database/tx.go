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
	"database/sql"

	"github.com/zenvest/ledger/model"
)

// Atomic runs fn inside one database transaction. The transaction is rolled
// back when fn fails or ctx is done before commit.
func (d Datasource) Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, span := tracer.Start(ctx, "Atomic")
	defer span.End()

	sqlTx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return storageError("Failed to begin transaction", err)
	}
	defer func() {
		// No-op once committed.
		_ = sqlTx.Rollback()
	}()

	if err := fn(ctx, &pgTx{tx: sqlTx}); err != nil {
		span.RecordError(err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		span.RecordError(err)
		return storageError("Failed to commit transaction", err)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return getAccount(ctx, t.tx, id, false)
}

// ApplyBalanceDelta locks the row, checks the account rules and writes the new
// balance guarded by the version read under the lock.
func (t *pgTx) ApplyBalanceDelta(ctx context.Context, id string, delta model.Money) (model.Money, error) {
	ctx, span := tracer.Start(ctx, "ApplyBalanceDelta")
	defer span.End()

	account, err := getAccount(ctx, t.tx, id, true)
	if err != nil {
		return model.Money{}, err
	}
	next, err := NextBalance(account, delta)
	if err != nil {
		return model.Money{}, err
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $2, version = version + 1, updated_at = $3
		WHERE account_id = $1 AND version = $4
	`, id, next, now(), account.Version)
	if err != nil {
		return model.Money{}, storageError("Failed to update balance", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return model.Money{}, storageError("Failed to update balance", err)
	}
	if rows == 0 {
		return model.Money{}, ErrVersionConflict
	}
	return next, nil
}

func (t *pgTx) AppendTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	return appendTransaction(ctx, t.tx, txn)
}

func (t *pgTx) AppendTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	return appendTransfer(ctx, t.tx, transfer)
}
