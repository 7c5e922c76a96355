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
	"errors"

	"github.com/zenvest/ledger/model"
)

const accountColumns = `id, account_id, owner_id, owner_name, balance, active, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	account := &model.Account{}
	err := row.Scan(
		&account.ID,
		&account.AccountID,
		&account.OwnerID,
		&account.OwnerName,
		&account.Balance,
		&account.Active,
		&account.Version,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// getAccount reads one account. With forUpdate the row stays locked until q's
// transaction ends.
func getAccount(ctx context.Context, q queryer, id string, forUpdate bool) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	account, err := scanAccount(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accountNotFound(id)
		}
		return nil, storageError("Failed to retrieve account", err)
	}
	return account, nil
}

// CreateAccount stores a new account. An empty AccountID is filled with a generated id.
func (d Datasource) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	ctx, span := tracer.Start(ctx, "CreateAccount")
	defer span.End()

	if err := ValidateNewAccount(account); err != nil {
		return model.Account{}, err
	}
	if account.AccountID == "" {
		account.AccountID = model.GenerateUUIDWithSuffix("acc")
	}
	account.CreatedAt = now()
	account.UpdatedAt = account.CreatedAt
	account.Version = 0

	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO accounts (account_id, owner_id, owner_name, balance, active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $6)
		RETURNING id
	`, account.AccountID, account.OwnerID, account.OwnerName, account.Balance, account.Active, account.CreatedAt).Scan(&account.ID)
	if err != nil {
		span.RecordError(err)
		return model.Account{}, storageError("Failed to create account", err)
	}
	return account, nil
}

func (d Datasource) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "GetAccount")
	defer span.End()
	return getAccount(ctx, d.Conn, id, false)
}

// ListAccountsByOwner returns the owner's accounts in creation order.
func (d Datasource) ListAccountsByOwner(ctx context.Context, ownerID string) ([]model.Account, error) {
	ctx, span := tracer.Start(ctx, "ListAccountsByOwner")
	defer span.End()

	rows, err := d.Conn.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, storageError("Failed to list accounts", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, storageError("Failed to scan account", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("Failed to list accounts", err)
	}
	return accounts, nil
}

// UpdateAccountActive sets the active flag. The version is bumped so an
// in-flight balance update that read the old flag fails its version check.
func (d Datasource) UpdateAccountActive(ctx context.Context, id string, active bool) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "UpdateAccountActive")
	defer span.End()
	return d.updateAccount(ctx, `UPDATE accounts SET active = $2, version = version + 1, updated_at = $3
		WHERE account_id = $1 RETURNING `+accountColumns, id, active)
}

func (d Datasource) RenameAccount(ctx context.Context, id, ownerName string) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "RenameAccount")
	defer span.End()
	return d.updateAccount(ctx, `UPDATE accounts SET owner_name = $2, version = version + 1, updated_at = $3
		WHERE account_id = $1 RETURNING `+accountColumns, id, ownerName)
}

func (d Datasource) updateAccount(ctx context.Context, query, id string, value any) (*model.Account, error) {
	account, err := scanAccount(d.Conn.QueryRowContext(ctx, query, id, value, now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accountNotFound(id)
		}
		return nil, storageError("Failed to update account", err)
	}
	return account, nil
}

// ApplyBalanceDelta adjusts a single balance in its own database transaction.
func (d Datasource) ApplyBalanceDelta(ctx context.Context, id string, delta model.Money) (model.Money, error) {
	var balance model.Money
	err := d.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		balance, err = tx.ApplyBalanceDelta(ctx, id, delta)
		return err
	})
	if err != nil {
		return model.Money{}, err
	}
	return balance, nil
}
