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

	"github.com/zenvest/ledger/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	accounts // Interface for account-related operations
	journal  // Interface for ledger journal operations

	// Atomic runs fn as a single all-or-nothing unit. Balance deltas and journal
	// appends made through tx become visible together when fn returns nil and ctx
	// is still live; otherwise nothing is written.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// accounts defines methods for handling accounts.
type accounts interface {
	CreateAccount(ctx context.Context, account model.Account) (model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccountsByOwner(ctx context.Context, ownerID string) ([]model.Account, error)
	UpdateAccountActive(ctx context.Context, id string, active bool) (*model.Account, error)
	RenameAccount(ctx context.Context, id, ownerName string) (*model.Account, error)
	ApplyBalanceDelta(ctx context.Context, id string, delta model.Money) (model.Money, error)
}

// journal defines methods for the append-only record of money movements.
type journal interface {
	AppendTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	AppendTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error)
	// ListTransactionsByAccount yields entries ordered by created_at, then insertion
	// sequence. Rows are fetched page by page as the caller ranges over the sequence,
	// and ranging again starts over from the first entry.
	ListTransactionsByAccount(ctx context.Context, accountID string) iter.Seq2[*model.Transaction, error]
	ListTransfersByOwner(ctx context.Context, ownerID string) ([]model.Transfer, error)
}

// Tx is the write surface handed to Atomic callbacks.
type Tx interface {
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ApplyBalanceDelta(ctx context.Context, id string, delta model.Money) (model.Money, error)
	AppendTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)
	AppendTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error)
}
