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
package memory

import (
	"context"

	"github.com/zenvest/ledger/database"
	"github.com/zenvest/ledger/model"
)

type stagedAccount struct {
	account     *model.Account
	baseVersion int64
}

// memTx collects balance changes and journal entries until commit.
type memTx struct {
	store     *Store
	staged    map[string]*stagedAccount
	order     []string
	txns      []*model.Transaction
	transfers []*model.Transfer
}

// Atomic runs fn against a private write set and publishes it under the store's
// write lock. A version mismatch on any touched account discards the whole set.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx database.Tx) error) error {
	ctx, span := tracer.Start(ctx, "Atomic")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{store: s, staged: make(map[string]*stagedAccount)}
	if err := fn(ctx, tx); err != nil {
		span.RecordError(err)
		return err
	}
	return s.commit(ctx, tx)
}

func (s *Store) commit(ctx context.Context, tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	for _, id := range tx.order {
		if s.accounts[id].Version != tx.staged[id].baseVersion {
			return database.ErrVersionConflict
		}
	}

	ts := s.stamp()
	for _, id := range tx.order {
		current := s.accounts[id]
		current.Balance = tx.staged[id].account.Balance
		current.Version++
		current.UpdatedAt = ts
	}
	for _, txn := range tx.txns {
		s.seq++
		txn.ID = s.seq
		txn.Sequence = s.seq
		txn.CreatedAt = ts
		txn.Hash = txn.HashTxn()
		stored := *txn
		s.transactions[txn.AccountID] = append(s.transactions[txn.AccountID], &stored)
	}
	for _, transfer := range tx.transfers {
		s.seq++
		transfer.ID = s.seq
		transfer.Sequence = s.seq
		transfer.CreatedAt = ts
		transfer.Hash = transfer.HashTxn()
		stored := *transfer
		s.transfers = append(s.transfers, &stored)
	}
	return nil
}

func (t *memTx) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if st, ok := t.staged[id]; ok {
		return copyAccount(st.account), nil
	}
	return t.store.GetAccount(ctx, id)
}

func (t *memTx) ApplyBalanceDelta(ctx context.Context, id string, delta model.Money) (model.Money, error) {
	st, ok := t.staged[id]
	if !ok {
		account, err := t.store.GetAccount(ctx, id)
		if err != nil {
			return model.Money{}, err
		}
		st = &stagedAccount{account: account, baseVersion: account.Version}
		t.staged[id] = st
		t.order = append(t.order, id)
	}
	next, err := database.NextBalance(st.account, delta)
	if err != nil {
		return model.Money{}, err
	}
	st.account.Balance = next
	return next, nil
}

// AppendTransaction stages txn. Sequence, CreatedAt and Hash are filled in on
// the same value at commit.
func (t *memTx) AppendTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	if err := t.requireAccount(ctx, txn.AccountID); err != nil {
		return nil, err
	}
	if txn.TransactionID == "" {
		txn.TransactionID = model.GenerateUUIDWithSuffix("txn")
	}
	t.txns = append(t.txns, txn)
	return txn, nil
}

func (t *memTx) AppendTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	if err := t.requireAccount(ctx, transfer.FromAccountID); err != nil {
		return nil, err
	}
	if err := t.requireAccount(ctx, transfer.ToAccountID); err != nil {
		return nil, err
	}
	if transfer.TransferID == "" {
		transfer.TransferID = model.GenerateUUIDWithSuffix("trf")
	}
	t.transfers = append(t.transfers, transfer)
	return transfer, nil
}

func (t *memTx) requireAccount(ctx context.Context, id string) error {
	if _, ok := t.staged[id]; ok {
		return nil
	}
	_, err := t.store.GetAccount(ctx, id)
	return err
}
