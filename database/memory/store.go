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
// Package memory is an in-process datasource. Writes made inside Atomic are
// staged and become visible together at commit, after every touched account
// passes a version check.
package memory

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/zenvest/ledger/database"
	"github.com/zenvest/ledger/internal/apierror"
	"github.com/zenvest/ledger/model"
	"go.opentelemetry.io/otel"
)

const defaultPageSize = 100

var tracer = otel.Tracer("zenvest.database.memory")

// Store implements database.IDataSource.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*model.Account
	byOwner      map[string][]string
	transactions map[string][]*model.Transaction
	transfers    []*model.Transfer

	seq       int64
	lastStamp time.Time
	pageSize  int
	clock     func() time.Time
}

type Option func(*Store)

// WithPageSize sets how many journal entries are copied per read lock.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		accounts:     make(map[string]*model.Account),
		byOwner:      make(map[string][]string),
		transactions: make(map[string][]*model.Transaction),
		pageSize:     defaultPageSize,
		clock:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp returns a timestamp that never goes backwards. Callers hold mu.
func (s *Store) stamp() time.Time {
	ts := s.clock()
	if ts.Before(s.lastStamp) {
		ts = s.lastStamp
	}
	s.lastStamp = ts
	return ts
}

func copyAccount(a *model.Account) *model.Account {
	c := *a
	return &c
}

func (s *Store) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	_, span := tracer.Start(ctx, "CreateAccount")
	defer span.End()

	if err := database.ValidateNewAccount(account); err != nil {
		return model.Account{}, err
	}
	if account.AccountID == "" {
		account.AccountID = model.GenerateUUIDWithSuffix("acc")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountID]; exists {
		return model.Account{}, apierror.NewAPIError(apierror.ErrInvalidArgument, "record already exists", nil)
	}
	s.seq++
	account.ID = s.seq
	account.Version = 0
	account.CreatedAt = s.stamp()
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.AccountID] = copyAccount(&account)
	s.byOwner[account.OwnerID] = append(s.byOwner[account.OwnerID], account.AccountID)
	return account, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	_, span := tracer.Start(ctx, "GetAccount")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, notFound(id)
	}
	return copyAccount(account), nil
}

// ListAccountsByOwner returns the owner's accounts in creation order.
func (s *Store) ListAccountsByOwner(ctx context.Context, ownerID string) ([]model.Account, error) {
	_, span := tracer.Start(ctx, "ListAccountsByOwner")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byOwner[ownerID]
	accounts := make([]model.Account, 0, len(ids))
	for _, id := range ids {
		accounts = append(accounts, *s.accounts[id])
	}
	return accounts, nil
}

func (s *Store) UpdateAccountActive(ctx context.Context, id string, active bool) (*model.Account, error) {
	_, span := tracer.Start(ctx, "UpdateAccountActive")
	defer span.End()
	return s.updateAccount(id, func(a *model.Account) { a.Active = active })
}

func (s *Store) RenameAccount(ctx context.Context, id, ownerName string) (*model.Account, error) {
	_, span := tracer.Start(ctx, "RenameAccount")
	defer span.End()
	return s.updateAccount(id, func(a *model.Account) { a.OwnerName = ownerName })
}

// updateAccount bumps the version so staged balance writes based on the old
// record fail their commit check.
func (s *Store) updateAccount(id string, change func(*model.Account)) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, notFound(id)
	}
	change(account)
	account.Version++
	account.UpdatedAt = s.stamp()
	return copyAccount(account), nil
}

func (s *Store) ApplyBalanceDelta(ctx context.Context, id string, delta model.Money) (model.Money, error) {
	var balance model.Money
	err := s.Atomic(ctx, func(ctx context.Context, tx database.Tx) error {
		var err error
		balance, err = tx.ApplyBalanceDelta(ctx, id, delta)
		return err
	})
	return balance, err
}

func (s *Store) AppendTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	var out *model.Transaction
	err := s.Atomic(ctx, func(ctx context.Context, tx database.Tx) error {
		var err error
		out, err = tx.AppendTransaction(ctx, txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) AppendTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	var out *model.Transfer
	err := s.Atomic(ctx, func(ctx context.Context, tx database.Tx) error {
		var err error
		out, err = tx.AppendTransfer(ctx, transfer)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListTransactionsByAccount copies one page at a time under the read lock.
// Entries are only ever appended, so an index cursor is stable.
func (s *Store) ListTransactionsByAccount(ctx context.Context, accountID string) iter.Seq2[*model.Transaction, error] {
	return func(yield func(*model.Transaction, error) bool) {
		_, span := tracer.Start(ctx, "ListTransactionsByAccount")
		defer span.End()

		for offset := 0; ; offset += s.pageSize {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page := s.transactionPage(accountID, offset)
			for _, txn := range page {
				if !yield(txn, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
		}
	}
}

func (s *Store) transactionPage(accountID string, offset int) []*model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.transactions[accountID]
	if offset >= len(entries) {
		return nil
	}
	end := min(offset+s.pageSize, len(entries))
	page := make([]*model.Transaction, 0, end-offset)
	for _, txn := range entries[offset:end] {
		c := *txn
		page = append(page, &c)
	}
	return page
}

// ListTransfersByOwner returns transfers touching any of the owner's accounts,
// oldest first, with owner names taken from the current account records.
func (s *Store) ListTransfersByOwner(ctx context.Context, ownerID string) ([]model.Transfer, error) {
	_, span := tracer.Start(ctx, "ListTransfersByOwner")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	transfers := []model.Transfer{}
	for _, t := range s.transfers {
		from, to := s.accounts[t.FromAccountID], s.accounts[t.ToAccountID]
		if from.OwnerID != ownerID && to.OwnerID != ownerID {
			continue
		}
		c := *t
		c.FromOwnerName = from.OwnerName
		c.ToOwnerName = to.OwnerName
		transfers = append(transfers, c)
	}
	return transfers, nil
}

func notFound(id string) error {
	return apierror.NewAPIError(apierror.ErrNotFound, "account "+id+" not found", nil)
}
