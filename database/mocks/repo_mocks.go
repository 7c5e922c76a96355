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
package mocks

import (
	"context"
	"iter"

	"github.com/stretchr/testify/mock"
	"github.com/zenvest/ledger/database"
	"github.com/zenvest/ledger/model"
)

// MockDataSource is a mock implementation of the IDataSource interface.
// Atomic returns the configured error, or runs fn against Tx when it is nil.
type MockDataSource struct {
	mock.Mock
	Tx *MockTx
}

// MockTx is a mock implementation of database.Tx.
type MockTx struct {
	mock.Mock
}

var (
	_ database.IDataSource = (*MockDataSource)(nil)
	_ database.Tx          = (*MockTx)(nil)
)

// Account methods

func (m *MockDataSource) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockDataSource) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Error(1)
}

func (m *MockDataSource) ListAccountsByOwner(ctx context.Context, ownerID string) ([]model.Account, error) {
	args := m.Called(ctx, ownerID)
	accounts, _ := args.Get(0).([]model.Account)
	return accounts, args.Error(1)
}

func (m *MockDataSource) UpdateAccountActive(ctx context.Context, id string, active bool) (*model.Account, error) {
	args := m.Called(ctx, id, active)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Error(1)
}

func (m *MockDataSource) RenameAccount(ctx context.Context, id, ownerName string) (*model.Account, error) {
	args := m.Called(ctx, id, ownerName)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Error(1)
}

func (m *MockDataSource) ApplyBalanceDelta(ctx context.Context, id string, delta model.Money) (model.Money, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(model.Money), args.Error(1)
}

// Journal methods

func (m *MockDataSource) AppendTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	out, _ := args.Get(0).(*model.Transaction)
	return out, args.Error(1)
}

func (m *MockDataSource) AppendTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	args := m.Called(ctx, transfer)
	out, _ := args.Get(0).(*model.Transfer)
	return out, args.Error(1)
}

func (m *MockDataSource) ListTransactionsByAccount(ctx context.Context, accountID string) iter.Seq2[*model.Transaction, error] {
	args := m.Called(ctx, accountID)
	return args.Get(0).(iter.Seq2[*model.Transaction, error])
}

func (m *MockDataSource) ListTransfersByOwner(ctx context.Context, ownerID string) ([]model.Transfer, error) {
	args := m.Called(ctx, ownerID)
	transfers, _ := args.Get(0).([]model.Transfer)
	return transfers, args.Error(1)
}

func (m *MockDataSource) Atomic(ctx context.Context, fn func(ctx context.Context, tx database.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m.Tx)
}

// Tx methods

func (m *MockTx) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*model.Account)
	return account, args.Error(1)
}

func (m *MockTx) ApplyBalanceDelta(ctx context.Context, id string, delta model.Money) (model.Money, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(model.Money), args.Error(1)
}

func (m *MockTx) AppendTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	args := m.Called(ctx, txn)
	out, _ := args.Get(0).(*model.Transaction)
	return out, args.Error(1)
}

func (m *MockTx) AppendTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	args := m.Called(ctx, transfer)
	out, _ := args.Get(0).(*model.Transfer)
	return out, args.Error(1)
}
