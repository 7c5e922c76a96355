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
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenvest/ledger/database/memory"
	"github.com/zenvest/ledger/internal/apierror"
	redlock "github.com/zenvest/ledger/internal/lock"
	"github.com/zenvest/ledger/model"
)

var (
	alice = model.Principal{UserID: "user_alice", Name: "Alice"}
	bob   = model.Principal{UserID: "user_bob", Name: "Bob"}
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) SendWebhook(_ context.Context, hook NewWebhook) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, hook.Event)
	return nil
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

func newTestLedger(t *testing.T, opts ...Option) (*Ledger, *memory.Store) {
	t.Helper()
	store := memory.NewStore(memory.WithPageSize(7))
	opts = append([]Option{WithLockManager(redlock.NewLocalManager(2 * time.Second))}, opts...)
	return NewLedger(store, opts...), store
}

func openAccount(t *testing.T, l *Ledger, owner model.Principal, opening string) *model.Account {
	t.Helper()
	account, err := l.CreateAccount(context.Background(), owner, gofakeit.Name(), money(t, opening))
	require.NoError(t, err)
	return account
}

func money(t *testing.T, s string) model.Money {
	t.Helper()
	m, err := model.ParseMoney(s)
	require.NoError(t, err)
	return m
}

func balanceOf(t *testing.T, l *Ledger, owner model.Principal, id string) string {
	t.Helper()
	account, err := l.GetAccount(context.Background(), owner, id)
	require.NoError(t, err)
	return account.Balance.String()
}

func journal(t *testing.T, l *Ledger, owner model.Principal, id string) []*model.Transaction {
	t.Helper()
	seq, err := l.GetTransactionsForAccount(context.Background(), owner, id)
	require.NoError(t, err)
	var out []*model.Transaction
	for txn, err := range seq {
		require.NoError(t, err)
		out = append(out, txn)
	}
	return out
}

func TestDeposit(t *testing.T) {
	notifier := &recordingNotifier{}
	l, _ := newTestLedger(t, WithNotifier(notifier))
	account := openAccount(t, l, alice, "100.00")

	txn, err := l.Deposit(context.Background(), alice, account.AccountID, money(t, "50.00"), "salary")
	require.NoError(t, err)
	assert.Equal(t, "150.00", txn.BalanceAfter.String())
	assert.Equal(t, "50.00", txn.Amount.String())
	assert.Equal(t, model.KindDeposit, txn.Kind)
	assert.Equal(t, "salary", txn.Description)
	assert.NotEmpty(t, txn.TransactionID)
	assert.False(t, txn.CreatedAt.IsZero())

	assert.Equal(t, "150.00", balanceOf(t, l, alice, account.AccountID))
	entries := journal(t, l, alice, account.AccountID)
	require.Len(t, entries, 1)
	assert.Equal(t, txn.TransactionID, entries[0].TransactionID)
	assert.Equal(t, []string{EventDeposit}, notifier.Events())
}

func TestWithdraw(t *testing.T) {
	l, _ := newTestLedger(t)
	account := openAccount(t, l, alice, "150.00")

	txn, err := l.Withdraw(context.Background(), alice, account.AccountID, money(t, "20.00"), "")
	require.NoError(t, err)
	assert.Equal(t, model.KindWithdrawal, txn.Kind)
	assert.Equal(t, "130.00", txn.BalanceAfter.String())
}

func TestWithdraw_InsufficientFundsLeavesNoTrace(t *testing.T) {
	l, _ := newTestLedger(t)
	account := openAccount(t, l, alice, "150.00")

	_, err := l.Withdraw(context.Background(), alice, account.AccountID, money(t, "200.00"), "")
	assert.ErrorIs(t, err, apierror.ErrInsufficientFunds.Err())
	assert.Equal(t, "150.00", balanceOf(t, l, alice, account.AccountID))
	assert.Empty(t, journal(t, l, alice, account.AccountID))
}

func TestWithdraw_ExactBalance(t *testing.T) {
	l, _ := newTestLedger(t)
	account := openAccount(t, l, alice, "10.00")

	txn, err := l.Withdraw(context.Background(), alice, account.AccountID, money(t, "10.00"), "")
	require.NoError(t, err)
	assert.True(t, txn.BalanceAfter.IsZero())
}

func TestRejections(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	account := openAccount(t, l, alice, "100.00")
	inactive := openAccount(t, l, alice, "100.00")
	deactivate := false
	_, err := l.UpdateAccount(ctx, alice, inactive.AccountID, model.AccountUpdate{Active: &deactivate})
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() error
		code apierror.ErrorCode
	}{
		{"zero amount", func() error {
			_, err := l.Deposit(ctx, alice, account.AccountID, model.NewMoney(0), "")
			return err
		}, apierror.ErrInvalidArgument},
		{"negative amount", func() error {
			_, err := l.Withdraw(ctx, alice, account.AccountID, model.NewMoney(-100), "")
			return err
		}, apierror.ErrInvalidArgument},
		{"unknown account", func() error {
			_, err := l.Deposit(ctx, alice, "acc_missing", model.NewMoney(100), "")
			return err
		}, apierror.ErrNotFound},
		{"someone else's account", func() error {
			_, err := l.Deposit(ctx, bob, account.AccountID, model.NewMoney(100), "")
			return err
		}, apierror.ErrNotOwner},
		{"inactive account", func() error {
			_, err := l.Deposit(ctx, alice, inactive.AccountID, model.NewMoney(100), "")
			return err
		}, apierror.ErrInactiveAccount},
		{"anonymous caller", func() error {
			_, err := l.Deposit(ctx, model.Principal{}, account.AccountID, model.NewMoney(100), "")
			return err
		}, apierror.ErrUnauthenticated},
		{"foreign journal", func() error {
			_, err := l.GetTransactionsForAccount(ctx, bob, account.AccountID)
			return err
		}, apierror.ErrNotOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			assert.ErrorIs(t, err, tt.code.Err())
		})
	}

	assert.Equal(t, "100.00", balanceOf(t, l, alice, account.AccountID))
	assert.Empty(t, journal(t, l, alice, account.AccountID))
}

func TestTransfer(t *testing.T) {
	notifier := &recordingNotifier{}
	l, _ := newTestLedger(t, WithNotifier(notifier))
	a := openAccount(t, l, alice, "150.00")
	b := openAccount(t, l, bob, "0.00")

	transfer, err := l.Transfer(context.Background(), alice, a.AccountID, b.AccountID, money(t, "30.00"), "rent")
	require.NoError(t, err)
	assert.Equal(t, "120.00", transfer.FromBalanceAfter.String())
	assert.Equal(t, "30.00", transfer.Amount.String())
	assert.Equal(t, "120.00", balanceOf(t, l, alice, a.AccountID))
	assert.Equal(t, "30.00", balanceOf(t, l, bob, b.AccountID))
	assert.Equal(t, []string{EventTransfer}, notifier.Events())

	history, err := l.GetTransferHistory(context.Background(), bob)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, transfer.TransferID, history[0].TransferID)
	assert.Equal(t, a.OwnerName, history[0].FromOwnerName)
	assert.Equal(t, b.OwnerName, history[0].ToOwnerName)
}

func TestTransfer_Rejections(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := openAccount(t, l, alice, "100.00")
	b := openAccount(t, l, bob, "100.00")

	_, err := l.Transfer(ctx, alice, a.AccountID, a.AccountID, money(t, "1.00"), "")
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument.Err())

	// Self-transfer is rejected before ownership is looked at.
	_, err = l.Transfer(ctx, bob, a.AccountID, a.AccountID, money(t, "1.00"), "")
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument.Err())

	_, err = l.Transfer(ctx, bob, a.AccountID, b.AccountID, money(t, "1.00"), "")
	assert.ErrorIs(t, err, apierror.ErrNotOwner.Err())

	_, err = l.Transfer(ctx, alice, a.AccountID, b.AccountID, model.NewMoney(0), "")
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument.Err())

	_, err = l.Transfer(ctx, alice, a.AccountID, "acc_missing", money(t, "1.00"), "")
	assert.ErrorIs(t, err, apierror.ErrNotFound.Err())

	_, err = l.Transfer(ctx, alice, a.AccountID, b.AccountID, money(t, "100.01"), "")
	assert.ErrorIs(t, err, apierror.ErrInsufficientFunds.Err())

	assert.Equal(t, "100.00", balanceOf(t, l, alice, a.AccountID))
	assert.Equal(t, "100.00", balanceOf(t, l, bob, b.AccountID))
	history, err := l.GetTransferHistory(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTransfer_ToInactiveAccountRollsBack(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	a := openAccount(t, l, alice, "100.00")
	b := openAccount(t, l, bob, "0.00")
	off := false
	_, err := l.UpdateAccount(ctx, bob, b.AccountID, model.AccountUpdate{Active: &off})
	require.NoError(t, err)

	_, err = l.Transfer(ctx, alice, a.AccountID, b.AccountID, money(t, "10.00"), "")
	assert.ErrorIs(t, err, apierror.ErrInactiveAccount.Err())
	assert.Equal(t, "100.00", balanceOf(t, l, alice, a.AccountID))
}

func TestConcurrentDeposits(t *testing.T) {
	l, _ := newTestLedger(t)
	account := openAccount(t, l, alice, "0.00")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Deposit(context.Background(), alice, account.AccountID, model.NewMoney(1), "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, "1.00", balanceOf(t, l, alice, account.AccountID))
	entries := journal(t, l, alice, account.AccountID)
	assert.Len(t, entries, 100)
	seen := make(map[int64]bool)
	for _, e := range entries {
		seen[e.BalanceAfter.MinorUnits()] = true
	}
	// Every deposit observed a distinct balance, so none was lost.
	assert.Len(t, seen, 100)
}

func TestConcurrentOppositeTransfers(t *testing.T) {
	l, _ := newTestLedger(t)
	a := openAccount(t, l, alice, "100.00")
	b := openAccount(t, l, bob, "100.00")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = l.Transfer(context.Background(), alice, a.AccountID, b.AccountID, money(t, "50.00"), "")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = l.Transfer(context.Background(), bob, b.AccountID, a.AccountID, money(t, "50.00"), "")
	}()
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, "100.00", balanceOf(t, l, alice, a.AccountID))
	assert.Equal(t, "100.00", balanceOf(t, l, bob, b.AccountID))
}

func TestConservationAndBalanceEquation(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	owners := []model.Principal{alice, bob, {UserID: "user_carol", Name: "Carol"}}
	accounts := make([]*model.Account, len(owners))
	for i, owner := range owners {
		accounts[i] = openAccount(t, l, owner, "500.00")
	}

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := i%3, (i+1+i/3)%3
			if from == to {
				to = (to + 1) % 3
			}
			amount := model.NewMoney(int64(gofakeit.Number(1, 5000)))
			_, err := l.Transfer(ctx, owners[from], accounts[from].AccountID, accounts[to].AccountID, amount, "")
			if err != nil {
				assert.ErrorIs(t, err, apierror.ErrInsufficientFunds.Err())
			}
		}(i)
	}
	wg.Wait()

	total := model.NewMoney(0)
	for i, owner := range owners {
		account, err := l.GetAccount(ctx, owner, accounts[i].AccountID)
		require.NoError(t, err)
		assert.False(t, account.Balance.IsNegative())
		total = total.Add(account.Balance)
	}
	assert.Equal(t, "1500.00", total.String())

	// balance = opening - outgoing + incoming
	seen := make(map[string]bool)
	expected := make(map[string]model.Money)
	for i := range accounts {
		expected[accounts[i].AccountID] = model.NewMoney(50000)
	}
	for _, owner := range owners {
		history, err := l.GetTransferHistory(ctx, owner)
		require.NoError(t, err)
		for _, tr := range history {
			if seen[tr.TransferID] {
				continue
			}
			seen[tr.TransferID] = true
			expected[tr.FromAccountID] = expected[tr.FromAccountID].Sub(tr.Amount)
			expected[tr.ToAccountID] = expected[tr.ToAccountID].Add(tr.Amount)
		}
	}
	for i, owner := range owners {
		assert.Equal(t, expected[accounts[i].AccountID].String(), balanceOf(t, l, owner, accounts[i].AccountID))
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	account := openAccount(t, l, alice, "10.00")
	for i := 0; i < 10; i++ {
		_, err := l.Deposit(ctx, alice, account.AccountID, model.NewMoney(int64(i+1)), "")
		require.NoError(t, err)
	}

	first, err := l.GetAccount(ctx, alice, account.AccountID)
	require.NoError(t, err)
	second, err := l.GetAccount(ctx, alice, account.AccountID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	seq, err := l.GetTransactionsForAccount(ctx, alice, account.AccountID)
	require.NoError(t, err)
	collect := func() []string {
		var ids []string
		for txn, err := range seq {
			require.NoError(t, err)
			ids = append(ids, txn.TransactionID)
		}
		return ids
	}
	ids := collect()
	assert.Len(t, ids, 10)
	assert.Equal(t, ids, collect())
}

func TestCancelledContextLeavesNoState(t *testing.T) {
	l, _ := newTestLedger(t)
	account := openAccount(t, l, alice, "10.00")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Deposit(ctx, alice, account.AccountID, model.NewMoney(100), "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "10.00", balanceOf(t, l, alice, account.AccountID))
	assert.Empty(t, journal(t, l, alice, account.AccountID))
}

func TestAccountManagement(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.CreateAccount(ctx, alice, "", model.NewMoney(-1))
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument.Err())

	account, err := l.CreateAccount(ctx, alice, "  ", model.NewMoney(0))
	require.NoError(t, err)
	assert.Equal(t, "Alice", account.OwnerName)
	assert.True(t, account.Active)
	openAccount(t, l, bob, "1.00")

	accounts, err := l.ListAccounts(ctx, alice)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, account.AccountID, accounts[0].AccountID)

	name := "Alice Savings"
	updated, err := l.UpdateAccount(ctx, alice, account.AccountID, model.AccountUpdate{OwnerName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice Savings", updated.OwnerName)
	assert.True(t, updated.Active)

	empty := ""
	_, err = l.UpdateAccount(ctx, alice, account.AccountID, model.AccountUpdate{OwnerName: &empty})
	assert.ErrorIs(t, err, apierror.ErrInvalidArgument.Err())

	_, err = l.UpdateAccount(ctx, bob, account.AccountID, model.AccountUpdate{OwnerName: &name})
	assert.ErrorIs(t, err, apierror.ErrNotOwner.Err())

	off := false
	updated, err = l.UpdateAccount(ctx, alice, account.AccountID, model.AccountUpdate{Active: &off})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.True(t, updated.Balance.IsZero())

	_, err = l.Withdraw(ctx, alice, account.AccountID, model.NewMoney(1), "")
	assert.ErrorIs(t, err, apierror.ErrInactiveAccount.Err())

	_, err = l.ListAccounts(ctx, model.Principal{})
	assert.ErrorIs(t, err, apierror.ErrUnauthenticated.Err())
}
