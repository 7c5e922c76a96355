package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	module := "test_module"
	id := GenerateUUIDWithSuffix(module)
	assert.Contains(t, id, module+"_")
	assert.NotEqual(t, id, GenerateUUIDWithSuffix(module))
}

func TestTransaction_HashTxn(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	txn := &Transaction{
		TransactionID: "txn_1",
		AccountID:     "acc_1",
		Kind:          KindDeposit,
		Amount:        NewMoney(5000),
		BalanceAfter:  NewMoney(15000),
		Description:   "salary",
		CreatedAt:     created,
	}
	first := txn.HashTxn()
	assert.Len(t, first, 64)
	assert.Equal(t, first, txn.HashTxn())

	txn.Amount = NewMoney(5001)
	assert.NotEqual(t, first, txn.HashTxn())
}

func TestTransaction_Delta(t *testing.T) {
	deposit := &Transaction{Kind: KindDeposit, Amount: NewMoney(300)}
	withdrawal := &Transaction{Kind: KindWithdrawal, Amount: NewMoney(300)}

	assert.Equal(t, NewMoney(300), deposit.Delta())
	assert.Equal(t, NewMoney(-300), withdrawal.Delta())
}

func TestTransfer_HashTxn(t *testing.T) {
	tr := &Transfer{TransferID: "trf_1", FromAccountID: "a", ToAccountID: "b", Amount: NewMoney(100)}
	swapped := &Transfer{TransferID: "trf_1", FromAccountID: "b", ToAccountID: "a", Amount: NewMoney(100)}
	assert.NotEqual(t, tr.HashTxn(), swapped.HashTxn())
}

func TestAccount_OwnedBy(t *testing.T) {
	acc := &Account{OwnerID: "usr_1"}
	assert.True(t, acc.OwnedBy("usr_1"))
	assert.False(t, acc.OwnedBy("usr_2"))
	assert.False(t, (&Account{}).OwnedBy(""))
}
