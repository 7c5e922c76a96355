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

package model

import (
	"strconv"
	"time"
)

type TransactionKind string

const (
	KindDeposit    TransactionKind = "DEPOSIT"
	KindWithdrawal TransactionKind = "WITHDRAWAL"
)

// Transaction is an immutable journal entry for a single-account deposit or withdrawal.
type Transaction struct {
	ID            int64           `json:"-"`
	TransactionID string          `json:"id"`
	AccountID     string          `json:"account_id"`
	Kind          TransactionKind `json:"kind"`
	Amount        Money           `json:"amount"`
	Description   string          `json:"description"`
	BalanceAfter  Money           `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
	Sequence      int64           `json:"sequence"`
	Hash          string          `json:"hash"`
}

// HashTxn fingerprints the fields that define the entry.
func (t *Transaction) HashTxn() string {
	return hashFields(
		t.TransactionID,
		t.AccountID,
		string(t.Kind),
		strconv.FormatInt(t.Amount.MinorUnits(), 10),
		strconv.FormatInt(t.BalanceAfter.MinorUnits(), 10),
		t.Description,
		formatTime(t.CreatedAt),
	)
}

// Delta is the signed balance change the entry represents.
func (t *Transaction) Delta() Money {
	if t.Kind == KindWithdrawal {
		return t.Amount.Neg()
	}
	return t.Amount
}
