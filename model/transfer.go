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

// Transfer is an immutable record of a paired debit and credit between two accounts.
type Transfer struct {
	ID               int64     `json:"-"`
	TransferID       string    `json:"id"`
	FromAccountID    string    `json:"from_account_id"`
	ToAccountID      string    `json:"to_account_id"`
	Amount           Money     `json:"amount"`
	Description      string    `json:"description"`
	FromBalanceAfter Money     `json:"from_balance_after"`
	CreatedAt        time.Time `json:"created_at"`
	Sequence         int64     `json:"sequence"`
	Hash             string    `json:"hash"`

	// Filled by history queries.
	FromOwnerName string `json:"from_owner_name,omitempty"`
	ToOwnerName   string `json:"to_owner_name,omitempty"`
}

func (t *Transfer) HashTxn() string {
	return hashFields(
		t.TransferID,
		t.FromAccountID,
		t.ToAccountID,
		strconv.FormatInt(t.Amount.MinorUnits(), 10),
		strconv.FormatInt(t.FromBalanceAfter.MinorUnits(), 10),
		t.Description,
		formatTime(t.CreatedAt),
	)
}
