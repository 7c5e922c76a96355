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
	"encoding/json"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/zenvest/ledger/model"
)

// Amounts accept both JSON numbers and quoted decimal strings.

type CreateAccount struct {
	OwnerName      string      `json:"owner_name"`
	OpeningBalance json.Number `json:"opening_balance"`
}

type UpdateAccount struct {
	OwnerName *string `json:"owner_name"`
	Active    *bool   `json:"active"`
}

// MoneyMovement is the body of a deposit or withdrawal.
type MoneyMovement struct {
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

type CreateTransfer struct {
	FromAccountID string      `json:"from_account_id"`
	ToAccountID   string      `json:"to_account_id"`
	Amount        json.Number `json:"amount"`
	Description   string      `json:"description"`
}

func parseAmount(value interface{}) (model.Money, error) {
	n, _ := value.(json.Number)
	return model.ParseMoney(n.String())
}

func positiveAmount(value interface{}) error {
	amount, err := parseAmount(value)
	if err != nil {
		return errors.New("must be a decimal with at most 2 decimal places")
	}
	if !amount.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

func nonNegativeAmount(value interface{}) error {
	n, _ := value.(json.Number)
	if n == "" {
		return nil
	}
	amount, err := parseAmount(value)
	if err != nil {
		return errors.New("must be a decimal with at most 2 decimal places")
	}
	if amount.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func notBlank(value interface{}) error {
	s, _ := value.(*string)
	if s != nil && strings.TrimSpace(*s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}

func (a *CreateAccount) ValidateCreateAccount() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.OwnerName, validation.Length(0, 255)),
		validation.Field(&a.OpeningBalance, validation.By(nonNegativeAmount)),
	)
}

// Opening returns the parsed opening balance; empty means zero.
func (a *CreateAccount) Opening() model.Money {
	if a.OpeningBalance == "" {
		return model.NewMoney(0)
	}
	amount, _ := parseAmount(a.OpeningBalance)
	return amount
}

func (u *UpdateAccount) ValidateUpdateAccount() error {
	if u.OwnerName == nil && u.Active == nil {
		return errors.New("owner_name or active is required")
	}
	return validation.ValidateStruct(u,
		validation.Field(&u.OwnerName, validation.By(notBlank), validation.Length(1, 255)),
	)
}

func (u *UpdateAccount) ToAccountUpdate() model.AccountUpdate {
	return model.AccountUpdate{OwnerName: u.OwnerName, Active: u.Active}
}

func (m *MoneyMovement) ValidateMoneyMovement() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Amount, validation.Required, validation.By(positiveAmount)),
		validation.Field(&m.Description, validation.Length(0, 255)),
	)
}

func (m *MoneyMovement) Money() model.Money {
	amount, _ := parseAmount(m.Amount)
	return amount
}

func (t *CreateTransfer) ValidateCreateTransfer() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.FromAccountID, validation.Required),
		validation.Field(&t.ToAccountID, validation.Required),
		validation.Field(&t.Amount, validation.Required, validation.By(positiveAmount)),
		validation.Field(&t.Description, validation.Length(0, 255)),
	)
}

func (t *CreateTransfer) Money() model.Money {
	amount, _ := parseAmount(t.Amount)
	return amount
}
