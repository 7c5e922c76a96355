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

import "time"

// Account is a balance-holding record owned by exactly one user.
// Balance is only ever changed by the datasource's ApplyBalanceDelta.
type Account struct {
	ID        int64     `json:"-"`
	AccountID string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	Balance   Money     `json:"balance"`
	Active    bool      `json:"active"`
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether the account belongs to the given user.
func (a *Account) OwnedBy(userID string) bool {
	return a.OwnerID != "" && a.OwnerID == userID
}

// AccountUpdate carries the metadata fields a user may change.
// Nil fields are left untouched.
type AccountUpdate struct {
	OwnerName *string
	Active    *bool
}
