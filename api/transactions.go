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
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zenvest/ledger/api/model"
	ledgermodel "github.com/zenvest/ledger/model"
)

type movement func(ctx context.Context, p ledgermodel.Principal, accountID string, amount ledgermodel.Money, description string) (*ledgermodel.Transaction, error)

func (a Api) Deposit(c *gin.Context) {
	a.moveMoney(c, a.ledger.Deposit)
}

func (a Api) Withdraw(c *gin.Context) {
	a.moveMoney(c, a.ledger.Withdraw)
}

func (a Api) moveMoney(c *gin.Context, move movement) {
	p, ok := a.principal(c)
	if !ok {
		return
	}
	var req model.MoneyMovement
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateMoneyMovement(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	txn, err := move(c.Request.Context(), p, c.Param("id"), req.Money(), req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// GetAccountTransactions streams the journal as a JSON array so long histories
// are never held in memory at once.
func (a Api) GetAccountTransactions(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}
	entries, err := a.ledger.GetTransactionsForAccount(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	enc := json.NewEncoder(c.Writer)
	started := false
	for txn, err := range entries {
		if err != nil {
			if !started {
				respondError(c, err)
				return
			}
			logrus.Errorf("journal stream for %s interrupted: %v", c.Param("id"), err)
			c.Abort()
			return
		}
		if !started {
			c.Header("Content-Type", "application/json; charset=utf-8")
			c.Status(http.StatusOK)
			_, _ = c.Writer.WriteString("[")
			started = true
		} else {
			_, _ = c.Writer.WriteString(",")
		}
		if err := enc.Encode(txn); err != nil {
			logrus.Error(err)
			c.Abort()
			return
		}
	}
	if !started {
		c.JSON(http.StatusOK, []ledgermodel.Transaction{})
		return
	}
	_, _ = c.Writer.WriteString("]")
}
