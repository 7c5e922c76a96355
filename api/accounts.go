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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zenvest/ledger/api/model"
)

func (a Api) CreateAccount(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}
	var newAccount model.CreateAccount
	if err := c.ShouldBindJSON(&newAccount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := newAccount.ValidateCreateAccount(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	account, err := a.ledger.CreateAccount(c.Request.Context(), p, newAccount.OwnerName, newAccount.Opening())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (a Api) GetAccount(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}
	account, err := a.ledger.GetAccount(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (a Api) ListAccounts(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}
	accounts, err := a.ledger.ListAccounts(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (a Api) UpdateAccount(c *gin.Context) {
	p, ok := a.principal(c)
	if !ok {
		return
	}
	var update model.UpdateAccount
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := update.ValidateUpdateAccount(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": err.Error()})
		return
	}

	account, err := a.ledger.UpdateAccount(c.Request.Context(), p, c.Param("id"), update.ToAccountUpdate())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}
