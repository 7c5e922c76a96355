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
	"github.com/zenvest/ledger"
	"github.com/zenvest/ledger/api/middleware"
	"github.com/zenvest/ledger/auth"
	"github.com/zenvest/ledger/config"
	"github.com/zenvest/ledger/internal/apierror"
	"github.com/zenvest/ledger/model"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Api struct {
	ledger *ledger.Ledger
	auth   auth.Resolver
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.POST("/accounts", a.CreateAccount)
	router.GET("/accounts", a.ListAccounts)
	router.GET("/accounts/:id", a.GetAccount)
	router.PUT("/accounts/:id", a.UpdateAccount)

	router.POST("/accounts/:id/deposit", a.Deposit)
	router.POST("/accounts/:id/withdraw", a.Withdraw)
	router.GET("/accounts/:id/transactions", a.GetAccountTransactions)

	router.POST("/transfers", a.CreateTransfer)
	router.GET("/transfers", a.GetTransferHistory)
	return a.router
}

func NewAPI(l *ledger.Ledger) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(conf.ProjectName))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.RateLimitMiddleware(conf))
	r.Use(middleware.PrincipalMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{ledger: l, auth: auth.ContextResolver{}, router: r}
}

// principal resolves the acting user, writing the error response when there is none.
func (a Api) principal(c *gin.Context) (model.Principal, bool) {
	p, err := a.auth.ResolveCurrentUser(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return model.Principal{}, false
	}
	return p, true
}

// respondError writes the public view of err. An account owned by someone else
// is reported exactly like a missing one.
func respondError(c *gin.Context, err error) {
	public := apierror.Public(err)
	c.JSON(apierror.MapErrorToHTTPStatus(public), gin.H{"error": public.Message, "code": public.Code})
}
