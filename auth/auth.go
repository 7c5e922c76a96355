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
// Package auth resolves the acting user for a request. Identity is asserted by
// an upstream gateway through request headers; this package only carries it.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/zenvest/ledger/internal/apierror"
	"github.com/zenvest/ledger/model"
)

const (
	UserHeader     = "X-Zenvest-User"
	UserNameHeader = "X-Zenvest-User-Name"
)

// Resolver resolves the current user.
type Resolver interface {
	ResolveCurrentUser(ctx context.Context) (model.Principal, error)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// ContextResolver reads the principal stored by WithPrincipal.
type ContextResolver struct{}

func (ContextResolver) ResolveCurrentUser(ctx context.Context) (model.Principal, error) {
	p, ok := ctx.Value(principalKey{}).(model.Principal)
	if !ok || p.UserID == "" {
		return model.Principal{}, apierror.NewAPIError(apierror.ErrUnauthenticated, "no authenticated user", nil)
	}
	return p, nil
}

// FromHeaders extracts a principal from gateway headers.
func FromHeaders(h http.Header) (model.Principal, bool) {
	userID := strings.TrimSpace(h.Get(UserHeader))
	if userID == "" {
		return model.Principal{}, false
	}
	return model.Principal{UserID: userID, Name: strings.TrimSpace(h.Get(UserNameHeader))}, true
}
