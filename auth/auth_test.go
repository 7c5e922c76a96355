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
package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zenvest/ledger/internal/apierror"
	"github.com/zenvest/ledger/model"
)

func TestContextResolver(t *testing.T) {
	var r Resolver = ContextResolver{}

	_, err := r.ResolveCurrentUser(context.Background())
	assert.ErrorIs(t, err, apierror.ErrUnauthenticated.Err())

	_, err = r.ResolveCurrentUser(WithPrincipal(context.Background(), model.Principal{}))
	assert.ErrorIs(t, err, apierror.ErrUnauthenticated.Err())

	want := model.Principal{UserID: "user_1", Name: "Ada"}
	got, err := r.ResolveCurrentUser(WithPrincipal(context.Background(), want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFromHeaders(t *testing.T) {
	h := http.Header{}
	_, ok := FromHeaders(h)
	assert.False(t, ok)

	h.Set(UserHeader, "  user_1 ")
	h.Set(UserNameHeader, "Ada")
	p, ok := FromHeaders(h)
	assert.True(t, ok)
	assert.Equal(t, model.Principal{UserID: "user_1", Name: "Ada"}, p)
}
