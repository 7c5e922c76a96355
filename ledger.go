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
package ledger

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/zenvest/ledger/database"
	"github.com/zenvest/ledger/internal/apierror"
	redlock "github.com/zenvest/ledger/internal/lock"
	"github.com/zenvest/ledger/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultLockWait   = 5 * time.Second
	defaultMaxRetries = 5
)

var tracer = otel.Tracer("zenvest.ledger")

//go:embed sql/*.sql
var SQLFiles embed.FS

// Notifier receives events after an operation has committed.
type Notifier interface {
	SendWebhook(ctx context.Context, hook NewWebhook) error
}

// Ledger moves money between accounts. Every balance change and its journal
// entry are written as one unit while the touched accounts are locked.
type Ledger struct {
	datasource database.IDataSource
	locks      redlock.Manager
	notifier   Notifier
	maxRetries int
}

type Option func(*Ledger)

// WithLockManager replaces the default in-process lock manager.
func WithLockManager(m redlock.Manager) Option {
	return func(l *Ledger) {
		l.locks = m
	}
}

// WithMaxRetries bounds how often an operation is re-run after a version conflict.
func WithMaxRetries(n int) Option {
	return func(l *Ledger) {
		if n >= 0 {
			l.maxRetries = n
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(l *Ledger) {
		l.notifier = n
	}
}

// NewLedger creates a Ledger over the given datasource.
func NewLedger(db database.IDataSource, opts ...Option) *Ledger {
	l := &Ledger{
		datasource: db,
		locks:      redlock.NewLocalManager(defaultLockWait),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// execute locks keys in ascending order and runs fn as one atomic unit.
// Version conflicts re-run fn with backoff; fn must not keep state between runs.
func (l *Ledger) execute(ctx context.Context, keys []string, fn func(ctx context.Context, tx database.Tx) error) error {
	release, err := l.locks.Acquire(ctx, keys...)
	if err != nil {
		return lockError(err)
	}
	defer release()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Millisecond
	b.MaxInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 0

	operation := func() error {
		err := l.datasource.Atomic(ctx, fn)
		if err != nil && apierror.CodeOf(err) != apierror.ErrConcurrencyConflict {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(l.maxRetries)), ctx))
}

func lockError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, redlock.ErrLockTimeout):
		return apierror.NewAPIError(apierror.ErrConcurrencyConflict, "account is busy, try again", nil)
	default:
		return apierror.NewAPIError(apierror.ErrStorageUnavailable, "failed to acquire account lock", err)
	}
}

// authorize loads an account and checks that user owns it.
func (l *Ledger) authorize(ctx context.Context, principal model.Principal, accountID string) (*model.Account, error) {
	if principal.UserID == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthenticated, "no authenticated user", nil)
	}
	if accountID == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidArgument, "account id is required", nil)
	}
	account, err := l.datasource.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.OwnedBy(principal.UserID) {
		return nil, apierror.NewAPIError(apierror.ErrNotOwner, "account "+accountID+" is not owned by the current user", nil)
	}
	return account, nil
}

func requirePositive(amount model.Money) error {
	if !amount.IsPositive() {
		return apierror.NewAPIError(apierror.ErrInvalidArgument, "amount must be greater than zero", nil)
	}
	return nil
}

// fail records err on the span. Storage problems and exhausted retries are
// logged; rejected requests are not.
func fail(span trace.Span, operation string, err error) error {
	span.RecordError(err)
	code := apierror.CodeOf(err)
	if code == apierror.ErrStorageUnavailable || code == apierror.ErrConcurrencyConflict {
		logrus.WithFields(logrus.Fields{"operation": operation, "code": code}).Warn(err)
	}
	return err
}

// notify publishes a committed event. The operation has already succeeded, so
// delivery problems are only logged.
func (l *Ledger) notify(ctx context.Context, event string, payload interface{}) {
	if l.notifier == nil {
		return
	}
	err := l.notifier.SendWebhook(context.WithoutCancel(ctx), NewWebhook{Event: event, Payload: payload})
	if err != nil {
		logrus.WithField("event", event).Errorf("failed to queue webhook: %v", err)
	}
}
