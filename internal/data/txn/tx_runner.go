package txn

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/pkg/dbctx"
)

// TxRunner provides the transaction boundary for multi-statement writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return failure.New(failure.CodeInternal, "txn.InTx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

// Within reuses the caller's transaction when dbc carries one, otherwise opens a new one.
func Within(dbc dbctx.Context, runner TxRunner, fn func(dbc dbctx.Context) error) error {
	if dbc.InTx() {
		return fn(dbc)
	}
	ctx := dbc.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return runner.InTx(ctx, fn)
}

// RetryPolicy bounds how often a retryable storage failure is replayed.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialInterval: 50 * time.Millisecond, MaxInterval: time.Second}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
}

// Retry runs fn, mapping its error under op, and replays it while the mapped error is
// retryable. Non-retryable errors stop immediately.
func Retry(ctx context.Context, p RetryPolicy, op string, fn func() error) error {
	var last error
	err := backoff.Retry(func() error {
		last = MapError(op, fn())
		if last == nil {
			return nil
		}
		if !failure.IsRetryable(last) {
			return backoff.Permanent(last)
		}
		return last
	}, p.backOff(ctx))
	if err == nil {
		return nil
	}
	if last != nil {
		return last
	}
	return MapError(op, err)
}
