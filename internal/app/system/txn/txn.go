// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/metrics"
)

// Runner executes multi-document operations inside a MongoDB transaction.
//
// Standalone servers (typical dev setups) reject sessions and transactions.
// The first such rejection flips the runner into sequential mode: the
// callback runs against the plain context with no atomicity, and the
// downgrade is logged once. Production deployments against a replica set
// keep full transactional semantics.
type Runner struct {
	client      *mongo.Client
	log         *zap.Logger
	unsupported atomic.Bool
}

// NewRunner creates a transaction runner for the given client.
func NewRunner(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, log: logger}
}

// Run executes fn transactionally. The context passed to fn must be used
// for every collection operation inside the callback; in transactional mode
// it carries the session. Contention errors surface to the caller
// unmodified (the driver's own transient-retry loop is the only retry).
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.unsupported.Load() {
		return r.runSequential(ctx, fn)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			r.noteUnsupported(err)
			return r.runSequential(ctx, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOpts)

	if err != nil && IsNotSupported(err) {
		r.noteUnsupported(err)
		return r.runSequential(ctx, fn)
	}
	return err
}

func (r *Runner) runSequential(ctx context.Context, fn func(ctx context.Context) error) error {
	metrics.TransactionFallbacks.Inc()
	return fn(ctx)
}

func (r *Runner) noteUnsupported(err error) {
	if r.unsupported.CompareAndSwap(false, true) && r.log != nil {
		r.log.Warn("multi-document transactions unavailable; falling back to sequential writes",
			zap.Error(err))
	}
}

// IsNotSupported reports whether err indicates the server cannot run
// sessions or multi-document transactions (standalone mongod, very old
// servers, or restricted hosted tiers).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// 20 IllegalOperation (transaction numbers need a replica set),
		// 51 and 263 are the session/transaction variants.
		switch cmdErr.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal") && has("operation"):
		return true
	}
	return false
}

// IsConflict reports whether err is store-level write contention: the
// transaction aborted because of a concurrent writer. Callers surface this
// as a conflict; nothing in this layer retries it.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		if srvErr.HasErrorLabel("TransientTransactionError") {
			return true
		}
		// 112 WriteConflict
		if srvErr.HasErrorCode(112) {
			return true
		}
	}
	return false
}
