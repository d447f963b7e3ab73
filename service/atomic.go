package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryPolicy bounds the atomic region
type RetryPolicy struct {
	// MaxAttempts is the number of transaction attempts before a conflict is returned
	MaxAttempts int
	// BaseDelay is the backoff before the second attempt; it doubles after each conflict
	BaseDelay time.Duration
	// StoreTimeout bounds a single transaction attempt. Zero means no extra deadline.
	StoreTimeout time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		BaseDelay:    25 * time.Millisecond,
		StoreTimeout: 5 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return p
}

// atomically runs fn inside the per-account atomic region: the account lock is held across
// every attempt, and each attempt gets a fresh unit of work. Conflicts are retried with
// backoff; every other error is returned as is.
func atomically(ctx context.Context, factory UnitOfWorkFactory, locker AccountLocker, policy RetryPolicy, metrics Metrics, accountID int64, operation string, fn func(ctx context.Context, uow UnitOfWork) error) error {
	policy = policy.normalized()

	unlock, err := locker.Lock(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}
	defer unlock()

	delay := policy.BaseDelay
	for attempt := 1; ; attempt++ {
		err := runInTransaction(ctx, factory, policy.StoreTimeout, fn)
		if err == nil {
			return nil
		}
		if !IsKind(err, KindConflict) {
			return err
		}

		metrics.RecordConflict(ctx, operation)
		if attempt >= policy.MaxAttempts {
			log.WithFields(log.Fields{
				"accountID": accountID,
				"operation": operation,
				"attempts":  attempt,
				"error":     err,
			}).Warn("Atomic region exhausted retries")
			return NewError(KindConflict, fmt.Sprintf("%s conflicted after %d attempts", operation, attempt), err)
		}

		log.WithFields(log.Fields{
			"accountID": accountID,
			"operation": operation,
			"attempt":   attempt,
			"delay":     delay,
		}).Debug("Retrying atomic region after conflict")

		if err := sleepWithContext(ctx, delay); err != nil {
			return NewError(KindConflict, fmt.Sprintf("%s cancelled while retrying", operation), err)
		}
		delay *= 2
	}
}

// runInTransaction runs fn in one unit of work, committing on success
func runInTransaction(ctx context.Context, factory UnitOfWorkFactory, timeout time.Duration, fn func(ctx context.Context, uow UnitOfWork) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := fn(ctx, uow); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
