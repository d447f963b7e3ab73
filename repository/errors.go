package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"fairdice/service"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the service layer reacts to
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
	pgAdminShutdown        = "57P01"
	pgCannotConnectNow     = "57P03"
)

// storeError classifies a database error and wraps it with the failed operation
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgSerializationFailure, pgErr.Code == pgDeadlockDetected,
			pgErr.Code == pgUniqueViolation, pgErr.Code == pgLockNotAvailable:
			return service.NewError(service.KindConflict, op, err)
		case pgErr.Code == pgForeignKeyViolation:
			return service.NewError(service.KindNotFound, op+": referenced row not found", err)
		case pgErr.Code == pgCheckViolation:
			return service.NewError(service.KindValidation, op+": constraint violated", err)
		case pgErr.Code == pgQueryCanceled, pgErr.Code == pgAdminShutdown, pgErr.Code == pgCannotConnectNow,
			len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
			return service.NewError(service.KindStoreUnavailable, op, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return service.NewError(service.KindStoreUnavailable, op, err)
	case pgconn.Timeout(err), pgconn.SafeToRetry(err):
		return service.NewError(service.KindStoreUnavailable, op, err)
	case errors.As(err, &netErr):
		return service.NewError(service.KindStoreUnavailable, op, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return service.NewError(service.KindStoreUnavailable, op, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
