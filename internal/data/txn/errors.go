package txn

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
)

// MapError maps infrastructure failures into failure codes.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return failure.Wrap(failure.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return failure.Storage(op, err, false)
	}

	if IsUniqueViolation(err) {
		return failure.Storage(op, err, true) // unique_violation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return failure.Storage(op, err, true) // serialization/deadlock/lock_not_available
		case "53300":
			return failure.Storage(op, err, true) // too_many_connections
		}
		return failure.Storage(op, err, false)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return failure.Storage(op, err, true)
	default:
		return failure.Storage(op, err, false)
	}
}

// IsUniqueViolation reports a Postgres 23505 anywhere in the chain.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}
