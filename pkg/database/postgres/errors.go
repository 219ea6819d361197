package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrContention marks a unit of work that lost a lock race and is safe to retry.
var ErrContention = errors.New("postgres: lock contention")

const (
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
)

func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

func IsContention(err error) bool {
	return hasCode(err, codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled)
}

func hasCode(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, c := range codes {
		if pgErr.Code == c {
			return true
		}
	}
	return false
}

func classify(err error) error {
	if err == nil || errors.Is(err, ErrContention) {
		return err
	}
	if IsContention(err) {
		return fmt.Errorf("%w: %w", ErrContention, err)
	}
	return err
}
