package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

// SQLSTATE codes the record stores can raise.
var pgCodeErrors = map[string]error{
	"23505": domain.ErrAlreadyExists, // unique_violation: duplicate record id
	"23502": domain.ErrValidation,    // not_null_violation
	"23514": domain.ErrValidation,    // check_violation: e.g. unknown quarantine status
	"22001": domain.ErrValidation,    // string_data_right_truncation
	"40001": domain.ErrConflict,      // serialization_failure
	"40P01": domain.ErrConflict,      // deadlock_detected
}

// MapError translates a pgx error about one record into the domain error the
// REST layer knows how to answer. Context errors and unknown failures keep
// their identity so callers can still inspect them.
func MapError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}

	wrap := func(target error) error { return fmt.Errorf("%s %s: %w", entity, id, target) }

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return wrap(err)
	case errors.Is(err, pgx.ErrNoRows):
		return wrap(domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := pgCodeErrors[pgErr.Code]; ok {
			return wrap(mapped)
		}
	}

	return wrap(err)
}
