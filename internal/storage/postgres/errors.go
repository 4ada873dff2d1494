package postgres

import (
	"errors"

	"github.com/lib/pq"

	"feedhost/internal/domain"
)

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// mapDBError translates slug uniqueness violations into domain.ErrConflict.
// Everything else propagates unchanged.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrConflict
	}
	return err
}
