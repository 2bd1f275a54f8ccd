package store

import (
	"database/sql"

	"marketplace-service/internal/apperr"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// classify turns driver errors into application errors. what names the
// entity in user-facing messages.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s not found", what)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return apperr.Conflict("%s already exists", what)
		case "foreign_key_violation":
			return apperr.Conflict("%s is still referenced by other records", what)
		case "check_violation":
			return apperr.Conflict("%s violates a data constraint", what)
		}
	}

	return errors.Wrapf(err, "%s query failed", what)
}
