package persistence

import (
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapUniqueViolation turns a unique_violation on one of the named constraints
// into its domain error. Other errors pass through.
func mapUniqueViolation(err error, subject string, byConstraint map[string]error) error {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	if mapped, ok := byConstraint[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%w: %s", mapped, subject)
	}
	return err
}
