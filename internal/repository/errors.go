package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/minfaz98/cozy-stay/internal/domain"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

// mapConflict turns a commit-time overlap caught by the exclusion
// constraint into domain.ErrRoomUnavailable.
func mapConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation, pgUniqueViolation:
			return fmt.Errorf("%w: %s", domain.ErrRoomUnavailable, pgErr.ConstraintName)
		}
	}
	return err
}
