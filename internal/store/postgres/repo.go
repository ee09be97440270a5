package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"servipay/internal/store/repositories"
)

// mapErr converts pgx "no rows" into the store-level sentinel so services can
// branch on repositories.ErrNotFound without importing pgx.
func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repositories.ErrNotFound
	}
	return err
}
