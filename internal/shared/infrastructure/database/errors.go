package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNoRows is returned when a single-row query matches nothing.
var ErrNoRows = errors.New("no rows in result set")

// noRowsSentinels holds the backend-specific empty-result errors so callers
// never have to know which driver produced a row lookup.
var noRowsSentinels = []error{pgx.ErrNoRows, sql.ErrNoRows, ErrNoRows}

// IsNoRows reports whether err means an empty result, regardless of backend.
func IsNoRows(err error) bool {
	for _, sentinel := range noRowsSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
