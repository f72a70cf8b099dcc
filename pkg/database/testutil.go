package database

import (
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

// NewMockPool returns a pgxmock pool satisfying DBTX, so repository tests
// run against scripted expectations instead of a live database. Finish each
// test with ExpectationsWereMet.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool()
}
