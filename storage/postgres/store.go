// Package postgres implements the storage interfaces over PostgreSQL using
// database/sql and lib/pq.
package postgres

import (
	"database/sql"

	"github.com/araneta/postoko-sub002/storage"
)

// Store is the PostgreSQL-backed implementation of storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a Store over an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}
