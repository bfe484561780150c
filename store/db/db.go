// Package db selects and opens a store.Driver implementation by name.
package db

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/db/postgres"
	"github.com/hrygo/chatrouter/store/db/sqlite"
)

// New opens the configured storage backend. "sqlite" (the default) is the
// primary embedded backend; "postgres" is optional, for deployments that
// want pgvector-backed KB chunk storage.
func New(ctx context.Context, driverName, dsn string) (store.Driver, error) {
	switch driverName {
	case "", "sqlite":
		return sqlite.New(ctx, dsn)
	case "postgres":
		return postgres.New(ctx, dsn)
	default:
		return nil, errors.Errorf("unknown store driver %q", driverName)
	}
}
