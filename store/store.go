// Package store provides durable persistence for chats, messages,
// registered groups, sessions, tasks, and the knowledge base. It mirrors
// §3 of the router spec: append-only chats/messages, mutable groups and
// sessions, a task lifecycle, and CRUD-only KB sources/chunks.
package store

import "context"

// Store is the facade every subsystem depends on. It never embeds
// business logic beyond what a Driver needs validated before a write;
// all query/transaction logic lives in the Driver implementation.
type Store struct {
	driver Driver
}

// New wraps a Driver in a Store facade.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// LastGroupSync is the marker used by the Transport Adapter to know when
// chat metadata last finished syncing.
func (s *Store) LastGroupSync(ctx context.Context) (int64, error) {
	return s.driver.GetLastGroupSync(ctx)
}

func (s *Store) SetLastGroupSync(ctx context.Context, ts int64) error {
	return s.driver.SetLastGroupSync(ctx, ts)
}
