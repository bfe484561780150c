package store

import "context"

// Session is the folder -> session id continuation mapping. Exactly one
// session exists per group at a time; it rotates whenever the container
// returns a new id.
type Session struct {
	GroupFolder string
	SessionID   string
	UpdatedAt   int64
}

func (s *Store) GetSession(ctx context.Context, groupFolder string) (*Session, error) {
	return s.driver.GetSession(ctx, groupFolder)
}

func (s *Store) SetSession(ctx context.Context, groupFolder, sessionID string, updatedAt int64) (*Session, error) {
	return s.driver.SetSession(ctx, groupFolder, sessionID, updatedAt)
}
