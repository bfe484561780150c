package store

import "github.com/pkg/errors"

// Sentinel errors returned by Driver implementations. Callers match with
// errors.Is; the store never partially writes a row on these paths.
var (
	ErrNotFound         = errors.New("store: not found")
	ErrAlreadyExists    = errors.New("store: already exists")
	ErrIO               = errors.New("store: i/o error")
	ErrGroupNotRegistered = errors.New("store: group not registered")
)
