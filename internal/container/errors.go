package container

import "github.com/pkg/errors"

// Sentinel errors for Container Runner outcomes (§4.5, §7). Only a nil error
// with an ok response status updates a group's session.
var (
	ErrTimeout     = errors.New("container: run timed out")
	ErrOversize    = errors.New("container: output exceeded max size")
	ErrExit        = errors.New("container: process exited with error")
	ErrMountDenied = errors.New("container: extra mount denied by allowlist")
)
