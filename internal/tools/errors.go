package tools

import "github.com/pkg/errors"

// ErrUnauthorized is returned when a payload's sourceGroup is not entitled
// to the effect it requests (§4.8's authorization column).
var ErrUnauthorized = errors.New("tools: unauthorized")

// ErrInvalidPayload is returned when a payload's typed fields fail
// validation.
var ErrInvalidPayload = errors.New("tools: invalid payload")
