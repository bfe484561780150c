package kb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupLockSerializesSameGroup(t *testing.T) {
	l := newGroupLock(t.TempDir())
	ctx := context.Background()

	release, err := l.Acquire(ctx, "g1")
	require.NoError(t, err)

	ctx2, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx2, "g1")
	assert.Error(t, err, "a second acquire for the same group must block until released")

	release()

	release2, err := l.Acquire(ctx, "g1")
	require.NoError(t, err)
	release2()
}

func TestGroupLockAllowsDifferentGroupsConcurrently(t *testing.T) {
	l := newGroupLock(t.TempDir())
	ctx := context.Background()

	release1, err := l.Acquire(ctx, "g1")
	require.NoError(t, err)
	defer release1()

	release2, err := l.Acquire(ctx, "g2")
	require.NoError(t, err)
	defer release2()
}
