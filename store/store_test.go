package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/store"
	"github.com/hrygo/chatrouter/store/storetest"
)

func TestLastGroupSyncRoundTrip(t *testing.T) {
	st := store.New(storetest.NewMemDriver())

	ts, err := st.LastGroupSync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, ts)

	require.NoError(t, st.SetLastGroupSync(context.Background(), 12345))

	ts, err = st.LastGroupSync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12345), ts)
}

func TestCloseDelegatesToDriver(t *testing.T) {
	st := store.New(storetest.NewMemDriver())
	assert.NoError(t, st.Close())
}
