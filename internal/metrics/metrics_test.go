package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersEveryFamily(t *testing.T) {
	r := New()
	require.NotNil(t, r.Registry())

	r.IntakeMessagesProcessed.WithLabelValues("handled").Inc()
	r.ContainerRuns.WithLabelValues("g1", "ok").Inc()
	r.SchedulerFires.WithLabelValues("g1", "ok").Inc()
	r.IPCDispatched.WithLabelValues("message", "ok").Inc()
	r.KBChunksEmbedded.Inc()

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewDoesNotPanicOnRepeatedConstruction(t *testing.T) {
	assert.NotPanics(t, func() { New() })
	assert.NotPanics(t, func() { New() })
}
