package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFillsDefaults(t *testing.T) {
	p := &Profile{
		DataDir:            "/tmp/data",
		GroupsDir:          "/tmp/groups",
		AssistantName:      "Alfred",
		MountAllowlistPath: "/tmp/allowlist.json",
	}
	require.NoError(t, p.Validate())

	assert.Equal(t, "sqlite", p.Driver)
	assert.Equal(t, "UTC", p.SchedulerTimezone)
	assert.Equal(t, []string{"Alfred"}, p.BotPrefixes)
	assert.Greater(t, p.ContainerTimeout.Seconds(), 0.0)
	assert.Equal(t, "127.0.0.1:9090", p.AdminAddr)
}

func TestValidateRejectsMissingFields(t *testing.T) {
	p := &Profile{}
	assert.Error(t, p.Validate())
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	p := &Profile{
		DataDir:            "/tmp/data",
		GroupsDir:          "/tmp/groups",
		AssistantName:      "Alfred",
		MountAllowlistPath: "/tmp/allowlist.json",
		SchedulerTimezone:  "Not/AZone",
	}
	assert.Error(t, p.Validate())
}
