package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/store"
)

func TestNewExternalCLIMissingFileIsEmptyConfig(t *testing.T) {
	cli, err := NewExternalCLI("/nonexistent/path/cli.json", time.Second, nil)
	require.NoError(t, err)
	assert.Empty(t, cli.specs)
}

func TestHandleExternalCLIUnknownTypeRejected(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	cli := &ExternalCLI{specs: map[string]CLISpec{}, timeout: time.Second}
	d := newTestDispatcher(st, &fakeSender{}, nil, nil, cli)

	err := d.Dispatch(context.Background(), "github_review", []byte(`{"type":"github_review"}`), "g", false)
	require.Error(t, err)
}

func TestHandleExternalCLIAllowedGroupsScoping(t *testing.T) {
	st := newTestStoreWithGroups(t,
		&store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"},
		&store.CreateGroup{JID: "jid-2", Name: "Other", Folder: "other"},
	)
	cli := &ExternalCLI{
		specs: map[string]CLISpec{
			"sugar_echo": {Command: "/bin/echo", BaseArgs: []string{"hi"}, AllowedGroups: []string{"g"}},
		},
		timeout: time.Second,
	}
	sender := &fakeSender{}
	d := newTestDispatcher(st, sender, nil, nil, cli)

	err := d.Dispatch(context.Background(), "sugar_echo", []byte(`{"type":"sugar_echo"}`), "other", false)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = d.Dispatch(context.Background(), "sugar_echo", []byte(`{"type":"sugar_echo"}`), "g", false)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jid-1", sender.sent[0].chatJID)
	assert.Contains(t, sender.sent[0].text, "hi")
}

func TestHandleExternalCLIRejectsControlCharacterArgs(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	cli := &ExternalCLI{
		specs:   map[string]CLISpec{"sugar_echo": {Command: "/bin/echo"}},
		timeout: time.Second,
	}
	d := newTestDispatcher(st, &fakeSender{}, nil, nil, cli)

	raw, err := json.Marshal(map[string]any{
		"type": "sugar_echo",
		"args": []string{"bad\narg"},
	})
	require.NoError(t, err)

	err = d.Dispatch(context.Background(), "sugar_echo", raw, "g", false)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestValidCLIArg(t *testing.T) {
	assert.True(t, validCLIArg("normal-arg_123"))
	assert.False(t, validCLIArg("line1\nline2"))
	assert.False(t, validCLIArg("null\x00byte"))
}
