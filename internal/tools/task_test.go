package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/chatrouter/store"
)

func TestHandleScheduleTaskResolvesJIDFromGroupIgnoringPayload(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	d := newTestDispatcher(st, &fakeSender{}, nil, nil, nil)

	payload := `{"type":"schedule_task","prompt":"say hi","schedule_type":"interval","schedule_value":"3600000","jid":"attacker-supplied"}`
	err := d.Dispatch(context.Background(), "schedule_task", []byte(payload), "g", false)
	require.NoError(t, err)

	tasks, err := st.ListTasks(context.Background(), &store.FindTask{GroupFolder: strPtr("g")})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "jid-1", tasks[0].ChatJID)
	assert.Equal(t, store.TaskActive, tasks[0].Status)
}

func TestHandleScheduleTaskNonMainRejectedForOtherGroup(t *testing.T) {
	st := newTestStoreWithGroups(t,
		&store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"},
		&store.CreateGroup{JID: "jid-2", Name: "Other", Folder: "other"},
	)
	d := newTestDispatcher(st, &fakeSender{}, nil, nil, nil)

	payload := `{"type":"schedule_task","group_folder":"other","prompt":"x","schedule_type":"interval","schedule_value":"3600000"}`
	err := d.Dispatch(context.Background(), "schedule_task", []byte(payload), "g", false)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHandleScheduleTaskMainMayTargetAnyGroup(t *testing.T) {
	st := newTestStoreWithGroups(t,
		&store.CreateGroup{JID: "jid-main", Name: "Main", Folder: "main"},
		&store.CreateGroup{JID: "jid-2", Name: "Other", Folder: "other"},
	)
	d := newTestDispatcher(st, &fakeSender{}, nil, nil, nil)

	payload := `{"type":"schedule_task","group_folder":"other","prompt":"x","schedule_type":"interval","schedule_value":"3600000"}`
	err := d.Dispatch(context.Background(), "schedule_task", []byte(payload), "main", true)
	require.NoError(t, err)

	tasks, err := st.ListTasks(context.Background(), &store.FindTask{GroupFolder: strPtr("other")})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "jid-2", tasks[0].ChatJID)
}

func TestHandleScheduleTaskRejectsInvalidScheduleValue(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	d := newTestDispatcher(st, &fakeSender{}, nil, nil, nil)

	payload := `{"type":"schedule_task","prompt":"x","schedule_type":"interval","schedule_value":"not-a-duration"}`
	err := d.Dispatch(context.Background(), "schedule_task", []byte(payload), "g", false)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestHandlePauseResumeCancelTaskAuthorizedOwnGroup(t *testing.T) {
	st := newTestStoreWithGroups(t, &store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"})
	d := newTestDispatcher(st, &fakeSender{}, nil, nil, nil)
	ctx := context.Background()

	task, err := st.CreateTask(ctx, &store.CreateTask{
		ID: "task-1", GroupFolder: "g", ChatJID: "jid-1", Prompt: "p",
		ScheduleType: store.ScheduleInterval, ScheduleValue: "3600000",
		ContextMode: store.ContextGroup, NextRun: time.Now().Add(time.Hour).UnixMilli(),
	})
	require.NoError(t, err)

	err = d.Dispatch(ctx, "pause_task", []byte(`{"type":"pause_task","task_id":"`+task.ID+`"}`), "g", false)
	require.NoError(t, err)
	got, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TaskPaused, got.Status)

	err = d.Dispatch(ctx, "resume_task", []byte(`{"type":"resume_task","task_id":"`+task.ID+`"}`), "g", false)
	require.NoError(t, err)
	got, err = st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, store.TaskActive, got.Status)

	err = d.Dispatch(ctx, "cancel_task", []byte(`{"type":"cancel_task","task_id":"`+task.ID+`"}`), "g", false)
	require.NoError(t, err)
	_, err = st.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestHandlePauseTaskUnauthorizedForOtherGroup(t *testing.T) {
	st := newTestStoreWithGroups(t,
		&store.CreateGroup{JID: "jid-1", Name: "G", Folder: "g"},
		&store.CreateGroup{JID: "jid-2", Name: "Other", Folder: "other"},
	)
	d := newTestDispatcher(st, &fakeSender{}, nil, nil, nil)
	ctx := context.Background()

	task, err := st.CreateTask(ctx, &store.CreateTask{
		ID: "task-1", GroupFolder: "other", ChatJID: "jid-2", Prompt: "p",
		ScheduleType: store.ScheduleInterval, ScheduleValue: "3600000",
		ContextMode: store.ContextGroup, NextRun: time.Now().Add(time.Hour).UnixMilli(),
	})
	require.NoError(t, err)

	err = d.Dispatch(ctx, "pause_task", []byte(`{"type":"pause_task","task_id":"`+task.ID+`"}`), "g", false)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func strPtr(s string) *string { return &s }
