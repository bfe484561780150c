package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/chatrouter/internal/scheduler"
	"github.com/hrygo/chatrouter/store"
)

// scheduleTaskPayload is the `schedule_task` IPC payload. The payload's
// jid field, if any, is ignored: the task's chat jid is always resolved
// from the registered group, never taken from the agent's own claim.
type scheduleTaskPayload struct {
	Type          string `json:"type"`
	GroupFolder   string `json:"group_folder"`
	Prompt        string `json:"prompt"`
	ScheduleType  string `json:"schedule_type"`
	ScheduleValue string `json:"schedule_value"`
	ContextMode   string `json:"context_mode"`
}

func (d *Dispatcher) handleScheduleTask(ctx context.Context, raw []byte, sourceGroup string, isMain bool) error {
	var p scheduleTaskPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if p.Prompt == "" || p.ScheduleType == "" || p.ScheduleValue == "" {
		return errors.Wrap(ErrInvalidPayload, "prompt, schedule_type and schedule_value required")
	}

	targetFolder := p.GroupFolder
	if targetFolder == "" {
		targetFolder = sourceGroup
	}
	if !isMain && targetFolder != sourceGroup {
		return ErrUnauthorized
	}

	group, err := d.store.GetGroup(ctx, &store.FindGroup{Folder: &targetFolder})
	if err != nil || group == nil {
		return errors.Wrap(ErrInvalidPayload, "unknown group_folder")
	}

	contextMode := store.ContextMode(p.ContextMode)
	if contextMode == "" {
		contextMode = store.ContextGroup
	}

	scheduleType := store.ScheduleType(p.ScheduleType)
	now := time.Now()
	next, err := scheduler.NextRun(scheduleType, p.ScheduleValue, d.profile.SchedulerTimezone, now)
	if err != nil {
		return errors.Wrap(ErrInvalidPayload, err.Error())
	}

	_, err = d.store.CreateTask(ctx, &store.CreateTask{
		ID:            "task-" + shortuuid.New(),
		GroupFolder:   targetFolder,
		ChatJID:       group.JID,
		Prompt:        p.Prompt,
		ScheduleType:  scheduleType,
		ScheduleValue: p.ScheduleValue,
		ContextMode:   contextMode,
		NextRun:       next.UnixMilli(),
		CreatedAt:     now.UnixMilli(),
	})
	return errors.Wrap(err, "tools: create task")
}

// taskStatusPayload covers pause_task/resume_task/cancel_task, which all
// carry only a task id and mutate its status.
type taskStatusPayload struct {
	Type   string `json:"type"`
	TaskID string `json:"task_id"`
}

func (d *Dispatcher) handleTaskStatus(ctx context.Context, raw []byte, sourceGroup string, isMain bool, status store.TaskStatus) error {
	task, err := d.loadAuthorizedTask(ctx, raw, sourceGroup, isMain)
	if err != nil {
		return err
	}
	_, err = d.store.UpdateTask(ctx, &store.UpdateTask{ID: task.ID, Status: &status})
	return errors.Wrap(err, "tools: update task status")
}

func (d *Dispatcher) handleCancelTask(ctx context.Context, raw []byte, sourceGroup string, isMain bool) error {
	task, err := d.loadAuthorizedTask(ctx, raw, sourceGroup, isMain)
	if err != nil {
		return err
	}
	return errors.Wrap(d.store.DeleteTask(ctx, task.ID), "tools: cancel task")
}

func (d *Dispatcher) loadAuthorizedTask(ctx context.Context, raw []byte, sourceGroup string, isMain bool) (*store.Task, error) {
	var p taskStatusPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.Wrap(ErrInvalidPayload, err.Error())
	}
	if p.TaskID == "" {
		return nil, errors.Wrap(ErrInvalidPayload, "task_id required")
	}

	task, err := d.store.GetTask(ctx, p.TaskID)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPayload, "unknown task_id")
	}
	if !isMain && task.GroupFolder != sourceGroup {
		return nil, ErrUnauthorized
	}
	return task, nil
}
