package store

import "context"

type ScheduleType string

const (
	ScheduleCron     ScheduleType = "cron"
	ScheduleInterval ScheduleType = "interval"
	ScheduleOnce     ScheduleType = "once"
)

type ContextMode string

const (
	ContextGroup    ContextMode = "group"
	ContextIsolated ContextMode = "isolated"
)

type TaskStatus string

const (
	TaskActive TaskStatus = "active"
	TaskPaused TaskStatus = "paused"
	TaskDone   TaskStatus = "done"
	TaskFailed TaskStatus = "failed"
)

// Task is a scheduled agent invocation.
type Task struct {
	ID             string
	GroupFolder    string
	ChatJID        string
	Prompt         string
	ScheduleType   ScheduleType
	ScheduleValue  string
	ContextMode    ContextMode
	NextRun        int64
	Status         TaskStatus
	CreatedAt      int64
}

// CreateTask is the write condition for scheduling a new task.
type CreateTask struct {
	ID            string
	GroupFolder   string
	ChatJID       string
	Prompt        string
	ScheduleType  ScheduleType
	ScheduleValue string
	ContextMode   ContextMode
	NextRun       int64
	CreatedAt     int64
}

// UpdateTask is the write condition for task state transitions.
type UpdateTask struct {
	ID      string
	Status  *TaskStatus
	NextRun *int64
}

// FindTask is the find condition for Task.
type FindTask struct {
	ID          *string
	GroupFolder *string
	Status      *TaskStatus
	DueBefore   *int64 // NextRun <= DueBefore, status=active
}

func (s *Store) CreateTask(ctx context.Context, create *CreateTask) (*Task, error) {
	return s.driver.CreateTask(ctx, create)
}

func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	return s.driver.GetTask(ctx, id)
}

func (s *Store) ListTasks(ctx context.Context, find *FindTask) ([]*Task, error) {
	return s.driver.ListTasks(ctx, find)
}

func (s *Store) UpdateTask(ctx context.Context, update *UpdateTask) (*Task, error) {
	return s.driver.UpdateTask(ctx, update)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.driver.DeleteTask(ctx, id)
}
