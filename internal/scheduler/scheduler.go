package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/chatrouter/internal/container"
	"github.com/hrygo/chatrouter/internal/metrics"
	"github.com/hrygo/chatrouter/internal/profile"
	"github.com/hrygo/chatrouter/internal/render"
	"github.com/hrygo/chatrouter/store"
)

// Scheduler materializes due tasks (§4.7): it wakes periodically, loads
// every active task whose next_run has passed, runs it in the group's
// context, delivers the reply, and re-arms or retires the task.
type Scheduler struct {
	store   *store.Store
	runner  Runner
	sender  Sender
	profile *profile.Profile
	metrics *metrics.Registry
	logger  *slog.Logger

	startOnce sync.Once
}

func NewScheduler(st *store.Store, runner Runner, sender Sender, p *profile.Profile, reg *metrics.Registry, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: st, runner: runner, sender: sender, profile: p, metrics: reg, logger: logger}
}

// Run polls until ctx is cancelled. A second call is a no-op
// (duplicate-start guard, §5).
func (s *Scheduler) Run(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() {
		err = s.run(ctx)
	})
	return err
}

func (s *Scheduler) run(ctx context.Context) error {
	interval := s.profile.SchedulerInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) {
	now := time.Now().UnixMilli()
	active := store.TaskActive
	due, err := s.store.ListTasks(ctx, &store.FindTask{Status: &active, DueBefore: &now})
	if err != nil {
		s.logger.Error("scheduler: list due tasks failed", "err", err)
		return
	}

	for _, task := range due {
		s.fire(ctx, task)
	}
}

func (s *Scheduler) fire(ctx context.Context, task *store.Task) {
	folder := task.GroupFolder
	group, err := s.store.GetGroup(ctx, &store.FindGroup{Folder: &folder})
	if err != nil || group == nil {
		s.logger.Error("scheduler: task references unknown group, failing it", "task_id", task.ID, "group", folder)
		s.finish(ctx, task, store.TaskFailed, 0)
		return
	}

	var resp *container.Response
	if task.ContextMode == store.ContextIsolated {
		resp, err = s.runner.RunIsolated(ctx, group, task.ChatJID, task.Prompt)
	} else {
		resp, err = s.runner.Run(ctx, group, task.ChatJID, task.Prompt)
	}

	outcome := "ok"
	if err != nil || resp.Status != container.StatusOK {
		outcome = "error"
	}
	if s.metrics != nil {
		s.metrics.SchedulerFires.WithLabelValues(folder, outcome).Inc()
	}

	if err != nil {
		s.logger.Error("scheduler: task run failed", "task_id", task.ID, "err", err)
		s.rearmOrFail(ctx, task)
		return
	}
	if resp.Status != container.StatusOK {
		s.logger.Error("scheduler: task returned error status", "task_id", task.ID, "err", resp.Error)
		s.rearmOrFail(ctx, task)
		return
	}

	plain, err := render.ToPlainText(resp.Result)
	if err != nil {
		s.logger.Warn("scheduler: render reply failed, sending raw", "task_id", task.ID, "err", err)
		plain = resp.Result
	}
	reply := s.profile.AssistantName + ": " + plain
	if err := s.sender.Send(ctx, task.ChatJID, reply); err != nil {
		s.logger.Warn("scheduler: deliver task reply failed", "task_id", task.ID, "err", err)
	}

	s.rearmOrFinish(ctx, task)
}

// rearmOrFinish advances a successfully-run task: a one-shot task is done,
// a recurring one is re-armed with its next occurrence.
func (s *Scheduler) rearmOrFinish(ctx context.Context, task *store.Task) {
	if task.ScheduleType == store.ScheduleOnce {
		s.finish(ctx, task, store.TaskDone, 0)
		return
	}
	s.rearm(ctx, task)
}

// rearmOrFail handles a failed run: a one-shot task fails permanently, a
// recurring one is re-armed for its next occurrence — the run itself is
// the retry, on the regular cron/interval cadence (§7 "retried with
// backoff").
func (s *Scheduler) rearmOrFail(ctx context.Context, task *store.Task) {
	if task.ScheduleType == store.ScheduleOnce {
		s.finish(ctx, task, store.TaskFailed, 0)
		return
	}
	s.rearm(ctx, task)
}

func (s *Scheduler) rearm(ctx context.Context, task *store.Task) {
	next, err := NextRun(task.ScheduleType, task.ScheduleValue, s.profile.SchedulerTimezone, time.Now())
	if err != nil {
		s.logger.Error("scheduler: compute next run failed, failing task", "task_id", task.ID, "err", err)
		s.finish(ctx, task, store.TaskFailed, 0)
		return
	}
	nextMillis := next.UnixMilli()
	if _, err := s.store.UpdateTask(ctx, &store.UpdateTask{ID: task.ID, NextRun: &nextMillis}); err != nil {
		s.logger.Error("scheduler: re-arm task failed", "task_id", task.ID, "err", err)
	}
}

func (s *Scheduler) finish(ctx context.Context, task *store.Task, status store.TaskStatus, nextRun int64) {
	update := &store.UpdateTask{ID: task.ID, Status: &status}
	if nextRun > 0 {
		update.NextRun = &nextRun
	}
	if _, err := s.store.UpdateTask(ctx, update); err != nil {
		s.logger.Error("scheduler: finalize task status failed", "task_id", task.ID, "status", status, "err", err)
	}
}
