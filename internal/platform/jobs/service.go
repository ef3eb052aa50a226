package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const JobScheduleReload = "schedule_reload"

// Task is a named unit of periodic work. Interval <= 0 disables scheduling;
// the task can still be triggered with RunNow.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(context.Context) error
}

type Service struct {
	mu    sync.Mutex
	tasks map[string]Task
	runs  map[string]RunInfo
}

// RunInfo describes the most recent run of a task.
type RunInfo struct {
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
}

func New(tasks ...Task) *Service {
	s := &Service{
		tasks: make(map[string]Task, len(tasks)),
		runs:  make(map[string]RunInfo, len(tasks)),
	}
	for _, t := range tasks {
		s.tasks[t.Name] = t
	}
	return s
}

// Start launches one ticker per scheduled task. All of them stop with ctx.
func (s *Service) Start(ctx context.Context) {
	for _, t := range s.tasks {
		if t.Interval > 0 {
			go s.schedule(ctx, t)
		}
	}
}

func (s *Service) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	t, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}
	return s.runJob(ctx, t)
}

// LastRun reports the latest run of the named task, if any.
func (s *Service) LastRun(name string) (RunInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.runs[name]
	return info, ok
}

func (s *Service) schedule(ctx context.Context, t Task) {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runJob(ctx, t); err != nil {
				slog.Warn("job run failed", "jobType", t.Name, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, t Task) error {
	start := time.Now()
	err := t.Run(ctx)
	info := RunInfo{StartedAt: start, DurationMs: time.Since(start).Milliseconds()}
	if err != nil {
		info.Error = err.Error()
	}
	s.mu.Lock()
	s.runs[t.Name] = info
	s.mu.Unlock()
	slog.Debug("job run finished", "jobType", t.Name, "durationMs", info.DurationMs, "failed", err != nil)
	return err
}
