// Package scheduler runs periodic analytics jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// Recorder counts job runs by status: ok or error.
type Recorder interface {
	SchedulerRun(job, status string)
}

// Task is one named job. Run must honour ctx cancellation.
type Task struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// TaskStatus reports the last outcome of a task.
type TaskStatus struct {
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	LastRun   time.Time `json:"last_run,omitempty"`
	NextRun   time.Time `json:"next_run,omitempty"`
	RunCount  int64     `json:"run_count"`
	LastError string    `json:"last_error,omitempty"`
}

type entry struct {
	task    Task
	id      cron.EntryID
	lastRun time.Time
	runs    int64
	lastErr string
	running sync.Mutex
}

type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	metrics Recorder

	mu      sync.RWMutex
	entries map[string]*entry

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler using standard five-field cron specs in UTC.
func New(log *logger.Logger, metrics Recorder) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		log:     log.With("component", "Scheduler"),
		metrics: metrics,
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers a task. Names must be unique.
func (s *Scheduler) Add(task Task) error {
	if task.Name == "" || task.Run == nil {
		return fmt.Errorf("task requires a name and a run func")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.entries[task.Name]; dup {
		return fmt.Errorf("task %q already registered", task.Name)
	}
	e := &entry{task: task}
	id, err := s.cron.AddFunc(task.Schedule, func() { s.execute(s.ctx, e) })
	if err != nil {
		return fmt.Errorf("failed to schedule task %s: %w", task.Name, err)
	}
	e.id = id
	s.entries[task.Name] = e
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "tasks", len(s.entries))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes a task synchronously outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown task %q", name)
	}
	return s.execute(ctx, e)
}

// Status lists every task sorted by name.
func (s *Scheduler) Status() []TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TaskStatus, 0, len(s.entries))
	for _, e := range s.entries {
		st := TaskStatus{
			Name:      e.task.Name,
			Schedule:  e.task.Schedule,
			LastRun:   e.lastRun,
			RunCount:  e.runs,
			LastError: e.lastErr,
		}
		if ce := s.cron.Entry(e.id); ce.Valid() {
			st.NextRun = ce.Next
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// execute skips a run when the previous one is still in flight.
func (s *Scheduler) execute(ctx context.Context, e *entry) error {
	if !e.running.TryLock() {
		s.log.Warn("task still running, skipping", "task", e.task.Name)
		return fmt.Errorf("task %q is already running", e.task.Name)
	}
	defer e.running.Unlock()

	start := time.Now()
	err := e.task.Run(ctx)

	status := "ok"
	s.mu.Lock()
	e.lastRun = start.UTC()
	e.runs++
	e.lastErr = ""
	if err != nil {
		status = "error"
		e.lastErr = err.Error()
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SchedulerRun(e.task.Name, status)
	}
	if err != nil {
		s.log.Error("task failed", "task", e.task.Name, "error", err, "duration", time.Since(start))
		return err
	}
	s.log.Info("task completed", "task", e.task.Name, "duration", time.Since(start))
	return nil
}

// SuggestionGenerator produces rule suggestions from recent outcomes.
type SuggestionGenerator interface {
	GenerateRuleSuggestions(ctx context.Context) []schema.RuleSuggestion
}

// SuggestionsTaskName names the periodic rule-suggestion job.
const SuggestionsTaskName = "rule_suggestions"

// SuggestionsTask logs every suggestion the generator produces. Suggestions
// are advisory: publishing stays a manual step.
func SuggestionsTask(schedule string, gen SuggestionGenerator, log *logger.Logger) Task {
	if log == nil {
		log = logger.Nop()
	}
	return Task{
		Name:     SuggestionsTaskName,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			suggestions := gen.GenerateRuleSuggestions(ctx)
			for _, sg := range suggestions {
				log.Info("rule suggestion",
					"rule_id", sg.RuleID,
					"field", sg.Field,
					"suggested_by", sg.SuggestedBy,
					"reason", sg.Reason,
					"confidence", sg.Confidence)
			}
			log.Info("rule suggestions generated", "count", len(suggestions))
			return nil
		},
	}
}
