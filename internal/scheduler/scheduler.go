package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dohr-michael/dayplanner/internal/events"
)

// DefaultTick is how often the scheduler checks for due cron jobs.
const DefaultTick = 15 * time.Second

// JobFunc is the work a job performs.
type JobFunc func(ctx context.Context) error

// Job is a named unit of work triggered by a cron expression, a bus event,
// or both.
type Job struct {
	Name     string
	Cron     string        // 5-field expression or descriptor; empty = no cron trigger
	OnEvent  *EventTrigger // nil = no event trigger
	Cooldown time.Duration // minimum gap between event-triggered runs
	Run      JobFunc
}

// JobInfo is a read-only view of a registered job.
type JobInfo struct {
	Name    string    `json:"name"`
	Cron    string    `json:"cron,omitempty"`
	OnEvent string    `json:"on_event,omitempty"`
	Next    time.Time `json:"next,omitempty"`
	LastRun time.Time `json:"last_run,omitempty"`
	Runs    int       `json:"runs"`
	Failed  int       `json:"failed"`
}

// Config holds dependencies for the scheduler.
type Config struct {
	Bus  *events.Bus      // nil: no event triggers, no trigger events
	Now  func() time.Time // nil: time.Now
	Tick time.Duration    // 0: DefaultTick
}

type runtimeJob struct {
	job     Job
	cron    *CronExpr
	next    time.Time
	lastRun time.Time
	running bool
	runs    int
	failed  int
}

// Scheduler runs jobs on cron schedules and in response to bus events.
type Scheduler struct {
	bus  *events.Bus
	now  func() time.Time
	tick time.Duration

	mu   sync.Mutex
	jobs map[string]*runtimeJob

	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	unsubscribe func()
}

// New creates a Scheduler. Jobs may be added before or after Start.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		bus:  cfg.Bus,
		now:  cfg.Now,
		tick: cfg.Tick,
		jobs: make(map[string]*runtimeJob),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.tick <= 0 {
		s.tick = DefaultTick
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// AddJob registers job. Names are unique.
func (s *Scheduler) AddJob(job Job) error {
	if job.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if job.Run == nil {
		return fmt.Errorf("job %s: run func is required", job.Name)
	}
	if job.Cron == "" && job.OnEvent == nil {
		return fmt.Errorf("job %s: must have a cron or on_event trigger", job.Name)
	}

	rj := &runtimeJob{job: job}
	if job.Cron != "" {
		expr, err := ParseCron(job.Cron)
		if err != nil {
			return fmt.Errorf("job %s: %w", job.Name, err)
		}
		rj.cron = expr
		rj.next = expr.Next(s.now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}
	s.jobs[job.Name] = rj

	slog.Info("scheduler: added job", "job", job.Name, "cron", job.Cron, "next", rj.next)
	return nil
}

// RemoveJob unregisters a job by name.
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; !ok {
		return fmt.Errorf("job not found: %s", name)
	}
	delete(s.jobs, name)
	return nil
}

// Jobs returns the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, rj := range s.jobs {
		info := JobInfo{
			Name:    rj.job.Name,
			Cron:    rj.job.Cron,
			Next:    rj.next,
			LastRun: rj.lastRun,
			Runs:    rj.runs,
			Failed:  rj.failed,
		}
		if rj.job.OnEvent != nil {
			info.OnEvent = string(rj.job.OnEvent.Event)
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start begins the cron loop and the event subscription.
func (s *Scheduler) Start() {
	if s.bus != nil {
		s.unsubscribe = s.bus.Subscribe(s.handleEvent)
	}
	s.wg.Add(1)
	go s.loop()
	slog.Info("scheduler started", "jobs", len(s.Jobs()), "tick", s.tick)
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunDue(s.ctx, s.now())
		}
	}
}

// RunDue runs every cron job whose next activation is at or before now and
// returns how many ran. Missed activations collapse into a single run.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	var due []*runtimeJob
	for _, rj := range s.jobs {
		if rj.cron == nil || rj.running || rj.next.After(now) {
			continue
		}
		rj.next = rj.cron.Next(now)
		rj.running = true
		due = append(due, rj)
	}
	s.mu.Unlock()

	for _, rj := range due {
		s.run(ctx, rj, "cron")
	}
	return len(due)
}

func (s *Scheduler) handleEvent(e events.Event) {
	now := s.now()

	s.mu.Lock()
	var due []*runtimeJob
	for _, rj := range s.jobs {
		if rj.running || !MatchEvent(e, rj.job.OnEvent) {
			continue
		}
		if !rj.lastRun.IsZero() && now.Sub(rj.lastRun) < rj.job.Cooldown {
			continue
		}
		rj.running = true
		due = append(due, rj)
	}
	s.mu.Unlock()

	for _, rj := range due {
		s.run(s.ctx, rj, "event:"+string(e.Type))
	}
}

// run executes a job that the caller marked as running.
func (s *Scheduler) run(ctx context.Context, rj *runtimeJob, trigger string) {
	start := s.now()
	err := rj.job.Run(ctx)
	elapsed := s.now().Sub(start)

	s.mu.Lock()
	rj.running = false
	rj.lastRun = start
	rj.runs++
	if err != nil {
		rj.failed++
	}
	s.mu.Unlock()

	payload := events.ScheduleTriggerPayload{Job: rj.job.Name, Duration: elapsed}
	if err != nil {
		payload.Error = err.Error()
		slog.Error("scheduler: job failed", "job", rj.job.Name, "trigger", trigger, "error", err)
	} else {
		slog.Debug("scheduler: job ran", "job", rj.job.Name, "trigger", trigger, "duration", elapsed)
	}
	if s.bus != nil {
		s.bus.Publish(events.NewTypedEvent(events.SourceScheduler, payload))
	}
}
