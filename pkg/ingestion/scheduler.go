package ingestion

import (
	"context"
	"errors"
	"sync"
	"time"

	"lintang/floodnav/pkg/server"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

var (
	ErrCycleRunning = errors.New("ingestion cycle already running")
	ErrTooSoon      = errors.New("ingestion refreshed too recently")
)

const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

const (
	TriggerStartup   = "startup"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// max job yang disimpan di registry.
const maxJobHistory = 50

type Runner interface {
	Run(ctx context.Context, progress Progress) (Result, error)
}

type FreshnessSource interface {
	LastUpdated() time.Time
}

type Job struct {
	ID         string     `json:"id"`
	Trigger    string     `json:"trigger"`
	Force      bool       `json:"force"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Result     *Result    `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`

	done chan struct{}
}

func (j *Job) Finished() bool {
	return j.Status != JobRunning
}

type SchedulerOptions struct {
	Interval      time.Duration
	RunOnStartup  bool
	MinRefreshGap time.Duration
}

// Scheduler menjalankan ingestion periodik + trigger manual. Paling banyak satu siklus berjalan.
type Scheduler struct {
	runner    Runner
	freshness FreshnessSource
	opts      SchedulerOptions
	log       *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	running *Job
	jobs    map[string]*Job
	order   []string

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewScheduler(runner Runner, freshness FreshnessSource, opts SchedulerOptions, log *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:    runner,
		freshness: freshness,
		opts:      opts,
		log:       log.With(slog.String("component", "scheduler")),
		now:       time.Now,
		jobs:      make(map[string]*Job),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// Start jalankan ticker di background. Berhenti saat ctx selesai atau Stop dipanggil.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.opts.RunOnStartup {
			s.startScheduled(TriggerStartup)
		}
		if s.opts.Interval <= 0 {
			return
		}
		ticker := time.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.baseCtx.Done():
				return
			case <-ticker.C:
				s.startScheduled(TriggerScheduled)
			}
		}
	}()
}

func (s *Scheduler) startScheduled(trigger string) {
	if _, err := s.begin(trigger, true); err != nil {
		s.log.Info("skipping scheduled ingestion", slog.String("trigger", trigger), slog.String("reason", err.Error()))
	}
}

// Trigger mulai siklus manual. force mengabaikan MinRefreshGap. Kalau wait, tunggu sampai selesai
// (atau ctx selesai, job dikembalikan dalam status running).
func (s *Scheduler) Trigger(ctx context.Context, force, wait bool) (Job, error) {
	job, err := s.begin(TriggerManual, force)
	if err != nil {
		return Job{}, err
	}
	if !wait {
		return s.snapshot(job), nil
	}
	select {
	case <-job.done:
	case <-ctx.Done():
	}
	return s.snapshot(job), nil
}

func (s *Scheduler) begin(trigger string, force bool) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running != nil {
		return nil, server.WrapErrorf(ErrCycleRunning, server.ErrConflict,
			"ingestion job %s is still running", s.running.ID)
	}
	if !force && s.opts.MinRefreshGap > 0 && s.freshness != nil {
		if last := s.freshness.LastUpdated(); !last.IsZero() {
			if age := s.now().Sub(last); age < s.opts.MinRefreshGap {
				return nil, server.WrapErrorf(ErrTooSoon, server.ErrConflict,
					"segments were refreshed %s ago (minimum gap %s), use force to override",
					age.Round(time.Second), s.opts.MinRefreshGap)
			}
		}
	}

	job := &Job{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Force:     force,
		Status:    JobRunning,
		StartedAt: s.now().UTC(),
		done:      make(chan struct{}),
	}
	s.running = job
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	if len(s.order) > maxJobHistory {
		delete(s.jobs, s.order[0])
		s.order = s.order[1:]
	}

	s.wg.Add(1)
	go s.execute(job)
	return job, nil
}

func (s *Scheduler) execute(job *Job) {
	defer s.wg.Done()
	s.log.Info("ingestion job started", slog.String("job_id", job.ID), slog.String("trigger", job.Trigger))

	res, err := s.runSafely(job)

	s.mu.Lock()
	finished := s.now().UTC()
	job.FinishedAt = &finished
	job.Result = &res
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
	} else {
		job.Status = JobSucceeded
	}
	s.running = nil
	close(job.done)
	s.mu.Unlock()

	s.log.Info("ingestion job finished",
		slog.String("job_id", job.ID),
		slog.String("status", job.Status),
		slog.Duration("elapsed", finished.Sub(job.StartedAt)),
	)
}

func (s *Scheduler) runSafely(job *Job) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("ingestion job panicked", slog.String("job_id", job.ID), slog.Any("panic", r))
			err = errors.New("ingestion job panicked")
		}
	}()
	return s.runner.Run(s.baseCtx, nil)
}

func (s *Scheduler) snapshot(job *Job) Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *job
}

func (s *Scheduler) Job(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, server.WrapErrorf(nil, server.ErrNotFound, "ingestion job %s not found", id)
	}
	return *job, nil
}

// LastJob job terakhir yang dimulai, ok=false kalau belum ada.
func (s *Scheduler) LastJob() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return Job{}, false
	}
	return *s.jobs[s.order[len(s.order)-1]], true
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running != nil
}

// Stop batalkan siklus yang sedang berjalan dan tunggu semua goroutine selesai.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}
