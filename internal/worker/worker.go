package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lexsearch/lexsearch-core/internal/core/domain"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driven"
	"github.com/lexsearch/lexsearch-core/internal/core/ports/driving"
)

// schedulerLockName is the distributed lock guarding one tick
const schedulerLockName = "index-scheduler"

// Ensure Worker implements JobController
var _ driving.JobController = (*Worker)(nil)

var (
	errCancelled    = errors.New("job cancelled")
	errJobTimeout   = errors.New("job timed out")
	errShuttingDown = errors.New("worker shutting down")
)

// Worker schedules and executes index jobs.
// At most one job runs at a time; ticks that find the slot occupied are skipped.
type Worker struct {
	index     driving.IndexService
	schedules driven.ScheduleStore
	jobs      driven.JobStore
	cron      driven.CronParser
	lock      driven.DistributedLock
	publisher driven.JobEventPublisher
	logger    *slog.Logger
	now       func() time.Time

	// Configuration
	interval   time.Duration
	jobTimeout time.Duration
	lockTTL    time.Duration
	recentJobs int

	// Internal state
	mu      sync.RWMutex
	running bool
	state   domain.WorkerState
	active  *activeJob
	stopCh  chan struct{}
	doneCh  chan struct{}

	// baseCtx parents every job context and is cancelled on Stop
	baseCtx    context.Context
	baseCancel context.CancelCauseFunc
	jobsWG     sync.WaitGroup

	subsMu  sync.RWMutex
	subs    map[int]chan domain.JobEvent
	nextSub int
}

// activeJob is the occupant of the single execution slot
type activeJob struct {
	job       *domain.IndexJob
	cancel    context.CancelCauseFunc
	done      chan struct{}
	cancelled bool
}

// Config holds configuration for the worker.
type Config struct {
	IndexService driving.IndexService
	Schedules    driven.ScheduleStore
	Jobs         driven.JobStore
	Cron         driven.CronParser
	Lock         driven.DistributedLock   // Optional: guards ticks across replicas
	Publisher    driven.JobEventPublisher // Optional: forwards lifecycle events
	Logger       *slog.Logger
	TickInterval time.Duration // How often schedules are checked (default: 1m)
	JobTimeout   time.Duration // Watchdog per job (default: 2h)
	LockTTL      time.Duration // TTL of the tick lock (default: TickInterval)
	RecentJobs   int           // Jobs listed by Status (default: 10)
	Now          func() time.Time
}

// New creates a new index worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = time.Minute
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 2 * time.Hour
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = interval
	}
	recent := cfg.RecentJobs
	if recent <= 0 {
		recent = 10
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	baseCtx, baseCancel := context.WithCancelCause(context.Background())
	return &Worker{
		index:      cfg.IndexService,
		schedules:  cfg.Schedules,
		jobs:       cfg.Jobs,
		cron:       cfg.Cron,
		lock:       cfg.Lock,
		publisher:  cfg.Publisher,
		logger:     logger.With("component", "index_worker"),
		now:        now,
		interval:   interval,
		jobTimeout: jobTimeout,
		lockTTL:    lockTTL,
		recentJobs: recent,
		state:      domain.WorkerStateIdle,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		subs:       make(map[int]chan domain.JobEvent),
	}
}

// Start begins the scheduling loop. Jobs left running by a previous
// process are marked failed first.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	if n, err := w.jobs.FailStale(ctx, "interrupted by worker restart", w.now().UTC()); err != nil {
		w.logger.Warn("failed to recover stale jobs", "error", err)
	} else if n > 0 {
		w.logger.Warn("marked stale running jobs as failed", "count", n)
	}

	w.logger.Info("index worker starting", "tick_interval", w.interval, "job_timeout", w.jobTimeout)

	go w.run(ctx)

	return nil
}

// Stop stops the loop, cancels the active job and waits for it to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	if wasRunning {
		close(w.stopCh)
	}
	w.mu.Unlock()

	if wasRunning {
		<-w.doneCh
	}

	w.baseCancel(errShuttingDown)
	w.jobsWG.Wait()

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.subsMu.Lock()
	for id, ch := range w.subs {
		close(ch)
		delete(w.subs, id)
	}
	w.subsMu.Unlock()

	w.logger.Info("index worker stopped")
}

// run is the main scheduling loop.
func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run immediately on start
	w.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("index worker context cancelled")
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick checks enabled schedules and starts at most one due job.
// A busy slot makes the tick a no-op; skipped schedules are picked up later.
func (w *Worker) Tick(ctx context.Context) {
	w.mu.Lock()
	if w.active != nil {
		w.mu.Unlock()
		w.logger.Debug("job in progress, skipping tick")
		return
	}
	w.state = domain.WorkerStateChecking
	w.mu.Unlock()

	started := false
	defer func() {
		if !started {
			w.setIdleIfFree()
		}
	}()

	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx, schedulerLockName, w.lockTTL)
		if err != nil {
			w.logger.Warn("failed to acquire scheduler lock, skipping tick", "error", err)
			return
		}
		if !acquired {
			w.logger.Debug("scheduler lock held by another instance, skipping tick")
			return
		}
		defer func() {
			if err := w.lock.Release(ctx, schedulerLockName); err != nil {
				w.logger.Warn("failed to release scheduler lock", "error", err)
			}
		}()
	}

	schedules, err := w.schedules.ListEnabled(ctx)
	if err != nil {
		w.logger.Error("failed to list schedules", "error", err)
		return
	}

	now := w.now().UTC()
	for _, sched := range schedules {
		due, err := w.isDue(sched, now)
		if err != nil {
			w.logger.Warn("skipping schedule with invalid cron expression",
				"schedule_id", sched.ID,
				"cron", sched.CronExpression,
				"error", err,
			)
			continue
		}
		if !due {
			continue
		}

		job, err := w.start(ctx, sched.ID, sched.Type)
		if errors.Is(err, domain.ErrJobRunning) {
			return
		}
		if err != nil {
			w.logger.Error("failed to start scheduled job", "schedule_id", sched.ID, "error", err)
			continue
		}
		started = true

		if err := w.schedules.UpdateLastRun(ctx, sched.ID, now); err != nil {
			w.logger.Warn("failed to record schedule last run", "schedule_id", sched.ID, "error", err)
		}
		w.logger.Info("started scheduled job",
			"schedule_id", sched.ID,
			"schedule", sched.Name,
			"job_id", job.ID,
			"type", job.Type,
		)
		return
	}
}

// isDue reports whether the first activation after the schedule's anchor has passed.
func (w *Worker) isDue(sched *domain.Schedule, now time.Time) (bool, error) {
	next, err := w.cron.Next(sched.CronExpression, sched.Anchor())
	if err != nil {
		return false, err
	}
	return !next.After(now), nil
}

// Trigger starts a manual job and returns once it is recorded as running.
func (w *Worker) Trigger(ctx context.Context, jobType domain.JobType) (*domain.IndexJob, error) {
	if !jobType.IsValid() {
		return nil, domain.NewValidationError("type", "must be full or incremental")
	}
	job, err := w.start(ctx, domain.ManualScheduleID, jobType)
	if err != nil {
		return nil, err
	}
	w.logger.Info("started manual job", "job_id", job.ID, "type", job.Type)
	return job, nil
}

// RunNow starts a manual job and blocks until it reaches a terminal status.
func (w *Worker) RunNow(ctx context.Context, jobType domain.JobType) (*domain.IndexJob, error) {
	job, err := w.Trigger(ctx, jobType)
	if err != nil {
		return nil, err
	}

	w.mu.RLock()
	var done chan struct{}
	if w.active != nil && w.active.job.ID == job.ID {
		done = w.active.done
	}
	w.mu.RUnlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return w.jobs.Get(context.WithoutCancel(ctx), job.ID)
}

// start reserves the execution slot, records the job and runs it in the background.
func (w *Worker) start(ctx context.Context, scheduleID string, jobType domain.JobType) (*domain.IndexJob, error) {
	job := domain.NewIndexJob(scheduleID, jobType)
	job.StartedAt = w.now().UTC()

	jobCtx, cancel := context.WithCancelCause(w.baseCtx)
	active := &activeJob{job: job, cancel: cancel, done: make(chan struct{})}

	w.mu.Lock()
	if w.active != nil {
		w.mu.Unlock()
		cancel(nil)
		return nil, domain.ErrJobRunning
	}
	w.active = active
	w.state = domain.WorkerStateExecuting
	w.mu.Unlock()

	if err := w.jobs.Create(ctx, job); err != nil {
		cancel(nil)
		w.release(active)
		return nil, fmt.Errorf("create job: %w", err)
	}

	w.emit(ctx, domain.NewJobEvent(domain.JobEventStarted, job))

	w.jobsWG.Add(1)
	go w.execute(jobCtx, active)

	snapshot := *job
	return &snapshot, nil
}

// execute runs the job and records exactly one terminal status.
func (w *Worker) execute(jobCtx context.Context, active *activeJob) {
	job := active.job
	logger := w.logger.With("job_id", job.ID, "schedule_id", job.ScheduleID, "type", job.Type)

	runCtx, cancelTimeout := context.WithTimeoutCause(jobCtx, w.jobTimeout, errJobTimeout)
	bookCtx := context.WithoutCancel(jobCtx)

	defer func() {
		cancelTimeout()
		active.cancel(nil)
		w.release(active)
		w.jobsWG.Done()
	}()

	var (
		result *domain.IndexRunResult
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		result, err = w.index.Run(runCtx, job.Type, func(processed, total int, progress float64) {
			w.recordProgress(bookCtx, logger, job, processed, total)
		})
	}()

	status, errMsg := w.outcome(runCtx, result, err)
	finishedAt := w.now().UTC()
	ok, ferr := w.jobs.Finish(bookCtx, job.ID, status, errMsg, finishedAt)
	if ferr != nil {
		logger.Error("failed to record job outcome", "status", status, "error", ferr)
		return
	}
	if !ok {
		logger.Info("job already finished, outcome discarded", "status", status)
		return
	}

	w.mu.Lock()
	_ = job.Finish(status, errMsg, finishedAt)
	event := domain.NewJobEvent(eventFor(status), job)
	if job.Processed != nil {
		event.Processed = *job.Processed
	}
	if job.TotalItems != nil {
		event.Total = *job.TotalItems
	}
	w.mu.Unlock()
	event.Error = errMsg
	w.emit(bookCtx, event)

	switch status {
	case domain.JobStatusCompleted:
		logger.Info("job completed", "duration", job.Duration(), "warnings", errMsg)
	case domain.JobStatusCancelled:
		logger.Info("job cancelled", "duration", job.Duration())
	default:
		logger.Error("job failed", "duration", job.Duration(), "error", errMsg)
	}
}

// outcome maps the run result and the job context's cancel cause to a terminal status.
func (w *Worker) outcome(runCtx context.Context, result *domain.IndexRunResult, err error) (domain.JobStatus, string) {
	if err == nil {
		return domain.JobStatusCompleted, result.WarningSummary()
	}
	cause := context.Cause(runCtx)
	switch {
	case errors.Is(cause, errCancelled):
		return domain.JobStatusCancelled, ""
	case errors.Is(cause, errJobTimeout):
		return domain.JobStatusFailed, fmt.Sprintf("job timed out after %s", w.jobTimeout)
	case errors.Is(cause, errShuttingDown):
		return domain.JobStatusFailed, errShuttingDown.Error()
	}
	return domain.JobStatusFailed, err.Error()
}

// recordProgress persists the job counters. The in-memory job is shared with
// Status readers and is only mutated under w.mu.
func (w *Worker) recordProgress(ctx context.Context, logger *slog.Logger, job *domain.IndexJob, processed, total int) {
	w.mu.Lock()
	totalChanged := job.TotalItems == nil || *job.TotalItems != total
	if totalChanged {
		job.SetTotal(total)
	}
	job.RecordProgress(processed)
	event := domain.NewJobEvent(domain.JobEventProgress, job)
	event.Processed = *job.Processed
	event.Total = total
	event.Progress = *job.Progress
	w.mu.Unlock()

	if totalChanged {
		if err := w.jobs.SetTotal(ctx, job.ID, total); err != nil {
			logger.Warn("failed to record job total", "error", err)
		}
	}
	if err := w.jobs.UpdateProgress(ctx, job.ID, event.Processed, event.Progress); err != nil {
		logger.Warn("failed to record job progress", "error", err)
	}

	w.emit(ctx, event)
	logger.Debug("job progress", "processed", event.Processed, "total", total, "progress", event.Progress)
}

// CancelJob cancels the active job. It returns false when jobID is not the active job.
func (w *Worker) CancelJob(ctx context.Context, jobID string) (bool, error) {
	w.mu.Lock()
	active := w.active
	if active == nil || active.job.ID != jobID || active.cancelled {
		w.mu.Unlock()
		return false, nil
	}
	active.cancelled = true
	w.mu.Unlock()

	active.cancel(errCancelled)

	ok, err := w.jobs.Finish(ctx, jobID, domain.JobStatusCancelled, "", w.now().UTC())
	if err != nil {
		return false, fmt.Errorf("record cancellation: %w", err)
	}
	if !ok {
		return false, nil
	}

	w.emit(ctx, domain.NewJobEvent(domain.JobEventCancelled, active.job))
	w.logger.Info("job cancelled by operator", "job_id", jobID)
	return true, nil
}

// Status returns the worker snapshot.
func (w *Worker) Status(ctx context.Context) (*domain.WorkerStatus, error) {
	w.mu.RLock()
	status := &domain.WorkerStatus{IsRunning: w.active != nil, State: w.state}
	var activeID string
	var snapshot domain.IndexJob
	if w.active != nil {
		activeID = w.active.job.ID
		snapshot = *w.active.job
	}
	w.mu.RUnlock()

	if activeID != "" {
		job, err := w.jobs.Get(ctx, activeID)
		if err != nil {
			w.logger.Warn("failed to load active job", "job_id", activeID, "error", err)
			job = &snapshot
		}
		status.ActiveJob = job
	}

	recent, err := w.jobs.ListRecent(ctx, w.recentJobs)
	if err != nil {
		return nil, fmt.Errorf("list recent jobs: %w", err)
	}
	status.RecentJobs = recent

	stats, err := w.index.GetIndexStats(ctx)
	if err != nil {
		w.logger.Warn("failed to load index stats", "error", err)
		stats = []*domain.IndexStatus{}
	}
	status.IndexStats = stats
	return status, nil
}

// ScheduleStatus returns the runtime state of one schedule.
func (w *Worker) ScheduleStatus(ctx context.Context, scheduleID string) (*domain.ScheduleStatus, error) {
	sched, err := w.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	next, err := w.cron.Next(sched.CronExpression, w.now())
	if err != nil {
		return nil, err
	}
	sched.NextRun = &next

	last, err := w.jobs.LastForSchedule(ctx, scheduleID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	w.mu.RLock()
	running := w.active != nil && w.active.job.ScheduleID == scheduleID
	w.mu.RUnlock()

	return &domain.ScheduleStatus{
		Schedule:  sched,
		NextRun:   next,
		LastJob:   last,
		IsRunning: running,
	}, nil
}

// State returns the current scheduling state.
func (w *Worker) State() domain.WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Subscribe registers a listener for job lifecycle events. Events are dropped
// for listeners whose buffer is full. The returned func unsubscribes.
func (w *Worker) Subscribe(buffer int) (<-chan domain.JobEvent, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan domain.JobEvent, buffer)

	w.subsMu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch
	w.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.subsMu.Lock()
			if c, ok := w.subs[id]; ok {
				close(c)
				delete(w.subs, id)
			}
			w.subsMu.Unlock()
		})
	}
}

func (w *Worker) emit(ctx context.Context, event domain.JobEvent) {
	w.subsMu.RLock()
	for _, ch := range w.subs {
		select {
		case ch <- event:
		default:
		}
	}
	w.subsMu.RUnlock()

	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, event); err != nil {
			w.logger.Warn("failed to publish job event", "job_id", event.JobID, "event", event.Type, "error", err)
		}
	}
}

// release frees the slot if it is still held by active.
func (w *Worker) release(active *activeJob) {
	w.mu.Lock()
	if w.active == active {
		w.active = nil
		w.state = domain.WorkerStateIdle
	}
	w.mu.Unlock()
	close(active.done)
}

func (w *Worker) setIdleIfFree() {
	w.mu.Lock()
	if w.active == nil {
		w.state = domain.WorkerStateIdle
	}
	w.mu.Unlock()
}

func eventFor(status domain.JobStatus) domain.JobEventType {
	switch status {
	case domain.JobStatusCompleted:
		return domain.JobEventCompleted
	case domain.JobStatusCancelled:
		return domain.JobEventCancelled
	default:
		return domain.JobEventFailed
	}
}
