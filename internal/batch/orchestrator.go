package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/casefile/internal/versions"
)

// Orchestrator runs batch jobs against an Uploader.
type Orchestrator struct {
	uploader    Uploader
	limit       int
	fileTimeout time.Duration
	logger      *slog.Logger
}

// New creates an orchestrator using cfg's concurrency limit and per-file timeout.
func New(uploader Uploader, cfg *Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		uploader:    uploader,
		limit:       max(cfg.Concurrency, 1),
		fileTimeout: cfg.FileTimeoutDuration(),
		logger:      logger.With("system", "batch"),
	}
}

// JobOption customizes a Job.
type JobOption func(*Job)

// WithLimit overrides the concurrency limit for one job.
func WithLimit(n int) JobOption {
	return func(j *Job) {
		if n > 0 {
			j.limit = n
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) JobOption {
	return func(j *Job) { j.progress = fn }
}

// Upload runs a job for files and blocks until every file is terminal.
func (o *Orchestrator) Upload(ctx context.Context, files []File, opts ...JobOption) Report {
	return o.NewJob(files, opts...).Run(ctx)
}

// Job is one transient multi-file upload. It is not persisted; only the
// versions it creates are.
type Job struct {
	o        *Orchestrator
	files    []File
	limit    int
	progress ProgressFunc

	mu      sync.Mutex
	state   JobState
	tickets []Ticket
}

// NewJob creates an idle job with one pending ticket per file.
func (o *Orchestrator) NewJob(files []File, opts ...JobOption) *Job {
	j := &Job{
		o:       o,
		files:   files,
		limit:   o.limit,
		state:   JobIdle,
		tickets: make([]Ticket, len(files)),
	}
	for i, f := range files {
		j.tickets[i] = Ticket{Index: i, Filename: f.Meta.Filename, Status: TicketPending}
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// State returns the job state.
func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Tickets returns a snapshot of every ticket.
func (j *Job) Tickets() []Ticket {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Ticket, len(j.tickets))
	copy(out, j.tickets)
	return out
}

// Run uploads every file with at most limit uploads in flight and returns
// results in input order. A failed file never stops its siblings.
//
// Cancelling ctx rejects files not yet started with ErrCanceled. Uploads
// already in flight run to completion, bounded by the per-file timeout, and
// keep their results.
func (j *Job) Run(ctx context.Context) Report {
	j.mu.Lock()
	if j.state != JobIdle {
		j.mu.Unlock()
		return Report{Results: j.rejectAll(fmt.Errorf("%w: job already started", versions.ErrInvalidState))}
	}
	j.state = JobRunning
	j.mu.Unlock()

	start := time.Now()
	results := make([]Result, len(j.files))

	tasks := make(chan int, len(j.files))
	for i := range j.files {
		tasks <- i
	}
	close(tasks)

	var wg sync.WaitGroup
	for range min(j.limit, len(j.files)) {
		wg.Go(func() {
			j.worker(ctx, tasks, results)
		})
	}
	wg.Wait()

	j.mu.Lock()
	j.state = JobCompleted
	j.mu.Unlock()

	report := Report{Results: results}
	jobsTotal.WithLabelValues(string(report.Outcome())).Inc()
	j.o.logger.Info("batch completed",
		"files", len(results),
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"outcome", report.Outcome(),
		"duration", time.Since(start),
	)
	return report
}

func (j *Job) worker(ctx context.Context, tasks <-chan int, results []Result) {
	for idx := range tasks {
		if err := ctx.Err(); err != nil {
			results[idx] = j.reject(idx, fmt.Errorf("%w: %v", versions.ErrCanceled, err))
			continue
		}
		results[idx] = j.uploadOne(ctx, idx)
	}
}

func (j *Job) uploadOne(ctx context.Context, idx int) (result Result) {
	f := j.files[idx]
	start := time.Now()

	uploadsInFlight.Inc()
	defer uploadsInFlight.Dec()
	defer func() {
		uploadDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			j.o.logger.Error("upload panicked", "index", idx, "filename", f.Meta.Filename, "panic", r)
			result = j.reject(idx, fmt.Errorf("upload panicked: %v", r))
		}
	}()

	j.update(idx, func(t *Ticket) { t.Status = TicketUploading })

	fctx := context.WithoutCancel(ctx)
	if j.o.fileTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(fctx, j.o.fileTimeout)
		defer cancel()
	}

	if f.Prepare != nil {
		meta, err := f.Prepare(fctx, f.Meta)
		if err != nil {
			return j.reject(idx, err)
		}
		f.Meta = meta
	}

	if f.Open == nil {
		return j.reject(idx, fmt.Errorf("%w: file has no content", versions.ErrValidation))
	}
	rc, err := f.Open()
	if err != nil {
		return j.reject(idx, fmt.Errorf("open %s: %w", f.Meta.Filename, err))
	}
	defer rc.Close()

	content := newProgressReader(rc, f.Meta.SizeBytes, func(percent int) {
		j.advance(idx, percent)
	})

	v, err := j.o.uploader.RecordUpload(fctx, versions.UploadCommand{
		Slot:     f.Slot,
		File:     f.Meta,
		Notes:    f.Notes,
		Uploader: f.Uploader,
		Content:  content,
	})
	if err != nil {
		if errors.Is(fctx.Err(), context.DeadlineExceeded) && !errors.Is(err, versions.ErrTimeout) {
			err = fmt.Errorf("%w: %v", versions.ErrTimeout, err)
		}
		return j.reject(idx, err)
	}

	j.advance(idx, 100)
	j.update(idx, func(t *Ticket) { t.Status = TicketSuccess })
	uploadsTotal.WithLabelValues(string(TicketSuccess)).Inc()

	return Result{Index: idx, Filename: f.Meta.Filename, Version: v}
}

func (j *Job) reject(idx int, err error) Result {
	j.update(idx, func(t *Ticket) {
		t.Status = TicketError
		t.Error = err.Error()
	})
	uploadsTotal.WithLabelValues(string(TicketError)).Inc()
	j.o.logger.Warn("upload rejected", "index", idx, "filename", j.files[idx].Meta.Filename, "error", err)
	return Result{Index: idx, Filename: j.files[idx].Meta.Filename, Err: err}
}

func (j *Job) rejectAll(err error) []Result {
	out := make([]Result, len(j.files))
	for i, f := range j.files {
		out[i] = Result{Index: i, Filename: f.Meta.Filename, Err: err}
	}
	return out
}

func (j *Job) update(idx int, fn func(*Ticket)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.tickets[idx])
}

// advance raises the ticket's percent, never lowering it, and notifies the
// progress callback when the value changes.
func (j *Job) advance(idx, percent int) {
	percent = min(max(percent, 0), 100)

	j.mu.Lock()
	t := &j.tickets[idx]
	if percent <= t.Percent || t.Status.Terminal() {
		j.mu.Unlock()
		return
	}
	t.Percent = percent
	j.mu.Unlock()

	if j.progress != nil {
		j.progress(idx, percent)
	}
}
