package render

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/akhenakh/vectormap/compose"
)

// JobState lifecycle of an export
type JobState uint8

const (
	JobRunning JobState = iota
	JobFinished
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobRunning:
		return "running"
	case JobFinished:
		return "finished"
	default:
		return "failed"
	}
}

// Job a background export
type Job struct {
	Started time.Time

	done chan struct{}

	mu       sync.Mutex
	err      error
	finished time.Time
}

// Export runs fn in its own goroutine and returns immediately.
// ctx is passed to fn, cancelling it is up to fn to honor.
func Export(ctx context.Context, logger log.Logger, fn func(ctx context.Context) error) *Job {
	j := &Job{
		Started: time.Now(),
		done:    make(chan struct{}),
	}

	go func() {
		err := fn(ctx)

		j.mu.Lock()
		j.err = err
		j.finished = time.Now()
		j.mu.Unlock()
		close(j.done)

		if err != nil {
			level.Error(logger).Log("msg", "export failed", "error", err)
			return
		}
		level.Info(logger).Log("msg", "export finished", "duration", j.finished.Sub(j.Started))
	}()

	return j
}

// Done is closed once the export has finished or failed
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the export completes or ctx is done
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return j.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the export error, nil while running
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// State returns the current state
func (j *Job) State() JobState {
	select {
	case <-j.done:
	default:
		return JobRunning
	}
	if j.Err() != nil {
		return JobFailed
	}
	return JobFinished
}

// Duration returns how long the export ran, or has been running
func (j *Job) Duration() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.finished.IsZero() {
		return time.Since(j.Started)
	}
	return j.finished.Sub(j.Started)
}

// WriteFile emits f through the sink returned by newSink into the file at path.
// Every failure is an *ExportError.
func WriteFile(path string, f *compose.Frame, newSink func(w io.Writer) compose.Sink) error {
	out, err := os.Create(path)
	if err != nil {
		return &ExportError{Op: "create", Path: path, Err: err}
	}

	if err := f.Emit(newSink(out)); err != nil {
		out.Close()
		return &ExportError{Op: "write", Path: path, Err: err}
	}

	if err := out.Close(); err != nil {
		return &ExportError{Op: "close", Path: path, Err: err}
	}
	return nil
}
