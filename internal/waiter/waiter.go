package waiter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sourcegraph/conc/pool"

	"eectl/internal/domain"
	"eectl/internal/logger"
)

const (
	// pollInterval is the maximum pause between status checks. The
	// actual pause is clamped to the remaining time so a wait never
	// oversleeps its deadline.
	pollInterval = 10 * time.Second

	// progressInterval is the minimum spacing of progress report lines.
	progressInterval = 30 * time.Second
)

// StatusService is the slice of the remote API the waiters need.
type StatusService interface {
	GetTaskStatus(ctx context.Context, ids []string) ([]domain.TaskStatus, error)
}

// Waiter blocks until remote tasks reach a terminal state or a timeout
// expires. Report lines go to out; diagnostics go to the logger.
type Waiter struct {
	svc StatusService
	out io.Writer
	log *logger.Logger

	// Overridable in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

func New(svc StatusService, out io.Writer, log *logger.Logger) *Waiter {
	if log == nil {
		log = logger.Nop()
	}
	return &Waiter{
		svc:   svc,
		out:   out,
		log:   log,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// WaitForTask polls one task until it reaches a terminal state or the
// timeout expires. Expiry is a normal outcome reported on out, not an
// error; only a failed status fetch returns one. A zero or negative
// timeout still performs a single status check.
func (w *Waiter) WaitForTask(ctx context.Context, id string, timeout time.Duration, logProgress bool) error {
	start := w.now()
	var elapsed time.Duration
	lastProgress := time.Duration(0)

	for {
		elapsed = w.now().Sub(start)

		statuses, err := w.svc.GetTaskStatus(ctx, []string{id})
		if err != nil {
			return err
		}
		status := statuses[0]

		if status.State.Terminal() {
			fmt.Fprintf(w.out, "Task %s ended at state: %s after %.2f seconds\n",
				id, status.State, elapsed.Seconds())
			if status.ErrorMessage != "" {
				fmt.Fprintf(w.out, "Error: %s\n", status.ErrorMessage)
			}
			return nil
		}

		if logProgress && elapsed-lastProgress >= progressInterval {
			fmt.Fprintf(w.out, "[%s] Current state for task %s: %s\n",
				w.now().Format("15:04:05"), id, status.State)
			lastProgress = elapsed
		}

		remaining := timeout - elapsed
		if remaining <= 0 {
			break
		}
		w.sleep(min(pollInterval, remaining))
	}

	fmt.Fprintf(w.out, "Wait for task %s timed out after %.2f seconds\n", id, elapsed.Seconds())
	return nil
}

// WaitForTasks waits for every task in ids, then reports a tally of
// their final states. A single id delegates straight to WaitForTask.
// Otherwise one worker per id runs the full single-task algorithm on
// its own timer; a fetch failure ends only that worker's wait, the
// rest run to their own conclusion. All workers are joined before the
// bulk status fetch and summary.
func (w *Waiter) WaitForTasks(ctx context.Context, ids []string, timeout time.Duration, logProgress bool) error {
	if len(ids) == 1 {
		return w.WaitForTask(ctx, ids[0], timeout, logProgress)
	}

	w.log.Debugw("waiting for tasks", "count", len(ids), "timeout", timeout)

	p := pool.New().WithErrors()
	for _, id := range ids {
		id := id // per-iteration copy for Go <1.22 loop semantics
		p.Go(func() error {
			return w.WaitForTask(ctx, id, timeout, logProgress)
		})
	}
	waitErr := p.Wait()
	if waitErr != nil {
		w.log.Warnw("one or more waits ended early", "error", waitErr)
	}

	statuses, err := w.svc.GetTaskStatus(ctx, ids)
	if err != nil {
		return err
	}

	counts := make(map[domain.TaskState]int)
	for _, status := range statuses {
		counts[status.State]++
	}
	incomplete := len(statuses) -
		counts[domain.StateCompleted] -
		counts[domain.StateFailed] -
		counts[domain.StateCancelled]

	fmt.Fprintf(w.out, "Finished waiting for tasks.\n  Status summary:\n")
	fmt.Fprintf(w.out, "  %d tasks completed successfully.\n", counts[domain.StateCompleted])
	fmt.Fprintf(w.out, "  %d tasks failed.\n", counts[domain.StateFailed])
	fmt.Fprintf(w.out, "  %d tasks cancelled.\n", counts[domain.StateCancelled])
	fmt.Fprintf(w.out, "  %d tasks are still incomplete (timed-out)\n", incomplete)

	return waitErr
}
