package zipwright

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Result is one element of the run's output sequence: an entry, or the
// error that failed its task. Per-file failures never stop the run.
type Result struct {
	Name  string
	Entry *Entry
	Err   error
}

// Run schedules the tasks over a bounded worker pool and returns the
// results as they complete, in no particular order. The channel closes
// when all dispatched work has finished.
//
// Results are produced lazily: the channel is unbuffered, so workers pace
// themselves against the consumer. Cancelling the context drops tasks that
// have not been dispatched and aborts in-flight tasks at their next chunk
// boundary; aborted tasks emit nothing. A cancelled run cannot be
// restarted, but every emitted entry remains valid.
func (e *Engine) Run(ctx context.Context, tasks []FileTask) <-chan Result {
	results := make(chan Result)

	pool, err := ants.NewPool(e.config.Workers)
	if err != nil {
		go func() {
			defer close(results)
			select {
			case results <- Result{Err: fmt.Errorf("zipwright: start pool: %w", err)}:
			case <-ctx.Done():
			}
		}()
		return results
	}

	e.log.Debug().Int("tasks", len(tasks)).Int("workers", e.config.Workers).Msg("run started")

	go func() {
		defer close(results)
		defer pool.Release()

		var wg sync.WaitGroup
		for _, task := range tasks {
			if ctx.Err() != nil {
				break
			}
			task := task
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				e.runTask(ctx, task, results)
			}); err != nil {
				wg.Done()
				select {
				case results <- Result{Name: task.Name, Err: fmt.Errorf("zipwright: submit %s: %w", task.Name, err)}:
				case <-ctx.Done():
				}
			}
		}
		wg.Wait()
		e.log.Debug().Msg("run finished")
	}()

	return results
}

func (e *Engine) runTask(ctx context.Context, task FileTask, results chan<- Result) {
	entry, err := e.Compress(ctx, task)
	if err != nil {
		if isCancellation(err) {
			// Aborted mid-file: no partial output, nothing to report.
			return
		}
		select {
		case results <- Result{Name: task.Name, Err: err}:
		case <-ctx.Done():
		}
		return
	}

	select {
	case results <- Result{Name: task.Name, Entry: entry}:
	case <-ctx.Done():
		// Consumer is gone; release the payload.
		entry.Close()
	}
}
