package zapcard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QueueConfig bounds how many automation sessions run at once and how many
// may wait behind them.
type QueueConfig struct {
	MaxConcurrency int `yaml:"max_concurrency"`
	MaxQueueSize   int `yaml:"max_queue_size"`
	TaskTimeoutMs  int `yaml:"task_timeout_ms"`

	// CancelOnTimeout cancels the task's context when its deadline fires.
	// Off by default: the original behavior lets an in-flight browser session
	// run to completion in the background rather than tearing it down
	// mid-navigation, at the cost of the session's resources. Opting in
	// trades that for prompt cleanup.
	CancelOnTimeout bool `yaml:"cancel_on_timeout"`
}

func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxConcurrency:  2,
		MaxQueueSize:    10,
		TaskTimeoutMs:   300000,
		CancelOnTimeout: false,
	}
}

// TaskFunc is one unit of queued work. The context is the queue's: it is
// cancelled on timeout only when CancelOnTimeout is set.
type TaskFunc func(ctx context.Context) (interface{}, error)

// Task is the caller's handle on a submitted operation.
type Task struct {
	ID uuid.UUID

	fn     TaskFunc
	done   chan struct{}
	result interface{}
	err    error
}

// Done is closed once the task has an outcome (including timeout).
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task settles or ctx is done.
func (t *Task) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Task) settle(result interface{}, err error) {
	t.result = result
	t.err = err
	close(t.done)
}

// QueueStats is a point-in-time snapshot for status reporting.
type QueueStats struct {
	Active  int  `json:"activeCount"`
	Pending int  `json:"pendingCount"`
	Paused  bool `json:"isPaused"`
}

// TaskQueue admits tasks FIFO and runs at most MaxConcurrency of them at a
// time. Submissions beyond MaxQueueSize pending entries are rejected
// synchronously with ErrQueueFull. Each started task races a per-task
// timeout; if the timeout wins, the caller sees ErrTaskTimeout and the slot
// is freed, while the underlying operation keeps running detached (its
// eventual result is discarded) unless CancelOnTimeout is set.
type TaskQueue struct {
	cfg QueueConfig
	log zerolog.Logger

	// Observer hooks, replacing the ad-hoc event emitter the queue grew out
	// of. All optional; invoked outside the lock.
	OnTaskStarted func(id uuid.UUID)
	OnTaskError   func(id uuid.UUID, err error)
	OnDrained     func()

	mu      sync.Mutex
	pending []*Task
	active  int
	paused  bool
}

func NewTaskQueue(cfg QueueConfig, log zerolog.Logger) *TaskQueue {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	return &TaskQueue{cfg: cfg, log: log}
}

// Enqueue submits fn. It returns ErrQueueFull without starting anything when
// the pending list is at capacity.
func (q *TaskQueue) Enqueue(fn TaskFunc) (*Task, error) {
	task := &Task{
		ID:   uuid.New(),
		fn:   fn,
		done: make(chan struct{}),
	}

	q.mu.Lock()
	if len(q.pending) >= q.cfg.MaxQueueSize {
		q.mu.Unlock()
		q.log.Warn().Int("max", q.cfg.MaxQueueSize).Msg("queue full, rejecting task")
		return nil, ErrQueueFull
	}
	q.pending = append(q.pending, task)
	q.mu.Unlock()

	q.dispatch()
	return task, nil
}

// dispatch starts pending tasks while free slots remain. Called on enqueue,
// on task completion and on resume.
func (q *TaskQueue) dispatch() {
	for {
		q.mu.Lock()
		if q.paused || q.active >= q.cfg.MaxConcurrency || len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		task := q.pending[0]
		q.pending = q.pending[1:]
		q.active++
		q.mu.Unlock()

		if q.OnTaskStarted != nil {
			q.OnTaskStarted(task.ID)
		}
		go q.run(task)
	}
}

func (q *TaskQueue) run(task *Task) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if q.cfg.CancelOnTimeout {
		ctx, cancel = context.WithCancel(ctx)
	}

	type outcome struct {
		result interface{}
		err    error
	}
	outcomes := make(chan outcome, 1)

	go func() {
		result, err := task.fn(ctx)
		outcomes <- outcome{result, err}
	}()

	timeout := time.Duration(q.cfg.TaskTimeoutMs) * time.Millisecond
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-outcomes:
		if cancel != nil {
			cancel()
		}
		task.settle(out.result, out.err)
		if out.err != nil && q.OnTaskError != nil {
			q.OnTaskError(task.ID, out.err)
		}
	case <-timer.C:
		q.log.Warn().Stringer("task", task.ID).Dur("timeout", timeout).
			Msg("task deadline exceeded, discarding its result")
		if cancel != nil {
			cancel()
		}
		task.settle(nil, ErrTaskTimeout)
		if q.OnTaskError != nil {
			q.OnTaskError(task.ID, ErrTaskTimeout)
		}
	}

	q.mu.Lock()
	q.active--
	drained := q.active == 0 && len(q.pending) == 0
	q.mu.Unlock()

	if drained && q.OnDrained != nil {
		q.OnDrained()
	}
	q.dispatch()
}

// Pause stops new tasks from starting. Running tasks are unaffected.
func (q *TaskQueue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
}

// Resume re-enables dispatch and drains any backlog into free slots.
func (q *TaskQueue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.mu.Unlock()
	q.dispatch()
}

func (q *TaskQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Active:  q.active,
		Pending: len(q.pending),
		Paused:  q.paused,
	}
}
