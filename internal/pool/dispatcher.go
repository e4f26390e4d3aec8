package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-hailing/pkg/logger"
	"go.uber.org/zap"
)

// defaultReadinessTimeout bounds how long Dispatcher startup waits for every
// worker to signal READY.
const defaultReadinessTimeout = 10 * time.Second

// TaskKind discriminates the three task shapes the dispatcher accepts.
type TaskKind string

const (
	TaskMatchRide          TaskKind = "MATCH_RIDE"
	TaskRemoveUser         TaskKind = "REMOVE_USER"
	TaskRemoveUserFromTrip TaskKind = "REMOVE_USER_FROM_TRIP"
)

// MatchRideArgs is the payload for a TaskMatchRide task.
type MatchRideArgs struct {
	UserID  string
	DestLat float64
	DestLng float64
	Meta    RequestMetadata
}

// RemoveUserArgs is the payload for a TaskRemoveUser task.
type RemoveUserArgs struct {
	UserID string
}

// RemoveUserFromTripArgs is the payload for a TaskRemoveUserFromTrip task.
type RemoveUserFromTripArgs struct {
	TripEntryID string
	UserID      string
}

// TaskResult is what a worker returns once a task completes.
type TaskResult struct {
	Result *MatchResult
	Err    error
}

// task is an internal work item: an opaque id, the payload, and the
// response channel the submitter is blocked on.
type task struct {
	ID                 string
	Kind               TaskKind
	Ctx                context.Context
	MatchRide          MatchRideArgs
	RemoveUser         RemoveUserArgs
	RemoveUserFromTrip RemoveUserFromTripArgs
	Response           chan TaskResult
}

// WorkerContext bundles one worker's private Pool/Trip/Bus client handles
// and the Engine built from them. Constructed at worker start, never shared
// across workers -- worker-local clients, no process-wide globals.
type WorkerContext struct {
	WorkerID int
	Engine   *Engine
}

// WorkerFactory constructs one worker's private handles. Called once per
// worker at Dispatcher startup, concurrently with the other workers.
type WorkerFactory func(workerID int) (*WorkerContext, error)

// Dispatcher is a fixed-size worker pool: workers pull
// from a single shared queue round-robin (Go's channel scheduling already
// gives this), each owns private store handles, and shutdown rejects every
// outstanding task with WorkerPoolTerminated.
type Dispatcher struct {
	tasks chan *task
	done  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewDispatcher starts cfg.WorkerPoolSize workers, each built via factory,
// and blocks until every worker has signalled READY or readinessTimeout
// elapses. A zero readinessTimeout uses the package's 10s default.
func NewDispatcher(cfg Config, factory WorkerFactory, readinessTimeout time.Duration) (*Dispatcher, error) {
	if readinessTimeout <= 0 {
		readinessTimeout = defaultReadinessTimeout
	}
	size := cfg.WorkerPoolSize
	if size <= 0 {
		size = defaultWorkerPoolSize()
	}

	d := &Dispatcher{
		tasks: make(chan *task, size*4),
		done:  make(chan struct{}),
	}

	ready := make(chan error, size)
	for i := 0; i < size; i++ {
		d.wg.Add(1)
		go d.runWorker(i, factory, ready)
	}

	deadline := time.NewTimer(readinessTimeout)
	defer deadline.Stop()
	for i := 0; i < size; i++ {
		select {
		case err := <-ready:
			if err != nil {
				d.Shutdown()
				return nil, fmt.Errorf("worker pool init: %w", err)
			}
		case <-deadline.C:
			d.Shutdown()
			return nil, fmt.Errorf("worker pool init: readiness timeout after %s", readinessTimeout)
		}
	}

	logger.Info("pool task dispatcher ready", zap.Int("workers", size))
	return d, nil
}

func (d *Dispatcher) runWorker(id int, factory WorkerFactory, ready chan<- error) {
	defer d.wg.Done()

	wctx, err := factory(id)
	ready <- err
	if err != nil {
		logger.Error("pool worker failed to initialize", zap.Int("worker_id", id), zap.Error(err))
		return
	}

	for {
		select {
		case t, ok := <-d.tasks:
			if !ok {
				return
			}
			RecordDispatcherQueueDepth(len(d.tasks))
			d.execute(wctx, t)
		case <-d.done:
			return
		}
	}
}

func (d *Dispatcher) execute(wctx *WorkerContext, t *task) {
	var result TaskResult
	switch t.Kind {
	case TaskMatchRide:
		r, err := wctx.Engine.Match(t.Ctx, t.MatchRide.UserID, t.MatchRide.DestLat, t.MatchRide.DestLng, t.MatchRide.Meta)
		result = TaskResult{Result: r, Err: err}
	case TaskRemoveUser:
		err := wctx.Engine.RemoveUser(t.Ctx, t.RemoveUser.UserID)
		result = TaskResult{Err: err}
	case TaskRemoveUserFromTrip:
		err := wctx.Engine.RemoveUserFromTrip(t.Ctx, t.RemoveUserFromTrip.TripEntryID, t.RemoveUserFromTrip.UserID)
		result = TaskResult{Err: err}
	default:
		result = TaskResult{Err: fmt.Errorf("pool: unknown task kind %q", t.Kind)}
	}

	select {
	case t.Response <- result:
	default:
		logger.Warn("pool task submitter already gave up", zap.String("task_id", t.ID), zap.String("kind", string(t.Kind)))
	}
}

// submit enqueues a task and blocks for its result, honoring both the
// caller's context and dispatcher shutdown.
func (d *Dispatcher) submit(ctx context.Context, kind TaskKind, build func(t *task)) (*MatchResult, error) {
	t := &task{
		ID:       uuid.NewString(),
		Kind:     kind,
		Ctx:      ctx,
		Response: make(chan TaskResult, 1),
	}
	build(t)

	select {
	case d.tasks <- t:
		RecordDispatcherQueueDepth(len(d.tasks))
	case <-d.done:
		return nil, ErrWorkerPoolTerminated
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-t.Response:
		return res.Result, res.Err
	case <-d.done:
		return nil, ErrWorkerPoolTerminated
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// MatchRide submits a MATCH_RIDE task and waits for its result.
func (d *Dispatcher) MatchRide(ctx context.Context, userID string, destLat, destLng float64, meta RequestMetadata) (*MatchResult, error) {
	return d.submit(ctx, TaskMatchRide, func(t *task) {
		t.MatchRide = MatchRideArgs{UserID: userID, DestLat: destLat, DestLng: destLng, Meta: meta}
	})
}

// RemoveUser submits a REMOVE_USER task and waits for completion.
func (d *Dispatcher) RemoveUser(ctx context.Context, userID string) error {
	_, err := d.submit(ctx, TaskRemoveUser, func(t *task) {
		t.RemoveUser = RemoveUserArgs{UserID: userID}
	})
	return err
}

// RemoveUserFromTrip submits a REMOVE_USER_FROM_TRIP task and waits for completion.
func (d *Dispatcher) RemoveUserFromTrip(ctx context.Context, tripEntryID, userID string) error {
	_, err := d.submit(ctx, TaskRemoveUserFromTrip, func(t *task) {
		t.RemoveUserFromTrip = RemoveUserFromTripArgs{TripEntryID: tripEntryID, UserID: userID}
	})
	return err
}

// Shutdown stops accepting new work, waits for in-flight tasks to finish,
// and rejects every task still queued with WorkerPoolTerminated.
func (d *Dispatcher) Shutdown() {
	d.closeOnce.Do(func() {
		close(d.done)
	})
	d.wg.Wait()

	for {
		select {
		case t := <-d.tasks:
			t.Response <- TaskResult{Err: ErrWorkerPoolTerminated}
		default:
			return
		}
	}
}
