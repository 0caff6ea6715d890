// internal/application/query/storefront/loader.go
package storefront

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Status is the load state of a view.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// FetchFunc performs one load. It must honour ctx cancellation.
type FetchFunc[P comparable, T any] func(ctx context.Context, params P) (T, error)

type viewState[P comparable] struct {
	seq      uint64
	params   P
	status   Status
	err      error
	fetchCtx context.Context
	cancel   context.CancelFunc
	doneAt   time.Time
}

// Loader runs keyed fetches with latest-wins semantics per view:
//   - a load with different params cancels the in-flight load of the same
//     view; the superseded caller gets ErrStale and its result is dropped
//   - concurrent loads with equal params share one fetch
//
// There is no retry and no caching: every load after completion fetches again.
type Loader[P comparable, T any] struct {
	name    string
	fetch   FetchFunc[P, T]
	timeout time.Duration
	tracer  trace.Tracer

	group singleflight.Group

	mu    sync.Mutex
	seq   uint64 // loader-wide, so a pruned view never reuses a flight key
	views map[string]*viewState[P]
}

// NewLoader creates a loader. timeout <= 0 means no per-load timeout.
func NewLoader[P comparable, T any](name string, fetch FetchFunc[P, T], timeout time.Duration) *Loader[P, T] {
	return &Loader[P, T]{
		name:    name,
		fetch:   fetch,
		timeout: timeout,
		tracer:  otel.Tracer("storefront/loader"),
		views:   map[string]*viewState[P]{},
	}
}

// Load fetches params for view. The fetch outlives a cancelled caller (other
// callers may share it) but not a newer load of the view.
func (l *Loader[P, T]) Load(ctx context.Context, view string, params P) (T, error) {
	var zero T

	l.mu.Lock()
	vs, ok := l.views[view]
	if !ok {
		vs = &viewState[P]{}
		l.views[view] = vs
	}
	if vs.status != StatusLoading || vs.params != params {
		if vs.cancel != nil {
			vs.cancel()
		}
		l.seq++
		vs.seq = l.seq
		vs.params = params
		vs.status = StatusLoading
		vs.err = nil

		base := context.WithoutCancel(ctx)
		if l.timeout > 0 {
			vs.fetchCtx, vs.cancel = context.WithTimeout(base, l.timeout)
		} else {
			vs.fetchCtx, vs.cancel = context.WithCancel(base)
		}
	}
	seq := vs.seq
	fetchCtx := vs.fetchCtx
	l.mu.Unlock()

	key := view + "#" + strconv.FormatUint(seq, 10)
	ch := l.group.DoChan(key, func() (any, error) {
		v, err := l.run(fetchCtx, view, params)
		l.finish(view, seq, err)
		return v, err
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if !l.current(view, seq) {
			return zero, ErrStale
		}
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

func (l *Loader[P, T]) run(ctx context.Context, view string, params P) (T, error) {
	ctx, span := l.tracer.Start(ctx, "Loader."+l.name)
	defer span.End()
	span.SetAttributes(attribute.String("loader.view", view))

	v, err := l.fetch(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return v, err
}

func (l *Loader[P, T]) finish(view string, seq uint64, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	vs, ok := l.views[view]
	if !ok || vs.seq != seq {
		return
	}
	if err != nil {
		vs.status = StatusFailed
		vs.err = err
	} else {
		vs.status = StatusReady
	}
	vs.cancel()
	vs.cancel = nil
	vs.fetchCtx = nil
	vs.doneAt = time.Now()
}

func (l *Loader[P, T]) current(view string, seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	vs, ok := l.views[view]
	return ok && vs.seq == seq
}

// Status reports the state of view and, when failed, the error.
func (l *Loader[P, T]) Status(view string) (Status, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vs, ok := l.views[view]
	if !ok {
		return StatusIdle, nil
	}
	return vs.status, vs.err
}

// Prune forgets views that finished before cutoff.
func (l *Loader[P, T]) Prune(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, vs := range l.views {
		if vs.status != StatusLoading && vs.doneAt.Before(cutoff) {
			delete(l.views, k)
			n++
		}
	}
	return n
}
