package index

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/denkenote/internal/metrics"
)

// Source produces index snapshots. *Builder is the production Source.
type Source interface {
	Build(ctx context.Context) (*Index, error)
}

// Listener is called with every newly published index.
type Listener func(*Index)

// Rebuilder serializes rebuilds and publishes their results. Triggers that
// arrive while a rebuild runs coalesce into one follow-up rebuild.
type Rebuilder struct {
	source   Source
	store    *Store
	logger   *slog.Logger
	recorder metrics.Recorder

	trigger chan struct{}
	buildMu sync.Mutex

	mu        sync.RWMutex
	listeners []Listener
}

// RebuilderOption configures a Rebuilder.
type RebuilderOption func(*Rebuilder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) RebuilderOption {
	return func(rb *Rebuilder) {
		if r != nil {
			rb.recorder = r
		}
	}
}

// NewRebuilder returns a Rebuilder that publishes into store.
func NewRebuilder(source Source, store *Store, logger *slog.Logger, opts ...RebuilderOption) *Rebuilder {
	if logger == nil {
		logger = slog.Default()
	}
	rb := &Rebuilder{
		source:   source,
		store:    store,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		trigger:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(rb)
	}
	return rb
}

// OnPublish registers fn to run after each successful publish. Listeners
// run on the rebuild goroutine, in registration order.
func (r *Rebuilder) OnPublish(fn Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Trigger requests a rebuild without blocking. At most one request is
// queued; further triggers before it is picked up are dropped.
func (r *Rebuilder) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Rebuild builds and publishes synchronously. On failure the current index
// stays published and the error is returned.
func (r *Rebuilder) Rebuild(ctx context.Context) error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	start := time.Now()
	idx, err := r.source.Build(ctx)
	r.recorder.ObserveRebuild(time.Since(start), metrics.OutcomeOf(err, errors.Is(err, context.Canceled)))
	if err != nil {
		r.logger.Error("index: rebuild failed, keeping last index", slog.String("error", err.Error()))
		return err
	}

	r.store.Publish(idx)
	r.recorder.SetIndexSize(len(idx.Categories), idx.Len())
	r.recorder.AddSkipped(len(idx.Skipped))
	r.logger.Info("index: published",
		slog.Int("categories", len(idx.Categories)),
		slog.Int("posts", idx.Len()),
		slog.Int("skipped", len(idx.Skipped)),
		slog.Duration("took", time.Since(start)))

	r.mu.RLock()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		fn(idx)
	}
	return nil
}

// Run services triggers until ctx is cancelled.
func (r *Rebuilder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.trigger:
			_ = r.Rebuild(ctx)
		}
	}
}
