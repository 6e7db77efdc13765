package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/attendly/timeclock-backend/internal/attendance"
	"github.com/attendly/timeclock-backend/pkg/logger"
)

// DefaultCacheTTL bounds staleness if the watcher dies between events.
const DefaultCacheTTL = 24 * time.Hour

type snapshotter interface {
	AveragesForAllUsers(ctx context.Context) ([]attendance.UserAveragesDTO, error)
}

type cache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SummaryKey(userID string) string
}

type subscriber interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Watcher consumes attendance events and refreshes the cached per-user
// averages snapshot. Every event triggers a full recompute from the latest
// store state, so processing is idempotent and the watcher can restart at
// any point without replay bookkeeping.
type Watcher struct {
	sub      subscriber
	snapshot snapshotter
	cache    cache
	logg     *logger.Logger
	ttl      time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// Params bundles the watcher dependencies.
type Params struct {
	Subscriber  subscriber
	Snapshotter snapshotter
	Cache       cache
	Logger      *logger.Logger
	CacheTTL    time.Duration
}

// NewWatcher constructs a stopped watcher.
func NewWatcher(params Params) (*Watcher, error) {
	if params.Subscriber == nil {
		return nil, fmt.Errorf("subscriber is required")
	}
	if params.Snapshotter == nil {
		return nil, fmt.Errorf("snapshotter is required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Watcher{
		sub:      params.Subscriber,
		snapshot: params.Snapshotter,
		cache:    params.Cache,
		logg:     params.Logger,
		ttl:      ttl,
	}, nil
}

// Start begins consuming events until Stop is called or ctx is canceled.
// Calling Start on a running watcher is an error.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	go func() {
		defer close(w.done)
		err := w.sub.Receive(runCtx, w.handle)
		if err != nil && runCtx.Err() == nil && w.logg != nil {
			w.logg.Error(runCtx, "summary.receive.stopped", err)
		}
	}()

	if w.logg != nil {
		w.logg.Info(ctx, "summary watcher started")
	}
	return nil
}

// Stop cancels the subscription and waits for the receive loop to drain.
// Safe to call on a stopped watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	done := w.done
	w.started = false
	w.mu.Unlock()

	cancel()
	<-done
}

func (w *Watcher) handle(ctx context.Context, msg *pubsub.Message) {
	// Ack before recompute: the snapshot is rebuilt from store state, so a
	// lost event is corrected by the next one.
	msg.Ack()

	if err := w.Recompute(ctx); err != nil && w.logg != nil {
		w.logg.Error(ctx, "summary.recompute.failed", err)
	}
}

// Recompute rebuilds the cached snapshot for every user.
func (w *Watcher) Recompute(ctx context.Context) error {
	snapshot, err := w.snapshot.AveragesForAllUsers(ctx)
	if err != nil {
		return fmt.Errorf("compute averages: %w", err)
	}

	for _, entry := range snapshot {
		payload, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode summary for %s: %w", entry.UserID, err)
		}
		if err := w.cache.Set(ctx, w.cache.SummaryKey(entry.UserID.String()), payload, w.ttl); err != nil {
			return fmt.Errorf("cache summary for %s: %w", entry.UserID, err)
		}
	}

	if w.logg != nil {
		logCtx := w.logg.WithFields(ctx, map[string]any{"users": len(snapshot)})
		w.logg.Info(logCtx, "summary.recompute.complete")
	}
	return nil
}
