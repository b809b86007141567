package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/prdboard/internal/models"
	"github.com/starford/prdboard/internal/prdsource"
)

// DefaultInterval is the time between automatic reload attempts.
const DefaultInterval = 30 * time.Second

// Observer is called after a reload changes the state or the document.
type Observer func(Snapshot)

// Recorder receives reload measurements.
type Recorder interface {
	ObserveReload(outcome string, elapsed time.Duration)
	ObserveDocument(doc *models.Document)
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval sets the automatic reload interval.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithLogger sets the logger used for reload failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver registers fn to be notified of changes.
func WithObserver(fn Observer) Option {
	return func(l *Loop) {
		if fn != nil {
			l.observers = append(l.observers, fn)
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(l *Loop) {
		l.recorder = r
	}
}

// Loop owns the current Snapshot.
//
// Attempts may overlap; whichever completes last wins. The snapshot pointer
// is swapped atomically so readers never see a partial update.
type Loop struct {
	source    prdsource.Source
	interval  time.Duration
	logger    *slog.Logger
	observers []Observer
	recorder  Recorder

	mu       sync.Mutex // serialises transitions, not loads
	current  atomic.Pointer[Snapshot]
	triggers chan struct{}

	pubMu     sync.Mutex // serialises recorder and observer calls
	published *Snapshot
	stopped   atomic.Bool
}

// New creates a Loop in StateInitialLoading. Nothing is loaded until Run
// or Reload is called.
func New(source prdsource.Source, opts ...Option) *Loop {
	l := &Loop{
		source:   source,
		interval: DefaultInterval,
		logger:   slog.Default(),
		triggers: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	initial := &Snapshot{State: StateInitialLoading}
	l.current.Store(initial)
	l.published = initial
	return l
}

// Interval returns the automatic reload interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Snapshot returns the latest published snapshot.
func (l *Loop) Snapshot() Snapshot {
	return *l.current.Load()
}

// Trigger requests a reload from Run without waiting for the next tick.
// Requests made while one is already pending are coalesced.
func (l *Loop) Trigger() {
	select {
	case l.triggers <- struct{}{}:
	default:
	}
}

// Reload performs one load attempt and applies it. A load that completes
// after ctx is cancelled or after Run has returned changes nothing.
func (l *Loop) Reload(ctx context.Context) Snapshot {
	start := time.Now()
	res, err := l.source.Load(ctx)
	elapsed := time.Since(start)

	if ctx.Err() != nil || l.stopped.Load() {
		return l.Snapshot()
	}

	outcome := prdsource.Classify(err)
	if l.recorder != nil {
		l.recorder.ObserveReload(string(outcome), elapsed)
	}

	l.mu.Lock()
	prev := *l.current.Load()
	next, _ := transition(prev, res, err, time.Now())
	l.current.Store(&next)
	l.mu.Unlock()

	if err != nil {
		if prev.State == StateReady {
			l.logger.Warn("refresh: reload failed, keeping previous document",
				slog.String("outcome", string(outcome)),
				slog.String("error", err.Error()))
		} else {
			l.logger.Error("refresh: load failed",
				slog.String("state", string(next.State)),
				slog.String("error", err.Error()))
		}
	}

	l.publish(&next)
	return next
}

// Run loads the document immediately, then again every interval and on
// every Trigger, until ctx is cancelled. Each attempt runs in its own
// goroutine so a slow source never delays the schedule. Run waits for
// in-flight attempts before returning; their results are discarded.
func (l *Loop) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	attempt := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Reload(ctx)
		}()
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("refresh: started", slog.Duration("interval", l.interval))
	attempt()

	for {
		select {
		case <-ctx.Done():
			l.stopped.Store(true)
			wg.Wait()
			l.logger.Info("refresh: stopped")
			return nil
		case <-ticker.C:
			attempt()
		case <-l.triggers:
			attempt()
		}
	}
}

// publish reports snap to the recorder and observers if it is still the
// current snapshot and differs from the last one reported. An attempt that
// was overtaken by a newer one publishes nothing, so notifications follow
// the same last-writer-wins order as Snapshot.
func (l *Loop) publish(snap *Snapshot) {
	l.pubMu.Lock()
	defer l.pubMu.Unlock()

	if l.current.Load() != snap {
		return
	}
	last := l.published
	l.published = snap
	if last.State == snap.State && last.Checksum == snap.Checksum {
		return
	}

	if snap.Document != nil {
		if l.recorder != nil {
			l.recorder.ObserveDocument(snap.Document)
		}
		l.logger.Info("refresh: document loaded",
			slog.String("checksum", short(snap.Checksum)),
			slog.Int("features", len(snap.Document.Features)))
	}
	for _, fn := range l.observers {
		fn(*snap)
	}
}

func short(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}
