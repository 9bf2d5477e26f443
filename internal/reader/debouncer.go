package reader

import (
	"context"
	"sync"
	"time"
)

// DefaultSaveWindow is the quiet period after the last change before progress is written.
const DefaultSaveWindow = 2000 * time.Millisecond

// Snapshot is the progress state handed to the store.
type Snapshot struct {
	Position  float64
	Completed bool
	// Revision increases with every scheduled change within one Debouncer.
	Revision uint64
	// At is when the change was scheduled; stores use it to keep the newest write.
	At time.Time
}

// SaveFunc writes a snapshot to the progress store.
type SaveFunc func(ctx context.Context, s Snapshot) error

// DebouncerOption configures a Debouncer.
type DebouncerOption func(*Debouncer)

// WithWindow sets the debounce window.
func WithWindow(window time.Duration) DebouncerOption {
	return func(d *Debouncer) {
		if window > 0 {
			d.window = window
		}
	}
}

// WithClock replaces the system clock, mostly for tests.
func WithClock(clock Clock) DebouncerOption {
	return func(d *Debouncer) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// WithErrorHandler registers a callback for failed writes.
func WithErrorHandler(fn func(Snapshot, error)) DebouncerOption {
	return func(d *Debouncer) {
		d.onError = fn
	}
}

// Debouncer coalesces progress changes into as few store writes as possible.
//
// Only the latest snapshot is ever written. At most one write runs at a time:
// if the window elapses while a write is in flight, the next write starts as
// soon as the current one returns and carries whatever is latest by then.
// Failed snapshots stay pending until a newer change or Flush retries them.
type Debouncer struct {
	save    SaveFunc
	clock   Clock
	window  time.Duration
	onError func(Snapshot, error)

	mu         sync.Mutex
	pending    *Snapshot
	timer      Timer
	gen        uint64
	inFlight   bool
	flightDone chan struct{}
	deferred   bool
	closed     bool
	revision   uint64
	lastSaved  uint64
}

// NewDebouncer creates a Debouncer that writes through save.
func NewDebouncer(save SaveFunc, opts ...DebouncerOption) *Debouncer {
	d := &Debouncer{
		save:   save,
		clock:  SystemClock{},
		window: DefaultSaveWindow,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Schedule records a new state and restarts the quiet window.
// Calls after Close are ignored.
func (d *Debouncer) Schedule(position float64, completed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	d.revision++
	d.pending = &Snapshot{
		Position:  position,
		Completed: completed,
		Revision:  d.revision,
		At:        d.clock.Now(),
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

// Pending returns the snapshot waiting to be written, if any.
func (d *Debouncer) Pending() (Snapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return Snapshot{}, false
	}
	return *d.pending, true
}

// LastSavedRevision returns the revision of the most recent successful write.
func (d *Debouncer) LastSavedRevision() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSaved
}

// Flush cancels the timer, waits for an in-flight write and writes any pending
// snapshot before returning. It returns the error of the last write attempted.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushLocked(ctx)
}

// Close flushes and stops accepting new changes.
func (d *Debouncer) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return d.flushLocked(ctx)
}

func (d *Debouncer) flushLocked(ctx context.Context) error {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++

	for d.inFlight {
		done := d.flightDone
		d.mu.Unlock()
		select {
		case <-done:
			d.mu.Lock()
		case <-ctx.Done():
			d.mu.Lock()
			return ctx.Err()
		}
	}

	d.deferred = false
	return d.drainLocked(ctx)
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if gen != d.gen {
		return
	}
	d.timer = nil

	if d.inFlight {
		d.deferred = true
		return
	}
	// Failures already went to the error handler and stay pending for the next flush.
	_ = d.drainLocked(context.Background())
}

// drainLocked writes the pending snapshot, then keeps going while writes were
// deferred behind it. Called with d.mu held; releases it around each save.
func (d *Debouncer) drainLocked(ctx context.Context) error {
	var lastErr error
	for d.pending != nil {
		snap := *d.pending
		d.pending = nil
		d.inFlight = true
		done := make(chan struct{})
		d.flightDone = done

		d.mu.Unlock()
		err := d.save(ctx, snap)
		if err != nil && d.onError != nil {
			d.onError(snap, err)
		}
		d.mu.Lock()

		d.inFlight = false
		close(done)

		lastErr = err
		if err != nil {
			if d.pending == nil {
				d.pending = &snap
			}
		} else if snap.Revision > d.lastSaved {
			d.lastSaved = snap.Revision
		}

		if !d.deferred || d.pending == nil || d.pending.Revision == snap.Revision {
			break
		}
		d.deferred = false
	}
	return lastErr
}
