// Package sessions keeps the open reading sessions of the service.
//
// A session is created when a reader opens a book, seeded from the stored
// progress, and from then on owns that (user, book) pair's progress: every
// transition goes through its reader.Controller, and writes leave through its
// reader.Debouncer. Sessions live in a bounded LRU; a session pushed out of
// the cache, closed explicitly, swept as idle or closed at shutdown always
// flushes its pending progress first.
//
// Writes are retried inline with backoff. When the store stays unavailable the
// write is handed to the durable persist_progress queue, which replays it with
// its original change time.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mikestefanello/backlite"
	"github.com/sourcegraph/conc/pool"

	"github.com/mrlokans/bookreader/internal/content"
	"github.com/mrlokans/bookreader/internal/entities"
	"github.com/mrlokans/bookreader/internal/reader"
	"github.com/mrlokans/bookreader/internal/tasks"
)

// ErrSessionNotFound is returned for operations on a book the user has not opened.
var ErrSessionNotFound = errors.New("reading session not found")

const (
	// evictTimeout bounds the final flush of a session pushed out of the cache.
	evictTimeout = 10 * time.Second
	// closeConcurrency caps parallel flushes at shutdown.
	closeConcurrency = 8
)

// ContentProvider loads a book together with the user's stored progress.
type ContentProvider interface {
	GetBookWithProgress(bookID, userID uint) (*entities.BookWithProgress, error)
}

// ProgressStore persists progress; it reports false when a newer change was already stored.
type ProgressStore interface {
	SaveProgress(ctx context.Context, userID, bookID uint, position float64, completed bool, at time.Time) (bool, error)
}

// TaskQueue durably enqueues background work.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Config controls session behaviour.
type Config struct {
	PageSize     int
	SaveWindow   time.Duration
	ScrollGate   int
	CacheSize    int
	SaveAttempts uint
	RetryDelay   time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PageSize:     reader.DefaultTargetPageSize,
		SaveWindow:   reader.DefaultSaveWindow,
		ScrollGate:   reader.DefaultScrollNoiseGate,
		CacheSize:    256,
		SaveAttempts: 3,
		RetryDelay:   200 * time.Millisecond,
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock used for debouncing and idle tracking.
func WithClock(clock reader.Clock) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithTaskQueue enables the durable fallback for writes that keep failing.
func WithTaskQueue(q TaskQueue) Option {
	return func(m *Manager) {
		m.queue = q
	}
}

// WithCompletionNotifier adds a callback for books finished during a session.
func WithCompletionNotifier(fn func(Key, reader.State)) Option {
	return func(m *Manager) {
		m.onComplete = fn
	}
}

// Manager owns every open reading session.
type Manager struct {
	books      ContentProvider
	store      ProgressStore
	queue      TaskQueue
	clock      reader.Clock
	cfg        Config
	onComplete func(Key, reader.State)

	openMu   sync.Mutex
	sessions *lru.Cache[Key, *Session]
}

// NewManager creates a session manager.
func NewManager(books ContentProvider, store ProgressStore, cfg Config, opts ...Option) (*Manager, error) {
	defaults := DefaultConfig()
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaults.CacheSize
	}
	if cfg.SaveAttempts == 0 {
		cfg.SaveAttempts = defaults.SaveAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}

	m := &Manager{
		books: books,
		store: store,
		clock: reader.SystemClock{},
		cfg:   cfg,
	}
	for _, opt := range opts {
		opt(m)
	}

	cache, err := lru.NewWithEvict(cfg.CacheSize, m.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	m.sessions = cache
	return m, nil
}

// Open starts a session for the book, or returns the one already open.
func (m *Manager) Open(ctx context.Context, userID, bookID uint) (View, error) {
	key := Key{UserID: userID, BookID: bookID}

	m.openMu.Lock()
	defer m.openMu.Unlock()

	if s, ok := m.sessions.Get(key); ok {
		view, err := s.apply((*reader.Controller).State)
		if err == nil {
			s.touch(m.clock.Now())
			return view, nil
		}
		// Closed but not yet removed: replace it with a fresh session.
	}

	book, err := m.books.GetBookWithProgress(bookID, userID)
	if err != nil {
		return View{}, err
	}

	s := m.newSession(key, book)
	m.sessions.Add(key, s)

	st := s.controller.State()
	log.Printf("[READER] Opened %q for user %d at %.2f%% (page %d/%d)",
		s.Title, userID, st.Position, st.CurrentPage+1, st.PageCount)
	return s.view(st), nil
}

func (m *Manager) newSession(key Key, book *entities.BookWithProgress) *Session {
	text := content.Runes(book.Content)

	seed := reader.Seed{
		ContentLength:  len(text),
		TargetPageSize: m.cfg.PageSize,
		ScrollGate:     m.cfg.ScrollGate,
	}
	if book.CurrentPosition != nil {
		seed.Position = *book.CurrentPosition
	}
	if book.IsCompleted != nil {
		seed.Completed = *book.IsCompleted
	}

	s := &Session{
		ID:         uuid.NewString(),
		Key:        key,
		Title:      book.Title,
		content:    text,
		lastActive: m.clock.Now(),
	}
	s.debouncer = reader.NewDebouncer(m.saveFunc(key),
		reader.WithWindow(m.cfg.SaveWindow),
		reader.WithClock(m.clock),
		reader.WithErrorHandler(func(snap reader.Snapshot, err error) {
			log.Printf("[READER] Failed to save progress for user %d book %d (revision %d): %v",
				key.UserID, key.BookID, snap.Revision, err)
		}),
	)
	s.controller = reader.NewController(seed,
		reader.WithScheduler(s.debouncer),
		reader.WithCompletionNotifier(reader.NotifierFunc(func(st reader.State) {
			log.Printf("[READER] User %d finished %q", key.UserID, s.Title)
			if m.onComplete != nil {
				m.onComplete(key, st)
			}
		})),
	)
	return s
}

// saveFunc writes a snapshot with retries and falls back to the task queue.
func (m *Manager) saveFunc(key Key) reader.SaveFunc {
	return func(ctx context.Context, snap reader.Snapshot) error {
		err := retry.Do(
			func() error {
				_, err := m.store.SaveProgress(ctx, key.UserID, key.BookID, snap.Position, snap.Completed, snap.At)
				return err
			},
			retry.Attempts(m.cfg.SaveAttempts),
			retry.Delay(m.cfg.RetryDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				log.Printf("[READER] Retrying progress save for user %d book %d (attempt %d): %v",
					key.UserID, key.BookID, n+1, err)
			}),
		)
		if err == nil || m.queue == nil {
			return err
		}

		// The queue gets its own deadline: ctx may be the one that just expired.
		qctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		id, qerr := m.queue.Enqueue(qctx, tasks.PersistProgressTask{
			UserID:      key.UserID,
			BookID:      key.BookID,
			Position:    snap.Position,
			Completed:   snap.Completed,
			ChangedAtMs: snap.At.UnixMilli(),
		})
		if qerr != nil {
			return fmt.Errorf("save progress: %w (queue fallback failed: %v)", err, qerr)
		}
		log.Printf("[READER] Progress for user %d book %d queued for retry as task %s: %v",
			key.UserID, key.BookID, id, err)
		return nil
	}
}

func (m *Manager) lookup(userID, bookID uint) (*Session, error) {
	s, ok := m.sessions.Get(Key{UserID: userID, BookID: bookID})
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(m.clock.Now())
	return s, nil
}

func (m *Manager) apply(userID, bookID uint, transition func(*reader.Controller) reader.State) (View, error) {
	s, err := m.lookup(userID, bookID)
	if err != nil {
		return View{}, err
	}
	return s.apply(transition)
}

// Current returns the state of an open session without changing it.
func (m *Manager) Current(userID, bookID uint) (View, error) {
	return m.apply(userID, bookID, (*reader.Controller).State)
}

// Next moves to the next page, or completes the book on the last page.
func (m *Manager) Next(userID, bookID uint) (View, error) {
	return m.apply(userID, bookID, (*reader.Controller).NavigateNext)
}

// Previous moves to the previous page.
func (m *Manager) Previous(userID, bookID uint) (View, error) {
	return m.apply(userID, bookID, (*reader.Controller).NavigatePrevious)
}

// Slider jumps to a position in percent.
func (m *Manager) Slider(userID, bookID uint, value float64) (View, error) {
	return m.apply(userID, bookID, func(c *reader.Controller) reader.State {
		return c.SetSlider(value)
	})
}

// Scroll reports in-page scrolling.
func (m *Manager) Scroll(userID, bookID uint, in reader.ScrollInput) (View, error) {
	return m.apply(userID, bookID, func(c *reader.Controller) reader.State {
		return c.Scroll(in)
	})
}

// Close flushes and removes a session.
func (m *Manager) Close(ctx context.Context, userID, bookID uint) error {
	key := Key{UserID: userID, BookID: bookID}
	s, ok := m.sessions.Peek(key)
	if !ok {
		return ErrSessionNotFound
	}
	err := s.Close(ctx)

	m.openMu.Lock()
	if current, ok := m.sessions.Peek(key); ok && current == s {
		m.sessions.Remove(key)
	}
	m.openMu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to flush progress of %q: %w", s.Title, err)
	}
	return nil
}

// CloseIdle closes every session that has been inactive for at least idle
// and returns how many were closed.
func (m *Manager) CloseIdle(ctx context.Context, idle time.Duration) int {
	cutoff := m.clock.Now().Add(-idle)
	closed := 0
	for _, key := range m.sessions.Keys() {
		s, ok := m.sessions.Peek(key)
		if !ok || s.LastActive().After(cutoff) {
			continue
		}
		if err := m.Close(ctx, key.UserID, key.BookID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Printf("[READER] Failed to close idle session for user %d book %d: %v", key.UserID, key.BookID, err)
			continue
		}
		closed++
	}
	return closed
}

// CloseAll flushes and removes every session, returning the joined flush errors.
// Sessions are flushed in parallel, at most closeConcurrency at a time.
func (m *Manager) CloseAll(ctx context.Context) error {
	p := pool.New().WithErrors().WithMaxGoroutines(closeConcurrency)
	for _, key := range m.sessions.Keys() {
		p.Go(func() error {
			if err := m.Close(ctx, key.UserID, key.BookID); err != nil && !errors.Is(err, ErrSessionNotFound) {
				return err
			}
			return nil
		})
	}
	return p.Wait()
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}

// onEvict closes sessions the cache drops to make room. For explicit closes
// the session is already closed and this is a no-op.
func (m *Manager) onEvict(key Key, s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), evictTimeout)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		log.Printf("[READER] Evicted session for user %d book %d lost its final write: %v",
			key.UserID, key.BookID, err)
	}
}
