package sessions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookreader/internal/entities"
	"github.com/mrlokans/bookreader/internal/reader"
	"github.com/mrlokans/bookreader/internal/tasks"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	fn    func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) reader.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

type savedProgress struct {
	Key       Key
	Position  float64
	Completed bool
	At        time.Time
}

type memoryStore struct {
	mu    sync.Mutex
	books map[uint]*entities.BookWithProgress
	saved []savedProgress
	err   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{books: map[uint]*entities.BookWithProgress{}}
}

func (s *memoryStore) addBook(id uint, title string, length int, position *float64, completed *bool) {
	s.books[id] = &entities.BookWithProgress{
		Book:            entities.Book{ID: id, Title: title, Content: strings.Repeat("a", length)},
		CurrentPosition: position,
		IsCompleted:     completed,
	}
}

func (s *memoryStore) GetBookWithProgress(bookID, _ uint) (*entities.BookWithProgress, error) {
	b, ok := s.books[bookID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (s *memoryStore) SaveProgress(_ context.Context, userID, bookID uint, position float64, completed bool, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	s.saved = append(s.saved, savedProgress{Key{userID, bookID}, position, completed, at})
	return true, nil
}

func (s *memoryStore) writes() []savedProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]savedProgress(nil), s.saved...)
}

type memoryQueue struct {
	mu    sync.Mutex
	tasks []backlite.Task
}

func (q *memoryQueue) Enqueue(_ context.Context, task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return "task-1", nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func newTestManager(t *testing.T, store *memoryStore, cfg Config, opts ...Option) (*Manager, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	m, err := NewManager(store, store, cfg, append([]Option{WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	return m, clock
}

func ptr[T any](v T) *T { return &v }

func TestManager_Open(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, ptr(50.0), ptr(false))
	m, _ := newTestManager(t, store, testConfig())

	view, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, "Dune", view.Title)
	assert.Equal(t, 50.0, view.Position)
	assert.Equal(t, 1, view.CurrentPage)
	assert.Equal(t, 3, view.PageCount)
	assert.Len(t, view.PageText, 3000)

	again, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Equal(t, view.SessionID, again.SessionID, "one session per user and book")
	assert.Equal(t, 1, m.Len())
	assert.Empty(t, store.writes(), "opening never writes")
}

func TestManager_Open_UnknownBook(t *testing.T) {
	m, _ := newTestManager(t, newMemoryStore(), testConfig())

	_, err := m.Open(context.Background(), 1, 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, m.Len())
}

func TestManager_RequiresOpenSession(t *testing.T) {
	m, _ := newTestManager(t, newMemoryStore(), testConfig())

	_, err := m.Next(1, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Current(1, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(context.Background(), 1, 1), ErrSessionNotFound)
}

func TestManager_NavigationDebouncesWrites(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, nil, nil)
	m, clock := newTestManager(t, store, testConfig())
	_, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)

	_, err = m.Next(7, 1)
	require.NoError(t, err)
	clock.Advance(time.Second)
	view, err := m.Next(7, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, view.CurrentPage)

	clock.Advance(reader.DefaultSaveWindow)

	writes := store.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, Key{UserID: 7, BookID: 1}, writes[0].Key)
	assert.InDelta(t, 200.0/3, writes[0].Position, 1e-9)
	assert.Equal(t, clock.Now().Add(-reader.DefaultSaveWindow), writes[0].At)
}

func TestManager_CompletionReportedOnce(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, ptr(95.0), nil)

	var completions []Key
	m, _ := newTestManager(t, store, testConfig(), WithCompletionNotifier(func(k Key, _ reader.State) {
		completions = append(completions, k)
	}))
	_, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)

	first, err := m.Next(7, 1)
	require.NoError(t, err)
	second, err := m.Next(7, 1)
	require.NoError(t, err)

	assert.True(t, first.CompletionReached)
	assert.True(t, second.Completed)
	assert.False(t, second.CompletionReached)
	assert.Equal(t, 95.0, second.Position)
	assert.Equal(t, []Key{{UserID: 7, BookID: 1}}, completions)
}

func TestManager_SliderAndScroll(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, nil, nil)
	m, _ := newTestManager(t, store, testConfig())
	_, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)

	view, err := m.Slider(7, 1, 100.0/3)
	require.NoError(t, err)
	assert.Equal(t, 1, view.CurrentPage)

	view, err = m.Scroll(7, 1, reader.ScrollInput{ScrollTop: 250, ScrollHeight: 600, ClientHeight: 100})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, view.Position, 1e-9)
	assert.False(t, view.Completed)
}

func TestManager_CloseFlushesPendingProgress(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, nil, nil)
	m, _ := newTestManager(t, store, testConfig())
	_, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)

	_, err = m.Slider(7, 1, 42)
	require.NoError(t, err)
	require.Empty(t, store.writes())

	require.NoError(t, m.Close(context.Background(), 7, 1))

	writes := store.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, 42.0, writes[0].Position)
	assert.Zero(t, m.Len())
	assert.ErrorIs(t, m.Close(context.Background(), 7, 1), ErrSessionNotFound)
}

func TestManager_EvictionFlushesPendingProgress(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "First", 9000, nil, nil)
	store.addBook(2, "Second", 9000, nil, nil)
	cfg := testConfig()
	cfg.CacheSize = 1
	m, _ := newTestManager(t, store, cfg)

	_, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)
	_, err = m.Slider(7, 1, 25)
	require.NoError(t, err)

	_, err = m.Open(context.Background(), 7, 2)
	require.NoError(t, err)

	writes := store.writes()
	require.Len(t, writes, 1)
	assert.Equal(t, uint(1), writes[0].Key.BookID)
	assert.Equal(t, 25.0, writes[0].Position)
	assert.Equal(t, 1, m.Len())
}

func TestManager_CloseIdle(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Stale", 9000, nil, nil)
	store.addBook(2, "Active", 9000, nil, nil)
	m, clock := newTestManager(t, store, testConfig())

	_, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)
	_, err = m.Open(context.Background(), 7, 2)
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	_, err = m.Current(7, 2)
	require.NoError(t, err)

	closed := m.CloseIdle(context.Background(), 15*time.Minute)

	assert.Equal(t, 1, closed)
	_, err = m.Current(7, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Current(7, 2)
	assert.NoError(t, err)
}

func TestManager_FailedSaveFallsBackToQueue(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, nil, nil)
	store.err = errors.New("database is locked")
	queue := &memoryQueue{}
	m, clock := newTestManager(t, store, testConfig(), WithTaskQueue(queue))

	_, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)
	_, err = m.Slider(7, 1, 60)
	require.NoError(t, err)
	changedAt := clock.Now()

	require.NoError(t, m.Close(context.Background(), 7, 1), "a durable hand-off counts as saved")

	require.Len(t, queue.tasks, 1)
	task, ok := queue.tasks[0].(tasks.PersistProgressTask)
	require.True(t, ok)
	assert.Equal(t, uint(7), task.UserID)
	assert.Equal(t, 60.0, task.Position)
	assert.Equal(t, changedAt.UnixMilli(), task.ChangedAtMs)
}

func TestManager_FailedSaveWithoutQueue(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, nil, nil)
	store.err = errors.New("disk I/O error")
	m, _ := newTestManager(t, store, testConfig())

	_, err := m.Open(context.Background(), 7, 1)
	require.NoError(t, err)
	_, err = m.Slider(7, 1, 60)
	require.NoError(t, err)

	err = m.Close(context.Background(), 7, 1)
	assert.ErrorContains(t, err, "disk I/O error")
}

func TestManager_CloseAll(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "One", 100, nil, nil)
	store.addBook(2, "Two", 100, nil, nil)
	m, _ := newTestManager(t, store, testConfig())

	for _, id := range []uint{1, 2} {
		_, err := m.Open(context.Background(), 7, id)
		require.NoError(t, err)
		_, err = m.Slider(7, id, 10)
		require.NoError(t, err)
	}

	require.NoError(t, m.CloseAll(context.Background()))
	assert.Zero(t, m.Len())
	assert.Len(t, store.writes(), 2)
}

func TestManager_TransitionOnClosedSessionIsRejected(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, nil, nil)
	m, clock := newTestManager(t, store, testConfig())
	_, err := m.Open(context.Background(), 0, 1)
	require.NoError(t, err)

	// Flushed but still cached, the state Close is in before it removes the session.
	s, ok := m.sessions.Peek(Key{UserID: 0, BookID: 1})
	require.True(t, ok)
	require.NoError(t, s.Close(context.Background()))

	_, err = m.Next(0, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Current(0, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	clock.Advance(time.Minute)
	assert.Empty(t, store.writes(), "a rejected transition must not look accepted")
}

func TestManager_OpenReplacesClosedSession(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, nil, nil)
	m, _ := newTestManager(t, store, testConfig())
	first, err := m.Open(context.Background(), 0, 1)
	require.NoError(t, err)

	s, _ := m.sessions.Peek(Key{UserID: 0, BookID: 1})
	require.NoError(t, s.Close(context.Background()))

	second, err := m.Open(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, second.SessionID)

	view, err := m.Next(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, view.CurrentPage)
	assert.Equal(t, 1, m.Len())
}

func TestManager_CloseRacingTransitions(t *testing.T) {
	store := newMemoryStore()
	store.addBook(1, "Dune", 9000, nil, nil)
	m, _ := newTestManager(t, store, testConfig())
	_, err := m.Open(context.Background(), 0, 1)
	require.NoError(t, err)

	lastAccepted := -1.0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; ; i++ {
			value := float64(i%90 + 1)
			view, err := m.Slider(0, 1, value)
			if err != nil {
				return
			}
			lastAccepted = view.Position
		}
	}()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, m.Close(context.Background(), 0, 1))
	<-done

	writes := store.writes()
	if lastAccepted < 0 {
		assert.Empty(t, writes)
		return
	}
	require.NotEmpty(t, writes)
	assert.Equal(t, lastAccepted, writes[len(writes)-1].Position, "the final write carries the last accepted state")
}
