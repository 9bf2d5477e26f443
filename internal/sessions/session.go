package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/mrlokans/bookreader/internal/reader"
)

// Key identifies the single reading session of a user in a book.
type Key struct {
	UserID uint
	BookID uint
}

// View is what a reader sees after every transition: the controller state
// plus the text of the page it points at.
type View struct {
	SessionID string `json:"session_id"`
	BookID    uint   `json:"book_id"`
	Title     string `json:"title"`
	reader.State
	PageText string `json:"page_text"`
}

// Session binds one Controller to one Debouncer for a (user, book) pair.
// It is the single writer of that pair's progress while it is open.
type Session struct {
	ID    string
	Key   Key
	Title string

	content    []rune
	controller *reader.Controller
	debouncer  *reader.Debouncer

	mu         sync.Mutex
	lastActive time.Time
	closed     bool
	closeErr   error
}

func (s *Session) view(st reader.State) View {
	return View{
		SessionID: s.ID,
		BookID:    s.Key.BookID,
		Title:     s.Title,
		State:     st,
		PageText:  s.controller.Layout().PageText(s.content, st.CurrentPage),
	}
}

// apply runs transition unless the session is closed. Close holds the same lock
// while it flushes, so an accepted transition is always part of the final write.
func (s *Session) apply(transition func(*reader.Controller) reader.State) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return View{}, ErrSessionNotFound
	}
	return s.view(transition(s.controller)), nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

// LastActive returns when the session last handled a request.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Pending reports whether a progress change has not reached the store yet.
func (s *Session) Pending() bool {
	_, ok := s.debouncer.Pending()
	return ok
}

// Close writes pending progress and stops the session. Later calls return the
// result of the first.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closeErr
	}
	s.closed = true
	s.closeErr = s.debouncer.Close(ctx)
	return s.closeErr
}
