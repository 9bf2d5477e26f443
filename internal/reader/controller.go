package reader

import "sync"

// Status is the controller's coarse state.
type Status string

const (
	StatusReading   Status = "reading"
	StatusCompleted Status = "completed"
)

// Scheduler receives every change of (position, completed). *Debouncer implements it.
type Scheduler interface {
	Schedule(position float64, completed bool)
}

// CompletionNotifier is told when a session first reaches the completed state.
type CompletionNotifier interface {
	CompletionReached(state State)
}

// NotifierFunc adapts a function to CompletionNotifier.
type NotifierFunc func(state State)

func (f NotifierFunc) CompletionReached(state State) {
	f(state)
}

// Seed is the externally supplied starting point of a reading session.
type Seed struct {
	ContentLength  int
	TargetPageSize int
	Position       float64
	Completed      bool
	ScrollGate     int
}

// State is a snapshot of the controller after a transition.
type State struct {
	Position    float64 `json:"position"`
	Completed   bool    `json:"completed"`
	Status      Status  `json:"status"`
	CurrentPage int     `json:"current_page"`
	PageCount   int     `json:"page_count"`

	// Changed reports whether the transition altered position or completed.
	Changed bool `json:"changed"`
	// CompletionReached is set on the one transition per session that fires the notifier.
	CompletionReached bool `json:"completion_reached"`
}

// ScrollInput is a raw scroll report for the page currently displayed.
type ScrollInput struct {
	ScrollTop    float64 `json:"scroll_top"`
	ScrollHeight float64 `json:"scroll_height"`
	ClientHeight float64 `json:"client_height"`
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithScheduler routes state changes to s, typically a *Debouncer.
func WithScheduler(s Scheduler) ControllerOption {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// WithCompletionNotifier sets the once-per-session completion callback.
func WithCompletionNotifier(n CompletionNotifier) ControllerOption {
	return func(c *Controller) {
		c.notifier = n
	}
}

// Controller is the per-session reading state machine.
//
// Navigation lands on exact page starts, the slider sets any position and
// decides completion by threshold, and scrolling interpolates within a page
// but never completes or un-completes a work. Input is clamped, never rejected.
type Controller struct {
	mu            sync.Mutex
	layout        Layout
	position      float64
	completed     bool
	congratulated bool
	scroll        *ScrollTracker
	scheduler     Scheduler
	notifier      CompletionNotifier
}

// NewController seeds a controller from stored progress.
func NewController(seed Seed, opts ...ControllerOption) *Controller {
	c := &Controller{
		layout:    ComputeLayout(seed.ContentLength, seed.TargetPageSize),
		position:  ClampPosition(seed.Position),
		completed: seed.Completed,
		scroll:    NewScrollTracker(seed.ScrollGate),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Layout returns the page layout of the session's content.
func (c *Controller) Layout() Layout {
	return c.layout
}

// State returns the current state without changing it.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// NavigatePrevious moves to the start of the previous page and clears completion.
// On the first page it does nothing.
func (c *Controller) NavigatePrevious() State {
	c.mu.Lock()
	page := c.currentPageLocked()
	if page == 0 {
		st := c.stateLocked()
		c.mu.Unlock()
		return st
	}
	st := c.applyLocked(PositionFromPageIndex(page-1, c.layout.PageCount), false)
	c.mu.Unlock()

	c.notify(st)
	return st
}

// NavigateNext moves to the start of the next page. Arriving on the last page
// does not complete the work; pressing next again while on it does.
func (c *Controller) NavigateNext() State {
	c.mu.Lock()
	page := c.currentPageLocked()

	var st State
	if page < c.layout.LastPage() {
		st = c.applyLocked(PositionFromPageIndex(page+1, c.layout.PageCount), c.completed)
	} else {
		st = c.applyLocked(c.position, true)
	}
	c.mu.Unlock()

	c.notify(st)
	return st
}

// SetSlider jumps to value. Values at or above CompletionThreshold complete
// the work; anything lower un-completes it.
func (c *Controller) SetSlider(value float64) State {
	value = ClampPosition(value)

	c.mu.Lock()
	st := c.applyLocked(value, value >= CompletionThreshold)
	c.mu.Unlock()

	c.notify(st)
	return st
}

// Scroll feeds an in-page scroll report through the noise gate.
func (c *Controller) Scroll(in ScrollInput) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := c.scroll.Observe(ScrollEvent{
		ScrollTop:    in.ScrollTop,
		ScrollHeight: in.ScrollHeight,
		ClientHeight: in.ClientHeight,
		CurrentPage:  c.currentPageLocked(),
		PageCount:    c.layout.PageCount,
	})
	if !res.ShouldUpdate {
		return c.stateLocked()
	}
	// completed is carried over untouched, so this path can never fire the notifier.
	return c.applyLocked(res.Position, c.completed)
}

func (c *Controller) applyLocked(position float64, completed bool) State {
	position = ClampPosition(position)
	prevPage := c.currentPageLocked()

	changed := position != c.position || completed != c.completed
	reached := completed && !c.completed && !c.congratulated

	c.position = position
	c.completed = completed
	if reached {
		c.congratulated = true
	}
	if c.currentPageLocked() != prevPage {
		c.scroll.Reset()
	}

	if changed && c.scheduler != nil {
		c.scheduler.Schedule(position, completed)
	}

	st := c.stateLocked()
	st.Changed = changed
	st.CompletionReached = reached
	return st
}

func (c *Controller) notify(st State) {
	if st.CompletionReached && c.notifier != nil {
		c.notifier.CompletionReached(st)
	}
}

func (c *Controller) currentPageLocked() int {
	return PageIndexFromPosition(c.position, c.layout.PageCount)
}

func (c *Controller) stateLocked() State {
	status := StatusReading
	if c.completed {
		status = StatusCompleted
	}
	return State{
		Position:    c.position,
		Completed:   c.completed,
		Status:      status,
		CurrentPage: c.currentPageLocked(),
		PageCount:   c.layout.PageCount,
	}
}
