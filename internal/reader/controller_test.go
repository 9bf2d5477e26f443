package reader

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScheduler struct {
	mu    sync.Mutex
	calls []Snapshot
}

func (r *recordingScheduler) Schedule(position float64, completed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Snapshot{Position: position, Completed: completed})
}

func (r *recordingScheduler) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) CompletionReached(State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
}

func (n *countingNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

func newTestController(seed Seed) (*Controller, *recordingScheduler, *countingNotifier) {
	sched := &recordingScheduler{}
	notifier := &countingNotifier{}
	if seed.ContentLength == 0 {
		seed.ContentLength = 9000
	}
	if seed.TargetPageSize == 0 {
		seed.TargetPageSize = 3000
	}
	c := NewController(seed, WithScheduler(sched), WithCompletionNotifier(notifier))
	return c, sched, notifier
}

func TestController_Mount(t *testing.T) {
	c, sched, notifier := newTestController(Seed{Position: 50, Completed: true})

	st := c.State()
	assert.Equal(t, 50.0, st.Position)
	assert.True(t, st.Completed)
	assert.Equal(t, StatusCompleted, st.Status)
	assert.Equal(t, 1, st.CurrentPage)
	assert.Equal(t, 3, st.PageCount)
	assert.Equal(t, 0, sched.count(), "seeding must not schedule a write")
	assert.Equal(t, 0, notifier.Count())
}

func TestController_Mount_ClampsSeed(t *testing.T) {
	c, _, _ := newTestController(Seed{Position: 180})
	assert.Equal(t, 100.0, c.State().Position)

	c, _, _ = newTestController(Seed{Position: math.NaN()})
	assert.Equal(t, 0.0, c.State().Position)
}

func TestController_NavigatePrevious(t *testing.T) {
	t.Run("moves to the start of the previous page and un-completes", func(t *testing.T) {
		c, sched, _ := newTestController(Seed{Position: 95, Completed: true})

		st := c.NavigatePrevious()

		assert.InDelta(t, 100.0/3, st.Position, 1e-9)
		assert.Equal(t, 1, st.CurrentPage)
		assert.False(t, st.Completed)
		assert.True(t, st.Changed)
		assert.Equal(t, 1, sched.count())
	})

	t.Run("does nothing on the first page", func(t *testing.T) {
		c, sched, _ := newTestController(Seed{Position: 10})

		st := c.NavigatePrevious()

		assert.Equal(t, 10.0, st.Position)
		assert.False(t, st.Changed)
		assert.Equal(t, 0, sched.count())
	})
}

func TestController_NavigateNext(t *testing.T) {
	t.Run("arriving on the last page does not complete", func(t *testing.T) {
		c, _, notifier := newTestController(Seed{Position: 40})

		st := c.NavigateNext()

		assert.InDelta(t, 200.0/3, st.Position, 1e-9)
		assert.Equal(t, 2, st.CurrentPage)
		assert.False(t, st.Completed)
		assert.Equal(t, 0, notifier.Count())

		st = c.NavigateNext()
		assert.True(t, st.Completed)
		assert.True(t, st.CompletionReached)
		assert.Equal(t, 1, notifier.Count())
	})

	t.Run("next on the last page completes without moving the position", func(t *testing.T) {
		c, sched, notifier := newTestController(Seed{Position: 95})
		require.Equal(t, 2, c.State().CurrentPage)

		first := c.NavigateNext()
		assert.True(t, first.Completed)
		assert.True(t, first.CompletionReached)
		assert.Equal(t, 95.0, first.Position)

		second := c.NavigateNext()
		assert.True(t, second.Completed)
		assert.False(t, second.CompletionReached)
		assert.False(t, second.Changed)
		assert.Equal(t, 95.0, second.Position)

		assert.Equal(t, 1, notifier.Count(), "completion fires once per session")
		assert.Equal(t, 1, sched.count(), "the idempotent second next must not schedule a write")
	})

	t.Run("keeps an existing completion when paging forward", func(t *testing.T) {
		c, _, _ := newTestController(Seed{Position: 0, Completed: true})

		st := c.NavigateNext()

		assert.True(t, st.Completed)
		assert.Equal(t, 1, st.CurrentPage)
	})
}

func TestController_CompletionFiresOncePerSession(t *testing.T) {
	c, _, notifier := newTestController(Seed{Position: 95})

	c.NavigateNext()
	c.NavigatePrevious()
	st := c.NavigateNext() // page 1 -> page 2
	assert.False(t, st.Completed)
	st = c.NavigateNext()
	assert.True(t, st.Completed)
	assert.False(t, st.CompletionReached)
	c.SetSlider(10)
	c.SetSlider(100)

	assert.Equal(t, 1, notifier.Count())
}

func TestController_SeededCompletionDoesNotNotifyUntilReCompleted(t *testing.T) {
	c, _, notifier := newTestController(Seed{Position: 100, Completed: true})

	c.NavigateNext()
	assert.Equal(t, 0, notifier.Count(), "already completed on mount")

	c.SetSlider(50)
	st := c.SetSlider(99)
	assert.True(t, st.CompletionReached)
	assert.Equal(t, 1, notifier.Count())
}

func TestController_SetSlider(t *testing.T) {
	t.Run("100 completes and 50 un-completes", func(t *testing.T) {
		c, _, notifier := newTestController(Seed{})

		st := c.SetSlider(100)
		assert.True(t, st.Completed)
		assert.Equal(t, 2, st.CurrentPage)
		assert.Equal(t, 1, notifier.Count())

		st = c.SetSlider(50)
		assert.False(t, st.Completed)
		assert.Equal(t, 50.0, st.Position)
		assert.Equal(t, StatusReading, st.Status)
	})

	t.Run("threshold is 99", func(t *testing.T) {
		c, _, _ := newTestController(Seed{})

		assert.False(t, c.SetSlider(98.9).Completed)
		assert.True(t, c.SetSlider(99).Completed)
	})

	t.Run("clamps out-of-range values", func(t *testing.T) {
		c, _, _ := newTestController(Seed{Position: 30})

		st := c.SetSlider(250)
		assert.Equal(t, 100.0, st.Position)
		assert.True(t, st.Completed)

		st = c.SetSlider(-4)
		assert.Equal(t, 0.0, st.Position)
		assert.False(t, st.Completed)

		st = c.SetSlider(math.NaN())
		assert.Equal(t, 0.0, st.Position)
	})
}

func TestController_Scroll(t *testing.T) {
	t.Run("interpolates inside the current page", func(t *testing.T) {
		c, sched, _ := newTestController(Seed{Position: 100.0 / 3})

		st := c.Scroll(ScrollInput{ScrollTop: 250, ScrollHeight: 600, ClientHeight: 100})

		assert.InDelta(t, 50.0, st.Position, 1e-9)
		assert.True(t, st.Changed)
		assert.Equal(t, 1, sched.count())
	})

	t.Run("suppresses noise", func(t *testing.T) {
		c, sched, _ := newTestController(Seed{Position: 0})

		st := c.Scroll(ScrollInput{ScrollTop: 10, ScrollHeight: 600, ClientHeight: 100})

		assert.False(t, st.Changed)
		assert.Equal(t, 0, sched.count())
	})

	t.Run("never completes and never passes 99", func(t *testing.T) {
		c, _, notifier := newTestController(Seed{Position: 70})

		st := c.Scroll(ScrollInput{ScrollTop: 500, ScrollHeight: 600, ClientHeight: 100})

		assert.Equal(t, 99.0, st.Position)
		assert.False(t, st.Completed)
		assert.Equal(t, 0, notifier.Count())
	})

	t.Run("never un-completes", func(t *testing.T) {
		c, _, _ := newTestController(Seed{Position: 100, Completed: true})

		st := c.Scroll(ScrollInput{ScrollTop: 100, ScrollHeight: 600, ClientHeight: 100})

		assert.True(t, st.Completed)
		assert.LessOrEqual(t, st.Position, 99.0)
	})

	t.Run("baseline resets when navigation changes the page", func(t *testing.T) {
		c, sched, _ := newTestController(Seed{Position: 0})

		c.Scroll(ScrollInput{ScrollTop: 100, ScrollHeight: 600, ClientHeight: 100}) // 20%
		c.NavigateNext()
		before := sched.count()

		// 20% again would be gated if the old baseline survived the page change.
		st := c.Scroll(ScrollInput{ScrollTop: 100, ScrollHeight: 600, ClientHeight: 100})

		assert.True(t, st.Changed)
		assert.Equal(t, before+1, sched.count())
		assert.InDelta(t, 40.0, st.Position, 1e-9)
	})
}

func TestController_Scroll_LongBook(t *testing.T) {
	t.Run("scroll on a page past the cap is ignored", func(t *testing.T) {
		seed := Seed{ContentLength: 600000, TargetPageSize: 3000, Position: PositionFromPageIndex(199, 200)}
		c, sched, _ := newTestController(seed)
		require.Equal(t, 199, c.State().CurrentPage)

		st := c.Scroll(ScrollInput{ScrollTop: 100, ScrollHeight: 600, ClientHeight: 100})

		assert.Equal(t, 199, st.CurrentPage)
		assert.InDelta(t, 99.5, st.Position, 1e-9)
		assert.False(t, st.Changed)
		assert.Equal(t, 0, sched.count())
	})

	t.Run("the page straddling the cap still accepts scroll", func(t *testing.T) {
		seed := Seed{ContentLength: 600000, TargetPageSize: 3000, Position: PositionFromPageIndex(197, 200)}
		c, _, _ := newTestController(seed)

		st := c.Scroll(ScrollInput{ScrollTop: 500, ScrollHeight: 600, ClientHeight: 100})

		assert.True(t, st.Changed)
		assert.Equal(t, 197, st.CurrentPage)
		assert.LessOrEqual(t, st.Position, ScrollPositionCap)
	})
}

func TestController_ScrollNeverChangesPage(t *testing.T) {
	for _, length := range []int{9000, 300000, 600000, 1000001} {
		layout := ComputeLayout(length, DefaultTargetPageSize)
		for page := 0; page < layout.PageCount; page++ {
			c := NewController(Seed{ContentLength: length, Position: PositionFromPageIndex(page, layout.PageCount)})
			require.Equal(t, page, c.State().CurrentPage)

			for top := 0.0; top <= 600; top += 25 {
				st := c.Scroll(ScrollInput{ScrollTop: top, ScrollHeight: 600, ClientHeight: 100})
				if st.CurrentPage != page {
					t.Fatalf("length %d: scroll to %.0f moved page %d to %d (position %.4f)",
						length, top, page, st.CurrentPage, st.Position)
				}
				assert.LessOrEqual(t, st.Position, math.Max(ScrollPositionCap, PositionFromPageIndex(page, layout.PageCount)))
			}
		}
	}
}

func TestController_EmptyContent(t *testing.T) {
	c := NewController(Seed{ContentLength: 0, TargetPageSize: 3000})

	assert.Equal(t, 1, c.State().PageCount)
	st := c.NavigateNext()
	assert.True(t, st.Completed, "single empty page completes on next")
}

func TestNotifierFunc(t *testing.T) {
	var got State
	c := NewController(Seed{ContentLength: 10}, WithCompletionNotifier(NotifierFunc(func(s State) {
		got = s
	})))

	c.NavigateNext()

	assert.True(t, got.Completed)
	assert.True(t, got.CompletionReached)
}
