package reader

import "math"

const (
	// DefaultScrollNoiseGate is the minimum change in in-page scroll percent
	// that produces a position update.
	DefaultScrollNoiseGate = 5

	// ScrollPositionCap is the highest position scrolling alone can reach.
	ScrollPositionCap = 99.0

	// pageEndMargin keeps a fully scrolled page short of the next page's start,
	// as a fraction of one page.
	pageEndMargin = 1e-4
)

// ScrollEvent is a raw scroll report for the page currently displayed.
type ScrollEvent struct {
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64
	CurrentPage  int
	PageCount    int
}

// ScrollResult is the outcome of observing a ScrollEvent.
type ScrollResult struct {
	ShouldUpdate bool
	Position     float64
	Baseline     int
}

// ScrollTracker filters scroll events so only meaningful movement updates the position.
// It is not safe for concurrent use; the Controller serialises access.
type ScrollTracker struct {
	gate     int
	baseline int
}

// NewScrollTracker returns a tracker with the given noise gate in percent.
// A gate of zero or less uses DefaultScrollNoiseGate.
func NewScrollTracker(gate int) *ScrollTracker {
	if gate <= 0 {
		gate = DefaultScrollNoiseGate
	}
	return &ScrollTracker{gate: gate}
}

// Baseline returns the last accepted in-page scroll percent.
func (t *ScrollTracker) Baseline() int {
	return t.baseline
}

// Reset clears the baseline, e.g. after the displayed page changes.
func (t *ScrollTracker) Reset() {
	t.baseline = 0
}

// Observe converts ev into a position update if it moved far enough from the baseline.
// The resulting position always stays on ev.CurrentPage. On a page that starts at
// or past ScrollPositionCap no update is possible, so the event is ignored.
func (t *ScrollTracker) Observe(ev ScrollEvent) ScrollResult {
	pageCount := ev.PageCount
	if pageCount < 1 {
		pageCount = 1
	}
	page := ev.CurrentPage
	if page < 0 {
		page = 0
	}
	if page > pageCount-1 {
		page = pageCount - 1
	}

	pageStart := PositionFromPageIndex(page, pageCount)
	if pageStart >= ScrollPositionCap {
		return ScrollResult{Baseline: t.baseline}
	}

	percent := ScrollPercent(ev.ScrollTop, ev.ScrollHeight, ev.ClientHeight)
	if absInt(percent-t.baseline) < t.gate {
		return ScrollResult{Baseline: t.baseline}
	}
	t.baseline = percent

	span := 100 / float64(pageCount)
	overall := pageStart + span*float64(percent)/100
	if page < pageCount-1 {
		overall = math.Min(overall, pageStart+span*(1-pageEndMargin))
	}
	return ScrollResult{
		ShouldUpdate: true,
		Position:     math.Min(ScrollPositionCap, overall),
		Baseline:     percent,
	}
}

// ScrollPercent returns how far through the scrollable area scrollTop is, 0-100, rounded up.
// Content that fits without scrolling counts as fully read.
func ScrollPercent(scrollTop, scrollHeight, clientHeight float64) int {
	scrollable := scrollHeight - clientHeight
	if scrollable <= 0 || math.IsNaN(scrollable) {
		return 100
	}
	if math.IsNaN(scrollTop) {
		return 0
	}

	p := math.Ceil(scrollTop / scrollable * 100)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return int(p)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
