package reader

import "math"

const (
	// MinPosition and MaxPosition bound the overall reading percentage.
	MinPosition = 0.0
	MaxPosition = 100.0

	// CompletionThreshold is the slider value at or above which a work counts as completed.
	CompletionThreshold = 99.0

	boundaryEpsilon = 1e-9
)

// ClampPosition forces p into [0, 100]. NaN becomes 0.
func ClampPosition(p float64) float64 {
	if math.IsNaN(p) {
		return MinPosition
	}
	return math.Max(MinPosition, math.Min(MaxPosition, p))
}

// PageIndexFromPosition returns the page that contains position.
// Position 100 maps to the last page rather than one past it.
func PageIndexFromPosition(position float64, pageCount int) int {
	if pageCount < 1 {
		pageCount = 1
	}
	// boundaryEpsilon absorbs float error so page starts map back to their own page.
	idx := int(math.Floor(ClampPosition(position)/100*float64(pageCount) + boundaryEpsilon))
	if idx > pageCount-1 {
		idx = pageCount - 1
	}
	return idx
}

// PositionFromPageIndex returns the position of the start of pageIndex.
func PositionFromPageIndex(pageIndex, pageCount int) float64 {
	if pageCount < 1 {
		pageCount = 1
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageIndex > pageCount-1 {
		pageIndex = pageCount - 1
	}
	return float64(pageIndex) / float64(pageCount) * 100
}
