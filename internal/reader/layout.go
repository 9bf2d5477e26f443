// Package reader implements the pagination and reading-progress engine.
//
// Content is treated as a flat sequence of runes. Position is the single source
// of truth for where a reader is (0-100); the page index is always derived from it.
//
// # Components
//
//   - Layout: fixed page boundaries for a content length
//   - Position model: conversions between position and page index
//   - ScrollTracker: turns raw scroll offsets into gated position updates
//   - Controller: state machine combining navigation, slider and scroll input
//   - Debouncer: coalesces progress writes to an external store
package reader

// DefaultTargetPageSize is the number of characters aimed for on one page.
const DefaultTargetPageSize = 3000

// Layout describes how content of a given length is split into pages.
type Layout struct {
	ContentLength int `json:"content_length"`
	PageCount     int `json:"page_count"`
	PageSize      int `json:"page_size"`
}

// ComputeLayout splits contentLength characters into pages of roughly
// targetPageSize characters. PageCount is always at least 1.
func ComputeLayout(contentLength, targetPageSize int) Layout {
	if contentLength < 0 {
		contentLength = 0
	}
	if targetPageSize <= 0 {
		targetPageSize = DefaultTargetPageSize
	}

	pageCount := ceilDiv(contentLength, targetPageSize)
	if pageCount < 1 {
		pageCount = 1
	}

	return Layout{
		ContentLength: contentLength,
		PageCount:     pageCount,
		PageSize:      ceilDiv(contentLength, pageCount),
	}
}

// PageRange returns the half-open range [start, end) covered by pageIndex.
// Out-of-range indices are clamped to the first or last page.
func (l Layout) PageRange(pageIndex int) (start, end int) {
	pageIndex = l.clampPage(pageIndex)

	start = pageIndex * l.PageSize
	if start > l.ContentLength {
		start = l.ContentLength
	}
	end = start + l.PageSize
	if end > l.ContentLength {
		end = l.ContentLength
	}
	return start, end
}

// PageText returns the text of pageIndex from content.
func (l Layout) PageText(content []rune, pageIndex int) string {
	start, end := l.PageRange(pageIndex)
	if end > len(content) {
		end = len(content)
	}
	if start > end {
		return ""
	}
	return string(content[start:end])
}

// LastPage returns the index of the final page.
func (l Layout) LastPage() int {
	return l.PageCount - 1
}

func (l Layout) clampPage(pageIndex int) int {
	if pageIndex < 0 {
		return 0
	}
	if pageIndex > l.LastPage() {
		return l.LastPage()
	}
	return pageIndex
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
