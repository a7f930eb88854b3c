package directory

import "math"

// maxPerPage caps every list response regardless of what the caller asked
// for.
const maxPerPage = 50

// Page is the envelope of every paginated query. Total reflects the
// authoritative count at the moment of the read; Items may hold fewer than
// PerPage entries when ledger ids inside the window have been tombstoned.
type Page[T any] struct {
	Items       []T    `json:"items"`
	From        uint32 `json:"from"`
	PerPage     uint32 `json:"perPage"`
	HasNextPage bool   `json:"hasNextPage"`
	Total       uint32 `json:"total"`
}

func clampPerPage(perPage uint32) uint32 {
	return min(perPage, maxPerPage)
}

// forwardWindow computes the half-open index range [start, end) of a
// forward-ordered list. hasNext is true iff items exist beyond the window,
// judged against the clamped per-page value.
func forwardWindow(total, from, perPage uint32) (start, end uint32, hasNext bool) {
	last := saturatingAdd(from, perPage)
	return min(from, total), min(last, total), total > last
}

// reverseWindow computes the half-open range [start, end) over an
// ascending-id store for a most-recent-first list, where from counts back
// from the newest entry. The caller traverses the range in descending
// order. hasNext is true iff older entries remain below the window.
func reverseWindow(total, from, perPage uint32) (start, end uint32, hasNext bool) {
	end = saturatingSub(total, from)
	start = saturatingSub(end, perPage)
	return start, end, start > 0
}

func saturatingAdd(a, b uint32) uint32 {
	if s := a + b; s >= a {
		return s
	}
	return math.MaxUint32
}

func saturatingSub(a, b uint32) uint32 {
	if a < b {
		return 0
	}
	return a - b
}
