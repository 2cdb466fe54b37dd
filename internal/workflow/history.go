package workflow

// HistoryCapacity bounds the scan history; insertion beyond it evicts the oldest entry.
const HistoryCapacity = 10

// History is an ordered, bounded sequence of scanned items, most-recent-first.
// It is append-only except for eviction and cleared only by explicit reset.
type History struct {
	items []*ScannedItem
	cap   int
}

// NewHistory returns an empty history with the given capacity
// (HistoryCapacity when n <= 0).
func NewHistory(n int) *History {
	if n <= 0 {
		n = HistoryCapacity
	}
	return &History{cap: n}
}

// Push prepends item, evicting the oldest entry beyond capacity.
func (h *History) Push(item *ScannedItem) {
	h.items = append([]*ScannedItem{item}, h.items...)
	if len(h.items) > h.cap {
		h.items = h.items[:h.cap]
	}
}

// Find returns the most recent entry with the given internal code, or nil.
func (h *History) Find(internalCode string) *ScannedItem {
	for _, it := range h.items {
		if it.InternalCode == internalCode {
			return it
		}
	}
	return nil
}

// Items returns the entries most-recent-first. The returned slice is shared;
// callers must not mutate it.
func (h *History) Items() []*ScannedItem {
	return h.items
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.items)
}

// Clear empties the history.
func (h *History) Clear() {
	h.items = nil
}
