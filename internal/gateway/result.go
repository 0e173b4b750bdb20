package gateway

import "sync"

// ResultSlot caches at most one pending result. Set overwrites, Take reads and
// clears in one step. An empty string is a valid result.
type ResultSlot struct {
	mu      sync.Mutex
	value   string
	present bool
}

// NewResultSlot creates an empty slot.
func NewResultSlot() *ResultSlot {
	return &ResultSlot{}
}

// Set stores text, discarding any unread value.
func (r *ResultSlot) Set(text string) {
	r.mu.Lock()
	overwritten := r.present
	r.value = text
	r.present = true
	r.mu.Unlock()

	resultsSet.Inc()
	if overwritten {
		resultsOverwritten.Inc()
	}
}

// Take returns the pending result and empties the slot.
func (r *ResultSlot) Take() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.present {
		return "", false
	}
	v := r.value
	r.value = ""
	r.present = false

	resultsTaken.Inc()
	return v, true
}

// Clear empties the slot and reports whether an unread value was discarded.
func (r *ResultSlot) Clear() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	discarded := r.present
	r.value = ""
	r.present = false

	if discarded {
		resultsDiscarded.Inc()
	}
	return discarded
}

// Pending reports whether a result is waiting to be taken.
func (r *ResultSlot) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.present
}
