package tick

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultMaxBacklog is the number of missed fires an entry may still owe after
// an overrun before the scheduler skips ahead.
const DefaultMaxBacklog = 4

// ErrInvalidInterval is returned by Register for a non-positive interval.
var ErrInvalidInterval = errors.New("interval must be a positive duration")

// Callback is the action run on each fire. Arguments are captured by the
// closure. A returned error or a panic is logged and the entry stays registered.
type Callback func() error

type entry struct {
	id       int
	interval time.Duration
	next     time.Time
	fn       Callback
}

// Scheduler is a repeating tick registry driven by RunDue.
//
// Register and Unregister may be called from any goroutine, including from a
// callback during RunDue. RunDue itself must only be called from one goroutine.
type Scheduler struct {
	mu         sync.Mutex
	entries    map[int]*entry
	nextID     int
	now        func() time.Time
	maxBacklog int
	logger     *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithMaxBacklog bounds catch-up after an overrun. Zero means no catch-up:
// an entry that falls behind fires once and realigns to the next future slot.
func WithMaxBacklog(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.maxBacklog = n
		}
	}
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		entries:    make(map[int]*entry),
		nextID:     1,
		now:        time.Now,
		maxBacklog: DefaultMaxBacklog,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register schedules fn to run every interval, first at now+interval, and
// returns the entry's id. IDs are never reused.
func (s *Scheduler) Register(interval time.Duration, fn Callback) (int, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidInterval, interval)
	}
	if fn == nil {
		return 0, errors.New("callback must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.entries[id] = &entry{
		id:       id,
		interval: interval,
		next:     s.now().Add(interval),
		fn:       fn,
	}
	registeredEntries.Inc()
	return id, nil
}

// Unregister removes the entry and reports whether it existed.
func (s *Scheduler) Unregister(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	registeredEntries.Dec()
	return true
}

// NextFire returns the time the entry is next due.
func (s *Scheduler) NextFire(id int) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return e.next, true
}

// Len returns the number of registered entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RunDueNow runs RunDue with the scheduler's clock.
func (s *Scheduler) RunDueNow() {
	s.RunDue(s.now())
}

// RunDue fires every entry whose next fire time is at or before now, in id
// order, at most once per entry per call. After each fire the entry advances
// by exactly one interval, so a late pump is caught up on following pumps.
//
// The entry set is snapshotted before iterating: entries registered by a
// callback wait for the next call, entries unregistered by a callback do not
// fire.
func (s *Scheduler) RunDue(now time.Time) {
	for _, e := range s.due(now) {
		if !s.registered(e) {
			continue
		}

		s.fire(e)

		s.mu.Lock()
		e.next = e.next.Add(e.interval)
		if skipped := s.skipBacklog(e, now); skipped > 0 {
			skippedFires.Add(float64(skipped))
		}
		s.mu.Unlock()
	}
}

// due snapshots the entries that are due at now, ordered by id.
func (s *Scheduler) due(now time.Time) []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*entry
	for _, e := range s.entries {
		if !now.Before(e.next) {
			due = append(due, e)
		}
	}
	slices.SortFunc(due, func(a, b *entry) int { return a.id - b.id })
	return due
}

func (s *Scheduler) registered(e *entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[e.id]
	return ok && cur == e
}

// skipBacklog moves e.next forward in whole intervals until at most
// maxBacklog fires are still owed at now. Caller holds s.mu.
func (s *Scheduler) skipBacklog(e *entry, now time.Time) int {
	if now.Before(e.next) {
		return 0
	}
	// Fires still owed, counting the one at e.next.
	owed := int(now.Sub(e.next)/e.interval) + 1
	if owed <= s.maxBacklog {
		return 0
	}
	skip := owed - s.maxBacklog
	e.next = e.next.Add(time.Duration(skip) * e.interval)
	return skip
}

// fire runs one callback, isolating its error or panic from the other entries.
func (s *Scheduler) fire(e *entry) {
	fires.Inc()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return e.fn()
	}()

	if err != nil {
		failures.Inc()
		s.logger.Error("tick handler error", "tick_id", e.id, "error", err)
	}
}
