// Package tick provides a cooperative, interval-based repeating-callback
// registry. The scheduler owns no goroutines: callbacks run inside RunDue, on
// whichever goroutine pumps it, and that must be a single dedicated loop.
package tick
