// Package engine dispatches queued messages to the host execution capability.
// Its Dispatcher is registered as a tick callback, so every execution happens
// on the host loop, one message per tick.
package engine
