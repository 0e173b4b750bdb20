// Package gateway holds the state shared between request handlers and the host
// loop: a FIFO work queue of submitted messages and a single-slot result cache.
// Both are safe for concurrent use.
package gateway
