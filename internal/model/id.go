package model

import "github.com/oklog/ulid/v2"

// NewID generates a new ULID string for use as a message identifier.
// ULIDs sort by creation time, so queue IDs in logs read in FIFO order.
func NewID() string {
	return ulid.Make().String()
}
