package gateway

// Gateway is the context object shared by the request server and the host
// loop. A new Gateway is created per host lifecycle.
type Gateway struct {
	queue *Queue
	slot  *ResultSlot
}

// New creates a gateway with an empty queue and result slot.
func New() *Gateway {
	return &Gateway{
		queue: NewQueue(),
		slot:  NewResultSlot(),
	}
}

// Queue returns the work queue.
func (g *Gateway) Queue() *Queue {
	return g.queue
}

// Slot returns the result slot.
func (g *Gateway) Slot() *ResultSlot {
	return g.slot
}

// Call accepts a new submission. The stale result is cleared before the
// message is queued: clearing afterwards could discard a result produced for
// this very message.
func (g *Gateway) Call(body string) Message {
	g.slot.Clear()
	return g.queue.Push(body)
}

// SetResult stores the outcome reported by an executed payload.
func (g *Gateway) SetResult(text string) {
	g.slot.Set(text)
}

// TakeResult returns and clears the pending result.
func (g *Gateway) TakeResult() (string, bool) {
	return g.slot.Take()
}
