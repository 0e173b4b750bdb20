package gateway

import (
	"sync"
	"time"

	"github.com/seantiz/lchgate/internal/model"
)

// Message is one submitted payload waiting for dispatch.
type Message struct {
	ID         string
	Body       string
	EnqueuedAt time.Time
}

// Queue is an unbounded FIFO of messages. Push never blocks; the consumer
// drains it with PopNonBlocking from the host loop.
type Queue struct {
	mu    sync.Mutex
	items []Message
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends body to the tail and returns the stored message.
func (q *Queue) Push(body string) Message {
	msg := Message{
		ID:         model.NewID(),
		Body:       body,
		EnqueuedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()

	messagesEnqueued.Inc()
	return msg
}

// PopNonBlocking removes and returns the head, or false if the queue is empty.
func (q *Queue) PopNonBlocking() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Message{}, false
	}
	msg := q.items[0]
	q.items[0] = Message{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		// Drop the drained backing array.
		q.items = nil
	}

	messagesDequeued.Inc()
	return msg, true
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
