// Package broadcast fans out asynchronously produced messages to long-lived
// subscriber connections. Each connection owns a private bounded queue;
// producers publish by connection ID and never block on slow consumers.
package broadcast

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/valter-silva-au/toolbrain/internal/core"
)

// Message is one payload queued for delivery to a subscriber.
type Message struct {
	Event string         `json:"event,omitempty"`
	Data  map[string]any `json:"data"`
}

// Broker maintains one message queue per live subscriber connection.
// Delivery is best-effort, at-least-once while the connection is alive;
// pushes to a closed or unknown connection report ErrNotFound rather than
// failing hard.
type Broker interface {
	Open() (connectionID string, queue <-chan Message)
	Push(connectionID string, msg Message) error
	Close(connectionID string)
	Count() int
}

type chanBroker struct {
	queueSize int

	mu     sync.Mutex
	queues map[string]chan Message
}

// NewBroker creates a Broker whose per-connection queues hold up to
// queueSize undelivered messages.
func NewBroker(queueSize int) Broker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &chanBroker{
		queueSize: queueSize,
		queues:    make(map[string]chan Message),
	}
}

// Open registers a fresh connection and returns its ID and receive queue.
// The caller owns the delivery loop; it must call Close when the loop
// terminates, however it terminates.
func (b *chanBroker) Open() (string, <-chan Message) {
	id := uuid.NewString()
	ch := make(chan Message, b.queueSize)

	b.mu.Lock()
	b.queues[id] = ch
	b.mu.Unlock()

	return id, ch
}

// Push enqueues a message for the given connection. An unknown or closed
// connection returns ErrNotFound. A full queue drops the message and
// reports the drop as an error; the connection stays registered.
//
// The send happens under b.mu: Close closes the channel under the same
// lock, so a push racing a close sees either the registered channel or a
// missing entry, never a closed channel. The send itself never blocks.
func (b *chanBroker) Push(connectionID string, msg Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.queues[connectionID]
	if !ok {
		return fmt.Errorf("connection %s: %w", connectionID, core.ErrNotFound)
	}

	select {
	case ch <- msg:
		return nil
	default:
		return fmt.Errorf("connection %s: queue full, message dropped", connectionID)
	}
}

// Close deregisters a connection and discards its queue. Closing an unknown
// connection is a no-op, so deferred cleanup is always safe.
func (b *chanBroker) Close(connectionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.queues[connectionID]
	if !ok {
		return
	}
	delete(b.queues, connectionID)
	close(ch)
}

// Count returns the number of live connections.
func (b *chanBroker) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues)
}
