package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"time-bank.com/time-bank/internal/constants"
)

// Dispatcher delivers events asynchronously with a fixed worker pool.
// Notify never blocks: when the queue is full or the dispatcher is shut
// down, the event is logged and dropped.
type Dispatcher struct {
	queue       chan Event
	wg          sync.WaitGroup
	mu          sync.RWMutex
	closed      bool
	sender      Sender
	sendTimeout time.Duration
}

func NewDispatcher(sender Sender, workers, queueSize int, sendTimeout time.Duration) *Dispatcher {
	d := &Dispatcher{
		queue:       make(chan Event, queueSize),
		sender:      sender,
		sendTimeout: sendTimeout,
	}

	for i := 1; i <= workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	return d
}

func (d *Dispatcher) Notify(userID string, eventType constants.EventType, payload map[string]any) {
	if userID == "" {
		return
	}

	event := Event{
		UserID:  userID,
		Type:    eventType,
		Payload: payload,
		At:      time.Now().UTC(),
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Printf("notify: dispatcher closed, dropping %s for user %s", eventType, userID)
		return
	}

	select {
	case d.queue <- event:
	default:
		log.Printf("notify: queue full, dropping %s for user %s", eventType, userID)
	}
}

func (d *Dispatcher) worker(workerID int) {
	defer d.wg.Done()

	for event := range d.queue {
		d.deliver(workerID, event)
	}
}

func (d *Dispatcher) deliver(workerID int, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, event); err != nil {
		log.Printf("notify worker %d: failed to send %s to user %s: %v", workerID, event.Type, event.UserID, err)
	}
}

// Shutdown stops accepting events and waits for queued ones to drain, or for
// ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("notification dispatcher shut down cleanly")
	case <-ctx.Done():
		log.Println("notification dispatcher shutdown timed out")
	}
}
