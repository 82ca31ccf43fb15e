package counter

import "sync"

// eventQueue is an unbounded FIFO between the counting goroutine and the
// consumer, so a slow presentation never stalls the timing loop. Consecutive
// undelivered Resting ticks collapse into the newest one.
type eventQueue struct {
	mu      sync.Mutex
	pending []Event
	closed  bool
	signal  chan struct{}
	out     chan Event
}

func newEventQueue() *eventQueue {
	q := &eventQueue{
		signal: make(chan struct{}, 1),
		out:    make(chan Event, 16),
	}
	go q.pump()
	return q
}

func (q *eventQueue) push(e Event) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	n := len(q.pending)
	if e.Kind == EventResting && n > 0 && q.pending[n-1].Kind == EventResting {
		q.pending[n-1] = e
	} else {
		q.pending = append(q.pending, e)
	}
	q.mu.Unlock()
	q.notify()
}

// close flushes what is pending and then closes the out channel.
func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notify()
}

func (q *eventQueue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *eventQueue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.signal
			continue
		}
		e := q.pending[0]
		q.pending[0] = Event{}
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.out <- e
	}
}
