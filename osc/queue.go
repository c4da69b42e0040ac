package osc

import "sync"

// arrivalQueue is the unbounded FIFO between the receiver goroutine and the
// pump. Push is safe from any number of producers; drain swaps the backing
// slice out under the lock so dispatch never holds it.
type arrivalQueue struct {
	mu   sync.Mutex
	msgs []*Message
}

func (q *arrivalQueue) push(m *Message) {
	q.mu.Lock()
	q.msgs = append(q.msgs, m)
	q.mu.Unlock()
}

func (q *arrivalQueue) drain() []*Message {
	q.mu.Lock()
	msgs := q.msgs
	q.msgs = nil
	q.mu.Unlock()
	return msgs
}

func (q *arrivalQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}
