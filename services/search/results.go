package search

import "sync"

// ResultQueue collects fetched records until the UI drains them.
type ResultQueue struct {
	mu      sync.Mutex
	records []ResultRecord
}

func (q *ResultQueue) Append(records ...ResultRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, records...)
}

// Drain returns every queued record and empties the queue.
func (q *ResultQueue) Drain() []ResultRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	records := q.records
	q.records = nil
	return records
}

func (q *ResultQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = nil
}

func (q *ResultQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}
