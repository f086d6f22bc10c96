package queue

import (
	"container/heap"
	"sync"

	"github.com/gatherly/notification-engine/internal/domain"
)

// Priority represents the priority level of an email job
type Priority int

const (
	// PriorityHigh for cancellations, which are time-critical for attendees
	PriorityHigh Priority = iota
	// PriorityNormal for confirmations and updates
	PriorityNormal
	// PriorityLow for reminders, which tolerate queue latency best
	PriorityLow
)

// PriorityFor maps a notification type to its queue priority
func PriorityFor(t domain.NotificationType) Priority {
	switch t {
	case domain.NotificationTypeCancellation:
		return PriorityHigh
	case domain.NotificationTypeReminder:
		return PriorityLow
	default:
		return PriorityNormal
	}
}

// EmailJob represents one pending email delivery
type EmailJob struct {
	ID           string
	Priority     Priority
	Notification *domain.Notification
	Recipient    string
	Index        int // Index in the heap
}

// emailJobHeap implements heap.Interface
type emailJobHeap []*EmailJob

func (h emailJobHeap) Len() int { return len(h) }

func (h emailJobHeap) Less(i, j int) bool {
	// Lower priority value = higher priority (processed first)
	return h[i].Priority < h[j].Priority
}

func (h emailJobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *emailJobHeap) Push(x interface{}) {
	n := len(*h)
	job := x.(*EmailJob)
	job.Index = n
	*h = append(*h, job)
}

func (h *emailJobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil // Avoid memory leak
	job.Index = -1
	*h = old[0 : n-1]
	return job
}

// EmailQueue is a thread-safe priority queue for email jobs
type EmailQueue struct {
	jobs   emailJobHeap
	mu     sync.Mutex
	cond   *sync.Cond
	closed bool
}

// NewEmailQueue creates a new email queue
func NewEmailQueue() *EmailQueue {
	q := &EmailQueue{
		jobs: make(emailJobHeap, 0),
	}
	q.cond = sync.NewCond(&q.mu)
	heap.Init(&q.jobs)
	return q
}

// Push adds a job to the queue. Pushes after Close are dropped.
func (q *EmailQueue) Push(job *EmailJob) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	heap.Push(&q.jobs, job)
	q.cond.Signal() // Wake up a waiting worker
}

// Pop removes and returns the highest priority job, blocking while the queue
// is empty. It returns nil once the queue is closed and drained, which is a
// worker's signal to exit.
func (q *EmailQueue) Pop() *EmailJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.jobs.Len() == 0 {
		if q.closed {
			return nil
		}
		q.cond.Wait()
	}

	return heap.Pop(&q.jobs).(*EmailJob)
}

// Close marks the queue closed and wakes every blocked worker
func (q *EmailQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of jobs in the queue
func (q *EmailQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.jobs.Len()
}
