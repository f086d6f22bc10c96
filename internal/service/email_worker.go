package service

import (
	"context"
	"sync"

	"github.com/gatherly/notification-engine/internal/metrics"
	"github.com/gatherly/notification-engine/internal/queue"
	"github.com/gatherly/notification-engine/internal/shared/logger"
)

// EmailWorkerPool drains the email queue with a fixed set of workers so a
// slow SMTP provider only delays the email channel, never the in-app path
// that enqueued the job.
type EmailWorkerPool struct {
	service *EmailService
	queue   *queue.EmailQueue
	workers int
	log     *logger.Logger
	wg      sync.WaitGroup
}

// NewEmailWorkerPool creates a new email worker pool
func NewEmailWorkerPool(service *EmailService, q *queue.EmailQueue, workers int, log *logger.Logger) *EmailWorkerPool {
	if workers <= 0 {
		workers = 5
	}
	return &EmailWorkerPool{
		service: service,
		queue:   q,
		workers: workers,
		log:     log,
	}
}

// Start launches the workers
func (p *EmailWorkerPool) Start() {
	p.log.Info("starting email workers", "workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue and waits for in-flight sends to finish
func (p *EmailWorkerPool) Stop() {
	p.queue.Close()
	p.wg.Wait()
}

// worker pops jobs until the queue is closed and drained
func (p *EmailWorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		job := p.queue.Pop()
		if job == nil {
			p.log.Info("email worker stopping", "worker_id", id)
			return
		}

		metrics.EmailQueueSize.Set(float64(p.queue.Len()))
		p.service.Deliver(context.Background(), job.Notification, job.Recipient)
	}
}
