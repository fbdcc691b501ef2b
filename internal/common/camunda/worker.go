// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"ria-hunter/internal/common/logger"
)

// WorkerOptions controls job activation for one task type.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

// WorkerPool owns the job workers opened against one Zeebe client.
type WorkerPool struct {
	client  zbc.Client
	log     logger.Logger
	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkerPool(client zbc.Client, log logger.Logger) *WorkerPool {
	return &WorkerPool{
		client:  client,
		log:     log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType. Each task type may be started once.
func (p *WorkerPool) Start(taskType string, opts WorkerOptions, handler worker.JobHandler) error {
	if taskType == "" {
		return fmt.Errorf("task type is required")
	}
	if handler == nil {
		return fmt.Errorf("handler for %s is nil", taskType)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.workers[taskType]; exists {
		return fmt.Errorf("worker for %s already started", taskType)
	}
	if p.client == nil {
		return fmt.Errorf("zeebe client is not configured")
	}

	step := p.client.NewJobWorker().
		JobType(taskType).
		Handler(p.guard(taskType, handler))
	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}
	p.workers[taskType] = step.Open()

	p.log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return nil
}

// guard fails the job instead of crashing the process when a handler panics.
func (p *WorkerPool) guard(taskType string, handler worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("handler panicked", map[string]interface{}{
					"taskType": taskType,
					"jobKey":   job.Key,
					"panic":    fmt.Sprint(r),
				})
				retries := job.Retries - 1
				if retries < 0 {
					retries = 0
				}
				_, _ = client.NewFailJobCommand().
					JobKey(job.Key).
					Retries(retries).
					ErrorMessage(fmt.Sprintf("handler panic: %v", r)).
					Send(context.Background())
			}
		}()
		handler(client, job)
	}
}

// TaskTypes lists the started task types in order.
func (p *WorkerPool) TaskTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.workers))
	for t := range p.workers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Stop closes every worker and waits for in-flight jobs.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for taskType, w := range p.workers {
		p.log.Info("stopping worker", map[string]interface{}{"taskType": taskType})
		w.Close()
		w.AwaitClose()
	}
	p.workers = make(map[string]worker.JobWorker)
}
