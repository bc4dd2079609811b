package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/models"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli"
	"github.com/himanishpuri/NeuroPLI/pkg/utils"
)

// Job states.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

var (
	errQueueClosed = errors.New("job queue closed")
	errQueueFull   = errors.New("job queue full")
)

// Job tracks one queued analysis.
type Job struct {
	ID         string
	AnalysisID string
	Status     string
	Progress   int
	Stage      string
	Error      string
	Score      *float64
	Created    time.Time
	Updated    time.Time
}

// JobQueue runs analyses on a fixed pool of workers.
type JobQueue struct {
	svc    neuropli.Service
	log    neuropli.Logger
	ctx    context.Context
	cancel context.CancelFunc
	queue  chan *pending
	wg     sync.WaitGroup

	mu     sync.RWMutex
	jobs   map[string]*Job
	closed bool
}

type pending struct {
	jobID string
	req   neuropli.AnalysisRequest
}

func NewJobQueue(svc neuropli.Service, log neuropli.Logger, workers, backlog int) *JobQueue {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &JobQueue{
		svc:    svc,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		queue:  make(chan *pending, backlog),
		jobs:   make(map[string]*Job),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Submit queues req. The returned job already carries the analysis id the run
// will be stored under.
func (q *JobQueue) Submit(req neuropli.AnalysisRequest) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return Job{}, errQueueClosed
	}

	now := time.Now()
	job := &Job{
		ID:         utils.GenerateUUID(),
		AnalysisID: utils.GenerateUUID(),
		Status:     JobQueued,
		Created:    now,
		Updated:    now,
	}
	req.ID = job.AnalysisID

	select {
	case q.queue <- &pending{jobID: job.ID, req: req}:
	default:
		return Job{}, errQueueFull
	}
	q.jobs[job.ID] = job
	return *job, nil
}

// Get returns a snapshot of the job.
func (q *JobQueue) Get(id string) (Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	j, ok := q.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

func (q *JobQueue) update(id string, fn func(*Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if j, ok := q.jobs[id]; ok {
		fn(j)
		j.Updated = time.Now()
	}
}

func (q *JobQueue) worker() {
	defer q.wg.Done()
	for p := range q.queue {
		q.run(p)
	}
}

func (q *JobQueue) run(p *pending) {
	q.update(p.jobID, func(j *Job) { j.Status = JobRunning })

	req := p.req
	req.Progress = func(pct int, stage string) {
		q.update(p.jobID, func(j *Job) {
			j.Progress = pct
			j.Stage = stage
		})
	}

	a, err := q.svc.Analyze(q.ctx, req)
	q.update(p.jobID, func(j *Job) {
		if err != nil {
			j.Status = JobFailed
			j.Error = err.Error()
			return
		}
		j.Status = JobSucceeded
		j.Progress = models.ProgressPredicted
		j.Score = a.Score
	})
	if err != nil {
		q.log.Warnf("job %s failed: %v", p.jobID, err)
	}
}

// Close stops accepting jobs, cancels running analyses and waits for the
// workers to exit.
func (q *JobQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}
