// Package swarm implements the bounded parallel sub-query runner: up to
// 10 workers per swarm, each running a full pipeline invocation under an
// isolated session id, with token-budget-based early termination and a
// process-wide cap of 5 concurrent swarms, per spec.md §4.I.
//
// Grounded on the teacher's pkg/agent/orchestrator/runner.go
// (SubAgentRunner): the reserved/pending counter pair guarding a
// concurrency cap under a single mutex, the buffered results channel,
// and the per-worker context/cancel/done-channel bookkeeping are the
// direct model, generalized from "bounded sub-agents within one
// orchestrator execution" to "bounded workers within one swarm, bounded
// swarms within the process".
package swarm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	maxWorkersPerSwarm  = 10
	maxConcurrentSwarms = 5
	defaultTokenBudget  = 50000
	completedTTL        = 15 * time.Minute
	sweepInterval       = 1 * time.Minute
)

var (
	ErrTooManyTasks   = errors.New("swarm: too many tasks for one swarm")
	ErrCapacityFull   = errors.New("swarm: max concurrent swarms reached")
	ErrSwarmNotFound  = errors.New("swarm: swarm id not found")
	ErrWorkerNotFound = errors.New("swarm: worker id not found")
)

// Status is a swarm or worker's lifecycle state.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
	StatusAborted Status = "aborted"
)

// Task is one sub-query submitted to a swarm.
type Task struct {
	Label string
	Query string
}

// Worker is one swarm participant and its outcome. Status and the result
// fields are guarded by mu: ExecuteSwarm mutates them from a worker
// goroutine while GetSwarm/AbortSwarm/AbortWorker may read or write them
// from a concurrent caller goroutine, per watchtower.Entry's
// mu-per-registry-item pattern.
type Worker struct {
	WorkerID string
	Label    string
	Query    string

	mu        sync.Mutex
	Status    Status
	Response  string
	Audit     string
	TokensIn  int
	TokensOut int
}

func (w *Worker) snapshot() Worker {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Worker{
		WorkerID: w.WorkerID, Label: w.Label, Query: w.Query,
		Status: w.Status, Response: w.Response, Audit: w.Audit,
		TokensIn: w.TokensIn, TokensOut: w.TokensOut,
	}
}

func (w *Worker) setStatus(status Status) {
	w.mu.Lock()
	w.Status = status
	w.mu.Unlock()
}

func (w *Worker) getStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Status
}

// Swarm is the full bounded-parallel run. Status and the completion
// fields are guarded by mu for the same reason as Worker's.
type Swarm struct {
	SwarmID         string
	ParentSessionID string
	Workers         []*Worker
	TokenBudget     int

	mu           sync.Mutex
	Status       Status
	TotalTokens  int
	TotalLatency time.Duration
	CompletedAt  time.Time
}

func (s *Swarm) snapshot() *Swarm {
	s.mu.Lock()
	workers := make([]*Worker, len(s.Workers))
	status, totalTokens, totalLatency, completedAt := s.Status, s.TotalTokens, s.TotalLatency, s.CompletedAt
	s.mu.Unlock()

	for i, w := range s.Workers {
		wc := w.snapshot()
		workers[i] = &wc
	}
	return &Swarm{
		SwarmID: s.SwarmID, ParentSessionID: s.ParentSessionID, Workers: workers,
		TokenBudget: s.TokenBudget, Status: status, TotalTokens: totalTokens,
		TotalLatency: totalLatency, CompletedAt: completedAt,
	}
}

func (s *Swarm) setStatus(status Status) {
	s.mu.Lock()
	s.Status = status
	s.mu.Unlock()
}

func (s *Swarm) getStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Status
}

func (s *Swarm) sweepEligible(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Status != StatusRunning && s.Status != StatusPending && s.CompletedAt.Before(cutoff)
}

// PipelineRunner is the narrow collaborator each worker invokes — a full
// pipeline run under an isolated session id. Kept as an interface so this
// package never imports pkg/orchestrator directly (the orchestrator is
// the one that constructs a Runner, not the other way around).
type PipelineRunner interface {
	RunWorker(ctx context.Context, sessionID, query string) (response, audit string, tokensIn, tokensOut int, err error)
}

// Runner owns the swarm registry and the sweep loop that garbage-collects
// completed swarms past their TTL.
type Runner struct {
	mu       sync.Mutex
	swarms   map[string]*Swarm
	reserved int

	pipeline PipelineRunner
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func New(pipeline PipelineRunner, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{swarms: make(map[string]*Swarm), pipeline: pipeline, logger: logger}
}

func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.sweepLoop(ctx)
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

func (r *Runner) sweepLoop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Runner) sweep() {
	cutoff := time.Now().Add(-completedTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.swarms {
		if s.sweepEligible(cutoff) {
			delete(r.swarms, id)
		}
	}
}

// ActiveCount returns the number of swarms currently tracked in the
// registry (running, pending, or completed but not yet swept).
func (r *Runner) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.swarms)
}

// SpawnSwarm validates limits and registers a new pending swarm.
func (r *Runner) SpawnSwarm(parentSessionID string, tasks []Task, tokenBudget int) (*Swarm, error) {
	if len(tasks) > maxWorkersPerSwarm {
		return nil, ErrTooManyTasks
	}
	if tokenBudget <= 0 {
		tokenBudget = defaultTokenBudget
	}

	r.mu.Lock()
	activeCount := 0
	for _, s := range r.swarms {
		if status := s.getStatus(); status == StatusRunning || status == StatusPending {
			activeCount++
		}
	}
	if activeCount+r.reserved >= maxConcurrentSwarms {
		r.mu.Unlock()
		return nil, ErrCapacityFull
	}
	r.reserved++
	r.mu.Unlock()

	workers := make([]*Worker, 0, len(tasks))
	for _, t := range tasks {
		workers = append(workers, &Worker{WorkerID: uuid.NewString(), Label: t.Label, Query: t.Query, Status: StatusPending})
	}

	s := &Swarm{
		SwarmID:         uuid.NewString(),
		ParentSessionID: parentSessionID,
		Workers:         workers,
		TokenBudget:     tokenBudget,
		Status:          StatusPending,
	}

	r.mu.Lock()
	r.swarms[s.SwarmID] = s
	r.reserved--
	r.mu.Unlock()

	return s, nil
}

// ExecuteSwarm launches all workers of a pending swarm concurrently.
func (r *Runner) ExecuteSwarm(ctx context.Context, swarmID string) error {
	r.mu.Lock()
	s, ok := r.swarms[swarmID]
	r.mu.Unlock()
	if !ok {
		return ErrSwarmNotFound
	}

	start := time.Now()
	s.setStatus(StatusRunning)

	var mu sync.Mutex
	var wg sync.WaitGroup
	totalTokens := 0
	aborted := false

	for i, w := range s.Workers {
		wg.Add(1)
		go func(i int, w *Worker) {
			defer wg.Done()

			mu.Lock()
			if aborted {
				mu.Unlock()
				w.setStatus(StatusAborted)
				return
			}
			mu.Unlock()
			w.setStatus(StatusRunning)

			sessionID := s.ParentSessionID + ":swarm:" + w.WorkerID
			response, audit, tokensIn, tokensOut, err := r.pipeline.RunWorker(ctx, sessionID, w.Query)

			if err != nil {
				w.setStatus(StatusFailed)
				return
			}

			w.mu.Lock()
			w.Response = response
			w.Audit = audit
			w.TokensIn = tokensIn
			w.TokensOut = tokensOut
			w.Status = StatusDone
			w.mu.Unlock()

			mu.Lock()
			totalTokens += tokensIn + tokensOut
			if totalTokens >= s.TokenBudget {
				aborted = true
			}
			mu.Unlock()
		}(i, w)
	}

	wg.Wait()

	s.mu.Lock()
	s.TotalTokens = totalTokens
	s.TotalLatency = time.Since(start)
	s.CompletedAt = time.Now()
	s.mu.Unlock()
	s.setStatus(finalStatus(s.Workers))
	return nil
}

func finalStatus(workers []*Worker) Status {
	done, any := 0, false
	for _, w := range workers {
		if w.getStatus() == StatusDone {
			done++
			any = true
		}
	}
	switch {
	case done == len(workers):
		return StatusDone
	case any:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// AbortSwarm marks every pending/running worker as aborted.
func (r *Runner) AbortSwarm(swarmID string) error {
	r.mu.Lock()
	s, ok := r.swarms[swarmID]
	r.mu.Unlock()
	if !ok {
		return ErrSwarmNotFound
	}
	for _, w := range s.Workers {
		w.mu.Lock()
		if w.Status == StatusPending || w.Status == StatusRunning {
			w.Status = StatusAborted
		}
		w.mu.Unlock()
	}
	s.mu.Lock()
	s.Status = StatusAborted
	s.CompletedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// AbortWorker marks a single worker aborted; the swarm status is not
// recomputed until the swarm as a whole completes or is aborted.
func (r *Runner) AbortWorker(swarmID, workerID string) error {
	r.mu.Lock()
	s, ok := r.swarms[swarmID]
	r.mu.Unlock()
	if !ok {
		return ErrSwarmNotFound
	}
	for _, w := range s.Workers {
		if w.WorkerID == workerID {
			w.setStatus(StatusAborted)
			return nil
		}
	}
	return ErrWorkerNotFound
}

// GetSwarm returns a point-in-time copy of the swarm by id, safe to read
// while ExecuteSwarm may still be mutating the live registry entry.
func (r *Runner) GetSwarm(swarmID string) (*Swarm, error) {
	r.mu.Lock()
	s, ok := r.swarms[swarmID]
	r.mu.Unlock()
	if !ok {
		return nil, ErrSwarmNotFound
	}
	return s.snapshot(), nil
}
