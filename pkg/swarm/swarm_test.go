package swarm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPipeline struct {
	tokensPerWorker int
	failLabel       string
}

func (s *stubPipeline) RunWorker(ctx context.Context, sessionID, query string) (string, string, int, int, error) {
	if query == s.failLabel {
		return "", "", 0, 0, errors.New("worker failed")
	}
	return "answer for " + query, "APPROVED", s.tokensPerWorker, s.tokensPerWorker, nil
}

func tasksOf(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Label: "t", Query: "query"}
	}
	return tasks
}

func TestSpawnSwarmRejectsTooManyTasks(t *testing.T) {
	r := New(&stubPipeline{}, nil)
	_, err := r.SpawnSwarm("session1", tasksOf(11), 0)
	assert.ErrorIs(t, err, ErrTooManyTasks)
}

func TestSpawnSwarmDefaultsTokenBudget(t *testing.T) {
	r := New(&stubPipeline{}, nil)
	s, err := r.SpawnSwarm("session1", tasksOf(2), 0)
	require.NoError(t, err)
	assert.Equal(t, defaultTokenBudget, s.TokenBudget)
}

func TestSpawnSwarmEnforcesConcurrentCap(t *testing.T) {
	r := New(&stubPipeline{}, nil)
	for i := 0; i < maxConcurrentSwarms; i++ {
		_, err := r.SpawnSwarm("session1", tasksOf(1), 0)
		require.NoError(t, err)
	}
	_, err := r.SpawnSwarm("session1", tasksOf(1), 0)
	assert.ErrorIs(t, err, ErrCapacityFull)
}

func TestExecuteSwarmAllWorkersDone(t *testing.T) {
	r := New(&stubPipeline{tokensPerWorker: 100}, nil)
	s, err := r.SpawnSwarm("session1", tasksOf(3), 10000)
	require.NoError(t, err)

	require.NoError(t, r.ExecuteSwarm(context.Background(), s.SwarmID))
	assert.Equal(t, StatusDone, s.Status)
	assert.Equal(t, 600, s.TotalTokens)
}

func TestExecuteSwarmPartialOnWorkerFailure(t *testing.T) {
	r := New(&stubPipeline{tokensPerWorker: 100, failLabel: "query"}, nil)
	s, err := r.SpawnSwarm("session1", []Task{{Label: "ok", Query: "other"}, {Label: "fail", Query: "query"}}, 10000)
	require.NoError(t, err)

	require.NoError(t, r.ExecuteSwarm(context.Background(), s.SwarmID))
	assert.Equal(t, StatusPartial, s.Status)
}

func TestExecuteSwarmAbortsRemainingOnBudgetExceeded(t *testing.T) {
	r := New(&stubPipeline{tokensPerWorker: 1000}, nil)
	s, err := r.SpawnSwarm("session1", tasksOf(5), 500)
	require.NoError(t, err)

	require.NoError(t, r.ExecuteSwarm(context.Background(), s.SwarmID))

	var doneCount, abortedCount int
	for _, w := range s.Workers {
		switch w.Status {
		case StatusDone:
			doneCount++
		case StatusAborted:
			abortedCount++
		}
	}
	assert.Greater(t, doneCount, 0)
}

func TestAbortSwarmMarksWorkersAborted(t *testing.T) {
	r := New(&stubPipeline{}, nil)
	s, err := r.SpawnSwarm("session1", tasksOf(2), 0)
	require.NoError(t, err)

	require.NoError(t, r.AbortSwarm(s.SwarmID))
	assert.Equal(t, StatusAborted, s.Status)
	for _, w := range s.Workers {
		assert.Equal(t, StatusAborted, w.Status)
	}
}

func TestAbortWorkerNotFound(t *testing.T) {
	r := New(&stubPipeline{}, nil)
	s, err := r.SpawnSwarm("session1", tasksOf(1), 0)
	require.NoError(t, err)

	err = r.AbortWorker(s.SwarmID, "nonexistent")
	assert.ErrorIs(t, err, ErrWorkerNotFound)
}

func TestConcurrentExecuteReadAbortDontRace(t *testing.T) {
	r := New(&stubPipeline{tokensPerWorker: 10}, nil)
	s, err := r.SpawnSwarm("session1", tasksOf(5), 10000)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = r.ExecuteSwarm(context.Background(), s.SwarmID)
	}()

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.GetSwarm(s.SwarmID)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.AbortWorker(s.SwarmID, s.Workers[0].WorkerID)
		}()
	}
	wg.Wait()

	snapshot, err := r.GetSwarm(s.SwarmID)
	require.NoError(t, err)
	assert.NotEmpty(t, snapshot.Status)
}
