package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esg-backend/internal/esg"
	"esg-backend/internal/scoring"
	"esg-backend/internal/scoring/scoringtest"
)

type fakeQueue struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func setup(t *testing.T) (*scoring.Service, *scoringtest.Repo) {
	t.Helper()
	repo := scoringtest.NewRepo()
	svc := scoring.New(repo, nil)
	ctx := context.Background()
	for _, u := range []string{"acme", "globex"} {
		_, err := svc.CreateSupplier(ctx, scoring.Supplier{Username: u, Industry: "Logistics"})
		require.NoError(t, err)
	}
	return svc, repo
}

func TestNewRecomputeTask(t *testing.T) {
	task, err := NewRecomputeTask("acme")
	require.NoError(t, err)
	assert.Equal(t, TypeRecomputeScore, task.Type())
	assert.JSONEq(t, `{"username":"acme"}`, string(task.Payload()))
}

func TestEnqueueRecomputeAll(t *testing.T) {
	svc, _ := setup(t)
	q := &fakeQueue{}
	n, err := EnqueueRecomputeAll(context.Background(), q, svc)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, q.tasks, 2)

	var p recomputePayload
	require.NoError(t, json.Unmarshal(q.tasks[1].Payload(), &p))
	assert.Equal(t, "globex", p.Username)

	_, err = EnqueueRecomputeAll(context.Background(), &fakeQueue{err: errors.New("redis down")}, svc)
	assert.ErrorContains(t, err, "redis down")
}

func TestHandleRecompute(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	_, _, err := svc.Submit(ctx, "acme", esg.Submission{
		TimePeriod: time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC),
		Social:     esg.Social{CommunityInvolvement: []esg.QuestionAnswer{{Question: "q", Answer: "true"}}},
	}, nil)
	require.NoError(t, err)

	w := &Server{Scores: svc}
	task, err := NewRecomputeTask("acme")
	require.NoError(t, err)
	require.NoError(t, w.handleRecompute(ctx, task))
	rep, ok := repo.Report("acme")
	require.True(t, ok)
	assert.Equal(t, 100.0, rep.Social.Score)

	// no submissions and unknown suppliers are acknowledged, not retried
	task, _ = NewRecomputeTask("globex")
	assert.NoError(t, w.handleRecompute(ctx, task))
	task, _ = NewRecomputeTask("ghost")
	assert.NoError(t, w.handleRecompute(ctx, task))

	err = w.handleRecompute(ctx, asynq.NewTask(TypeRecomputeScore, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
