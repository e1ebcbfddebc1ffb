package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"esg-backend/internal/esg"
	"esg-backend/internal/scoring"
)

const TypeRecomputeScore = "supplier:recompute_score"

type recomputePayload struct {
	Username string `json:"username"`
}

func NewRecomputeTask(username string) (*asynq.Task, error) {
	b, err := json.Marshal(recomputePayload{Username: username})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRecomputeScore, b), nil
}

// Enqueuer is the part of *asynq.Client used to schedule work.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueRecomputeAll schedules a recompute task for every supplier and
// returns how many were enqueued.
func EnqueueRecomputeAll(ctx context.Context, q Enqueuer, scores *scoring.Service) (int, error) {
	usernames, err := scores.Usernames(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range usernames {
		task, err := NewRecomputeTask(u)
		if err != nil {
			return n, err
		}
		if _, err := q.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
			return n, fmt.Errorf("enqueue %s: %w", u, err)
		}
		n++
	}
	return n, nil
}

type Server struct {
	Scores *scoring.Service
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRecomputeScore, s.handleRecompute)
	return mux
}

func (s *Server) handleRecompute(ctx context.Context, t *asynq.Task) error {
	var p recomputePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("bad payload: %v: %w", err, asynq.SkipRetry)
	}
	log.Printf("recomputing ESG score for %s", p.Username)

	rep, err := s.Scores.Recompute(ctx, p.Username)
	switch {
	case errors.Is(err, esg.ErrNoData), errors.Is(err, scoring.ErrSupplierNotFound):
		// nothing to score; tell asynq "done" so it doesn't keep retrying
		log.Printf("skip %s: %v", p.Username, err)
		return nil
	case err != nil:
		return err
	}
	log.Printf("supplier %s overall=%.2f (%s)", p.Username, rep.Overall.Score, rep.Overall.Grade)
	return nil
}

func Run(redisAddr string, concurrency int, scores *scoring.Service) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{Concurrency: concurrency})
	w := &Server{Scores: scores}
	return srv.Run(w.mux())
}
