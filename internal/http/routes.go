package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"

	"esg-backend/internal/config"
	"esg-backend/internal/esg"
	"esg-backend/internal/schemas"
	"esg-backend/internal/scoring"
	"esg-backend/internal/worker"
)

const maxBodyBytes = 1 << 20

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	DB     Pinger
	Scores *scoring.Service
	Queue  worker.Enqueuer
}

func NewServer(cfg config.Config, db Pinger, scores *scoring.Service, q worker.Enqueuer) *http.Server {
	s := &Server{DB: db, Scores: scores, Queue: q}
	return &http.Server{Addr: cfg.ListenAddr, Handler: s.Routes(cfg.APIToken)}
}

func (s *Server) Routes(apiToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Post("/score", s.scoreSubmission)

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(apiToken))
		r.Post("/suppliers", s.createSupplier)
		r.Get("/suppliers/{username}", s.getSupplier)
		r.Patch("/suppliers/{username}", s.updateSupplier)
		r.Post("/suppliers/{username}/submissions", s.addSubmission)
		r.Get("/suppliers/{username}/submissions", s.listSubmissions)
		r.Get("/suppliers/{username}/submissions/{id}/raw", s.rawSubmission)
		r.Post("/suppliers/{username}/esgscore", s.updateScore)
		r.Get("/suppliers/{username}/esgscores", s.getScores)

		r.Get("/companies/{cin}/suppliers", s.companySuppliers)
		r.Post("/companies/{cin}/suppliers", s.linkSupplier)
		r.Delete("/companies/{cin}/suppliers/{username}", s.unlinkSupplier)

		r.Post("/admin/recompute", s.recomputeAll)
	})
	return r
}

type errResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var malformed *esg.MalformedSubmissionError
	switch {
	case errors.Is(err, scoring.ErrSupplierNotFound),
		errors.Is(err, scoring.ErrSubmissionNotFound),
		errors.Is(err, scoring.ErrNotArchived):
		writeJSON(w, http.StatusNotFound, errResp{err.Error()})
	case errors.Is(err, scoring.ErrConflict):
		writeJSON(w, http.StatusConflict, errResp{err.Error()})
	case errors.Is(err, scoring.ErrInvalid), errors.As(err, &malformed):
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
	case errors.Is(err, esg.ErrNoData):
		writeJSON(w, http.StatusUnprocessableEntity, errResp{"no submissions found for this supplier"})
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errResp{"internal server error"})
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errResp{err.Error()})
		return nil, false
	}
	return b, true
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recomputeAll(w http.ResponseWriter, r *http.Request) {
	if s.Queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{"job queue not configured"})
		return
	}
	n, err := worker.EnqueueRecomputeAll(r.Context(), s.Queue, s.Scores)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, schemas.RecomputeResponse{Enqueued: n})
}
