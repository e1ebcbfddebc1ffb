package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"esg-backend/internal/esg"
	"esg-backend/internal/schemas"
	"esg-backend/internal/scoring"
)

func (s *Server) createSupplier(w http.ResponseWriter, r *http.Request) {
	var in schemas.CreateSupplierRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{"bad json"})
		return
	}
	sup, err := s.Scores.CreateSupplier(r.Context(), scoring.Supplier{
		Username:   in.Username,
		Name:       in.Name,
		CINNo:      in.CINNo,
		Industry:   in.Industry,
		SuppliesTo: in.SuppliesTo,
		Profile:    in.Profile,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sup)
}

func (s *Server) updateSupplier(w http.ResponseWriter, r *http.Request) {
	var in schemas.UpdateSupplierRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{"bad json"})
		return
	}
	sup, err := s.Scores.UpdateSupplier(r.Context(), chi.URLParam(r, "username"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (s *Server) getSupplier(w http.ResponseWriter, r *http.Request) {
	sup, err := s.Scores.Supplier(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sup)
}

func (s *Server) addSubmission(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	sub, raw, err := schemas.ParseSubmission(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var archived any
	if raw != nil {
		archived = raw
	}
	rec, rep, err := s.Scores.Submit(r.Context(), chi.URLParam(r, "username"), sub, archived)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, schemas.SubmissionResponse{Submission: rec, Scores: rep})
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Scores.Submissions(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []scoring.SubmissionRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) rawSubmission(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Scores.RawSubmission(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) updateScore(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	rep, err := s.Scores.Recompute(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas.ScoresResponse{Username: username, Scores: rep})
}

func (s *Server) getScores(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	rep, err := s.Scores.Current(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas.ScoresResponse{Username: username, Scores: rep})
}

// scoreSubmission grades a questionnaire without storing it.
func (s *Server) scoreSubmission(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	sub, _, err := schemas.ParseSubmission(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, esg.GradeResult(esg.Score(sub)))
}

func (s *Server) companySuppliers(w http.ResponseWriter, r *http.Request) {
	p, err := s.Scores.Portfolio(r.Context(), chi.URLParam(r, "cin"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) linkSupplier(w http.ResponseWriter, r *http.Request) {
	var in schemas.LinkSupplierRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{"bad json"})
		return
	}
	if err := s.Scores.LinkCompany(r.Context(), in.Username, chi.URLParam(r, "cin")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unlinkSupplier(w http.ResponseWriter, r *http.Request) {
	if err := s.Scores.UnlinkCompany(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "cin")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
