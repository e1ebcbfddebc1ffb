// Package scoringtest provides in-memory implementations of the scoring
// service's collaborators for tests.
package scoringtest

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"esg-backend/internal/esg"
	"esg-backend/internal/scoring"
)

type storedSubmission struct {
	rec scoring.SubmissionRecord
	sub esg.Submission
}

type supplierState struct {
	supplier    scoring.Supplier
	report      *esg.Report
	submissions []storedSubmission
}

// Repo is an in-memory scoring.Repository. InSupplierTx holds a single
// lock for the whole repository and discards writes when fn fails.
type Repo struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	suppliers map[string]*supplierState
	Now       func() time.Time
}

var _ scoring.Repository = (*Repo)(nil)

func NewRepo() *Repo {
	return &Repo{suppliers: map[string]*supplierState{}, Now: time.Now}
}

// Report returns the last persisted report for a supplier.
func (r *Repo) Report(username string) (esg.Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.suppliers[username]
	if !ok || st.report == nil {
		return esg.Report{}, false
	}
	return *st.report, true
}

func (r *Repo) CreateSupplier(_ context.Context, s scoring.Supplier) (scoring.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suppliers[s.Username]; ok {
		return scoring.Supplier{}, scoring.ErrConflict
	}
	if r.uniqueTaken(s) {
		return scoring.Supplier{}, scoring.ErrConflict
	}
	s.CreatedAt = r.Now()
	s.SuppliesTo = append([]string{}, s.SuppliesTo...)
	r.suppliers[s.Username] = &supplierState{supplier: s}
	return s, nil
}

// uniqueTaken reports whether another supplier already holds s's CIN or
// GST number. Callers hold r.mu.
func (r *Repo) uniqueTaken(s scoring.Supplier) bool {
	for _, st := range r.suppliers {
		if st.supplier.ID == s.ID {
			continue
		}
		if s.CINNo != "" && st.supplier.CINNo == s.CINNo {
			return true
		}
		if s.GSTNo != "" && st.supplier.GSTNo == s.GSTNo {
			return true
		}
	}
	return false
}

func (r *Repo) UpdateSupplier(_ context.Context, username string, fn func(s *scoring.Supplier) error) (scoring.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.suppliers[username]
	if !ok {
		return scoring.Supplier{}, scoring.ErrSupplierNotFound
	}
	updated := st.supplier
	updated.SuppliesTo = slices.Clone(st.supplier.SuppliesTo)
	if err := fn(&updated); err != nil {
		return scoring.Supplier{}, err
	}
	if r.uniqueTaken(updated) {
		return scoring.Supplier{}, scoring.ErrConflict
	}
	if updated.SuppliesTo == nil {
		updated.SuppliesTo = []string{}
	}
	st.supplier = updated
	return updated, nil
}

func (r *Repo) GetSupplier(_ context.Context, username string) (scoring.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.suppliers[username]
	if !ok {
		return scoring.Supplier{}, scoring.ErrSupplierNotFound
	}
	sup := st.supplier
	sup.SuppliesTo = slices.Clone(sup.SuppliesTo)
	return sup, nil
}

func (r *Repo) ListUsernames(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.suppliers))
	for u := range r.suppliers {
		out = append(out, u)
	}
	sort.Strings(out)
	return out, nil
}

func (r *Repo) LinkCompany(_ context.Context, username, cinNo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.suppliers[username]
	if !ok {
		return scoring.ErrSupplierNotFound
	}
	if !slices.Contains(st.supplier.SuppliesTo, cinNo) {
		st.supplier.SuppliesTo = append(st.supplier.SuppliesTo, cinNo)
	}
	return nil
}

func (r *Repo) UnlinkCompany(_ context.Context, username, cinNo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.suppliers[username]
	if !ok {
		return scoring.ErrSupplierNotFound
	}
	st.supplier.SuppliesTo = slices.DeleteFunc(st.supplier.SuppliesTo, func(c string) bool { return c == cinNo })
	return nil
}

func (r *Repo) SuppliersForCompany(_ context.Context, cinNo string) ([]scoring.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []scoring.Supplier
	for _, st := range r.suppliers {
		if slices.Contains(st.supplier.SuppliesTo, cinNo) {
			out = append(out, st.supplier)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *Repo) ListSubmissions(_ context.Context, username string) ([]scoring.SubmissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.suppliers[username]
	if !ok {
		return nil, scoring.ErrSupplierNotFound
	}
	out := make([]scoring.SubmissionRecord, 0, len(st.submissions))
	for _, s := range st.submissions {
		out = append(out, s.rec)
	}
	return out, nil
}

func (r *Repo) GetSubmission(_ context.Context, username, id string) (scoring.SubmissionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.suppliers[username]
	if !ok {
		return scoring.SubmissionRecord{}, scoring.ErrSupplierNotFound
	}
	for _, s := range st.submissions {
		if s.rec.ID == id {
			return s.rec, nil
		}
	}
	return scoring.SubmissionRecord{}, scoring.ErrSubmissionNotFound
}

func (r *Repo) Submissions(_ context.Context, username string) ([]esg.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.suppliers[username]
	if !ok {
		return nil, scoring.ErrSupplierNotFound
	}
	return subsOf(st.submissions), nil
}

func (r *Repo) InSupplierTx(ctx context.Context, username string, fn func(tx scoring.SupplierTx) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	st, ok := r.suppliers[username]
	var existing []storedSubmission
	if ok {
		existing = slices.Clone(st.submissions)
	}
	r.mu.Unlock()
	if !ok {
		return scoring.ErrSupplierNotFound
	}

	tx := &memTx{repo: r, submissions: existing}
	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	st.submissions = tx.submissions
	if tx.report != nil {
		st.report = tx.report
		score := tx.report.Overall.Score
		now := r.Now()
		st.supplier.ESGScore = &score
		st.supplier.Report = tx.report
		st.supplier.ScoredAt = &now
	}
	return nil
}

type memTx struct {
	repo        *Repo
	submissions []storedSubmission
	report      *esg.Report
}

func (t *memTx) InsertSubmission(_ context.Context, sub esg.Submission, rawRef string) (scoring.SubmissionRecord, error) {
	// round-trip through JSON like a real store would
	b, err := json.Marshal(sub)
	if err != nil {
		return scoring.SubmissionRecord{}, err
	}
	var stored esg.Submission
	if err := json.Unmarshal(b, &stored); err != nil {
		return scoring.SubmissionRecord{}, err
	}
	rec := scoring.SubmissionRecord{ID: sub.ID, TimePeriod: sub.TimePeriod, RawRef: rawRef, CreatedAt: t.repo.Now()}
	t.submissions = append(t.submissions, storedSubmission{rec: rec, sub: stored})
	return rec, nil
}

func (t *memTx) Submissions(context.Context) ([]esg.Submission, error) {
	return subsOf(t.submissions), nil
}

func (t *memTx) SaveScore(_ context.Context, rep esg.Report) error {
	t.report = &rep
	return nil
}

func subsOf(stored []storedSubmission) []esg.Submission {
	out := make([]esg.Submission, 0, len(stored))
	for _, s := range stored {
		out = append(out, s.sub)
	}
	return out
}

// Archive is an in-memory scoring.Archiver.
type Archive struct {
	mu      sync.Mutex
	Objects map[string]map[string]any
	Err     error
}

var _ scoring.Archiver = (*Archive)(nil)

func NewArchive() *Archive { return &Archive{Objects: map[string]map[string]any{}} }

func (a *Archive) PutJSON(_ context.Context, key string, v any) (string, error) {
	if a.Err != nil {
		return "", a.Err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return "", err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	ref := "mem://" + key
	a.Objects[ref] = doc
	return ref, nil
}

func (a *Archive) Delete(_ context.Context, ref string) error {
	if a.Err != nil {
		return a.Err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.Objects, ref)
	return nil
}

func (a *Archive) GetJSON(_ context.Context, ref string) (map[string]any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !strings.HasPrefix(ref, "mem://") {
		return nil, fmt.Errorf("bad ref %q", ref)
	}
	doc, ok := a.Objects[ref]
	if !ok {
		return nil, fmt.Errorf("object %q not found", ref)
	}
	return doc, nil
}
