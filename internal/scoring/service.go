package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"esg-backend/internal/esg"
)

var (
	ErrInvalid     = errors.New("invalid request")
	ErrNotArchived = errors.New("submission payload not archived")
)

type Service struct {
	repo    Repository
	archive Archiver
}

// New returns a Service. archive may be nil, in which case raw payloads
// are not kept.
func New(repo Repository, archive Archiver) *Service {
	return &Service{repo: repo, archive: archive}
}

// normalizeUsername is applied at every entry point, so usernames match
// regardless of case or surrounding space.
func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

func validateSupplier(in Supplier) error {
	switch {
	case in.Username == "":
		return fmt.Errorf("%w: username is required", ErrInvalid)
	case strings.ContainsAny(in.Username, " /"):
		return fmt.Errorf("%w: username must not contain spaces or slashes", ErrInvalid)
	case in.Name == "":
		return fmt.Errorf("%w: name must not be empty", ErrInvalid)
	case in.Industry == "":
		return fmt.Errorf("%w: industry is required", ErrInvalid)
	}
	return in.Profile.validate()
}

// CreateSupplier stores a new supplier together with its SuppliesTo links.
func (s *Service) CreateSupplier(ctx context.Context, in Supplier) (Supplier, error) {
	in.Username = normalizeUsername(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.CINNo = strings.TrimSpace(in.CINNo)
	in.Industry = strings.TrimSpace(in.Industry)
	in.GSTNo = strings.TrimSpace(in.GSTNo)
	if in.Name == "" {
		in.Name = in.Username
	}
	if err := validateSupplier(in); err != nil {
		return Supplier{}, err
	}
	cins, err := normalizeCINs(in.SuppliesTo)
	if err != nil {
		return Supplier{}, err
	}
	in.SuppliesTo = cins
	in.ID = uuid.NewString()
	return s.repo.CreateSupplier(ctx, in)
}

// UpdateSupplier changes the fields present in patch and leaves the rest.
func (s *Service) UpdateSupplier(ctx context.Context, username string, patch SupplierPatch) (Supplier, error) {
	if patch.empty() {
		return Supplier{}, fmt.Errorf("%w: at least one field must be provided", ErrInvalid)
	}
	return s.repo.UpdateSupplier(ctx, normalizeUsername(username), func(sup *Supplier) error {
		if err := patch.apply(sup); err != nil {
			return err
		}
		return validateSupplier(*sup)
	})
}

func (s *Service) Supplier(ctx context.Context, username string) (Supplier, error) {
	return s.repo.GetSupplier(ctx, normalizeUsername(username))
}

func (s *Service) Usernames(ctx context.Context) ([]string, error) {
	return s.repo.ListUsernames(ctx)
}

func (s *Service) LinkCompany(ctx context.Context, username, cinNo string) error {
	cinNo = strings.TrimSpace(cinNo)
	if cinNo == "" {
		return fmt.Errorf("%w: cinNo is required", ErrInvalid)
	}
	return s.repo.LinkCompany(ctx, normalizeUsername(username), cinNo)
}

func (s *Service) UnlinkCompany(ctx context.Context, username, cinNo string) error {
	return s.repo.UnlinkCompany(ctx, normalizeUsername(username), strings.TrimSpace(cinNo))
}

// Submit stores a new questionnaire submission and, in the same
// transaction, recomputes and persists the supplier's score from its most
// recent submission. raw, when non-nil, is archived as received; the
// archived copy is removed again if the transaction fails.
func (s *Service) Submit(ctx context.Context, username string, sub esg.Submission, raw any) (SubmissionRecord, esg.Report, error) {
	username = normalizeUsername(username)
	if sub.TimePeriod.IsZero() {
		return SubmissionRecord{}, esg.Report{}, &esg.MalformedSubmissionError{Field: "timePeriod", Err: errors.New("required")}
	}
	if _, err := s.repo.GetSupplier(ctx, username); err != nil {
		return SubmissionRecord{}, esg.Report{}, err
	}
	sub.ID = uuid.NewString()

	var ref string
	if s.archive != nil && raw != nil {
		var err error
		ref, err = s.archive.PutJSON(ctx, fmt.Sprintf("submissions/%s/%s.json", username, sub.ID), raw)
		if err != nil {
			return SubmissionRecord{}, esg.Report{}, fmt.Errorf("archive submission: %w", err)
		}
	}

	var (
		rec SubmissionRecord
		rep esg.Report
	)
	err := s.repo.InSupplierTx(ctx, username, func(tx SupplierTx) error {
		var err error
		if rec, err = tx.InsertSubmission(ctx, sub, ref); err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
		rep, err = recompute(ctx, tx)
		return err
	})
	if err != nil && ref != "" {
		if derr := s.archive.Delete(ctx, ref); derr != nil {
			err = errors.Join(err, fmt.Errorf("remove orphaned archive %s: %w", ref, derr))
		}
	}
	return rec, rep, err
}

// Recompute scores the supplier's most recent submission and persists the
// result.
func (s *Service) Recompute(ctx context.Context, username string) (esg.Report, error) {
	var rep esg.Report
	err := s.repo.InSupplierTx(ctx, normalizeUsername(username), func(tx SupplierTx) error {
		var err error
		rep, err = recompute(ctx, tx)
		return err
	})
	return rep, err
}

func recompute(ctx context.Context, tx SupplierTx) (esg.Report, error) {
	subs, err := tx.Submissions(ctx)
	if err != nil {
		return esg.Report{}, fmt.Errorf("load submissions: %w", err)
	}
	latest, err := esg.MostRecent(subs)
	if err != nil {
		return esg.Report{}, err
	}
	rep := esg.GradeResult(esg.Score(latest))
	if err := tx.SaveScore(ctx, rep); err != nil {
		return esg.Report{}, fmt.Errorf("save score: %w", err)
	}
	return rep, nil
}

// Current returns the graded report for the supplier's most recent
// submission without persisting anything.
func (s *Service) Current(ctx context.Context, username string) (esg.Report, error) {
	username = normalizeUsername(username)
	if _, err := s.repo.GetSupplier(ctx, username); err != nil {
		return esg.Report{}, err
	}
	subs, err := s.repo.Submissions(ctx, username)
	if err != nil {
		return esg.Report{}, err
	}
	latest, err := esg.MostRecent(subs)
	if err != nil {
		return esg.Report{}, err
	}
	return esg.GradeResult(esg.Score(latest)), nil
}

func (s *Service) Submissions(ctx context.Context, username string) ([]SubmissionRecord, error) {
	username = normalizeUsername(username)
	if _, err := s.repo.GetSupplier(ctx, username); err != nil {
		return nil, err
	}
	return s.repo.ListSubmissions(ctx, username)
}

// RawSubmission fetches the archived payload of a submission.
func (s *Service) RawSubmission(ctx context.Context, username, id string) (map[string]any, error) {
	rec, err := s.repo.GetSubmission(ctx, normalizeUsername(username), id)
	if err != nil {
		return nil, err
	}
	if s.archive == nil || rec.RawRef == "" {
		return nil, ErrNotArchived
	}
	return s.archive.GetJSON(ctx, rec.RawRef)
}

type RankedSupplier struct {
	Username string    `json:"username"`
	Name     string    `json:"name"`
	ESGScore float64   `json:"esgScore"`
	Grade    esg.Grade `json:"grade"`
}

// Portfolio is the company view of its suppliers.
//
// AvgESGScore is the mean over ScoredSuppliers only: a supplier that has
// never been scored does not pull the average towards 0, and it is null
// when no linked supplier has a score. Top3 and Bottom3 rank scored
// suppliers only, ties broken by username.
type Portfolio struct {
	CINNo           string           `json:"cinNo"`
	Suppliers       []Supplier       `json:"suppliers"`
	TotalSuppliers  int              `json:"totalSuppliers"`
	ScoredSuppliers int              `json:"scoredSuppliers"`
	AvgESGScore     *float64         `json:"avgESGScore"`
	Top3            []RankedSupplier `json:"top3Suppliers"`
	Bottom3         []RankedSupplier `json:"bottom3Suppliers"`
}

// Portfolio summarises the suppliers linked to a company. Suppliers without
// a score are listed but left out of the average and the rankings.
func (s *Service) Portfolio(ctx context.Context, cinNo string) (Portfolio, error) {
	cinNo = strings.TrimSpace(cinNo)
	suppliers, err := s.repo.SuppliersForCompany(ctx, cinNo)
	if err != nil {
		return Portfolio{}, err
	}
	p := Portfolio{
		CINNo:          cinNo,
		Suppliers:      suppliers,
		TotalSuppliers: len(suppliers),
		Top3:           []RankedSupplier{},
		Bottom3:        []RankedSupplier{},
	}
	if p.Suppliers == nil {
		p.Suppliers = []Supplier{}
	}

	var ranked []RankedSupplier
	var total float64
	for _, sup := range suppliers {
		if sup.ESGScore == nil {
			continue
		}
		total += *sup.ESGScore
		ranked = append(ranked, RankedSupplier{
			Username: sup.Username,
			Name:     sup.Name,
			ESGScore: *sup.ESGScore,
			Grade:    esg.AssignGrade(*sup.ESGScore),
		})
	}
	p.ScoredSuppliers = len(ranked)
	if len(ranked) == 0 {
		return p, nil
	}
	avg := total / float64(len(ranked))
	p.AvgESGScore = &avg

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ESGScore != ranked[j].ESGScore {
			return ranked[i].ESGScore > ranked[j].ESGScore
		}
		return ranked[i].Username < ranked[j].Username
	})
	p.Top3 = append(p.Top3, ranked[:min(3, len(ranked))]...)
	p.Bottom3 = append(p.Bottom3, ranked[max(0, len(ranked)-3):]...)
	return p, nil
}
