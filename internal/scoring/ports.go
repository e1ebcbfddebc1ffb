package scoring

import (
	"context"
	"errors"
	"time"

	"esg-backend/internal/esg"
)

var (
	ErrSupplierNotFound   = errors.New("supplier not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrConflict           = errors.New("supplier already exists")
)

type Supplier struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Name       string   `json:"name"`
	CINNo      string   `json:"cinNo,omitempty"`
	Industry   string   `json:"industry"`
	SuppliesTo []string `json:"suppliesTo"`
	Profile

	ESGScore  *float64    `json:"esgScore"`
	Report    *esg.Report `json:"scoreReport,omitempty"`
	ScoredAt  *time.Time  `json:"scoredAt,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// SubmissionRecord describes a stored submission without its answers.
type SubmissionRecord struct {
	ID         string    `json:"id"`
	TimePeriod time.Time `json:"timePeriod"`
	RawRef     string    `json:"rawRef,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Repository is the persistence collaborator of the scoring service.
// Submissions are always returned in insertion order. CreateSupplier writes
// the supplier and its SuppliesTo links together.
type Repository interface {
	CreateSupplier(ctx context.Context, s Supplier) (Supplier, error)
	GetSupplier(ctx context.Context, username string) (Supplier, error)
	// UpdateSupplier applies fn to the stored supplier and saves the result,
	// links included, in one transaction.
	UpdateSupplier(ctx context.Context, username string, fn func(s *Supplier) error) (Supplier, error)
	ListUsernames(ctx context.Context) ([]string, error)
	LinkCompany(ctx context.Context, username, cinNo string) error
	UnlinkCompany(ctx context.Context, username, cinNo string) error
	SuppliersForCompany(ctx context.Context, cinNo string) ([]Supplier, error)
	ListSubmissions(ctx context.Context, username string) ([]SubmissionRecord, error)
	GetSubmission(ctx context.Context, username, id string) (SubmissionRecord, error)
	Submissions(ctx context.Context, username string) ([]esg.Submission, error)

	// InSupplierTx runs fn with the supplier row locked, so concurrent
	// writes for one supplier are applied one at a time.
	InSupplierTx(ctx context.Context, username string, fn func(tx SupplierTx) error) error
}

type SupplierTx interface {
	InsertSubmission(ctx context.Context, sub esg.Submission, rawRef string) (SubmissionRecord, error)
	Submissions(ctx context.Context) ([]esg.Submission, error)
	SaveScore(ctx context.Context, rep esg.Report) error
}

// Archiver stores raw questionnaire payloads in object storage.
type Archiver interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
	GetJSON(ctx context.Context, ref string) (map[string]any, error)
	Delete(ctx context.Context, ref string) error
}
