package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"esg-backend/internal/esg"
	"esg-backend/internal/scoring"
)

const uniqueViolation = "23505"

const supplierColumns = `s.id, s.username, s.name, s.cin_no, s.industry,
	s.address, s.city, s.state, s.country, s.total_revenue, s.pan_card, s.gst_no,
	s.size_of_supplier, s.contact_person, s.contact_person_position, s.ownership_type,
	s.percentage_of_total_supply, s.criticality_to_operations, s.length_of_relationship,
	s.relationship_quality, s.reporting_period,
	s.esg_score, s.score_report, s.scored_at, s.created_at`

const insertSupplier = `
	insert into suppliers(id, username, name, cin_no, industry,
		address, city, state, country, total_revenue, pan_card, gst_no,
		size_of_supplier, contact_person, contact_person_position, ownership_type,
		percentage_of_total_supply, criticality_to_operations, length_of_relationship,
		relationship_quality, reporting_period)
	values(:id, :username, :name, :cin_no, :industry,
		:address, :city, :state, :country, :total_revenue, :pan_card, :gst_no,
		:size_of_supplier, :contact_person, :contact_person_position, :ownership_type,
		:percentage_of_total_supply, :criticality_to_operations, :length_of_relationship,
		:relationship_quality, :reporting_period)
	returning created_at`

const updateSupplier = `
	update suppliers set name=:name, cin_no=:cin_no, industry=:industry,
		address=:address, city=:city, state=:state, country=:country,
		total_revenue=:total_revenue, pan_card=:pan_card, gst_no=:gst_no,
		size_of_supplier=:size_of_supplier, contact_person=:contact_person,
		contact_person_position=:contact_person_position, ownership_type=:ownership_type,
		percentage_of_total_supply=:percentage_of_total_supply,
		criticality_to_operations=:criticality_to_operations,
		length_of_relationship=:length_of_relationship,
		relationship_quality=:relationship_quality, reporting_period=:reporting_period
	where id=:id`

// Repo implements scoring.Repository on Postgres.
type Repo struct {
	DB *sqlx.DB
}

var _ scoring.Repository = (*Repo)(nil)

func NewRepo(db *sqlx.DB) *Repo { return &Repo{DB: db} }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *Repo) CreateSupplier(ctx context.Context, s scoring.Supplier) (scoring.Supplier, error) {
	query, args, err := sqlx.Named(insertSupplier, supplierRow(s))
	if err != nil {
		return scoring.Supplier{}, err
	}
	err = WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &s.CreatedAt, tx.Rebind(query), args...); err != nil {
			if isUniqueViolation(err) {
				return scoring.ErrConflict
			}
			return err
		}
		return insertLinks(ctx, tx, s.ID, s.SuppliesTo)
	})
	if err != nil {
		return scoring.Supplier{}, err
	}
	if s.SuppliesTo == nil {
		s.SuppliesTo = []string{}
	}
	return s, nil
}

func insertLinks(ctx context.Context, tx *sqlx.Tx, supplierID string, cins []string) error {
	for _, cin := range cins {
		if _, err := tx.ExecContext(ctx, `insert into supplier_companies(supplier_id, company_cin) values($1, $2) on conflict do nothing`, supplierID, cin); err != nil {
			return err
		}
	}
	return nil
}

func supplierLinks(ctx context.Context, q sqlx.QueryerContext, supplierID string) ([]string, error) {
	var links []string
	err := sqlx.SelectContext(ctx, q, &links, `select company_cin from supplier_companies where supplier_id=$1 order by company_cin`, supplierID)
	return links, err
}

func (r *Repo) GetSupplier(ctx context.Context, username string) (scoring.Supplier, error) {
	var row Supplier
	err := r.DB.GetContext(ctx, &row, `select `+supplierColumns+` from suppliers s where s.username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return scoring.Supplier{}, scoring.ErrSupplierNotFound
	}
	if err != nil {
		return scoring.Supplier{}, err
	}
	links, err := supplierLinks(ctx, r.DB, row.ID)
	if err != nil {
		return scoring.Supplier{}, err
	}
	return row.toDomain(links)
}

// UpdateSupplier locks the supplier row, applies fn and writes every
// column back. Links are replaced only when fn changed them.
func (r *Repo) UpdateSupplier(ctx context.Context, username string, fn func(s *scoring.Supplier) error) (scoring.Supplier, error) {
	var out scoring.Supplier
	err := WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		var row Supplier
		err := tx.GetContext(ctx, &row, `select `+supplierColumns+` from suppliers s where s.username=$1 for update`, username)
		if errors.Is(err, sql.ErrNoRows) {
			return scoring.ErrSupplierNotFound
		}
		if err != nil {
			return err
		}
		links, err := supplierLinks(ctx, tx, row.ID)
		if err != nil {
			return err
		}
		cur, err := row.toDomain(links)
		if err != nil {
			return err
		}
		next := cur
		next.SuppliesTo = slices.Clone(cur.SuppliesTo)
		if err := fn(&next); err != nil {
			return err
		}

		if _, err := tx.NamedExecContext(ctx, updateSupplier, supplierRow(next)); err != nil {
			if isUniqueViolation(err) {
				return scoring.ErrConflict
			}
			return err
		}
		if !slices.Equal(cur.SuppliesTo, next.SuppliesTo) {
			if _, err := tx.ExecContext(ctx, `delete from supplier_companies where supplier_id=$1`, row.ID); err != nil {
				return err
			}
			if err := insertLinks(ctx, tx, row.ID, next.SuppliesTo); err != nil {
				return err
			}
		}
		if next.SuppliesTo == nil {
			next.SuppliesTo = []string{}
		}
		out = next
		return nil
	})
	return out, err
}

func (r *Repo) ListUsernames(ctx context.Context) ([]string, error) {
	var out []string
	err := r.DB.SelectContext(ctx, &out, `select username from suppliers order by username`)
	return out, err
}

func (r *Repo) supplierID(ctx context.Context, q sqlx.QueryerContext, username string) (string, error) {
	var id string
	err := sqlx.GetContext(ctx, q, &id, `select id from suppliers where username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", scoring.ErrSupplierNotFound
	}
	return id, err
}

func (r *Repo) LinkCompany(ctx context.Context, username, cinNo string) error {
	id, err := r.supplierID(ctx, r.DB, username)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `insert into supplier_companies(supplier_id, company_cin) values($1, $2) on conflict do nothing`, id, cinNo)
	return err
}

func (r *Repo) UnlinkCompany(ctx context.Context, username, cinNo string) error {
	id, err := r.supplierID(ctx, r.DB, username)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `delete from supplier_companies where supplier_id=$1 and company_cin=$2`, id, cinNo)
	return err
}

func (r *Repo) SuppliersForCompany(ctx context.Context, cinNo string) ([]scoring.Supplier, error) {
	var rows []Supplier
	err := r.DB.SelectContext(ctx, &rows, `
		select `+supplierColumns+` from suppliers s
		join supplier_companies c on c.supplier_id = s.id
		where c.company_cin=$1
		order by s.username`, cinNo)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var links []struct {
		SupplierID string `db:"supplier_id"`
		CompanyCIN string `db:"company_cin"`
	}
	err = r.DB.SelectContext(ctx, &links, `
		select l.supplier_id, l.company_cin from supplier_companies l
		where l.supplier_id in (select supplier_id from supplier_companies where company_cin=$1)
		order by l.company_cin`, cinNo)
	if err != nil {
		return nil, err
	}
	bySupplier := make(map[string][]string, len(rows))
	for _, l := range links {
		bySupplier[l.SupplierID] = append(bySupplier[l.SupplierID], l.CompanyCIN)
	}

	out := make([]scoring.Supplier, 0, len(rows))
	for _, row := range rows {
		sup, err := row.toDomain(bySupplier[row.ID])
		if err != nil {
			return nil, err
		}
		out = append(out, sup)
	}
	return out, nil
}

func (r *Repo) ListSubmissions(ctx context.Context, username string) ([]scoring.SubmissionRecord, error) {
	id, err := r.supplierID(ctx, r.DB, username)
	if err != nil {
		return nil, err
	}
	var rows []Submission
	err = r.DB.SelectContext(ctx, &rows, `
		select id, seq, supplier_id, time_period, answers, raw_ref, created_at
		from submissions where supplier_id=$1 order by seq`, id)
	if err != nil {
		return nil, err
	}
	out := make([]scoring.SubmissionRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

func (r *Repo) GetSubmission(ctx context.Context, username, id string) (scoring.SubmissionRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return scoring.SubmissionRecord{}, scoring.ErrSubmissionNotFound
	}
	supplierID, err := r.supplierID(ctx, r.DB, username)
	if err != nil {
		return scoring.SubmissionRecord{}, err
	}
	var row Submission
	err = r.DB.GetContext(ctx, &row, `
		select id, seq, supplier_id, time_period, answers, raw_ref, created_at
		from submissions where supplier_id=$1 and id=$2`, supplierID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return scoring.SubmissionRecord{}, scoring.ErrSubmissionNotFound
	}
	if err != nil {
		return scoring.SubmissionRecord{}, err
	}
	return row.record(), nil
}

func (r *Repo) Submissions(ctx context.Context, username string) ([]esg.Submission, error) {
	id, err := r.supplierID(ctx, r.DB, username)
	if err != nil {
		return nil, err
	}
	return loadSubmissions(ctx, r.DB, id)
}

func loadSubmissions(ctx context.Context, q sqlx.QueryerContext, supplierID string) ([]esg.Submission, error) {
	var rows []Submission
	err := sqlx.SelectContext(ctx, q, &rows, `
		select id, seq, supplier_id, time_period, answers, raw_ref, created_at
		from submissions where supplier_id=$1 order by seq`, supplierID)
	if err != nil {
		return nil, err
	}
	out := make([]esg.Submission, 0, len(rows))
	for _, row := range rows {
		var doc answersDoc
		if err := json.Unmarshal(row.Answers, &doc); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", row.ID, err)
		}
		out = append(out, esg.Submission{
			ID:          row.ID,
			TimePeriod:  row.TimePeriod,
			Environment: doc.Environment,
			Social:      doc.Social,
			Governance:  doc.Governance,
		})
	}
	return out, nil
}

func (r *Repo) InSupplierTx(ctx context.Context, username string, fn func(tx scoring.SupplierTx) error) error {
	return WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		var id string
		err := tx.GetContext(ctx, &id, `select id from suppliers where username=$1 for update`, username)
		if errors.Is(err, sql.ErrNoRows) {
			return scoring.ErrSupplierNotFound
		}
		if err != nil {
			return err
		}
		return fn(&supplierTx{tx: tx, supplierID: id})
	})
}

type supplierTx struct {
	tx         *sqlx.Tx
	supplierID string
}

func (t *supplierTx) InsertSubmission(ctx context.Context, sub esg.Submission, rawRef string) (scoring.SubmissionRecord, error) {
	answers, err := json.Marshal(answersDoc{Environment: sub.Environment, Social: sub.Social, Governance: sub.Governance})
	if err != nil {
		return scoring.SubmissionRecord{}, err
	}
	rec := scoring.SubmissionRecord{ID: sub.ID, TimePeriod: sub.TimePeriod, RawRef: rawRef}
	err = t.tx.GetContext(ctx, &rec.CreatedAt, `
		insert into submissions(id, supplier_id, time_period, answers, raw_ref)
		values($1, $2, $3, $4, $5)
		returning created_at`,
		sub.ID, t.supplierID, sub.TimePeriod, answers, rawRef)
	if err != nil {
		return scoring.SubmissionRecord{}, err
	}
	return rec, nil
}

func (t *supplierTx) Submissions(ctx context.Context) ([]esg.Submission, error) {
	return loadSubmissions(ctx, t.tx, t.supplierID)
}

func (t *supplierTx) SaveScore(ctx context.Context, rep esg.Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `update suppliers set esg_score=$2, score_report=$3, scored_at=now() where id=$1`, t.supplierID, rep.Overall.Score, b)
	return err
}
