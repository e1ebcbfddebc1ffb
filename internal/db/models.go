package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"esg-backend/internal/esg"
	"esg-backend/internal/scoring"
)

type Supplier struct {
	ID       string         `db:"id"`
	Username string         `db:"username"`
	Name     string         `db:"name"`
	CINNo    sql.NullString `db:"cin_no"`
	Industry string         `db:"industry"`

	Address                 string          `db:"address"`
	City                    string          `db:"city"`
	State                   string          `db:"state"`
	Country                 string          `db:"country"`
	TotalRevenue            sql.NullFloat64 `db:"total_revenue"`
	PANCard                 string          `db:"pan_card"`
	GSTNo                   sql.NullString  `db:"gst_no"`
	SizeOfSupplier          string          `db:"size_of_supplier"`
	ContactPerson           string          `db:"contact_person"`
	ContactPersonPosition   string          `db:"contact_person_position"`
	OwnershipType           string          `db:"ownership_type"`
	PercentageOfTotalSupply sql.NullFloat64 `db:"percentage_of_total_supply"`
	CriticalityToOperations string          `db:"criticality_to_operations"`
	LengthOfRelationship    sql.NullInt64   `db:"length_of_relationship"`
	RelationshipQuality     string          `db:"relationship_quality"`
	ReportingPeriod         sql.NullInt64   `db:"reporting_period"`

	ESGScore    sql.NullFloat64 `db:"esg_score"`
	ScoreReport []byte          `db:"score_report"`
	ScoredAt    sql.NullTime    `db:"scored_at"`
	CreatedAt   time.Time       `db:"created_at"`
}

func supplierRow(s scoring.Supplier) Supplier {
	return Supplier{
		ID:                      s.ID,
		Username:                s.Username,
		Name:                    s.Name,
		CINNo:                   nullString(s.CINNo),
		Industry:                s.Industry,
		Address:                 s.Address,
		City:                    s.Location.City,
		State:                   s.Location.State,
		Country:                 s.Location.Country,
		TotalRevenue:            nullFloat(s.TotalRevenue),
		PANCard:                 s.PANCard,
		GSTNo:                   nullString(s.GSTNo),
		SizeOfSupplier:          s.SizeOfSupplier,
		ContactPerson:           s.ContactPerson,
		ContactPersonPosition:   s.ContactPersonPosition,
		OwnershipType:           s.OwnershipType,
		PercentageOfTotalSupply: nullFloat(s.PercentageOfTotalSupply),
		CriticalityToOperations: s.CriticalityToOperations,
		LengthOfRelationship:    nullInt(s.LengthOfRelationship),
		RelationshipQuality:     s.RelationshipQuality,
		ReportingPeriod:         nullInt(s.ReportingPeriod),
	}
}

func (s Supplier) toDomain(links []string) (scoring.Supplier, error) {
	out := scoring.Supplier{
		ID:         s.ID,
		Username:   s.Username,
		Name:       s.Name,
		CINNo:      s.CINNo.String,
		Industry:   s.Industry,
		SuppliesTo: links,
		Profile: scoring.Profile{
			Address:                 s.Address,
			Location:                scoring.Location{City: s.City, State: s.State, Country: s.Country},
			TotalRevenue:            floatPtr(s.TotalRevenue),
			PANCard:                 s.PANCard,
			GSTNo:                   s.GSTNo.String,
			SizeOfSupplier:          s.SizeOfSupplier,
			ContactPerson:           s.ContactPerson,
			ContactPersonPosition:   s.ContactPersonPosition,
			OwnershipType:           s.OwnershipType,
			PercentageOfTotalSupply: floatPtr(s.PercentageOfTotalSupply),
			CriticalityToOperations: s.CriticalityToOperations,
			LengthOfRelationship:    intPtr(s.LengthOfRelationship),
			RelationshipQuality:     s.RelationshipQuality,
			ReportingPeriod:         intPtr(s.ReportingPeriod),
		},
		ESGScore:  floatPtr(s.ESGScore),
		CreatedAt: s.CreatedAt,
	}
	if out.SuppliesTo == nil {
		out.SuppliesTo = []string{}
	}
	if len(s.ScoreReport) > 0 {
		var rep esg.Report
		if err := json.Unmarshal(s.ScoreReport, &rep); err != nil {
			return scoring.Supplier{}, fmt.Errorf("decode score report of %s: %w", s.Username, err)
		}
		out.Report = &rep
	}
	if s.ScoredAt.Valid {
		t := s.ScoredAt.Time
		out.ScoredAt = &t
	}
	return out, nil
}

func nullString(v string) sql.NullString { return sql.NullString{String: v, Valid: v != ""} }

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

type Submission struct {
	ID         string    `db:"id"`
	Seq        int64     `db:"seq"`
	SupplierID string    `db:"supplier_id"`
	TimePeriod time.Time `db:"time_period"`
	Answers    []byte    `db:"answers"`
	RawRef     string    `db:"raw_ref"`
	CreatedAt  time.Time `db:"created_at"`
}

func (s Submission) record() scoring.SubmissionRecord {
	return scoring.SubmissionRecord{ID: s.ID, TimePeriod: s.TimePeriod, RawRef: s.RawRef, CreatedAt: s.CreatedAt}
}

// answersDoc is the jsonb shape of submissions.answers.
type answersDoc struct {
	Environment esg.Environment `json:"environment"`
	Social      esg.Social      `json:"social"`
	Governance  esg.Governance  `json:"governance"`
}
