package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esg-backend/internal/esg"
	"esg-backend/internal/scoring"
)

const supplierID = "6f1c1c1e-8f51-4b61-9d59-2b2f5d0c7a10"

func newMock(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewRepo(sqlx.NewDb(mockDB, "pgx")), mock
}

var supplierCols = []string{
	"id", "username", "name", "cin_no", "industry",
	"address", "city", "state", "country", "total_revenue", "pan_card", "gst_no",
	"size_of_supplier", "contact_person", "contact_person_position", "ownership_type",
	"percentage_of_total_supply", "criticality_to_operations", "length_of_relationship",
	"relationship_quality", "reporting_period",
	"esg_score", "score_report", "scored_at", "created_at",
}

var created = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// acmeRow is the stored acme supplier with a partial profile.
func acmeRow(esgScore, report, scoredAt any) *sqlmock.Rows {
	return sqlmock.NewRows(supplierCols).AddRow(
		supplierID, "acme", "Acme Metals", nil, "Machinery",
		"1 Dock Rd", "Mumbai", "MH", "India", 1.5e7, "", nil,
		"Medium", "R. Rao", "", "", 12.5, "", int64(36), "", nil,
		esgScore, report, scoredAt, created)
}

func TestGetSupplierNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`from suppliers s where s.username`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(supplierCols))

	_, err := repo.GetSupplier(context.Background(), "ghost")
	assert.ErrorIs(t, err, scoring.ErrSupplierNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSupplier(t *testing.T) {
	repo, mock := newMock(t)
	report := []byte(`{"overall":{"score":55,"grade":"D"},"industry":{"score":75,"grade":"B"}}`)
	mock.ExpectQuery(`from suppliers s where s.username`).
		WithArgs("acme").
		WillReturnRows(acmeRow(55.0, report, created))
	mock.ExpectQuery(`select company_cin from supplier_companies`).
		WithArgs(supplierID).
		WillReturnRows(sqlmock.NewRows([]string{"company_cin"}).AddRow("L17110MH1973PLC019786"))

	s, err := repo.GetSupplier(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Metals", s.Name)
	assert.Empty(t, s.CINNo)
	require.NotNil(t, s.ESGScore)
	assert.Equal(t, 55.0, *s.ESGScore)
	assert.Equal(t, []string{"L17110MH1973PLC019786"}, s.SuppliesTo)
	require.NotNil(t, s.Report)
	assert.Equal(t, esg.GradeD, s.Report.Overall.Grade)
	assert.Equal(t, 75.0, s.Report.Industry.Score)
	require.NotNil(t, s.ScoredAt)

	assert.Equal(t, "Mumbai", s.Location.City)
	assert.Equal(t, "Medium", s.SizeOfSupplier)
	require.NotNil(t, s.TotalRevenue)
	assert.Equal(t, 1.5e7, *s.TotalRevenue)
	require.NotNil(t, s.LengthOfRelationship)
	assert.Equal(t, 36, *s.LengthOfRelationship)
	assert.Nil(t, s.ReportingPeriod)
	assert.Empty(t, s.GSTNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSupplierUnscored(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`from suppliers s where s.username`).
		WithArgs("acme").
		WillReturnRows(acmeRow(nil, nil, nil))
	mock.ExpectQuery(`select company_cin from supplier_companies`).
		WithArgs(supplierID).
		WillReturnRows(sqlmock.NewRows([]string{"company_cin"}))

	s, err := repo.GetSupplier(context.Background(), "acme")
	require.NoError(t, err)
	assert.Nil(t, s.ESGScore)
	assert.Nil(t, s.Report)
	assert.Nil(t, s.ScoredAt)
	assert.Equal(t, []string{}, s.SuppliesTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSupplierConflict(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`insert into suppliers`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := repo.CreateSupplier(context.Background(), scoring.Supplier{ID: supplierID, Username: "acme", Name: "Acme", Industry: "Machinery"})
	assert.ErrorIs(t, err, scoring.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSupplierWithLinks(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`insert into suppliers`).
		WithArgs(supplierID, "acme", "Acme", nil, "Machinery",
			"", "Pune", "", "", nil, "", "27AAACA1234A1Z5",
			"Small", "", "", "", 40.0, "", nil, "", int64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec(`insert into supplier_companies`).
		WithArgs(supplierID, "CIN1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`insert into supplier_companies`).
		WithArgs(supplierID, "CIN2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pct, period := 40.0, 12
	s, err := repo.CreateSupplier(context.Background(), scoring.Supplier{
		ID: supplierID, Username: "acme", Name: "Acme", Industry: "Machinery", SuppliesTo: []string{"CIN1", "CIN2"},
		Profile: scoring.Profile{
			Location:                scoring.Location{City: "Pune"},
			GSTNo:                   "27AAACA1234A1Z5",
			SizeOfSupplier:          "Small",
			PercentageOfTotalSupply: &pct,
			ReportingPeriod:         &period,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, created, s.CreatedAt)
	assert.Equal(t, []string{"CIN1", "CIN2"}, s.SuppliesTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSupplierRollsBackWhenLinkFails(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`insert into suppliers`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec(`insert into supplier_companies`).
		WithArgs(supplierID, "CIN1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.CreateSupplier(context.Background(), scoring.Supplier{
		ID: supplierID, Username: "acme", Name: "Acme", Industry: "Machinery", SuppliesTo: []string{"CIN1"},
	})
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// updateArgs lists the update statement's bind values in order, matching
// any value not set in want.
func updateArgs(want map[int]driver.Value) []driver.Value {
	args := make([]driver.Value, 20)
	for i := range args {
		if v, ok := want[i]; ok {
			args[i] = v
			continue
		}
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestUpdateSupplierReplacesLinks(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`from suppliers s where s.username=.+ for update`).
		WithArgs("acme").
		WillReturnRows(acmeRow(55.0, nil, created))
	mock.ExpectQuery(`select company_cin from supplier_companies`).
		WithArgs(supplierID).
		WillReturnRows(sqlmock.NewRows([]string{"company_cin"}).AddRow("CIN1"))
	// name, city and id; the untouched profile is written back as loaded
	mock.ExpectExec(`update suppliers set name=`).
		WithArgs(updateArgs(map[int]driver.Value{0: "Acme Steel", 2: "Machinery", 4: "Pune", 7: 1.5e7, 19: supplierID})...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`delete from supplier_companies where supplier_id`).
		WithArgs(supplierID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`insert into supplier_companies`).
		WithArgs(supplierID, "CIN2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := repo.UpdateSupplier(context.Background(), "acme", func(s *scoring.Supplier) error {
		s.Name = "Acme Steel"
		s.Location.City = "Pune"
		s.SuppliesTo = []string{"CIN2"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Steel", s.Name)
	assert.Equal(t, "Pune", s.Location.City)
	assert.Equal(t, "MH", s.Location.State)
	assert.Equal(t, []string{"CIN2"}, s.SuppliesTo)
	require.NotNil(t, s.ESGScore)
	assert.Equal(t, 55.0, *s.ESGScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSupplierKeepsUnchangedLinks(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`for update`).
		WithArgs("acme").
		WillReturnRows(acmeRow(nil, nil, nil))
	mock.ExpectQuery(`select company_cin from supplier_companies`).
		WithArgs(supplierID).
		WillReturnRows(sqlmock.NewRows([]string{"company_cin"}).AddRow("CIN1"))
	mock.ExpectExec(`update suppliers set name=`).
		WithArgs(updateArgs(map[int]driver.Value{11: "R. Iyer", 19: supplierID})...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := repo.UpdateSupplier(context.Background(), "acme", func(s *scoring.Supplier) error {
		s.ContactPerson = "R. Iyer"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CIN1"}, s.SuppliesTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSupplierNotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`for update`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(supplierCols))
	mock.ExpectRollback()

	_, err := repo.UpdateSupplier(context.Background(), "ghost", func(*scoring.Supplier) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, scoring.ErrSupplierNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSupplierConflictRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`for update`).
		WithArgs("acme").
		WillReturnRows(acmeRow(nil, nil, nil))
	mock.ExpectQuery(`select company_cin from supplier_companies`).
		WithArgs(supplierID).
		WillReturnRows(sqlmock.NewRows([]string{"company_cin"}))
	mock.ExpectExec(`update suppliers set name=`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"suppliers_gst_no_key\""})
	mock.ExpectRollback()

	_, err := repo.UpdateSupplier(context.Background(), "acme", func(s *scoring.Supplier) error {
		s.GSTNo = "27AAACA1234A1Z5"
		return nil
	})
	assert.ErrorIs(t, err, scoring.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSupplierRejectedByFn(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`for update`).
		WithArgs("acme").
		WillReturnRows(acmeRow(nil, nil, nil))
	mock.ExpectQuery(`select company_cin from supplier_companies`).
		WithArgs(supplierID).
		WillReturnRows(sqlmock.NewRows([]string{"company_cin"}))
	mock.ExpectRollback()

	_, err := repo.UpdateSupplier(context.Background(), "acme", func(*scoring.Supplier) error {
		return scoring.ErrInvalid
	})
	assert.ErrorIs(t, err, scoring.ErrInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubmissionRejectsBadID(t *testing.T) {
	repo, mock := newMock(t)
	_, err := repo.GetSubmission(context.Background(), "acme", "not-a-uuid")
	assert.ErrorIs(t, err, scoring.ErrSubmissionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeInsideSupplierTx(t *testing.T) {
	repo, mock := newMock(t)
	q1 := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	q2 := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	older := []byte(`{"environment":{"climateChange":[{"question":"q","answer":"false"}]},"social":{},"governance":{}}`)
	newer := []byte(`{"environment":{"climateChange":[{"question":"q","answer":"true"},{"question":"q","answer":"true"}]},"social":{},"governance":{}}`)

	mock.ExpectBegin()
	mock.ExpectQuery(`select id from suppliers where username=.+ for update`).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(supplierID))
	mock.ExpectQuery(`from submissions where supplier_id=.+ order by seq`).
		WithArgs(supplierID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seq", "supplier_id", "time_period", "answers", "raw_ref", "created_at"}).
			AddRow("a", 1, supplierID, q2, newer, "", q2).
			AddRow("b", 2, supplierID, q1, older, "", q2))
	mock.ExpectExec(`update suppliers set esg_score`).
		WithArgs(supplierID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rep, err := scoring.New(repo, nil).Recompute(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 100.0, rep.Environmental.Score)
	assert.Equal(t, esg.GradeA, rep.Environmental.Grade)
	// env 100, social 0, governance 0: business 33.33..
	assert.InDelta(t, (100.0/3+75+100)/5, rep.Overall.Score, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeWithoutSubmissionsRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`select id from suppliers where username=.+ for update`).
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(supplierID))
	mock.ExpectQuery(`from submissions where supplier_id`).
		WithArgs(supplierID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seq", "supplier_id", "time_period", "answers", "raw_ref", "created_at"}))
	mock.ExpectRollback()

	_, err := scoring.New(repo, nil).Recompute(context.Background(), "acme")
	assert.ErrorIs(t, err, esg.ErrNoData)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInSupplierTxUnknownSupplier(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`for update`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.InSupplierTx(context.Background(), "ghost", func(scoring.SupplierTx) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, scoring.ErrSupplierNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
