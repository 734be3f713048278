package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/iWorld-y/reddit_radar/internal/model"
)

func testRun() *model.DiscoveryRun {
	date := "2026-01-15"
	return &model.DiscoveryRun{
		Provider: "openai",
		Request: model.SearchRequest{
			Topic:    "Python testing",
			FromDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			ToDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			Depth:    model.DepthQuick,
			Model:    "gpt-4o",
		},
		Quote: model.PriceQuote{AmountAtomic: 20000, RawNegotiation: []byte(`{"maxAmountRequired":20000}`)},
		Items: []model.DiscoveryItem{
			{ID: "R1", Title: "a", URL: "https://reddit.com/r/a/comments/1/", Date: &date, Relevance: 0.9},
			{ID: "R3", Title: "b", URL: "https://reddit.com/r/b/comments/2/", Relevance: 0.5},
		},
	}
}

func TestSaveRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	st := New(db)
	run := testRun()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO discovery_runs`)).
		WithArgs(sqlmock.AnyArg(), "openai", "Python testing", "quick", "gpt-4o", "2026-01-01", "2026-01-31",
			int64(20000), []byte(`{"maxAmountRequired":20000}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO discovery_items`)).
		WithArgs(sqlmock.AnyArg(), "R1", "a", "https://reddit.com/r/a/comments/1/", "", "2026-01-15", "", 0.9).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO discovery_items`)).
		WithArgs(sqlmock.AnyArg(), "R3", "b", "https://reddit.com/r/b/comments/2/", "", nil, "", 0.5).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	if err := st.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if run.ID == uuid.Nil {
		t.Error("SaveRun should assign an id")
	}
	if run.CreatedAt.IsZero() {
		t.Error("SaveRun should set CreatedAt")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveRunRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO discovery_runs`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO discovery_items`)).WillReturnError(boom)
	mock.ExpectRollback()

	if err := New(db).SaveRun(context.Background(), testRun()); !errors.Is(err, boom) {
		t.Fatalf("SaveRun error = %v, want boom", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTotalSpent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(price_atomic), 0) FROM discovery_runs`)).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(45000)))

	got, err := New(db).TotalSpent(context.Background(), since)
	if err != nil {
		t.Fatalf("TotalSpent: %v", err)
	}
	if got != 45000 {
		t.Errorf("TotalSpent() = %d, want 45000", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS discovery_runs`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS discovery_items`)).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := New(db).initSchema(); err != nil {
		t.Fatalf("initSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
