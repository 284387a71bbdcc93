package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"newscrawl/internal/domain/entity"
	pg "newscrawl/internal/infra/adapter/persistence/postgres"
)

/* ─────────────────────────── helpers ─────────────────────────── */

var recordColumns = []string{"url", "title", "body", "category", "status", "scraped_at"}

func recordRow(rows *sqlmock.Rows, r *entity.ArticleRecord) *sqlmock.Rows {
	return rows.AddRow(r.URL, r.Title, r.Body, r.Category, string(r.Status), r.ScrapedAt)
}

func sampleRecord(now time.Time) *entity.ArticleRecord {
	return &entity.ArticleRecord{
		URL:       "https://www.nu.nl/tech/6000001/example.html",
		Title:     "Example Title",
		Body:      "Hello. World.",
		Category:  "tech",
		ScrapedAt: now,
		Status:    entity.StatusOK,
	}
}

/* ─────────────────────────── 1. Append ─────────────────────────── */

func TestRecordRepo_Append(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2025, 7, 19, 0, 0, 0, 0, time.UTC)
	rec := sampleRecord(now)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO article_records")).
		WithArgs(rec.URL, rec.Title, rec.Body, rec.Category, "ok", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewRecordRepo(db)
	if err := repo.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecordRepo_Append_ExistingURLIsNoop(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	rec := sampleRecord(time.Now())
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (url) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := pg.NewRecordRepo(db).Append(context.Background(), rec); err != nil {
		t.Fatalf("Append err=%v, want nil for existing url", err)
	}
}

func TestRecordRepo_Append_InvalidRecord(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	rec := sampleRecord(time.Now())
	rec.Category = ""

	err := pg.NewRecordRepo(db).Append(context.Background(), rec)
	if !errors.Is(err, entity.ErrValidationFailed) {
		t.Fatalf("Append err=%v, want validation error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecordRepo_Append_DBError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	dbErr := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO article_records").WillReturnError(dbErr)

	err := pg.NewRecordRepo(db).Append(context.Background(), sampleRecord(time.Now()))
	if !errors.Is(err, dbErr) {
		t.Fatalf("Append err=%v, want %v", err, dbErr)
	}
}

/* ─────────────────────────── 2. GetByURL ─────────────────────────── */

func TestRecordRepo_GetByURL(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2025, 7, 19, 0, 0, 0, 0, time.UTC)
	want := sampleRecord(now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM article_records")).
		WithArgs(want.URL).
		WillReturnRows(recordRow(sqlmock.NewRows(recordColumns), want))

	got, err := pg.NewRecordRepo(db).GetByURL(context.Background(), want.URL)
	if err != nil {
		t.Fatalf("GetByURL err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRepo_GetByURL_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM article_records").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	got, err := pg.NewRecordRepo(db).GetByURL(context.Background(), "https://www.nu.nl/missing")
	if err != nil || got != nil {
		t.Fatalf("GetByURL = %v, %v; want nil, nil", got, err)
	}
}

/* ─────────────────────────── 3. ListByCategory ─────────────────────────── */

func TestRecordRepo_ListByCategory(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2025, 7, 19, 0, 0, 0, 0, time.UTC)
	newer := sampleRecord(now)
	older := sampleRecord(now.Add(-time.Hour))
	older.URL = "https://www.nu.nl/tech/6000000/older.html"
	older.Status = entity.StatusEmpty
	older.Title, older.Body = "", ""

	mock.ExpectQuery(regexp.QuoteMeta("WHERE category = $1")).
		WithArgs("tech", 10).
		WillReturnRows(recordRow(recordRow(sqlmock.NewRows(recordColumns), newer), older))

	got, err := pg.NewRecordRepo(db).ListByCategory(context.Background(), "tech", 10)
	if err != nil {
		t.Fatalf("ListByCategory err=%v", err)
	}
	if diff := cmp.Diff([]*entity.ArticleRecord{newer, older}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRepo_ListByCategory_AllWithDefaultLimit(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY scraped_at DESC, url\nLIMIT $1")).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	got, err := pg.NewRecordRepo(db).ListByCategory(context.Background(), "", 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("ListByCategory err=%v len=%d", err, len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
