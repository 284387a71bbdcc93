package sqlite_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"newscrawl/internal/domain/entity"
	"newscrawl/internal/infra/adapter/persistence/sqlite"
)

/* ────────────────────────────  helpers  ──────────────────────────── */

var recordColumns = []string{"url", "title", "body", "category", "status", "scraped_at"}

func sampleRecord(now time.Time) *entity.ArticleRecord {
	return &entity.ArticleRecord{
		URL:       "https://www.nu.nl/economie/6000002/voorbeeld.html",
		Title:     "Voorbeeld",
		Body:      "Één zin. Nog één.",
		Category:  "economie",
		ScrapedAt: now,
		Status:    entity.StatusOK,
	}
}

/* ──────────────────────────── 1. Append ──────────────────────────── */

func TestRecordRepo_Append(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2025, 7, 19, 8, 30, 0, 0, time.UTC)
	rec := sampleRecord(now)

	mock.ExpectExec(regexp.QuoteMeta("INSERT OR IGNORE INTO article_records")).
		WithArgs(rec.URL, rec.Title, rec.Body, rec.Category, "ok", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := sqlite.NewRecordRepo(db).Append(context.Background(), rec); err != nil {
		t.Fatalf("Append err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestRecordRepo_Append_FailedRecordWithContentRejected(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	rec := sampleRecord(time.Now())
	rec.Status = entity.StatusFailed

	err := sqlite.NewRecordRepo(db).Append(context.Background(), rec)
	var vErr *entity.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Append err=%v, want ValidationError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

/* ──────────────────────────── 2. GetByURL ──────────────────────────── */

func TestRecordRepo_GetByURL(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := sampleRecord(time.Date(2025, 7, 19, 8, 30, 0, 0, time.UTC))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE url = ?")).
		WithArgs(want.URL).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(want.URL, want.Title, want.Body, want.Category, "ok", want.ScrapedAt))

	got, err := sqlite.NewRecordRepo(db).GetByURL(context.Background(), want.URL)
	if err != nil {
		t.Fatalf("GetByURL err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("GetByURL mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRepo_GetByURL_NotFound(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM article_records").
		WillReturnRows(sqlmock.NewRows(recordColumns))

	got, err := sqlite.NewRecordRepo(db).GetByURL(context.Background(), "https://www.nu.nl/missing")
	if err != nil || got != nil {
		t.Fatalf("GetByURL = %v, %v; want nil, nil", got, err)
	}
}

/* ──────────────────────────── 3. ListByCategory ──────────────────────────── */

func TestRecordRepo_ListByCategory(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE category = ?")).
		WithArgs("economie", 5).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("https://www.nu.nl/a", "A", "a", "economie", "ok", now).
			AddRow("https://www.nu.nl/b", "", "", "economie", "failed", now))

	got, err := sqlite.NewRecordRepo(db).ListByCategory(context.Background(), "economie", 5)
	if err != nil || len(got) != 2 {
		t.Fatalf("ListByCategory err=%v len=%d", err, len(got))
	}
	if got[1].Status != entity.StatusFailed {
		t.Fatalf("status = %q, want failed", got[1].Status)
	}
}

func TestRecordRepo_ListByCategory_QueryError(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM article_records").WillReturnError(errors.New("database is locked"))

	if _, err := sqlite.NewRecordRepo(db).ListByCategory(context.Background(), "", 10); err == nil {
		t.Fatal("ListByCategory err=nil, want error")
	}
}
