package pgvector

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/vectorindex"
)

func newMockGateway(t *testing.T, dim int) (*Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, Config{Index: "tariff-index", Dimension: dim}), mock
}

func TestTableName(t *testing.T) {
	cases := map[string]string{
		"tariff-index": "tariff_index",
		"Tariffs":      "tariffs",
		"2025 data":    "idx_2025_data",
	}
	for in, want := range cases {
		if got := TableName(in); got != want {
			t.Fatalf("TableName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnsureIndexCreatesMissingTable(t *testing.T) {
	g, mock := newMockGateway(t, 3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("tariff_index").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS vector")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "tariff_index"`) + `(.|\n)*vector\(3\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := g.EnsureIndex(context.Background(), vectorindex.IndexSpec{Name: "tariff-index", Dimension: 3, Metric: "cosine"}); err != nil {
		t.Fatalf("EnsureIndex error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureIndexNoopWhenTableExists(t *testing.T) {
	g, mock := newMockGateway(t, 3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("tariff_index").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT atttypmod FROM pg_attribute")).
		WithArgs("tariff_index").
		WillReturnRows(sqlmock.NewRows([]string{"atttypmod"}).AddRow(3))

	if err := g.EnsureIndex(context.Background(), vectorindex.IndexSpec{}); err != nil {
		t.Fatalf("EnsureIndex error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureIndexRejectsExistingTableWithOtherDimension(t *testing.T) {
	g, mock := newMockGateway(t, 3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("tariff_index").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT atttypmod FROM pg_attribute")).
		WithArgs("tariff_index").
		WillReturnRows(sqlmock.NewRows([]string{"atttypmod"}).AddRow(768))

	err := g.EnsureIndex(context.Background(), vectorindex.IndexSpec{Dimension: 3})
	var idxErr *domain.IndexServiceError
	if !errors.As(err, &idxErr) || idxErr.Op != "ensure" {
		t.Fatalf("expected ensure IndexServiceError, got %v", err)
	}
	if !strings.Contains(err.Error(), "768") {
		t.Fatalf("expected error to name the existing dimension, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureIndexRejectsUnknownMetric(t *testing.T) {
	g, _ := newMockGateway(t, 3)
	err := g.EnsureIndex(context.Background(), vectorindex.IndexSpec{Metric: "hamming"})
	var idxErr *domain.IndexServiceError
	if !errors.As(err, &idxErr) {
		t.Fatalf("expected IndexServiceError, got %v", err)
	}
}

func TestUpsertOneTransactionPerBatch(t *testing.T) {
	g, mock := newMockGateway(t, 2)
	g.batchSize = 2

	recs := make([]domain.IndexRecord, 3)
	for i := range recs {
		recs[i] = domain.NewIndexRecord(domain.Chunk{ID: fmt.Sprintf("row-%d", i), Text: fmt.Sprintf("text %d", i)}, domain.EmbeddingVector{1, 2})
	}

	insert := regexp.QuoteMeta(`INSERT INTO "tariff_index"`)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(insert)
	prep.ExpectExec().WithArgs("row-0", sqlmock.AnyArg(), "text 0").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("row-1", sqlmock.AnyArg(), "text 1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectPrepare(insert).ExpectExec().WithArgs("row-2", sqlmock.AnyArg(), "text 2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	written, err := g.Upsert(context.Background(), recs)
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if written != 2 {
		t.Fatalf("expected 2 batches, got %d", written)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertRollsBackFailedBatch(t *testing.T) {
	g, mock := newMockGateway(t, 2)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO "tariff_index"`)).
		ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	rec := domain.NewIndexRecord(domain.Chunk{ID: "row-0", Text: "x"}, domain.EmbeddingVector{1, 2})
	written, err := g.Upsert(context.Background(), []domain.IndexRecord{rec})
	var idxErr *domain.IndexServiceError
	if !errors.As(err, &idxErr) || written != 0 {
		t.Fatalf("expected IndexServiceError with nothing written, got written=%d err=%v", written, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestQueryScansMatches(t *testing.T) {
	g, mock := newMockGateway(t, 2)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, text, 1 - (embedding <=> $1) AS score FROM "tariff_index" ORDER BY embedding <=> $1 LIMIT $2`)).
		WithArgs(sqlmock.AnyArg(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "score"}).
			AddRow("row-0", "Country: Vietnam, TariffsChargedToUSA: 46, USAReciprocalTariffs: 20", 0.98))

	matches, err := g.Query(context.Background(), domain.EmbeddingVector{0.5, 0.5}, 1)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "row-0" || matches[0].Score < 0.97 {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
