// Package pgvector stores index records in a PostgreSQL table with a pgvector column.
// Each index name maps to one table.
package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
	"github.com/mwiater/tariffadvisor/internal/vectorindex"
	pgv "github.com/pgvector/pgvector-go"
)

type Config struct {
	Index     string
	Dimension int
	Metric    string
	BatchSize int
}

// Gateway implements vectorindex.Gateway on database/sql.
type Gateway struct {
	db        *sql.DB
	index     string
	table     string
	dimension int
	metric    string
	batchSize int
}

var _ vectorindex.Gateway = (*Gateway)(nil)

// Open connects with the postgres driver. The connection is verified lazily.
func Open(dsn string, cfg Config) (*Gateway, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return New(db, cfg), nil
}

// New wraps an existing handle. The Gateway owns db and closes it in Close.
func New(db *sql.DB, cfg Config) *Gateway {
	g := &Gateway{
		db:        db,
		dimension: cfg.Dimension,
		metric:    cfg.Metric,
		batchSize: cfg.BatchSize,
	}
	if g.metric == "" {
		g.metric = vectorindex.DefaultMetric
	}
	if g.batchSize <= 0 {
		g.batchSize = vectorindex.DefaultBatchSize
	}
	g.setIndex(cfg.Index)
	return g
}

func (g *Gateway) setIndex(name string) {
	g.index = name
	g.table = TableName(name)
}

// TableName maps an index name to a safe lower-case table name.
func TableName(index string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(index)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "idx_" + name
	}
	return name
}

// EnsureIndex creates the extension and the backing table when the table is
// missing, and rejects an existing table declared with another dimension.
func (g *Gateway) EnsureIndex(ctx context.Context, spec vectorindex.IndexSpec) error {
	if spec.Name != "" && spec.Name != g.index {
		g.setIndex(spec.Name)
	}
	if spec.Dimension > 0 {
		g.dimension = spec.Dimension
	}
	if spec.Metric != "" {
		g.metric = spec.Metric
	}
	if _, err := distanceOperator(g.metric); err != nil {
		return &domain.IndexServiceError{Op: "ensure", Index: g.index, Err: err}
	}
	if g.dimension <= 0 {
		g.dimension = vectorindex.DefaultDimension
	}

	var exists bool
	err := g.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1)`,
		g.table,
	).Scan(&exists)
	if err != nil {
		return &domain.IndexServiceError{Op: "list", Index: g.index, Err: err}
	}
	if exists {
		if err := g.checkDimension(ctx); err != nil {
			return err
		}
		logging.LogEvent("[INDEX] table %s already exists", g.table)
		return nil
	}

	if _, err := g.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return &domain.IndexServiceError{Op: "create", Index: g.index, Err: fmt.Errorf("create extension: %w", err)}
	}
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		embedding vector(%d) NOT NULL,
		text TEXT NOT NULL
	)`, pq.QuoteIdentifier(g.table), g.dimension)
	if _, err := g.db.ExecContext(ctx, create); err != nil {
		return &domain.IndexServiceError{Op: "create", Index: g.index, Err: err}
	}
	logging.LogEvent("[INDEX] created table %s (dimension=%d metric=%s)", g.table, g.dimension, g.metric)
	return nil
}

// checkDimension compares the declared vector(n) of an existing table with the
// configured dimension. pgvector stores n as the column's type modifier.
func (g *Gateway) checkDimension(ctx context.Context) error {
	var typmod int
	err := g.db.QueryRowContext(ctx,
		`SELECT atttypmod FROM pg_attribute WHERE attrelid = $1::regclass AND attname = 'embedding' AND NOT attisdropped`,
		g.table,
	).Scan(&typmod)
	if err != nil {
		return &domain.IndexServiceError{Op: "ensure", Index: g.index, Err: fmt.Errorf("read embedding dimension: %w", err)}
	}
	if typmod > 0 && typmod != g.dimension {
		return &domain.IndexServiceError{
			Op:    "ensure",
			Index: g.index,
			Err:   fmt.Errorf("existing table has dimension %d, expected %d", typmod, g.dimension),
		}
	}
	return nil
}

// Upsert writes each batch in its own transaction.
func (g *Gateway) Upsert(ctx context.Context, records []domain.IndexRecord) (int, error) {
	query := fmt.Sprintf(`INSERT INTO %s (id, embedding, text) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, text = EXCLUDED.text`, pq.QuoteIdentifier(g.table))

	return vectorindex.UpsertBatches(ctx, g.index, records, g.batchSize, g.dimension, func(ctx context.Context, batch []domain.IndexRecord) error {
		tx, err := g.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, r := range batch {
			if _, err := stmt.ExecContext(ctx, r.ID, pgv.NewVector(r.Vector), r.Text()); err != nil {
				return fmt.Errorf("upsert %s: %w", r.ID, err)
			}
		}
		return tx.Commit()
	})
}

// Query orders rows by the metric's distance operator.
func (g *Gateway) Query(ctx context.Context, vector domain.EmbeddingVector, topK int) ([]domain.RetrievalMatch, error) {
	if err := vectorindex.ValidateTopK(g.index, topK); err != nil {
		return nil, err
	}
	if g.dimension > 0 && len(vector) != g.dimension {
		return nil, &domain.IndexServiceError{Op: "query", Index: g.index, Err: fmt.Errorf("query vector has dimension %d, index expects %d", len(vector), g.dimension)}
	}
	op, err := distanceOperator(g.metric)
	if err != nil {
		return nil, &domain.IndexServiceError{Op: "query", Index: g.index, Err: err}
	}

	query := fmt.Sprintf(`SELECT id, text, %s AS score FROM %s ORDER BY embedding %s $1 LIMIT $2`,
		scoreExpression(g.metric, op), pq.QuoteIdentifier(g.table), op)
	rows, err := g.db.QueryContext(ctx, query, pgv.NewVector(vector), topK)
	if err != nil {
		return nil, &domain.IndexServiceError{Op: "query", Index: g.index, Err: err}
	}
	defer rows.Close()

	var matches []domain.RetrievalMatch
	for rows.Next() {
		var (
			m     domain.RetrievalMatch
			score float64
		)
		if err := rows.Scan(&m.ID, &m.Text, &score); err != nil {
			return nil, &domain.IndexServiceError{Op: "query", Index: g.index, Err: fmt.Errorf("scan: %w", err)}
		}
		m.Score = float32(score)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.IndexServiceError{Op: "query", Index: g.index, Err: err}
	}
	return matches, nil
}

func (g *Gateway) Close() error {
	return g.db.Close()
}

func distanceOperator(metric string) (string, error) {
	switch strings.ToLower(metric) {
	case "cosine":
		return "<=>", nil
	case "euclidean":
		return "<->", nil
	case "dotproduct":
		return "<#>", nil
	}
	return "", fmt.Errorf("unsupported metric %q", metric)
}

// scoreExpression turns the distance into a similarity where larger is closer.
func scoreExpression(metric, op string) string {
	if strings.ToLower(metric) == "cosine" {
		return "1 - (embedding " + op + " $1)"
	}
	return "-(embedding " + op + " $1)"
}
