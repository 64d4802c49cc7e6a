package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/tendermatch/internal/models"
)

// ErrEmptyIndex is returned when a similarity search runs against a store
// with no indexed tenders.
var ErrEmptyIndex = errors.New("no tenders indexed")

// DimensionError reports a query or document vector whose length disagrees
// with the index dimensionality.
type DimensionError struct {
	Got  int
	Want int
}

func (e DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, index expects %d", e.Got, e.Want)
}

const (
	MetricCosine       = "cosine"
	MetricInnerProduct = "inner_product"
)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
	Metric     string // cosine or inner_product
}

type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "documents"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.Metric == "" {
		config.Metric = MetricCosine
	}
	if config.Metric != MetricCosine && config.Metric != MetricInnerProduct {
		return nil, fmt.Errorf("unsupported metric: %s", config.Metric)
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

// Metric returns the similarity metric the index was built with.
func (vs *VectorStore) Metric() string {
	return vs.config.Metric
}

// Dim returns the index dimensionality.
func (vs *VectorStore) Dim() int {
	return vs.config.VectorDim
}

func (vs *VectorStore) operator() string {
	if vs.config.Metric == MetricInnerProduct {
		return "<#>"
	}
	return "<=>"
}

func (vs *VectorStore) opsClass() string {
	if vs.config.Metric == MetricInnerProduct {
		return "vector_ip_ops"
	}
	return "vector_cosine_ops"
}

func (vs *VectorStore) initialize() error {
	ctx := context.Background()

	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	// Create documents table if it doesn't exist
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			source TEXT NOT NULL,
			url TEXT,
			title TEXT,
			description TEXT,
			tender_category TEXT,
			department TEXT,
			location TEXT,
			amount DOUBLE PRECISION,
			deadline TIMESTAMPTZ,
			published_at TIMESTAMPTZ,
			raw_text TEXT,
			model TEXT NOT NULL,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	// Create vector index matching the configured metric
	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding %s)
		WITH (lists = 100)`,
		vs.config.TableName, vs.config.TableName, vs.opsClass())

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Store upserts embedded tenders in one transaction. Every vector must match
// the index dimensionality.
func (vs *VectorStore) Store(ctx context.Context, docs []models.EmbeddedTender) error {
	for _, doc := range docs {
		if len(doc.Vector) != vs.config.VectorDim {
			return DimensionError{Got: len(doc.Vector), Want: vs.config.VectorDim}
		}
	}

	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, category, source, url, title, description,
			tender_category, department, location, amount, deadline,
			published_at, raw_text, model, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			tender_category = EXCLUDED.tender_category,
			department = EXCLUDED.department,
			location = EXCLUDED.location,
			amount = EXCLUDED.amount,
			deadline = EXCLUDED.deadline,
			published_at = EXCLUDED.published_at,
			raw_text = EXCLUDED.raw_text,
			model = EXCLUDED.model,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	for _, doc := range docs {
		_, err = tx.Exec(ctx, stmt,
			doc.ID,
			models.CategoryTender,
			doc.Source,
			doc.URL,
			sanitizeUTF8(doc.Title),
			sanitizeUTF8(doc.Description),
			doc.Category,
			doc.Department,
			doc.Location,
			doc.Amount,
			doc.Deadline,
			doc.PublishedAt,
			sanitizeUTF8(doc.RawText),
			doc.Model,
			pgvector.NewVector(doc.Vector),
		)
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %v", doc.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

// Search returns the k nearest tenders to the query vector, optionally
// narrowed by the filter. Distances follow the configured metric.
func (vs *VectorStore) Search(ctx context.Context, vector []float32, k int, filter models.Filter) ([]models.SearchHit, error) {
	if len(vector) != vs.config.VectorDim {
		return nil, DimensionError{Got: len(vector), Want: vs.config.VectorDim}
	}
	if k <= 0 {
		k = 10
	}

	count, err := vs.Count(ctx, models.CategoryTender)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrEmptyIndex
	}

	query, args := vs.buildSearchQuery(filter, k)
	args = append([]interface{}{pgvector.NewVector(vector)}, args...)

	rows, err := vs.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %v", err)
	}
	defer rows.Close()

	var hits []models.SearchHit
	for rows.Next() {
		var hit models.SearchHit
		err := rows.Scan(
			&hit.Tender.ID,
			&hit.Tender.Source,
			&hit.Tender.URL,
			&hit.Tender.Title,
			&hit.Tender.Description,
			&hit.Tender.Category,
			&hit.Tender.Department,
			&hit.Tender.Location,
			&hit.Tender.Amount,
			&hit.Tender.Deadline,
			&hit.Tender.PublishedAt,
			&hit.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %v", err)
		}
		hits = append(hits, hit)
	}

	return hits, rows.Err()
}

// buildSearchQuery assembles the similarity query with filter clauses. The
// query vector is always $1; filter arguments follow.
func (vs *VectorStore) buildSearchQuery(filter models.Filter, k int) (string, []interface{}) {
	conditions := []string{"category = 'tender'"}
	var args []interface{}
	idx := 2

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("tender_category = $%d", idx))
		args = append(args, filter.Category)
		idx++
	}
	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", idx))
		args = append(args, filter.Source)
		idx++
	}
	if filter.Sector != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(tender_category ILIKE $%d OR department ILIKE $%d OR location ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+filter.Sector+"%")
		idx++
	}
	if filter.PublishedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("published_at >= $%d", idx))
		args = append(args, *filter.PublishedAfter)
		idx++
	}
	if filter.DeadlineAfter != nil {
		// Tenders without a parsed deadline are kept
		conditions = append(conditions, fmt.Sprintf("(deadline IS NULL OR deadline >= $%d)", idx))
		args = append(args, *filter.DeadlineAfter)
		idx++
	}

	query := fmt.Sprintf(`
		SELECT id, source, url, title, description, tender_category,
			department, location, amount, deadline, published_at,
			embedding %s $1 AS distance
		FROM %s
		WHERE %s
		ORDER BY distance ASC, published_at DESC NULLS LAST, id ASC
		LIMIT $%d`,
		vs.operator(), vs.config.TableName, strings.Join(conditions, " AND "), idx)

	args = append(args, k)
	return query, args
}

// Count returns the number of stored documents of the given category.
func (vs *VectorStore) Count(ctx context.Context, category string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE category = $1", vs.config.TableName)

	var count int
	if err := vs.pool.QueryRow(ctx, query, category).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %v", err)
	}
	return count, nil
}

// DeleteBySource removes every document scraped from the named source.
// Re-scraping a portal deletes its previous tenders first.
func (vs *VectorStore) DeleteBySource(ctx context.Context, source string) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE source = $1", vs.config.TableName)

	tag, err := vs.pool.Exec(ctx, query, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents for source %s: %v", source, err)
	}
	return tag.RowsAffected(), nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
