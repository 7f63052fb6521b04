// Package store persists extraction passes in PostgreSQL.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"pzscript/internal/extract"
	"pzscript/internal/parser"
	"pzscript/internal/worker"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrations embed.FS

const (
	// DefaultBatchSize is the number of rows per multi-row insert.
	DefaultBatchSize = 500
	// DefaultSimilar is the result count of Similar when k is not positive.
	DefaultSimilar = 10
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var recordColumns = []string{
	"run_id", "identity", "kind", "source_tag", "mod_tag", "source_root", "module", "name",
	"file_path", "start_line", "end_line", "properties", "inputs", "outputs", "item_mappers", "signature",
}

// Store writes runs, records, diagnostics and vocabulary.
type Store struct {
	pool      *pgxpool.Pool
	batchSize int
}

// NewPool connects to PostgreSQL and pings it.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// New creates a Store. A batchSize <= 0 selects DefaultBatchSize.
func New(pool *pgxpool.Pool, batchSize int) *Store {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Store{pool: pool, batchSize: batchSize}
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		log.Info().Str("migration", r.Source.Path).Dur("duration", r.Duration).Msg("Applied migration")
	}
	return nil
}

// SaveRun stores a whole extraction pass in one transaction and returns its id.
func (s *Store) SaveRun(ctx context.Context, res *extract.Result) (uuid.UUID, error) {
	runID := uuid.New()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	run := builder.Insert("extract_runs").
		Columns("id", "files", "lines", "items", "recipes", "errors").
		Values(runID, res.Files, res.Lines, len(res.Items), len(res.Recipes), res.Errors())
	if err := exec(ctx, tx, run); err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	blocks := append(append([]*parser.Block{}, res.Items...), res.Recipes...)
	for _, batch := range worker.Batch(blocks, s.batchSize) {
		q, err := recordInsert(runID, batch)
		if err != nil {
			return uuid.Nil, err
		}
		if err := exec(ctx, tx, q); err != nil {
			return uuid.Nil, fmt.Errorf("insert records: %w", err)
		}
	}

	for _, batch := range worker.Batch(res.Diagnostics, s.batchSize) {
		if err := exec(ctx, tx, diagnosticInsert(runID, batch)); err != nil {
			return uuid.Nil, fmt.Errorf("insert parse errors: %w", err)
		}
	}

	for _, batch := range worker.Batch(vocabularyRows(res.Vocabulary), s.batchSize) {
		q := builder.Insert("vocabulary").Columns("run_id", "category", "token", "count")
		for _, row := range batch {
			q = q.Values(runID, row.category, row.token, row.count)
		}
		if err := exec(ctx, tx, q); err != nil {
			return uuid.Nil, fmt.Errorf("insert vocabulary: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit run: %w", err)
	}

	log.Info().
		Str("run", runID.String()).
		Int("records", len(blocks)).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("Stored extraction run")
	return runID, nil
}

// recordInsert builds one multi-row insert for a batch of blocks.
func recordInsert(runID uuid.UUID, blocks []*parser.Block) (sq.InsertBuilder, error) {
	q := builder.Insert("script_records").
		Columns(recordColumns...).
		Suffix("ON CONFLICT (run_id, identity, file_path, start_line) DO NOTHING")
	for _, b := range blocks {
		props, err := json.Marshal(parser.NormalizeProperties(b))
		if err != nil {
			return q, fmt.Errorf("encode properties of %s: %w", b.Identity(), err)
		}
		inputs, err := json.Marshal(nonNil(b.Inputs))
		if err != nil {
			return q, fmt.Errorf("encode inputs of %s: %w", b.Identity(), err)
		}
		outputs, err := json.Marshal(nonNil(b.Outputs))
		if err != nil {
			return q, fmt.Errorf("encode outputs of %s: %w", b.Identity(), err)
		}
		mappers, err := json.Marshal(nonNil(b.Mappers))
		if err != nil {
			return q, fmt.Errorf("encode item mappers of %s: %w", b.Identity(), err)
		}
		q = q.Values(
			runID, b.Identity(), string(b.Kind), b.SourceTag, b.ModTag, b.SourceRoot, b.Module, b.Name,
			b.FilePath, b.StartLine, b.EndLine, string(props), string(inputs), string(outputs), string(mappers),
			Signature(b),
		)
	}
	return q, nil
}

func diagnosticInsert(runID uuid.UUID, diags []parser.Diagnostic) sq.InsertBuilder {
	q := builder.Insert("parse_errors").
		Columns("run_id", "file_path", "module", "name", "line", "kind", "severity", "message")
	for _, d := range diags {
		q = q.Values(runID, d.FilePath, d.Module, d.Name, d.Line, string(d.Kind), string(d.Severity), d.Message)
	}
	return q
}

type vocabularyRow struct {
	category string
	token    string
	count    int
}

func vocabularyRows(v parser.Vocabulary) []vocabularyRow {
	var rows []vocabularyRow
	for _, category := range v.Categories() {
		for _, tc := range v.Top(category, 0) {
			rows = append(rows, vocabularyRow{category: category, token: tc.Token, count: tc.Count})
		}
	}
	return rows
}

// Match is one result of a similarity search.
type Match struct {
	Identity string
	Kind     parser.Kind
	Name     string
	FilePath string
	Distance float64
}

// Similar returns the k records of the latest run closest to identity by
// cosine distance of their signatures. ErrNotFound means identity is not in
// the latest run.
func (s *Store) Similar(ctx context.Context, identity string, k int) ([]Match, error) {
	if k <= 0 {
		k = DefaultSimilar
	}

	target := builder.Select("run_id", "signature").
		From("script_records").
		Where(sq.Expr("run_id = (SELECT id FROM extract_runs ORDER BY started_at DESC LIMIT 1)")).
		Where(sq.Eq{"identity": identity}).
		OrderBy("start_line").
		Limit(1)
	sqlStr, args, err := target.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build target query: %w", err)
	}

	var runID uuid.UUID
	var sig pgvector.Vector
	if err := s.pool.QueryRow(ctx, sqlStr, args...).Scan(&runID, &sig); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", identity, ErrNotFound)
		}
		return nil, fmt.Errorf("load record %s: %w", identity, err)
	}

	nearest := builder.Select("identity", "kind", "name", "file_path").
		Column(sq.Expr("signature <=> ? AS distance", sig)).
		From("script_records").
		Where(sq.Eq{"run_id": runID}).
		Where(sq.NotEq{"identity": identity}).
		OrderBy("distance", "identity").
		Limit(uint64(k))
	sqlStr, args, err = nearest.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build similarity query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var kind string
		if err := rows.Scan(&m.Identity, &kind, &m.Name, &m.FilePath, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Kind = parser.Kind(kind)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return matches, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func exec(ctx context.Context, db execer, q sq.Sqlizer) error {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = db.Exec(ctx, sqlStr, args...)
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
