package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/storage"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	translated TEXT NOT NULL DEFAULT '',
	intent TEXT NOT NULL DEFAULT '',
	search_text TEXT NOT NULL DEFAULT '',
	profile JSONB,
	stores INTEGER NOT NULL,
	failed JSONB NOT NULL,
	listings INTEGER NOT NULL,
	products INTEGER NOT NULL,
	disqualified INTEGER NOT NULL,
	results INTEGER NOT NULL,
	top_score DOUBLE PRECISION NOT NULL,
	outcome TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at DESC);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, run *storage.Run) error {
	profile, failed, err := run.EncodeColumns()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	var profileArg any
	if profile != "" {
		profileArg = profile
	}

	query := `
	INSERT INTO runs (
		id, query, translated, intent, search_text, profile, stores, failed, listings,
		products, disqualified, results, top_score, outcome, duration_ms, created_at, error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = b.pool.Exec(ctx, query,
		run.ID,
		run.Query,
		run.Translated,
		string(run.Intent),
		run.SearchText,
		profileArg,
		run.Stores,
		failed,
		run.Listings,
		run.Products,
		run.Disqualified,
		run.Results,
		run.TopScore,
		string(run.Outcome),
		run.Duration.Milliseconds(),
		run.CreatedAt,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("postgres: save run %s: %w", run.ID, err)
	}

	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Run, error) {
	query := `SELECT id, query, translated, intent, search_text, COALESCE(profile::text, ''), stores,
		failed::text, listings, products, disqualified, results, top_score, outcome, duration_ms,
		created_at, error FROM runs WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.Outcome != "" {
		query += fmt.Sprintf(` AND outcome = $%d`, paramCount)
		args = append(args, string(filter.Outcome))
		paramCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query runs: %w", err)
	}
	defer rows.Close()

	results := []*storage.Run{}
	for rows.Next() {
		var (
			r               storage.Run
			intent, outcome string
			profile, failed string
			durationMs      int64
		)

		err := rows.Scan(
			&r.ID, &r.Query, &r.Translated, &intent, &r.SearchText, &profile, &r.Stores,
			&failed, &r.Listings, &r.Products, &r.Disqualified, &r.Results, &r.TopScore,
			&outcome, &durationMs, &r.CreatedAt, &r.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan run: %w", err)
		}

		r.Intent = model.Intent(intent)
		r.Outcome = storage.Outcome(outcome)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		if err := r.DecodeColumns(profile, failed); err != nil {
			return nil, fmt.Errorf("postgres: run %s: %w", r.ID, err)
		}

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query runs: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
