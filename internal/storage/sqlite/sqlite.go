package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/FranksOps/rigscout/internal/model"
	"github.com/FranksOps/rigscout/internal/storage"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	translated TEXT,
	intent TEXT,
	search_text TEXT,
	profile TEXT,
	stores INTEGER NOT NULL,
	failed TEXT NOT NULL,
	listings INTEGER NOT NULL,
	products INTEGER NOT NULL,
	disqualified INTEGER NOT NULL,
	results INTEGER NOT NULL,
	top_score REAL NOT NULL,
	outcome TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, run *storage.Run) error {
	profile, failed, err := run.EncodeColumns()
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	query := `
	INSERT INTO runs (
		id, query, translated, intent, search_text, profile, stores, failed, listings,
		products, disqualified, results, top_score, outcome, duration_ms, created_at, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = b.db.ExecContext(ctx, query,
		run.ID,
		run.Query,
		run.Translated,
		string(run.Intent),
		run.SearchText,
		profile,
		run.Stores,
		failed,
		run.Listings,
		run.Products,
		run.Disqualified,
		run.Results,
		run.TopScore,
		string(run.Outcome),
		run.Duration.Milliseconds(),
		run.CreatedAt.UTC(),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("sqlite: save run %s: %w", run.ID, err)
	}

	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Run, error) {
	query := `SELECT id, query, translated, intent, search_text, profile, stores, failed, listings,
		products, disqualified, results, top_score, outcome, duration_ms, created_at, error
		FROM runs WHERE 1=1`
	args := []any{}

	if filter.Outcome != "" {
		query += ` AND outcome = ?`
		args = append(args, string(filter.Outcome))
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query runs: %w", err)
	}
	defer rows.Close()

	results := []*storage.Run{}
	for rows.Next() {
		var (
			r                                       storage.Run
			translated, intent, searchText, profile sql.NullString
			failed, outcome, runErr                 string
			durationMs                              int64
		)

		err := rows.Scan(
			&r.ID, &r.Query, &translated, &intent, &searchText, &profile, &r.Stores, &failed,
			&r.Listings, &r.Products, &r.Disqualified, &r.Results, &r.TopScore, &outcome,
			&durationMs, &r.CreatedAt, &runErr,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan run: %w", err)
		}

		r.Translated = translated.String
		r.Intent = model.Intent(intent.String)
		r.SearchText = searchText.String
		r.Outcome = storage.Outcome(outcome)
		r.Error = runErr
		r.Duration = time.Duration(durationMs) * time.Millisecond
		if err := r.DecodeColumns(profile.String, failed); err != nil {
			return nil, fmt.Errorf("sqlite: run %s: %w", r.ID, err)
		}

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: query runs: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
