package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the documents table. Applied by Migrate.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	version    BIGINT      NOT NULL,
	body       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_body_gin ON documents USING GIN (body jsonb_path_ops);
`

// PGStore keeps documents in a PostgreSQL JSONB table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps a pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Migrate creates the table and index if missing.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var d Document
	err := s.pool.QueryRow(ctx, `
		SELECT id, version, body, updated_at
		FROM documents WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&d.ID, &d.Version, &d.Body, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, NotFound(collection, id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return d, nil
}

func (s *PGStore) Put(ctx context.Context, collection, id string, body []byte, expectedVersion int64) (int64, error) {
	var (
		version int64
		err     error
	)

	switch {
	case expectedVersion == AnyVersion:
		err = s.pool.QueryRow(ctx, `
			INSERT INTO documents (collection, id, version, body)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (collection, id) DO UPDATE
				SET version = documents.version + 1, body = EXCLUDED.body, updated_at = NOW()
			RETURNING version
		`, collection, id, body).Scan(&version)

	case expectedVersion == 0:
		err = s.pool.QueryRow(ctx, `
			INSERT INTO documents (collection, id, version, body)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (collection, id) DO NOTHING
			RETURNING version
		`, collection, id, body).Scan(&version)

	default:
		err = s.pool.QueryRow(ctx, `
			UPDATE documents
			SET version = version + 1, body = $4, updated_at = NOW()
			WHERE collection = $1 AND id = $2 AND version = $3
			RETURNING version
		`, collection, id, expectedVersion, body).Scan(&version)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, Conflict(collection, id)
	}
	if err != nil {
		return 0, fmt.Errorf("put %s/%s: %w", collection, id, err)
	}
	return version, nil
}

func (s *PGStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	var (
		where = []string{"collection = $1"}
		args  = []any{collection}
	)
	for _, f := range filters {
		args = append(args, f.Field)
		fieldArg := len(args)
		switch f.op {
		case opIn:
			args = append(args, f.Values)
			where = append(where, fmt.Sprintf("body->>($%d::text) = ANY($%d::text[])", fieldArg, len(args)))
		default:
			args = append(args, f.Values[0])
			where = append(where, fmt.Sprintf("body->>($%d::text) = $%d::text", fieldArg, len(args)))
		}
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, version, body, updated_at FROM documents
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Version, &d.Body, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return out, nil
}

var _ Store = (*PGStore)(nil)
