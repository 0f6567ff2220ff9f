package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"cageledger/internal/store"
	"cageledger/internal/xid"
)

// Store persists documents in a single jsonb-backed table. Collections are
// distinguished by the collection column; field filters are evaluated against
// the jsonb payload.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection text NOT NULL,
	id         text NOT NULL,
	fields     jsonb NOT NULL DEFAULT '{}'::jsonb,
	created_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_created_at_idx ON documents (collection, created_at DESC);
CREATE INDEX IF NOT EXISTS documents_customer_date_idx
	ON documents (collection, (fields->>'customerId'), (fields->>'date'));
`

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, collection string, fields store.Fields) (*store.Document, error) {
	if collection == "" {
		return nil, store.ErrValidation
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	doc := store.Document{
		ID:     xid.New(idPrefix(collection)),
		Fields: fields,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, fields, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING created_at
	`, collection, doc.ID, payload).Scan(&doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	doc.CreatedAt = doc.CreatedAt.UTC()

	return &doc, nil
}

func (s *Store) Get(ctx context.Context, collection string, id string) (*store.Document, error) {
	var (
		doc     store.Document
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, fields, created_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&doc.ID, &payload, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &doc.Fields); err != nil {
		return nil, err
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	return &doc, nil
}

func (s *Store) Query(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	where := []string{"collection = $1"}
	args := []any{collection}

	for _, key := range sortedKeys(q.Equal) {
		clause, arg, err := filterClause(key, q.Equal[key], "=", len(args)+1)
		if err != nil {
			return nil, err
		}
		where = append(where, clause)
		args = append(args, arg)
	}
	for _, key := range sortedKeys(q.Less) {
		clause, arg, err := filterClause(key, q.Less[key], "<", len(args)+1)
		if err != nil {
			return nil, err
		}
		where = append(where, clause)
		args = append(args, arg)
	}

	order := "created_at"
	if q.OrderBy != "" && q.OrderBy != "createdAt" {
		key, err := fieldExpr(q.OrderBy)
		if err != nil {
			return nil, err
		}
		order = key
	}
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT id, fields, created_at
		FROM documents
		WHERE %s
		ORDER BY %s %s, id
	`, strings.Join(where, " AND "), order, direction)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]store.Document, 0, 64)
	for rows.Next() {
		var (
			doc     store.Document
			payload []byte
		)
		if err := rows.Scan(&doc.ID, &payload, &doc.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &doc.Fields); err != nil {
			return nil, err
		}
		doc.CreatedAt = doc.CreatedAt.UTC()
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) Update(ctx context.Context, collection string, id string, fields store.Fields) (*store.Document, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	var (
		doc    store.Document
		merged []byte
	)
	err = s.db.QueryRowContext(ctx, `
		UPDATE documents
		SET fields = fields || $3::jsonb
		WHERE collection = $1 AND id = $2
		RETURNING id, fields, created_at
	`, collection, id, payload).Scan(&doc.ID, &merged, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(merged, &doc.Fields); err != nil {
		return nil, err
	}
	doc.CreatedAt = doc.CreatedAt.UTC()
	return &doc, nil
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// filterClause builds one WHERE clause for a field filter. String values
// compare as text, numbers through a numeric cast.
func filterClause(key string, value any, op string, placeholder int) (string, any, error) {
	expr, err := fieldExpr(key)
	if err != nil {
		return "", nil, err
	}
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("%s %s $%d", expr, op, placeholder), v, nil
	case float64, float32, int, int64:
		return fmt.Sprintf("(%s)::numeric %s $%d", expr, op, placeholder), v, nil
	case bool:
		return fmt.Sprintf("(%s)::boolean %s $%d", expr, op, placeholder), v, nil
	}
	return "", nil, fmt.Errorf("unsupported filter value for %q: %T", key, value)
}

// fieldExpr returns the jsonb text extraction for a field key. Keys come from
// code, not callers, but are still restricted to a safe character set before
// interpolation.
func fieldExpr(key string) (string, error) {
	for _, r := range key {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			continue
		}
		return "", fmt.Errorf("invalid field key %q", key)
	}
	if key == "" {
		return "", fmt.Errorf("empty field key")
	}
	return fmt.Sprintf("fields->>'%s'", key), nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic placeholder numbering.
	slices.Sort(keys)
	return keys
}

func idPrefix(collection string) string {
	switch collection {
	case store.CollectionCustomer:
		return "cust"
	case store.CollectionDailyRecord:
		return "rec"
	}
	return "doc"
}
