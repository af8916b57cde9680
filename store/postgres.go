package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"smartpen/pkg/logger"

	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Postgres stores each document as a JSONB body in a table of shape
// (pk BIGSERIAL PRIMARY KEY, body JSONB NOT NULL). The pk is the internal key.
type Postgres[T any] struct {
	DB    *sql.DB
	table string
}

func NewPostgres[T any](db *sql.DB, table string) (*Postgres[T], error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("store: invalid table name %q", table)
	}
	return &Postgres[T]{DB: db, table: pq.QuoteIdentifier(table)}, nil
}

func (p *Postgres[T]) Insert(ctx context.Context, doc T) (Key, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("store: encode document: %w", err)
	}

	var pk int64
	query := fmt.Sprintf(`INSERT INTO %s (body) VALUES ($1::jsonb) RETURNING pk`, p.table)
	if err := p.DB.QueryRowContext(ctx, query, string(body)).Scan(&pk); err != nil {
		logger.Sugar.Errorf("Failed to insert into %s: %v", p.table, err)
		return "", translatePgError(err)
	}
	return Key(strconv.FormatInt(pk, 10)), nil
}

func (p *Postgres[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var zero T
	if err := validateFilter(f, false); err != nil {
		return zero, err
	}
	where, args := whereClause(f, 1)

	var body []byte
	query := fmt.Sprintf(`SELECT body FROM %s%s ORDER BY pk LIMIT 1`, p.table, where)
	err := p.DB.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to query %s: %v", p.table, err)
		return zero, fmt.Errorf("db error: %w", err)
	}
	return decode[T](body)
}

func (p *Postgres[T]) Find(ctx context.Context, f Filter) ([]T, error) {
	if err := validateFilter(f, false); err != nil {
		return nil, err
	}
	where, args := whereClause(f, 1)

	query := fmt.Sprintf(`SELECT body FROM %s%s ORDER BY pk`, p.table, where)
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to query %s: %v", p.table, err)
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		v, err := decode[T](body)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

// UpdateOne merges set into the body of the first matching row in a single
// statement; the row lock taken by the sub-select makes it atomic.
func (p *Postgres[T]) UpdateOne(ctx context.Context, f Filter, set Fields) (T, error) {
	var zero T
	if err := validateFilter(f, true); err != nil {
		return zero, err
	}
	if err := validateFields(set); err != nil {
		return zero, err
	}
	patch, err := json.Marshal(set)
	if err != nil {
		return zero, fmt.Errorf("store: encode document: %w", err)
	}
	where, args := whereClause(f, 2)

	var body []byte
	query := fmt.Sprintf(`UPDATE %[1]s SET body = body || $1::jsonb WHERE pk = (SELECT pk FROM %[1]s%[2]s ORDER BY pk LIMIT 1 FOR UPDATE) RETURNING body`, p.table, where)
	err = p.DB.QueryRowContext(ctx, query, append([]any{string(patch)}, args...)...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update %s: %v", p.table, err)
		return zero, translatePgError(err)
	}
	return decode[T](body)
}

func (p *Postgres[T]) DeleteOne(ctx context.Context, f Filter) error {
	if err := validateFilter(f, true); err != nil {
		return err
	}
	where, args := whereClause(f, 1)

	query := fmt.Sprintf(`DELETE FROM %[1]s WHERE pk = (SELECT pk FROM %[1]s%[2]s ORDER BY pk LIMIT 1 FOR UPDATE)`, p.table, where)
	result, err := p.DB.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete from %s: %v", p.table, err)
		return fmt.Errorf("db error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// whereClause renders f as ` WHERE body->>'a' = $n AND ...`, numbering
// placeholders from start.
func whereClause(f Filter, start int) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}
	keys := sortedKeys(f)
	conds := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for i, k := range keys {
		conds = append(conds, fmt.Sprintf("body->>%s = $%d", pq.QuoteLiteral(k), start+i))
		args = append(args, f[k])
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func translatePgError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return fmt.Errorf("db error: %w", err)
}

func decode[T any](body []byte) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("store: decode document: %w", err)
	}
	return out, nil
}
