package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/vietnam-poi-finder/internal/places"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// MaxRecentSearches bounds RecentSearches regardless of the requested limit.
const MaxRecentSearches = 100

// Repository provides database access for search history and accounts.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// RecordSearch stores a successful geocode lookup. The location is kept as
// JSONB so it can be filtered by containment.
func (r *Repository) RecordSearch(ctx context.Context, query string, loc places.Location) error {
	dataJSON, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshaling location for query %q: %w", query, err)
	}

	const q = `
		INSERT INTO search_history (query, data)
		VALUES ($1, $2)
	`

	if _, err := r.q.Exec(ctx, q, strings.TrimSpace(query), dataJSON); err != nil {
		return fmt.Errorf("recording search %q: %w", query, err)
	}

	return nil
}

// RecentSearches returns up to limit history entries, newest first.
func (r *Repository) RecentSearches(ctx context.Context, limit int) ([]places.SearchRecord, error) {
	if limit <= 0 || limit > MaxRecentSearches {
		limit = MaxRecentSearches
	}

	const q = `
		SELECT id, query, data, created_at
		FROM search_history
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent searches: %w", err)
	}
	return scanSearchRecords(rows)
}

// SearchesByCity returns history entries whose searched city matches exactly.
// Uses the JSONB @> containment operator.
func (r *Repository) SearchesByCity(ctx context.Context, city string, limit int) ([]places.SearchRecord, error) {
	if limit <= 0 || limit > MaxRecentSearches {
		limit = MaxRecentSearches
	}

	filter, err := json.Marshal(map[string]any{"searched_city": city})
	if err != nil {
		return nil, fmt.Errorf("marshaling JSONB filter: %w", err)
	}

	const q = `
		SELECT id, query, data, created_at
		FROM search_history
		WHERE data @> $1::jsonb
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, q, string(filter), limit)
	if err != nil {
		return nil, fmt.Errorf("querying searches for city %s: %w", city, err)
	}
	return scanSearchRecords(rows)
}

func scanSearchRecords(rows pgx.Rows) ([]places.SearchRecord, error) {
	defer rows.Close()

	results := []places.SearchRecord{}
	for rows.Next() {
		var rec places.SearchRecord
		var dataJSON []byte

		if err := rows.Scan(&rec.ID, &rec.Query, &dataJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}

		if err := json.Unmarshal(dataJSON, &rec.Location); err != nil {
			return nil, fmt.Errorf("unmarshaling search location: %w", err)
		}

		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}

	return results, nil
}
