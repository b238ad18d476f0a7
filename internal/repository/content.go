package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/learnhub/internal/domain"
)

// ContentRepository persists content documents as JSONB rows guarded by a
// version column.
type ContentRepository struct {
	pool *pgxpool.Pool
}

const contentColumns = `
    id,
    document,
    version,
    created_at,
    updated_at
`

// Create inserts a new content document with version 1.
func (r *ContentRepository) Create(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	item.Version = 1
	stamp := item.CreatedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	doc, err := json.Marshal(item)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("marshal content: %w", err)
	}

	query := fmt.Sprintf(`
        INSERT INTO content_items (id, kind, title, instructor_id, document, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,1,$6,$6)
        RETURNING %s
    `, contentColumns)

	row := r.pool.QueryRow(ctx, query, item.ID, string(item.Kind), item.Title, item.InstructorID, doc, stamp)
	created, err := scanContent(row)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return domain.ContentItem{}, ErrDuplicate
		}
		return domain.ContentItem{}, err
	}
	return created, nil
}

// Get fetches a content document by its identifier.
func (r *ContentRepository) Get(ctx context.Context, id string) (domain.ContentItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM content_items WHERE id = $1`, contentColumns)
	item, err := scanContent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ContentItem{}, ErrNotFound
		}
		return domain.ContentItem{}, err
	}
	return item, nil
}

// Replace writes item only if the stored version still equals item.Version.
// The returned document carries the incremented version.
func (r *ContentRepository) Replace(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	expected := item.Version
	item.Version = expected + 1
	stamp := item.UpdatedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	doc, err := json.Marshal(item)
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("marshal content: %w", err)
	}

	query := fmt.Sprintf(`
        UPDATE content_items
        SET title = $3,
            instructor_id = $4,
            document = $5,
            version = version + 1,
            updated_at = $6
        WHERE id = $1 AND version = $2
        RETURNING %s
    `, contentColumns)

	row := r.pool.QueryRow(ctx, query, item.ID, expected, item.Title, item.InstructorID, doc, stamp)
	updated, err := scanContent(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.ContentItem{}, err
	}
	if _, getErr := r.Get(ctx, item.ID); getErr != nil {
		return domain.ContentItem{}, getErr
	}
	return domain.ContentItem{}, ErrVersionConflict
}

// List returns content documents that match the provided filters, newest first.
func (r *ContentRepository) List(ctx context.Context, filters ContentListFilters) (ContentListResult, error) {
	filters.Normalize()

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Kind != nil {
		where = append(where, fmt.Sprintf("kind = %s", arg(string(*filters.Kind))))
	}
	if filters.InstructorID != nil && strings.TrimSpace(*filters.InstructorID) != "" {
		where = append(where, fmt.Sprintf("instructor_id = %s", arg(strings.TrimSpace(*filters.InstructorID))))
	}
	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		q := "%" + escapeLike(strings.TrimSpace(*filters.Query)) + "%"
		p1 := arg(q)
		p2 := arg(q)
		where = append(where, fmt.Sprintf("(title ILIKE %s OR document->>'description' ILIKE %s)", p1, p2))
	}
	if filters.Cursor != nil {
		p1 := arg(filters.Cursor.CreatedAt)
		p2 := arg(filters.Cursor.ID)
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", p1, p2))
	}

	query := fmt.Sprintf(`SELECT %s FROM content_items`, contentColumns)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %s", arg(filters.Limit))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return ContentListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.ContentItem, 0, filters.Limit)
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return ContentListResult{}, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return ContentListResult{}, err
	}

	next, err := NextPageCursor(items, filters.Limit)
	if err != nil {
		return ContentListResult{}, err
	}
	return ContentListResult{Items: items, NextCursor: next}, nil
}

func scanContent(row pgx.Row) (domain.ContentItem, error) {
	var (
		item      domain.ContentItem
		id        string
		doc       []byte
		version   int64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &doc, &version, &createdAt, &updatedAt); err != nil {
		return domain.ContentItem{}, err
	}
	if err := json.Unmarshal(doc, &item); err != nil {
		return domain.ContentItem{}, fmt.Errorf("decode content %s: %w", id, err)
	}
	// Row columns are authoritative for identity and bookkeeping fields.
	item.ID = id
	item.Version = version
	item.CreatedAt = createdAt.UTC()
	item.UpdatedAt = updatedAt.UTC()
	return item, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes q match literally inside an ILIKE pattern (default escape is backslash).
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}
