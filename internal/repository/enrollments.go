package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/learnhub/internal/domain"
)

// EnrollmentsRepository persists one progress document per (user, course).
type EnrollmentsRepository struct {
	pool *pgxpool.Pool
}

const enrollmentColumns = `
    id,
    document,
    version,
    created_at,
    updated_at
`

// Create inserts a new enrollment. A second enrollment for the same pair
// yields ErrDuplicate; an unknown course yields ErrNotFound.
func (r *EnrollmentsRepository) Create(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	e.Version = 1
	stamp := e.CreatedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	doc, err := json.Marshal(e)
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("marshal enrollment: %w", err)
	}

	query := fmt.Sprintf(`
        INSERT INTO enrollments (id, user_id, course_id, document, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,1,$5,$5)
        RETURNING %s
    `, enrollmentColumns)

	created, err := scanEnrollment(r.pool.QueryRow(ctx, query, e.ID, e.UserID, e.CourseID, doc, stamp))
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return domain.Enrollment{}, ErrDuplicate
		case pgForeignKeyViolation:
			return domain.Enrollment{}, ErrNotFound
		}
		return domain.Enrollment{}, err
	}
	return created, nil
}

// Get fetches the enrollment of userID in courseID.
func (r *EnrollmentsRepository) Get(ctx context.Context, userID, courseID string) (domain.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE user_id = $1 AND course_id = $2`, enrollmentColumns)
	e, err := scanEnrollment(r.pool.QueryRow(ctx, query, userID, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Enrollment{}, ErrNotFound
		}
		return domain.Enrollment{}, err
	}
	return e, nil
}

// Replace performs a version-conditional write of e.
func (r *EnrollmentsRepository) Replace(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	expected := e.Version
	e.Version = expected + 1
	stamp := e.UpdatedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	doc, err := json.Marshal(e)
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("marshal enrollment: %w", err)
	}

	query := fmt.Sprintf(`
        UPDATE enrollments
        SET document = $3,
            version = version + 1,
            updated_at = $4
        WHERE id = $1 AND version = $2
        RETURNING %s
    `, enrollmentColumns)

	updated, err := scanEnrollment(r.pool.QueryRow(ctx, query, e.ID, expected, doc, stamp))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Enrollment{}, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM enrollments WHERE id = $1)`, e.ID).Scan(&exists); err != nil {
		return domain.Enrollment{}, err
	}
	if !exists {
		return domain.Enrollment{}, ErrNotFound
	}
	return domain.Enrollment{}, ErrVersionConflict
}

// Delete removes the enrollment of userID in courseID.
func (r *EnrollmentsRepository) Delete(ctx context.Context, userID, courseID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns all enrollments of userID, newest first.
func (r *EnrollmentsRepository) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, enrollmentColumns)
	return r.list(ctx, query, userID)
}

// ListByCourse returns all enrollments in courseID, newest first.
func (r *EnrollmentsRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE course_id = $1 ORDER BY created_at DESC, id DESC`, enrollmentColumns)
	return r.list(ctx, query, courseID)
}

func (r *EnrollmentsRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Enrollment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Enrollment, 0)
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanEnrollment(row pgx.Row) (domain.Enrollment, error) {
	var (
		e         domain.Enrollment
		id        string
		doc       []byte
		version   int64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &doc, &version, &createdAt, &updatedAt); err != nil {
		return domain.Enrollment{}, err
	}
	if err := json.Unmarshal(doc, &e); err != nil {
		return domain.Enrollment{}, fmt.Errorf("decode enrollment %s: %w", id, err)
	}
	e.ID = id
	e.Version = version
	e.CreatedAt = createdAt.UTC()
	e.UpdatedAt = updatedAt.UTC()
	return e, nil
}
