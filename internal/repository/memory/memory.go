// Package memory is a process-local document store used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/repository"
)

type (
	// Store holds both collections behind independent locks.
	Store struct {
		Content     *ContentRepository
		Enrollments *EnrollmentsRepository
	}

	contentTable struct {
		t     map[string]*domain.ContentItem
		mutex sync.RWMutex
	}

	enrollmentTable struct {
		t     map[string]*domain.Enrollment
		mutex sync.RWMutex
	}
)

// New returns an empty Store.
func New() *Store {
	content := &contentTable{t: make(map[string]*domain.ContentItem)}
	return &Store{
		Content:     &ContentRepository{db: content},
		Enrollments: &EnrollmentsRepository{db: &enrollmentTable{t: make(map[string]*domain.Enrollment)}, content: content},
	}
}

// HealthCheck always succeeds.
func (s *Store) HealthCheck(context.Context) error { return nil }

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// ContentRepository implements content persistence over a map.
type ContentRepository struct {
	db *contentTable
}

func (r *ContentRepository) Create(_ context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, exists := r.db.t[item.ID]; exists {
		return domain.ContentItem{}, repository.ErrDuplicate
	}
	stored := item.Clone()
	stored.Version = 1
	stored.CreatedAt = stamp(item.CreatedAt)
	stored.UpdatedAt = stored.CreatedAt
	r.db.t[item.ID] = &stored
	return stored.Clone(), nil
}

func (r *ContentRepository) Get(_ context.Context, id string) (domain.ContentItem, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if item, ok := r.db.t[id]; ok {
		return item.Clone(), nil
	}
	return domain.ContentItem{}, repository.ErrNotFound
}

func (r *ContentRepository) Replace(_ context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	current, ok := r.db.t[item.ID]
	if !ok {
		return domain.ContentItem{}, repository.ErrNotFound
	}
	if current.Version != item.Version {
		return domain.ContentItem{}, repository.ErrVersionConflict
	}
	stored := item.Clone()
	stored.Kind = current.Kind
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = stamp(item.UpdatedAt)
	stored.Version = current.Version + 1
	r.db.t[item.ID] = &stored
	return stored.Clone(), nil
}

func (r *ContentRepository) List(_ context.Context, filters repository.ContentListFilters) (repository.ContentListResult, error) {
	filters.Normalize()

	r.db.mutex.RLock()
	matched := make([]domain.ContentItem, 0, len(r.db.t))
	for _, item := range r.db.t {
		if matchesContent(item, filters) {
			matched = append(matched, item.Clone())
		}
	}
	r.db.mutex.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}

	next, err := repository.NextPageCursor(matched, filters.Limit)
	if err != nil {
		return repository.ContentListResult{}, err
	}
	return repository.ContentListResult{Items: matched, NextCursor: next}, nil
}

func matchesContent(item *domain.ContentItem, f repository.ContentListFilters) bool {
	if f.Kind != nil && item.Kind != *f.Kind {
		return false
	}
	if f.InstructorID != nil && strings.TrimSpace(*f.InstructorID) != "" && item.InstructorID != strings.TrimSpace(*f.InstructorID) {
		return false
	}
	if f.Query != nil {
		if q := strings.ToLower(strings.TrimSpace(*f.Query)); q != "" {
			if !strings.Contains(strings.ToLower(item.Title), q) && !strings.Contains(strings.ToLower(item.Description), q) {
				return false
			}
		}
	}
	if f.Cursor != nil && !f.Cursor.After(item.CreatedAt, item.ID) {
		return false
	}
	return true
}

// EnrollmentsRepository implements enrollment persistence over a map keyed by
// user and course.
type EnrollmentsRepository struct {
	db      *enrollmentTable
	content *contentTable
}

func enrollmentKey(userID, courseID string) string {
	return userID + "/" + courseID
}

func (r *EnrollmentsRepository) Create(_ context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	r.content.mutex.RLock()
	_, courseExists := r.content.t[e.CourseID]
	r.content.mutex.RUnlock()
	if !courseExists {
		return domain.Enrollment{}, repository.ErrNotFound
	}

	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	key := enrollmentKey(e.UserID, e.CourseID)
	if _, exists := r.db.t[key]; exists {
		return domain.Enrollment{}, repository.ErrDuplicate
	}
	stored := e.Clone()
	stored.Version = 1
	stored.CreatedAt = stamp(e.CreatedAt)
	stored.UpdatedAt = stored.CreatedAt
	r.db.t[key] = &stored
	return stored.Clone(), nil
}

func (r *EnrollmentsRepository) Get(_ context.Context, userID, courseID string) (domain.Enrollment, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if e, ok := r.db.t[enrollmentKey(userID, courseID)]; ok {
		return e.Clone(), nil
	}
	return domain.Enrollment{}, repository.ErrNotFound
}

func (r *EnrollmentsRepository) Replace(_ context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	key := enrollmentKey(e.UserID, e.CourseID)
	current, ok := r.db.t[key]
	if !ok || current.ID != e.ID {
		return domain.Enrollment{}, repository.ErrNotFound
	}
	if current.Version != e.Version {
		return domain.Enrollment{}, repository.ErrVersionConflict
	}
	stored := e.Clone()
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = stamp(e.UpdatedAt)
	stored.Version = current.Version + 1
	r.db.t[key] = &stored
	return stored.Clone(), nil
}

func (r *EnrollmentsRepository) Delete(_ context.Context, userID, courseID string) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	key := enrollmentKey(userID, courseID)
	if _, ok := r.db.t[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.t, key)
	return nil
}

func (r *EnrollmentsRepository) ListByUser(_ context.Context, userID string) ([]domain.Enrollment, error) {
	return r.query(func(e *domain.Enrollment) bool { return e.UserID == userID }), nil
}

func (r *EnrollmentsRepository) ListByCourse(_ context.Context, courseID string) ([]domain.Enrollment, error) {
	return r.query(func(e *domain.Enrollment) bool { return e.CourseID == courseID }), nil
}

func (r *EnrollmentsRepository) query(keep func(*domain.Enrollment) bool) []domain.Enrollment {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	results := make([]domain.Enrollment, 0)
	for _, e := range r.db.t {
		if keep(e) {
			results = append(results, e.Clone())
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID > results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results
}
