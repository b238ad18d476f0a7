// Package learning implements the rating aggregator, the progress tracker and
// the catalog operations around them. Every document write is conditional on
// the version that was read; conflicts are retried up to Options.MaxRetries.
package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/internal/catalog"
	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/metrics"
	"github.com/Clark-Hu/learnhub/internal/repository"
)

// DefaultMaxRetries bounds reload-and-reapply cycles after a version conflict.
const DefaultMaxRetries = 5

var (
	ErrInvalidReference = errors.New("invalid reference")
	ErrNotFound         = errors.New("not found")
	ErrInvalidRating    = errors.New("invalid rating")
	ErrInvalidProgress  = errors.New("invalid progress")
	ErrInvalidContent   = errors.New("invalid content")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
)

// ContentStore persists content documents.
type ContentStore interface {
	Create(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error)
	Get(ctx context.Context, id string) (domain.ContentItem, error)
	Replace(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error)
	List(ctx context.Context, filters repository.ContentListFilters) (repository.ContentListResult, error)
}

// EnrollmentStore persists enrollment documents keyed by (user, course).
type EnrollmentStore interface {
	Create(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error)
	Get(ctx context.Context, userID, courseID string) (domain.Enrollment, error)
	Replace(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error)
	Delete(ctx context.Context, userID, courseID string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.Enrollment, error)
}

// Options configures optional collaborators.
type Options struct {
	Catalog        catalog.Client
	CatalogTimeout time.Duration
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// MaxRetries is the number of extra attempts after a version conflict.
	// Zero disables retrying; a negative value selects DefaultMaxRetries.
	MaxRetries     int
	Clock          func() time.Time
}

// Service coordinates domain rules with persistence.
type Service struct {
	content        ContentStore
	enrollments    EnrollmentStore
	catalog        catalog.Client
	catalogTimeout time.Duration
	logger         *zap.Logger
	metrics        *metrics.Metrics
	maxRetries     int
	now            func() time.Time
}

// New builds a Service.
func New(content ContentStore, enrollments EnrollmentStore, opts Options) *Service {
	s := &Service{
		content:        content,
		enrollments:    enrollments,
		catalog:        opts.Catalog,
		catalogTimeout: opts.CatalogTimeout,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		maxRetries:     opts.MaxRetries,
		now:            opts.Clock,
	}
	if s.catalog == nil {
		s.catalog = catalog.NopClient{}
	}
	if s.catalogTimeout <= 0 {
		s.catalogTimeout = 3 * time.Second
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxRetries < 0 {
		s.maxRetries = DefaultMaxRetries
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// withRetry runs attempt until it stops reporting a version conflict or the
// budget is spent. attempt must reload the document on every call.
func (s *Service) withRetry(ctx context.Context, entity string, attempt func() error) error {
	var err error
	for i := 0; i <= s.maxRetries; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = attempt()
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
		s.metrics.ObserveConflict(entity)
		s.logger.Debug("learning: version conflict, retrying",
			zap.String("entity", entity),
			zap.Int("attempt", i+1))
	}
	return fmt.Errorf("%s: gave up after %d attempts: %w", entity, s.maxRetries+1, ErrConflict)
}

// mapStoreErr classifies a failed conditional write. A document deleted after
// it was loaded reports ErrNotFound; version conflicts pass through for withRetry.
func mapStoreErr(what string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func (s *Service) loadContent(ctx context.Context, id string) (domain.ContentItem, error) {
	item, err := s.content.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ContentItem{}, fmt.Errorf("content %s: %w", id, ErrNotFound)
		}
		return domain.ContentItem{}, fmt.Errorf("load content %s: %w", id, err)
	}
	return item, nil
}

func (s *Service) loadCourse(ctx context.Context, id string) (domain.ContentItem, error) {
	item, err := s.loadContent(ctx, id)
	if err != nil {
		return domain.ContentItem{}, err
	}
	if item.Kind != domain.KindCourse {
		return domain.ContentItem{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	return item, nil
}

func parseID(field, value string) (string, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return "", fmt.Errorf("%s %q: %w", field, value, ErrInvalidReference)
	}
	return id.String(), nil
}
