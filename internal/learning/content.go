package learning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/internal/catalog"
	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/repository"
)

// MaxTitleLength bounds content and lesson titles in characters.
const MaxTitleLength = 200

// ContentInput describes a new course, video or book.
type ContentInput struct {
	Kind        domain.ContentKind
	Title       string
	Description string
	Video       *domain.VideoAsset
	Book        *domain.BookDetails
}

// LessonInput attaches an existing video or book to a course.
type LessonInput struct {
	ContentID string
	Title     string
}

// CreateContent stores a new content item owned by actor. Books with an ISBN
// are enriched from the catalog on a best-effort basis.
func (s *Service) CreateContent(ctx context.Context, actor domain.Actor, in ContentInput) (domain.ContentItem, error) {
	if !actor.Role.AtLeast(domain.RoleInstructor) {
		return domain.ContentItem{}, fmt.Errorf("role %s cannot create content: %w", actor.Role, ErrForbidden)
	}
	ownerID, err := parseID("instructor id", actor.UserID)
	if err != nil {
		return domain.ContentItem{}, err
	}
	if err := validateContentInput(&in); err != nil {
		return domain.ContentItem{}, err
	}

	now := s.now()
	item := domain.ContentItem{
		ID:           uuid.NewString(),
		Kind:         in.Kind,
		Title:        in.Title,
		Description:  strings.TrimSpace(in.Description),
		InstructorID: ownerID,
		Video:        in.Video,
		Book:         in.Book,
		Ratings:      []domain.RatingEntry{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if item.Kind == domain.KindCourse {
		item.Lessons = []domain.Lesson{}
	}
	if item.Book != nil && item.Book.ISBN != "" {
		s.enrichBook(ctx, item.Book)
	}

	created, err := s.content.Create(ctx, item)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.ContentItem{}, fmt.Errorf("content %s: %w", item.ID, ErrConflict)
		}
		return domain.ContentItem{}, fmt.Errorf("create content: %w", err)
	}
	s.logger.Info("learning: content created",
		zap.String("content_id", created.ID),
		zap.String("kind", string(created.Kind)),
		zap.String("instructor_id", ownerID))
	return created, nil
}

func validateContentInput(in *ContentInput) error {
	if !in.Kind.Valid() {
		return fmt.Errorf("kind %q: %w", in.Kind, ErrInvalidContent)
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("title is required: %w", ErrInvalidContent)
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return fmt.Errorf("title longer than %d characters: %w", MaxTitleLength, ErrInvalidContent)
	}
	if in.Video != nil && in.Kind != domain.KindVideo {
		return fmt.Errorf("video details on a %s: %w", in.Kind, ErrInvalidContent)
	}
	if in.Book != nil && in.Kind != domain.KindBook {
		return fmt.Errorf("book details on a %s: %w", in.Kind, ErrInvalidContent)
	}
	if in.Video != nil && in.Video.DurationSeconds < 0 {
		return fmt.Errorf("negative video duration: %w", ErrInvalidContent)
	}
	if in.Book != nil && in.Book.ISBN != "" {
		isbn, err := catalog.NormalizeISBN(in.Book.ISBN)
		if err != nil {
			return fmt.Errorf("isbn %q: %w", in.Book.ISBN, ErrInvalidContent)
		}
		in.Book.ISBN = isbn
	}
	return nil
}

// enrichBook fills blank bibliographic fields from the catalog. Lookup failures
// never fail the create.
func (s *Service) enrichBook(ctx context.Context, book *domain.BookDetails) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.catalogTimeout)
	defer cancel()

	result, err := s.catalog.Lookup(lookupCtx, book.ISBN)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.logger.Debug("learning: isbn not in catalog", zap.String("isbn", book.ISBN))
		} else {
			s.logger.Warn("learning: catalog lookup failed", zap.String("isbn", book.ISBN), zap.Error(err))
		}
		return
	}
	if len(book.Authors) == 0 && len(result.Authors) > 0 {
		book.Authors = append([]string(nil), result.Authors...)
	}
	if book.Publisher == "" {
		book.Publisher = result.Publisher
	}
	if book.PageCount == 0 {
		book.PageCount = result.PageCount
	}
	if book.PublishedYear == 0 {
		book.PublishedYear = result.PublishedYear
	}
}

// GetContent returns one content item.
func (s *Service) GetContent(ctx context.Context, id string) (domain.ContentItem, error) {
	cid, err := parseID("content id", id)
	if err != nil {
		return domain.ContentItem{}, err
	}
	return s.loadContent(ctx, cid)
}

// ListContent returns a page of content matching filters.
func (s *Service) ListContent(ctx context.Context, filters repository.ContentListFilters) (repository.ContentListResult, error) {
	if filters.Kind != nil && !filters.Kind.Valid() {
		return repository.ContentListResult{}, fmt.Errorf("kind %q: %w", *filters.Kind, ErrInvalidContent)
	}
	res, err := s.content.List(ctx, filters)
	if err != nil {
		return repository.ContentListResult{}, fmt.Errorf("list content: %w", err)
	}
	return res, nil
}

// AddLesson appends a video or book to a course. Only the owning instructor or
// an admin may change a course.
func (s *Service) AddLesson(ctx context.Context, actor domain.Actor, courseID string, in LessonInput) (domain.ContentItem, error) {
	cid, err := parseID("course id", courseID)
	if err != nil {
		return domain.ContentItem{}, err
	}
	lessonID, err := parseID("content id", in.ContentID)
	if err != nil {
		return domain.ContentItem{}, err
	}
	target, err := s.loadContent(ctx, lessonID)
	if err != nil {
		return domain.ContentItem{}, err
	}
	if !target.Kind.Lessonable() {
		return domain.ContentItem{}, fmt.Errorf("a %s cannot be a lesson: %w", target.Kind, ErrInvalidContent)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = target.Title
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return domain.ContentItem{}, fmt.Errorf("title longer than %d characters: %w", MaxTitleLength, ErrInvalidContent)
	}

	var updated domain.ContentItem
	err = s.withRetry(ctx, "content", func() error {
		course, err := s.loadCourse(ctx, cid)
		if err != nil {
			return err
		}
		if !actor.CanManage(course.InstructorID) {
			return fmt.Errorf("course %s: %w", cid, ErrForbidden)
		}
		if !course.AddLesson(domain.Lesson{ContentID: lessonID, ContentType: target.Kind, Title: title}) {
			return fmt.Errorf("lesson %s already in course %s: %w", lessonID, cid, ErrConflict)
		}
		course.UpdatedAt = s.now()
		updated, err = s.content.Replace(ctx, course)
		return mapStoreErr("course "+cid, err)
	})
	if err != nil {
		return domain.ContentItem{}, err
	}
	s.logger.Info("learning: lesson added",
		zap.String("course_id", cid),
		zap.String("lesson_id", lessonID),
		zap.Int("lessons", len(updated.Lessons)))
	return updated, nil
}
