package learning

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/repository"
)

// Enroll creates the user's enrollment in a course.
func (s *Service) Enroll(ctx context.Context, userID, courseID string) (domain.Enrollment, error) {
	uid, err := parseID("user id", userID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	cid, err := parseID("course id", courseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	course, err := s.loadCourse(ctx, cid)
	if err != nil {
		return domain.Enrollment{}, err
	}

	enrollment := domain.NewEnrollment(uuid.NewString(), uid, cid, len(course.Lessons))
	enrollment.CreatedAt = s.now()
	enrollment.UpdatedAt = enrollment.CreatedAt

	created, err := s.enrollments.Create(ctx, enrollment)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return domain.Enrollment{}, fmt.Errorf("user %s already enrolled in %s: %w", uid, cid, ErrConflict)
		case errors.Is(err, repository.ErrNotFound):
			return domain.Enrollment{}, fmt.Errorf("course %s: %w", cid, ErrNotFound)
		}
		return domain.Enrollment{}, fmt.Errorf("create enrollment: %w", err)
	}
	s.logger.Info("learning: enrolled", zap.String("user_id", uid), zap.String("course_id", cid))
	return created, nil
}

// Unenroll deletes the enrollment. Ratings the user left are kept.
func (s *Service) Unenroll(ctx context.Context, userID, courseID string) error {
	uid, err := parseID("user id", userID)
	if err != nil {
		return err
	}
	cid, err := parseID("course id", courseID)
	if err != nil {
		return err
	}
	if err := s.enrollments.Delete(ctx, uid, cid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("enrollment of %s in %s: %w", uid, cid, ErrNotFound)
		}
		return fmt.Errorf("delete enrollment: %w", err)
	}
	s.logger.Info("learning: unenrolled", zap.String("user_id", uid), zap.String("course_id", cid))
	return nil
}

// GetEnrollment returns the user's enrollment in a course.
func (s *Service) GetEnrollment(ctx context.Context, userID, courseID string) (domain.Enrollment, error) {
	uid, err := parseID("user id", userID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	cid, err := parseID("course id", courseID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	return s.loadEnrollment(ctx, uid, cid)
}

// ListEnrollments returns all enrollments of a user.
func (s *Service) ListEnrollments(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	uid, err := parseID("user id", userID)
	if err != nil {
		return nil, err
	}
	list, err := s.enrollments.ListByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return list, nil
}

func (s *Service) loadEnrollment(ctx context.Context, userID, courseID string) (domain.Enrollment, error) {
	e, err := s.enrollments.Get(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Enrollment{}, fmt.Errorf("enrollment of %s in %s: %w", userID, courseID, ErrNotFound)
		}
		return domain.Enrollment{}, fmt.Errorf("load enrollment: %w", err)
	}
	return e, nil
}
