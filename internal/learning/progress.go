package learning

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/internal/domain"
)

// ProgressInput is a completion update for one lesson of a course.
type ProgressInput struct {
	UserID   string
	CourseID string
	LessonID string
	// ContentType is an optional hint that must agree with the lesson.
	ContentType domain.ContentKind
	Percent     float64
}

// ProgressResult carries the stored enrollment and the touched lesson entry.
type ProgressResult struct {
	Enrollment     domain.Enrollment
	Lesson         domain.LessonProgress
	NewlyCompleted bool
}

// RecordProgress upserts a lesson percentage in the caller's enrollment and
// recomputes the course-level aggregate against the course's current lessons.
func (s *Service) RecordProgress(ctx context.Context, in ProgressInput) (ProgressResult, error) {
	userID, err := parseID("user id", in.UserID)
	if err != nil {
		return ProgressResult{}, err
	}
	courseID, err := parseID("course id", in.CourseID)
	if err != nil {
		return ProgressResult{}, err
	}
	lessonID, err := parseID("content id", in.LessonID)
	if err != nil {
		return ProgressResult{}, err
	}

	var result ProgressResult
	err = s.withRetry(ctx, "enrollment", func() error {
		enrollment, err := s.loadEnrollment(ctx, userID, courseID)
		if err != nil {
			return err
		}
		course, err := s.loadCourse(ctx, courseID)
		if err != nil {
			return err
		}
		lesson, ok := course.LessonByContentID(lessonID)
		if !ok {
			return fmt.Errorf("lesson %s in course %s: %w", lessonID, courseID, ErrNotFound)
		}
		if !domain.ValidPercent(in.Percent) {
			return fmt.Errorf("progress %v outside [%d,%d]: %w", in.Percent, domain.MinPercent, domain.MaxPercent, ErrInvalidProgress)
		}
		if in.ContentType != "" {
			if !in.ContentType.Lessonable() {
				return fmt.Errorf("content type %q: %w", in.ContentType, ErrInvalidProgress)
			}
			if in.ContentType != lesson.ContentType {
				return fmt.Errorf("lesson %s is a %s, not a %s: %w", lessonID, lesson.ContentType, in.ContentType, ErrInvalidProgress)
			}
		}

		now := s.now()
		entry, newlyCompleted := enrollment.RecordLessonProgress(lesson, in.Percent, len(course.Lessons), now)
		enrollment.UpdatedAt = now

		stored, err := s.enrollments.Replace(ctx, enrollment)
		if err != nil {
			return mapStoreErr("enrollment of "+userID+" in "+courseID, err)
		}
		result = ProgressResult{Enrollment: stored, Lesson: entry, NewlyCompleted: newlyCompleted}
		return nil
	})
	if err != nil {
		s.metrics.ObserveProgress("error")
		return ProgressResult{}, err
	}

	outcome := "recorded"
	if result.NewlyCompleted {
		outcome = "completed"
	}
	s.metrics.ObserveProgress(outcome)
	s.logger.Info("learning: progress stored",
		zap.String("user_id", userID),
		zap.String("course_id", courseID),
		zap.String("lesson_id", lessonID),
		zap.Float64("percent", result.Lesson.Percent),
		zap.Float64("course_progress", result.Enrollment.Progress),
		zap.String("status", string(result.Enrollment.Status)))
	return result, nil
}
