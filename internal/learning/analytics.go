package learning

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/learnhub/internal/domain"
)

// CourseAnalytics summarizes ratings and enrollment state of one course.
type CourseAnalytics struct {
	CourseID        string  `json:"courseId"`
	Title           string  `json:"title"`
	LessonCount     int     `json:"lessonCount"`
	AverageRating   float64 `json:"averageRating"`
	RatingCount     int     `json:"ratingCount"`
	Enrolled        int     `json:"enrolled"`
	NotStarted      int     `json:"notStarted"`
	InProgress      int     `json:"inProgress"`
	Completed       int     `json:"completed"`
	AverageProgress float64 `json:"averageProgress"`
}

// CourseAnalytics loads the course and its enrollments concurrently.
func (s *Service) CourseAnalytics(ctx context.Context, actor domain.Actor, courseID string) (CourseAnalytics, error) {
	if !actor.Role.AtLeast(domain.RoleInstructor) {
		return CourseAnalytics{}, fmt.Errorf("role %s cannot view analytics: %w", actor.Role, ErrForbidden)
	}
	cid, err := parseID("course id", courseID)
	if err != nil {
		return CourseAnalytics{}, err
	}

	var (
		course      domain.ContentItem
		enrollments []domain.Enrollment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		course, err = s.loadCourse(gctx, cid)
		return err
	})
	g.Go(func() error {
		var err error
		enrollments, err = s.enrollments.ListByCourse(gctx, cid)
		if err != nil {
			return fmt.Errorf("list course enrollments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return CourseAnalytics{}, err
	}
	if !actor.CanManage(course.InstructorID) {
		return CourseAnalytics{}, fmt.Errorf("course %s: %w", cid, ErrForbidden)
	}

	out := CourseAnalytics{
		CourseID:      course.ID,
		Title:         course.Title,
		LessonCount:   len(course.Lessons),
		AverageRating: course.AverageRating,
		RatingCount:   course.RatingCount,
		Enrolled:      len(enrollments),
	}
	total := len(course.Lessons)
	var sum float64
	for _, e := range enrollments {
		// Stored aggregates may predate lessons added later.
		progress := domain.CourseProgress(completedLessons(e), total)
		sum += progress
		switch {
		case total > 0 && progress >= domain.MaxPercent:
			out.Completed++
		case len(e.Lessons) > 0:
			out.InProgress++
		default:
			out.NotStarted++
		}
	}
	if len(enrollments) > 0 {
		out.AverageProgress = domain.RoundToOneDecimal(sum / float64(len(enrollments)))
	}
	return out, nil
}

func completedLessons(e domain.Enrollment) int {
	n := 0
	for _, l := range e.Lessons {
		if l.Completed {
			n++
		}
	}
	return n
}
