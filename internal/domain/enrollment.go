package domain

import (
	"math"
	"time"
)

// EnrollmentStatus tracks where a learner is in a course.
type EnrollmentStatus string

const (
	StatusEnrolled   EnrollmentStatus = "ENROLLED"
	StatusInProgress EnrollmentStatus = "IN_PROGRESS"
	StatusCompleted  EnrollmentStatus = "COMPLETED"
)

// Bounds for a lesson completion percentage.
const (
	MinPercent = 0
	MaxPercent = 100
)

// LessonProgress is the per-lesson state inside an enrollment.
type LessonProgress struct {
	LessonID    string      `json:"lessonId" bson:"lesson_id"`
	ContentType ContentKind `json:"contentType" bson:"content_type"`
	Percent     float64     `json:"percent" bson:"percent"`
	Completed   bool        `json:"completed" bson:"completed"`
	CompletedAt *time.Time  `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt" bson:"updated_at"`
}

// Enrollment associates a user with a course and carries completion state.
type Enrollment struct {
	ID               string           `json:"id" bson:"_id"`
	UserID           string           `json:"userId" bson:"user_id"`
	CourseID         string           `json:"courseId" bson:"course_id"`
	Status           EnrollmentStatus `json:"status" bson:"status"`
	Lessons          []LessonProgress `json:"lessons" bson:"lessons"`
	Progress         float64          `json:"progress" bson:"progress"`
	CompletedLessons int              `json:"completedLessons" bson:"completed_lessons"`
	TotalLessons     int              `json:"totalLessons" bson:"total_lessons"`
	CompletedAt      *time.Time       `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
	Version          int64            `json:"version" bson:"version"`
	CreatedAt        time.Time        `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" bson:"updated_at"`
}

// NewEnrollment builds a fresh enrollment with no lesson progress.
func NewEnrollment(id, userID, courseID string, totalLessons int) Enrollment {
	return Enrollment{
		ID:           id,
		UserID:       userID,
		CourseID:     courseID,
		Status:       StatusEnrolled,
		Lessons:      []LessonProgress{},
		TotalLessons: totalLessons,
	}
}

// ValidPercent reports whether p is a finite number in [MinPercent, MaxPercent].
func ValidPercent(p float64) bool {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return false
	}
	return p >= MinPercent && p <= MaxPercent
}

// RecordLessonProgress locates or creates the entry for lesson, applies percent and
// recomputes the course aggregate against totalLessons. Percentages never regress.
// The returned flag is true when this call moved the lesson to completed.
func (e *Enrollment) RecordLessonProgress(lesson Lesson, percent float64, totalLessons int, now time.Time) (LessonProgress, bool) {
	idx := -1
	for i := range e.Lessons {
		if e.Lessons[i].LessonID == lesson.ContentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.Lessons = append(e.Lessons, LessonProgress{
			LessonID:    lesson.ContentID,
			ContentType: lesson.ContentType,
		})
		idx = len(e.Lessons) - 1
	}

	entry := &e.Lessons[idx]
	if percent > entry.Percent {
		entry.Percent = percent
	}
	newlyCompleted := false
	if entry.Percent >= MaxPercent && !entry.Completed {
		completedAt := now
		entry.Completed = true
		entry.CompletedAt = &completedAt
		newlyCompleted = true
	}
	entry.UpdatedAt = now

	e.Recompute(totalLessons, now)
	return *entry, newlyCompleted
}

// Recompute refreshes the aggregate fields from the lesson entries.
func (e *Enrollment) Recompute(totalLessons int, now time.Time) {
	completed := 0
	for _, l := range e.Lessons {
		if l.Completed {
			completed++
		}
	}
	e.CompletedLessons = completed
	e.TotalLessons = totalLessons
	e.Progress = CourseProgress(completed, totalLessons)

	switch {
	case totalLessons > 0 && completed >= totalLessons:
		e.Status = StatusCompleted
		if e.CompletedAt == nil {
			completedAt := now
			e.CompletedAt = &completedAt
		}
	case len(e.Lessons) > 0:
		e.Status = StatusInProgress
		e.CompletedAt = nil
	default:
		e.Status = StatusEnrolled
		e.CompletedAt = nil
	}
}

// CourseProgress is completed/total × 100 rounded to one decimal, capped at 100.
func CourseProgress(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	if pct > MaxPercent {
		pct = MaxPercent
	}
	return RoundToOneDecimal(pct)
}

// Clone returns a deep copy of the enrollment.
func (e Enrollment) Clone() Enrollment {
	out := e
	if e.Lessons != nil {
		out.Lessons = make([]LessonProgress, len(e.Lessons))
		for i, l := range e.Lessons {
			if l.CompletedAt != nil {
				t := *l.CompletedAt
				l.CompletedAt = &t
			}
			out.Lessons[i] = l
		}
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
