package domain

import "time"

// ContentKind distinguishes the documents stored in the content collection.
type ContentKind string

const (
	KindCourse ContentKind = "course"
	KindVideo  ContentKind = "video"
	KindBook   ContentKind = "book"
)

// Valid reports whether k is one of the known kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindCourse, KindVideo, KindBook:
		return true
	}
	return false
}

// Lessonable reports whether content of kind k can be attached to a course as a lesson.
func (k ContentKind) Lessonable() bool {
	return k == KindVideo || k == KindBook
}

// Lesson references a video or book that is part of a course.
type Lesson struct {
	ContentID   string      `json:"contentId" bson:"content_id"`
	ContentType ContentKind `json:"contentType" bson:"content_type"`
	Title       string      `json:"title" bson:"title"`
}

// VideoAsset describes where a video is served from.
type VideoAsset struct {
	URL             string `json:"url,omitempty" bson:"url,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty" bson:"duration_seconds,omitempty"`
}

// BookDetails carries bibliographic metadata, optionally enriched from the catalog.
type BookDetails struct {
	ISBN          string   `json:"isbn,omitempty" bson:"isbn,omitempty"`
	Authors       []string `json:"authors,omitempty" bson:"authors,omitempty"`
	Publisher     string   `json:"publisher,omitempty" bson:"publisher,omitempty"`
	PageCount     int      `json:"pageCount,omitempty" bson:"page_count,omitempty"`
	PublishedYear int      `json:"publishedYear,omitempty" bson:"published_year,omitempty"`
}

// ContentItem is a course, video or book document. Ratings are embedded and the
// derived AverageRating/RatingCount fields always travel with them in one write.
type ContentItem struct {
	ID            string        `json:"id" bson:"_id"`
	Kind          ContentKind   `json:"kind" bson:"kind"`
	Title         string        `json:"title" bson:"title"`
	Description   string        `json:"description,omitempty" bson:"description,omitempty"`
	InstructorID  string        `json:"instructorId,omitempty" bson:"instructor_id,omitempty"`
	Lessons       []Lesson      `json:"lessons,omitempty" bson:"lessons,omitempty"`
	Video         *VideoAsset   `json:"video,omitempty" bson:"video,omitempty"`
	Book          *BookDetails  `json:"book,omitempty" bson:"book,omitempty"`
	Ratings       []RatingEntry `json:"ratings" bson:"ratings"`
	AverageRating float64       `json:"averageRating" bson:"average_rating"`
	RatingCount   int           `json:"ratingCount" bson:"rating_count"`
	Version       int64         `json:"version" bson:"version"`
	CreatedAt     time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updated_at"`
}

// LessonByContentID returns the course lesson that points at contentID.
func (c *ContentItem) LessonByContentID(contentID string) (Lesson, bool) {
	for _, lesson := range c.Lessons {
		if lesson.ContentID == contentID {
			return lesson, true
		}
	}
	return Lesson{}, false
}

// AddLesson appends lesson unless a lesson for the same content already exists.
func (c *ContentItem) AddLesson(lesson Lesson) bool {
	if _, exists := c.LessonByContentID(lesson.ContentID); exists {
		return false
	}
	c.Lessons = append(c.Lessons, lesson)
	return true
}

// Clone returns a deep copy so callers can mutate without aliasing stored slices.
func (c ContentItem) Clone() ContentItem {
	out := c
	if c.Lessons != nil {
		out.Lessons = append([]Lesson(nil), c.Lessons...)
	}
	if c.Ratings != nil {
		out.Ratings = append([]RatingEntry(nil), c.Ratings...)
	}
	if c.Video != nil {
		video := *c.Video
		out.Video = &video
	}
	if c.Book != nil {
		book := *c.Book
		if c.Book.Authors != nil {
			book.Authors = append([]string(nil), c.Book.Authors...)
		}
		out.Book = &book
	}
	return out
}
