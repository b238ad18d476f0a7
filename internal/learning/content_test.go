package learning

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Clark-Hu/learnhub/internal/catalog"
	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/repository"
)

type fakeCatalog struct {
	result *catalog.Result
	err    error
	calls  int
}

func (f *fakeCatalog) Lookup(_ context.Context, isbn string) (*catalog.Result, error) {
	f.calls++
	return f.result, f.err
}

func TestCreateContent_BookEnrichment(t *testing.T) {
	cat := &fakeCatalog{result: &catalog.Result{
		Title:         "The Go Programming Language",
		Authors:       []string{"Alan Donovan", "Brian Kernighan"},
		Publisher:     "Addison-Wesley",
		PageCount:     380,
		PublishedYear: 2015,
	}}
	env := newTestEnv(t, Options{Catalog: cat})

	book, err := env.svc.CreateContent(env.ctx, env.instructor, ContentInput{
		Kind:  domain.KindBook,
		Title: "  The Go Book ",
		Book:  &domain.BookDetails{ISBN: "978-0-13-419044-0", Publisher: "Own Press"},
	})
	if err != nil {
		t.Fatalf("CreateContent: %v", err)
	}
	if book.Title != "The Go Book" {
		t.Fatalf("title = %q", book.Title)
	}
	if book.Book.ISBN != "9780134190440" {
		t.Fatalf("isbn = %q, want normalized", book.Book.ISBN)
	}
	if book.Book.Publisher != "Own Press" {
		t.Fatalf("caller-supplied publisher overwritten: %q", book.Book.Publisher)
	}
	if len(book.Book.Authors) != 2 || book.Book.PageCount != 380 || book.Book.PublishedYear != 2015 {
		t.Fatalf("book not enriched: %+v", book.Book)
	}
	if book.InstructorID != env.instructor.UserID || book.Version != 1 {
		t.Fatalf("owner/version = %s/%d", book.InstructorID, book.Version)
	}
}

func TestCreateContent_CatalogFailureIgnored(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("upstream down")}
	env := newTestEnv(t, Options{Catalog: cat})

	book, err := env.svc.CreateContent(env.ctx, env.instructor, ContentInput{
		Kind:  domain.KindBook,
		Title: "Offline",
		Book:  &domain.BookDetails{ISBN: "0306406152"},
	})
	if err != nil {
		t.Fatalf("CreateContent: %v", err)
	}
	if cat.calls != 1 || len(book.Book.Authors) != 0 {
		t.Fatalf("calls = %d, book = %+v", cat.calls, book.Book)
	}
}

func TestCreateContent_Validation(t *testing.T) {
	env := newTestEnv(t, Options{})

	if _, err := env.svc.CreateContent(env.ctx, env.student, ContentInput{Kind: domain.KindVideo, Title: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("student create err = %v, want ErrForbidden", err)
	}

	cases := []struct {
		name string
		in   ContentInput
	}{
		{"unknown kind", ContentInput{Kind: "podcast", Title: "x"}},
		{"blank title", ContentInput{Kind: domain.KindVideo, Title: "   "}},
		{"video details on a book", ContentInput{Kind: domain.KindBook, Title: "x", Video: &domain.VideoAsset{URL: "https://v"}}},
		{"book details on a course", ContentInput{Kind: domain.KindCourse, Title: "x", Book: &domain.BookDetails{}}},
		{"bad isbn", ContentInput{Kind: domain.KindBook, Title: "x", Book: &domain.BookDetails{ISBN: "123"}}},
		{"negative duration", ContentInput{Kind: domain.KindVideo, Title: "x", Video: &domain.VideoAsset{DurationSeconds: -1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := env.svc.CreateContent(env.ctx, env.instructor, tc.in); !errors.Is(err, ErrInvalidContent) {
				t.Fatalf("err = %v, want ErrInvalidContent", err)
			}
		})
	}
}

func TestAddLesson_Rules(t *testing.T) {
	env := newTestEnv(t, Options{})
	course := env.mustCreate(t, domain.KindCourse, "Course")
	video := env.mustCreate(t, domain.KindVideo, "Video")
	other := env.mustCreate(t, domain.KindCourse, "Other course")

	updated, err := env.svc.AddLesson(env.ctx, env.instructor, course.ID, LessonInput{ContentID: video.ID})
	if err != nil {
		t.Fatalf("AddLesson: %v", err)
	}
	if len(updated.Lessons) != 1 || updated.Lessons[0].Title != "Video" || updated.Lessons[0].ContentType != domain.KindVideo {
		t.Fatalf("lessons = %+v", updated.Lessons)
	}

	if _, err := env.svc.AddLesson(env.ctx, env.instructor, course.ID, LessonInput{ContentID: video.ID}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate err = %v, want ErrConflict", err)
	}
	if _, err := env.svc.AddLesson(env.ctx, env.instructor, course.ID, LessonInput{ContentID: other.ID}); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("course-as-lesson err = %v, want ErrInvalidContent", err)
	}
	if _, err := env.svc.AddLesson(env.ctx, env.instructor, course.ID, LessonInput{ContentID: uuid.NewString()}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing lesson err = %v, want ErrNotFound", err)
	}

	rival := domain.Actor{UserID: uuid.NewString(), Role: domain.RoleInstructor}
	book := env.mustCreate(t, domain.KindBook, "Book")
	if _, err := env.svc.AddLesson(env.ctx, rival, course.ID, LessonInput{ContentID: book.ID}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("rival err = %v, want ErrForbidden", err)
	}
	admin := domain.Actor{UserID: uuid.NewString(), Role: domain.RoleAdmin}
	if _, err := env.svc.AddLesson(env.ctx, admin, course.ID, LessonInput{ContentID: book.ID, Title: "Read this"}); err != nil {
		t.Fatalf("admin AddLesson: %v", err)
	}
}

func TestListContent_Filters(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.mustCreate(t, domain.KindVideo, "Channels in depth")
	env.mustCreate(t, domain.KindBook, "Concurrency patterns")
	env.mustCreate(t, domain.KindVideo, "Generics")

	kind := domain.KindVideo
	res, err := env.svc.ListContent(env.ctx, repository.ContentListFilters{Kind: &kind})
	if err != nil {
		t.Fatalf("ListContent: %v", err)
	}
	if len(res.Items) != 2 || res.Items[0].Title != "Generics" {
		t.Fatalf("videos = %+v", res.Items)
	}

	q := "CONCURRENCY"
	res, _ = env.svc.ListContent(env.ctx, repository.ContentListFilters{Query: &q})
	if len(res.Items) != 1 {
		t.Fatalf("query matched %d items, want 1", len(res.Items))
	}

	bad := domain.ContentKind("podcast")
	if _, err := env.svc.ListContent(env.ctx, repository.ContentListFilters{Kind: &bad}); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("err = %v, want ErrInvalidContent", err)
	}
}

func TestGetContent_Errors(t *testing.T) {
	env := newTestEnv(t, Options{})
	if _, err := env.svc.GetContent(env.ctx, "not-a-uuid"); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("err = %v, want ErrInvalidReference", err)
	}
	if _, err := env.svc.GetContent(env.ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
