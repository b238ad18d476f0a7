package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/repository"
)

func TestContentRepository_ReplaceVersioning(t *testing.T) {
	ctx := context.Background()
	st := New()

	item, err := st.Content.Create(ctx, domain.ContentItem{ID: "v1", Kind: domain.KindVideo, Title: "Intro"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := st.Content.Create(ctx, item); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	item.ApplyRating("u1", 5, "", time.Now())
	updated, err := st.Content.Replace(ctx, item)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if updated.Version != 2 {
		t.Fatalf("version = %d, want 2", updated.Version)
	}
	if _, err := st.Content.Replace(ctx, item); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if _, err := st.Content.Replace(ctx, domain.ContentItem{ID: "missing"}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestContentRepository_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := New()
	if _, err := st.Content.Create(ctx, domain.ContentItem{ID: "c1", Kind: domain.KindCourse, Title: "Go", Lessons: []domain.Lesson{{ContentID: "v1"}}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, _ := st.Content.Get(ctx, "c1")
	got.Lessons[0].ContentID = "mutated"

	again, _ := st.Content.Get(ctx, "c1")
	if again.Lessons[0].ContentID != "v1" {
		t.Fatalf("stored document was mutated through a returned copy")
	}
}

func TestContentRepository_ListPagination(t *testing.T) {
	ctx := context.Background()
	st := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		kind := domain.KindVideo
		if i%2 == 0 {
			kind = domain.KindBook
		}
		_, err := st.Content.Create(ctx, domain.ContentItem{
			ID:        fmt.Sprintf("item-%d", i),
			Kind:      kind,
			Title:     fmt.Sprintf("Title %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	seen := map[string]bool{}
	filters := repository.ContentListFilters{Limit: 2}
	for page := 0; page < 5; page++ {
		res, err := st.Content.List(ctx, filters)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		for _, item := range res.Items {
			if seen[item.ID] {
				t.Fatalf("duplicate %s across pages", item.ID)
			}
			seen[item.ID] = true
		}
		if res.NextCursor == nil {
			break
		}
		cursor, err := repository.DecodeCursor(*res.NextCursor)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		filters.Cursor = cursor
	}
	if len(seen) != 5 {
		t.Fatalf("paged through %d items, want 5", len(seen))
	}

	kind := domain.KindBook
	books, _ := st.Content.List(ctx, repository.ContentListFilters{Kind: &kind})
	if len(books.Items) != 3 {
		t.Fatalf("books = %d, want 3", len(books.Items))
	}
	if books.Items[0].ID != "item-4" {
		t.Fatalf("newest book = %s, want item-4", books.Items[0].ID)
	}
}

func TestEnrollmentsRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	st := New()
	if _, err := st.Content.Create(ctx, domain.ContentItem{ID: "course", Kind: domain.KindCourse}); err != nil {
		t.Fatalf("Create course: %v", err)
	}

	if _, err := st.Enrollments.Create(ctx, domain.NewEnrollment("e0", "u1", "nope", 0)); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown course, got %v", err)
	}
	e, err := st.Enrollments.Create(ctx, domain.NewEnrollment("e1", "u1", "course", 1))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := st.Enrollments.Create(ctx, domain.NewEnrollment("e2", "u1", "course", 1)); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	e.RecordLessonProgress(domain.Lesson{ContentID: "v1", ContentType: domain.KindVideo}, 100, 1, time.Now())
	updated, err := st.Enrollments.Replace(ctx, e)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if updated.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", updated.Status)
	}
	if _, err := st.Enrollments.Replace(ctx, e); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	if list, _ := st.Enrollments.ListByCourse(ctx, "course"); len(list) != 1 {
		t.Fatalf("ListByCourse = %d, want 1", len(list))
	}
	if err := st.Enrollments.Delete(ctx, "u1", "course"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := st.Enrollments.ListByUser(ctx, "u1"); len(list) != 0 {
		t.Fatalf("ListByUser after delete = %d, want 0", len(list))
	}
}

func TestContentRepository_ConcurrentReplaceSingleWinner(t *testing.T) {
	ctx := context.Background()
	st := New()
	item, _ := st.Content.Create(ctx, domain.ContentItem{ID: "hot", Kind: domain.KindVideo})

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := item.Clone()
			c.ApplyRating(fmt.Sprintf("u%d", i), 4, "", time.Now())
			if _, err := st.Content.Replace(ctx, c); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			} else if !errors.Is(err, repository.ErrVersionConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if winners != 1 {
		t.Fatalf("winners = %d, want 1", winners)
	}
}
