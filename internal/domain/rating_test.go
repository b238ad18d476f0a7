package domain

import (
	"math"
	"testing"
	"time"
)

func TestApplyRating_Sequence(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	item := ContentItem{ID: "video-1", Kind: KindVideo}

	steps := []struct {
		user         string
		value        float64
		wantInserted bool
		wantAverage  float64
		wantCount    int
	}{
		{"user-a", 4, true, 4.0, 1},
		{"user-b", 2, true, 3.0, 2},
		{"user-a", 5, false, 3.5, 2},
	}

	for i, step := range steps {
		now = now.Add(time.Minute)
		entry, inserted := item.ApplyRating(step.user, step.value, "", now)
		if inserted != step.wantInserted {
			t.Fatalf("step %d: inserted = %v, want %v", i, inserted, step.wantInserted)
		}
		if entry.Value != step.value {
			t.Fatalf("step %d: entry value = %v, want %v", i, entry.Value, step.value)
		}
		if item.AverageRating != step.wantAverage {
			t.Fatalf("step %d: average = %v, want %v", i, item.AverageRating, step.wantAverage)
		}
		if item.RatingCount != step.wantCount || len(item.Ratings) != step.wantCount {
			t.Fatalf("step %d: count = %d (len %d), want %d", i, item.RatingCount, len(item.Ratings), step.wantCount)
		}
	}

	first, ok := item.RatingByUser("user-a")
	if !ok {
		t.Fatalf("rating for user-a missing")
	}
	if !first.UpdatedAt.After(first.CreatedAt) {
		t.Fatalf("update should refresh timestamp: created %v updated %v", first.CreatedAt, first.UpdatedAt)
	}
}

func TestApplyRating_CommentOverwrite(t *testing.T) {
	now := time.Now().UTC()
	item := ContentItem{}

	item.ApplyRating("u", 3, "solid intro", now)
	entry, _ := item.ApplyRating("u", 4, "   ", now)
	if entry.Comment != "solid intro" {
		t.Fatalf("blank comment overwrote existing: %q", entry.Comment)
	}

	entry, _ = item.ApplyRating("u", 4, "even better on rewatch", now)
	if entry.Comment != "even better on rewatch" {
		t.Fatalf("comment = %q, want overwrite", entry.Comment)
	}
}

func TestValidRating(t *testing.T) {
	valid := []float64{1, 1.5, 3, 4.25, 5}
	for _, v := range valid {
		if !ValidRating(v) {
			t.Fatalf("rating %v should be valid", v)
		}
	}
	invalid := []float64{0, 0.99, 5.01, 6, -1, math.NaN(), math.Inf(1)}
	for _, v := range invalid {
		if ValidRating(v) {
			t.Fatalf("rating %v should be invalid", v)
		}
	}
}

func TestMeanRating(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{4}, 4},
		{"round-up", []float64{4, 4, 3, 4}, 3.8},
		{"round-down", []float64{5, 1, 1}, 2.3},
		{"thirds", []float64{1, 2, 2}, 1.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]RatingEntry, 0, len(tt.values))
			for _, v := range tt.values {
				entries = append(entries, RatingEntry{Value: v})
			}
			if got := MeanRating(entries); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("MeanRating(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestRoundToOneDecimal(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"zero", 0, 0},
		{"round-up", 3.75, 3.8},
		{"round-down", 2.74, 2.7},
		{"exact", 4.5, 4.5},
		{"large", 199.94, 199.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundToOneDecimal(tt.value)
			if math.Abs(got-tt.want) > 0.0001 {
				t.Fatalf("RoundToOneDecimal(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestContentItemClone(t *testing.T) {
	item := ContentItem{
		Lessons: []Lesson{{ContentID: "a"}},
		Book:    &BookDetails{Authors: []string{"Knuth"}},
	}
	item.ApplyRating("u", 5, "", time.Now())

	clone := item.Clone()
	clone.Ratings[0].Value = 1
	clone.Lessons[0].ContentID = "b"
	clone.Book.Authors[0] = "Someone"

	if item.Ratings[0].Value != 5 || item.Lessons[0].ContentID != "a" || item.Book.Authors[0] != "Knuth" {
		t.Fatalf("clone aliased original: %+v", item)
	}
}
