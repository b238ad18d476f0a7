package domain

import (
	"math"
	"strings"
	"time"
)

// Bounds for a single rating value.
const (
	MinRating = 1
	MaxRating = 5
)

// RatingEntry represents a single user's rating for a content item.
type RatingEntry struct {
	UserID    string    `json:"userId" bson:"user_id"`
	Value     float64   `json:"rating" bson:"rating"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// RatingSummary provides average and count for a content item's ratings.
type RatingSummary struct {
	Average float64 `json:"averageRating"`
	Count   int     `json:"ratingCount"`
}

// ValidRating reports whether value is a finite number in [MinRating, MaxRating].
func ValidRating(value float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	return value >= MinRating && value <= MaxRating
}

// ApplyRating inserts or updates userID's entry and recomputes the derived fields.
// An empty comment leaves an existing comment untouched. The returned flag is true
// when a new entry was appended.
func (c *ContentItem) ApplyRating(userID string, value float64, comment string, now time.Time) (RatingEntry, bool) {
	comment = strings.TrimSpace(comment)

	idx := c.ratingIndex(userID)
	inserted := idx < 0
	if inserted {
		c.Ratings = append(c.Ratings, RatingEntry{
			UserID:    userID,
			Value:     value,
			Comment:   comment,
			CreatedAt: now,
			UpdatedAt: now,
		})
		idx = len(c.Ratings) - 1
	} else {
		entry := &c.Ratings[idx]
		entry.Value = value
		if comment != "" {
			entry.Comment = comment
		}
		entry.UpdatedAt = now
	}

	c.recomputeRatings()
	return c.Ratings[idx], inserted
}

// RatingByUser returns userID's entry, if any.
func (c *ContentItem) RatingByUser(userID string) (RatingEntry, bool) {
	if idx := c.ratingIndex(userID); idx >= 0 {
		return c.Ratings[idx], true
	}
	return RatingEntry{}, false
}

// Summary returns the stored aggregate.
func (c *ContentItem) Summary() RatingSummary {
	return RatingSummary{Average: c.AverageRating, Count: c.RatingCount}
}

// linear scan; lists stay small (one entry per rater)
func (c *ContentItem) ratingIndex(userID string) int {
	for i := range c.Ratings {
		if c.Ratings[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (c *ContentItem) recomputeRatings() {
	c.RatingCount = len(c.Ratings)
	c.AverageRating = MeanRating(c.Ratings)
}

// MeanRating is the arithmetic mean of all entry values rounded to one decimal, or 0.
func MeanRating(entries []RatingEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Value
	}
	return RoundToOneDecimal(sum / float64(len(entries)))
}

// RoundToOneDecimal rounds half away from zero to one decimal place.
func RoundToOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10
}
