package learning

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/metrics"
)

// MaxCommentLength bounds a rating comment in characters.
const MaxCommentLength = 2000

// RatingInput is one user's rating of one content item.
type RatingInput struct {
	ContentID string
	UserID    string
	Value     float64
	Comment   string
	// Kind, when set, requires the content to be of that kind.
	Kind domain.ContentKind
}

// RatingResult reports what SubmitRating did.
type RatingResult struct {
	Inserted bool
	Entry    domain.RatingEntry
	Summary  domain.RatingSummary
	Kind     domain.ContentKind
}

// SubmitRating upserts the caller's rating into the item's embedded list and
// stores the recomputed average and count in the same conditional write.
func (s *Service) SubmitRating(ctx context.Context, in RatingInput) (RatingResult, error) {
	contentID, err := parseID("content id", in.ContentID)
	if err != nil {
		return RatingResult{}, err
	}
	userID, err := parseID("user id", in.UserID)
	if err != nil {
		return RatingResult{}, err
	}

	var result RatingResult
	err = s.withRetry(ctx, "content", func() error {
		item, err := s.loadContent(ctx, contentID)
		if err != nil {
			return err
		}
		if in.Kind != "" && item.Kind != in.Kind {
			return fmt.Errorf("%s %s: %w", in.Kind, contentID, ErrNotFound)
		}
		if !domain.ValidRating(in.Value) {
			return fmt.Errorf("rating %v outside [%d,%d]: %w", in.Value, domain.MinRating, domain.MaxRating, ErrInvalidRating)
		}
		if utf8.RuneCountInString(strings.TrimSpace(in.Comment)) > MaxCommentLength {
			return fmt.Errorf("comment longer than %d characters: %w", MaxCommentLength, ErrInvalidRating)
		}

		now := s.now()
		entry, inserted := item.ApplyRating(userID, in.Value, in.Comment, now)
		item.UpdatedAt = now

		stored, err := s.content.Replace(ctx, item)
		if err != nil {
			return mapStoreErr("content "+contentID, err)
		}
		result = RatingResult{
			Inserted: inserted,
			Entry:    entry,
			Summary:  stored.Summary(),
			Kind:     stored.Kind,
		}
		return nil
	})
	if err != nil {
		kind := string(in.Kind)
		if kind == "" {
			kind = "unknown"
		}
		s.metrics.ObserveRating(kind, metrics.OutcomeError)
		return RatingResult{}, err
	}

	outcome := metrics.OutcomeUpdate
	if result.Inserted {
		outcome = metrics.OutcomeInsert
	}
	s.metrics.ObserveRating(string(result.Kind), outcome)
	s.logger.Info("learning: rating stored",
		zap.String("content_id", contentID),
		zap.String("user_id", userID),
		zap.String("outcome", outcome),
		zap.Float64("average", result.Summary.Average),
		zap.Int("count", result.Summary.Count))
	return result, nil
}

// RatingSummary returns the stored average and count for a content item.
func (s *Service) RatingSummary(ctx context.Context, contentID string) (domain.RatingSummary, error) {
	id, err := parseID("content id", contentID)
	if err != nil {
		return domain.RatingSummary{}, err
	}
	item, err := s.loadContent(ctx, id)
	if err != nil {
		return domain.RatingSummary{}, err
	}
	return item.Summary(), nil
}

// ListRatings returns the embedded rating entries of a content item.
func (s *Service) ListRatings(ctx context.Context, contentID string) ([]domain.RatingEntry, error) {
	id, err := parseID("content id", contentID)
	if err != nil {
		return nil, err
	}
	item, err := s.loadContent(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Ratings == nil {
		return []domain.RatingEntry{}, nil
	}
	return item.Ratings, nil
}
