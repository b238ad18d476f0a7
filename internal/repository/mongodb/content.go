package mongodb

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/repository"
)

// ContentRepository persists content documents in a single collection.
type ContentRepository struct {
	coll *mongo.Collection
}

func (r *ContentRepository) Create(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	item.Version = 1
	item.CreatedAt = bsonTime(item.CreatedAt)
	item.UpdatedAt = item.CreatedAt
	if item.Ratings == nil {
		item.Ratings = []domain.RatingEntry{}
	}
	if _, err := r.coll.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ContentItem{}, repository.ErrDuplicate
		}
		return domain.ContentItem{}, err
	}
	return item, nil
}

func (r *ContentRepository) Get(ctx context.Context, id string) (domain.ContentItem, error) {
	var item domain.ContentItem
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ContentItem{}, repository.ErrNotFound
		}
		return domain.ContentItem{}, err
	}
	return item, nil
}

// Replace swaps the whole document when _id and version both match.
func (r *ContentRepository) Replace(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	expected := item.Version
	item.Version = expected + 1
	item.UpdatedAt = bsonTime(item.UpdatedAt)

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": item.ID, "version": expected}, item)
	if err != nil {
		return domain.ContentItem{}, err
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": item.ID})
		if err != nil {
			return domain.ContentItem{}, err
		}
		if n == 0 {
			return domain.ContentItem{}, repository.ErrNotFound
		}
		return domain.ContentItem{}, repository.ErrVersionConflict
	}
	return item, nil
}

func (r *ContentRepository) List(ctx context.Context, filters repository.ContentListFilters) (repository.ContentListResult, error) {
	filters.Normalize()

	and := bson.A{}
	if filters.Kind != nil {
		and = append(and, bson.M{"kind": string(*filters.Kind)})
	}
	if filters.InstructorID != nil && strings.TrimSpace(*filters.InstructorID) != "" {
		and = append(and, bson.M{"instructor_id": strings.TrimSpace(*filters.InstructorID)})
	}
	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		pattern := regexp.QuoteMeta(strings.TrimSpace(*filters.Query))
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}})
	}
	if filters.Cursor != nil {
		at := filters.Cursor.CreatedAt.UTC()
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"created_at": bson.M{"$lt": at}},
			bson.M{"created_at": at, "_id": bson.M{"$lt": filters.Cursor.ID}},
		}})
	}
	filter := bson.M{}
	if len(and) > 0 {
		filter = bson.M{"$and": and}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(filters.Limit))
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return repository.ContentListResult{}, err
	}
	items := make([]domain.ContentItem, 0, filters.Limit)
	if err := cur.All(ctx, &items); err != nil {
		return repository.ContentListResult{}, err
	}

	next, err := repository.NextPageCursor(items, filters.Limit)
	if err != nil {
		return repository.ContentListResult{}, err
	}
	return repository.ContentListResult{Items: items, NextCursor: next}, nil
}
