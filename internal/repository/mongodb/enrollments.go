package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Clark-Hu/learnhub/internal/domain"
	"github.com/Clark-Hu/learnhub/internal/repository"
)

// EnrollmentsRepository persists enrollments; (user_id, course_id) is unique.
type EnrollmentsRepository struct {
	coll    *mongo.Collection
	content *mongo.Collection
}

func (r *EnrollmentsRepository) Create(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	n, err := r.content.CountDocuments(ctx, bson.M{"_id": e.CourseID})
	if err != nil {
		return domain.Enrollment{}, err
	}
	if n == 0 {
		return domain.Enrollment{}, repository.ErrNotFound
	}

	e.Version = 1
	e.CreatedAt = bsonTime(e.CreatedAt)
	e.UpdatedAt = e.CreatedAt
	if e.Lessons == nil {
		e.Lessons = []domain.LessonProgress{}
	}
	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Enrollment{}, repository.ErrDuplicate
		}
		return domain.Enrollment{}, err
	}
	return e, nil
}

func (r *EnrollmentsRepository) Get(ctx context.Context, userID, courseID string) (domain.Enrollment, error) {
	var e domain.Enrollment
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "course_id": courseID}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Enrollment{}, repository.ErrNotFound
		}
		return domain.Enrollment{}, err
	}
	return e, nil
}

func (r *EnrollmentsRepository) Replace(ctx context.Context, e domain.Enrollment) (domain.Enrollment, error) {
	expected := e.Version
	e.Version = expected + 1
	e.UpdatedAt = bsonTime(e.UpdatedAt)

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": e.ID, "version": expected}, e)
	if err != nil {
		return domain.Enrollment{}, err
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": e.ID})
		if err != nil {
			return domain.Enrollment{}, err
		}
		if n == 0 {
			return domain.Enrollment{}, repository.ErrNotFound
		}
		return domain.Enrollment{}, repository.ErrVersionConflict
	}
	return e, nil
}

func (r *EnrollmentsRepository) Delete(ctx context.Context, userID, courseID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"user_id": userID, "course_id": courseID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *EnrollmentsRepository) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *EnrollmentsRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.Enrollment, error) {
	return r.find(ctx, bson.M{"course_id": courseID})
}

func (r *EnrollmentsRepository) find(ctx context.Context, filter bson.M) ([]domain.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	results := make([]domain.Enrollment, 0)
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
