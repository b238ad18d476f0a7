// Package mongodb stores content and enrollment documents in MongoDB collections.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	contentCollection    = "content_items"
	enrollmentCollection = "enrollments"
)

// Options configures the MongoDB connection.
type Options struct {
	URI      string
	Database string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Store owns the client and exposes the collection-backed repositories.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	logger  *zap.Logger
	timeout time.Duration

	Content     *ContentRepository
	Enrollments *EnrollmentsRepository
}

// Connect dials MongoDB, verifies the primary is reachable and ensures indexes exist.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.URI == "" {
		return nil, errors.New("mongodb: uri is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongodb: database is required")
	}

	connCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.Timeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.Timeout)
	}
	client, err := mongo.Connect(connCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(opts.Database)
	s := &Store{
		client:      client,
		db:          db,
		logger:      logger,
		timeout:     opts.Timeout,
		Content:     &ContentRepository{coll: db.Collection(contentCollection)},
		Enrollments: &EnrollmentsRepository{coll: db.Collection(enrollmentCollection), content: db.Collection(contentCollection)},
	}
	if err := s.ensureIndexes(connCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongodb: connection established", zap.String("database", opts.Database))
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(contentCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
		{Keys: bson.D{{Key: "instructor_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create content indexes: %w", err)
	}
	_, err = s.db.Collection(enrollmentCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "course_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "course_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create enrollment indexes: %w", err)
	}
	return nil
}

// HealthCheck pings the primary.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("mongodb store not initialized")
	}
	checkCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.client.Ping(checkCtx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	s.logger.Info("mongodb: disconnecting")
	return s.client.Disconnect(ctx)
}

// Drop removes both collections. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// BSON datetimes carry millisecond precision.
func bsonTime(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Truncate(time.Millisecond)
}
