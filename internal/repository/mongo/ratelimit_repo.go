package mongo

import (
	"alcyxob/fitplan/internal/domain"
	"alcyxob/fitplan/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const rateLimitCollectionName = "rate_limits"

// mongoRateLimitRepository implements repository.RateLimitRepository
type mongoRateLimitRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoRateLimitRepository creates a new rate limit repository.
func NewMongoRateLimitRepository(db *mongo.Database) repository.RateLimitRepository {
	return &mongoRateLimitRepository{
		client:     db.Client(),
		collection: db.Collection(rateLimitCollectionName),
	}
}

// Update reads, mutates, and writes the record for (userID, operation) inside
// one snapshot transaction. Two concurrent writers on the same document get a
// write conflict and the driver retries the loser with a fresh read.
func (r *mongoRateLimitRepository) Update(ctx context.Context, userID primitive.ObjectID, operation string, mutate repository.RateLimitMutator) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	filter := bson.M{"userId": userID, "operation": operation}

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		var rec domain.RateLimitRecord
		err := r.collection.FindOne(sessCtx, filter).Decode(&rec)
		if err != nil {
			if !errors.Is(err, mongo.ErrNoDocuments) {
				return nil, err
			}
			rec = domain.RateLimitRecord{UserID: userID, Operation: operation}
		}

		if err := mutate(&rec); err != nil {
			return nil, err
		}

		if rec.ID.IsZero() {
			rec.ID = primitive.NewObjectID()
		}
		_, err = r.collection.ReplaceOne(sessCtx, filter, rec, options.Replace().SetUpsert(true))
		return nil, err
	}, txnOpts)
	return err
}

// EnsureRateLimitIndexes creates the unique (userId, operation) index.
// Without it two first calls could upsert two records for the same key.
func EnsureRateLimitIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "operation", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
