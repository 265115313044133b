package annotations

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one document per lab in a collection, keyed by lab
// name. Useful when a document database already backs the deployment.
type MongoStore struct {
	coll *mongo.Collection
	lab  string
}

// mongoDoc is the stored shape: the lab key plus the embedded set.
type mongoDoc struct {
	Lab string `bson:"lab"`
	Set Set    `bson:"set"`
}

// NewMongoStore creates a store over the given collection.
func NewMongoStore(coll *mongo.Collection, lab string) *MongoStore {
	return &MongoStore{coll: coll, lab: lab}
}

func (s *MongoStore) Load(ctx context.Context) (*Set, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"lab": s.lab}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return &Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	return &doc.Set, nil
}

func (s *MongoStore) Save(ctx context.Context, set *Set) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"lab": s.lab},
		mongoDoc{Lab: s.lab, Set: *set},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo replace: %w", err)
	}
	return nil
}

// Close is a no-op; the mongo client's lifecycle belongs to the caller.
func (s *MongoStore) Close() error { return nil }
