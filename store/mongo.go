package store

import (
	"context"
	"errors"
	"fmt"

	"smartpen/pkg/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Mongo is a Collection backed by a MongoDB collection. The driver-assigned
// _id is the internal key; domain types carry no _id field, so it is dropped
// on decode.
type Mongo[T any] struct {
	coll collection
}

// collection is the part of *mongo.Collection the store calls.
type collection interface {
	Name() string
	InsertOne(ctx context.Context, doc any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	FindOneAndUpdate(ctx context.Context, filter any, update any, opts ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
}

func NewMongo[T any](coll *mongo.Collection) *Mongo[T] {
	return &Mongo[T]{coll: coll}
}

// EnsureUniqueIndexes creates a unique single-field index for every named
// field. It is safe to call on every start.
func EnsureUniqueIndexes(ctx context.Context, coll *mongo.Collection, fields ...string) error {
	models := make([]mongo.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: f, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(f + "_unique"),
		})
	}
	if len(models) == 0 {
		return nil
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func (m *Mongo[T]) Insert(ctx context.Context, doc T) (Key, error) {
	res, err := m.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		logger.Sugar.Errorf("Failed to insert into %s: %v", m.coll.Name(), err)
		return "", fmt.Errorf("mongo error: %w", err)
	}
	if oid, ok := res.InsertedID.(bson.ObjectID); ok {
		return Key(oid.Hex()), nil
	}
	return Key(fmt.Sprint(res.InsertedID)), nil
}

func (m *Mongo[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var out T
	if err := validateFilter(f, false); err != nil {
		return out, err
	}
	err := m.coll.FindOne(ctx, mongoFilter(f)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to query %s: %v", m.coll.Name(), err)
		return out, fmt.Errorf("mongo error: %w", err)
	}
	return out, nil
}

func (m *Mongo[T]) Find(ctx context.Context, f Filter) ([]T, error) {
	if err := validateFilter(f, false); err != nil {
		return nil, err
	}
	cur, err := m.coll.Find(ctx, mongoFilter(f), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		logger.Sugar.Errorf("Failed to query %s: %v", m.coll.Name(), err)
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo error: %w", err)
	}
	return out, nil
}

func (m *Mongo[T]) UpdateOne(ctx context.Context, f Filter, set Fields) (T, error) {
	var out T
	if err := validateFilter(f, true); err != nil {
		return out, err
	}
	if err := validateFields(set); err != nil {
		return out, err
	}
	update := bson.D{{Key: "$set", Value: bson.M(set)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := m.coll.FindOneAndUpdate(ctx, mongoFilter(f), update, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, ErrNotFound
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return out, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		logger.Sugar.Errorf("Failed to update %s: %v", m.coll.Name(), err)
		return out, fmt.Errorf("mongo error: %w", err)
	}
	return out, nil
}

func (m *Mongo[T]) DeleteOne(ctx context.Context, f Filter) error {
	if err := validateFilter(f, true); err != nil {
		return err
	}
	res, err := m.coll.DeleteOne(ctx, mongoFilter(f))
	if err != nil {
		logger.Sugar.Errorf("Failed to delete from %s: %v", m.coll.Name(), err)
		return fmt.Errorf("mongo error: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mongoFilter(f Filter) bson.D {
	d := bson.D{}
	for _, k := range sortedKeys(f) {
		d = append(d, bson.E{Key: k, Value: f[k]})
	}
	return d
}
