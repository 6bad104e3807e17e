// Package docstore wraps MongoDB with the handful of operations the API needs.
package docstore

import (
	"context"
	"sort"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/akeren/waitlist-api/pkg/retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer scope for document store spans.
const InstrumentationName = "github.com/akeren/waitlist-api/pkg/docstore"

// DefaultFetchLimit caps FindAll. Larger collections are truncated, not rejected.
const DefaultFetchLimit int64 = 1000

// Field is one required property of a collection validator.
type Field struct {
	Name     string
	BSONType string
}

type Store interface {
	// InsertOne stores doc. A unique-index violation is returned as a conflict error.
	InsertOne(ctx context.Context, collection string, doc any) error
	// FindAll decodes up to limit documents, in natural order, into out (a pointer to a slice).
	FindAll(ctx context.Context, collection string, limit int64, out any) error
	Count(ctx context.Context, collection string) (int64, error)
	// DeleteAll removes every document and returns how many were removed.
	DeleteAll(ctx context.Context, collection string) (int64, error)
	ListCollectionNames(ctx context.Context) ([]string, error)
	// EnsureSchema creates collection with a validator requiring fields, unless it
	// already exists. Failures are logged, never returned. It reports whether it
	// created the collection.
	EnsureSchema(ctx context.Context, collection string, fields []Field) bool
	// EnsureUniqueIndex is idempotent; failures are logged, never returned.
	EnsureUniqueIndex(ctx context.Context, collection, field string) bool
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *log.Logger
	tracer trace.Tracer
}

// ConnectConfig controls the startup connection attempt.
type ConnectConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	Retry          *retry.Config
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Connect dials MongoDB and pings it, retrying with backoff. This is the only place
// the package retries; request-path operations fail fast.
func Connect(ctx context.Context, cfg ConnectConfig, logger *log.Logger) (Store, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, apperrors.NewDatabaseError("unable to create document store client", err)
	}

	ping := func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		err := client.Ping(pingCtx, readpref.Primary())
		if err != nil {
			logger.Warn("Document store ping failed", "database", cfg.Database, "error", err)
		}
		return err
	}

	if err := retry.NewExponentialBackoff(cfg.Retry).Execute(ctx, ping); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperrors.NewDatabaseError("document store is unreachable", err)
	}

	return newMongoStore(client, client.Database(cfg.Database), logger, cfg.TracerProvider), nil
}

// NewMongoStore wraps an existing client. The store takes ownership of client and
// disconnects it on Close.
func NewMongoStore(client *mongo.Client, db *mongo.Database, logger *log.Logger) Store {
	return newMongoStore(client, db, logger, nil)
}

func newMongoStore(client *mongo.Client, db *mongo.Database, logger *log.Logger, tp trace.TracerProvider) *mongoStore {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &mongoStore{
		client: client,
		db:     db,
		logger: logger,
		tracer: tp.Tracer(InstrumentationName),
	}
}

func (s *mongoStore) InsertOne(ctx context.Context, collection string, doc any) (err error) {
	ctx, end := s.span(ctx, "InsertOne", collection)
	defer func() { end(err) }()

	if _, err = s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logFailure(ctx, "InsertOne", collection, err)
			return apperrors.NewConflictError("a record with this id already exists", err)
		}
		s.logFailure(ctx, "InsertOne", collection, err)
		return apperrors.NewDatabaseError("unable to store record", err)
	}

	return nil
}

func (s *mongoStore) FindAll(ctx context.Context, collection string, limit int64, out any) (err error) {
	ctx, end := s.span(ctx, "FindAll", collection)
	defer func() { end(err) }()

	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	opts := options.Find().
		SetLimit(limit).
		SetProjection(bson.D{{Key: "_id", Value: 0}})

	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		s.logFailure(ctx, "FindAll", collection, err)
		return apperrors.NewDatabaseError("unable to fetch records", err)
	}

	if err = cursor.All(ctx, out); err != nil {
		s.logFailure(ctx, "FindAll", collection, err)
		return apperrors.NewDatabaseError("unable to decode records", err)
	}

	return nil
}

func (s *mongoStore) Count(ctx context.Context, collection string) (n int64, err error) {
	ctx, end := s.span(ctx, "Count", collection)
	defer func() { end(err) }()

	n, err = s.db.Collection(collection).CountDocuments(ctx, bson.D{})
	if err != nil {
		s.logFailure(ctx, "Count", collection, err)
		return 0, apperrors.NewDatabaseError("unable to count records", err)
	}

	return n, nil
}

func (s *mongoStore) DeleteAll(ctx context.Context, collection string) (n int64, err error) {
	ctx, end := s.span(ctx, "DeleteAll", collection)
	defer func() { end(err) }()

	result, err := s.db.Collection(collection).DeleteMany(ctx, bson.D{})
	if err != nil {
		s.logFailure(ctx, "DeleteAll", collection, err)
		return 0, apperrors.NewDatabaseError("unable to delete records", err)
	}

	return result.DeletedCount, nil
}

func (s *mongoStore) ListCollectionNames(ctx context.Context) (names []string, err error) {
	ctx, end := s.span(ctx, "ListCollectionNames", "")
	defer func() { end(err) }()

	names, err = s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		s.logFailure(ctx, "ListCollectionNames", "", err)
		return nil, apperrors.NewDatabaseError("unable to list collections", err)
	}

	sort.Strings(names)
	return names, nil
}

func (s *mongoStore) EnsureSchema(ctx context.Context, collection string, fields []Field) bool {
	ctx, end := s.span(ctx, "EnsureSchema", collection)
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	existing, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collection}})
	if err != nil {
		end(err)
		logger.Error("Schema check failed; continuing without validator", "collection", collection, "error", err)
		return false
	}
	if len(existing) > 0 {
		end(nil)
		logger.Debug("Collection already exists; schema left unchanged", "collection", collection)
		return false
	}

	opts := options.CreateCollection().SetValidator(jsonSchemaValidator(fields))
	if err := s.db.CreateCollection(ctx, collection, opts); err != nil {
		end(err)
		// A concurrent creator wins the race; serving traffic does not depend on the validator.
		logger.Error("Failed to create collection with validator", "collection", collection, "error", err)
		return false
	}

	end(nil)
	logger.Info("Collection created with schema validator", "collection", collection, "fields", len(fields))
	return true
}

func (s *mongoStore) EnsureUniqueIndex(ctx context.Context, collection, field string) bool {
	ctx, end := s.span(ctx, "EnsureUniqueIndex", collection)
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	model := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(field + "_unique"),
	}

	if _, err := s.db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		end(err)
		logger.Error("Failed to ensure unique index", "collection", collection, "field", field, "error", err)
		return false
	}

	end(nil)
	return true
}

func (s *mongoStore) Ping(ctx context.Context) (err error) {
	ctx, end := s.span(ctx, "Ping", "")
	defer func() { end(err) }()

	if err = s.client.Ping(ctx, readpref.Primary()); err != nil {
		return apperrors.NewDatabaseError("document store is unreachable", err)
	}
	return nil
}

func (s *mongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.Error("Failed to disconnect document store", "error", err)
		return err
	}

	s.logger.Info("Document store connection closed")
	return nil
}

func jsonSchemaValidator(fields []Field) bson.M {
	required := make([]string, 0, len(fields))
	properties := bson.M{}

	for _, f := range fields {
		required = append(required, f.Name)
		properties[f.Name] = bson.M{"bsonType": f.BSONType}
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   required,
			"properties": properties,
		},
	}
}

func (s *mongoStore) span(ctx context.Context, operation, collection string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "docstore."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.name", s.db.Name()),
			attribute.String("db.mongodb.collection", collection),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func (s *mongoStore) logFailure(ctx context.Context, operation, collection string, err error) {
	log.GetLoggerInstanceFromContext(ctx, s.logger).Error("Document store operation failed",
		"operation", operation,
		"collection", collection,
		"error", err,
	)
}
