package status

//go:generate mockgen -source=repository.go -destination=mocks_test.go -package=status

import (
	"context"

	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/docstore"
)

type StatusRepository interface {
	Insert(ctx context.Context, check *models.StatusCheck) error
	List(ctx context.Context) ([]*models.StatusCheck, error)
	// CollectionNames doubles as the connectivity check.
	CollectionNames(ctx context.Context) ([]string, error)
}

var StatusCheckSchema = []docstore.Field{
	{Name: "id", BSONType: "string"},
	{Name: "client_name", BSONType: "string"},
	{Name: "timestamp", BSONType: "date"},
}

// EnsureSchema provisions the status_checks collection and its unique id index.
func EnsureSchema(ctx context.Context, store docstore.Store) bool {
	created := store.EnsureSchema(ctx, models.StatusCheckCollection, StatusCheckSchema)
	store.EnsureUniqueIndex(ctx, models.StatusCheckCollection, "id")
	return created
}

type statusRepository struct {
	store docstore.Store
	limit int64
}

func NewStatusRepository(store docstore.Store, limit int64) StatusRepository {
	if limit <= 0 {
		limit = docstore.DefaultFetchLimit
	}
	return &statusRepository{store: store, limit: limit}
}

func (r *statusRepository) Insert(ctx context.Context, check *models.StatusCheck) error {
	return r.store.InsertOne(ctx, models.StatusCheckCollection, check)
}

func (r *statusRepository) List(ctx context.Context) ([]*models.StatusCheck, error) {
	checks := []*models.StatusCheck{}
	if err := r.store.FindAll(ctx, models.StatusCheckCollection, r.limit, &checks); err != nil {
		return nil, err
	}
	return checks, nil
}

func (r *statusRepository) CollectionNames(ctx context.Context) ([]string, error) {
	return r.store.ListCollectionNames(ctx)
}
