package waitlist

//go:generate mockgen -source=repository.go -destination=mocks_test.go -package=waitlist

import (
	"context"
	"time"

	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/docstore"
	"github.com/akeren/waitlist-api/pkg/filestore"
)

type Backend string

const (
	BackendFile          Backend = "file"
	BackendDocumentStore Backend = "document_store"
)

// WaitlistRepository is implemented once per backend. The service never knows
// which one it holds.
type WaitlistRepository interface {
	// Insert persists entry as-is. Duplicate ids are a conflict error.
	Insert(ctx context.Context, entry *models.WaitlistEntry) error
	// List returns entries in insertion order.
	List(ctx context.Context) ([]*models.WaitlistEntry, error)
	Count(ctx context.Context) (int64, error)
	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int64, error)
	Backend() Backend
}

// ContactCounter reports the externally managed contact count.
type ContactCounter interface {
	ContactCount(ctx context.Context) (int64, error)
}

// CountCache holds the last external contact count. Get returns ("", nil) on a miss.
type CountCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

// WaitlistSchema lists the fields the document-store validator requires.
var WaitlistSchema = []docstore.Field{
	{Name: "id", BSONType: "string"},
	{Name: "name", BSONType: "string"},
	{Name: "email", BSONType: "string"},
	{Name: "created_at", BSONType: "date"},
}

// EnsureSchema provisions the waitlist collection and its unique id index. It
// reports whether the collection was created by this call.
func EnsureSchema(ctx context.Context, store docstore.Store) bool {
	created := store.EnsureSchema(ctx, models.WaitlistCollection, WaitlistSchema)
	store.EnsureUniqueIndex(ctx, models.WaitlistCollection, "id")
	return created
}

type fileWaitlistRepository struct {
	store *filestore.Store[models.WaitlistEntry]
}

// NewFileWaitlistRepository keeps the whole waitlist in one JSON file. Every write
// rewrites the file, so it suits small lists only.
func NewFileWaitlistRepository(store *filestore.Store[models.WaitlistEntry]) WaitlistRepository {
	return &fileWaitlistRepository{store: store}
}

func (r *fileWaitlistRepository) Insert(ctx context.Context, entry *models.WaitlistEntry) error {
	return r.store.Append(ctx, *entry)
}

func (r *fileWaitlistRepository) List(ctx context.Context) ([]*models.WaitlistEntry, error) {
	records, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*models.WaitlistEntry, len(records))
	for i := range records {
		entries[i] = &records[i]
	}
	return entries, nil
}

func (r *fileWaitlistRepository) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx)
}

func (r *fileWaitlistRepository) Clear(ctx context.Context) (int64, error) {
	return r.store.Clear(ctx)
}

func (r *fileWaitlistRepository) Backend() Backend {
	return BackendFile
}

type documentWaitlistRepository struct {
	store docstore.Store
	limit int64
}

// NewDocumentWaitlistRepository lists at most limit entries; limit <= 0 uses
// docstore.DefaultFetchLimit.
func NewDocumentWaitlistRepository(store docstore.Store, limit int64) WaitlistRepository {
	if limit <= 0 {
		limit = docstore.DefaultFetchLimit
	}
	return &documentWaitlistRepository{store: store, limit: limit}
}

func (r *documentWaitlistRepository) Insert(ctx context.Context, entry *models.WaitlistEntry) error {
	return r.store.InsertOne(ctx, models.WaitlistCollection, entry)
}

func (r *documentWaitlistRepository) List(ctx context.Context) ([]*models.WaitlistEntry, error) {
	entries := []*models.WaitlistEntry{}
	if err := r.store.FindAll(ctx, models.WaitlistCollection, r.limit, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *documentWaitlistRepository) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx, models.WaitlistCollection)
}

func (r *documentWaitlistRepository) Clear(ctx context.Context) (int64, error) {
	return r.store.DeleteAll(ctx, models.WaitlistCollection)
}

func (r *documentWaitlistRepository) Backend() Backend {
	return BackendDocumentStore
}
