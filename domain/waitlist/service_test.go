package waitlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/circuitbreaker"
	"github.com/akeren/waitlist-api/pkg/emailjs"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMockRepository(ctrl *gomock.Controller) *MockWaitlistRepository {
	repo := NewMockWaitlistRepository(ctrl)
	repo.EXPECT().Backend().Return(BackendFile).AnyTimes()
	return repo
}

func TestWaitlistService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := newMockRepository(ctrl)
	service := NewWaitlistService(log.NewNopLogger(), mockRepo, nil, nil, ServiceConfig{StrictEmailValidation: true})

	t.Run("successful creation", func(t *testing.T) {
		var stored *models.WaitlistEntry
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry *models.WaitlistEntry) error {
				stored = entry
				return nil
			})

		result, err := service.Create(context.Background(), &CreateWaitlistEntryRequest{
			Name:  "  Ada  ",
			Email: " Ada@Example.com ",
		})

		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.NotEmpty(t, result.ID)
		assert.Equal(t, stored.ID, result.ID)
		assert.Equal(t, "Ada", result.Name)
		assert.Equal(t, "ada@example.com", result.Email)
		assert.NotEmpty(t, result.CreatedAt)
	})

	t.Run("blank name is a validation error", func(t *testing.T) {
		result, err := service.Create(context.Background(), &CreateWaitlistEntryRequest{
			Name:  "   ",
			Email: "ada@example.com",
		})

		assert.Nil(t, result)
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("malformed email is a validation error", func(t *testing.T) {
		result, err := service.Create(context.Background(), &CreateWaitlistEntryRequest{
			Name:  "Ada",
			Email: "not-an-email",
		})

		assert.Nil(t, result)
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("nil request is invalid", func(t *testing.T) {
		_, err := service.Create(context.Background(), nil)

		assert.Equal(t, apperrors.ErrorTypeInvalidRequest, apperrors.GetErrorType(err))
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(apperrors.NewDatabaseError("database error", nil))

		result, err := service.Create(context.Background(), &CreateWaitlistEntryRequest{
			Name:  "Ada",
			Email: "ada@example.com",
		})

		assert.Nil(t, result)
		assert.True(t, apperrors.IsDatabaseError(err))
	})

	t.Run("duplicate id is a conflict", func(t *testing.T) {
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(apperrors.NewConflictError("record already exists", nil))

		_, err := service.Create(context.Background(), &CreateWaitlistEntryRequest{
			Name:  "Ada",
			Email: "ada@example.com",
		})

		assert.True(t, apperrors.IsConflictError(err))
	})
}

func TestWaitlistService_Create_LenientEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := newMockRepository(ctrl)
	service := NewWaitlistService(log.NewNopLogger(), mockRepo, nil, nil, ServiceConfig{StrictEmailValidation: false})

	mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

	result, err := service.Create(context.Background(), &CreateWaitlistEntryRequest{
		Name:  "Ada",
		Email: "not-an-email",
	})

	require.NoError(t, err)
	assert.Equal(t, "not-an-email", result.Email)
}

func TestWaitlistService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := newMockRepository(ctrl)
	service := NewWaitlistService(log.NewNopLogger(), mockRepo, nil, nil, ServiceConfig{})

	createdAt := time.Date(2024, 5, 1, 10, 30, 0, 123000000, time.UTC)

	t.Run("maps entries in order", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any()).Return([]*models.WaitlistEntry{
			{ID: "1", Name: "Ada", Email: "ada@example.com", CreatedAt: createdAt},
			{ID: "2", Name: "Grace", Email: "grace@example.com", CreatedAt: createdAt},
		}, nil)

		result, err := service.List(context.Background())

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, "1", result[0].ID)
		assert.Equal(t, "2", result[1].ID)
		assert.Equal(t, "2024-05-01T10:30:00.123Z", result[0].CreatedAt)
	})

	t.Run("empty backend returns empty slice", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any()).Return(nil, nil)

		result, err := service.List(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, result)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any()).Return(nil, apperrors.NewDatabaseError("unable to fetch records", nil))

		_, err := service.List(context.Background())

		assert.True(t, apperrors.IsDatabaseError(err))
	})
}

func TestWaitlistService_CountAndClear(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := newMockRepository(ctrl)
	service := NewWaitlistService(log.NewNopLogger(), mockRepo, nil, nil, ServiceConfig{})

	mockRepo.EXPECT().Count(gomock.Any()).Return(int64(3), nil)
	count, err := service.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Count)

	mockRepo.EXPECT().Clear(gomock.Any()).Return(int64(3), nil)
	deleted, err := service.ClearAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted.Deleted)

	mockRepo.EXPECT().Clear(gomock.Any()).Return(int64(0), apperrors.NewDatabaseError("unable to delete records", nil))
	_, err = service.ClearAll(context.Background())
	assert.True(t, apperrors.IsDatabaseError(err))
}

func TestWaitlistService_ExternalContactCount(t *testing.T) {
	ttl := time.Minute

	t.Run("uses external count and caches it", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := newMockRepository(ctrl)
		contacts := NewMockContactCounter(ctrl)
		cache := NewMockCountCache(ctrl)
		service := NewWaitlistService(log.NewNopLogger(), mockRepo, contacts, cache, ServiceConfig{ContactCountCacheTTL: ttl})

		cache.EXPECT().Get(gomock.Any(), contactCountCacheKey).Return("", nil)
		contacts.EXPECT().ContactCount(gomock.Any()).Return(int64(120), nil)
		cache.EXPECT().Set(gomock.Any(), contactCountCacheKey, "120", ttl).Return(nil)

		result, err := service.ExternalContactCount(context.Background())

		require.NoError(t, err)
		assert.Equal(t, &ContactCountResponse{Count: 120, Source: ContactCountSourceExternal}, result)
	})

	t.Run("cache hit skips the contact service", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := newMockRepository(ctrl)
		contacts := NewMockContactCounter(ctrl)
		cache := NewMockCountCache(ctrl)
		service := NewWaitlistService(log.NewNopLogger(), mockRepo, contacts, cache, ServiceConfig{ContactCountCacheTTL: ttl})

		cache.EXPECT().Get(gomock.Any(), contactCountCacheKey).Return("77", nil)

		result, err := service.ExternalContactCount(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(77), result.Count)
		assert.Equal(t, ContactCountSourceExternal, result.Source)
	})

	t.Run("cache failure still reaches the contact service", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := newMockRepository(ctrl)
		contacts := NewMockContactCounter(ctrl)
		cache := NewMockCountCache(ctrl)
		service := NewWaitlistService(log.NewNopLogger(), mockRepo, contacts, cache, ServiceConfig{ContactCountCacheTTL: ttl})

		cache.EXPECT().Get(gomock.Any(), contactCountCacheKey).Return("", errors.New("connection refused"))
		contacts.EXPECT().ContactCount(gomock.Any()).Return(int64(5), nil)
		cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

		result, err := service.ExternalContactCount(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(5), result.Count)
	})

	t.Run("contact service failure falls back to local count", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := newMockRepository(ctrl)
		contacts := NewMockContactCounter(ctrl)
		service := NewWaitlistService(log.NewNopLogger(), mockRepo, contacts, nil, ServiceConfig{ContactCountCacheTTL: ttl})

		contacts.EXPECT().ContactCount(gomock.Any()).
			Return(int64(0), apperrors.NewExternalServiceError("contact service request failed", errors.New("status 500")))
		mockRepo.EXPECT().Count(gomock.Any()).Return(int64(4), nil)

		result, err := service.ExternalContactCount(context.Background())

		require.NoError(t, err)
		assert.Equal(t, &ContactCountResponse{Count: 4, Source: ContactCountSourceLocal}, result)
	})

	t.Run("no contact service falls back to local count", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := newMockRepository(ctrl)
		service := NewWaitlistService(log.NewNopLogger(), mockRepo, nil, nil, ServiceConfig{})

		mockRepo.EXPECT().Count(gomock.Any()).Return(int64(2), nil)

		result, err := service.ExternalContactCount(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Count)
		assert.Equal(t, ContactCountSourceLocal, result.Source)
	})

	t.Run("local count failure is surfaced", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := newMockRepository(ctrl)
		service := NewWaitlistService(log.NewNopLogger(), mockRepo, nil, nil, ServiceConfig{})

		mockRepo.EXPECT().Count(gomock.Any()).Return(int64(0), apperrors.NewDatabaseError("unable to count records", nil))

		_, err := service.ExternalContactCount(context.Background())

		assert.True(t, apperrors.IsDatabaseError(err))
	})
}

func TestFallbackReason(t *testing.T) {
	assert.Equal(t, fallbackReasonNotConfigured,
		fallbackReason(apperrors.NewExternalServiceError("contact service is not configured", emailjs.ErrNotConfigured)))
	assert.Equal(t, fallbackReasonCircuitOpen,
		fallbackReason(apperrors.NewExternalServiceError("contact service circuit is open", circuitbreaker.ErrCircuitOpen)))
	assert.Equal(t, fallbackReasonRequestFailed,
		fallbackReason(errors.New("dial tcp: connection refused")))
}
