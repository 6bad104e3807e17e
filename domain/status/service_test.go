package status

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestStatusService_Unconfigured(t *testing.T) {
	service := NewStatusService(log.NewNopLogger(), nil)
	ctx := context.Background()

	_, err := service.Record(ctx, &CreateStatusCheckRequest{ClientName: "uptime-monitor"})
	assert.True(t, apperrors.IsUnavailableError(err))

	_, err = service.ListAll(ctx)
	assert.True(t, apperrors.IsUnavailableError(err))

	_, err = service.Ping(ctx)
	assert.True(t, apperrors.IsUnavailableError(err))
	assert.Equal(t, "Database not configured", apperrors.GetHumanReadableMessage(err))
}

func TestStatusService_Record(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := NewMockStatusRepository(ctrl)
	service := NewStatusService(log.NewNopLogger(), mockRepo)

	t.Run("successful record", func(t *testing.T) {
		mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

		result, err := service.Record(context.Background(), &CreateStatusCheckRequest{ClientName: " uptime-monitor "})

		require.NoError(t, err)
		assert.NotEmpty(t, result.ID)
		assert.Equal(t, "uptime-monitor", result.ClientName)
		assert.NotEmpty(t, result.Timestamp)
	})

	t.Run("blank client name", func(t *testing.T) {
		_, err := service.Record(context.Background(), &CreateStatusCheckRequest{ClientName: "  "})

		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(apperrors.NewDatabaseError("unable to store record", nil))

		_, err := service.Record(context.Background(), &CreateStatusCheckRequest{ClientName: "uptime-monitor"})

		assert.True(t, apperrors.IsDatabaseError(err))
	})
}

func TestStatusService_ListAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := NewMockStatusRepository(ctrl)
	service := NewStatusService(log.NewNopLogger(), mockRepo)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mockRepo.EXPECT().List(gomock.Any()).Return([]*models.StatusCheck{
		{ID: "a", ClientName: "one", Timestamp: ts},
		{ID: "b", ClientName: "two", Timestamp: ts},
	}, nil)

	result, err := service.ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "one", result[0].ClientName)
	assert.Equal(t, "2024-01-02T03:04:05.000Z", result[0].Timestamp)
}

func TestStatusService_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := NewMockStatusRepository(ctrl)
	service := NewStatusService(log.NewNopLogger(), mockRepo)

	mockRepo.EXPECT().CollectionNames(gomock.Any()).Return([]string{"status_checks", "waitlist"}, nil)

	result, err := service.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &PingResponse{Status: "connected", Collections: []string{"status_checks", "waitlist"}}, result)

	mockRepo.EXPECT().CollectionNames(gomock.Any()).Return(nil, apperrors.NewDatabaseError("unable to list collections", errors.New("no reachable servers")))

	_, err = service.Ping(context.Background())
	assert.True(t, apperrors.IsDatabaseError(err))
}

func TestStatusController_UnconfiguredReturns503(t *testing.T) {
	rs := router.CreateRouterService(log.NewNopLogger(), nil, &router.RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	rs.MountController(NewStatusServiceFactory(nil, 0, log.NewNopLogger()).CreateController())

	for _, path := range []string{"/api/status", "/api/db/ping"} {
		w := httptest.NewRecorder()
		rs.GetEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, w.Body.String(), `"error":"UNAVAILABLE"`, path)
	}
}

func TestStatusController_UnconfiguredPostSkipsValidation(t *testing.T) {
	rs := router.CreateRouterService(log.NewNopLogger(), nil, &router.RouterConfig{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
	})
	rs.MountController(NewStatusServiceFactory(nil, 0, log.NewNopLogger()).CreateController())

	for name, body := range map[string]string{
		"empty object": `{}`,
		"malformed":    `{"client_name":`,
		"valid":        `{"client_name":"uptime-monitor"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/status", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			rs.GetEngine().ServeHTTP(w, req)

			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"UNAVAILABLE"`)
			assert.Contains(t, w.Body.String(), `"message":"Database not configured"`)
		})
	}
}

func TestStatusService_Available(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	assert.False(t, NewStatusService(log.NewNopLogger(), nil).Available())
	assert.True(t, NewStatusService(log.NewNopLogger(), NewMockStatusRepository(ctrl)).Available())
}
