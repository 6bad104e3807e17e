package status

import (
	"context"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
)

const pingStatusConnected = "connected"

type StatusService interface {
	// Available is false when no document store is configured.
	Available() bool
	Record(ctx context.Context, req *CreateStatusCheckRequest) (*StatusCheckResponse, error)
	ListAll(ctx context.Context) ([]StatusCheckResponse, error)
	Ping(ctx context.Context) (*PingResponse, error)
}

type statusService struct {
	logger     *log.Logger
	repository StatusRepository
}

// NewStatusService accepts a nil repository: status checks have no file fallback,
// so every call then fails with an unavailable error.
func NewStatusService(logger *log.Logger, repository StatusRepository) StatusService {
	return &statusService{logger: logger, repository: repository}
}

const msgDatabaseNotConfigured = "Database not configured"

func errDatabaseNotConfigured() error {
	return apperrors.NewUnavailableError(msgDatabaseNotConfigured, nil)
}

func (s *statusService) Available() bool {
	return s.repository != nil
}

func (s *statusService) Record(ctx context.Context, req *CreateStatusCheckRequest) (*StatusCheckResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if s.repository == nil {
		return nil, errDatabaseNotConfigured()
	}

	if req == nil {
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	check, err := models.NewStatusCheck(req.ClientName)
	if err != nil {
		logger.Warn("Rejected status check", "error", err)
		return nil, err
	}

	if err := s.repository.Insert(ctx, check); err != nil {
		logger.Error("Failed to record status check", "error", err)
		return nil, err
	}

	response := ToStatusCheckResponse(check)
	return &response, nil
}

func (s *statusService) ListAll(ctx context.Context) ([]StatusCheckResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if s.repository == nil {
		return nil, errDatabaseNotConfigured()
	}

	checks, err := s.repository.List(ctx)
	if err != nil {
		logger.Error("Failed to list status checks", "error", err)
		return nil, err
	}

	responses := make([]StatusCheckResponse, 0, len(checks))
	for _, check := range checks {
		responses = append(responses, ToStatusCheckResponse(check))
	}

	return responses, nil
}

func (s *statusService) Ping(ctx context.Context) (*PingResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if s.repository == nil {
		return nil, errDatabaseNotConfigured()
	}

	names, err := s.repository.CollectionNames(ctx)
	if err != nil {
		logger.Error("Document store ping failed", "error", err)
		return nil, err
	}

	return &PingResponse{Status: pingStatusConnected, Collections: names}, nil
}
