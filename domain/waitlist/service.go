package waitlist

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/circuitbreaker"
	"github.com/akeren/waitlist-api/pkg/emailjs"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const contactCountCacheKey = "waitlist:contacts:count"

const (
	fallbackReasonNotConfigured = "not_configured"
	fallbackReasonCircuitOpen   = "circuit_open"
	fallbackReasonRequestFailed = "request_failed"
)

var contactCountFallbacks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "waitlist_contact_count_fallback_total",
		Help: "Contact count requests answered from the local waitlist count.",
	},
	[]string{"reason"},
)

// MetricsCollectors returns the collectors this package updates.
func MetricsCollectors() []prometheus.Collector {
	return []prometheus.Collector{contactCountFallbacks}
}

type WaitlistService interface {
	// Create validates the request and persists a new entry.
	Create(ctx context.Context, req *CreateWaitlistEntryRequest) (*WaitlistEntryResponse, error)

	// List returns every stored entry, bounded by the fetch limit on the document store.
	List(ctx context.Context) ([]WaitlistEntryResponse, error)

	Count(ctx context.Context) (*CountResponse, error)

	// ClearAll removes every entry and reports how many were removed.
	ClearAll(ctx context.Context) (*DeletedResponse, error)

	// ExternalContactCount never fails because of the contact service; it degrades
	// to the local count instead.
	ExternalContactCount(ctx context.Context) (*ContactCountResponse, error)

	Backend() Backend
}

type ServiceConfig struct {
	StrictEmailValidation bool
	// ContactCountCacheTTL of zero disables caching.
	ContactCountCacheTTL time.Duration
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	contacts   ContactCounter
	cache      CountCache
	config     ServiceConfig
}

// NewWaitlistService accepts nil contacts and cache: the former always falls back
// to the local count, the latter disables caching.
func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, contacts ContactCounter, cache CountCache, config ServiceConfig) WaitlistService {
	return &waitlistService{
		logger:     logger,
		repository: repository,
		contacts:   contacts,
		cache:      cache,
		config:     config,
	}
}

func (s *waitlistService) Backend() Backend {
	return s.repository.Backend()
}

func (s *waitlistService) Create(ctx context.Context, req *CreateWaitlistEntryRequest) (*WaitlistEntryResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if req == nil {
		logger.Error("Create received empty request")
		return nil, apperrors.NewInvalidRequestError("request cannot be nil", nil)
	}

	entry, err := models.NewWaitlistEntry(req.Name, req.Email, s.config.StrictEmailValidation)
	if err != nil {
		logger.Warn("Rejected waitlist entry", "error", err)
		return nil, err
	}

	if err := s.repository.Insert(ctx, entry); err != nil {
		logger.Error("Failed to create waitlist entry", "backend", s.repository.Backend(), "error", err)
		return nil, err
	}

	logger.Info("Waitlist entry created", "id", entry.ID, "backend", s.repository.Backend())

	response := ToWaitlistEntryResponse(entry)
	return &response, nil
}

func (s *waitlistService) List(ctx context.Context) ([]WaitlistEntryResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	entries, err := s.repository.List(ctx)
	if err != nil {
		logger.Error("Failed to list waitlist entries", "backend", s.repository.Backend(), "error", err)
		return nil, err
	}

	responses := make([]WaitlistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ToWaitlistEntryResponse(entry))
	}

	return responses, nil
}

func (s *waitlistService) Count(ctx context.Context) (*CountResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	count, err := s.repository.Count(ctx)
	if err != nil {
		logger.Error("Failed to count waitlist entries", "backend", s.repository.Backend(), "error", err)
		return nil, err
	}

	return &CountResponse{Count: count}, nil
}

func (s *waitlistService) ClearAll(ctx context.Context) (*DeletedResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	deleted, err := s.repository.Clear(ctx)
	if err != nil {
		logger.Error("Failed to clear waitlist", "backend", s.repository.Backend(), "error", err)
		return nil, err
	}

	logger.Warn("Waitlist cleared", "deleted", deleted, "backend", s.repository.Backend())

	return &DeletedResponse{Deleted: deleted}, nil
}

func (s *waitlistService) ExternalContactCount(ctx context.Context) (*ContactCountResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if count, ok := s.cachedContactCount(ctx, logger); ok {
		return &ContactCountResponse{Count: count, Source: ContactCountSourceExternal}, nil
	}

	if s.contacts == nil {
		return s.fallbackContactCount(ctx, logger, fallbackReasonNotConfigured, emailjs.ErrNotConfigured)
	}

	count, err := s.contacts.ContactCount(ctx)
	if err != nil {
		return s.fallbackContactCount(ctx, logger, fallbackReason(err), err)
	}

	s.storeContactCount(ctx, logger, count)

	return &ContactCountResponse{Count: count, Source: ContactCountSourceExternal}, nil
}

func (s *waitlistService) fallbackContactCount(ctx context.Context, logger *log.Logger, reason string, cause error) (*ContactCountResponse, error) {
	contactCountFallbacks.WithLabelValues(reason).Inc()
	logger.Warn("Contact service unavailable; using local waitlist count", "reason", reason, "error", cause)

	local, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &ContactCountResponse{Count: local.Count, Source: ContactCountSourceLocal}, nil
}

func (s *waitlistService) cachedContactCount(ctx context.Context, logger *log.Logger) (int64, bool) {
	if s.cache == nil || s.config.ContactCountCacheTTL <= 0 {
		return 0, false
	}

	raw, err := s.cache.Get(ctx, contactCountCacheKey)
	if err != nil {
		logger.Warn("Failed to read cached contact count", "error", err)
		return 0, false
	}
	if raw == "" {
		return 0, false
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Warn("Ignoring malformed cached contact count", "value", raw)
		return 0, false
	}

	return count, true
}

func (s *waitlistService) storeContactCount(ctx context.Context, logger *log.Logger, count int64) {
	if s.cache == nil || s.config.ContactCountCacheTTL <= 0 {
		return
	}

	if err := s.cache.Set(ctx, contactCountCacheKey, strconv.FormatInt(count, 10), s.config.ContactCountCacheTTL); err != nil {
		logger.Warn("Failed to cache contact count", "error", err)
	}
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, emailjs.ErrNotConfigured):
		return fallbackReasonNotConfigured
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return fallbackReasonCircuitOpen
	default:
		return fallbackReasonRequestFailed
	}
}
