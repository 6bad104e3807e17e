package status

import (
	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/docstore"
)

type StatusServiceFactory interface {
	CreateService() StatusService
	CreateController() *router.RESTController
}

type DefaultStatusServiceFactory struct {
	store      docstore.Store
	fetchLimit int64
	logger     *log.Logger
}

// NewStatusServiceFactory accepts a nil store; the resulting service reports the
// database as unavailable.
func NewStatusServiceFactory(store docstore.Store, fetchLimit int64, logger *log.Logger) StatusServiceFactory {
	return &DefaultStatusServiceFactory{store: store, fetchLimit: fetchLimit, logger: logger}
}

func (f *DefaultStatusServiceFactory) CreateService() StatusService {
	if f.store == nil {
		return NewStatusService(f.logger, nil)
	}
	return NewStatusService(f.logger, NewStatusRepository(f.store, f.fetchLimit))
}

func (f *DefaultStatusServiceFactory) CreateController() *router.RESTController {
	return NewStatusController(f.CreateService())
}
