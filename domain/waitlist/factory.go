package waitlist

import (
	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/docstore"
	"github.com/akeren/waitlist-api/pkg/filestore"
)

type WaitlistServiceFactory interface {
	CreateRepository() WaitlistRepository
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

type Dependencies struct {
	// DocumentStore selects the document backend when non-nil; otherwise WaitlistFile is used.
	DocumentStore docstore.Store
	WaitlistFile  string
	FetchLimit    int64
	Contacts      ContactCounter
	Cache         CountCache
	Config        ServiceConfig
}

type DefaultWaitlistServiceFactory struct {
	deps    Dependencies
	logger  *log.Logger
	service WaitlistService
}

func NewWaitlistServiceFactory(deps Dependencies, logger *log.Logger) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{
		deps:   deps,
		logger: logger,
	}
}

// CreateRepository picks the backend once. Callers reuse the result for the life
// of the process.
func (f *DefaultWaitlistServiceFactory) CreateRepository() WaitlistRepository {
	if f.deps.DocumentStore != nil {
		f.logger.Info("Waitlist backend selected", "backend", BackendDocumentStore, "fetch_limit", f.deps.FetchLimit)
		return NewDocumentWaitlistRepository(f.deps.DocumentStore, f.deps.FetchLimit)
	}

	f.logger.Info("Waitlist backend selected", "backend", BackendFile, "path", f.deps.WaitlistFile)
	return NewFileWaitlistRepository(filestore.New[models.WaitlistEntry](f.deps.WaitlistFile, f.logger))
}

// CreateService builds the service on first use and returns the same instance
// afterwards, so the controller and health report agree on the backend.
func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	if f.service == nil {
		f.service = NewWaitlistService(f.logger, f.CreateRepository(), f.deps.Contacts, f.deps.Cache, f.deps.Config)
	}
	return f.service
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.CreateService(), f.logger)
}
