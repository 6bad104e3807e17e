package monitoring

import (
	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

type DefaultMonitoringControllerFactory struct {
	database Pinger
	cache    Pinger
	backend  string
	logger   *log.Logger
}

func NewMonitoringControllerFactory(database Pinger, cache Pinger, backend string, logger *log.Logger) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{
		database: database,
		cache:    cache,
		backend:  backend,
		logger:   logger,
	}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.database, f.cache, f.backend, f.logger)
}
