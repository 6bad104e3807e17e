package domain

import (
	"context"

	"github.com/akeren/waitlist-api/config"
	"github.com/akeren/waitlist-api/domain/monitoring"
	"github.com/akeren/waitlist-api/domain/status"
	"github.com/akeren/waitlist-api/domain/waitlist"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/pkg/docstore"
	"github.com/akeren/waitlist-api/pkg/emailjs"
)

// ProvisionSchemas creates the validated collections when a document store is
// configured. Failures are logged by the store and never stop startup.
func ProvisionSchemas(ctx context.Context, store docstore.Store, logger *log.Logger) {
	if store == nil {
		return
	}

	createdStatus := status.EnsureSchema(ctx, store)
	createdWaitlist := waitlist.EnsureSchema(ctx, store)

	logger.Info("Document store schemas provisioned",
		"status_checks_created", createdStatus,
		"waitlist_created", createdWaitlist,
	)
}

// NewWaitlistFactory wires the waitlist domain from the loaded configuration. The
// CLI uses it too so both processes choose the same backend.
func NewWaitlistFactory(appConfig *config.ApplicationConfig) waitlist.WaitlistServiceFactory {
	deps := waitlist.Dependencies{
		DocumentStore: appConfig.DocumentStore,
		WaitlistFile:  appConfig.Config.WaitlistFile,
		FetchLimit:    appConfig.Config.FetchLimit,
		Contacts:      emailjs.NewClient(appConfig.EmailJS, nil),
		Config: waitlist.ServiceConfig{
			StrictEmailValidation: appConfig.Config.StrictEmailValidation,
			ContactCountCacheTTL:  appConfig.Config.ContactCountCacheTTL,
		},
	}
	if appConfig.Cache != nil {
		deps.Cache = appConfig.Cache
	}

	return waitlist.NewWaitlistServiceFactory(deps, appConfig.Logger)
}

func SetupCoreDomain(ctx context.Context, appConfig *config.ApplicationConfig) {
	ProvisionSchemas(ctx, appConfig.DocumentStore, appConfig.Logger)

	waitlistFactory := NewWaitlistFactory(appConfig)
	backend := waitlistFactory.CreateService().Backend()

	var database monitoring.Pinger
	if appConfig.DocumentStore != nil {
		database = appConfig.DocumentStore
	}
	var cache monitoring.Pinger
	if appConfig.Cache != nil {
		cache = appConfig.Cache
	}

	rs := appConfig.RouterService
	rs.RegisterCollectors(waitlist.MetricsCollectors()...)

	rs.MountController(monitoring.NewMonitoringControllerFactory(database, cache, string(backend), appConfig.Logger).CreateController())
	rs.MountController(status.NewStatusServiceFactory(appConfig.DocumentStore, appConfig.Config.FetchLimit, appConfig.Logger).CreateController())
	rs.MountController(waitlistFactory.CreateController())
}
