package provider

import (
	"errors"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/modules/provider/infrastructure/persistence"
	"github.com/jacksonlee411/provider-portal/modules/provider/infrastructure/persistence/migrations"
	"github.com/jacksonlee411/provider-portal/modules/provider/presentation/controllers"
	"github.com/jacksonlee411/provider-portal/modules/provider/services"
	"github.com/jacksonlee411/provider-portal/pkg/application"
	"github.com/jacksonlee411/provider-portal/pkg/logging"
	"github.com/jacksonlee411/provider-portal/pkg/runlock"
)

const SchemaName = "provider"

type ModuleOptions struct {
	Source             services.SnapshotSource
	Jobs               services.Submitter
	Locker             runlock.Locker
	Metrics            *services.SyncMetrics
	ApplyDeactivations bool
	TriggerLimiter     mux.MiddlewareFunc
	// HTTP controllers are skipped when false, for the CLI.
	WithControllers bool
	Logger          *logrus.Entry
}

func NewModule(opts ModuleOptions) application.Module {
	return &Module{opts: opts}
}

type Module struct {
	opts ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	if m.opts.Source == nil {
		return errors.New("provider module: snapshot source is required")
	}
	if m.opts.Jobs == nil {
		return errors.New("provider module: sync lane is required")
	}
	log := m.opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	app.Migrations().RegisterSchema(SchemaName, migrations.FS)

	firms := persistence.NewFirmRepository()
	offices := persistence.NewOfficeRepository()
	tx := persistence.NewPgTransactor(app.DB())

	reconciler := services.NewReconciler(m.opts.Source, firms, offices, tx, services.ReconcilerOptions{
		ApplyDeactivations: m.opts.ApplyDeactivations,
		Logger:             log,
	})
	app.RegisterServices(
		reconciler,
		services.NewSyncService(reconciler, reconciler, firms, offices, tx, m.opts.Jobs, services.SyncServiceOptions{
			Locker:  m.opts.Locker,
			Metrics: m.opts.Metrics,
			Logger:  log,
		}),
	)

	if m.opts.WithControllers {
		app.RegisterControllers(
			controllers.NewSyncAPIController(app, controllers.SyncAPIOptions{TriggerLimiter: m.opts.TriggerLimiter}),
			controllers.NewHealthController(),
		)
	}
	return nil
}

func (m *Module) Name() string {
	return "provider"
}
