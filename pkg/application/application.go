package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"sort"
	"sync"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/pkg/migrations"
)

// ---- Migration manager ----

func NewMigrationManager(pool *pgxpool.Pool, logger *logrus.Logger) MigrationManager {
	return &migrationManager{pool: pool, logger: logger}
}

type migrationManager struct {
	pool    *pgxpool.Pool
	logger  *logrus.Logger
	schemas []migrations.Schema
}

func (m *migrationManager) RegisterSchema(name string, fsys fs.FS) {
	m.schemas = append(m.schemas, migrations.Schema{Name: name, FS: fsys})
}

func (m *migrationManager) runner() *migrations.Runner {
	var log *logrus.Entry
	if m.logger != nil {
		log = logrus.NewEntry(m.logger)
	}
	return migrations.NewRunner(m.pool, log)
}

func (m *migrationManager) Run(ctx context.Context) error {
	if m.pool == nil {
		return errors.New("migrations: no database pool")
	}
	_, err := m.runner().Up(ctx, m.schemas...)
	return err
}

func (m *migrationManager) Status(ctx context.Context) ([]migrations.Status, error) {
	if m.pool == nil {
		return nil, errors.New("migrations: no database pool")
	}
	return m.runner().Status(ctx, m.schemas...)
}

// ---- Application implementation ----

type ApplicationOptions struct {
	Pool   *pgxpool.Pool
	Logger *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &application{
		pool:        opts.Pool,
		logger:      logger,
		controllers: make(map[string]Controller),
		services:    make(map[reflect.Type]interface{}),
		migrations:  NewMigrationManager(opts.Pool, logger),
	}
}

// application with a dynamically extendable service registry
type application struct {
	pool        *pgxpool.Pool
	logger      *logrus.Logger
	services    map[reflect.Type]interface{}
	controllers map[string]Controller
	middleware  []mux.MiddlewareFunc
	migrations  MigrationManager

	hooksMu sync.Mutex
	hooks   []ShutdownHook
}

func (app *application) DB() *pgxpool.Pool {
	return app.pool
}

func (app *application) Logger() *logrus.Logger {
	return app.logger
}

func (app *application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

// Controllers are returned ordered by key so routes register deterministically.
func (app *application) Controllers() []Controller {
	controllers := make([]Controller, 0, len(app.controllers))
	for _, c := range app.controllers {
		controllers = append(controllers, c)
	}
	sort.Slice(controllers, func(i, j int) bool { return controllers[i].Key() < controllers[j].Key() })
	return controllers
}

func (app *application) Migrations() MigrationManager {
	return app.migrations
}

func (app *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		app.controllers[c.Key()] = c
	}
}

func (app *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}

// RegisterServices registers a new service in the application by its type
func (app *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service by its type
func (app *application) Service(service interface{}) interface{} {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]interface{} {
	return app.services
}

func (app *application) RegisterShutdownHooks(hooks ...ShutdownHook) {
	app.hooksMu.Lock()
	defer app.hooksMu.Unlock()
	app.hooks = append(app.hooks, hooks...)
}

// Shutdown runs every hook even when earlier ones fail and joins the errors.
func (app *application) Shutdown(ctx context.Context) error {
	app.hooksMu.Lock()
	hooks := app.hooks
	app.hooks = nil
	app.hooksMu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
