package application

import (
	"context"
	"io/fs"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/pkg/migrations"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Name() string
	Register(app Application) error
}

// ShutdownHook runs once when the process stops, in registration order
// reversed.
type ShutdownHook func(ctx context.Context) error

type MigrationManager interface {
	RegisterSchema(name string, fsys fs.FS)
	Run(ctx context.Context) error
	Status(ctx context.Context) ([]migrations.Status, error)
}

// Application is the registry modules use to contribute services, routes and
// schemas.
type Application interface {
	DB() *pgxpool.Pool
	Logger() *logrus.Logger
	Migrations() MigrationManager
	Middleware() []mux.MiddlewareFunc
	Controllers() []Controller
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
	RegisterShutdownHooks(hooks ...ShutdownHook)
	Shutdown(ctx context.Context) error
}
