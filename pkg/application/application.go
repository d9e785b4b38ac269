// Package application holds the module registry: services, controllers,
// middleware, migrations and seeders contributed by each module.
package application

import (
	"context"
	"fmt"
	"io/fs"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/pkg/eventbus"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Register(app Application) error
	Name() string
}

type SeedFunc func(ctx context.Context, app Application) error

type Seeder interface {
	Seed(ctx context.Context, app Application) error
	Register(seedFuncs ...SeedFunc)
}

type Application interface {
	DB() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Logger() *logrus.Logger
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	Migrations() []fs.FS
	Seeder() Seeder
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	PrependMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterMigrations(fsys ...fs.FS)
	RegisterServices(services ...any)
	Service(service any) any
	Services() map[reflect.Type]any
}

// ---- Seeder implementation ----

func NewSeeder() Seeder {
	return &seeder{}
}

type seeder struct {
	seedFuncs []SeedFunc
}

func (s *seeder) Seed(ctx context.Context, app Application) error {
	for i, seedFunc := range s.seedFuncs {
		app.Logger().Infof("running seed step %d/%d", i+1, len(s.seedFuncs))
		if err := seedFunc(ctx, app); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) Register(seedFuncs ...SeedFunc) {
	s.seedFuncs = append(s.seedFuncs, seedFuncs...)
}

// ---- Application implementation ----

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	bus := opts.EventBus
	if bus == nil {
		bus = eventbus.NewEventPublisher(logger)
	}
	return &application{
		pool:           opts.Pool,
		eventPublisher: bus,
		logger:         logger,
		controllerKeys: make(map[string]int),
		services:       make(map[reflect.Type]any),
		seeder:         NewSeeder(),
	}
}

// application with a dynamically extendable service registry
type application struct {
	pool           *pgxpool.Pool
	eventPublisher eventbus.EventBus
	logger         *logrus.Logger
	services       map[reflect.Type]any
	controllers    []Controller
	controllerKeys map[string]int
	middleware     []mux.MiddlewareFunc
	migrations     []fs.FS
	seeder         Seeder
}

func (app *application) DB() *pgxpool.Pool {
	return app.pool
}

func (app *application) EventPublisher() eventbus.EventBus {
	return app.eventPublisher
}

func (app *application) Logger() *logrus.Logger {
	return app.logger
}

// Controllers returns controllers in registration order. Routes are matched
// in that order too.
func (app *application) Controllers() []Controller {
	out := make([]Controller, len(app.controllers))
	copy(out, app.controllers)
	return out
}

func (app *application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

func (app *application) Migrations() []fs.FS {
	return app.migrations
}

func (app *application) Seeder() Seeder {
	return app.seeder
}

// RegisterControllers replaces an earlier controller with the same key.
func (app *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		if i, ok := app.controllerKeys[c.Key()]; ok {
			app.controllers[i] = c
			continue
		}
		app.controllerKeys[c.Key()] = len(app.controllers)
		app.controllers = append(app.controllers, c)
	}
}

func (app *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}

// PrependMiddleware puts middleware ahead of everything registered so far.
func (app *application) PrependMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(append([]mux.MiddlewareFunc{}, middleware...), app.middleware...)
}

func (app *application) RegisterMigrations(fsys ...fs.FS) {
	app.migrations = append(app.migrations, fsys...)
}

// RegisterServices registers a new service in the application by its type
func (app *application) RegisterServices(services ...any) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service by its type
func (app *application) Service(service any) any {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]any {
	return app.services
}
