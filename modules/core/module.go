package core

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"github.com/eventflow/eventflow/modules/core/handlers"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence"
	"github.com/eventflow/eventflow/modules/core/permissions"
	"github.com/eventflow/eventflow/modules/core/presentation/controllers"
	"github.com/eventflow/eventflow/modules/core/seed"
	"github.com/eventflow/eventflow/modules/core/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/authz"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/imaging"
	"github.com/eventflow/eventflow/pkg/middleware"
	"github.com/eventflow/eventflow/pkg/opaqueid"
	"github.com/eventflow/eventflow/pkg/session"
	"github.com/eventflow/eventflow/pkg/throttle"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

type ModuleOptions struct {
	// Storage holds uploaded files. Defaults to UPLOADS_PATH on disk.
	Storage afero.Fs
	// SessionStore defaults to the store selected by SESSION_STORE.
	SessionStore session.Store
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	schema, err := fs.Sub(MigrationFiles, "infrastructure/persistence/schema")
	if err != nil {
		return err
	}
	app.RegisterMigrations(schema)
	app.Seeder().Register(seed.Workspaces(seed.Default()))

	storage := m.options.Storage
	if storage == nil {
		storage = afero.NewBasePathFs(afero.NewOsFs(), conf.Uploads.Path)
	}
	store, invites, err := m.sessionStack(conf)
	if err != nil {
		return err
	}
	ids, err := opaqueid.New(opaqueid.Options{
		Alphabet:  conf.OpaqueID.Alphabet,
		MinLength: conf.OpaqueID.MinLength,
	})
	if err != nil {
		return err
	}
	authzService, err := authz.NewService(authz.ParseMode(conf.Authz.Mode), app.Logger())
	if err != nil {
		return err
	}
	images := imaging.NewStore(storage, conf.Uploads.MaxSize)

	tenantRepo := persistence.NewTenantRepository()
	userRepo := persistence.NewUserRepository()
	membershipRepo := persistence.NewMembershipRepository()

	tenantService := services.NewTenantService(tenantRepo, images, composables.InTenantTx)
	authService := services.NewAuthService(userRepo, membershipRepo, tenantService, ids, composables.InTenantTx)
	app.RegisterServices(
		authzService,
		ids,
		images,
		tenantService,
		authService,
		services.NewWorkspaceService(tenantRepo, membershipRepo),
		services.NewUserService(
			userRepo,
			membershipRepo,
			permissions.NewUserPolicy(authzService),
			ids,
			invites,
			app.EventPublisher(),
			composables.InTenantTx,
		),
		permissions.NewWorkspacePolicy(authzService),
	)

	handlers.RegisterInviteHandler(app.EventPublisher(), tenantRepo, conf.Origin, app.Logger())

	app.RegisterMiddleware(
		middleware.WithSession(store, tenantService, middleware.SessionOptions{
			CookieName: conf.Session.CookieKey,
			TTL:        conf.Session.Duration,
			Secure:     conf.GoAppEnvironment == configuration.Production,
		}),
		middleware.ProvideUser(authService),
	)

	app.RegisterControllers(
		controllers.NewHealthController(app),
		controllers.NewAuthController(app),
		controllers.NewWorkspaceController(app),
		controllers.NewUsersController(app),
		controllers.NewSettingsController(app),
		&uploadsController{prefix: conf.Uploads.URLPrefix, fs: storage},
	)
	return nil
}

func (m *Module) sessionStack(conf *configuration.Configuration) (session.Store, *throttle.Throttle, error) {
	if conf.Session.Store != "redis" {
		store := m.options.SessionStore
		if store == nil {
			store = session.NewMemoryStore(conf.Session.Duration)
		}
		return store, throttle.NewMemory(1, conf.Invites.ResendInterval), nil
	}
	client, err := session.NewRedisClient(conf.Session.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	invites, err := throttle.NewRedis(client, 1, conf.Invites.ResendInterval)
	if err != nil {
		return nil, nil, err
	}
	store := m.options.SessionStore
	if store == nil {
		store = session.NewRedisStore(client, conf.Session.Duration)
	}
	return store, invites, nil
}

func (m *Module) Name() string {
	return "core"
}

// uploadsController serves stored images under UPLOADS_URL.
type uploadsController struct {
	prefix string
	fs     afero.Fs
}

func (c *uploadsController) Key() string {
	return c.prefix
}

func (c *uploadsController) Register(r *mux.Router) {
	files := http.FileServer(afero.NewHttpFs(c.fs).Dir("/"))
	r.PathPrefix(c.prefix + "/").Handler(http.StripPrefix(c.prefix, files)).Methods(http.MethodGet, http.MethodHead)
}
