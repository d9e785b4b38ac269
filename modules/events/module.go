package events

import (
	"embed"
	"io/fs"

	"github.com/eventflow/eventflow/modules/events/infrastructure/persistence"
	"github.com/eventflow/eventflow/modules/events/permissions"
	"github.com/eventflow/eventflow/modules/events/presentation/controllers"
	"github.com/eventflow/eventflow/modules/events/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/authz"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/imaging"
	"github.com/eventflow/eventflow/pkg/opaqueid"
)

//go:embed infrastructure/persistence/schema/*.sql
var MigrationFiles embed.FS

// NewModule returns the events module. It relies on services registered by
// the core module, so core has to be registered first.
func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	schema, err := fs.Sub(MigrationFiles, "infrastructure/persistence/schema")
	if err != nil {
		return err
	}
	app.RegisterMigrations(schema)

	ids := app.Service(opaqueid.Generator{}).(*opaqueid.Generator)
	images := app.Service(imaging.Store{}).(*imaging.Store)
	policy := permissions.NewEventPolicy(app.Service(authz.Service{}).(*authz.Service))

	eventRepo := persistence.NewEventRepository()
	photoRepo := persistence.NewPhotoRepository()
	rsvpRepo := persistence.NewRSVPRepository()

	plans := services.NewPlanService(eventRepo)
	photos := services.NewPhotoService(eventRepo, photoRepo, images, policy, composables.InTenantTx)
	app.RegisterServices(
		policy,
		plans,
		photos,
		services.NewEventService(eventRepo, rsvpRepo, plans, photos, policy, ids, composables.InTenantTx),
		services.NewRSVPService(rsvpRepo, composables.InTenantTx, configuration.Use().TermsURL),
	)

	app.RegisterControllers(
		controllers.NewPublicEventsController(app),
		controllers.NewEventsController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "events"
}
