package modules

import (
	"github.com/eventflow/eventflow/modules/core"
	"github.com/eventflow/eventflow/modules/events"
	"github.com/eventflow/eventflow/pkg/application"
)

// BuiltInModules are registered in order. events depends on core's services.
var BuiltInModules = []application.Module{
	core.NewModule(nil),
	events.NewModule(),
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
