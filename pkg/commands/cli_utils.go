// Package commands holds the cobra commands of the eventflow CLI.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/eventflow/eventflow/modules"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/eventbus"
)

// NewUtilityCommands creates the migrate and seed commands for mods.
func NewUtilityCommands(mods ...application.Module) []*cobra.Command {
	return []*cobra.Command{
		newMigrateCmd(mods),
		newSeedCmd(mods),
	}
}

// DefaultCommands wires the utility commands to the built-in modules.
func DefaultCommands() []*cobra.Command {
	return NewUtilityCommands(modules.BuiltInModules...)
}

func connectDB(ctx context.Context) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, configuration.Use().Database.Opts)
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return pool, nil
}

// loadApp connects to the database and registers mods. The returned
// context carries the pool and the application logger.
func loadApp(ctx context.Context, mods []application.Module) (context.Context, application.Application, func(), error) {
	pool, err := connectDB(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := configuration.Use().Logger()
	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, mods...); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("load modules: %w", err)
	}
	ctx = composables.WithPool(ctx, pool)
	ctx = composables.WithLogger(ctx, logger.WithField("component", "cli"))
	return ctx, app, pool.Close, nil
}
