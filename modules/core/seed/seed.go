// Package seed creates workspaces and their staff for local setups.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence"
	"github.com/eventflow/eventflow/modules/core/services"
	"github.com/eventflow/eventflow/pkg/application"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/opaqueid"
	"github.com/eventflow/eventflow/pkg/slug"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

type Person struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Workspace struct {
	Name   string   `yaml:"name"`
	Plan   string   `yaml:"plan"`
	People []Person `yaml:"people"`
}

type Data struct {
	Workspaces []Workspace `yaml:"workspaces"`
}

// Default is a single free workspace with one admin.
func Default() *Data {
	return &Data{Workspaces: []Workspace{{
		Name: "Default",
		Plan: string(tenant.PlanFree),
		People: []Person{{
			Name:     "Admin",
			Email:    "admin@eventflow.local",
			Password: "password",
			Role:     string(membership.RoleAdmin),
		}},
	}}}
}

// Load parses a seed file. Unknown keys are rejected.
func Load(r io.Reader) (*Data, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var data Data
	if err := dec.Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	for i, ws := range data.Workspaces {
		if ws.Name == "" {
			return nil, fmt.Errorf("seed: workspace #%d has no name", i+1)
		}
		for _, p := range ws.People {
			if _, err := membership.ParseRole(p.Role); err != nil {
				return nil, fmt.Errorf("seed: %s in %q: %w", p.Email, ws.Name, err)
			}
		}
	}
	return &data, nil
}

// Workspaces returns a SeedFunc that creates every workspace in data that
// does not exist yet, then attaches its people. Rerunning it is a no-op.
func Workspaces(data *Data) application.SeedFunc {
	return func(ctx context.Context, app application.Application) error {
		conf := configuration.Use()
		tenants := persistence.NewTenantRepository()
		users := persistence.NewUserRepository()
		memberships := persistence.NewMembershipRepository()
		tenantService := services.NewTenantService(tenants, nil, composables.InTenantTx)
		ids, err := opaqueid.New(opaqueid.Options{
			Alphabet:  conf.OpaqueID.Alphabet,
			MinLength: conf.OpaqueID.MinLength,
		})
		if err != nil {
			return err
		}
		logger := app.Logger()

		for _, ws := range data.Workspaces {
			t, err := tenants.GetBySlug(ctx, slug.Make(ws.Name))
			switch {
			case errors.Is(err, tenant.ErrNotFound):
				t, err = tenantService.Create(ctx, ws.Name,
					tenant.WithPlan(tenant.NormalizePlan(ws.Plan)),
					tenant.WithStatus(tenant.StatusActive))
				if err != nil {
					return err
				}
				logger.WithField("slug", t.Slug()).Info("seed: workspace created")
			case err != nil:
				return err
			}

			err = composables.InTenantTx(ctx, func(txCtx context.Context) error {
				for _, p := range ws.People {
					if err := person(txCtx, users, memberships, ids, t, p); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("seed %q: %w", ws.Name, err)
			}
		}
		return nil
	}
}

func person(
	ctx context.Context,
	users user.Repository,
	memberships membership.Repository,
	ids *opaqueid.Generator,
	t *tenant.Tenant,
	p Person,
) error {
	email, err := user.NewEmail(p.Email)
	if err != nil {
		return err
	}
	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		now := time.Now()
		u = user.New(p.Name, email, user.WithEmailVerifiedAt(&now))
		if err := u.SetPassword(p.Password); err != nil {
			return err
		}
		if err := ids.Assign(u); err != nil {
			return err
		}
		u, err = users.Create(ctx, u)
	}
	if err != nil {
		return err
	}

	scope := tenancy.ForTenant(t.ID())
	if _, err := memberships.Get(ctx, scope, u.ID()); err == nil {
		return nil
	} else if !errors.Is(err, membership.ErrNotFound) {
		return err
	}
	role, err := membership.ParseRole(p.Role)
	if err != nil {
		return err
	}
	return memberships.Create(ctx, scope, membership.New(u.ID(), role))
}
