package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/domain/entities/tenant"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/constants"
	"github.com/eventflow/eventflow/pkg/opaqueid"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/session"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthService struct {
	users       user.Repository
	memberships membership.Repository
	tenants     *TenantService
	ids         *opaqueid.Generator
	inTx        composables.TxFunc
}

func NewAuthService(
	users user.Repository,
	memberships membership.Repository,
	tenants *TenantService,
	ids *opaqueid.Generator,
	inTx composables.TxFunc,
) *AuthService {
	return &AuthService{
		users:       users,
		memberships: memberships,
		tenants:     tenants,
		ids:         ids,
		inTx:        inTx,
	}
}

// Register creates the user, a "<name> Workspace" tenant on the free plan
// and an admin membership in one transaction, then signs the user in with
// the new workspace selected.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*user.User, *tenant.Tenant, error) {
	email, err := user.NewEmail(in.Email)
	if err != nil {
		return nil, nil, err
	}

	var (
		createdUser   *user.User
		createdTenant *tenant.Tenant
	)
	err = repo.RetryOnUnique(ctx, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			u := user.New(in.Name, email, user.WithEmailVerifiedAt(timePtr(time.Now())))
			if err := u.SetPassword(in.Password); err != nil {
				return err
			}
			if err := s.ids.Assign(u); err != nil {
				return err
			}
			var err error
			createdUser, err = s.users.Create(txCtx, u)
			if err != nil {
				return err
			}
			createdTenant, err = s.tenants.create(txCtx, fmt.Sprintf("%s Workspace", createdUser.Name()),
				tenant.WithPlan(tenant.PlanFree),
				tenant.WithStatus(tenant.StatusActive),
			)
			if err != nil {
				return err
			}
			return s.memberships.Create(txCtx, tenancy.ForTenant(createdTenant.ID()),
				membership.New(createdUser.ID(), membership.RoleAdmin))
		})
	}, persistence.TenantSlugConstraint, persistence.UserHashIDConstraint)
	if repo.IsUniqueViolation(err, persistence.UserEmailConstraint) {
		return nil, nil, ErrEmailTaken
	}
	if err != nil {
		return nil, nil, err
	}

	if err := s.signIn(ctx, createdUser); err != nil {
		return nil, nil, err
	}
	if tc := tenancy.UseContext(ctx); tc != nil {
		if err := tc.Set(ctx, createdTenant); err != nil {
			return nil, nil, err
		}
	}
	return createdUser, createdTenant, nil
}

// Login checks the credentials and stores the user id in the session.
func (s *AuthService) Login(ctx context.Context, rawEmail, password string) (*user.User, error) {
	email, err := user.NewEmail(rawEmail)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if err := s.signIn(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Logout drops the whole session, the current tenant included.
func (s *AuthService) Logout(ctx context.Context) error {
	if tc := tenancy.UseContext(ctx); tc != nil {
		if err := tc.Clear(ctx); err != nil {
			return err
		}
	}
	sess, err := session.UseSession(ctx)
	if err != nil {
		return err
	}
	return sess.Invalidate(ctx)
}

// UserFromSession returns the signed-in user or nil.
func (s *AuthService) UserFromSession(ctx context.Context) (*user.User, error) {
	sess, err := session.UseSession(ctx)
	if err != nil {
		return nil, nil
	}
	raw, ok, err := sess.Get(ctx, constants.SessionUserIDKey)
	if err != nil || !ok {
		return nil, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, nil
	}
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, user.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// signIn moves the visitor to a fresh session before storing the user id, so
// nothing from the anonymous session (a selected tenant included) carries over.
func (s *AuthService) signIn(ctx context.Context, u *user.User) error {
	sess, err := session.UseSession(ctx)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(ctx); err != nil {
		return err
	}
	if tc := tenancy.UseContext(ctx); tc != nil {
		if err := tc.Clear(ctx); err != nil {
			return err
		}
	}
	return sess.Put(ctx, constants.SessionUserIDKey, strconv.FormatInt(u.ID(), 10))
}

func timePtr(t time.Time) *time.Time {
	return &t
}
