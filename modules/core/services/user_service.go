package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eventflow/eventflow/modules/core/domain/aggregates/user"
	"github.com/eventflow/eventflow/modules/core/domain/entities/membership"
	"github.com/eventflow/eventflow/modules/core/infrastructure/persistence"
	"github.com/eventflow/eventflow/modules/core/permissions"
	"github.com/eventflow/eventflow/pkg/authz"
	"github.com/eventflow/eventflow/pkg/composables"
	"github.com/eventflow/eventflow/pkg/eventbus"
	"github.com/eventflow/eventflow/pkg/opaqueid"
	"github.com/eventflow/eventflow/pkg/repo"
	"github.com/eventflow/eventflow/pkg/tenancy"
	"github.com/eventflow/eventflow/pkg/throttle"
)

// Member is a user seen through their membership in the current tenant.
type Member struct {
	User       *user.User
	Membership *membership.Membership
}

type InviteInput struct {
	Name  string
	Email string
	Role  string
}

type UpdateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// UserService manages the members of the request's tenant. Every
// membership read or write goes through tenancy.FromContext.
type UserService struct {
	users       user.Repository
	memberships membership.Repository
	policy      *permissions.UserPolicy
	ids         *opaqueid.Generator
	invites     *throttle.Throttle
	publisher   eventbus.EventBus
	inTx        composables.TxFunc
	now         func() time.Time
}

func NewUserService(
	users user.Repository,
	memberships membership.Repository,
	policy *permissions.UserPolicy,
	ids *opaqueid.Generator,
	invites *throttle.Throttle,
	publisher eventbus.EventBus,
	inTx composables.TxFunc,
) *UserService {
	return &UserService{
		users:       users,
		memberships: memberships,
		policy:      policy,
		ids:         ids,
		invites:     invites,
		publisher:   publisher,
		inTx:        inTx,
		now:         time.Now,
	}
}

// AvailableRoles lists the roles actor may hand out.
func (s *UserService) AvailableRoles(actor *membership.Membership) []membership.Role {
	if actor.HasRole(membership.RoleAdmin) {
		return membership.AllRoles
	}
	return []membership.Role{membership.RoleMember}
}

// ResolveRole returns requested when actor is an admin and member otherwise.
func (s *UserService) ResolveRole(actor *membership.Membership, requested string) (membership.Role, error) {
	if !actor.HasRole(membership.RoleAdmin) {
		return membership.RoleMember, nil
	}
	return membership.ParseRole(requested)
}

// Role returns userID's active role in the current tenant, or "".
func (s *UserService) Role(ctx context.Context, userID int64) (membership.Role, error) {
	m, err := s.memberships.Get(ctx, tenancy.FromContext(ctx), userID)
	if errors.Is(err, membership.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !m.IsActive() {
		return "", nil
	}
	return m.Role(), nil
}

// HasRole reports whether userID holds one of roles in the current tenant.
func (s *UserService) HasRole(ctx context.Context, userID int64, roles ...membership.Role) (bool, error) {
	role, err := s.Role(ctx, userID)
	if err != nil || role == "" {
		return false, err
	}
	for _, r := range roles {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

// ListMembers returns the active members other than actor. Moderators only
// see plain members.
func (s *UserService) ListMembers(ctx context.Context, actor *membership.Membership) ([]Member, error) {
	if !s.policy.ViewAny(ctx, actor) {
		return nil, ErrForbidden
	}
	var roles []membership.Role
	if actor.Role() == membership.RoleModerator {
		roles = []membership.Role{membership.RoleMember}
	}
	items, err := s.memberships.ListActive(ctx, tenancy.FromContext(ctx), roles...)
	if err != nil {
		return nil, err
	}
	byUser := make(map[int64]*membership.Membership, len(items))
	ids := make([]int64, 0, len(items))
	for _, m := range items {
		if m.UserID() == actor.UserID() {
			continue
		}
		byUser[m.UserID()] = m
		ids = append(ids, m.UserID())
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(users))
	for _, u := range users {
		out = append(out, Member{User: u, Membership: byUser[u.ID()]})
	}
	return out, nil
}

// Get loads a member of the current tenant by the user's hash id.
func (s *UserService) Get(ctx context.Context, actor *membership.Membership, hashID string) (Member, error) {
	u, err := s.users.GetByHashID(ctx, hashID)
	if err != nil {
		return Member{}, err
	}
	m, err := s.memberships.Get(ctx, tenancy.FromContext(ctx), u.ID())
	if errors.Is(err, membership.ErrNotFound) {
		return Member{}, user.ErrNotFound
	}
	if err != nil {
		return Member{}, err
	}
	if !s.policy.Manage(ctx, actor, authz.ActionView, m) {
		return Member{}, ErrForbidden
	}
	return Member{User: u, Membership: m}, nil
}

// Invite creates the user or attaches an existing account with the same
// email, then sends a set-password link when anything new was created.
// A throttled link is reported alongside the stored member.
func (s *UserService) Invite(ctx context.Context, actor *membership.Membership, in InviteInput) (Member, error) {
	if !s.policy.Create(ctx, actor) {
		return Member{}, ErrForbidden
	}
	role, err := s.ResolveRole(actor, in.Role)
	if err != nil {
		return Member{}, err
	}
	email, err := user.NewEmail(in.Email)
	if err != nil {
		return Member{}, err
	}
	scope := tenancy.FromContext(ctx)

	var (
		member  Member
		created bool
	)
	err = repo.RetryOnUnique(ctx, func(ctx context.Context) error {
		return s.inTx(ctx, func(txCtx context.Context) error {
			u, userCreated, err := s.findOrCreateUser(txCtx, in.Name, email)
			if err != nil {
				return err
			}
			m, err := s.memberships.Get(txCtx, scope, u.ID())
			membershipCreated := false
			switch {
			case errors.Is(err, membership.ErrNotFound):
				m = membership.New(u.ID(), role)
				if err := s.memberships.Create(txCtx, scope, m); err != nil {
					return err
				}
				membershipCreated = true
			case err != nil:
				return err
			}
			member = Member{User: u, Membership: m}
			created = userCreated || membershipCreated
			return nil
		})
	}, persistence.UserHashIDConstraint, persistence.UserEmailConstraint, persistence.MembershipPKConstraint)
	if err != nil {
		return Member{}, err
	}

	if created {
		if err := s.sendLink(ctx, actor, member); err != nil {
			return member, err
		}
	}
	return member, nil
}

func (s *UserService) findOrCreateUser(ctx context.Context, name string, email user.Email) (*user.User, bool, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, false, err
	}
	u = user.New(name, email)
	if err := s.ids.Assign(u); err != nil {
		return nil, false, err
	}
	u, err = s.users.Create(ctx, u)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// Update changes the member's profile and role. An empty password keeps the
// current one.
func (s *UserService) Update(ctx context.Context, actor *membership.Membership, target Member, in UpdateUserInput) (Member, error) {
	if !s.policy.Manage(ctx, actor, authz.ActionUpdate, target.Membership) {
		return Member{}, ErrForbidden
	}
	role, err := s.ResolveRole(actor, in.Role)
	if err != nil {
		return Member{}, err
	}
	email, err := user.NewEmail(in.Email)
	if err != nil {
		return Member{}, err
	}

	u := target.User
	m := target.Membership
	err = s.inTx(ctx, func(txCtx context.Context) error {
		u.SetName(in.Name)
		u.SetEmail(email)
		if in.Password != "" {
			if err := u.SetPassword(in.Password); err != nil {
				return err
			}
		}
		updated, err := s.users.Update(txCtx, u)
		if err != nil {
			return err
		}
		u = updated
		m.SetRole(role)
		return s.memberships.Update(txCtx, tenancy.FromContext(txCtx), m)
	})
	if repo.IsUniqueViolation(err, persistence.UserEmailConstraint) {
		return Member{}, ErrEmailTaken
	}
	if err != nil {
		return Member{}, err
	}
	return Member{User: u, Membership: m}, nil
}

// Revoke removes the member from the current tenant. The account stays.
func (s *UserService) Revoke(ctx context.Context, actor *membership.Membership, target Member) error {
	if !s.policy.Manage(ctx, actor, authz.ActionDelete, target.Membership) {
		return ErrForbidden
	}
	return s.memberships.Delete(ctx, tenancy.FromContext(ctx), target.User.ID())
}

// ResendInvite sends a new set-password link unless the user already has a
// password.
func (s *UserService) ResendInvite(ctx context.Context, actor *membership.Membership, target Member) error {
	if !s.policy.Manage(ctx, actor, authz.ActionUpdate, target.Membership) {
		return ErrForbidden
	}
	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"tenant_id":      target.Membership.TenantID(),
		"actor_user_id":  actor.UserID(),
		"target_user_id": target.User.ID(),
	})
	if target.User.IsVerified() {
		logger.Info("invite resend skipped, user already verified")
		return ErrAlreadyVerified
	}
	if err := s.sendLink(ctx, actor, target); err != nil {
		return err
	}
	logger.Info("invite resent")
	return nil
}

// InviteThrottleKey is the per tenant, per user throttle key.
func InviteThrottleKey(tenantID, userID int64) string {
	tenantPart := "global"
	if tenantID > 0 {
		tenantPart = fmt.Sprint(tenantID)
	}
	return fmt.Sprintf("set-password:%s:%d", tenantPart, userID)
}

func (s *UserService) sendLink(ctx context.Context, actor *membership.Membership, target Member) error {
	tenantID := target.Membership.TenantID()
	if s.invites != nil {
		if err := s.invites.Hit(ctx, InviteThrottleKey(tenantID, target.User.ID())); err != nil {
			var exceeded *throttle.ExceededError
			if errors.As(err, &exceeded) {
				return &InviteThrottledError{RetryAfter: exceeded.RetryAfter}
			}
			return err
		}
	}
	s.publisher.Publish(ctx, &user.InvitedEvent{
		TenantID:  tenantID,
		UserID:    target.User.ID(),
		Email:     target.User.Email(),
		InvitedBy: actor.UserID(),
		At:        s.now(),
	})
	return nil
}
