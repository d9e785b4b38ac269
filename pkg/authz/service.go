// Package authz answers role based questions with casbin. Attribute checks
// that depend on domain state live with the domain policies.
package authz

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/sirupsen/logrus"
)

//go:embed model.conf
var defaultModel string

//go:embed policy.csv
var defaultPolicy string

type Service struct {
	enforcer *casbin.Enforcer
	mode     Mode
	logger   logrus.FieldLogger
	mu       sync.RWMutex
}

// NewService builds an enforcer from the embedded model and policy.
func NewService(mode Mode, logger logrus.FieldLogger) (*Service, error) {
	return NewServiceWithPolicy(mode, logger, defaultPolicy)
}

func NewServiceWithPolicy(mode Mode, logger logrus.FieldLogger, policy string) (*Service, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(policy))
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		enforcer: enf,
		mode:     mode,
		logger:   logger.WithField("component", "authz"),
	}, nil
}

// MustNew panics when the embedded policy is broken.
func MustNew(mode Mode, logger logrus.FieldLogger) *Service {
	s, err := NewService(mode, logger)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Service) Mode() Mode {
	return s.mode
}

// Check evaluates a request without returning an authorization error.
func (s *Service) Check(req Request) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed, err := s.enforcer.Enforce(req.Role, req.Object, req.Action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return allowed, nil
}

// Allowed is Check that treats evaluation errors as a deny. Shadow and
// disabled modes always allow but still record the decision.
func (s *Service) Allowed(ctx context.Context, req Request) bool {
	allowed, err := s.Check(req)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("authz: check failed")
		allowed = false
	}
	recordDecision(req, s.mode, allowed)
	if allowed {
		return true
	}
	fields := logrus.Fields{
		"role":   req.Role,
		"object": req.Object,
		"action": req.Action,
		"mode":   s.mode,
	}
	switch s.mode {
	case ModeDisabled:
		return true
	case ModeShadow:
		s.logger.WithContext(ctx).WithFields(fields).Warn("authz shadow deny")
		return true
	default:
		s.logger.WithContext(ctx).WithFields(fields).Debug("authz denied request")
		return false
	}
}

// Authorize returns a *ForbiddenError when the request is denied.
func (s *Service) Authorize(ctx context.Context, req Request) error {
	if s.Allowed(ctx, req) {
		return nil
	}
	return &ForbiddenError{Request: req}
}
