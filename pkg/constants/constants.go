package constants

import (
	"github.com/go-playground/form"
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	LoggerKey     ContextKey = "logger"
	PoolKey       ContextKey = "pool"
	TxKey         ContextKey = "tx"
	ParamsKey     ContextKey = "params"
	RequestStart  ContextKey = "requestStart"
	UserKey       ContextKey = "user"
	SessionKey    ContextKey = "session"
	TenantCtxKey  ContextKey = "tenantContext"
	MembershipKey ContextKey = "membership"
)

// Session slots.
const (
	SessionUserIDKey   = "user_id"
	SessionTenantIDKey = "current_tenant_id"
)

var (
	Validate = validator.New(validator.WithRequiredStructEnabled())
	Decoder  = form.NewDecoder()
)
