package composables

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/eventflow/eventflow/pkg/configuration"
	"github.com/eventflow/eventflow/pkg/tenancy"
)

// ApplyTenantRLS publishes the current tenant to postgres row level security
// policies via app.current_tenant. Without a tenant the setting is left
// empty, which the policies treat as "no rows".
func ApplyTenantRLS(ctx context.Context, tx pgx.Tx) error {
	if configuration.Use().RLSEnforce != "enforce" {
		return nil
	}
	value := ""
	if id, ok := tenancy.FromContext(ctx).TenantID(); ok {
		value = strconv.FormatInt(id, 10)
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.current_tenant', $1, true)", value); err != nil {
		return fmt.Errorf("failed to set rls tenant context: %w", err)
	}
	return nil
}
