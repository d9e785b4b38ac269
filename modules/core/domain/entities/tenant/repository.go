package tenant

import "context"

// Repository stores tenants. Tenants are the isolation boundary themselves,
// so lookups here are not tenant scoped.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*Tenant, error)
	// SlugExists ignores the tenant with excludeID; pass 0 to check all.
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) (*Tenant, error)
}
