package event

import (
	"context"
	"time"

	"github.com/eventflow/eventflow/pkg/tenancy"
)

type SortBy string

const (
	SortStartsAtAsc  SortBy = "starts_at_asc"
	SortStartsAtDesc SortBy = "starts_at_desc"
)

type FindParams struct {
	CreatedBy  int64
	ListedOnly bool
	StartsFrom *time.Time
	StartsTo   *time.Time
	SortBy     SortBy
	Limit      int
	Offset     int
}

// Repository stores events. Every call is filtered through scope.
type Repository interface {
	GetByID(ctx context.Context, scope tenancy.Scope, id int64) (*Event, error)
	GetByHashID(ctx context.Context, scope tenancy.Scope, hashID string) (*Event, error)
	GetPaginated(ctx context.Context, scope tenancy.Scope, params *FindParams) ([]*Event, error)
	Count(ctx context.Context, scope tenancy.Scope, params *FindParams) (int64, error)
	// SlugExists ignores the event with excludeID; pass 0 to check all.
	SlugExists(ctx context.Context, scope tenancy.Scope, slug string, excludeID int64) (bool, error)
	CountCreatedBetween(ctx context.Context, scope tenancy.Scope, from, to time.Time) (int, error)
	Create(ctx context.Context, scope tenancy.Scope, e *Event) (*Event, error)
	Update(ctx context.Context, scope tenancy.Scope, e *Event) (*Event, error)
	Delete(ctx context.Context, scope tenancy.Scope, id int64) error
}
