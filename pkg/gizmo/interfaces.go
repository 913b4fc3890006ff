package gizmo

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for persistence of resources, bookmarks,
// accounts and provider links.
//
// Creation methods are insert-or-conflict primitives: they must rely on the
// storage layer's uniqueness constraints and report conflicts through the
// sentinel errors named below, never on a separate existence check followed
// by an insert. AdjustEngagement and AddViews are conditional-increment
// primitives on the denormalized counters.
type Repository interface {
	// Resource operations. CreateResource returns ErrSlugTaken when a live
	// resource of the same kind holds the slug; UpdateResource returns
	// ErrSlugTaken on a conflicting slug rename.
	CreateResource(ctx context.Context, resource *Resource) error
	GetResource(ctx context.Context, id uuid.UUID) (*Resource, error)
	GetResourceBySlug(ctx context.Context, kind ResourceKind, slug string) (*Resource, error)
	UpdateResource(ctx context.Context, resource *Resource) error
	DeleteResource(ctx context.Context, id uuid.UUID) error
	ListResources(ctx context.Context, params ListResourcesParams) ([]*Resource, error)

	// Counter caches. AddViews is monotonic; AdjustEngagement floors at zero.
	AddViews(ctx context.Context, id uuid.UUID, delta int64) error
	AdjustEngagement(ctx context.Context, id uuid.UUID, delta int64) error

	// Bookmark operations. CreateBookmark returns ErrBookmarkExists when the
	// (account, kind, target) row already exists.
	CreateBookmark(ctx context.Context, bookmark *Bookmark) error
	DeleteBookmark(ctx context.Context, accountID uuid.UUID, kind ResourceKind, targetID uuid.UUID) error
	GetBookmark(ctx context.Context, accountID uuid.UUID, kind ResourceKind, targetID uuid.UUID) (*Bookmark, error)
	CountBookmarks(ctx context.Context, kind ResourceKind, targetID uuid.UUID) (int64, error)
	ListBookmarks(ctx context.Context, accountID uuid.UUID, kind *ResourceKind) ([]*Bookmark, error)

	// Account operations. CreateAccount returns ErrHandleTaken on a handle
	// collision; handle lookups are case-insensitive.
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	GetAccountByHandle(ctx context.Context, handle string) (*Account, error)
	UpdateAccount(ctx context.Context, account *Account) error

	// Provider link operations. CreateProviderLink returns
	// ErrProviderLinkExists when the (provider, subject) pair is already
	// linked.
	CreateProviderLink(ctx context.Context, link *ProviderLink) error
	GetProviderLink(ctx context.Context, provider, subjectID string) (*ProviderLink, error)
}

// ListResourcesParams contains filtering options for listing resources.
type ListResourcesParams struct {
	Kind        ResourceKind
	OwnerID     *uuid.UUID
	Exposure    *Exposure
	SkipExpired bool
	Limit       int
	Offset      int
}

// ViewCounter records resource views. The default implementation increments
// the repository directly; deployments with a hot read path can buffer
// increments (see the viewtrack subpackage).
type ViewCounter interface {
	Bump(ctx context.Context, kind ResourceKind, id uuid.UUID) error
}

// EventSink defines the interface for event handling
type EventSink interface {
	// ResourceCreated is fired when a resource is created
	ResourceCreated(ctx context.Context, resource *Resource) error

	// ResourceUpdated is fired when a resource is updated
	ResourceUpdated(ctx context.Context, resource *Resource) error

	// ResourceDeleted is fired when a resource is deleted or purged after
	// expiry
	ResourceDeleted(ctx context.Context, kind ResourceKind, id uuid.UUID) error

	// BookmarkToggled is fired after a bookmark toggle settles
	BookmarkToggled(ctx context.Context, bookmark *Bookmark, active bool) error

	// AccountLinked is fired when a new provider link is attached to an
	// account, including handle-matched links to pre-existing accounts
	AccountLinked(ctx context.Context, account *Account, link *ProviderLink) error
}
