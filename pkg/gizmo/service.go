package gizmo

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the content visibility and
// engagement core.
type Service interface {
	// Resource operations
	CreateResource(ctx context.Context, req CreateResourceRequest) (*Resource, error)
	GetResourceBySlug(ctx context.Context, req GetResourceRequest) (*Resource, error)
	UpdateResource(ctx context.Context, req UpdateResourceRequest) (*Resource, error)
	DeleteResource(ctx context.Context, req DeleteResourceRequest) error
	ListPublicResources(ctx context.Context, req ListResourcesRequest) ([]*Resource, error)
	ListOwnedResources(ctx context.Context, req ListResourcesRequest) ([]*Resource, error)

	// Engagement operations
	ToggleBookmark(ctx context.Context, req ToggleBookmarkRequest) (*BookmarkState, error)
	IsBookmarked(ctx context.Context, accountID *uuid.UUID, kind ResourceKind, targetID uuid.UUID) (bool, error)
	ListBookmarks(ctx context.Context, req ListBookmarksRequest) ([]*Bookmark, error)

	// Identity operations
	LinkOrCreate(ctx context.Context, req LinkIdentityRequest) (*Account, error)
	Register(ctx context.Context, req RegisterRequest) (*Account, error)
	Login(ctx context.Context, req LoginRequest) (*Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)

	// Account maintenance
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Account, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}
