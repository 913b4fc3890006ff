package gizmo

import (
	"time"

	"github.com/google/uuid"
)

// Request/Response DTOs

// CreateResourceRequest contains parameters for creating a resource.
//
// RequestedSlug is optional. With SlugUserChosen the slug is reserved exactly
// as given or the call fails with ErrSlugTaken; without it the slug is a
// preferred base that gets an incrementing numeric suffix when taken. When
// RequestedSlug is empty a random slug is generated.
//
// A non-empty Password forces Exposure to ExposurePassword; the password
// takes precedence over any other Exposure supplied alongside it.
type CreateResourceRequest struct {
	Kind           ResourceKind
	OwnerID        *uuid.UUID
	Title          string
	Body           string
	MediaURL       string
	MediaType      string
	MediaSize      int64
	AlbumID        *uuid.UUID
	Exposure       Exposure
	Password       string
	ExpiresAt      *time.Time
	RequestedSlug  string
	SlugUserChosen bool
}

// GetResourceRequest contains parameters for reading a resource by slug.
// An empty Credential means no credential was supplied.
type GetResourceRequest struct {
	Kind       ResourceKind
	Slug       string
	ViewerID   *uuid.UUID
	Credential string
}

// UpdateResourceRequest contains parameters for updating a resource. Nil
// pointer fields are left unchanged.
//
// Setting Password to a non-empty value switches the resource into password
// mode; setting it to an empty string clears the credential and drops the
// resource back to public. Changing Exposure to ExposurePassword on a
// resource that is not already in password mode requires a Password in the
// same request. NewSlug renames the resource, reserving the new slug exactly
// as given (ErrSlugTaken when held).
type UpdateResourceRequest struct {
	Kind        ResourceKind
	Slug        string
	ViewerID    *uuid.UUID
	Title       *string
	Body        *string
	AlbumID     *uuid.UUID
	Exposure    *Exposure
	Password    *string
	ExpiresAt   *time.Time
	ClearExpiry bool
	NewSlug     *string
}

// DeleteResourceRequest contains parameters for deleting a resource.
type DeleteResourceRequest struct {
	Kind     ResourceKind
	Slug     string
	ViewerID *uuid.UUID
}

// ListResourcesRequest contains parameters for listing resources.
type ListResourcesRequest struct {
	Kind    ResourceKind
	OwnerID *uuid.UUID
	Limit   int
	Offset  int
}

// ToggleBookmarkRequest contains parameters for a bookmark toggle.
type ToggleBookmarkRequest struct {
	AccountID  uuid.UUID
	TargetKind ResourceKind
	TargetID   uuid.UUID
}

// ListBookmarksRequest contains parameters for listing an account's
// bookmarks. TargetKind is an optional filter.
type ListBookmarksRequest struct {
	AccountID  uuid.UUID
	TargetKind *ResourceKind
}

// LinkIdentityRequest contains parameters for reconciling an external OAuth
// subject with a local account. ClaimedHandle is consulted only when no link
// exists yet for (Provider, SubjectID).
type LinkIdentityRequest struct {
	Provider      string
	SubjectID     string
	ClaimedHandle string
}

// UpdateProfileRequest contains parameters for updating an account's own
// profile. Nil pointer fields are left unchanged. Changing Handle reserves
// the new handle exactly as given (ErrHandleTaken when held, case-insensitive).
type UpdateProfileRequest struct {
	AccountID uuid.UUID
	Handle    *string
	FullName  *string
	AvatarURL *string
}

// ChangePasswordRequest contains parameters for rotating an account's local
// password. Current must match the stored credential; federated-only accounts
// have no local password to rotate.
type ChangePasswordRequest struct {
	AccountID uuid.UUID
	Current   string
	New       string
}

// RegisterRequest contains parameters for local account registration.
type RegisterRequest struct {
	Handle   string
	FullName string
	Password string
}

// LoginRequest contains parameters for a local password login.
type LoginRequest struct {
	Handle   string
	Password string
}
