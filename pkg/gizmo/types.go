package gizmo

import (
	"time"

	"github.com/google/uuid"
)

// ResourceKind is the domain type for the kinds of shareable resources.
type ResourceKind string

// Resource kind constants (typed).
const (
	KindPaste ResourceKind = "paste"
	KindImage ResourceKind = "image"
	KindAlbum ResourceKind = "album"
)

// IsValid reports whether k is a known resource kind.
func (k ResourceKind) IsValid() bool {
	switch k {
	case KindPaste, KindImage, KindAlbum:
		return true
	}
	return false
}

// Exposure is the visibility mode controlling read/write eligibility.
type Exposure string

// Exposure constants (typed). Albums do not support ExposurePassword.
const (
	ExposurePublic   Exposure = "public"
	ExposureUnlisted Exposure = "unlisted"
	ExposurePrivate  Exposure = "private"
	ExposurePassword Exposure = "password_protected"
)

// IsValid reports whether e is a known exposure mode.
func (e Exposure) IsValid() bool {
	switch e {
	case ExposurePublic, ExposureUnlisted, ExposurePrivate, ExposurePassword:
		return true
	}
	return false
}

// AllowedFor reports whether the exposure mode is usable for the given kind.
func (e Exposure) AllowedFor(kind ResourceKind) bool {
	if e == ExposurePassword && kind == KindAlbum {
		return false
	}
	return e.IsValid()
}

// AccountStatus is the domain type for account lifecycle states.
type AccountStatus string

// Account status constants (typed).
const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusBanned  AccountStatus = "banned"
	AccountStatusDeleted AccountStatus = "deleted"
)

// Resource represents a shareable entity (paste, image or album).
//
// Slug is the externally visible identifier, unique among live resources of
// the same kind; ID is the opaque internal identifier. CredentialHash is set
// only while Exposure is ExposurePassword and never contains plaintext.
// EngagementCount is a denormalized cache of active bookmarks; the
// authoritative value is a live count of Bookmark rows.
type Resource struct {
	ID              uuid.UUID    `json:"id"`
	Kind            ResourceKind `json:"kind"`
	Slug            string       `json:"slug"`
	Title           string       `json:"title,omitempty"`
	Body            string       `json:"body,omitempty"`
	MediaURL        string       `json:"media_url,omitempty"`
	MediaType       string       `json:"media_type,omitempty"`
	MediaSize       int64        `json:"media_size,omitempty"`
	AlbumID         *uuid.UUID   `json:"album_id,omitempty"`
	Exposure        Exposure     `json:"exposure"`
	OwnerID         *uuid.UUID   `json:"owner_id,omitempty"`
	CredentialHash  string       `json:"-"`
	ExpiresAt       *time.Time   `json:"expires_at,omitempty"`
	EngagementCount int64        `json:"engagement_count"`
	ViewCount       int64        `json:"view_count"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	DeletedAt       *time.Time   `json:"deleted_at,omitempty"`
}

// Expired reports whether the resource's expiry has passed at the given
// instant. Expired resources are treated as absent (lazy tombstone).
func (r *Resource) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}

// OwnedBy reports whether viewer is the resource owner. A resource with no
// owner is owned by nobody; anonymous viewers own nothing.
func (r *Resource) OwnedBy(viewer *uuid.UUID) bool {
	return r.OwnerID != nil && viewer != nil && *r.OwnerID == *viewer
}

// Account represents a local user account. PasswordHash is empty for
// federated-only accounts (created through a provider link).
type Account struct {
	ID           uuid.UUID     `json:"id"`
	Handle       string        `json:"handle"`
	FullName     string        `json:"full_name,omitempty"`
	PasswordHash string        `json:"-"`
	AvatarURL    string        `json:"avatar_url,omitempty"`
	Status       AccountStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Bookmark marks a resource as bookmarked by an account. Existence of the row
// means active; rows are deleted on toggle-off, never soft-deleted.
type Bookmark struct {
	AccountID  uuid.UUID    `json:"account_id"`
	TargetKind ResourceKind `json:"target_kind"`
	TargetID   uuid.UUID    `json:"target_id"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ProviderLink maps an external identity-provider subject to a local account.
// The (Provider, SubjectID) pair is unique across all accounts and a link is
// never mutated once created.
type ProviderLink struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Provider  string    `json:"provider"`
	SubjectID string    `json:"subject_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookmarkState is the outcome of a bookmark toggle. Count is recomputed from
// live bookmark rows, not read from the cached counter.
type BookmarkState struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}
