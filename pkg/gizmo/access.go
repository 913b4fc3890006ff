package gizmo

import (
	"time"

	"github.com/google/uuid"
)

// Access policy. Read eligibility depends on exposure; write eligibility is
// ownership only, regardless of exposure. Both checks treat an expired
// resource as absent.
//
//	exposure             read                              write
//	public               anyone                            owner
//	unlisted             anyone holding the slug           owner
//	private              owner                             owner
//	password_protected   anyone with the correct password  owner
//
// A deny is reported through the sentinel errors in errors.go so callers can
// distinguish "prompt for password" from "forbidden" from "not found".

// AuthorizeRead reports whether viewer may read the resource. An empty
// credential means none was supplied. The credential requirement applies to
// every viewer, owner included.
func AuthorizeRead(r *Resource, viewer *uuid.UUID, credential string, now time.Time) error {
	if r.Expired(now) {
		return ErrResourceNotFound
	}

	switch r.Exposure {
	case ExposurePublic, ExposureUnlisted:
		return nil
	case ExposurePrivate:
		if r.OwnedBy(viewer) {
			return nil
		}
		return ErrForbidden
	case ExposurePassword:
		if r.CredentialHash == "" {
			return ErrNoCredentialConfigured
		}
		if credential == "" {
			return ErrCredentialRequired
		}
		if !compareCredential(r.CredentialHash, credential) {
			return ErrCredentialInvalid
		}
		return nil
	default:
		return ErrForbidden
	}
}

// AuthorizeWrite reports whether viewer may mutate the resource. Resources
// with no owner reject every write, anonymous callers included.
func AuthorizeWrite(r *Resource, viewer *uuid.UUID, now time.Time) error {
	if r.Expired(now) {
		return ErrResourceNotFound
	}
	if !r.OwnedBy(viewer) {
		return ErrForbidden
	}
	return nil
}
