package gizmo

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrResourceNotFound indicates a resource was not found. Expired
	// resources surface as not found to callers.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrAccountNotFound indicates an account was not found
	ErrAccountNotFound = errors.New("account not found")

	// ErrProviderLinkNotFound indicates no link exists for a provider subject
	ErrProviderLinkNotFound = errors.New("provider link not found")

	// ErrBookmarkNotFound indicates a bookmark row does not exist
	ErrBookmarkNotFound = errors.New("bookmark not found")

	// ErrSlugTaken indicates the requested slug is held by a live resource of
	// the same kind
	ErrSlugTaken = errors.New("slug already in use")

	// ErrSlugExhausted indicates suffixed allocation ran out of attempts
	ErrSlugExhausted = errors.New("slug allocation attempts exhausted")

	// ErrInvalidSlug indicates a requested slug fails validation
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrForbidden indicates the viewer is not authorized for the operation
	ErrForbidden = errors.New("forbidden")

	// ErrCredentialRequired indicates a password-protected resource was read
	// without a credential; callers may translate this into a password prompt
	ErrCredentialRequired = errors.New("credential required")

	// ErrCredentialInvalid indicates a supplied credential did not match
	ErrCredentialInvalid = errors.New("credential invalid")

	// ErrNoCredentialConfigured indicates a password-protected resource has no
	// credential hash set; a data-integrity fault, never a silent grant
	ErrNoCredentialConfigured = errors.New("no credential configured")

	// ErrExposureNotAllowed indicates an exposure mode unsupported by the
	// resource kind (albums cannot be password protected)
	ErrExposureNotAllowed = errors.New("exposure not allowed for resource kind")

	// ErrPasswordRequired indicates a switch into password mode without a
	// supplied password
	ErrPasswordRequired = errors.New("password required for password-protected exposure")

	// ErrTargetNotFound indicates an engagement action against a missing target
	ErrTargetNotFound = errors.New("engagement target not found")

	// ErrHandleTaken indicates the handle is already registered
	ErrHandleTaken = errors.New("handle already in use")

	// ErrBookmarkExists indicates the bookmark uniqueness constraint fired;
	// the engagement ledger interprets this as a toggle-off
	ErrBookmarkExists = errors.New("bookmark already exists")

	// ErrProviderLinkExists indicates the provider link uniqueness constraint
	// fired; the identity linker re-reads the winning link
	ErrProviderLinkExists = errors.New("provider link already exists")

	// ErrLoginNotAllowed indicates a password login against a federated-only
	// account
	ErrLoginNotAllowed = errors.New("account has no local password")
)

// ResourceError represents an error related to resource operations
type ResourceError struct {
	Kind ResourceKind
	Slug string
	Op   string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource operation %s failed for %s %q: %v", e.Op, e.Kind, e.Slug, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// AccountError represents an error related to account operations
type AccountError struct {
	Handle string
	Op     string
	Err    error
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("account operation %s failed for %q: %v", e.Op, e.Handle, e.Err)
}

func (e *AccountError) Unwrap() error {
	return e.Err
}
