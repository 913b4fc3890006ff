package gizmo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// service implements the Service interface
type service struct {
	repository Repository
	views      ViewCounter
	eventSink  EventSink
	logger     *zap.Logger
	now        func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithViewCounter sets the view counter. Defaults to direct repository
// increments.
func WithViewCounter(views ViewCounter) Option {
	return func(s *service) {
		s.views = views
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock overrides the service clock; used by tests exercising expiry.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.views == nil {
		s.views = repoViewCounter{repo: s.repository}
	}

	return s, nil
}

// repoViewCounter bumps view counts straight into the repository.
type repoViewCounter struct {
	repo Repository
}

func (c repoViewCounter) Bump(ctx context.Context, kind ResourceKind, id uuid.UUID) error {
	return c.repo.AddViews(ctx, id, 1)
}

// Resource operations

func (s *service) CreateResource(ctx context.Context, req CreateResourceRequest) (*Resource, error) {
	if !req.Kind.IsValid() {
		return nil, &ResourceError{Kind: req.Kind, Op: "create", Err: fmt.Errorf("unknown resource kind")}
	}

	exposure := req.Exposure
	if exposure == "" {
		exposure = ExposurePublic
	}
	if !exposure.AllowedFor(req.Kind) {
		return nil, &ResourceError{Kind: req.Kind, Op: "create", Err: ErrExposureNotAllowed}
	}
	if exposure == ExposurePassword && req.Password == "" {
		return nil, &ResourceError{Kind: req.Kind, Op: "create", Err: ErrPasswordRequired}
	}

	var credentialHash string
	if req.Password != "" {
		hash, err := hashCredential(req.Password)
		if err != nil {
			return nil, &ResourceError{Kind: req.Kind, Op: "create", Err: err}
		}
		credentialHash = hash
		exposure = ExposurePassword
	}
	if exposure == ExposurePassword && !exposure.AllowedFor(req.Kind) {
		return nil, &ResourceError{Kind: req.Kind, Op: "create", Err: ErrExposureNotAllowed}
	}

	now := s.now()
	resource := &Resource{
		ID:             uuid.New(),
		Kind:           req.Kind,
		Title:          strings.TrimSpace(req.Title),
		Body:           req.Body,
		MediaURL:       req.MediaURL,
		MediaType:      req.MediaType,
		MediaSize:      req.MediaSize,
		AlbumID:        req.AlbumID,
		Exposure:       exposure,
		OwnerID:        req.OwnerID,
		CredentialHash: credentialHash,
		ExpiresAt:      req.ExpiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.allocateAndPersist(ctx, resource, req.RequestedSlug, req.SlugUserChosen); err != nil {
		return nil, err
	}

	if s.eventSink != nil {
		if err := s.eventSink.ResourceCreated(ctx, resource); err != nil {
			s.logger.Warn("resource created event failed",
				zap.String("slug", resource.Slug), zap.Error(err))
		}
	}

	return sanitizeResource(resource), nil
}

// allocateAndPersist reserves a slug and persists the resource in one step.
// The repository insert is the only arbiter of slug availability: a
// uniqueness conflict surfaces as ErrSlugTaken and drives the retry loop, so
// two concurrent creations can never both commit the same slug.
func (s *service) allocateAndPersist(ctx context.Context, resource *Resource, requested string, userChosen bool) error {
	requested = strings.TrimSpace(requested)

	if requested != "" {
		if err := validateSlug(requested); err != nil {
			return &ResourceError{Kind: resource.Kind, Slug: requested, Op: "allocate", Err: err}
		}

		if userChosen {
			// Reserved exactly as given or not at all; no silent renaming.
			resource.Slug = requested
			if err := s.repository.CreateResource(ctx, resource); err != nil {
				return &ResourceError{Kind: resource.Kind, Slug: requested, Op: "allocate", Err: err}
			}
			return nil
		}

		// Title-derived suggestion: try the base, then base-1, base-2, ...
		resource.Slug = requested
		for attempt := 0; attempt <= maxSuffixAttempts; attempt++ {
			if attempt > 0 {
				resource.Slug = suffixedSlug(requested, attempt)
			}
			err := s.repository.CreateResource(ctx, resource)
			if err == nil {
				return nil
			}
			if !errors.Is(err, ErrSlugTaken) {
				return &ResourceError{Kind: resource.Kind, Slug: resource.Slug, Op: "allocate", Err: err}
			}
		}
		return &ResourceError{Kind: resource.Kind, Slug: requested, Op: "allocate", Err: ErrSlugExhausted}
	}

	// Random allocation. Collisions are astronomically unlikely but the loop
	// still goes through insert-or-conflict rather than check-then-insert.
	for {
		slug, err := randomSlug()
		if err != nil {
			return &ResourceError{Kind: resource.Kind, Op: "allocate", Err: err}
		}
		resource.Slug = slug
		err = s.repository.CreateResource(ctx, resource)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return &ResourceError{Kind: resource.Kind, Slug: slug, Op: "allocate", Err: err}
		}
	}
}

func (s *service) GetResourceBySlug(ctx context.Context, req GetResourceRequest) (*Resource, error) {
	resource, err := s.fetchLive(ctx, req.Kind, req.Slug)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeRead(resource, req.ViewerID, req.Credential, s.now()); err != nil {
		return nil, err
	}

	if err := s.views.Bump(ctx, resource.Kind, resource.ID); err != nil {
		// View counts are advisory; a lost increment is not worth failing a read.
		s.logger.Warn("view count bump failed",
			zap.String("kind", string(resource.Kind)), zap.String("slug", resource.Slug), zap.Error(err))
	} else {
		resource.ViewCount++
	}

	return sanitizeResource(resource), nil
}

func (s *service) UpdateResource(ctx context.Context, req UpdateResourceRequest) (*Resource, error) {
	resource, err := s.fetchLive(ctx, req.Kind, req.Slug)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeWrite(resource, req.ViewerID, s.now()); err != nil {
		return nil, err
	}

	if err := s.applyUpdates(resource, req); err != nil {
		return nil, err
	}

	resource.UpdatedAt = s.now()
	if err := s.repository.UpdateResource(ctx, resource); err != nil {
		return nil, &ResourceError{Kind: resource.Kind, Slug: resource.Slug, Op: "update", Err: err}
	}

	if s.eventSink != nil {
		if err := s.eventSink.ResourceUpdated(ctx, resource); err != nil {
			s.logger.Warn("resource updated event failed",
				zap.String("slug", resource.Slug), zap.Error(err))
		}
	}

	return sanitizeResource(resource), nil
}

// applyUpdates mutates resource in place according to req, enforcing the
// exposure and credential transition rules.
func (s *service) applyUpdates(resource *Resource, req UpdateResourceRequest) error {
	if req.Title != nil {
		resource.Title = strings.TrimSpace(*req.Title)
	}
	if req.Body != nil {
		resource.Body = *req.Body
	}
	if req.AlbumID != nil {
		resource.AlbumID = req.AlbumID
	}
	if req.ClearExpiry {
		resource.ExpiresAt = nil
	} else if req.ExpiresAt != nil {
		resource.ExpiresAt = req.ExpiresAt
	}

	if req.Password != nil {
		if *req.Password == "" {
			// Clearing the password drops the resource out of password mode.
			resource.CredentialHash = ""
			if resource.Exposure == ExposurePassword {
				resource.Exposure = ExposurePublic
			}
		} else {
			if !ExposurePassword.AllowedFor(resource.Kind) {
				return &ResourceError{Kind: resource.Kind, Slug: resource.Slug, Op: "update", Err: ErrExposureNotAllowed}
			}
			hash, err := hashCredential(*req.Password)
			if err != nil {
				return &ResourceError{Kind: resource.Kind, Slug: resource.Slug, Op: "update", Err: err}
			}
			resource.CredentialHash = hash
			resource.Exposure = ExposurePassword
		}
	}

	if req.Exposure != nil && *req.Exposure != resource.Exposure {
		next := *req.Exposure
		if !next.AllowedFor(resource.Kind) {
			return &ResourceError{Kind: resource.Kind, Slug: resource.Slug, Op: "update", Err: ErrExposureNotAllowed}
		}
		if next == ExposurePassword && resource.CredentialHash == "" {
			// Cannot enter password mode with no password.
			return &ResourceError{Kind: resource.Kind, Slug: resource.Slug, Op: "update", Err: ErrPasswordRequired}
		}
		if resource.Exposure == ExposurePassword && next != ExposurePassword {
			// Leaving password mode must not keep a stale credential around.
			resource.CredentialHash = ""
		}
		resource.Exposure = next
	}

	if req.NewSlug != nil && *req.NewSlug != resource.Slug {
		newSlug := strings.TrimSpace(*req.NewSlug)
		if err := validateSlug(newSlug); err != nil {
			return &ResourceError{Kind: resource.Kind, Slug: newSlug, Op: "rename", Err: err}
		}
		resource.Slug = newSlug
	}

	return nil
}

func (s *service) DeleteResource(ctx context.Context, req DeleteResourceRequest) error {
	resource, err := s.fetchLive(ctx, req.Kind, req.Slug)
	if err != nil {
		return err
	}

	if err := AuthorizeWrite(resource, req.ViewerID, s.now()); err != nil {
		return err
	}

	if err := s.repository.DeleteResource(ctx, resource.ID); err != nil {
		return &ResourceError{Kind: resource.Kind, Slug: resource.Slug, Op: "delete", Err: err}
	}

	if s.eventSink != nil {
		if err := s.eventSink.ResourceDeleted(ctx, resource.Kind, resource.ID); err != nil {
			s.logger.Warn("resource deleted event failed",
				zap.String("slug", resource.Slug), zap.Error(err))
		}
	}

	return nil
}

func (s *service) ListPublicResources(ctx context.Context, req ListResourcesRequest) ([]*Resource, error) {
	exposure := ExposurePublic
	resources, err := s.repository.ListResources(ctx, ListResourcesParams{
		Kind:        req.Kind,
		Exposure:    &exposure,
		SkipExpired: true,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return sanitizeResources(resources), nil
}

func (s *service) ListOwnedResources(ctx context.Context, req ListResourcesRequest) ([]*Resource, error) {
	if req.OwnerID == nil {
		return nil, ErrForbidden
	}
	resources, err := s.repository.ListResources(ctx, ListResourcesParams{
		Kind:    req.Kind,
		OwnerID: req.OwnerID,
		Limit:   req.Limit,
		Offset:  req.Offset,
	})
	if err != nil {
		return nil, err
	}
	return sanitizeResources(resources), nil
}

// fetchLive loads a resource by slug and applies the lazy tombstone: an
// expired row reads as not found and is purged best-effort.
func (s *service) fetchLive(ctx context.Context, kind ResourceKind, slug string) (*Resource, error) {
	resource, err := s.repository.GetResourceBySlug(ctx, kind, slug)
	if err != nil {
		return nil, err
	}

	if resource.Expired(s.now()) {
		if err := s.repository.DeleteResource(ctx, resource.ID); err != nil {
			// A stale row merely continues to read as not found.
			s.logger.Warn("expired resource purge failed",
				zap.String("kind", string(kind)), zap.String("slug", slug), zap.Error(err))
		} else if s.eventSink != nil {
			if err := s.eventSink.ResourceDeleted(ctx, resource.Kind, resource.ID); err != nil {
				s.logger.Warn("resource deleted event failed",
					zap.String("slug", slug), zap.Error(err))
			}
		}
		return nil, ErrResourceNotFound
	}

	return resource, nil
}

// sanitizeResource strips the credential hash before a resource leaves the
// core; only the access policy ever needs it.
func sanitizeResource(r *Resource) *Resource {
	out := *r
	out.CredentialHash = ""
	return &out
}

func sanitizeResources(resources []*Resource) []*Resource {
	out := make([]*Resource, len(resources))
	for i, r := range resources {
		out[i] = sanitizeResource(r)
	}
	return out
}

func sanitizeAccount(a *Account) *Account {
	out := *a
	out.PasswordHash = ""
	return &out
}
