package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

// Repository implements gizmo.Repository using in-memory storage.
//
// All uniqueness constraints are enforced under the repository mutex, so
// insert-or-conflict has the same atomicity the SQL implementation gets from
// its unique indexes.
type Repository struct {
	mu        sync.RWMutex
	resources map[uuid.UUID]*gizmo.Resource
	bySlug    map[string]uuid.UUID           // "kind:slug" -> resource id, live rows only
	bookmarks map[string]*gizmo.Bookmark     // "account:kind:target" -> bookmark
	accounts  map[uuid.UUID]*gizmo.Account
	byHandle  map[string]uuid.UUID           // lowercased handle -> account id
	links     map[string]*gizmo.ProviderLink // "provider:subject" -> link
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		resources: make(map[uuid.UUID]*gizmo.Resource),
		bySlug:    make(map[string]uuid.UUID),
		bookmarks: make(map[string]*gizmo.Bookmark),
		accounts:  make(map[uuid.UUID]*gizmo.Account),
		byHandle:  make(map[string]uuid.UUID),
		links:     make(map[string]*gizmo.ProviderLink),
	}
}

func slugKey(kind gizmo.ResourceKind, slug string) string {
	return fmt.Sprintf("%s:%s", kind, slug)
}

func bookmarkKey(accountID uuid.UUID, kind gizmo.ResourceKind, targetID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", accountID, kind, targetID)
}

func linkKey(provider, subjectID string) string {
	return fmt.Sprintf("%s:%s", provider, subjectID)
}

// Resource operations

func (r *Repository) CreateResource(ctx context.Context, resource *gizmo.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := slugKey(resource.Kind, resource.Slug)
	if _, taken := r.bySlug[key]; taken {
		return gizmo.ErrSlugTaken
	}

	// Create a copy to avoid external modifications
	resourceCopy := *resource
	r.resources[resource.ID] = &resourceCopy
	r.bySlug[key] = resource.ID

	return nil
}

func (r *Repository) GetResource(ctx context.Context, id uuid.UUID) (*gizmo.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resource, exists := r.resources[id]
	if !exists || resource.DeletedAt != nil {
		return nil, gizmo.ErrResourceNotFound
	}

	resourceCopy := *resource
	return &resourceCopy, nil
}

func (r *Repository) GetResourceBySlug(ctx context.Context, kind gizmo.ResourceKind, slug string) (*gizmo.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.bySlug[slugKey(kind, slug)]
	if !exists {
		return nil, gizmo.ErrResourceNotFound
	}
	resource, exists := r.resources[id]
	if !exists || resource.DeletedAt != nil {
		return nil, gizmo.ErrResourceNotFound
	}

	resourceCopy := *resource
	return &resourceCopy, nil
}

func (r *Repository) UpdateResource(ctx context.Context, resource *gizmo.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.resources[resource.ID]
	if !exists || current.DeletedAt != nil {
		return gizmo.ErrResourceNotFound
	}

	// Slug rename: the new slug must be free among live rows of the kind.
	if current.Slug != resource.Slug {
		newKey := slugKey(resource.Kind, resource.Slug)
		if holder, taken := r.bySlug[newKey]; taken && holder != resource.ID {
			return gizmo.ErrSlugTaken
		}
		delete(r.bySlug, slugKey(current.Kind, current.Slug))
		r.bySlug[newKey] = resource.ID
	}

	// Counters are owned by AddViews/AdjustEngagement; keep the stored ones.
	resourceCopy := *resource
	resourceCopy.ViewCount = current.ViewCount
	resourceCopy.EngagementCount = current.EngagementCount
	r.resources[resource.ID] = &resourceCopy

	return nil
}

func (r *Repository) DeleteResource(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	resource, exists := r.resources[id]
	if !exists || resource.DeletedAt != nil {
		return gizmo.ErrResourceNotFound
	}

	now := time.Now().UTC()
	resource.DeletedAt = &now
	resource.UpdatedAt = now
	// Deleting frees the slug for reuse.
	delete(r.bySlug, slugKey(resource.Kind, resource.Slug))
	return nil
}

func (r *Repository) ListResources(ctx context.Context, params gizmo.ListResourcesParams) ([]*gizmo.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now().UTC()
	var result []*gizmo.Resource
	for _, resource := range r.resources {
		if resource.DeletedAt != nil || resource.Kind != params.Kind {
			continue
		}
		if params.OwnerID != nil && (resource.OwnerID == nil || *resource.OwnerID != *params.OwnerID) {
			continue
		}
		if params.Exposure != nil && resource.Exposure != *params.Exposure {
			continue
		}
		if params.SkipExpired && resource.Expired(now) {
			continue
		}
		resourceCopy := *resource
		result = append(result, &resourceCopy)
	}

	// Sort by created_at descending
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if params.Offset > 0 {
		if params.Offset >= len(result) {
			return []*gizmo.Resource{}, nil
		}
		result = result[params.Offset:]
	}
	if params.Limit > 0 && params.Limit < len(result) {
		result = result[:params.Limit]
	}

	return result, nil
}

func (r *Repository) AddViews(ctx context.Context, id uuid.UUID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	resource, exists := r.resources[id]
	if !exists || resource.DeletedAt != nil {
		return gizmo.ErrResourceNotFound
	}
	resource.ViewCount += delta
	return nil
}

func (r *Repository) AdjustEngagement(ctx context.Context, id uuid.UUID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	resource, exists := r.resources[id]
	if !exists || resource.DeletedAt != nil {
		return gizmo.ErrResourceNotFound
	}
	resource.EngagementCount += delta
	if resource.EngagementCount < 0 {
		resource.EngagementCount = 0
	}
	return nil
}

// Bookmark operations

func (r *Repository) CreateBookmark(ctx context.Context, bookmark *gizmo.Bookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := bookmarkKey(bookmark.AccountID, bookmark.TargetKind, bookmark.TargetID)
	if _, exists := r.bookmarks[key]; exists {
		return gizmo.ErrBookmarkExists
	}

	bookmarkCopy := *bookmark
	r.bookmarks[key] = &bookmarkCopy
	return nil
}

func (r *Repository) DeleteBookmark(ctx context.Context, accountID uuid.UUID, kind gizmo.ResourceKind, targetID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := bookmarkKey(accountID, kind, targetID)
	if _, exists := r.bookmarks[key]; !exists {
		return gizmo.ErrBookmarkNotFound
	}
	delete(r.bookmarks, key)
	return nil
}

func (r *Repository) GetBookmark(ctx context.Context, accountID uuid.UUID, kind gizmo.ResourceKind, targetID uuid.UUID) (*gizmo.Bookmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bookmark, exists := r.bookmarks[bookmarkKey(accountID, kind, targetID)]
	if !exists {
		return nil, gizmo.ErrBookmarkNotFound
	}
	bookmarkCopy := *bookmark
	return &bookmarkCopy, nil
}

func (r *Repository) CountBookmarks(ctx context.Context, kind gizmo.ResourceKind, targetID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, bookmark := range r.bookmarks {
		if bookmark.TargetKind == kind && bookmark.TargetID == targetID {
			count++
		}
	}
	return count, nil
}

func (r *Repository) ListBookmarks(ctx context.Context, accountID uuid.UUID, kind *gizmo.ResourceKind) ([]*gizmo.Bookmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*gizmo.Bookmark
	for _, bookmark := range r.bookmarks {
		if bookmark.AccountID != accountID {
			continue
		}
		if kind != nil && bookmark.TargetKind != *kind {
			continue
		}
		bookmarkCopy := *bookmark
		result = append(result, &bookmarkCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Account operations

func (r *Repository) CreateAccount(ctx context.Context, account *gizmo.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	handle := strings.ToLower(account.Handle)
	if _, taken := r.byHandle[handle]; taken {
		return gizmo.ErrHandleTaken
	}

	accountCopy := *account
	r.accounts[account.ID] = &accountCopy
	r.byHandle[handle] = account.ID
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id uuid.UUID) (*gizmo.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, gizmo.ErrAccountNotFound
	}
	accountCopy := *account
	return &accountCopy, nil
}

func (r *Repository) GetAccountByHandle(ctx context.Context, handle string) (*gizmo.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byHandle[strings.ToLower(handle)]
	if !exists {
		return nil, gizmo.ErrAccountNotFound
	}
	accountCopy := *r.accounts[id]
	return &accountCopy, nil
}

func (r *Repository) UpdateAccount(ctx context.Context, account *gizmo.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.accounts[account.ID]
	if !exists {
		return gizmo.ErrAccountNotFound
	}

	if !strings.EqualFold(current.Handle, account.Handle) {
		newHandle := strings.ToLower(account.Handle)
		if holder, taken := r.byHandle[newHandle]; taken && holder != account.ID {
			return gizmo.ErrHandleTaken
		}
		delete(r.byHandle, strings.ToLower(current.Handle))
		r.byHandle[newHandle] = account.ID
	}

	accountCopy := *account
	r.accounts[account.ID] = &accountCopy
	return nil
}

// Provider link operations

func (r *Repository) CreateProviderLink(ctx context.Context, link *gizmo.ProviderLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := linkKey(link.Provider, link.SubjectID)
	if _, exists := r.links[key]; exists {
		return gizmo.ErrProviderLinkExists
	}

	linkCopy := *link
	r.links[key] = &linkCopy
	return nil
}

func (r *Repository) GetProviderLink(ctx context.Context, provider, subjectID string) (*gizmo.ProviderLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, exists := r.links[linkKey(provider, subjectID)]
	if !exists {
		return nil, gizmo.ErrProviderLinkNotFound
	}
	linkCopy := *link
	return &linkCopy, nil
}
