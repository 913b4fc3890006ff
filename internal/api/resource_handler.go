package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

// ResourceHandler handles HTTP requests for pastes, images and albums.
type ResourceHandler struct {
	service gizmo.Service
	kind    gizmo.ResourceKind
	logger  *zap.Logger
}

// NewResourceHandler creates a handler bound to one resource kind; mount one
// per kind (e.g. /pastes, /images, /albums).
func NewResourceHandler(service gizmo.Service, kind gizmo.ResourceKind, logger *zap.Logger) *ResourceHandler {
	return &ResourceHandler{service: service, kind: kind, logger: logger}
}

// Routes returns the routes for the resource kind
func (h *ResourceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateResource)
	r.Get("/", h.ListPublic)
	r.Get("/mine", h.ListOwned)
	r.Get("/{slug}", h.GetResource)
	r.Patch("/{slug}", h.UpdateResource)
	r.Delete("/{slug}", h.DeleteResource)

	return r
}

// CreateResourceRequest is the request body for creating a resource
type CreateResourceRequest struct {
	Title          string     `json:"title"`
	Body           string     `json:"body,omitempty"`
	MediaURL       string     `json:"media_url,omitempty"`
	MediaType      string     `json:"media_type,omitempty"`
	MediaSize      int64      `json:"media_size,omitempty"`
	AlbumID        *uuid.UUID `json:"album_id,omitempty"`
	Exposure       string     `json:"exposure,omitempty"`
	Password       string     `json:"password,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Slug           string     `json:"slug,omitempty"`
	SlugUserChosen bool       `json:"slug_user_chosen,omitempty"`
}

// ResourceResponse is the response body for a resource
type ResourceResponse struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title,omitempty"`
	Body            string     `json:"body,omitempty"`
	MediaURL        string     `json:"media_url,omitempty"`
	MediaType       string     `json:"media_type,omitempty"`
	MediaSize       int64      `json:"media_size,omitempty"`
	AlbumID         string     `json:"album_id,omitempty"`
	Exposure        string     `json:"exposure"`
	OwnerID         string     `json:"owner_id,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	EngagementCount int64      `json:"engagement_count"`
	ViewCount       int64      `json:"view_count"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toResourceResponse(resource *gizmo.Resource) ResourceResponse {
	resp := ResourceResponse{
		ID:              resource.ID.String(),
		Kind:            string(resource.Kind),
		Slug:            resource.Slug,
		Title:           resource.Title,
		Body:            resource.Body,
		MediaURL:        resource.MediaURL,
		MediaType:       resource.MediaType,
		MediaSize:       resource.MediaSize,
		Exposure:        string(resource.Exposure),
		ExpiresAt:       resource.ExpiresAt,
		EngagementCount: resource.EngagementCount,
		ViewCount:       resource.ViewCount,
		CreatedAt:       resource.CreatedAt,
		UpdatedAt:       resource.UpdatedAt,
	}
	if resource.AlbumID != nil {
		resp.AlbumID = resource.AlbumID.String()
	}
	if resource.OwnerID != nil {
		resp.OwnerID = resource.OwnerID.String()
	}
	return resp
}

// CreateResource creates a new resource
func (h *ResourceHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	resource, err := h.service.CreateResource(r.Context(), gizmo.CreateResourceRequest{
		Kind:           h.kind,
		OwnerID:        viewerID(r),
		Title:          req.Title,
		Body:           req.Body,
		MediaURL:       req.MediaURL,
		MediaType:      req.MediaType,
		MediaSize:      req.MediaSize,
		AlbumID:        req.AlbumID,
		Exposure:       gizmo.Exposure(req.Exposure),
		Password:       req.Password,
		ExpiresAt:      req.ExpiresAt,
		RequestedSlug:  req.Slug,
		SlugUserChosen: req.SlugUserChosen,
	})
	if err != nil {
		h.logger.Warn("create resource failed", zap.String("kind", string(h.kind)), zap.Error(err))
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toResourceResponse(resource))
}

// GetResource reads a resource by slug. A password for gated resources is
// supplied via the X-Resource-Password header.
func (h *ResourceHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	resource, err := h.service.GetResourceBySlug(r.Context(), gizmo.GetResourceRequest{
		Kind:       h.kind,
		Slug:       chi.URLParam(r, "slug"),
		ViewerID:   viewerID(r),
		Credential: r.Header.Get("X-Resource-Password"),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, toResourceResponse(resource))
}

// UpdateResourceRequest is the request body for updating a resource
type UpdateResourceRequest struct {
	Title       *string    `json:"title,omitempty"`
	Body        *string    `json:"body,omitempty"`
	AlbumID     *uuid.UUID `json:"album_id,omitempty"`
	Exposure    *string    `json:"exposure,omitempty"`
	Password    *string    `json:"password,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClearExpiry bool       `json:"clear_expiry,omitempty"`
	NewSlug     *string    `json:"new_slug,omitempty"`
}

// UpdateResource updates a resource (owner only)
func (h *ResourceHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	var req UpdateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	update := gizmo.UpdateResourceRequest{
		Kind:        h.kind,
		Slug:        chi.URLParam(r, "slug"),
		ViewerID:    viewerID(r),
		Title:       req.Title,
		Body:        req.Body,
		AlbumID:     req.AlbumID,
		Password:    req.Password,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
		NewSlug:     req.NewSlug,
	}
	if req.Exposure != nil {
		exposure := gizmo.Exposure(*req.Exposure)
		update.Exposure = &exposure
	}

	resource, err := h.service.UpdateResource(r.Context(), update)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, toResourceResponse(resource))
}

// DeleteResource deletes a resource (owner only)
func (h *ResourceHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteResource(r.Context(), gizmo.DeleteResourceRequest{
		Kind:     h.kind,
		Slug:     chi.URLParam(r, "slug"),
		ViewerID: viewerID(r),
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

// ListPublic lists public, non-expired resources, newest first
func (h *ResourceHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	resources, err := h.service.ListPublicResources(r.Context(), gizmo.ListResourcesRequest{
		Kind:   h.kind,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderResourceList(w, r, resources)
}

// ListOwned lists the authenticated viewer's resources
func (h *ResourceHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	resources, err := h.service.ListOwnedResources(r.Context(), gizmo.ListResourcesRequest{
		Kind:    h.kind,
		OwnerID: viewer,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderResourceList(w, r, resources)
}

func renderResourceList(w http.ResponseWriter, r *http.Request, resources []*gizmo.Resource) {
	responses := make([]ResourceResponse, len(resources))
	for i, resource := range resources {
		responses[i] = toResourceResponse(resource)
	}
	render.JSON(w, r, map[string]interface{}{"resources": responses})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
