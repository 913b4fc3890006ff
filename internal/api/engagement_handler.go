package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

// EngagementHandler handles bookmark toggling and lookups.
type EngagementHandler struct {
	service gizmo.Service
}

// NewEngagementHandler creates a new engagement handler
func NewEngagementHandler(service gizmo.Service) *EngagementHandler {
	return &EngagementHandler{service: service}
}

// Routes returns the routes for bookmarks
func (h *EngagementHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/toggle", h.Toggle)
	r.Get("/check", h.Check)
	r.Get("/", h.List)

	return r
}

// ToggleRequest is the request body for a bookmark toggle
type ToggleRequest struct {
	TargetKind string `json:"target_kind"`
	TargetID   string `json:"target_id"`
}

// ToggleResponse is the response body for a bookmark toggle; Count is a live
// recount, not the cached counter.
type ToggleResponse struct {
	Bookmarked bool  `json:"bookmarked"`
	Count      int64 `json:"count"`
}

// Toggle flips the bookmark state for the authenticated account
func (h *EngagementHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	kind := gizmo.ResourceKind(req.TargetKind)
	if !kind.IsValid() {
		badRequest(w, r, "invalid target_kind")
		return
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		badRequest(w, r, "invalid target_id")
		return
	}

	state, err := h.service.ToggleBookmark(r.Context(), gizmo.ToggleBookmarkRequest{
		AccountID:  *viewer,
		TargetKind: kind,
		TargetID:   targetID,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, ToggleResponse{Bookmarked: state.Active, Count: state.Count})
}

// Check reports whether the viewer has bookmarked a target. Anonymous
// viewers get false, not an error.
func (h *EngagementHandler) Check(w http.ResponseWriter, r *http.Request) {
	kind := gizmo.ResourceKind(r.URL.Query().Get("target_kind"))
	if !kind.IsValid() {
		badRequest(w, r, "invalid target_kind")
		return
	}
	targetID, err := uuid.Parse(r.URL.Query().Get("target_id"))
	if err != nil {
		badRequest(w, r, "invalid target_id")
		return
	}

	bookmarked, err := h.service.IsBookmarked(r.Context(), viewerID(r), kind, targetID)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]bool{"bookmarked": bookmarked})
}

// BookmarkResponse is the wire shape of a bookmark row
type BookmarkResponse struct {
	TargetKind string    `json:"target_kind"`
	TargetID   string    `json:"target_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// List lists the authenticated account's bookmarks, optionally filtered by
// kind
func (h *EngagementHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	req := gizmo.ListBookmarksRequest{AccountID: *viewer}
	if v := r.URL.Query().Get("target_kind"); v != "" {
		kind := gizmo.ResourceKind(v)
		if !kind.IsValid() {
			badRequest(w, r, "invalid target_kind")
			return
		}
		req.TargetKind = &kind
	}

	bookmarks, err := h.service.ListBookmarks(r.Context(), req)
	if err != nil {
		renderError(w, r, err)
		return
	}

	responses := make([]BookmarkResponse, len(bookmarks))
	for i, b := range bookmarks {
		responses[i] = BookmarkResponse{
			TargetKind: string(b.TargetKind),
			TargetID:   b.TargetID.String(),
			CreatedAt:  b.CreatedAt,
		}
	}
	render.JSON(w, r, map[string]interface{}{"bookmarks": responses})
}
