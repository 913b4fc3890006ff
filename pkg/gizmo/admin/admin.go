// Package admin provides read-mostly operational helpers that need nothing
// but repository access: listing and counting resources across kinds, basic
// statistics, and a batch sweep for expired resources. It complements the
// lazy expiry in the core service, which only purges a resource when someone
// requests it.
package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

// ResourceFilters narrows admin queries. Nil fields match everything.
type ResourceFilters struct {
	Kind           *gizmo.ResourceKind
	OwnerID        *uuid.UUID
	Exposure       *gizmo.Exposure
	IncludeExpired bool
	Limit          int
	Offset         int
}

// ListRequest is the request for ListResources.
type ListRequest struct {
	Filters ResourceFilters
}

// ListResponse carries one page of resources.
type ListResponse struct {
	Resources []*gizmo.Resource `json:"resources"`
	HasMore   bool              `json:"has_more"`
}

// CountResponse carries a resource count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// PurgeResponse reports the outcome of an expired-resource sweep.
type PurgeResponse struct {
	Purged int64 `json:"purged"`
}

// Statistics aggregates resource counts.
type Statistics struct {
	TotalCount int64            `json:"total_count"`
	ByKind     map[string]int64 `json:"by_kind"`
	ByExposure map[string]int64 `json:"by_exposure"`
	Oldest     *time.Time       `json:"oldest,omitempty"`
	Newest     *time.Time       `json:"newest,omitempty"`
}

// StatsResponse carries computed statistics.
type StatsResponse struct {
	Statistics Statistics `json:"statistics"`
	ComputedAt time.Time  `json:"computed_at"`
}

// Service is the admin surface. It bypasses access policy on purpose: it is
// an operator tool, never exposed over the public API.
type Service interface {
	ListResources(ctx context.Context, req ListRequest) (*ListResponse, error)
	CountResources(ctx context.Context, filters ResourceFilters) (*CountResponse, error)
	PurgeExpired(ctx context.Context) (*PurgeResponse, error)
	Stats(ctx context.Context) (*StatsResponse, error)
}

// New creates an admin service backed by the given repository.
func New(repo gizmo.Repository) Service {
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}
