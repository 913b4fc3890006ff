package admin

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

// scanPageSize bounds repository reads while walking a whole kind.
const scanPageSize = 500

var allKinds = []gizmo.ResourceKind{gizmo.KindPaste, gizmo.KindImage, gizmo.KindAlbum}

type service struct {
	repo gizmo.Repository
	now  func() time.Time
}

func (s *service) ListResources(ctx context.Context, req ListRequest) (*ListResponse, error) {
	f := req.Filters
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	resources, err := s.collect(ctx, f)
	if err != nil {
		return nil, err
	}

	if f.Offset >= len(resources) {
		return &ListResponse{Resources: []*gizmo.Resource{}}, nil
	}
	resources = resources[f.Offset:]

	hasMore := len(resources) > limit
	if hasMore {
		resources = resources[:limit]
	}
	return &ListResponse{Resources: resources, HasMore: hasMore}, nil
}

func (s *service) CountResources(ctx context.Context, filters ResourceFilters) (*CountResponse, error) {
	filters.Limit = 0
	filters.Offset = 0
	resources, err := s.collect(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &CountResponse{Count: int64(len(resources))}, nil
}

// PurgeExpired deletes every expired resource. The core purges lazily on
// access; this sweep catches the rows nobody asks for again.
func (s *service) PurgeExpired(ctx context.Context) (*PurgeResponse, error) {
	now := s.now()
	resources, err := s.collect(ctx, ResourceFilters{IncludeExpired: true})
	if err != nil {
		return nil, err
	}

	var purged int64
	for _, resource := range resources {
		if !resource.Expired(now) {
			continue
		}
		if err := s.repo.DeleteResource(ctx, resource.ID); err != nil {
			// Already purged by a concurrent read is fine.
			if errors.Is(err, gizmo.ErrResourceNotFound) {
				continue
			}
			return nil, err
		}
		purged++
	}
	return &PurgeResponse{Purged: purged}, nil
}

func (s *service) Stats(ctx context.Context) (*StatsResponse, error) {
	resources, err := s.collect(ctx, ResourceFilters{IncludeExpired: true})
	if err != nil {
		return nil, err
	}

	stats := Statistics{
		TotalCount: int64(len(resources)),
		ByKind:     make(map[string]int64),
		ByExposure: make(map[string]int64),
	}
	for _, resource := range resources {
		stats.ByKind[string(resource.Kind)]++
		stats.ByExposure[string(resource.Exposure)]++

		created := resource.CreatedAt
		if stats.Oldest == nil || created.Before(*stats.Oldest) {
			c := created
			stats.Oldest = &c
		}
		if stats.Newest == nil || created.After(*stats.Newest) {
			c := created
			stats.Newest = &c
		}
	}

	return &StatsResponse{Statistics: stats, ComputedAt: s.now()}, nil
}

// collect walks the repository page by page and returns every live resource
// matching the filters, newest first across kinds.
func (s *service) collect(ctx context.Context, f ResourceFilters) ([]*gizmo.Resource, error) {
	kinds := allKinds
	if f.Kind != nil {
		kinds = []gizmo.ResourceKind{*f.Kind}
	}

	var all []*gizmo.Resource
	for _, kind := range kinds {
		for offset := 0; ; offset += scanPageSize {
			page, err := s.repo.ListResources(ctx, gizmo.ListResourcesParams{
				Kind:        kind,
				OwnerID:     f.OwnerID,
				Exposure:    f.Exposure,
				SkipExpired: !f.IncludeExpired,
				Limit:       scanPageSize,
				Offset:      offset,
			})
			if err != nil {
				return nil, err
			}
			all = append(all, page...)
			if len(page) < scanPageSize {
				break
			}
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}
