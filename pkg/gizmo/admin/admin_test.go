package admin_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo/admin"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo/repo/memory"
)

func seed(t *testing.T, repo *memory.Repository, kind gizmo.ResourceKind, exposure gizmo.Exposure, owner *uuid.UUID, expiresAt *time.Time) *gizmo.Resource {
	t.Helper()
	now := time.Now().UTC()
	resource := &gizmo.Resource{
		ID:        uuid.New(),
		Kind:      kind,
		Slug:      uuid.NewString(),
		Exposure:  exposure,
		OwnerID:   owner,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateResource(context.Background(), resource))
	return resource
}

func TestListAndCount(t *testing.T) {
	repo := memory.New()
	svc := admin.New(repo)
	ctx := context.Background()
	owner := uuid.New()

	seed(t, repo, gizmo.KindPaste, gizmo.ExposurePublic, &owner, nil)
	seed(t, repo, gizmo.KindPaste, gizmo.ExposurePrivate, &owner, nil)
	seed(t, repo, gizmo.KindImage, gizmo.ExposurePublic, nil, nil)

	t.Run("no filters spans kinds", func(t *testing.T) {
		resp, err := svc.ListResources(ctx, admin.ListRequest{})
		require.NoError(t, err)
		assert.Len(t, resp.Resources, 3)
		assert.False(t, resp.HasMore)
	})

	t.Run("kind filter", func(t *testing.T) {
		kind := gizmo.KindPaste
		resp, err := svc.CountResources(ctx, admin.ResourceFilters{Kind: &kind})
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Count)
	})

	t.Run("owner filter", func(t *testing.T) {
		resp, err := svc.CountResources(ctx, admin.ResourceFilters{OwnerID: &owner})
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Count)
	})

	t.Run("exposure filter", func(t *testing.T) {
		exposure := gizmo.ExposurePrivate
		resp, err := svc.CountResources(ctx, admin.ResourceFilters{Exposure: &exposure})
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.Count)
	})

	t.Run("pagination marks more", func(t *testing.T) {
		resp, err := svc.ListResources(ctx, admin.ListRequest{Filters: admin.ResourceFilters{Limit: 2}})
		require.NoError(t, err)
		assert.Len(t, resp.Resources, 2)
		assert.True(t, resp.HasMore)

		rest, err := svc.ListResources(ctx, admin.ListRequest{Filters: admin.ResourceFilters{Limit: 2, Offset: 2}})
		require.NoError(t, err)
		assert.Len(t, rest.Resources, 1)
		assert.False(t, rest.HasMore)
	})
}

func TestPurgeExpired(t *testing.T) {
	repo := memory.New()
	svc := admin.New(repo)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	expired := seed(t, repo, gizmo.KindPaste, gizmo.ExposurePublic, nil, &past)
	expiredToo := seed(t, repo, gizmo.KindImage, gizmo.ExposurePublic, nil, &past)
	survivor := seed(t, repo, gizmo.KindPaste, gizmo.ExposurePublic, nil, &future)

	resp, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Purged)

	_, err = repo.GetResource(ctx, expired.ID)
	assert.ErrorIs(t, err, gizmo.ErrResourceNotFound)
	_, err = repo.GetResource(ctx, expiredToo.ID)
	assert.ErrorIs(t, err, gizmo.ErrResourceNotFound)
	_, err = repo.GetResource(ctx, survivor.ID)
	assert.NoError(t, err)

	t.Run("second sweep finds nothing", func(t *testing.T) {
		resp, err := svc.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), resp.Purged)
	})
}

func TestStats(t *testing.T) {
	repo := memory.New()
	svc := admin.New(repo)
	ctx := context.Background()

	seed(t, repo, gizmo.KindPaste, gizmo.ExposurePublic, nil, nil)
	seed(t, repo, gizmo.KindPaste, gizmo.ExposureUnlisted, nil, nil)
	seed(t, repo, gizmo.KindAlbum, gizmo.ExposurePublic, nil, nil)

	resp, err := svc.Stats(ctx)
	require.NoError(t, err)

	stats := resp.Statistics
	assert.Equal(t, int64(3), stats.TotalCount)
	assert.Equal(t, int64(2), stats.ByKind["paste"])
	assert.Equal(t, int64(1), stats.ByKind["album"])
	assert.Equal(t, int64(2), stats.ByExposure["public"])
	require.NotNil(t, stats.Oldest)
	require.NotNil(t, stats.Newest)
	assert.False(t, stats.Newest.Before(*stats.Oldest))
}
