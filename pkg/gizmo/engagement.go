package gizmo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engagement ledger. Bookmark rows are the source of truth: the insert's
// uniqueness conflict decides toggle-on vs toggle-off, and the counter on the
// target resource is only an advisory cache adjusted best-effort afterwards.

func (s *service) ToggleBookmark(ctx context.Context, req ToggleBookmarkRequest) (*BookmarkState, error) {
	if err := s.checkTarget(ctx, req.TargetKind, req.TargetID); err != nil {
		return nil, err
	}

	bookmark := &Bookmark{
		AccountID:  req.AccountID,
		TargetKind: req.TargetKind,
		TargetID:   req.TargetID,
		CreatedAt:  s.now(),
	}

	var active bool
	switch err := s.repository.CreateBookmark(ctx, bookmark); {
	case err == nil:
		active = true
		s.adjustEngagement(ctx, req.TargetID, +1)
	case errors.Is(err, ErrBookmarkExists):
		active = false
		err := s.repository.DeleteBookmark(ctx, req.AccountID, req.TargetKind, req.TargetID)
		if err != nil && !errors.Is(err, ErrBookmarkNotFound) {
			return nil, err
		}
		s.adjustEngagement(ctx, req.TargetID, -1)
	default:
		return nil, err
	}

	// The cache may drift; what the caller sees is always a live recount.
	count, err := s.repository.CountBookmarks(ctx, req.TargetKind, req.TargetID)
	if err != nil {
		return nil, err
	}

	if s.eventSink != nil {
		if err := s.eventSink.BookmarkToggled(ctx, bookmark, active); err != nil {
			s.logger.Warn("bookmark toggled event failed",
				zap.String("target", req.TargetID.String()), zap.Error(err))
		}
	}

	return &BookmarkState{Active: active, Count: count}, nil
}

func (s *service) IsBookmarked(ctx context.Context, accountID *uuid.UUID, kind ResourceKind, targetID uuid.UUID) (bool, error) {
	// Anonymous viewers are never bookmarked; not an error.
	if accountID == nil {
		return false, nil
	}

	_, err := s.repository.GetBookmark(ctx, *accountID, kind, targetID)
	if err != nil {
		if errors.Is(err, ErrBookmarkNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *service) ListBookmarks(ctx context.Context, req ListBookmarksRequest) ([]*Bookmark, error) {
	return s.repository.ListBookmarks(ctx, req.AccountID, req.TargetKind)
}

// checkTarget confirms the toggle target exists and is live.
func (s *service) checkTarget(ctx context.Context, kind ResourceKind, targetID uuid.UUID) error {
	resource, err := s.repository.GetResource(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return ErrTargetNotFound
		}
		return err
	}
	if resource.Kind != kind || resource.Expired(s.now()) {
		return ErrTargetNotFound
	}
	return nil
}

// adjustEngagement nudges the cached counter. Failures are logged, never
// surfaced: the cache self-heals on the next recount.
func (s *service) adjustEngagement(ctx context.Context, targetID uuid.UUID, delta int64) {
	if err := s.repository.AdjustEngagement(ctx, targetID, delta); err != nil {
		s.logger.Warn("engagement counter adjust failed",
			zap.String("target", targetID.String()), zap.Int64("delta", delta), zap.Error(err))
	}
}
