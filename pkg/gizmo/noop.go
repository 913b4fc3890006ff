package gizmo

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// ResourceCreated does nothing and returns nil
func (n *NoopEventSink) ResourceCreated(ctx context.Context, resource *Resource) error {
	return nil
}

// ResourceUpdated does nothing and returns nil
func (n *NoopEventSink) ResourceUpdated(ctx context.Context, resource *Resource) error {
	return nil
}

// ResourceDeleted does nothing and returns nil
func (n *NoopEventSink) ResourceDeleted(ctx context.Context, kind ResourceKind, id uuid.UUID) error {
	return nil
}

// BookmarkToggled does nothing and returns nil
func (n *NoopEventSink) BookmarkToggled(ctx context.Context, bookmark *Bookmark, active bool) error {
	return nil
}

// AccountLinked does nothing and returns nil
func (n *NoopEventSink) AccountLinked(ctx context.Context, account *Account, link *ProviderLink) error {
	return nil
}

// LoggingEventSink is an event sink that logs events but takes no other
// action. Useful for development and for auditing provider link creation.
type LoggingEventSink struct {
	logger *zap.Logger
}

// NewLoggingEventSink creates a new logging event sink
func NewLoggingEventSink(logger *zap.Logger) EventSink {
	return &LoggingEventSink{logger: logger}
}

// ResourceCreated logs the resource creation event
func (l *LoggingEventSink) ResourceCreated(ctx context.Context, resource *Resource) error {
	l.logger.Info("resource created",
		zap.String("kind", string(resource.Kind)),
		zap.String("slug", resource.Slug),
		zap.String("exposure", string(resource.Exposure)))
	return nil
}

// ResourceUpdated logs the resource update event
func (l *LoggingEventSink) ResourceUpdated(ctx context.Context, resource *Resource) error {
	l.logger.Info("resource updated",
		zap.String("kind", string(resource.Kind)),
		zap.String("slug", resource.Slug))
	return nil
}

// ResourceDeleted logs the resource deletion event
func (l *LoggingEventSink) ResourceDeleted(ctx context.Context, kind ResourceKind, id uuid.UUID) error {
	l.logger.Info("resource deleted",
		zap.String("kind", string(kind)),
		zap.String("id", id.String()))
	return nil
}

// BookmarkToggled logs the bookmark toggle event
func (l *LoggingEventSink) BookmarkToggled(ctx context.Context, bookmark *Bookmark, active bool) error {
	l.logger.Info("bookmark toggled",
		zap.String("account", bookmark.AccountID.String()),
		zap.String("target", bookmark.TargetID.String()),
		zap.Bool("active", active))
	return nil
}

// AccountLinked logs new provider links, including handle-matched links to
// pre-existing accounts.
func (l *LoggingEventSink) AccountLinked(ctx context.Context, account *Account, link *ProviderLink) error {
	l.logger.Info("account linked",
		zap.String("handle", account.Handle),
		zap.String("provider", link.Provider))
	return nil
}
