// Package postgres implements gizmo.Repository on PostgreSQL via pgx.
//
// Expected schema:
//
//	CREATE TABLE resource (
//	    id               UUID PRIMARY KEY,
//	    kind             TEXT NOT NULL,
//	    slug             TEXT NOT NULL,
//	    title            TEXT NOT NULL DEFAULT '',
//	    body             TEXT NOT NULL DEFAULT '',
//	    media_url        TEXT NOT NULL DEFAULT '',
//	    media_type       TEXT NOT NULL DEFAULT '',
//	    media_size       BIGINT NOT NULL DEFAULT 0,
//	    album_id         UUID,
//	    exposure         TEXT NOT NULL,
//	    owner_id         UUID,
//	    credential_hash  TEXT NOT NULL DEFAULT '',
//	    expires_at       TIMESTAMPTZ,
//	    engagement_count BIGINT NOT NULL DEFAULT 0,
//	    view_count       BIGINT NOT NULL DEFAULT 0,
//	    created_at       TIMESTAMPTZ NOT NULL,
//	    updated_at       TIMESTAMPTZ NOT NULL,
//	    deleted_at       TIMESTAMPTZ
//	);
//	CREATE UNIQUE INDEX uq_resource_slug ON resource (kind, slug) WHERE deleted_at IS NULL;
//
//	CREATE TABLE bookmark (
//	    account_id  UUID NOT NULL,
//	    target_kind TEXT NOT NULL,
//	    target_id   UUID NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    CONSTRAINT pk_bookmark PRIMARY KEY (account_id, target_kind, target_id)
//	);
//
//	CREATE TABLE account (
//	    id            UUID PRIMARY KEY,
//	    handle        TEXT NOT NULL,
//	    full_name     TEXT NOT NULL DEFAULT '',
//	    password_hash TEXT NOT NULL DEFAULT '',
//	    avatar_url    TEXT NOT NULL DEFAULT '',
//	    status        TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX uq_account_handle ON account (lower(handle));
//
//	CREATE TABLE provider_link (
//	    id         UUID PRIMARY KEY,
//	    account_id UUID NOT NULL REFERENCES account (id),
//	    provider   TEXT NOT NULL,
//	    subject_id TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    CONSTRAINT uq_provider_link UNIQUE (provider, subject_id)
//	);
//
// The unique indexes are the arbiters for slug allocation, bookmark toggling
// and provider linking; unique violations (SQLSTATE 23505) map to the
// conflict sentinels in the gizmo package.
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements gizmo.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// conflictError maps unique violations onto the domain conflict sentinels by
// constraint name; anything else propagates unchanged.
func conflictError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "resource_slug"):
		return gizmo.ErrSlugTaken
	case strings.Contains(pgErr.ConstraintName, "bookmark"):
		return gizmo.ErrBookmarkExists
	case strings.Contains(pgErr.ConstraintName, "account_handle"):
		return gizmo.ErrHandleTaken
	case strings.Contains(pgErr.ConstraintName, "provider_link"):
		return gizmo.ErrProviderLinkExists
	}
	return err
}

const resourceColumns = `id, kind, slug, title, body, media_url, media_type, media_size,
       album_id, exposure, owner_id, credential_hash, expires_at,
       engagement_count, view_count, created_at, updated_at`

func scanResource(row pgx.Row) (*gizmo.Resource, error) {
	var r gizmo.Resource
	err := row.Scan(
		&r.ID, &r.Kind, &r.Slug, &r.Title, &r.Body, &r.MediaURL, &r.MediaType, &r.MediaSize,
		&r.AlbumID, &r.Exposure, &r.OwnerID, &r.CredentialHash, &r.ExpiresAt,
		&r.EngagementCount, &r.ViewCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gizmo.ErrResourceNotFound
		}
		return nil, err
	}
	return &r, nil
}

// Resource operations

func (r *Repository) CreateResource(ctx context.Context, resource *gizmo.Resource) error {
	query := `
		INSERT INTO resource (
			id, kind, slug, title, body, media_url, media_type, media_size,
			album_id, exposure, owner_id, credential_hash, expires_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		resource.ID, resource.Kind, resource.Slug, resource.Title, resource.Body,
		resource.MediaURL, resource.MediaType, resource.MediaSize,
		resource.AlbumID, resource.Exposure, resource.OwnerID,
		resource.CredentialHash, resource.ExpiresAt,
		resource.CreatedAt, resource.UpdatedAt)
	if err != nil {
		return conflictError(err)
	}
	return nil
}

func (r *Repository) GetResource(ctx context.Context, id uuid.UUID) (*gizmo.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resource WHERE id = $1 AND deleted_at IS NULL`
	return scanResource(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetResourceBySlug(ctx context.Context, kind gizmo.ResourceKind, slug string) (*gizmo.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resource
		WHERE kind = $1 AND slug = $2 AND deleted_at IS NULL`
	return scanResource(r.db.QueryRow(ctx, query, kind, slug))
}

func (r *Repository) UpdateResource(ctx context.Context, resource *gizmo.Resource) error {
	query := `
		UPDATE resource SET
			slug = $2, title = $3, body = $4, media_url = $5, media_type = $6,
			media_size = $7, album_id = $8, exposure = $9, credential_hash = $10,
			expires_at = $11, updated_at = $12
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		resource.ID, resource.Slug, resource.Title, resource.Body,
		resource.MediaURL, resource.MediaType, resource.MediaSize,
		resource.AlbumID, resource.Exposure, resource.CredentialHash,
		resource.ExpiresAt, resource.UpdatedAt)
	if err != nil {
		return conflictError(err)
	}
	if tag.RowsAffected() == 0 {
		return gizmo.ErrResourceNotFound
	}
	return nil
}

func (r *Repository) DeleteResource(ctx context.Context, id uuid.UUID) error {
	// Soft delete; the partial unique index stops covering the row, which
	// frees the slug for reuse.
	query := `UPDATE resource SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gizmo.ErrResourceNotFound
	}
	return nil
}

func (r *Repository) ListResources(ctx context.Context, params gizmo.ListResourcesParams) ([]*gizmo.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resource
		WHERE kind = $1 AND deleted_at IS NULL
		  AND ($2::uuid IS NULL OR owner_id = $2)
		  AND ($3::text IS NULL OR exposure = $3)
		  AND (NOT $4::bool OR expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT CASE WHEN $5 > 0 THEN $5 END OFFSET $6`

	var exposure *string
	if params.Exposure != nil {
		e := string(*params.Exposure)
		exposure = &e
	}

	rows, err := r.db.Query(ctx, query,
		params.Kind, params.OwnerID, exposure, params.SkipExpired, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []*gizmo.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	return resources, rows.Err()
}

func (r *Repository) AddViews(ctx context.Context, id uuid.UUID, delta int64) error {
	query := `UPDATE resource SET view_count = view_count + $2
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gizmo.ErrResourceNotFound
	}
	return nil
}

func (r *Repository) AdjustEngagement(ctx context.Context, id uuid.UUID, delta int64) error {
	query := `UPDATE resource SET engagement_count = GREATEST(engagement_count + $2, 0)
		WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gizmo.ErrResourceNotFound
	}
	return nil
}

// Bookmark operations

func (r *Repository) CreateBookmark(ctx context.Context, bookmark *gizmo.Bookmark) error {
	query := `
		INSERT INTO bookmark (account_id, target_kind, target_id, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query,
		bookmark.AccountID, bookmark.TargetKind, bookmark.TargetID, bookmark.CreatedAt)
	if err != nil {
		return conflictError(err)
	}
	return nil
}

func (r *Repository) DeleteBookmark(ctx context.Context, accountID uuid.UUID, kind gizmo.ResourceKind, targetID uuid.UUID) error {
	query := `DELETE FROM bookmark
		WHERE account_id = $1 AND target_kind = $2 AND target_id = $3`
	tag, err := r.db.Exec(ctx, query, accountID, kind, targetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return gizmo.ErrBookmarkNotFound
	}
	return nil
}

func (r *Repository) GetBookmark(ctx context.Context, accountID uuid.UUID, kind gizmo.ResourceKind, targetID uuid.UUID) (*gizmo.Bookmark, error) {
	query := `SELECT account_id, target_kind, target_id, created_at FROM bookmark
		WHERE account_id = $1 AND target_kind = $2 AND target_id = $3`

	var b gizmo.Bookmark
	err := r.db.QueryRow(ctx, query, accountID, kind, targetID).Scan(
		&b.AccountID, &b.TargetKind, &b.TargetID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gizmo.ErrBookmarkNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *Repository) CountBookmarks(ctx context.Context, kind gizmo.ResourceKind, targetID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookmark WHERE target_kind = $1 AND target_id = $2`

	var count int64
	if err := r.db.QueryRow(ctx, query, kind, targetID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) ListBookmarks(ctx context.Context, accountID uuid.UUID, kind *gizmo.ResourceKind) ([]*gizmo.Bookmark, error) {
	query := `SELECT account_id, target_kind, target_id, created_at FROM bookmark
		WHERE account_id = $1 AND ($2::text IS NULL OR target_kind = $2)
		ORDER BY created_at DESC`

	var kindFilter *string
	if kind != nil {
		k := string(*kind)
		kindFilter = &k
	}

	rows, err := r.db.Query(ctx, query, accountID, kindFilter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookmarks []*gizmo.Bookmark
	for rows.Next() {
		var b gizmo.Bookmark
		if err := rows.Scan(&b.AccountID, &b.TargetKind, &b.TargetID, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, &b)
	}
	return bookmarks, rows.Err()
}

// Account operations

func (r *Repository) CreateAccount(ctx context.Context, account *gizmo.Account) error {
	query := `
		INSERT INTO account (id, handle, full_name, password_hash, avatar_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		account.ID, account.Handle, account.FullName, account.PasswordHash,
		account.AvatarURL, account.Status, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return conflictError(err)
	}
	return nil
}

const accountColumns = `id, handle, full_name, password_hash, avatar_url, status, created_at, updated_at`

func scanAccount(row pgx.Row) (*gizmo.Account, error) {
	var a gizmo.Account
	err := row.Scan(&a.ID, &a.Handle, &a.FullName, &a.PasswordHash,
		&a.AvatarURL, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gizmo.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetAccount(ctx context.Context, id uuid.UUID) (*gizmo.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) GetAccountByHandle(ctx context.Context, handle string) (*gizmo.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM account WHERE lower(handle) = lower($1)`
	return scanAccount(r.db.QueryRow(ctx, query, handle))
}

func (r *Repository) UpdateAccount(ctx context.Context, account *gizmo.Account) error {
	query := `
		UPDATE account SET
			handle = $2, full_name = $3, password_hash = $4, avatar_url = $5,
			status = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		account.ID, account.Handle, account.FullName, account.PasswordHash,
		account.AvatarURL, account.Status, account.UpdatedAt)
	if err != nil {
		return conflictError(err)
	}
	if tag.RowsAffected() == 0 {
		return gizmo.ErrAccountNotFound
	}
	return nil
}

// Provider link operations

func (r *Repository) CreateProviderLink(ctx context.Context, link *gizmo.ProviderLink) error {
	query := `
		INSERT INTO provider_link (id, account_id, provider, subject_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		link.ID, link.AccountID, link.Provider, link.SubjectID, link.CreatedAt)
	if err != nil {
		return conflictError(err)
	}
	return nil
}

func (r *Repository) GetProviderLink(ctx context.Context, provider, subjectID string) (*gizmo.ProviderLink, error) {
	query := `SELECT id, account_id, provider, subject_id, created_at FROM provider_link
		WHERE provider = $1 AND subject_id = $2`

	var l gizmo.ProviderLink
	err := r.db.QueryRow(ctx, query, provider, subjectID).Scan(
		&l.ID, &l.AccountID, &l.Provider, &l.SubjectID, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gizmo.ErrProviderLinkNotFound
		}
		return nil, err
	}
	return &l, nil
}
