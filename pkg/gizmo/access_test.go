package gizmo_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

func TestAuthorizeRead(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ownerID := uuid.New()
	strangerID := uuid.New()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
	require.NoError(t, err)

	tests := []struct {
		name       string
		exposure   gizmo.Exposure
		hash       string
		viewer     *uuid.UUID
		credential string
		wantErr    error
	}{
		{name: "public anonymous", exposure: gizmo.ExposurePublic},
		{name: "public stranger", exposure: gizmo.ExposurePublic, viewer: &strangerID},
		{name: "unlisted anonymous", exposure: gizmo.ExposureUnlisted},
		{name: "unlisted stranger", exposure: gizmo.ExposureUnlisted, viewer: &strangerID},
		{name: "private owner", exposure: gizmo.ExposurePrivate, viewer: &ownerID},
		{name: "private stranger", exposure: gizmo.ExposurePrivate, viewer: &strangerID, wantErr: gizmo.ErrForbidden},
		{name: "private anonymous", exposure: gizmo.ExposurePrivate, wantErr: gizmo.ErrForbidden},
		{name: "password correct credential", exposure: gizmo.ExposurePassword, hash: string(hash), credential: "hunter2"},
		{name: "password stranger with credential", exposure: gizmo.ExposurePassword, hash: string(hash), viewer: &strangerID, credential: "hunter2"},
		{name: "password missing credential", exposure: gizmo.ExposurePassword, hash: string(hash), wantErr: gizmo.ErrCredentialRequired},
		{name: "password owner without credential", exposure: gizmo.ExposurePassword, hash: string(hash), viewer: &ownerID, wantErr: gizmo.ErrCredentialRequired},
		{name: "password wrong credential", exposure: gizmo.ExposurePassword, hash: string(hash), credential: "wrong", wantErr: gizmo.ErrCredentialInvalid},
		{name: "password mode with no hash", exposure: gizmo.ExposurePassword, credential: "hunter2", wantErr: gizmo.ErrNoCredentialConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resource := &gizmo.Resource{
				Kind:           gizmo.KindPaste,
				Exposure:       tt.exposure,
				OwnerID:        &ownerID,
				CredentialHash: tt.hash,
			}

			err := gizmo.AuthorizeRead(resource, tt.viewer, tt.credential, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("expired resource is absent regardless of exposure", func(t *testing.T) {
		past := now.Add(-time.Minute)
		resource := &gizmo.Resource{
			Kind:      gizmo.KindPaste,
			Exposure:  gizmo.ExposurePublic,
			OwnerID:   &ownerID,
			ExpiresAt: &past,
		}
		assert.ErrorIs(t, gizmo.AuthorizeRead(resource, &ownerID, "", now), gizmo.ErrResourceNotFound)
	})
}

func TestAuthorizeWrite(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ownerID := uuid.New()
	strangerID := uuid.New()

	resource := &gizmo.Resource{
		Kind:     gizmo.KindPaste,
		Exposure: gizmo.ExposurePublic,
		OwnerID:  &ownerID,
	}

	assert.NoError(t, gizmo.AuthorizeWrite(resource, &ownerID, now))
	assert.ErrorIs(t, gizmo.AuthorizeWrite(resource, &strangerID, now), gizmo.ErrForbidden)
	assert.ErrorIs(t, gizmo.AuthorizeWrite(resource, nil, now), gizmo.ErrForbidden)

	t.Run("ownerless resources reject every writer", func(t *testing.T) {
		orphan := &gizmo.Resource{Kind: gizmo.KindPaste, Exposure: gizmo.ExposurePublic}
		assert.ErrorIs(t, gizmo.AuthorizeWrite(orphan, &ownerID, now), gizmo.ErrForbidden)
		assert.ErrorIs(t, gizmo.AuthorizeWrite(orphan, nil, now), gizmo.ErrForbidden)
	})

	t.Run("expired resource rejects its owner", func(t *testing.T) {
		past := now.Add(-time.Minute)
		expired := &gizmo.Resource{
			Kind:      gizmo.KindPaste,
			Exposure:  gizmo.ExposurePublic,
			OwnerID:   &ownerID,
			ExpiresAt: &past,
		}
		assert.ErrorIs(t, gizmo.AuthorizeWrite(expired, &ownerID, now), gizmo.ErrResourceNotFound)
	})
}
