package gizmo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo/repo/memory"
)

func TestLinkOrCreate(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	t.Run("first login creates a federated account", func(t *testing.T) {
		account, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
			Provider:      "github",
			SubjectID:     "gh-12345",
			ClaimedHandle: "octocat",
		})
		require.NoError(t, err)
		assert.Equal(t, "octocat", account.Handle)
		assert.Equal(t, gizmo.AccountStatusActive, account.Status)
		assert.Empty(t, account.PasswordHash)
	})

	t.Run("repeat login resolves to the same account", func(t *testing.T) {
		first, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
			Provider: "github", SubjectID: "gh-12345", ClaimedHandle: "octocat",
		})
		require.NoError(t, err)

		// The claimed handle is ignored once the link exists.
		second, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
			Provider: "github", SubjectID: "gh-12345", ClaimedHandle: "renamed",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "octocat", second.Handle)
	})

	t.Run("same subject under another provider is a new identity", func(t *testing.T) {
		account, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
			Provider: "gitlab", SubjectID: "gh-12345", ClaimedHandle: "someone-else",
		})
		require.NoError(t, err)
		assert.Equal(t, "someone-else", account.Handle)
	})

	t.Run("matching handle attaches to the existing account", func(t *testing.T) {
		registered, err := svc.Register(ctx, gizmo.RegisterRequest{
			Handle: "alice", Password: "correct horse",
		})
		require.NoError(t, err)

		linked, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
			Provider: "google", SubjectID: "goog-777", ClaimedHandle: "alice",
		})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, linked.ID)

		// The local password still works after linking.
		_, err = svc.Login(ctx, gizmo.LoginRequest{Handle: "alice", Password: "correct horse"})
		assert.NoError(t, err)
	})

	t.Run("missing provider or subject fails", func(t *testing.T) {
		_, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{SubjectID: "x", ClaimedHandle: "h"})
		assert.Error(t, err)

		_, err = svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{Provider: "github", ClaimedHandle: "h"})
		assert.Error(t, err)
	})

	t.Run("first link needs a claimed handle", func(t *testing.T) {
		_, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
			Provider: "github", SubjectID: "gh-short", ClaimedHandle: "  ",
		})
		assert.Error(t, err)
	})
}

func TestRegister(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	t.Run("valid registration", func(t *testing.T) {
		account, err := svc.Register(ctx, gizmo.RegisterRequest{
			Handle: "bob", FullName: "Bob B.", Password: "pw-pw-pw",
		})
		require.NoError(t, err)
		assert.Equal(t, "bob", account.Handle)
		assert.Empty(t, account.PasswordHash)

		fetched, err := svc.GetAccount(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", fetched.Handle)
		assert.Empty(t, fetched.PasswordHash)
	})

	t.Run("handle conflict is case-insensitive", func(t *testing.T) {
		_, err := svc.Register(ctx, gizmo.RegisterRequest{Handle: "BOB", Password: "other"})
		assert.ErrorIs(t, err, gizmo.ErrHandleTaken)
	})

	t.Run("handle and password are required", func(t *testing.T) {
		_, err := svc.Register(ctx, gizmo.RegisterRequest{Password: "pw"})
		assert.Error(t, err)

		_, err = svc.Register(ctx, gizmo.RegisterRequest{Handle: "carol"})
		assert.ErrorIs(t, err, gizmo.ErrPasswordRequired)
	})
}

func TestLogin(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, gizmo.RegisterRequest{Handle: "dave", Password: "open sesame"})
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		account, err := svc.Login(ctx, gizmo.LoginRequest{Handle: "dave", Password: "open sesame"})
		require.NoError(t, err)
		assert.Equal(t, "dave", account.Handle)
		assert.Empty(t, account.PasswordHash)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, gizmo.LoginRequest{Handle: "dave", Password: "wrong"})
		assert.ErrorIs(t, err, gizmo.ErrCredentialInvalid)
	})

	t.Run("unknown handle", func(t *testing.T) {
		_, err := svc.Login(ctx, gizmo.LoginRequest{Handle: "nobody", Password: "pw"})
		assert.ErrorIs(t, err, gizmo.ErrAccountNotFound)
	})

	t.Run("federated-only account has no password login", func(t *testing.T) {
		_, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
			Provider: "github", SubjectID: "gh-fed", ClaimedHandle: "federated",
		})
		require.NoError(t, err)

		_, err = svc.Login(ctx, gizmo.LoginRequest{Handle: "federated", Password: "anything"})
		assert.ErrorIs(t, err, gizmo.ErrLoginNotAllowed)
	})
}

// racingLinkRepo plants a winning link for the same (provider, subject) just
// before every link insert, forcing the conflict path a concurrent login
// would produce.
type racingLinkRepo struct {
	gizmo.Repository
	winnerID uuid.UUID
}

func (r *racingLinkRepo) CreateProviderLink(ctx context.Context, link *gizmo.ProviderLink) error {
	_ = r.Repository.CreateProviderLink(ctx, &gizmo.ProviderLink{
		ID:        uuid.New(),
		AccountID: r.winnerID,
		Provider:  link.Provider,
		SubjectID: link.SubjectID,
		CreatedAt: link.CreatedAt,
	})
	return r.Repository.CreateProviderLink(ctx, link)
}

func TestLinkOrCreateLostInsertRace(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	now := time.Now().UTC()
	winner := &gizmo.Account{
		ID:        uuid.New(),
		Handle:    "winner",
		Status:    gizmo.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.CreateAccount(ctx, winner))

	svc, err := gizmo.New(gizmo.WithRepository(&racingLinkRepo{Repository: repo, winnerID: winner.ID}))
	require.NoError(t, err)

	// The loser resolves a fresh account, loses the link insert, and must
	// come back with the winner's account rather than its own.
	account, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
		Provider: "github", SubjectID: "gh-contested", ClaimedHandle: "latecomer",
	})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, account.ID)
	assert.Equal(t, "winner", account.Handle)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, gizmo.RegisterRequest{
		Handle: "erin", FullName: "Erin One", Password: "pw-erin",
	})
	require.NoError(t, err)

	t.Run("updates full name and avatar", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, gizmo.UpdateProfileRequest{
			AccountID: account.ID,
			FullName:  ptr("  Erin Two  "),
			AvatarURL: ptr("https://cdn.example/erin.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Erin Two", updated.FullName)
		assert.Equal(t, "https://cdn.example/erin.png", updated.AvatarURL)
		assert.Equal(t, "erin", updated.Handle)
		assert.Empty(t, updated.PasswordHash)
	})

	t.Run("renames the handle", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, gizmo.UpdateProfileRequest{
			AccountID: account.ID,
			Handle:    ptr("erin-renamed"),
		})
		require.NoError(t, err)
		assert.Equal(t, "erin-renamed", updated.Handle)

		// The old credential still works under the new handle.
		_, err = svc.Login(ctx, gizmo.LoginRequest{Handle: "erin-renamed", Password: "pw-erin"})
		assert.NoError(t, err)
	})

	t.Run("handle rename conflicts case-insensitively", func(t *testing.T) {
		_, err := svc.Register(ctx, gizmo.RegisterRequest{Handle: "frank", Password: "pw-frank"})
		require.NoError(t, err)

		_, err = svc.UpdateProfile(ctx, gizmo.UpdateProfileRequest{
			AccountID: account.ID,
			Handle:    ptr("FRANK"),
		})
		assert.ErrorIs(t, err, gizmo.ErrHandleTaken)
	})

	t.Run("empty handle is rejected", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, gizmo.UpdateProfileRequest{
			AccountID: account.ID,
			Handle:    ptr("   "),
		})
		assert.Error(t, err)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, gizmo.UpdateProfileRequest{
			AccountID: uuid.New(),
			FullName:  ptr("Nobody"),
		})
		assert.ErrorIs(t, err, gizmo.ErrAccountNotFound)
	})
}

func TestChangePassword(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, gizmo.RegisterRequest{Handle: "grace", Password: "old-pw"})
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, gizmo.ChangePasswordRequest{
			AccountID: account.ID, Current: "not-it", New: "new-pw",
		})
		assert.ErrorIs(t, err, gizmo.ErrCredentialInvalid)
	})

	t.Run("empty new password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, gizmo.ChangePasswordRequest{
			AccountID: account.ID, Current: "old-pw", New: "",
		})
		assert.ErrorIs(t, err, gizmo.ErrPasswordRequired)
	})

	t.Run("rotation swaps which password logs in", func(t *testing.T) {
		err := svc.ChangePassword(ctx, gizmo.ChangePasswordRequest{
			AccountID: account.ID, Current: "old-pw", New: "new-pw",
		})
		require.NoError(t, err)

		_, err = svc.Login(ctx, gizmo.LoginRequest{Handle: "grace", Password: "old-pw"})
		assert.ErrorIs(t, err, gizmo.ErrCredentialInvalid)

		_, err = svc.Login(ctx, gizmo.LoginRequest{Handle: "grace", Password: "new-pw"})
		assert.NoError(t, err)
	})

	t.Run("federated-only account has no password to rotate", func(t *testing.T) {
		federated, err := svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
			Provider: "github", SubjectID: "gh-rotate", ClaimedHandle: "rotator",
		})
		require.NoError(t, err)

		err = svc.ChangePassword(ctx, gizmo.ChangePasswordRequest{
			AccountID: federated.ID, Current: "", New: "new-pw",
		})
		assert.ErrorIs(t, err, gizmo.ErrLoginNotAllowed)
	})

	t.Run("unknown account", func(t *testing.T) {
		err := svc.ChangePassword(ctx, gizmo.ChangePasswordRequest{
			AccountID: uuid.New(), Current: "x", New: "y",
		})
		assert.ErrorIs(t, err, gizmo.ErrAccountNotFound)
	})
}

func TestDeleteAccount(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, gizmo.RegisterRequest{Handle: "henry", Password: "pw-henry"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(ctx, account.ID))

	t.Run("reads as not found afterwards", func(t *testing.T) {
		_, err := svc.GetAccount(ctx, account.ID)
		assert.ErrorIs(t, err, gizmo.ErrAccountNotFound)
	})

	t.Run("cannot log in afterwards", func(t *testing.T) {
		_, err := svc.Login(ctx, gizmo.LoginRequest{Handle: "henry", Password: "pw-henry"})
		assert.ErrorIs(t, err, gizmo.ErrAccountNotFound)
	})

	t.Run("handle stays reserved", func(t *testing.T) {
		_, err := svc.Register(ctx, gizmo.RegisterRequest{Handle: "henry", Password: "other"})
		assert.ErrorIs(t, err, gizmo.ErrHandleTaken)

		// A federated login claiming the handle cannot attach to it either.
		_, err = svc.LinkOrCreate(ctx, gizmo.LinkIdentityRequest{
			Provider: "github", SubjectID: "gh-henry", ClaimedHandle: "henry",
		})
		assert.ErrorIs(t, err, gizmo.ErrHandleTaken)
	})

	t.Run("double delete", func(t *testing.T) {
		err := svc.DeleteAccount(ctx, account.ID)
		assert.ErrorIs(t, err, gizmo.ErrAccountNotFound)
	})
}
