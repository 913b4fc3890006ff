package gizmo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Identity linking and local accounts.
//
// LinkOrCreate trusts the (provider, subject) pair as the authoritative key.
// When no link exists, an account whose handle matches the claimed handle is
// auto-linked; this assumes the provider verified the handle (email) it
// asserts. Every new link is reported through the event sink so deployments
// can audit link creation.

func (s *service) LinkOrCreate(ctx context.Context, req LinkIdentityRequest) (*Account, error) {
	if req.Provider == "" || req.SubjectID == "" {
		return nil, &AccountError{Handle: req.ClaimedHandle, Op: "link", Err: fmt.Errorf("provider and subject are required")}
	}

	// The provider link is authoritative; claimed handle is ignored when a
	// link already exists.
	link, err := s.repository.GetProviderLink(ctx, req.Provider, req.SubjectID)
	if err == nil {
		account, err := s.fetchActiveAccount(ctx, link.AccountID)
		if err != nil {
			return nil, &AccountError{Handle: req.ClaimedHandle, Op: "link", Err: err}
		}
		return sanitizeAccount(account), nil
	}
	if !errors.Is(err, ErrProviderLinkNotFound) {
		return nil, &AccountError{Handle: req.ClaimedHandle, Op: "link", Err: err}
	}

	account, err := s.resolveAccountForLink(ctx, req)
	if err != nil {
		return nil, err
	}

	newLink := &ProviderLink{
		ID:        uuid.New(),
		AccountID: account.ID,
		Provider:  req.Provider,
		SubjectID: req.SubjectID,
		CreatedAt: s.now(),
	}
	switch err := s.repository.CreateProviderLink(ctx, newLink); {
	case err == nil:
		if s.eventSink != nil {
			if err := s.eventSink.AccountLinked(ctx, account, newLink); err != nil {
				s.logger.Warn("account linked event failed",
					zap.String("handle", account.Handle), zap.Error(err))
			}
		}
		return sanitizeAccount(account), nil
	case errors.Is(err, ErrProviderLinkExists):
		// Lost a race with a concurrent login for the same subject; the
		// winning link is the truth, re-read it once.
		winner, err := s.repository.GetProviderLink(ctx, req.Provider, req.SubjectID)
		if err != nil {
			return nil, &AccountError{Handle: req.ClaimedHandle, Op: "link", Err: err}
		}
		linked, err := s.repository.GetAccount(ctx, winner.AccountID)
		if err != nil {
			return nil, &AccountError{Handle: req.ClaimedHandle, Op: "link", Err: err}
		}
		if linked.ID != account.ID {
			s.logger.Warn("provider link race resolved to a different account",
				zap.String("provider", req.Provider), zap.String("handle", linked.Handle))
		}
		return sanitizeAccount(linked), nil
	default:
		return nil, &AccountError{Handle: req.ClaimedHandle, Op: "link", Err: err}
	}
}

// resolveAccountForLink finds an account for a first-time provider subject:
// an existing account with the claimed handle, or a fresh federated-only
// account.
func (s *service) resolveAccountForLink(ctx context.Context, req LinkIdentityRequest) (*Account, error) {
	handle := strings.TrimSpace(req.ClaimedHandle)
	if handle == "" {
		return nil, &AccountError{Op: "link", Err: fmt.Errorf("claimed handle is required")}
	}

	account, err := s.repository.GetAccountByHandle(ctx, handle)
	if err == nil {
		if account.Status != AccountStatusActive {
			// The handle belongs to a deleted or banned account; it stays
			// reserved and nothing may attach to it.
			return nil, &AccountError{Handle: handle, Op: "link", Err: ErrHandleTaken}
		}
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, &AccountError{Handle: handle, Op: "link", Err: err}
	}

	now := s.now()
	account = &Account{
		ID:        uuid.New(),
		Handle:    handle,
		Status:    AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch err := s.repository.CreateAccount(ctx, account); {
	case err == nil:
		return account, nil
	case errors.Is(err, ErrHandleTaken):
		// A concurrent registration won the handle; attach to that account.
		existing, err := s.repository.GetAccountByHandle(ctx, handle)
		if err != nil {
			return nil, &AccountError{Handle: handle, Op: "link", Err: err}
		}
		return existing, nil
	default:
		return nil, &AccountError{Handle: handle, Op: "link", Err: err}
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	handle := strings.TrimSpace(req.Handle)
	if handle == "" {
		return nil, &AccountError{Op: "register", Err: fmt.Errorf("handle is required")}
	}
	if req.Password == "" {
		return nil, &AccountError{Handle: handle, Op: "register", Err: ErrPasswordRequired}
	}

	hash, err := hashCredential(req.Password)
	if err != nil {
		return nil, &AccountError{Handle: handle, Op: "register", Err: err}
	}

	now := s.now()
	account := &Account{
		ID:           uuid.New(),
		Handle:       handle,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: hash,
		Status:       AccountStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repository.CreateAccount(ctx, account); err != nil {
		return nil, &AccountError{Handle: handle, Op: "register", Err: err}
	}

	return sanitizeAccount(account), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Account, error) {
	account, err := s.repository.GetAccountByHandle(ctx, req.Handle)
	if err != nil {
		return nil, err
	}
	if account.Status != AccountStatusActive {
		return nil, ErrAccountNotFound
	}
	if account.PasswordHash == "" {
		return nil, ErrLoginNotAllowed
	}
	if !compareCredential(account.PasswordHash, req.Password) {
		return nil, ErrCredentialInvalid
	}
	return sanitizeAccount(account), nil
}

func (s *service) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	account, err := s.fetchActiveAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeAccount(account), nil
}

func (s *service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Account, error) {
	account, err := s.fetchActiveAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	if req.Handle != nil {
		handle := strings.TrimSpace(*req.Handle)
		if handle == "" {
			return nil, &AccountError{Handle: account.Handle, Op: "update", Err: fmt.Errorf("handle is required")}
		}
		account.Handle = handle
	}
	if req.FullName != nil {
		account.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.AvatarURL != nil {
		account.AvatarURL = *req.AvatarURL
	}

	account.UpdatedAt = s.now()
	if err := s.repository.UpdateAccount(ctx, account); err != nil {
		return nil, &AccountError{Handle: account.Handle, Op: "update", Err: err}
	}

	return sanitizeAccount(account), nil
}

func (s *service) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	account, err := s.fetchActiveAccount(ctx, req.AccountID)
	if err != nil {
		return err
	}
	if account.PasswordHash == "" {
		return ErrLoginNotAllowed
	}
	if !compareCredential(account.PasswordHash, req.Current) {
		return ErrCredentialInvalid
	}
	if req.New == "" {
		return &AccountError{Handle: account.Handle, Op: "change-password", Err: ErrPasswordRequired}
	}

	hash, err := hashCredential(req.New)
	if err != nil {
		return &AccountError{Handle: account.Handle, Op: "change-password", Err: err}
	}

	account.PasswordHash = hash
	account.UpdatedAt = s.now()
	if err := s.repository.UpdateAccount(ctx, account); err != nil {
		return &AccountError{Handle: account.Handle, Op: "change-password", Err: err}
	}
	return nil
}

// DeleteAccount is a status flip, not a row removal: the handle stays
// reserved, owned resources keep their owner id and bookmark rows survive.
// The account can no longer authenticate or be linked to.
func (s *service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	account, err := s.fetchActiveAccount(ctx, id)
	if err != nil {
		return err
	}

	account.Status = AccountStatusDeleted
	account.PasswordHash = ""
	account.UpdatedAt = s.now()
	if err := s.repository.UpdateAccount(ctx, account); err != nil {
		return &AccountError{Handle: account.Handle, Op: "delete", Err: err}
	}
	return nil
}

// fetchActiveAccount loads an account and hides non-active ones; deleted and
// banned accounts read as not found everywhere outside the repository.
func (s *service) fetchActiveAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	account, err := s.repository.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Status != AccountStatusActive {
		return nil, ErrAccountNotFound
	}
	return account, nil
}
