package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
	"github.com/HmmOrange/gizmo-backend/pkg/gizmo/session"
)

// AuthHandler handles registration, local login and federated identity
// exchange. OAuth code/token verification happens upstream (the provider
// client is an external collaborator); this handler receives the verified
// subject claims and reconciles them with a local account.
type AuthHandler struct {
	service gizmo.Service
	issuer  *session.Issuer
	logger  *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service gizmo.Service, issuer *session.Issuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, issuer: issuer, logger: logger}
}

// Routes returns the routes for authentication
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/oauth/{provider}", h.OAuthExchange)

	// Account maintenance; all require a session.
	r.Get("/me", h.Me)
	r.Patch("/me", h.UpdateProfile)
	r.Put("/me/password", h.ChangePassword)
	r.Delete("/me", h.DeleteAccount)

	return r
}

// AccountResponse is the wire shape of an account; password hashes never
// appear here.
type AccountResponse struct {
	ID       string `json:"id"`
	Handle   string `json:"handle"`
	FullName string `json:"full_name,omitempty"`
	Token    string `json:"token,omitempty"`
}

func (h *AuthHandler) respondWithSession(w http.ResponseWriter, r *http.Request, account *gizmo.Account, status int) {
	token, err := h.issuer.Issue(account)
	if err != nil {
		h.logger.Error("session issuance failed", zap.String("handle", account.Handle), zap.Error(err))
		errorStatus(w, r, http.StatusInternalServerError, "session issuance failed")
		return
	}

	render.Status(r, status)
	render.JSON(w, r, AccountResponse{
		ID:       account.ID.String(),
		Handle:   account.Handle,
		FullName: account.FullName,
		Token:    token,
	})
}

// RegisterRequest is the request body for local registration
type RegisterRequest struct {
	Handle   string `json:"handle"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
}

// Register creates a local account and opens a session
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	account, err := h.service.Register(r.Context(), gizmo.RegisterRequest{
		Handle:   req.Handle,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	h.respondWithSession(w, r, account, http.StatusCreated)
}

// LoginRequest is the request body for local login
type LoginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

// Login authenticates a local account and opens a session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	account, err := h.service.Login(r.Context(), gizmo.LoginRequest{
		Handle:   req.Handle,
		Password: req.Password,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	h.respondWithSession(w, r, account, http.StatusOK)
}

// Me returns the authenticated account's own profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	account, err := h.service.GetAccount(r.Context(), *viewer)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, AccountResponse{
		ID:       account.ID.String(),
		Handle:   account.Handle,
		FullName: account.FullName,
	})
}

// UpdateProfileRequest is the request body for profile updates; absent fields
// are left unchanged
type UpdateProfileRequest struct {
	Handle    *string `json:"handle,omitempty"`
	FullName  *string `json:"full_name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// UpdateProfile updates the authenticated account's profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), gizmo.UpdateProfileRequest{
		AccountID: *viewer,
		Handle:    req.Handle,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.JSON(w, r, AccountResponse{
		ID:       account.ID.String(),
		Handle:   account.Handle,
		FullName: account.FullName,
	})
}

// ChangePasswordRequest is the request body for password rotation
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword rotates the authenticated account's local password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	err := h.service.ChangePassword(r.Context(), gizmo.ChangePasswordRequest{
		AccountID: *viewer,
		Current:   req.CurrentPassword,
		New:       req.NewPassword,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

// DeleteAccount deletes the authenticated account
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requireViewer(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), *viewer); err != nil {
		renderError(w, r, err)
		return
	}

	render.NoContent(w, r)
}

// OAuthExchangeRequest carries the provider-verified subject claims
type OAuthExchangeRequest struct {
	SubjectID string `json:"subject_id"`
	Handle    string `json:"handle"`
}

// OAuthExchange reconciles a verified provider identity with a local account
// and opens a session
func (h *AuthHandler) OAuthExchange(w http.ResponseWriter, r *http.Request) {
	var req OAuthExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	account, err := h.service.LinkOrCreate(r.Context(), gizmo.LinkIdentityRequest{
		Provider:      chi.URLParam(r, "provider"),
		SubjectID:     req.SubjectID,
		ClaimedHandle: req.Handle,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	h.respondWithSession(w, r, account, http.StatusOK)
}
