package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/HmmOrange/gizmo-backend/pkg/gizmo"
)

// ErrorResponse is the wire shape for every error.
//
// PasswordRequired distinguishes "prompt for a password" from a hard 403 so
// clients can re-prompt instead of failing.
type ErrorResponse struct {
	Error            string `json:"error"`
	PasswordRequired bool   `json:"password_required,omitempty"`
}

// renderError translates domain errors into the response contract: password
// prompts are distinguishable from forbidden, and forbidden from not found.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: err.Error()}

	switch {
	case errors.Is(err, gizmo.ErrCredentialRequired):
		status = http.StatusUnauthorized
		body = ErrorResponse{Error: "password required", PasswordRequired: true}
	case errors.Is(err, gizmo.ErrCredentialInvalid):
		status = http.StatusUnauthorized
		body = ErrorResponse{Error: "password incorrect", PasswordRequired: true}
	case errors.Is(err, gizmo.ErrForbidden),
		errors.Is(err, gizmo.ErrLoginNotAllowed):
		status = http.StatusForbidden
		body = ErrorResponse{Error: "forbidden"}
	case errors.Is(err, gizmo.ErrResourceNotFound),
		errors.Is(err, gizmo.ErrAccountNotFound),
		errors.Is(err, gizmo.ErrTargetNotFound):
		status = http.StatusNotFound
		body = ErrorResponse{Error: "not found"}
	case errors.Is(err, gizmo.ErrSlugTaken),
		errors.Is(err, gizmo.ErrHandleTaken):
		status = http.StatusConflict
	case errors.Is(err, gizmo.ErrSlugExhausted),
		errors.Is(err, gizmo.ErrInvalidSlug),
		errors.Is(err, gizmo.ErrExposureNotAllowed),
		errors.Is(err, gizmo.ErrPasswordRequired),
		errors.Is(err, gizmo.ErrNoCredentialConfigured):
		status = http.StatusUnprocessableEntity
	}

	render.Status(r, status)
	render.JSON(w, r, body)
}

func errorStatus(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	errorStatus(w, r, http.StatusBadRequest, msg)
}
