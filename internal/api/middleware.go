package api

import (
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

// viewerID extracts the authenticated account id from the session token, if
// any. Anonymous requests return nil; the core treats a nil viewer as an
// anonymous reader.
func viewerID(r *http.Request) *uuid.UUID {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return nil
	}
	raw, ok := claims["user_id"].(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// requireViewer is like viewerID but writes a 401 when no valid session is
// present.
func requireViewer(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	id := viewerID(r)
	if id == nil {
		errorStatus(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return id, true
}
