package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/server/users"
)

type authHandler struct {
	responder Responder
	users     *users.Service
}

func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		tok, err := h.users.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		h.responder.WriteJSON(w, r, http.StatusOK, LoginResponse{
			AccessToken: tok.AccessToken,
			TokenType:   "Bearer",
			ExpiresAt:   tok.ExpiresAt.UTC(),
			Role:        tok.Principal.Role,
		})
	}
}

func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok {
			h.responder.WriteError(w, r, common.ErrorUnauthorized)
			return
		}

		if err := h.users.Logout(r.Context(), claims); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h authHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			h.responder.WriteError(w, r, err)
			return
		}

		u, err := h.users.Register(r.Context(), principal(r), req.Username, req.Password, req.Role)
		if err != nil {
			h.responder.WriteError(w, r, err)
			return
		}
		h.responder.WriteJSON(w, r, http.StatusCreated, UserResponse{ID: u.ID, Username: u.UserName, Role: u.Role})
	}
}
