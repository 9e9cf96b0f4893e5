package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/qartha/idfportal/internal/core"
	"github.com/qartha/idfportal/internal/logging"
	"github.com/qartha/idfportal/internal/web/middleware"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User      *core.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type meResponse struct {
	Role core.Role  `json:"role"`
	User *core.User `json:"user,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(w, r, 16<<10, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.validate.Struct(in); err != nil {
		respondError(w, r, core.AsInputError(err))
		return
	}

	user, err := s.service.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, expires, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.setSessionCookie(w, token, int(time.Until(expires).Seconds()))
	logging.FromContext(r.Context()).Info("user logged in", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
	writeJSON(w, loginResponse{User: user, Token: token, ExpiresAt: expires})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	actor, _ := core.ActorFromContext(r.Context())
	if actor.UserID == 0 {
		writeJSON(w, meResponse{Role: actor.Role})
		return
	}
	user, err := s.service.UserByID(r.Context(), actor.UserID)
	if errors.Is(err, core.ErrUserNotFound) {
		err = fmt.Errorf("%w: %w", core.ErrUnauthenticated, err)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, meResponse{Role: user.Role, User: user})
}

// setSessionCookie writes the session cookie; maxAge < 0 deletes it.
func (s *Server) setSessionCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.Security.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
