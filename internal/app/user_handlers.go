package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthurium-ai/personal-finance/internal/auth"
	"github.com/anthurium-ai/personal-finance/internal/model"
	"github.com/anthurium-ai/personal-finance/internal/store"
)

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.Registration
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		a.fail(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		a.fail(w, r, fmt.Errorf("hash password: %w", err))
		return
	}
	u := &model.User{Name: req.Name, Username: req.Username, Email: req.Email, PasswordHash: hash}
	if err := a.Store.CreateUser(r.Context(), u); err != nil {
		a.fail(w, r, err)
		return
	}

	a.logger().InfoContext(r.Context(), "user created", "user_id", u.ID, "username", u.Username)
	writeJSON(w, http.StatusCreated, u)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Access string `json:"access"`
}

func (a *App) handleToken(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decode(w, r, &c); err != nil {
		a.fail(w, r, err)
		return
	}

	u, err := a.Store.UserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(c.Email)))
	if errors.Is(err, store.ErrNotFound) {
		a.fail(w, r, auth.ErrUnauthorized)
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !auth.CheckPassword(u.PasswordHash, c.Password) {
		a.logger().WarnContext(r.Context(), "invalid password", "user_id", u.ID, "remote", r.RemoteAddr)
		a.fail(w, r, auth.ErrUnauthorized)
		return
	}

	tok, err := a.Tokens.Issue(u.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Access: tok})
}
