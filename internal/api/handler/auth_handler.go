package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hireway/session-gateway/internal/core/domain"
	"github.com/hireway/session-gateway/internal/core/ports"
)

// SessionController is the slice of the session store the handlers need.
type SessionController interface {
	Snapshot() domain.SessionState
	RefreshProfile(ctx context.Context) error
	Logout(ctx context.Context) error
}

type AuthHandler struct {
	backend   ports.BackendClient
	tokens    ports.TokenStore
	session   SessionController
	redirects ports.RedirectStore
}

func NewAuthHandler(backend ports.BackendClient, tokens ports.TokenStore, session SessionController, redirects ports.RedirectStore) *AuthHandler {
	return &AuthHandler{backend: backend, tokens: tokens, session: session, redirects: redirects}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Session  domain.SessionState `json:"session"`
	ReturnTo string              `json:"return_to,omitempty"`
}

// Login proxies credentials to the marketplace backend, persists the
// returned token, and resolves the session.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	token, err := h.backend.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := h.tokens.Save(token); err != nil {
		return err
	}
	if err := h.session.RefreshProfile(ctx); err != nil {
		return err
	}

	// Honour the path remembered by the guard before login, if any.
	returnTo, err := h.redirects.Consume(ctx)
	if err != nil {
		returnTo = ""
	}

	return c.JSON(http.StatusOK, loginResponse{
		Session:  h.session.Snapshot(),
		ReturnTo: returnTo,
	})
}

// Logout clears the token and resets the session to anonymous.
//
// @Summary      Sign out
// @Tags         auth
// @Success      204  "session cleared"
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.session.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ReturnTo hands the login page its remembered destination, consuming it.
//
// @Summary      Post-login destination
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Success      204  "nothing remembered"
// @Router       /auth/return-to [get]
func (h *AuthHandler) ReturnTo(c echo.Context) error {
	path, err := h.redirects.Consume(c.Request().Context())
	if err != nil {
		return err
	}
	if path == "" {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, map[string]string{"return_to": path})
}
