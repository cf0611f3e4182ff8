package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type SessionHandler struct {
	session SessionController
}

func NewSessionHandler(session SessionController) *SessionHandler {
	return &SessionHandler{session: session}
}

// Get returns the current session snapshot.
//
// @Summary      Session state
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.SessionState
// @Router       /session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.session.Snapshot())
}

// Refresh forces a re-derivation of {role, profile} from the stored token.
// The response always carries the resulting snapshot: refresh failures are
// session state, not transport errors.
//
// @Summary      Refresh session
// @Tags         session
// @Produce      json
// @Success      200  {object}  domain.SessionState
// @Router       /session/refresh [post]
func (h *SessionHandler) Refresh(c echo.Context) error {
	_ = h.session.RefreshProfile(c.Request().Context())
	return c.JSON(http.StatusOK, h.session.Snapshot())
}
