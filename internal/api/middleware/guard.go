package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hireway/session-gateway/internal/api/metrics"
	"github.com/hireway/session-gateway/internal/core/domain"
	"github.com/hireway/session-gateway/internal/core/guard"
	"github.com/hireway/session-gateway/internal/core/ports"
)

// SessionReader is the slice of the session store the guard needs.
type SessionReader interface {
	Snapshot() domain.SessionState
}

// Guard gates a route group on the session store's resolved role. An empty
// allowed list admits any authenticated role.
//
// The requested path (with query string) is remembered in two redundant
// places on the login redirect, the redirect URL itself and the redirect
// store, so login can send the user back even across a full reload.
func Guard(store SessionReader, redirects ports.RedirectStore, log zerolog.Logger, allowed ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requested := c.Request().URL.RequestURI()
			decision := guard.Decide(store.Snapshot(), allowed, requested)
			metrics.GuardDecisionsTotal.WithLabelValues(string(decision.Kind)).Inc()

			switch decision.Kind {
			case guard.Placeholder:
				// The role is still resolving; hold the decision instead of
				// bouncing a signed-in user to /login.
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})

			case guard.RedirectLogin:
				if err := redirects.Save(c.Request().Context(), decision.Remember); err != nil {
					log.Warn().Err(err).Msg("remember path failed")
				}
				return c.Redirect(http.StatusFound, guard.LoginURL(decision.Remember))

			case guard.RedirectHome:
				return c.Redirect(http.StatusFound, decision.RedirectTo)

			default:
				return next(c)
			}
		}
	}
}
