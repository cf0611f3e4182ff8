package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hireway/session-gateway/internal/core/domain"
)

// RealtimeReader is the slice of the realtime manager the handler needs.
type RealtimeReader interface {
	Snapshot() domain.RealtimeState
}

type NotificationHandler struct {
	realtime RealtimeReader
}

func NewNotificationHandler(realtime RealtimeReader) *NotificationHandler {
	return &NotificationHandler{realtime: realtime}
}

// Get returns the unread badge state: connection status and unread count.
// Anonymous and privileged sessions read as disconnected with zero unread.
//
// @Summary      Notification state
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  domain.RealtimeState
// @Router       /notifications [get]
func (h *NotificationHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.realtime.Snapshot())
}
