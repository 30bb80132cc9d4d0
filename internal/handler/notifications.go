package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/service"
)

type NotificationHandler struct {
	base
	Notifications *service.NotificationService
}

func NewNotificationHandler(ns *service.NotificationService, timeout time.Duration, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{base: newBase(timeout, log), Notifications: ns}
}

type sendNotificationReq struct {
	UserID flexInt `json:"userId"`
	Title  string  `json:"title" validate:"required,min=1,max=150"`
	Body   *string `json:"body" validate:"omitempty,max=2000"`
}

// List handles GET /api/notifications?unread&userId.  Only admins may name
// another user.
func (h *NotificationHandler) List(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	userID, err := queryInt64(c, "userId")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.Notifications.List(ctx, a, userID, queryBool(c, "unread"))
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, list)
}

// MarkRead handles POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.Notifications.MarkRead(ctx, a, id)
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusOK, n)
}

// Send handles POST /api/admin/notifications.
func (h *NotificationHandler) Send(c echo.Context) error {
	a, err := actor(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req sendNotificationReq
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	userID := req.UserID.ptr()
	if userID == nil || *userID <= 0 {
		return h.fail(c, &service.ValidationError{Field: "userId", Message: "is required"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	n, err := h.Notifications.Send(ctx, a, service.NotificationInput{UserID: *userID, Title: req.Title, Body: req.Body})
	if err != nil {
		return h.fail(c, err)
	}
	return data(c, http.StatusCreated, n)
}
