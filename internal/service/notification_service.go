package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/policy"
)

// NotificationService stores in-app notifications.  Delivery over SMS or
// push is not handled here.
type NotificationService struct {
	notifications NotificationStore
	users         UserStore
}

func NewNotificationService(notifications NotificationStore, users UserStore) *NotificationService {
	return &NotificationService{notifications: notifications, users: users}
}

// List returns the caller's notifications.  Admins may pass another
// user's id, or 0 for everyone.
func (s *NotificationService) List(ctx context.Context, actor model.Actor, userID int64, unreadOnly bool) ([]model.Notification, error) {
	f := model.NotificationFilter{UserID: actor.ID, UnreadOnly: unreadOnly}
	if actor.IsAdmin() {
		f.UserID = userID
	} else if userID != 0 && userID != actor.ID {
		return nil, ErrForbidden
	}
	return s.notifications.List(ctx, f)
}

type NotificationInput struct {
	UserID int64
	Title  string
	Body   *string
}

// Send creates a notification for a user.  Admin only.
func (s *NotificationService) Send(ctx context.Context, actor model.Actor, in NotificationInput) (model.Notification, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return model.Notification{}, err
	}
	title := strings.TrimSpace(in.Title)
	if n := utf8.RuneCountInString(title); n == 0 || n > 150 {
		return model.Notification{}, invalid("title", "must be between 1 and 150 characters")
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return model.Notification{}, asValidation(err, "userId")
	}
	n := model.Notification{UserID: in.UserID, Title: title, Body: in.Body}
	if err := s.notifications.Create(ctx, &n); err != nil {
		return model.Notification{}, err
	}
	return n, nil
}

// MarkRead flags a notification read.  Repeating it keeps the first read_at.
func (s *NotificationService) MarkRead(ctx context.Context, actor model.Actor, id int64) (model.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return model.Notification{}, err
	}
	if err := policy.CanReadNotification(actor, n); err != nil {
		return model.Notification{}, err
	}
	if n.IsRead {
		return n, nil
	}
	return s.notifications.MarkRead(ctx, id)
}
