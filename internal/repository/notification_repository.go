package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/roadside-assist/internal/model"
)

// NotificationRepo manages the notifications table.  Rows are never removed;
// the only mutation is marking one read.
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationColumns = "id, userId, title, body, is_read, read_at, created_at"

func scanNotification(s scanner) (model.Notification, error) {
	var n model.Notification
	err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.IsRead, &n.ReadAt, &n.CreatedAt)
	return n, err
}

func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO notifications (userId, title, body) VALUES (?,?,?)", n.UserID, n.Title, n.Body)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	*n = created
	return nil
}

func (r *NotificationRepo) GetByID(ctx context.Context, id int64) (model.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id))
	return n, classify(err)
}

// List returns notifications newest first.  UserID 0 lists every user's.
func (r *NotificationRepo) List(ctx context.Context, f model.NotificationFilter) ([]model.Notification, error) {
	q := "SELECT " + notificationColumns + " FROM notifications WHERE 1=1"
	var args []any
	if f.UserID > 0 {
		q += " AND userId = ?"
		args = append(args, f.UserID)
	}
	if f.UnreadOnly {
		q += " AND is_read = 0"
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead sets is_read and stamps read_at the first time only.
func (r *NotificationRepo) MarkRead(ctx context.Context, id int64) (model.Notification, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1, read_at = COALESCE(read_at, CURRENT_TIMESTAMP) WHERE id = ?", id); err != nil {
		return model.Notification{}, classify(err)
	}
	return r.GetByID(ctx, id)
}
