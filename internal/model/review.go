package model

import "time"

// Review is a customer's rating of the workshop that handled a request.
// There is at most one review per (request, user).
type Review struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"requestId"`
	WorkshopID int64     `json:"workshopId"`
	UserID     int64     `json:"userId"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Notification is a user-addressed message.  Only the read flag and
// timestamp ever change.
type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Title     string     `json:"title"`
	Body      *string    `json:"body"`
	IsRead    bool       `json:"isRead"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// NotificationFilter narrows NotificationRepo.List.
type NotificationFilter struct {
	UserID     int64
	UnreadOnly bool
}
