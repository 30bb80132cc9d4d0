// Package service holds the business rules of the roadside-assistance
// platform: the request lifecycle, workshop matching, authentication and
// the admin operations.  Storage is injected through the interfaces below;
// repository implements them over MySQL and storetest in memory.
package service

import (
	"context"

	"github.com/iliyamo/roadside-assist/internal/model"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int64) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	List(ctx context.Context, f model.UserFilter) ([]model.User, error)
	Update(ctx context.Context, id int64, p model.UserPatch) (model.User, error)
	Delete(ctx context.Context, id int64) error
}

type WorkshopStore interface {
	Create(ctx context.Context, w *model.Workshop) error
	GetByID(ctx context.Context, id int64) (model.Workshop, error)
	List(ctx context.Context, f model.WorkshopFilter) ([]model.Workshop, error)
	Update(ctx context.Context, id int64, p model.WorkshopPatch) (model.Workshop, error)
	Delete(ctx context.Context, id int64) error
	PrimaryForWorker(ctx context.Context, userID int64) (model.Workshop, error)
}

type AssignmentStore interface {
	Create(ctx context.Context, a *model.WorkerAssignment) error
	GetByID(ctx context.Context, id int64) (model.WorkerAssignment, error)
	List(ctx context.Context, f model.AssignmentFilter) ([]model.WorkerAssignment, error)
	End(ctx context.Context, id int64) (model.WorkerAssignment, error)
	HasActive(ctx context.Context, userID, workshopID int64) (bool, error)
}

// RequestStore persists service requests.  TransitionStatus must apply the
// status change and its history row atomically, and only while the stored
// status still equals StatusChange.From.
type RequestStore interface {
	Create(ctx context.Context, r *model.ServiceRequest) error
	GetByID(ctx context.Context, id int64) (model.ServiceRequest, error)
	List(ctx context.Context, f model.RequestFilter) ([]model.ServiceRequest, error)
	TransitionStatus(ctx context.Context, ch model.StatusChange) error
	Assign(ctx context.Context, id int64, workshopID, workerID *int64, clearWorker bool) error
	History(ctx context.Context, requestID int64) ([]model.StatusHistory, error)
}

type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	ListByWorkshop(ctx context.Context, workshopID int64) ([]model.Review, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id int64) (model.Notification, error)
	List(ctx context.Context, f model.NotificationFilter) ([]model.Notification, error)
	MarkRead(ctx context.Context, id int64) (model.Notification, error)
}

type StatsStore interface {
	Totals(ctx context.Context) (model.StatsTotals, error)
	RequestsByStatus(ctx context.Context) (map[string]int64, error)
	RecentRequests(ctx context.Context, limit int) ([]model.RecentRequest, error)
}

// CachePurger drops cached public workshop responses after a write that
// changes them.  Purge failures are logged by the implementation, never
// returned to the caller.
type CachePurger interface {
	Purge(ctx context.Context)
}

type nopPurger struct{}

func (nopPurger) Purge(context.Context) {}
