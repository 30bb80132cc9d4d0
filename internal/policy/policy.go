// Package policy decides who may see and change service requests and the
// admin-only entities.  It only reads: every check either returns nil or
// ErrForbidden (or a lookup error) and never mutates state.
package policy

import (
	"context"
	"errors"

	"github.com/iliyamo/roadside-assist/internal/model"
)

// ErrForbidden means the actor's role or assignments do not allow the action.
var ErrForbidden = errors.New("forbidden")

// AssignmentLookup answers whether a worker currently serves a workshop.
type AssignmentLookup interface {
	HasActive(ctx context.Context, userID, workshopID int64) (bool, error)
}

// Policy evaluates the request rules against live assignment data.
type Policy struct {
	assignments AssignmentLookup
}

func New(assignments AssignmentLookup) *Policy {
	return &Policy{assignments: assignments}
}

// CanTransition allows admins always and workers only on requests linked to
// a workshop they are actively assigned to.  Customers never change status.
func (p *Policy) CanTransition(ctx context.Context, actor model.Actor, req model.ServiceRequest) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleWorker:
		if req.WorkshopID == nil {
			return ErrForbidden
		}
		return p.requireAssignment(ctx, actor.ID, *req.WorkshopID)
	default:
		return ErrForbidden
	}
}

// CanView lets customers see their own requests and workers see requests of
// their workshops or ones they were assigned to personally.
func (p *Policy) CanView(ctx context.Context, actor model.Actor, req model.ServiceRequest) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleUser:
		if req.UserID == actor.ID {
			return nil
		}
		return ErrForbidden
	case model.RoleWorker:
		if req.AssignedWorkerID != nil && *req.AssignedWorkerID == actor.ID {
			return nil
		}
		if req.WorkshopID == nil {
			return ErrForbidden
		}
		return p.requireAssignment(ctx, actor.ID, *req.WorkshopID)
	default:
		return ErrForbidden
	}
}

// CanListWorkshop gates a worker's request listing for one workshop.
func (p *Policy) CanListWorkshop(ctx context.Context, actor model.Actor, workshopID int64) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleWorker:
		return p.requireAssignment(ctx, actor.ID, workshopID)
	default:
		return ErrForbidden
	}
}

func (p *Policy) requireAssignment(ctx context.Context, userID, workshopID int64) error {
	ok, err := p.assignments.HasActive(ctx, userID, workshopID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// CanCreateRequest lets customers file requests for themselves and admins
// file them for anyone.
func CanCreateRequest(actor model.Actor, ownerID int64) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleUser:
		if ownerID == actor.ID {
			return nil
		}
	}
	return ErrForbidden
}

// CanListOwner restricts a customer's listing to their own requests.
func CanListOwner(actor model.Actor, ownerID int64) error {
	if actor.Role == model.RoleUser && ownerID != 0 && ownerID != actor.ID {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin guards workshop, user and assignment management.
func RequireAdmin(actor model.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// CanReview lets only the request's owner review it.
func CanReview(actor model.Actor, req model.ServiceRequest) error {
	if req.UserID == actor.ID {
		return nil
	}
	return ErrForbidden
}

// CanReadNotification lets users touch their own notifications; admins may
// touch any.
func CanReadNotification(actor model.Actor, n model.Notification) error {
	if actor.IsAdmin() || n.UserID == actor.ID {
		return nil
	}
	return ErrForbidden
}
