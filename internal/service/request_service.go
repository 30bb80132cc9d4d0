package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/roadside-assist/internal/geo"
	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/policy"
	"github.com/iliyamo/roadside-assist/internal/repository"
)

// RequestService runs the service-request lifecycle: creation, scoped
// listing, status transitions and admin reassignment.
type RequestService struct {
	requests    RequestStore
	workshops   WorkshopStore
	assignments AssignmentStore
	policy      *policy.Policy
	strict      bool
	log         *zap.Logger
}

// NewRequestService wires the stores.  With strict set, status changes must
// follow the lifecycle edges; without it any recognised status may follow
// any other, as older clients expect.
func NewRequestService(requests RequestStore, workshops WorkshopStore, assignments AssignmentStore, strict bool, log *zap.Logger) *RequestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RequestService{
		requests:    requests,
		workshops:   workshops,
		assignments: assignments,
		policy:      policy.New(assignments),
		strict:      strict,
		log:         log,
	}
}

// CreateRequestInput is the validated body of a new request.  UserID nil
// means "for the caller".
type CreateRequestInput struct {
	UserID             *int64
	WorkshopID         *int64
	Service            string
	VehicleMake        *string
	VehicleModel       *string
	VehicleYear        *string
	RegistrationNumber *string
	LocationAddress    *string
	Lat                *float64
	Lng                *float64
	Notes              *string
	Urgency            model.Urgency
}

// Create stores a new request.  Its status is always pending.
func (s *RequestService) Create(ctx context.Context, actor model.Actor, in CreateRequestInput) (model.ServiceRequest, error) {
	owner := actor.ID
	if in.UserID != nil {
		owner = *in.UserID
	}
	if err := policy.CanCreateRequest(actor, owner); err != nil {
		return model.ServiceRequest{}, err
	}

	name := strings.TrimSpace(in.Service)
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return model.ServiceRequest{}, invalid("service", "must be between 2 and 100 characters")
	}
	urgency := in.Urgency
	if urgency == "" {
		urgency = model.UrgencyNormal
	}
	if !urgency.Valid() {
		return model.ServiceRequest{}, invalid("urgency", "must be one of low, normal, high")
	}
	if (in.Lat == nil) != (in.Lng == nil) {
		return model.ServiceRequest{}, invalid("lat", "lat and lng must be given together")
	}
	if in.Lat != nil {
		if _, err := geo.FromNullable(in.Lat, in.Lng); err != nil {
			return model.ServiceRequest{}, invalid("lat", "coordinates out of range")
		}
	}
	if in.WorkshopID != nil {
		if _, err := s.workshops.GetByID(ctx, *in.WorkshopID); err != nil {
			return model.ServiceRequest{}, asValidation(err, "workshopId")
		}
	}

	req := model.ServiceRequest{
		UserID:             owner,
		WorkshopID:         in.WorkshopID,
		Service:            name,
		Status:             model.StatusPending,
		VehicleMake:        in.VehicleMake,
		VehicleModel:       in.VehicleModel,
		VehicleYear:        in.VehicleYear,
		RegistrationNumber: in.RegistrationNumber,
		LocationAddress:    in.LocationAddress,
		Lat:                in.Lat,
		Lng:                in.Lng,
		Notes:              in.Notes,
		Urgency:            urgency,
	}
	if err := s.requests.Create(ctx, &req); err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			// owner or workshop vanished between the check and the insert
			return model.ServiceRequest{}, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return model.ServiceRequest{}, err
	}
	s.log.Info("service request created",
		zap.Int64("request_id", req.ID), zap.Int64("user_id", owner), zap.String("service", name))
	return req, nil
}

// ListRequestsQuery carries the list filters.  Near and RadiusKm, when both
// set, keep only requests with coordinates inside the radius.
type ListRequestsQuery struct {
	Filter   model.RequestFilter
	Near     *geo.Point
	RadiusKm *float64
}

// List returns requests visible to actor, newest first.  Customers only see
// their own; workers see one workshop they serve, their primary one unless
// the filter names another.
func (s *RequestService) List(ctx context.Context, actor model.Actor, q ListRequestsQuery) ([]model.ServiceRequest, error) {
	f := q.Filter
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if (q.Near == nil) != (q.RadiusKm == nil) {
		return nil, invalid("radiusKm", "lat, lng and radiusKm must be given together")
	}
	if q.RadiusKm != nil && *q.RadiusKm < 0 {
		return nil, invalid("radiusKm", "must not be negative")
	}
	if q.Near != nil {
		if err := q.Near.Validate(); err != nil {
			return nil, err
		}
	}

	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleUser:
		if err := policy.CanListOwner(actor, f.UserID); err != nil {
			return nil, err
		}
		f.UserID = actor.ID
	case model.RoleWorker:
		if f.WorkshopID == 0 {
			w, err := s.workshops.PrimaryForWorker(ctx, actor.ID)
			if errors.Is(err, ErrNotFound) {
				return []model.ServiceRequest{}, nil
			}
			if err != nil {
				return nil, err
			}
			f.WorkshopID = w.ID
		} else if err := s.policy.CanListWorkshop(ctx, actor, f.WorkshopID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrForbidden
	}

	list, err := s.requests.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if q.Near == nil {
		return list, nil
	}
	out := make([]model.ServiceRequest, 0, len(list))
	for _, r := range list {
		p, err := geo.FromNullable(r.Lat, r.Lng)
		if err != nil {
			continue
		}
		if d, err := geo.Between(*q.Near, p); err == nil && d <= *q.RadiusKm {
			out = append(out, r)
		}
	}
	return out, nil
}

// Get returns one request if actor may see it.
func (s *RequestService) Get(ctx context.Context, actor model.Actor, id int64) (model.ServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return model.ServiceRequest{}, err
	}
	if err := s.policy.CanView(ctx, actor, req); err != nil {
		return model.ServiceRequest{}, err
	}
	return req, nil
}

// History returns the audit trail of a request visible to actor.
func (s *RequestService) History(ctx context.Context, actor model.Actor, id int64) ([]model.StatusHistory, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.requests.History(ctx, id)
}

// TransitionInput names the target status and optional audit notes.
type TransitionInput struct {
	Status model.Status
	Notes  *string
}

// Transition moves a request to in.Status.  Checks run in this order:
// recognised status, request exists, actor allowed, then the lifecycle edge.
// Asking for the current status is a no-op that writes nothing.  A worker
// accepting an unclaimed request becomes its assigned worker.
func (s *RequestService) Transition(ctx context.Context, actor model.Actor, id int64, in TransitionInput) (model.ServiceRequest, error) {
	if !in.Status.Valid() {
		return model.ServiceRequest{}, ErrInvalidStatus
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return model.ServiceRequest{}, err
	}
	if err := s.policy.CanTransition(ctx, actor, req); err != nil {
		return model.ServiceRequest{}, err
	}
	if req.Status == in.Status {
		return req, nil
	}
	if s.strict && !CanMove(req.Status, in.Status) {
		return model.ServiceRequest{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, req.Status, in.Status)
	}

	ch := model.StatusChange{
		RequestID: id,
		From:      req.Status,
		To:        in.Status,
		ActorID:   actor.ID,
		Notes:     in.Notes,
	}
	if actor.Role == model.RoleWorker && in.Status == model.StatusAccepted {
		claim := actor.ID
		ch.ClaimWorkerID = &claim
	}
	if err := s.requests.TransitionStatus(ctx, ch); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			staleTransitions.Inc()
			return model.ServiceRequest{}, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return model.ServiceRequest{}, err
	}
	statusTransitions.WithLabelValues(string(ch.From), string(ch.To), string(actor.Role)).Inc()
	s.log.Info("service request status changed",
		zap.Int64("request_id", id),
		zap.String("from", string(ch.From)),
		zap.String("to", string(ch.To)),
		zap.Int64("actor_id", actor.ID))

	return s.requests.GetByID(ctx, id)
}

// AssignInput names the new workshop and/or worker.  At least one is set.
type AssignInput struct {
	WorkshopID *int64
	WorkerID   *int64
}

// Assign lets an admin attach a request to a workshop and/or a worker.  The
// worker must be actively assigned to the request's (new) workshop.
func (s *RequestService) Assign(ctx context.Context, actor model.Actor, id int64, in AssignInput) (model.ServiceRequest, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return model.ServiceRequest{}, err
	}
	if in.WorkshopID == nil && in.WorkerID == nil {
		return model.ServiceRequest{}, invalid("workshopId", "workshopId or workerId is required")
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return model.ServiceRequest{}, err
	}
	if req.Status.Terminal() {
		return model.ServiceRequest{}, fmt.Errorf("%w: request is %s", ErrConflict, req.Status)
	}

	workshopID := req.WorkshopID
	if in.WorkshopID != nil {
		if _, err := s.workshops.GetByID(ctx, *in.WorkshopID); err != nil {
			return model.ServiceRequest{}, asValidation(err, "workshopId")
		}
		workshopID = in.WorkshopID
	}
	if in.WorkerID != nil {
		if workshopID == nil {
			return model.ServiceRequest{}, invalid("workerId", "request has no workshop")
		}
		ok, err := s.assignments.HasActive(ctx, *in.WorkerID, *workshopID)
		if err != nil {
			return model.ServiceRequest{}, err
		}
		if !ok {
			return model.ServiceRequest{}, invalid("workerId", "worker is not assigned to the workshop")
		}
	}

	// Moving the request without naming a worker keeps the current one only
	// if they also serve the new workshop.
	clearWorker := false
	if in.WorkerID == nil && in.WorkshopID != nil && req.AssignedWorkerID != nil {
		ok, err := s.assignments.HasActive(ctx, *req.AssignedWorkerID, *in.WorkshopID)
		if err != nil {
			return model.ServiceRequest{}, err
		}
		if !ok {
			clearWorker = true
			s.log.Info("assigned worker dropped on workshop change",
				zap.Int64("request_id", id), zap.Int64("worker_id", *req.AssignedWorkerID), zap.Int64("workshop_id", *in.WorkshopID))
		}
	}

	if err := s.requests.Assign(ctx, id, in.WorkshopID, in.WorkerID, clearWorker); err != nil {
		return model.ServiceRequest{}, err
	}
	return s.requests.GetByID(ctx, id)
}
