package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/roadside-assist/internal/geo"
	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/policy"
	"github.com/iliyamo/roadside-assist/internal/repository"
)

const recentRequestsLimit = 10

// AdminService covers the dashboard and the management of users,
// workshops and worker assignments.  Every method requires an admin actor.
type AdminService struct {
	users       UserStore
	workshops   WorkshopStore
	assignments AssignmentStore
	stats       StatsStore
	cache       CachePurger
	log         *zap.Logger
}

func NewAdminService(users UserStore, workshops WorkshopStore, assignments AssignmentStore, stats StatsStore, cache CachePurger, log *zap.Logger) *AdminService {
	if cache == nil {
		cache = nopPurger{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminService{users: users, workshops: workshops, assignments: assignments, stats: stats, cache: cache, log: log}
}

// Stats runs the three dashboard queries concurrently.
func (s *AdminService) Stats(ctx context.Context, actor model.Actor) (model.AdminStats, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return model.AdminStats{}, err
	}
	var out model.AdminStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.stats.Totals(gctx)
		out.Totals = t
		return err
	})
	g.Go(func() error {
		m, err := s.stats.RequestsByStatus(gctx)
		out.RequestsByStatus = m
		return err
	})
	g.Go(func() error {
		r, err := s.stats.RecentRequests(gctx, recentRequestsLimit)
		out.RecentRequests = r
		return err
	})
	if err := g.Wait(); err != nil {
		return model.AdminStats{}, err
	}
	return out, nil
}

// --- users ---

func (s *AdminService) ListUsers(ctx context.Context, actor model.Actor, f model.UserFilter) ([]model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if f.Role != "" && !f.Role.Valid() {
		return nil, invalid("role", "must be one of user, worker, admin")
	}
	return s.users.List(ctx, f)
}

// UpdateUser edits profile fields.  Role is immutable and not accepted.
func (s *AdminService) UpdateUser(ctx context.Context, actor model.Actor, id int64, p model.UserPatch) (model.User, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return model.User{}, err
	}
	return s.users.Update(ctx, id, p)
}

// DeleteUser removes a user and, by cascade, their requests.  Admins cannot
// delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actor model.Actor, id int64) error {
	if err := policy.RequireAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return fmt.Errorf("%w: cannot delete yourself", ErrConflict)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Int64("user_id", id), zap.Int64("admin_id", actor.ID))
	return nil
}

// --- workshops ---

// WorkshopInput is the validated body for creating a workshop.
type WorkshopInput struct {
	Name      string
	Address   string
	Lat       float64
	Lng       float64
	IsOpen    *bool
	OpenTime  string
	CloseTime string
	Services  []string
}

func (s *AdminService) CreateWorkshop(ctx context.Context, actor model.Actor, in WorkshopInput) (model.Workshop, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return model.Workshop{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Workshop{}, invalid("name", "is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		return model.Workshop{}, invalid("address", "is required")
	}
	if err := (geo.Point{Lat: in.Lat, Lng: in.Lng}).Validate(); err != nil {
		return model.Workshop{}, err
	}
	open := true
	if in.IsOpen != nil {
		open = *in.IsOpen
	}
	w := model.Workshop{
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
		Lat:       in.Lat,
		Lng:       in.Lng,
		IsOpen:    open,
		OpenTime:  in.OpenTime,
		CloseTime: in.CloseTime,
		Services:  cleanServices(in.Services),
	}
	if err := s.workshops.Create(ctx, &w); err != nil {
		return model.Workshop{}, err
	}
	s.cache.Purge(ctx)
	return w, nil
}

func (s *AdminService) UpdateWorkshop(ctx context.Context, actor model.Actor, id int64, p model.WorkshopPatch) (model.Workshop, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return model.Workshop{}, err
	}
	cur, err := s.workshops.GetByID(ctx, id)
	if err != nil {
		return model.Workshop{}, err
	}
	lat, lng := cur.Lat, cur.Lng
	if p.Lat != nil {
		lat = *p.Lat
	}
	if p.Lng != nil {
		lng = *p.Lng
	}
	if err := (geo.Point{Lat: lat, Lng: lng}).Validate(); err != nil {
		return model.Workshop{}, err
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return model.Workshop{}, invalid("name", "must not be empty")
	}
	if p.Services != nil {
		p.Services = cleanServices(p.Services)
	}
	w, err := s.workshops.Update(ctx, id, p)
	if err != nil {
		return model.Workshop{}, err
	}
	s.cache.Purge(ctx)
	return w, nil
}

func (s *AdminService) DeleteWorkshop(ctx context.Context, actor model.Actor, id int64) error {
	if err := policy.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.workshops.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Purge(ctx)
	s.log.Info("workshop deleted", zap.Int64("workshop_id", id), zap.Int64("admin_id", actor.ID))
	return nil
}

// cleanServices trims names and drops blanks and duplicates, keeping order.
func cleanServices(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// --- assignments ---

func (s *AdminService) ListWorkers(ctx context.Context, actor model.Actor, workshopID int64, activeOnly bool) ([]model.WorkerAssignment, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return nil, err
	}
	f := model.AssignmentFilter{WorkshopID: workshopID}
	if activeOnly {
		active := true
		f.Active = &active
	}
	return s.assignments.List(ctx, f)
}

// AssignWorker binds a worker-role user to a workshop.  Holding an active
// assignment to the same workshop already is a conflict.
func (s *AdminService) AssignWorker(ctx context.Context, actor model.Actor, workshopID, userID int64, primary bool) (model.WorkerAssignment, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return model.WorkerAssignment{}, err
	}
	if _, err := s.workshops.GetByID(ctx, workshopID); err != nil {
		return model.WorkerAssignment{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.WorkerAssignment{}, asValidation(err, "userId")
	}
	if u.Role != model.RoleWorker {
		return model.WorkerAssignment{}, invalid("userId", "user is not a worker")
	}
	ok, err := s.assignments.HasActive(ctx, userID, workshopID)
	if err != nil {
		return model.WorkerAssignment{}, err
	}
	if ok {
		return model.WorkerAssignment{}, fmt.Errorf("%w: worker already assigned to workshop", ErrConflict)
	}

	a := model.WorkerAssignment{UserID: userID, WorkshopID: workshopID, IsPrimary: primary}
	if err := s.assignments.Create(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrConstraint) {
			return model.WorkerAssignment{}, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return model.WorkerAssignment{}, err
	}
	s.log.Info("worker assigned",
		zap.Int64("assignment_id", a.ID), zap.Int64("user_id", userID), zap.Int64("workshop_id", workshopID))
	return a, nil
}

// EndAssignment soft-deletes an assignment; the row stays for audit.
func (s *AdminService) EndAssignment(ctx context.Context, actor model.Actor, id int64) (model.WorkerAssignment, error) {
	if err := policy.RequireAdmin(actor); err != nil {
		return model.WorkerAssignment{}, err
	}
	if _, err := s.assignments.GetByID(ctx, id); err != nil {
		return model.WorkerAssignment{}, err
	}
	return s.assignments.End(ctx, id)
}
