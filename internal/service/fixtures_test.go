package service

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/storetest"
	"github.com/iliyamo/roadside-assist/internal/utils"
)

var (
	_ UserStore         = (*storetest.Users)(nil)
	_ WorkshopStore     = (*storetest.Workshops)(nil)
	_ AssignmentStore   = (*storetest.Assignments)(nil)
	_ RequestStore      = (*storetest.Requests)(nil)
	_ ReviewStore       = (*storetest.Reviews)(nil)
	_ NotificationStore = (*storetest.Notifications)(nil)
	_ StatsStore        = (*storetest.Stats)(nil)
)

// fixture is a small world: one customer, one worker assigned to workshop
// "Downtown", one unassigned worker, one admin, and a second workshop.
type fixture struct {
	db       *storetest.DB
	customer model.Actor
	worker   model.Actor
	idle     model.Actor
	admin    model.Actor
	shop     model.Workshop
	other    model.Workshop
	purges   *countingPurger
}

type countingPurger struct{ n int }

func (p *countingPurger) Purge(context.Context) { p.n++ }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := storetest.New()
	f := &fixture{db: db, purges: &countingPurger{}}

	mkUser := func(phone string, role model.Role) model.Actor {
		u := model.User{Phone: phone, Role: role, PasswordHash: "x"}
		if err := db.Users().Create(ctx, &u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		return model.Actor{ID: u.ID, Role: u.Role}
	}
	f.customer = mkUser("+910000000001", model.RoleUser)
	f.worker = mkUser("+910000000002", model.RoleWorker)
	f.idle = mkUser("+910000000003", model.RoleWorker)
	f.admin = mkUser("+910000000004", model.RoleAdmin)

	f.shop = model.Workshop{Name: "Downtown", Address: "MG Road", Lat: 12.9716, Lng: 77.5946, IsOpen: true,
		Services: []string{"Battery Jump", "Towing"}}
	if err := db.Workshops().Create(ctx, &f.shop); err != nil {
		t.Fatalf("create workshop: %v", err)
	}
	f.other = model.Workshop{Name: "Hosur", Address: "Hosur Rd", Lat: 12.9, Lng: 77.65, IsOpen: true,
		Services: []string{"Towing"}}
	if err := db.Workshops().Create(ctx, &f.other); err != nil {
		t.Fatalf("create workshop: %v", err)
	}

	a := model.WorkerAssignment{UserID: f.worker.ID, WorkshopID: f.shop.ID, IsPrimary: true}
	if err := db.Assignments().Create(ctx, &a); err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return f
}

func (f *fixture) requests(strict bool) *RequestService {
	return NewRequestService(f.db.Requests(), f.db.Workshops(), f.db.Assignments(), strict, nil)
}

func (f *fixture) workshops() *WorkshopService {
	return NewWorkshopService(f.db.Workshops(), f.db.Reviews(), nil)
}

func (f *fixture) admins() *AdminService {
	return NewAdminService(f.db.Users(), f.db.Workshops(), f.db.Assignments(), f.db.Stats(), f.purges, nil)
}

func (f *fixture) auth(adminSecret string) *AuthService {
	return NewAuthService(f.db.Users(), utils.NewPasswordHasher(4), utils.NewTokenIssuer("test-secret", 7*24*time.Hour), adminSecret, nil)
}

// newRequest files a pending request at the Downtown workshop.
func (f *fixture) newRequest(t *testing.T) model.ServiceRequest {
	t.Helper()
	ws := f.shop.ID
	req, err := f.requests(true).Create(context.Background(), f.customer, CreateRequestInput{Service: "Battery Jump", WorkshopID: &ws})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }
