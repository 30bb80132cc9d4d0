// Package storetest provides in-memory implementations of the service store
// interfaces.  They follow the MySQL repositories closely enough for unit
// tests: sentinel errors, newest-first ordering, the conditional status
// update and the review rating recompute.
package storetest

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/roadside-assist/internal/model"
	"github.com/iliyamo/roadside-assist/internal/repository"
)

// DB is the shared in-memory state.  Use its accessors to get per-table
// stores; all of them lock the same mutex.
type DB struct {
	mu sync.Mutex

	seq   int64
	clock time.Time

	users         map[int64]model.User
	workshops     map[int64]model.Workshop
	assignments   map[int64]model.WorkerAssignment
	requests      map[int64]model.ServiceRequest
	history       []model.StatusHistory
	reviews       map[int64]model.Review
	notifications map[int64]model.Notification

	// BeforeTransition, when set, runs inside TransitionStatus before the
	// status check.  Tests use it to simulate a concurrent writer.
	BeforeTransition func(db *DB, id int64)
}

func New() *DB {
	return &DB{
		clock:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:         map[int64]model.User{},
		workshops:     map[int64]model.Workshop{},
		assignments:   map[int64]model.WorkerAssignment{},
		requests:      map[int64]model.ServiceRequest{},
		reviews:       map[int64]model.Review{},
		notifications: map[int64]model.Notification{},
	}
}

// next returns a fresh id and a strictly increasing timestamp.  Callers hold mu.
func (db *DB) next() (int64, time.Time) {
	db.seq++
	db.clock = db.clock.Add(time.Second)
	return db.seq, db.clock
}

func (db *DB) Users() *Users                 { return &Users{db} }
func (db *DB) Workshops() *Workshops         { return &Workshops{db} }
func (db *DB) Assignments() *Assignments     { return &Assignments{db} }
func (db *DB) Requests() *Requests           { return &Requests{db} }
func (db *DB) Reviews() *Reviews             { return &Reviews{db} }
func (db *DB) Notifications() *Notifications { return &Notifications{db} }
func (db *DB) Stats() *Stats                 { return &Stats{db} }

// SetStatusLocked overwrites a request's status without checks or history.
// It expects mu to be held, as it is inside BeforeTransition hooks.
func (db *DB) SetStatusLocked(id int64, s model.Status) {
	r := db.requests[id]
	r.Status = s
	db.requests[id] = r
}

// HistoryRows returns every history row recorded so far.
func (db *DB) HistoryRows() []model.StatusHistory {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]model.StatusHistory, len(db.history))
	copy(out, db.history)
	return out
}

// ---- users ----

type Users struct{ db *DB }

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if existing.Phone == u.Phone {
			return repository.ErrConstraint
		}
	}
	id, now := s.db.next()
	u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
	s.db.users[id] = *u
	return nil
}

func (s *Users) GetByID(_ context.Context, id int64) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Users) GetByPhone(_ context.Context, phone string) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Users) List(_ context.Context, f model.UserFilter) ([]model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.User{}
	for _, u := range s.db.users {
		if f.Role == "" || u.Role == f.Role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Users) Update(_ context.Context, id int64, p model.UserPatch) (model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if p.Name != nil {
		u.Name = p.Name
	}
	if p.Email != nil {
		u.Email = p.Email
	}
	s.db.users[id] = u
	return u, nil
}

// Delete mimics ON DELETE CASCADE / SET NULL from the schema.
func (s *Users) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.users, id)
	for rid, r := range s.db.requests {
		if r.UserID == id {
			delete(s.db.requests, rid)
			continue
		}
		if r.AssignedWorkerID != nil && *r.AssignedWorkerID == id {
			r.AssignedWorkerID = nil
			s.db.requests[rid] = r
		}
	}
	for aid, a := range s.db.assignments {
		if a.UserID == id {
			delete(s.db.assignments, aid)
		}
	}
	for nid, n := range s.db.notifications {
		if n.UserID == id {
			delete(s.db.notifications, nid)
		}
	}
	return nil
}

// ---- workshops ----

type Workshops struct{ db *DB }

func (s *Workshops) Create(_ context.Context, w *model.Workshop) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id, now := s.db.next()
	w.ID, w.CreatedAt, w.UpdatedAt = id, now, now
	if w.Rating == 0 && w.Reviews == 0 {
		w.Rating = 4.2
	}
	if w.OpenTime == "" {
		w.OpenTime = "09:00"
	}
	if w.CloseTime == "" {
		w.CloseTime = "21:00"
	}
	if w.Services == nil {
		w.Services = []string{}
	}
	w.DistanceKm = nil
	s.db.workshops[id] = *w
	return nil
}

func (s *Workshops) GetByID(_ context.Context, id int64) (model.Workshop, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	w, ok := s.db.workshops[id]
	if !ok {
		return model.Workshop{}, repository.ErrNotFound
	}
	return w, nil
}

func (s *Workshops) List(_ context.Context, f model.WorkshopFilter) ([]model.Workshop, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Workshop{}
	for _, w := range s.db.workshops {
		if f.IsOpen == nil || w.IsOpen == *f.IsOpen {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Workshops) Update(_ context.Context, id int64, p model.WorkshopPatch) (model.Workshop, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	w, ok := s.db.workshops[id]
	if !ok {
		return model.Workshop{}, repository.ErrNotFound
	}
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Address != nil {
		w.Address = *p.Address
	}
	if p.Lat != nil {
		w.Lat = *p.Lat
	}
	if p.Lng != nil {
		w.Lng = *p.Lng
	}
	if p.IsOpen != nil {
		w.IsOpen = *p.IsOpen
	}
	if p.OpenTime != nil {
		w.OpenTime = *p.OpenTime
	}
	if p.CloseTime != nil {
		w.CloseTime = *p.CloseTime
	}
	if p.Services != nil {
		w.Services = append([]string{}, p.Services...)
	}
	s.db.workshops[id] = w
	return w, nil
}

func (s *Workshops) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.workshops[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.db.workshops, id)
	for rid, r := range s.db.requests {
		if r.WorkshopID != nil && *r.WorkshopID == id {
			r.WorkshopID, r.WorkshopName = nil, nil
			s.db.requests[rid] = r
		}
	}
	for aid, a := range s.db.assignments {
		if a.WorkshopID == id {
			delete(s.db.assignments, aid)
		}
	}
	return nil
}

func (s *Workshops) PrimaryForWorker(_ context.Context, userID int64) (model.Workshop, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	active := s.db.activeAssignments(userID)
	for _, a := range active {
		if w, ok := s.db.workshops[a.WorkshopID]; ok {
			return w, nil
		}
	}
	return model.Workshop{}, repository.ErrNotFound
}

// ---- assignments ----

type Assignments struct{ db *DB }

// activeAssignments orders like the SQL: primary first, newest first.
func (db *DB) activeAssignments(userID int64) []model.WorkerAssignment {
	var out []model.WorkerAssignment
	for _, a := range db.assignments {
		if a.UserID == userID && a.Active {
			out = append(out, a)
		}
	}
	sortAssignments(out)
	return out
}

func sortAssignments(list []model.WorkerAssignment) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].IsPrimary != list[j].IsPrimary {
			return list[i].IsPrimary
		}
		if !list[i].AssignedAt.Equal(list[j].AssignedAt) {
			return list[i].AssignedAt.After(list[j].AssignedAt)
		}
		return list[i].ID > list[j].ID
	})
}

func (s *Assignments) Create(_ context.Context, a *model.WorkerAssignment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[a.UserID]
	if !ok {
		return repository.ErrConstraint
	}
	if _, ok := s.db.workshops[a.WorkshopID]; !ok {
		return repository.ErrConstraint
	}
	id, now := s.db.next()
	a.ID, a.AssignedAt, a.Active, a.EndedAt = id, now, true, nil
	a.WorkerName, a.WorkerPhone = u.Name, u.Phone
	s.db.assignments[id] = *a
	return nil
}

func (s *Assignments) GetByID(_ context.Context, id int64) (model.WorkerAssignment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.assignments[id]
	if !ok {
		return model.WorkerAssignment{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *Assignments) List(_ context.Context, f model.AssignmentFilter) ([]model.WorkerAssignment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.WorkerAssignment{}
	for _, a := range s.db.assignments {
		if f.UserID > 0 && a.UserID != f.UserID {
			continue
		}
		if f.WorkshopID > 0 && a.WorkshopID != f.WorkshopID {
			continue
		}
		if f.Active != nil && a.Active != *f.Active {
			continue
		}
		out = append(out, a)
	}
	sortAssignments(out)
	return out, nil
}

func (s *Assignments) End(_ context.Context, id int64) (model.WorkerAssignment, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.assignments[id]
	if !ok {
		return model.WorkerAssignment{}, repository.ErrNotFound
	}
	if a.EndedAt == nil {
		_, now := s.db.next()
		a.EndedAt = &now
	}
	a.Active = false
	s.db.assignments[id] = a
	return a, nil
}

func (s *Assignments) HasActive(_ context.Context, userID, workshopID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, a := range s.db.assignments {
		if a.UserID == userID && a.WorkshopID == workshopID && a.Active {
			return true, nil
		}
	}
	return false, nil
}

// ---- requests ----

type Requests struct{ db *DB }

// joined fills WorkshopName the way the LEFT JOIN does.  Callers hold mu.
func (db *DB) joined(r model.ServiceRequest) model.ServiceRequest {
	r.WorkshopName = nil
	if r.WorkshopID != nil {
		if w, ok := db.workshops[*r.WorkshopID]; ok {
			name := w.Name
			r.WorkshopName = &name
		}
	}
	return r
}

func (s *Requests) Create(_ context.Context, r *model.ServiceRequest) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[r.UserID]; !ok {
		return repository.ErrConstraint
	}
	if r.WorkshopID != nil {
		if _, ok := s.db.workshops[*r.WorkshopID]; !ok {
			return repository.ErrConstraint
		}
	}
	id, now := s.db.next()
	r.ID, r.CreatedAt, r.UpdatedAt = id, now, now
	r.Status = model.StatusPending
	if r.Urgency == "" {
		r.Urgency = model.UrgencyNormal
	}
	s.db.requests[id] = *r
	*r = s.db.joined(*r)
	return nil
}

func (s *Requests) GetByID(_ context.Context, id int64) (model.ServiceRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.requests[id]
	if !ok {
		return model.ServiceRequest{}, repository.ErrNotFound
	}
	return s.db.joined(r), nil
}

func (s *Requests) List(_ context.Context, f model.RequestFilter) ([]model.ServiceRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.ServiceRequest{}
	for _, r := range s.db.requests {
		if f.UserID > 0 && r.UserID != f.UserID {
			continue
		}
		if f.WorkshopID > 0 && (r.WorkshopID == nil || *r.WorkshopID != f.WorkshopID) {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		out = append(out, s.db.joined(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// TransitionStatus applies the change only while the stored status equals
// ch.From, like the conditional UPDATE.
func (s *Requests) TransitionStatus(_ context.Context, ch model.StatusChange) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.BeforeTransition != nil {
		s.db.BeforeTransition(s.db, ch.RequestID)
	}
	r, ok := s.db.requests[ch.RequestID]
	if !ok || r.Status != ch.From {
		return repository.ErrStaleStatus
	}
	hid, now := s.db.next()
	r.Status = ch.To
	r.UpdatedAt = now
	if r.AssignedWorkerID == nil && ch.ClaimWorkerID != nil {
		w := *ch.ClaimWorkerID
		r.AssignedWorkerID = &w
	}
	s.db.requests[ch.RequestID] = r

	from := ch.From
	actor := ch.ActorID
	s.db.history = append(s.db.history, model.StatusHistory{
		ID:              hid,
		RequestID:       ch.RequestID,
		FromStatus:      &from,
		ToStatus:        ch.To,
		ChangedByUserID: &actor,
		Notes:           ch.Notes,
		CreatedAt:       now,
	})
	return nil
}

func (s *Requests) Assign(_ context.Context, id int64, workshopID, workerID *int64, clearWorker bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.requests[id]
	if !ok {
		return nil
	}
	if workshopID != nil {
		if _, ok := s.db.workshops[*workshopID]; !ok {
			return repository.ErrConstraint
		}
		v := *workshopID
		r.WorkshopID = &v
	}
	switch {
	case clearWorker:
		r.AssignedWorkerID = nil
	case workerID != nil:
		v := *workerID
		r.AssignedWorkerID = &v
	}
	_, r.UpdatedAt = s.db.next()
	s.db.requests[id] = r
	return nil
}

func (s *Requests) History(_ context.Context, requestID int64) ([]model.StatusHistory, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.StatusHistory{}
	for _, h := range s.db.history {
		if h.RequestID == requestID {
			out = append(out, h)
		}
	}
	return out, nil
}

// ---- reviews ----

type Reviews struct{ db *DB }

func (s *Reviews) Create(_ context.Context, rv *model.Review) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.reviews {
		if existing.RequestID == rv.RequestID && existing.UserID == rv.UserID {
			return repository.ErrConstraint
		}
	}
	w, ok := s.db.workshops[rv.WorkshopID]
	if !ok {
		return repository.ErrConstraint
	}
	id, now := s.db.next()
	rv.ID, rv.CreatedAt = id, now
	s.db.reviews[id] = *rv

	var sum, n int
	for _, r := range s.db.reviews {
		if r.WorkshopID == rv.WorkshopID {
			sum += r.Rating
			n++
		}
	}
	w.Rating = math.Round(float64(sum)/float64(n)*10) / 10
	w.Reviews = n
	s.db.workshops[w.ID] = w
	return nil
}

func (s *Reviews) ListByWorkshop(_ context.Context, workshopID int64) ([]model.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Review{}
	for _, r := range s.db.reviews {
		if r.WorkshopID == workshopID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ---- notifications ----

type Notifications struct{ db *DB }

func (s *Notifications) Create(_ context.Context, n *model.Notification) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[n.UserID]; !ok {
		return repository.ErrConstraint
	}
	id, now := s.db.next()
	n.ID, n.CreatedAt, n.IsRead, n.ReadAt = id, now, false, nil
	s.db.notifications[id] = *n
	return nil
}

func (s *Notifications) GetByID(_ context.Context, id int64) (model.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n, ok := s.db.notifications[id]
	if !ok {
		return model.Notification{}, repository.ErrNotFound
	}
	return n, nil
}

func (s *Notifications) List(_ context.Context, f model.NotificationFilter) ([]model.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []model.Notification{}
	for _, n := range s.db.notifications {
		if f.UserID > 0 && n.UserID != f.UserID {
			continue
		}
		if f.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Notifications) MarkRead(_ context.Context, id int64) (model.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n, ok := s.db.notifications[id]
	if !ok {
		return model.Notification{}, repository.ErrNotFound
	}
	if n.ReadAt == nil {
		_, now := s.db.next()
		n.ReadAt = &now
	}
	n.IsRead = true
	s.db.notifications[id] = n
	return n, nil
}

// ---- stats ----

type Stats struct{ db *DB }

func (s *Stats) Totals(context.Context) (model.StatsTotals, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return model.StatsTotals{
		Users:     int64(len(s.db.users)),
		Workshops: int64(len(s.db.workshops)),
		Requests:  int64(len(s.db.requests)),
	}, nil
}

func (s *Stats) RequestsByStatus(context.Context) (map[string]int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := map[string]int64{}
	for _, r := range s.db.requests {
		out[string(r.Status)]++
	}
	return out, nil
}

func (s *Stats) RecentRequests(_ context.Context, limit int) ([]model.RecentRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	list := make([]model.ServiceRequest, 0, len(s.db.requests))
	for _, r := range s.db.requests {
		list = append(list, s.db.joined(r))
	}
	users := s.db.users
	sort.Slice(list, func(i, j int) bool { return list[i].ID > list[j].ID })
	out := []model.RecentRequest{}
	for i, r := range list {
		if i == limit {
			break
		}
		rr := model.RecentRequest{ID: r.ID, Service: r.Service, Status: r.Status, CreatedAt: r.CreatedAt, WorkshopName: r.WorkshopName}
		if u, ok := users[r.UserID]; ok {
			phone := u.Phone
			rr.UserPhone = &phone
		}
		out = append(out, rr)
	}
	return out, nil
}
