package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/roadside-assist/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var requestCols = []string{"id", "userId", "workshopId", "name", "assignedWorkerId", "service", "status",
	"vehicle_make", "vehicle_model", "vehicle_year", "registration_number", "location_address",
	"lat", "lng", "notes", "urgency", "created_at", "updated_at"}

func requestRow(id int64, status string) []driver.Value {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return []driver.Value{id, int64(1), int64(5), "Downtown Garage", nil, "Battery Jump", status,
		"Honda", nil, nil, nil, nil, 12.97, 77.59, nil, "normal", now, now}
}

func TestRequestGetByIDScansJoinedRow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM service_requests sr").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(requestRow(9, "accepted")...))

	got, err := NewRequestRepo(db).GetByID(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != model.StatusAccepted {
		t.Fatalf("expected accepted, got %s", got.Status)
	}
	if got.WorkshopID == nil || *got.WorkshopID != 5 {
		t.Fatalf("expected workshopId 5, got %v", got.WorkshopID)
	}
	if got.WorkshopName == nil || *got.WorkshopName != "Downtown Garage" {
		t.Fatalf("expected joined workshop name, got %v", got.WorkshopName)
	}
	if got.AssignedWorkerID != nil {
		t.Fatalf("expected nil assigned worker, got %v", *got.AssignedWorkerID)
	}
	if got.VehicleMake == nil || *got.VehicleMake != "Honda" || got.VehicleModel != nil {
		t.Fatalf("unexpected vehicle fields: %v %v", got.VehicleMake, got.VehicleModel)
	}
	if got.Lat == nil || *got.Lat != 12.97 {
		t.Fatalf("expected lat 12.97, got %v", got.Lat)
	}
}

func TestRequestGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM service_requests sr").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(requestCols))

	_, err := NewRequestRepo(db).GetByID(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestCreateForcesPending(t *testing.T) {
	db, mock := newMock(t)
	ws := int64(5)
	req := &model.ServiceRequest{UserID: 1, WorkshopID: &ws, Service: "Battery Jump", Status: model.StatusCompleted, Urgency: model.UrgencyNormal}

	mock.ExpectExec("INSERT INTO service_requests").
		WithArgs(int64(1), int64(5), "Battery Jump", "pending",
			nil, nil, nil, nil, nil, nil, nil, nil, "normal").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery("FROM service_requests sr").
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(requestRow(11, "pending")...))

	if err := NewRequestRepo(db).Create(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ID != 11 || req.Status != model.StatusPending {
		t.Fatalf("expected id 11 pending, got %d %s", req.ID, req.Status)
	}
}

func TestTransitionStatusCommitsUpdateAndHistory(t *testing.T) {
	db, mock := newMock(t)
	worker := int64(3)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE service_requests").
		WithArgs("accepted", worker, int64(7), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO request_status_history").
		WithArgs(int64(7), "pending", "accepted", int64(3), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := NewRequestRepo(db).TransitionStatus(context.Background(), model.StatusChange{
		RequestID: 7, From: model.StatusPending, To: model.StatusAccepted, ActorID: 3, ClaimWorkerID: &worker,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransitionStatusStaleRollsBack(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE service_requests").
		WithArgs("accepted", nil, int64(7), "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewRequestRepo(db).TransitionStatus(context.Background(), model.StatusChange{
		RequestID: 7, From: model.StatusPending, To: model.StatusAccepted, ActorID: 1,
	})
	if !errors.Is(err, ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus, got %v", err)
	}
}

func TestTransitionStatusHistoryFailureRollsBack(t *testing.T) {
	db, mock := newMock(t)
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE service_requests").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO request_status_history").WillReturnError(boom)
	mock.ExpectRollback()

	err := NewRequestRepo(db).TransitionStatus(context.Background(), model.StatusChange{
		RequestID: 7, From: model.StatusAccepted, To: model.StatusInProgress, ActorID: 1,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected history error to surface, got %v", err)
	}
}

func TestRequestAssignCanClearWorker(t *testing.T) {
	db, mock := newMock(t)
	ws := int64(6)
	mock.ExpectExec(`UPDATE service_requests\s+SET workshopId = COALESCE\(\?, workshopId\),\s+assignedWorkerId = CASE WHEN \? THEN NULL`).
		WithArgs(int64(6), true, nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewRequestRepo(db).Assign(context.Background(), 7, &ws, nil, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestListBuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`sr\.userId = \? AND sr\.workshopId = \? AND sr\.status = \? ORDER BY sr\.created_at DESC`).
		WithArgs(int64(1), int64(5), "pending").
		WillReturnRows(sqlmock.NewRows(requestCols).
			AddRow(requestRow(2, "pending")...).
			AddRow(requestRow(1, "pending")...))

	got, err := NewRequestRepo(db).List(context.Background(), model.RequestFilter{UserID: 1, WorkshopID: 5, Status: model.StatusPending})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 {
		t.Fatalf("expected rows in query order, got %+v", got)
	}
}

func TestRequestHistoryScansNullableFrom(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("FROM request_status_history").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requestId", "from_status", "to_status", "changedByUserId", "notes", "created_at"}).
			AddRow(int64(1), int64(7), nil, "pending", nil, nil, now).
			AddRow(int64(2), int64(7), "pending", "accepted", int64(3), "on my way", now))

	got, err := NewRequestRepo(db).History(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].FromStatus != nil {
		t.Fatalf("expected nil from status on first row")
	}
	if got[1].FromStatus == nil || *got[1].FromStatus != model.StatusPending || got[1].ToStatus != model.StatusAccepted {
		t.Fatalf("unexpected second row: %+v", got[1])
	}
	if got[1].Notes == nil || *got[1].Notes != "on my way" {
		t.Fatalf("expected notes, got %v", got[1].Notes)
	}
}
