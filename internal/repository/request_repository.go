package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/roadside-assist/internal/model"
)

// RequestRepo owns service_requests and its append-only audit table
// request_status_history.  Status changes go through TransitionStatus only,
// which writes both tables in one transaction.
type RequestRepo struct {
	db *sql.DB
}

// NewRequestRepo returns a new RequestRepo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

// requestSelect joins the workshop name used for display.  urgency is
// nullable in legacy rows and defaults to normal on read.
const requestSelect = `SELECT sr.id, sr.userId, sr.workshopId, w.name, sr.assignedWorkerId, sr.service, sr.status,
       sr.vehicle_make, sr.vehicle_model, sr.vehicle_year, sr.registration_number, sr.location_address,
       sr.lat, sr.lng, sr.notes, COALESCE(sr.urgency, 'normal'), sr.created_at, sr.updated_at
  FROM service_requests sr
  LEFT JOIN workshops w ON w.id = sr.workshopId`

func scanRequest(s scanner) (model.ServiceRequest, error) {
	var r model.ServiceRequest
	err := s.Scan(&r.ID, &r.UserID, &r.WorkshopID, &r.WorkshopName, &r.AssignedWorkerID, &r.Service, &r.Status,
		&r.VehicleMake, &r.VehicleModel, &r.VehicleYear, &r.RegistrationNumber, &r.LocationAddress,
		&r.Lat, &r.Lng, &r.Notes, &r.Urgency, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// Create inserts req with status pending, whatever req.Status holds, and
// replaces *req with the stored row joined with the workshop name.
func (r *RequestRepo) Create(ctx context.Context, req *model.ServiceRequest) error {
	const q = `INSERT INTO service_requests
	  (userId, workshopId, service, status, vehicle_make, vehicle_model, vehicle_year, registration_number,
	   location_address, lat, lng, notes, urgency)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q,
		req.UserID, req.WorkshopID, req.Service, model.StatusPending,
		req.VehicleMake, req.VehicleModel, req.VehicleYear, req.RegistrationNumber,
		req.LocationAddress, req.Lat, req.Lng, req.Notes, req.Urgency)
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
	*req = created
	return nil
}

// GetByID returns the joined request or ErrNotFound.
func (r *RequestRepo) GetByID(ctx context.Context, id int64) (model.ServiceRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, requestSelect+" WHERE sr.id = ?", id))
	return req, classify(err)
}

// List applies the equality filters in f and returns newest first.
func (r *RequestRepo) List(ctx context.Context, f model.RequestFilter) ([]model.ServiceRequest, error) {
	q := requestSelect + " WHERE 1=1"
	var args []any
	if f.UserID > 0 {
		q += " AND sr.userId = ?"
		args = append(args, f.UserID)
	}
	if f.WorkshopID > 0 {
		q += " AND sr.workshopId = ?"
		args = append(args, f.WorkshopID)
	}
	if f.Status != "" {
		q += " AND sr.status = ?"
		args = append(args, f.Status)
	}
	q += " ORDER BY sr.created_at DESC, sr.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ServiceRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// TransitionStatus moves a request from ch.From to ch.To and appends the
// matching history row, atomically.  The UPDATE only matches while the row
// still holds ch.From; if another writer got there first nothing is written
// and ErrStaleStatus is returned.  ch.ClaimWorkerID fills assignedWorkerId
// when it is still NULL and is ignored otherwise.
func (r *RequestRepo) TransitionStatus(ctx context.Context, ch model.StatusChange) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx,
		`UPDATE service_requests
		    SET status = ?, assignedWorkerId = COALESCE(assignedWorkerId, ?), updated_at = CURRENT_TIMESTAMP
		  WHERE id = ? AND status = ?`,
		ch.To, ch.ClaimWorkerID, ch.RequestID, ch.From)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleStatus
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO request_status_history (requestId, from_status, to_status, changedByUserId, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		ch.RequestID, ch.From, ch.To, ch.ActorID, ch.Notes); err != nil {
		return classify(err)
	}
	return tx.Commit()
}

// Assign sets the workshop and/or the assigned worker.  Nil arguments leave
// the column as is; clearWorker sets assignedWorkerId to NULL instead.
func (r *RequestRepo) Assign(ctx context.Context, id int64, workshopID, workerID *int64, clearWorker bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE service_requests
		    SET workshopId = COALESCE(?, workshopId),
		        assignedWorkerId = CASE WHEN ? THEN NULL ELSE COALESCE(?, assignedWorkerId) END,
		        updated_at = CURRENT_TIMESTAMP
		  WHERE id = ?`,
		workshopID, clearWorker, workerID, id)
	return classify(err)
}

// History returns the audit rows of one request, oldest first.
func (r *RequestRepo) History(ctx context.Context, requestID int64) ([]model.StatusHistory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, requestId, from_status, to_status, changedByUserId, notes, created_at
		   FROM request_status_history
		  WHERE requestId = ?
		  ORDER BY created_at, id`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.StatusHistory{}
	for rows.Next() {
		var h model.StatusHistory
		if err := rows.Scan(&h.ID, &h.RequestID, &h.FromStatus, &h.ToStatus, &h.ChangedByUserID, &h.Notes, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
