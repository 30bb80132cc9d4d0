package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/roadside-assist/internal/model"
)

// AssignmentRepo manages worker_assignments.  Rows are never deleted; End
// flips active off and stamps ended_at so the history stays intact.
type AssignmentRepo struct{ db *sql.DB }

func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

const assignmentSelect = `SELECT wa.id, wa.userId, wa.workshopId, wa.is_primary, wa.active, wa.assigned_at, wa.ended_at,
       u.name, u.phone
  FROM worker_assignments wa
  JOIN users u ON u.id = wa.userId`

func scanAssignment(s scanner) (model.WorkerAssignment, error) {
	var a model.WorkerAssignment
	err := s.Scan(&a.ID, &a.UserID, &a.WorkshopID, &a.IsPrimary, &a.Active, &a.AssignedAt, &a.EndedAt,
		&a.WorkerName, &a.WorkerPhone)
	return a, err
}

// Create inserts an active assignment.  An unknown user or workshop id yields
// ErrConstraint.
func (r *AssignmentRepo) Create(ctx context.Context, a *model.WorkerAssignment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO worker_assignments (userId, workshopId, is_primary, active) VALUES (?,?,?,1)",
		a.UserID, a.WorkshopID, a.IsPrimary)
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
	*a = created
	return nil
}

func (r *AssignmentRepo) GetByID(ctx context.Context, id int64) (model.WorkerAssignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx, assignmentSelect+" WHERE wa.id=? LIMIT 1", id))
	return a, classify(err)
}

// List filters by user, workshop and active flag; newest first.
func (r *AssignmentRepo) List(ctx context.Context, f model.AssignmentFilter) ([]model.WorkerAssignment, error) {
	q := assignmentSelect + " WHERE 1=1"
	var args []any
	if f.UserID > 0 {
		q += " AND wa.userId=?"
		args = append(args, f.UserID)
	}
	if f.WorkshopID > 0 {
		q += " AND wa.workshopId=?"
		args = append(args, f.WorkshopID)
	}
	if f.Active != nil {
		q += " AND wa.active=?"
		args = append(args, *f.Active)
	}
	q += " ORDER BY wa.is_primary DESC, wa.assigned_at DESC, wa.id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.WorkerAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// End soft-deletes an assignment.  Ending an already-ended assignment keeps
// the original ended_at.
func (r *AssignmentRepo) End(ctx context.Context, id int64) (model.WorkerAssignment, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE worker_assignments SET active=0, ended_at=COALESCE(ended_at, CURRENT_TIMESTAMP) WHERE id=?", id); err != nil {
		return model.WorkerAssignment{}, classify(err)
	}
	return r.GetByID(ctx, id)
}

// HasActive reports whether userID holds an active assignment to workshopID.
func (r *AssignmentRepo) HasActive(ctx context.Context, userID, workshopID int64) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM worker_assignments WHERE userId=? AND workshopId=? AND active=1 LIMIT 1",
		userID, workshopID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
