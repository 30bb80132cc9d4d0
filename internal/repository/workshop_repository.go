package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/iliyamo/roadside-assist/internal/model"
)

// WorkshopRepo provides CRUD over the workshops table.  The services column
// is a JSON array stored as TEXT; it is decoded here so callers only ever
// see []string.
type WorkshopRepo struct{ db *sql.DB }

func NewWorkshopRepo(db *sql.DB) *WorkshopRepo { return &WorkshopRepo{db: db} }

const workshopColumns = "w.id, w.name, w.address, w.lat, w.lng, w.rating, w.reviews, w.isOpen, w.openTime, w.closeTime, w.services, w.created_at, w.updated_at"

func scanWorkshop(s scanner) (model.Workshop, error) {
	var (
		w        model.Workshop
		services sql.NullString
	)
	err := s.Scan(&w.ID, &w.Name, &w.Address, &w.Lat, &w.Lng, &w.Rating, &w.Reviews,
		&w.IsOpen, &w.OpenTime, &w.CloseTime, &services, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return w, err
	}
	w.Services = decodeServices(services.String)
	return w, nil
}

// decodeServices tolerates legacy rows: anything that is not a JSON array of
// strings decodes to an empty list rather than failing the whole read.
func decodeServices(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func encodeServices(services []string) (string, error) {
	if services == nil {
		services = []string{}
	}
	b, err := json.Marshal(services)
	return string(b), err
}

// Create inserts w.  Rating and review count start at the column defaults.
func (r *WorkshopRepo) Create(ctx context.Context, w *model.Workshop) error {
	services, err := encodeServices(w.Services)
	if err != nil {
		return err
	}
	openTime, closeTime := w.OpenTime, w.CloseTime
	if openTime == "" {
		openTime = "09:00"
	}
	if closeTime == "" {
		closeTime = "21:00"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO workshops (name, address, lat, lng, isOpen, openTime, closeTime, services)
		 VALUES (?,?,?,?,?,?,?,?)`,
		w.Name, w.Address, w.Lat, w.Lng, w.IsOpen, openTime, closeTime, services)
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
	*w = created
	return nil
}

// GetByID returns ErrNotFound when no workshop has the id.
func (r *WorkshopRepo) GetByID(ctx context.Context, id int64) (model.Workshop, error) {
	w, err := scanWorkshop(r.db.QueryRowContext(ctx,
		"SELECT "+workshopColumns+" FROM workshops w WHERE w.id=? LIMIT 1", id))
	return w, classify(err)
}

// List returns workshops in storage (id) order.
func (r *WorkshopRepo) List(ctx context.Context, f model.WorkshopFilter) ([]model.Workshop, error) {
	q := "SELECT " + workshopColumns + " FROM workshops w"
	var args []any
	if f.IsOpen != nil {
		q += " WHERE w.isOpen=?"
		args = append(args, *f.IsOpen)
	}
	q += " ORDER BY w.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Workshop{}
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of p and returns the fresh row.
func (r *WorkshopRepo) Update(ctx context.Context, id int64, p model.WorkshopPatch) (model.Workshop, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Address != nil {
		add("address", *p.Address)
	}
	if p.Lat != nil {
		add("lat", *p.Lat)
	}
	if p.Lng != nil {
		add("lng", *p.Lng)
	}
	if p.IsOpen != nil {
		add("isOpen", *p.IsOpen)
	}
	if p.OpenTime != nil {
		add("openTime", *p.OpenTime)
	}
	if p.CloseTime != nil {
		add("closeTime", *p.CloseTime)
	}
	if p.Services != nil {
		services, err := encodeServices(p.Services)
		if err != nil {
			return model.Workshop{}, err
		}
		add("services", services)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.db.ExecContext(ctx, "UPDATE workshops SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.Workshop{}, classify(err)
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a workshop.  Requests pointing at it keep existing with
// workshopId set to NULL; assignments and reviews cascade.
func (r *WorkshopRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM workshops WHERE id=?", id)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PrimaryForWorker returns the workshop a worker belongs to: among active
// assignments, primary first, then the most recently assigned.
func (r *WorkshopRepo) PrimaryForWorker(ctx context.Context, userID int64) (model.Workshop, error) {
	w, err := scanWorkshop(r.db.QueryRowContext(ctx,
		`SELECT `+workshopColumns+`
		   FROM worker_assignments wa
		   JOIN workshops w ON w.id = wa.workshopId
		  WHERE wa.userId = ? AND wa.active = 1
		  ORDER BY wa.is_primary DESC, wa.assigned_at DESC
		  LIMIT 1`, userID))
	return w, classify(err)
}
