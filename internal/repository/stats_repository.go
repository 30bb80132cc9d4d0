package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/roadside-assist/internal/model"
)

// StatsRepo runs the read-only aggregate queries behind the admin dashboard.
// Each method is a single statement so the service can run them in parallel.
type StatsRepo struct{ db *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Totals counts users, workshops and requests.
func (r *StatsRepo) Totals(ctx context.Context) (model.StatsTotals, error) {
	var t model.StatsTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM users),
		        (SELECT COUNT(*) FROM workshops),
		        (SELECT COUNT(*) FROM service_requests)`).Scan(&t.Users, &t.Workshops, &t.Requests)
	return t, err
}

// RequestsByStatus groups request counts by status.  Statuses with no rows
// are absent from the map.
func (r *StatsRepo) RequestsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM service_requests GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var (
			status string
			cnt    int64
		)
		if err := rows.Scan(&status, &cnt); err != nil {
			return nil, err
		}
		out[status] = cnt
	}
	return out, rows.Err()
}

// RecentRequests returns the newest requests with the customer's phone and
// the workshop name.
func (r *StatsRepo) RecentRequests(ctx context.Context, limit int) ([]model.RecentRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sr.id, sr.service, sr.status, sr.created_at, u.phone, w.name
		   FROM service_requests sr
		   LEFT JOIN users u ON u.id = sr.userId
		   LEFT JOIN workshops w ON w.id = sr.workshopId
		  ORDER BY sr.created_at DESC, sr.id DESC
		  LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.RecentRequest{}
	for rows.Next() {
		var rr model.RecentRequest
		if err := rows.Scan(&rr.ID, &rr.Service, &rr.Status, &rr.CreatedAt, &rr.UserPhone, &rr.WorkshopName); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}
