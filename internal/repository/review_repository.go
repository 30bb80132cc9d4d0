package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/roadside-assist/internal/model"
)

// ReviewRepo stores customer reviews and keeps the denormalised
// workshops.rating / workshops.reviews columns in step with them.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewColumns = "id, requestId, workshopId, userId, rating, comment, created_at"

func scanReview(s scanner) (model.Review, error) {
	var rv model.Review
	err := s.Scan(&rv.ID, &rv.RequestID, &rv.WorkshopID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	return rv, err
}

// Create inserts rv and recomputes the workshop's average rating (one
// decimal) and review count inside the same transaction.  A second review
// of the same request by the same user fails with ErrConstraint.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (requestId, workshopId, userId, rating, comment) VALUES (?,?,?,?,?)",
		rv.RequestID, rv.WorkshopID, rv.UserID, rv.Rating, rv.Comment)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE workshops
		    SET rating = (SELECT ROUND(AVG(rating), 1) FROM reviews WHERE workshopId = ?),
		        reviews = (SELECT COUNT(*) FROM reviews WHERE workshopId = ?)
		  WHERE id = ?`,
		rv.WorkshopID, rv.WorkshopID, rv.WorkshopID); err != nil {
		return classify(err)
	}

	created, err := scanReview(tx.QueryRowContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE id = ?", id))
	if err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	*rv = created
	return nil
}

// ListByWorkshop returns a workshop's reviews, newest first.
func (r *ReviewRepo) ListByWorkshop(ctx context.Context, workshopID int64) ([]model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE workshopId = ? ORDER BY created_at DESC, id DESC", workshopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
