package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/roadside-assist/internal/model"
)

// UserRepo reads and writes the users table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, phone, name, email, role, password_hash, created_at, updated_at"

func scanUser(s scanner) (model.User, error) {
	var u model.User
	err := s.Scan(&u.ID, &u.Phone, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts u and fills in ID and timestamps.  A duplicate phone yields
// ErrConstraint.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (phone, name, email, role, password_hash) VALUES (?,?,?,?,?)",
		strings.TrimSpace(u.Phone), u.Name, u.Email, u.Role, u.PasswordHash)
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
	*u = created
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	return u, classify(err)
}

// GetByPhone fetches a user by trimmed phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE phone=? LIMIT 1", strings.TrimSpace(phone)))
	return u, classify(err)
}

// List returns users ordered by id, optionally restricted to one role.
func (r *UserRepo) List(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users"
	var args []any
	if f.Role != "" {
		q += " WHERE role=?"
		args = append(args, f.Role)
	}
	q += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of p and returns the fresh row.  Role is
// not part of the patch and so never changes here.
func (r *UserRepo) Update(ctx context.Context, id int64, p model.UserPatch) (model.User, error) {
	var sets []string
	var args []any
	if p.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *p.Name)
	}
	if p.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, *p.Email)
	}
	if len(sets) > 0 {
		args = append(args, id)
		// zero rows affected can also mean "values unchanged", so existence
		// is settled by the read below
		if _, err := r.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.User{}, classify(err)
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a user.  Requests, assignments, reviews and notifications go
// with it through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
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
