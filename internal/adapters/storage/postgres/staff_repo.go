package postgres

import (
	"context"
	"database/sql"

	"vet-practice/internal/domain/staff"
)

type StaffRepo struct {
	db *sql.DB
}

func NewStaffRepo(db *sql.DB) *StaffRepo {
	return &StaffRepo{db: db}
}

func (r *StaffRepo) Create(ctx context.Context, u staff.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO staff_users (id, email, nombre, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (staff.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, nombre, password_hash, created_at, updated_at
		FROM staff_users
		WHERE email = $1
	`, email)
	return scanStaff(row)
}

func (r *StaffRepo) GetByID(ctx context.Context, id string) (staff.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, nombre, password_hash, created_at, updated_at
		FROM staff_users
		WHERE id = $1
	`, id)
	return scanStaff(row)
}

func scanStaff(row rowScanner) (staff.User, error) {
	var u staff.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return staff.User{}, staff.ErrNotFound
	}
	return u, err
}
