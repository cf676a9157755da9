package postgres

import (
	"context"
	"database/sql"
	"strings"

	"vet-practice/internal/domain/owners"
)

type OwnersRepo struct {
	db *sql.DB
}

func NewOwnersRepo(db *sql.DB) *OwnersRepo {
	return &OwnersRepo{db: db}
}

func (r *OwnersRepo) Create(ctx context.Context, o owners.Owner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clientes (
			id, nombre, telefono, email, direccion, notas, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		o.ID, o.Name, o.Phone, o.Email, o.Address, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *OwnersRepo) Update(ctx context.Context, o owners.Owner) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clientes
		SET
			nombre = $2,
			telefono = $3,
			email = $4,
			direccion = $5,
			notas = $6,
			updated_at = $7
		WHERE id = $1
	`,
		o.ID, o.Name, o.Phone, o.Email, o.Address, o.Notes, o.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return owners.ErrNotFound
	}
	return nil
}

func (r *OwnersRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return owners.Owner{}, owners.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, nombre, telefono, email, direccion, notas, created_at, updated_at
		FROM clientes
		WHERE id = $1
	`, id)

	var o owners.Owner
	err := row.Scan(&o.ID, &o.Name, &o.Phone, &o.Email, &o.Address, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return owners.Owner{}, owners.ErrNotFound
	}
	return o, err
}

func (r *OwnersRepo) List(ctx context.Context) ([]owners.Owner, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, nombre, telefono, email, direccion, notas, created_at, updated_at
		FROM clientes
		ORDER BY lower(nombre)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]owners.Owner, 0)
	for rows.Next() {
		var o owners.Owner
		if err := rows.Scan(&o.ID, &o.Name, &o.Phone, &o.Email, &o.Address, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OwnersRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return owners.ErrNotFound
	}
	return nil
}
