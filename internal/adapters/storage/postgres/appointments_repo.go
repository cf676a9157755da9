package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"vet-practice/internal/domain/appointments"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

const appointmentCols = `
	id, fecha, fecha_solo, hora,
	mascota, especie, raza, edad,
	dueno, telefono,
	motivo, estado, paciente_id,
	created_at, updated_at
`

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO citas (`+appointmentCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		a.ID, a.StartsAt, a.Date, a.Time,
		a.PetName, a.Species, a.Breed, a.Age,
		a.OwnerName, a.OwnerPhone,
		a.Reason, string(a.Status), a.PatientID,
		a.CreatedAt, a.UpdatedAt,
	)
	if isSlotConflict(err) {
		return appointments.ErrSlotTaken
	}
	return err
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE citas
		SET
			fecha = $2,
			fecha_solo = $3,
			hora = $4,
			mascota = $5,
			especie = $6,
			raza = $7,
			edad = $8,
			dueno = $9,
			telefono = $10,
			motivo = $11,
			estado = $12,
			paciente_id = $13,
			updated_at = $14
		WHERE id = $1
	`,
		a.ID, a.StartsAt, a.Date, a.Time,
		a.PetName, a.Species, a.Breed, a.Age,
		a.OwnerName, a.OwnerPhone,
		a.Reason, string(a.Status), a.PatientID,
		a.UpdatedAt,
	)
	if isSlotConflict(err) {
		return appointments.ErrSlotTaken
	}
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return appointments.ErrNotFound
	}
	return nil
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return appointments.Appointment{}, appointments.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+appointmentCols+`
		FROM citas
		WHERE id = $1
	`, id)

	a, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	return a, err
}

func (r *AppointmentsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM citas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return appointments.ErrNotFound
	}
	return nil
}

func (r *AppointmentsRepo) ListByDate(ctx context.Context, date string) ([]appointments.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentCols+`
		FROM citas
		WHERE fecha_solo = $1
		ORDER BY hora
	`, date)
}

func (r *AppointmentsRepo) List(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	query := `
		SELECT ` + appointmentCols + `
		FROM citas
		WHERE 1=1
	`
	args := make([]any, 0, 3)

	if f.DateFrom != "" {
		args = append(args, f.DateFrom)
		query += ` AND fecha_solo >= $` + itoa(len(args))
	}
	if f.DateTo != "" {
		args = append(args, f.DateTo)
		query += ` AND fecha_solo <= $` + itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += ` AND estado = $` + itoa(len(args))
	}

	query += ` ORDER BY fecha_solo, hora`
	return r.list(ctx, query, args...)
}

func (r *AppointmentsRepo) list(ctx context.Context, query string, args ...any) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAppointment(row rowScanner) (appointments.Appointment, error) {
	var (
		a      appointments.Appointment
		status string
	)
	if err := row.Scan(
		&a.ID, &a.StartsAt, &a.Date, &a.Time,
		&a.PetName, &a.Species, &a.Breed, &a.Age,
		&a.OwnerName, &a.OwnerPhone,
		&a.Reason, &status, &a.PatientID,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return appointments.Appointment{}, err
	}
	a.Status = appointments.Status(status)
	return a, nil
}

// isSlotConflict detecta la violación del índice único (fecha_solo, hora).
func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uq_citas_slot"
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
