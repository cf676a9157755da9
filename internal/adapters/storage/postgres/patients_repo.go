package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"vet-practice/internal/domain/patients"
)

type PatientsRepo struct {
	db *sql.DB
}

func NewPatientsRepo(db *sql.DB) *PatientsRepo {
	return &PatientsRepo{db: db}
}

const patientCols = `
	id, nombre, especie, raza, edad, peso,
	dueno, telefono, cliente_id,
	notas, foto_url,
	activo, archivado_en, ultima_atencion,
	created_at, updated_at
`

func (r *PatientsRepo) Create(ctx context.Context, p patients.Patient) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pacientes (`+patientCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		p.ID, p.Name, string(p.Species), p.Breed, p.Age, p.Weight,
		p.OwnerName, p.OwnerPhone, p.OwnerID,
		p.Notes, p.PhotoURL,
		p.Active, toNullTime(p.ArchivedAt), toNullTime(p.LastVisitAt),
		p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *PatientsRepo) Update(ctx context.Context, p patients.Patient) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pacientes
		SET
			nombre = $2,
			especie = $3,
			raza = $4,
			edad = $5,
			peso = $6,
			dueno = $7,
			telefono = $8,
			cliente_id = $9,
			notas = $10,
			foto_url = $11,
			activo = $12,
			archivado_en = $13,
			ultima_atencion = $14,
			updated_at = $15
		WHERE id = $1
	`,
		p.ID, p.Name, string(p.Species), p.Breed, p.Age, p.Weight,
		p.OwnerName, p.OwnerPhone, p.OwnerID,
		p.Notes, p.PhotoURL,
		p.Active, toNullTime(p.ArchivedAt), toNullTime(p.LastVisitAt),
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return patients.ErrNotFound
	}
	return nil
}

func (r *PatientsRepo) GetByID(ctx context.Context, id string) (patients.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return patients.Patient{}, patients.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+patientCols+`
		FROM pacientes
		WHERE id = $1
	`, id)

	p, err := scanPatient(row)
	if err == sql.ErrNoRows {
		return patients.Patient{}, patients.ErrNotFound
	}
	return p, err
}

func (r *PatientsRepo) ListActive(ctx context.Context) ([]patients.Patient, error) {
	return r.list(ctx, `
		SELECT `+patientCols+`
		FROM pacientes
		WHERE activo
		ORDER BY lower(nombre)
	`)
}

func (r *PatientsRepo) ListArchived(ctx context.Context) ([]patients.Patient, error) {
	return r.list(ctx, `
		SELECT `+patientCols+`
		FROM pacientes
		WHERE NOT activo
		ORDER BY archivado_en DESC NULLS LAST
	`)
}

func (r *PatientsRepo) ListByPhone(ctx context.Context, phone string) ([]patients.Patient, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+patientCols+`
		FROM pacientes
		WHERE telefono = $1
		ORDER BY lower(nombre)
	`, phone)
}

func (r *PatientsRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]patients.Patient, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, nil
	}
	return r.list(ctx, `
		SELECT `+patientCols+`
		FROM pacientes
		WHERE cliente_id = $1
		ORDER BY lower(nombre)
	`, ownerID)
}

func (r *PatientsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pacientes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return patients.ErrNotFound
	}
	return nil
}

func (r *PatientsRepo) list(ctx context.Context, query string, args ...any) ([]patients.Patient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]patients.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (patients.Patient, error) {
	var (
		p        patients.Patient
		species  string
		archived sql.NullTime
		lastSeen sql.NullTime
	)
	if err := row.Scan(
		&p.ID, &p.Name, &species, &p.Breed, &p.Age, &p.Weight,
		&p.OwnerName, &p.OwnerPhone, &p.OwnerID,
		&p.Notes, &p.PhotoURL,
		&p.Active, &archived, &lastSeen,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return patients.Patient{}, err
	}

	p.Species = patients.Species(species)
	if archived.Valid {
		t := archived.Time
		p.ArchivedAt = &t
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		p.LastVisitAt = &t
	}
	return p, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
