package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"vet-practice/internal/domain/medrecords"
)

type MedRecordsRepo struct {
	db *sql.DB
}

func NewMedRecordsRepo(db *sql.DB) *MedRecordsRepo {
	return &MedRecordsRepo{db: db}
}

func (r *MedRecordsRepo) AppendHistory(ctx context.Context, e medrecords.HistoryEntry) error {
	meds, err := json.Marshal(medsOrEmpty(e.Medications))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO historial (
			id, paciente_id, fecha, tipo,
			peso, motivo, hallazgos, foto_url,
			diagnostico, tratamiento, medicamentos,
			notas, veterinario
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		e.ID, e.PatientID, e.Date, string(e.Type),
		e.Weight, e.Reason, e.Findings, e.PhotoURL,
		e.Diagnosis, e.Treatment, meds,
		e.Notes, e.Vet,
	)
	return err
}

func (r *MedRecordsRepo) ListHistory(ctx context.Context, patientID string) ([]medrecords.HistoryEntry, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, paciente_id, fecha, tipo,
			peso, motivo, hallazgos, foto_url,
			diagnostico, tratamiento, medicamentos,
			notas, veterinario
		FROM historial
		WHERE paciente_id = $1
		ORDER BY fecha DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medrecords.HistoryEntry, 0)
	for rows.Next() {
		var (
			e    medrecords.HistoryEntry
			typ  string
			meds []byte
		)
		if err := rows.Scan(
			&e.ID, &e.PatientID, &e.Date, &typ,
			&e.Weight, &e.Reason, &e.Findings, &e.PhotoURL,
			&e.Diagnosis, &e.Treatment, &meds,
			&e.Notes, &e.Vet,
		); err != nil {
			return nil, err
		}
		e.Type = medrecords.EntryType(typ)
		if len(meds) > 0 {
			if err := json.Unmarshal(meds, &e.Medications); err != nil {
				return nil, err
			}
			if len(e.Medications) == 0 {
				e.Medications = nil
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *MedRecordsRepo) AppendVaccination(ctx context.Context, v medrecords.VaccinationEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vacunas (
			id, paciente_id, nombre, fecha, proxima, notas, foto_url, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		v.ID, v.PatientID, v.Name, v.Date, v.NextDue, v.Notes, v.PhotoURL, v.CreatedAt,
	)
	return err
}

func (r *MedRecordsRepo) GetVaccination(ctx context.Context, patientID, entryID string) (medrecords.VaccinationEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, paciente_id, nombre, fecha, proxima, notas, foto_url, created_at
		FROM vacunas
		WHERE paciente_id = $1 AND id = $2
	`, patientID, entryID)

	var v medrecords.VaccinationEntry
	err := row.Scan(&v.ID, &v.PatientID, &v.Name, &v.Date, &v.NextDue, &v.Notes, &v.PhotoURL, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return medrecords.VaccinationEntry{}, medrecords.ErrNotFound
	}
	return v, err
}

func (r *MedRecordsRepo) RemoveVaccination(ctx context.Context, patientID, entryID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM vacunas
		WHERE paciente_id = $1 AND id = $2
	`, patientID, entryID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medrecords.ErrNotFound
	}
	return nil
}

func (r *MedRecordsRepo) ListVaccinations(ctx context.Context, patientID string) ([]medrecords.VaccinationEntry, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, paciente_id, nombre, fecha, proxima, notas, foto_url, created_at
		FROM vacunas
		WHERE paciente_id = $1
		ORDER BY fecha, created_at
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medrecords.VaccinationEntry, 0)
	for rows.Next() {
		var v medrecords.VaccinationEntry
		if err := rows.Scan(&v.ID, &v.PatientID, &v.Name, &v.Date, &v.NextDue, &v.Notes, &v.PhotoURL, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *MedRecordsRepo) DeleteByPatient(ctx context.Context, patientID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM historial WHERE paciente_id = $1`, patientID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM vacunas WHERE paciente_id = $1`, patientID)
	return err
}

func medsOrEmpty(in []medrecords.Medication) []medrecords.Medication {
	if in == nil {
		return []medrecords.Medication{}
	}
	return in
}
