package medrecords

import "context"

type Repository interface {
	AppendHistory(ctx context.Context, e HistoryEntry) error
	// ListHistory devuelve las visitas del paciente, más recientes primero.
	ListHistory(ctx context.Context, patientID string) ([]HistoryEntry, error)

	AppendVaccination(ctx context.Context, v VaccinationEntry) error
	GetVaccination(ctx context.Context, patientID, entryID string) (VaccinationEntry, error)
	// RemoveVaccination borra exactamente esa entrada; las demás quedan intactas.
	RemoveVaccination(ctx context.Context, patientID, entryID string) error
	// ListVaccinations devuelve la cartilla en orden de aplicación (fecha asc).
	ListVaccinations(ctx context.Context, patientID string) ([]VaccinationEntry, error)

	// DeleteByPatient borra todo el log del paciente (hard delete del expediente).
	DeleteByPatient(ctx context.Context, patientID string) error
}
