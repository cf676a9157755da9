package medrecords

import "time"

// EntryType distingue consultas de aplicaciones de vacuna en el historial.
type EntryType string

const (
	EntryConsultation EntryType = "Consulta"
	EntryVaccination  EntryType = "Vacunación"
)

// Medication es una línea del plan terapéutico en modo avanzado.
type Medication struct {
	Name      string
	Dose      string
	Frequency string
	Duration  string
}

// HistoryEntry es una visita registrada en el historial del paciente.
// El historial es un log ordenado por paciente: cada entrada es su propia
// fila/documento, no un elemento de un array embebido, así dos altas
// concurrentes nunca se pisan.
type HistoryEntry struct {
	ID        string
	PatientID string

	Date time.Time
	Type EntryType

	Weight   string
	Reason   string
	Findings string
	PhotoURL string // foto de hallazgos clínicos

	Diagnosis string

	// Tratamiento: texto libre o lista de medicamentos, según el modo
	// del formulario. Solo uno de los dos viene poblado.
	Treatment   string
	Medications []Medication

	Notes string
	Vet   string // email del veterinario que atendió
}

// VaccinationEntry es una fila de la cartilla de vacunación.
type VaccinationEntry struct {
	ID        string
	PatientID string

	Name    string
	Date    string // YYYY-MM-DD
	NextDue string // YYYY-MM-DD, "" = sin refuerzo programado
	Notes   string

	PhotoURL string // etiqueta / evidencia

	CreatedAt time.Time
}
