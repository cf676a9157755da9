package appointments

import "time"

type Status string

const (
	StatusPending  Status = "pendiente"
	StatusAttended Status = "atendida"
	StatusNoShow   Status = "no_asistio"
	StatusDone     Status = "finalizada"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAttended, StatusNoShow, StatusDone:
		return true
	}
	return false
}

// Appointment es una cita. Los datos de mascota y dueño son un snapshot
// del momento de la reserva (no un join): si después corrigen el expediente,
// la cita conserva lo que se agendó. PatientID enlaza al expediente cuando
// se conoce.
type Appointment struct {
	ID string

	StartsAt time.Time // fecha+hora combinadas
	Date     string    // YYYY-MM-DD, el campo de igualdad del chequeo de slots
	Time     string    // HH:MM, uno del catálogo

	PetName string
	Species string
	Breed   string
	Age     string

	OwnerName  string
	OwnerPhone string

	Reason string
	Status Status

	PatientID string // opcional

	CreatedAt time.Time
	UpdatedAt time.Time
}
