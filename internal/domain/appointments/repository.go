package appointments

import "context"

type ListFilter struct {
	// Rango sobre Date (YYYY-MM-DD), inclusivo. Vacío = sin tope.
	DateFrom string
	DateTo   string
	Status   Status
}

type Repository interface {
	// Create inserta la cita garantizando la unicidad de (Date, Time):
	// si el slot ya está tomado devuelve ErrSlotTaken. Esta es la barrera
	// real contra la carrera de reservas; el re-chequeo del service solo
	// mejora el mensaje.
	Create(ctx context.Context, a Appointment) error

	// Update reescribe la cita. Un cambio de (Date, Time) hacia un slot
	// ocupado por OTRA cita devuelve ErrSlotTaken.
	Update(ctx context.Context, a Appointment) error

	GetByID(ctx context.Context, id string) (Appointment, error)
	Delete(ctx context.Context, id string) error

	// ListByDate devuelve las citas de un día, ordenadas por hora.
	ListByDate(ctx context.Context, date string) ([]Appointment, error)
	// List devuelve citas filtradas, ordenadas por fecha+hora ascendente.
	List(ctx context.Context, f ListFilter) ([]Appointment, error)
}
