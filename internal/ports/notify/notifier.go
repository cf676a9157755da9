package notify

import (
	"context"
	"time"
)

// BookingConfirmation es el aviso que mandamos al dueño cuando se agenda
// una cita (vía gateway SMS/WhatsApp configurable).
type BookingConfirmation struct {
	AppointmentID string
	OwnerName     string
	OwnerPhone    string
	PetName       string
	Date          string // YYYY-MM-DD
	Time          string // HH:MM
	SentAt        time.Time
}

// Notifier se invoca best-effort: un error nunca debe tumbar la reserva.
type Notifier interface {
	BookingConfirmed(ctx context.Context, bc BookingConfirmation) error
}

// Noop es el notifier por defecto cuando no hay webhook configurado.
type Noop struct{}

func (Noop) BookingConfirmed(context.Context, BookingConfirmation) error { return nil }
