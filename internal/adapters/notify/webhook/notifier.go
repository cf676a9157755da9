package webhook

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"vet-practice/internal/platform/httpclient"
	"vet-practice/internal/ports/notify"
)

// Notifier postea la confirmación de reserva a un gateway externo
// (SMS/WhatsApp). El breaker evita seguir golpeando un gateway caído:
// la reserva nunca espera por él más de lo necesario.
type Notifier struct {
	url     string
	client  *httpclient.Client
	breaker *gobreaker.CircuitBreaker[any]
	log     *zap.Logger
}

func New(url string, timeout time.Duration, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "booking-webhook",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("webhook breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Notifier{
		url:     url,
		client:  httpclient.New(timeout),
		breaker: cb,
		log:     log,
	}
}

type payload struct {
	Event         string `json:"event"`
	AppointmentID string `json:"appointment_id"`
	OwnerName     string `json:"owner_name"`
	OwnerPhone    string `json:"owner_phone"`
	PetName       string `json:"pet_name"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	SentAt        string `json:"sent_at"`
}

func (n *Notifier) BookingConfirmed(ctx context.Context, bc notify.BookingConfirmation) error {
	_, err := n.breaker.Execute(func() (any, error) {
		body := payload{
			Event:         "booking_confirmed",
			AppointmentID: bc.AppointmentID,
			OwnerName:     bc.OwnerName,
			OwnerPhone:    bc.OwnerPhone,
			PetName:       bc.PetName,
			Date:          bc.Date,
			Time:          bc.Time,
			SentAt:        bc.SentAt.UTC().Format(time.RFC3339),
		}
		return nil, n.client.PostJSON(ctx, n.url, body, nil)
	})
	return err
}
