package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vet-practice/internal/platform/metrics"
	"vet-practice/internal/ports/notify"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("appointment not found")
	ErrSlotTaken    = errors.New("slot already taken")
)

const dateLayout = "2006-01-02"

// PatientRef es la vista mínima del expediente que necesita el agendado.
type PatientRef struct {
	ID      string
	Name    string
	Species string
	Breed   string
	Age     string
	Owner   string
}

// PatientDirectory abstrae la búsqueda/creación de expedientes durante el
// agendado web (heurística teléfono + nombre). Lo implementa el servicio
// de pacientes vía un adapter en el router.
type PatientDirectory interface {
	FindByPhoneAndName(ctx context.Context, phone, name string) (PatientRef, bool, error)
	CreateFromBooking(ctx context.Context, name, species, breed, age, ownerName, phone string) (PatientRef, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	notifier notify.Notifier
	metrics  *metrics.Collector
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients PatientDirectory, notifier notify.Notifier, m *metrics.Collector, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		patients: patients,
		notifier: notifier,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// GetAvailability calcula los horarios seleccionables de un día:
// catálogo fijo menos los ya ocupados, excluyendo la cita que se está
// editando (excludeID) para que su propio horario siga ofertado.
func (s *Service) GetAvailability(ctx context.Context, date, excludeID string) (Availability, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return Availability{}, ErrInvalidInput
	}

	existing, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return Availability{}, err
	}

	occupied := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		occupied[a.Time] = struct{}{}
	}

	av := Availability{
		Date:       date,
		Catalog:    Catalog,
		Occupied:   make([]string, 0, len(occupied)),
		Selectable: make([]string, 0, len(Catalog)),
	}
	for _, t := range Catalog {
		if _, taken := occupied[t]; taken {
			av.Occupied = append(av.Occupied, t)
		} else {
			av.Selectable = append(av.Selectable, t)
		}
	}
	return av, nil
}

type CreateInput struct {
	Date string
	Time string

	PetName string
	Species string
	Breed   string
	Age     string

	OwnerName  string
	OwnerPhone string

	Reason    string
	PatientID string
}

// Create agenda una cita creada por staff. El re-chequeo y el insert
// protegido comparten el mismo error para que el handler dé el mensaje
// específico de "horario recién tomado".
func (s *Service) Create(ctx context.Context, in CreateInput) (Appointment, error) {
	a, err := s.build(in)
	if err != nil {
		return Appointment{}, err
	}

	if err := s.insertGuarded(ctx, &a); err != nil {
		return Appointment{}, err
	}
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues("staff").Inc()
	}
	return a, nil
}

type BookingInput struct {
	OwnerName  string
	OwnerPhone string

	PetName string
	Species string
	Breed   string
	Age     string

	Date string
	Time string

	// PatientID viene del modo "ya soy cliente" cuando el dueño ya
	// encontró su expediente; saltea la heurística de dedup.
	PatientID string
}

// BookPublic implementa el agendado del formulario web: dedup/alta
// automática del expediente, insert protegido del slot y notificación
// best-effort al dueño.
func (s *Service) BookPublic(ctx context.Context, in BookingInput) (Appointment, error) {
	in.OwnerPhone = strings.TrimSpace(in.OwnerPhone)
	in.PetName = strings.TrimSpace(in.PetName)
	if in.OwnerPhone == "" || in.PetName == "" || strings.TrimSpace(in.OwnerName) == "" {
		return Appointment{}, ErrInvalidInput
	}

	ci := CreateInput{
		Date:       in.Date,
		Time:       in.Time,
		PetName:    in.PetName,
		Species:    in.Species,
		Breed:      in.Breed,
		Age:        in.Age,
		OwnerName:  in.OwnerName,
		OwnerPhone: in.OwnerPhone,
		Reason:     "Cita web",
		PatientID:  strings.TrimSpace(in.PatientID),
	}

	if ci.PatientID == "" && s.patients != nil {
		ref, found, err := s.patients.FindByPhoneAndName(ctx, in.OwnerPhone, in.PetName)
		if err != nil {
			return Appointment{}, err
		}
		if found {
			// Expediente conocido: el snapshot sale del expediente,
			// no de lo que tipeó el dueño.
			ci.PatientID = ref.ID
			ci.Species = ref.Species
			ci.Breed = ref.Breed
			ci.Age = ref.Age
			if ref.Owner != "" {
				ci.OwnerName = ref.Owner
			}
		} else {
			ref, err := s.patients.CreateFromBooking(ctx, in.PetName, in.Species, in.Breed, in.Age, in.OwnerName, in.OwnerPhone)
			if err != nil {
				return Appointment{}, err
			}
			ci.PatientID = ref.ID
			if s.metrics != nil {
				s.metrics.PatientsAutoCreated.Inc()
			}
		}
	}

	a, err := s.build(ci)
	if err != nil {
		return Appointment{}, err
	}

	if err := s.insertGuarded(ctx, &a); err != nil {
		return Appointment{}, err
	}
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues("web").Inc()
	}

	// La confirmación nunca bloquea ni revierte la reserva.
	if err := s.notifier.BookingConfirmed(ctx, notify.BookingConfirmation{
		AppointmentID: a.ID,
		OwnerName:     a.OwnerName,
		OwnerPhone:    a.OwnerPhone,
		PetName:       a.PetName,
		Date:          a.Date,
		Time:          a.Time,
		SentAt:        s.now(),
	}); err != nil {
		s.log.Warn("booking confirmation failed", zap.String("appointment_id", a.ID), zap.Error(err))
	}

	return a, nil
}

type UpdateInput struct {
	Date string
	Time string

	PetName string
	Species string
	Breed   string
	Age     string

	OwnerName  string
	OwnerPhone string

	Reason    string
	PatientID string
}

// Update reagenda/edita una cita. El chequeo de disponibilidad excluye la
// propia cita, así "guardar sin cambiar el horario" no choca consigo misma.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Appointment, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	next, err := s.build(CreateInput(in))
	if err != nil {
		return Appointment{}, err
	}

	av, err := s.GetAvailability(ctx, next.Date, current.ID)
	if err != nil {
		return Appointment{}, err
	}
	if !contains(av.Selectable, next.Time) {
		if s.metrics != nil {
			s.metrics.SlotConflictsTotal.Inc()
		}
		return Appointment{}, ErrSlotTaken
	}

	next.ID = current.ID
	next.Status = current.Status
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, next); err != nil {
		if errors.Is(err, ErrSlotTaken) && s.metrics != nil {
			s.metrics.SlotConflictsTotal.Inc()
		}
		return Appointment{}, err
	}
	return next, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Appointment, error) {
	if !status.IsValid() {
		return Appointment{}, ErrInvalidInput
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	a.Status = status
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Appointment, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, ErrInvalidInput
	}
	return s.repo.List(ctx, f)
}

func (s *Service) ListByDate(ctx context.Context, date string) ([]Appointment, error) {
	if _, err := time.Parse(dateLayout, strings.TrimSpace(date)); err != nil {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByDate(ctx, strings.TrimSpace(date))
}

func (s *Service) build(in CreateInput) (Appointment, error) {
	date := strings.TrimSpace(in.Date)
	slot := strings.TrimSpace(in.Time)

	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return Appointment{}, ErrInvalidInput
	}
	if !IsOffered(slot) {
		return Appointment{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.PetName) == "" || strings.TrimSpace(in.OwnerName) == "" {
		return Appointment{}, ErrInvalidInput
	}

	hm, _ := time.Parse("15:04", slot)
	startsAt := time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, time.Local)

	now := s.now()
	return Appointment{
		ID:         uuid.NewString(),
		StartsAt:   startsAt,
		Date:       date,
		Time:       slot,
		PetName:    strings.TrimSpace(in.PetName),
		Species:    strings.TrimSpace(in.Species),
		Breed:      emptyOr(in.Breed, "Desconocido"),
		Age:        emptyOr(in.Age, "No especificada"),
		OwnerName:  strings.TrimSpace(in.OwnerName),
		OwnerPhone: strings.TrimSpace(in.OwnerPhone),
		Reason:     strings.TrimSpace(in.Reason),
		Status:     StatusPending,
		PatientID:  strings.TrimSpace(in.PatientID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// insertGuarded re-chequea disponibilidad antes del insert (para el mensaje
// específico) y deja que el repo resuelva la carrera real con su unicidad.
func (s *Service) insertGuarded(ctx context.Context, a *Appointment) error {
	av, err := s.GetAvailability(ctx, a.Date, "")
	if err != nil {
		return err
	}
	if !contains(av.Selectable, a.Time) {
		if s.metrics != nil {
			s.metrics.SlotConflictsTotal.Inc()
		}
		return ErrSlotTaken
	}

	if err := s.repo.Create(ctx, *a); err != nil {
		if errors.Is(err, ErrSlotTaken) && s.metrics != nil {
			s.metrics.SlotConflictsTotal.Inc()
		}
		return err
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func emptyOr(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
