package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-practice/internal/domain/appointments"
)

type appointmentsRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Appointment
	// slot ocupado => id de la cita que lo tiene. Es el equivalente en
	// memoria del índice único (fecha_solo, hora) de postgres.
	slots map[string]string
}

func NewAppointmentsRepo() appointments.Repository {
	return &appointmentsRepo{
		byID:  make(map[string]appointments.Appointment),
		slots: make(map[string]string),
	}
}

func slotKey(date, hour string) string {
	return date + " " + hour
}

func (r *appointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return errors.New("appointment id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("appointment already exists")
	}

	key := slotKey(a.Date, a.Time)
	if _, taken := r.slots[key]; taken {
		return appointments.ErrSlotTaken
	}

	r.byID[a.ID] = a
	r.slots[key] = a.ID
	return nil
}

func (r *appointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.byID[a.ID]
	if !exists {
		return appointments.ErrNotFound
	}

	key := slotKey(a.Date, a.Time)
	if holder, taken := r.slots[key]; taken && holder != a.ID {
		return appointments.ErrSlotTaken
	}

	delete(r.slots, slotKey(prev.Date, prev.Time))
	r.byID[a.ID] = a
	r.slots[key] = a.ID
	return nil
}

func (r *appointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	return a, nil
}

func (r *appointmentsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.byID[id]
	if !exists {
		return appointments.ErrNotFound
	}
	delete(r.slots, slotKey(a.Date, a.Time))
	delete(r.byID, id)
	return nil
}

func (r *appointmentsRepo) ListByDate(ctx context.Context, date string) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if a.Date == date {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out, nil
}

func (r *appointmentsRepo) List(ctx context.Context, f appointments.ListFilter) ([]appointments.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Appointment, 0)
	for _, a := range r.byID {
		if f.DateFrom != "" && a.Date < f.DateFrom {
			continue
		}
		if f.DateTo != "" && a.Date > f.DateTo {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}
