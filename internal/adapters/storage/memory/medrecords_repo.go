package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-practice/internal/domain/medrecords"
)

type medrecordsRepo struct {
	mu sync.RWMutex
	// sub-colecciones por paciente, cada entrada es su propio registro
	history      map[string][]medrecords.HistoryEntry
	vaccinations map[string][]medrecords.VaccinationEntry
}

func NewMedRecordsRepo() medrecords.Repository {
	return &medrecordsRepo{
		history:      make(map[string][]medrecords.HistoryEntry),
		vaccinations: make(map[string][]medrecords.VaccinationEntry),
	}
}

func (r *medrecordsRepo) AppendHistory(ctx context.Context, e medrecords.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.PatientID) == "" {
		return errors.New("entry id and patient id required")
	}
	r.history[e.PatientID] = append(r.history[e.PatientID], e)
	return nil
}

func (r *medrecordsRepo) ListHistory(ctx context.Context, patientID string) ([]medrecords.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.history[patientID]
	out := make([]medrecords.HistoryEntry, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (r *medrecordsRepo) AppendVaccination(ctx context.Context, v medrecords.VaccinationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.PatientID) == "" {
		return errors.New("entry id and patient id required")
	}
	r.vaccinations[v.PatientID] = append(r.vaccinations[v.PatientID], v)
	return nil
}

func (r *medrecordsRepo) GetVaccination(ctx context.Context, patientID, entryID string) (medrecords.VaccinationEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.vaccinations[patientID] {
		if v.ID == entryID {
			return v, nil
		}
	}
	return medrecords.VaccinationEntry{}, medrecords.ErrNotFound
}

func (r *medrecordsRepo) RemoveVaccination(ctx context.Context, patientID, entryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.vaccinations[patientID]
	for i, v := range entries {
		if v.ID == entryID {
			r.vaccinations[patientID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return medrecords.ErrNotFound
}

func (r *medrecordsRepo) ListVaccinations(ctx context.Context, patientID string) ([]medrecords.VaccinationEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.vaccinations[patientID]
	out := make([]medrecords.VaccinationEntry, len(src))
	copy(out, src)
	// Orden de aplicación; a igual fecha, orden de alta
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out, nil
}

func (r *medrecordsRepo) DeleteByPatient(ctx context.Context, patientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.history, patientID)
	delete(r.vaccinations, patientID)
	return nil
}
