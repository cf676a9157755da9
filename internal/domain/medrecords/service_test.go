package medrecords

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	blobmem "vet-practice/internal/adapters/blob/memory"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	history      map[string][]HistoryEntry
	vaccinations map[string][]VaccinationEntry
}

func newTestRepo() *testRepo {
	return &testRepo{
		history:      map[string][]HistoryEntry{},
		vaccinations: map[string][]VaccinationEntry{},
	}
}

func (r *testRepo) AppendHistory(ctx context.Context, e HistoryEntry) error {
	r.history[e.PatientID] = append(r.history[e.PatientID], e)
	return nil
}

func (r *testRepo) ListHistory(ctx context.Context, patientID string) ([]HistoryEntry, error) {
	out := append([]HistoryEntry(nil), r.history[patientID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *testRepo) AppendVaccination(ctx context.Context, v VaccinationEntry) error {
	r.vaccinations[v.PatientID] = append(r.vaccinations[v.PatientID], v)
	return nil
}

func (r *testRepo) GetVaccination(ctx context.Context, patientID, entryID string) (VaccinationEntry, error) {
	for _, v := range r.vaccinations[patientID] {
		if v.ID == entryID {
			return v, nil
		}
	}
	return VaccinationEntry{}, ErrNotFound
}

func (r *testRepo) RemoveVaccination(ctx context.Context, patientID, entryID string) error {
	entries := r.vaccinations[patientID]
	for i, v := range entries {
		if v.ID == entryID {
			r.vaccinations[patientID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *testRepo) ListVaccinations(ctx context.Context, patientID string) ([]VaccinationEntry, error) {
	out := append([]VaccinationEntry(nil), r.vaccinations[patientID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *testRepo) DeleteByPatient(ctx context.Context, patientID string) error {
	delete(r.history, patientID)
	delete(r.vaccinations, patientID)
	return nil
}

// -------------------------
// Tests
// -------------------------

func TestService_AppendHistory_ConsultaRequiresDiagnosis(t *testing.T) {
	svc := NewService(newTestRepo(), nil, nil)

	_, err := svc.AppendHistory(context.Background(), "pat-1", HistoryInput{
		Type:     EntryConsultation,
		Findings: "tos seca",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without diagnosis, got %v", err)
	}
}

func TestService_AppendHistory_Defaults(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil, nil)

	e, err := svc.AppendHistory(context.Background(), "pat-1", HistoryInput{
		Diagnosis: "otitis",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if e.Type != EntryConsultation {
		t.Fatalf("empty type defaults to Consulta, got %s", e.Type)
	}
	if e.Reason != "Revisión General" {
		t.Fatalf("empty reason defaults to Revisión General, got %q", e.Reason)
	}
	if e.ID == "" || e.Date.IsZero() {
		t.Fatalf("entry should get id and date")
	}
}

func TestService_AppendVaccination_Dates(t *testing.T) {
	svc := NewService(newTestRepo(), nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC) }

	v, err := svc.AppendVaccination(context.Background(), "pat-1", VaccinationInput{
		Name: "Rabia",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if v.Date != "2025-06-10" {
		t.Fatalf("empty date defaults to today, got %q", v.Date)
	}

	if _, err := svc.AppendVaccination(context.Background(), "pat-1", VaccinationInput{
		Name: "Parvo",
		Date: "10/06/2025",
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non YYYY-MM-DD date, got %v", err)
	}

	if _, err := svc.AppendVaccination(context.Background(), "pat-1", VaccinationInput{
		Name:    "Parvo",
		NextDue: "pronto",
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad next_due, got %v", err)
	}
}

func TestService_VaccinationPhoto_KeyLayout(t *testing.T) {
	blobs := blobmem.NewStore()
	svc := NewService(newTestRepo(), blobs, nil)

	v, err := svc.AppendVaccination(context.Background(), "pat-1", VaccinationInput{
		Name:             "Rabia",
		Photo:            []byte("jpegdata"),
		PhotoContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !strings.Contains(v.PhotoURL, "pacientes/pat-1/vacunas/") {
		t.Fatalf("vaccine photos live under pacientes/{id}/vacunas/, got %q", v.PhotoURL)
	}
	if !strings.HasSuffix(v.PhotoURL, "_v.jpg") {
		t.Fatalf("vaccine photo keys end in _v.jpg, got %q", v.PhotoURL)
	}
}

func TestService_RemoveVaccination_LeavesOthersIntact(t *testing.T) {
	repo := newTestRepo()
	blobs := blobmem.NewStore()
	svc := NewService(repo, blobs, nil)

	first, err := svc.AppendVaccination(context.Background(), "pat-1", VaccinationInput{
		Name:  "Rabia",
		Date:  "2025-01-15",
		Photo: []byte("a"),
	})
	if err != nil {
		t.Fatalf("append first: %v", err)
	}
	second, err := svc.AppendVaccination(context.Background(), "pat-1", VaccinationInput{
		Name: "Parvo",
		Date: "2025-03-20",
	})
	if err != nil {
		t.Fatalf("append second: %v", err)
	}

	if err := svc.RemoveVaccination(context.Background(), "pat-1", first.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	left, _ := svc.ListVaccinations(context.Background(), "pat-1")
	if len(left) != 1 || left[0].ID != second.ID {
		t.Fatalf("exactly the removed entry should go, got %d entries", len(left))
	}
	if blobs.Len() != 0 {
		t.Fatalf("the removed entry's photo should be deleted")
	}

	if err := svc.RemoveVaccination(context.Background(), "pat-1", first.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("removing twice should be ErrNotFound, got %v", err)
	}
}

func TestService_PurgePatient(t *testing.T) {
	repo := newTestRepo()
	blobs := blobmem.NewStore()
	svc := NewService(repo, blobs, nil)

	if _, err := svc.AppendVaccination(context.Background(), "pat-1", VaccinationInput{
		Name: "Rabia", Photo: []byte("a"),
	}); err != nil {
		t.Fatalf("append vacc: %v", err)
	}
	if _, err := svc.AppendHistory(context.Background(), "pat-1", HistoryInput{
		Diagnosis: "otitis", Photo: []byte("b"),
	}); err != nil {
		t.Fatalf("append hist: %v", err)
	}

	// Otro paciente no debe verse afectado
	if _, err := svc.AppendVaccination(context.Background(), "pat-2", VaccinationInput{Name: "Rabia"}); err != nil {
		t.Fatalf("append other: %v", err)
	}

	if err := svc.PurgePatient(context.Background(), "pat-1"); err != nil {
		t.Fatalf("purge: %v", err)
	}

	hist, _ := svc.ListHistory(context.Background(), "pat-1")
	vaccs, _ := svc.ListVaccinations(context.Background(), "pat-1")
	if len(hist) != 0 || len(vaccs) != 0 {
		t.Fatalf("purge should empty the patient's log")
	}
	if blobs.Len() != 0 {
		t.Fatalf("purge should delete the log photos")
	}

	other, _ := svc.ListVaccinations(context.Background(), "pat-2")
	if len(other) != 1 {
		t.Fatalf("other patients' logs must stay intact")
	}
}
