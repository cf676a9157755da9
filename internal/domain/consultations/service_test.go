package consultations

import (
	"context"
	"errors"
	"testing"
	"time"

	"vet-practice/internal/domain/appointments"
	"vet-practice/internal/domain/medrecords"
	"vet-practice/internal/domain/patients"
)

// -------------------------
// Fakes
// -------------------------

type fakePatients struct {
	byID       map[string]patients.Patient
	lastWeight string
	lastVisit  time.Time
	visitErr   error
}

func (f *fakePatients) GetByID(ctx context.Context, id string) (patients.Patient, error) {
	p, ok := f.byID[id]
	if !ok {
		return patients.Patient{}, patients.ErrNotFound
	}
	return p, nil
}

func (f *fakePatients) ListActive(ctx context.Context) ([]patients.Patient, error) {
	out := make([]patients.Patient, 0, len(f.byID))
	for _, p := range f.byID {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePatients) Search(ctx context.Context, q string) ([]patients.Patient, error) {
	return f.ListActive(ctx)
}

func (f *fakePatients) RecordVisit(ctx context.Context, id, weight string, at time.Time) (patients.Patient, error) {
	if f.visitErr != nil {
		return patients.Patient{}, f.visitErr
	}
	p, ok := f.byID[id]
	if !ok {
		return patients.Patient{}, patients.ErrNotFound
	}
	f.lastWeight = weight
	f.lastVisit = at
	if weight != "" {
		p.Weight = weight
	}
	p.LastVisitAt = &at
	f.byID[id] = p
	return p, nil
}

type fakeRecords struct {
	history      []medrecords.HistoryEntry
	vaccinations []medrecords.VaccinationEntry
	historyErr   error
}

func (f *fakeRecords) AppendHistory(ctx context.Context, patientID string, in medrecords.HistoryInput) (medrecords.HistoryEntry, error) {
	if f.historyErr != nil {
		return medrecords.HistoryEntry{}, f.historyErr
	}
	if in.Type == medrecords.EntryConsultation && in.Diagnosis == "" {
		return medrecords.HistoryEntry{}, medrecords.ErrInvalidInput
	}
	e := medrecords.HistoryEntry{
		ID:        "hist-" + patientID,
		PatientID: patientID,
		Type:      in.Type,
		Reason:    in.Reason,
		Diagnosis: in.Diagnosis,
		Vet:       in.Vet,
	}
	f.history = append(f.history, e)
	return e, nil
}

func (f *fakeRecords) AppendVaccination(ctx context.Context, patientID string, in medrecords.VaccinationInput) (medrecords.VaccinationEntry, error) {
	v := medrecords.VaccinationEntry{
		ID:        "vac-" + patientID,
		PatientID: patientID,
		Name:      in.Name,
	}
	f.vaccinations = append(f.vaccinations, v)
	return v, nil
}

type fakeAgenda struct {
	appointments map[string]appointments.Appointment
	statusErr    error
}

func (f *fakeAgenda) ListByDate(ctx context.Context, date string) ([]appointments.Appointment, error) {
	out := make([]appointments.Appointment, 0)
	for _, a := range f.appointments {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAgenda) UpdateStatus(ctx context.Context, id string, status appointments.Status) (appointments.Appointment, error) {
	if f.statusErr != nil {
		return appointments.Appointment{}, f.statusErr
	}
	a, ok := f.appointments[id]
	if !ok {
		return appointments.Appointment{}, appointments.ErrNotFound
	}
	a.Status = status
	f.appointments[id] = a
	return a, nil
}

func fixedService(pets *fakePatients, records *fakeRecords, agenda *fakeAgenda) *Service {
	svc := NewService(pets, records, agenda, nil, nil)
	svc.now = func() time.Time {
		return time.Date(2025, 6, 10, 11, 30, 0, 0, time.UTC)
	}
	return svc
}

// -------------------------
// Tests
// -------------------------

func TestService_Finalize_Consultation(t *testing.T) {
	pets := &fakePatients{byID: map[string]patients.Patient{
		"pat-1": {ID: "pat-1", Name: "Milo", Active: true},
	}}
	records := &fakeRecords{}
	agenda := &fakeAgenda{appointments: map[string]appointments.Appointment{
		"cita-1": {ID: "cita-1", Date: "2025-06-10", Time: "11:00", Status: appointments.StatusAttended},
	}}
	svc := fixedService(pets, records, agenda)

	res, err := svc.Finalize(context.Background(), FinalizeInput{
		PatientID:     "pat-1",
		AppointmentID: "cita-1",
		Mode:          ModeConsultation,
		Vet:           "vet@clinica.com",
		Weight:        "4.2 kg",
		Diagnosis:     "otitis",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if len(res.Warnings) != 0 {
		t.Fatalf("no warnings expected, got %v", res.Warnings)
	}
	if len(records.history) != 1 || records.history[0].Diagnosis != "otitis" {
		t.Fatalf("expected one history entry with the diagnosis")
	}
	if records.history[0].Vet != "vet@clinica.com" {
		t.Fatalf("the attending vet goes on the entry")
	}
	if pets.lastWeight != "4.2 kg" {
		t.Fatalf("patient weight mirror should update")
	}
	if agenda.appointments["cita-1"].Status != appointments.StatusDone {
		t.Fatalf("linked appointment should end finalizada")
	}
}

func TestService_Finalize_Vaccination_AppendsBothEntries(t *testing.T) {
	pets := &fakePatients{byID: map[string]patients.Patient{
		"pat-1": {ID: "pat-1", Name: "Milo", Active: true},
	}}
	records := &fakeRecords{}
	svc := fixedService(pets, records, &fakeAgenda{appointments: map[string]appointments.Appointment{}})

	res, err := svc.Finalize(context.Background(), FinalizeInput{
		PatientID:   "pat-1",
		Mode:        ModeVaccination,
		VaccineName: "Rabia",
	})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if res.Vaccination == nil || res.Vaccination.Name != "Rabia" {
		t.Fatalf("expected the vaccination on the card")
	}
	if len(records.history) != 1 || records.history[0].Type != medrecords.EntryVaccination {
		t.Fatalf("vacuna mode also writes a Vacunación history entry")
	}
	if records.history[0].Reason != "Vacunación: Rabia" {
		t.Fatalf("unexpected reason %q", records.history[0].Reason)
	}
}

func TestService_Finalize_VaccinationWithoutName(t *testing.T) {
	pets := &fakePatients{byID: map[string]patients.Patient{
		"pat-1": {ID: "pat-1", Active: true},
	}}
	svc := fixedService(pets, &fakeRecords{}, &fakeAgenda{})

	_, err := svc.Finalize(context.Background(), FinalizeInput{
		PatientID: "pat-1",
		Mode:      ModeVaccination,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Finalize_LateFailuresBecomeWarnings(t *testing.T) {
	pets := &fakePatients{
		byID: map[string]patients.Patient{
			"pat-1": {ID: "pat-1", Active: true},
		},
		visitErr: errors.New("db down"),
	}
	records := &fakeRecords{}
	agenda := &fakeAgenda{statusErr: errors.New("db down")}
	svc := fixedService(pets, records, agenda)

	res, err := svc.Finalize(context.Background(), FinalizeInput{
		PatientID:     "pat-1",
		AppointmentID: "cita-1",
		Mode:          ModeConsultation,
		Diagnosis:     "otitis",
	})
	if err != nil {
		t.Fatalf("the record write succeeded, so finalize must not fail: %v", err)
	}
	if len(records.history) != 1 {
		t.Fatalf("history entry must stay written")
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("expected 2 warnings (visit + appointment), got %v", res.Warnings)
	}
}

func TestService_WaitingRoom(t *testing.T) {
	pets := &fakePatients{byID: map[string]patients.Patient{
		"pat-1": {ID: "pat-1", Name: "Rex", OwnerName: "María", Active: true},
		"pat-2": {ID: "pat-2", Name: "Milo", OwnerName: "Ana", Active: true},
	}}
	agenda := &fakeAgenda{appointments: map[string]appointments.Appointment{
		// Resuelta por vínculo explícito
		"cita-1": {ID: "cita-1", Date: "2025-06-10", Time: "09:00", PetName: "Milo", OwnerName: "Ana", PatientID: "pat-2", Status: appointments.StatusPending},
		// Resuelta por (mascota, dueño) normalizado
		"cita-2": {ID: "cita-2", Date: "2025-06-10", Time: "10:00", PetName: "rex", OwnerName: "  maría ", Status: appointments.StatusPending},
		// Finalizada: fuera de la sala de espera
		"cita-3": {ID: "cita-3", Date: "2025-06-10", Time: "11:00", PetName: "Otro", OwnerName: "Luis", Status: appointments.StatusDone},
		// Otro día
		"cita-4": {ID: "cita-4", Date: "2025-06-11", Time: "09:00", PetName: "Rex", OwnerName: "María", Status: appointments.StatusPending},
	}}
	svc := fixedService(pets, &fakeRecords{}, agenda)

	entries, err := svc.WaitingRoom(context.Background())
	if err != nil {
		t.Fatalf("waiting room: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected today's 2 pending visits, got %d", len(entries))
	}

	byAppt := map[string]WaitingEntry{}
	for _, e := range entries {
		byAppt[e.Appointment.ID] = e
	}

	if e := byAppt["cita-1"]; e.Patient == nil || e.Patient.ID != "pat-2" {
		t.Fatalf("cita-1 should resolve by explicit link")
	}
	if e := byAppt["cita-2"]; e.Patient == nil || e.Patient.ID != "pat-1" {
		t.Fatalf("cita-2 should resolve by normalized (pet, owner) match")
	}
}
