package consultations

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"vet-practice/internal/domain/appointments"
	"vet-practice/internal/domain/medrecords"
	"vet-practice/internal/domain/patients"
	"vet-practice/internal/platform/metrics"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("patient not found")
)

// Mode indica qué pestaña del espacio de atención se está finalizando.
type Mode string

const (
	ModeConsultation Mode = "consulta"
	ModeVaccination  Mode = "vacuna"
)

// PatientWorkspace es lo que el workspace necesita del servicio de pacientes.
type PatientWorkspace interface {
	GetByID(ctx context.Context, id string) (patients.Patient, error)
	ListActive(ctx context.Context) ([]patients.Patient, error)
	Search(ctx context.Context, q string) ([]patients.Patient, error)
	RecordVisit(ctx context.Context, id, weight string, at time.Time) (patients.Patient, error)
}

// RecordsWriter escribe en el expediente clínico.
type RecordsWriter interface {
	AppendHistory(ctx context.Context, patientID string, in medrecords.HistoryInput) (medrecords.HistoryEntry, error)
	AppendVaccination(ctx context.Context, patientID string, in medrecords.VaccinationInput) (medrecords.VaccinationEntry, error)
}

// AppointmentBook es la vista de la agenda que usa la sala de espera.
type AppointmentBook interface {
	ListByDate(ctx context.Context, date string) ([]appointments.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status appointments.Status) (appointments.Appointment, error)
}

type Service struct {
	pets    PatientWorkspace
	records RecordsWriter
	agenda  AppointmentBook
	metrics *metrics.Collector
	log     *zap.Logger
	now     func() time.Time
}

func NewService(pets PatientWorkspace, records RecordsWriter, agenda AppointmentBook, m *metrics.Collector, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		pets:    pets,
		records: records,
		agenda:  agenda,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

type FinalizeInput struct {
	PatientID     string
	AppointmentID string // opcional, la cita que originó la visita
	Mode          Mode
	Vet           string

	Weight      string
	Reason      string
	Findings    string
	Diagnosis   string
	Treatment   string
	Medications []medrecords.Medication
	Notes       string

	FindingsPhoto            []byte
	FindingsPhotoContentType string

	// Solo en modo vacuna
	VaccineName             string
	VaccineDate             string // YYYY-MM-DD, "" = hoy
	VaccineNextDue          string
	VaccineNotes            string
	VaccinePhoto            []byte
	VaccinePhotoContentType string
}

type FinalizeResult struct {
	History     medrecords.HistoryEntry
	Vaccination *medrecords.VaccinationEntry
	Patient     patients.Patient

	// Pasos posteriores al expediente que fallaron. El registro clínico
	// ya quedó escrito, así que se reportan en lugar de revertir.
	Warnings []string
}

// Finalize cierra una visita: escribe el expediente, actualiza peso y
// última atención del paciente y marca la cita como finalizada.
func (s *Service) Finalize(ctx context.Context, in FinalizeInput) (FinalizeResult, error) {
	if strings.TrimSpace(in.PatientID) == "" {
		return FinalizeResult{}, ErrInvalidInput
	}
	if in.Mode != ModeConsultation && in.Mode != ModeVaccination {
		return FinalizeResult{}, ErrInvalidInput
	}

	p, err := s.pets.GetByID(ctx, in.PatientID)
	if err != nil {
		return FinalizeResult{}, ErrNotFound
	}

	var res FinalizeResult

	switch in.Mode {
	case ModeConsultation:
		entry, err := s.records.AppendHistory(ctx, p.ID, medrecords.HistoryInput{
			Type:             medrecords.EntryConsultation,
			Weight:           in.Weight,
			Reason:           in.Reason,
			Findings:         in.Findings,
			Diagnosis:        in.Diagnosis,
			Treatment:        in.Treatment,
			Medications:      in.Medications,
			Notes:            in.Notes,
			Vet:              in.Vet,
			Photo:            in.FindingsPhoto,
			PhotoContentType: in.FindingsPhotoContentType,
		})
		if err != nil {
			return FinalizeResult{}, err
		}
		res.History = entry

	case ModeVaccination:
		if strings.TrimSpace(in.VaccineName) == "" {
			return FinalizeResult{}, ErrInvalidInput
		}
		vac, err := s.records.AppendVaccination(ctx, p.ID, medrecords.VaccinationInput{
			Name:             in.VaccineName,
			Date:             in.VaccineDate,
			NextDue:          in.VaccineNextDue,
			Notes:            in.VaccineNotes,
			Photo:            in.VaccinePhoto,
			PhotoContentType: in.VaccinePhotoContentType,
		})
		if err != nil {
			return FinalizeResult{}, err
		}
		res.Vaccination = &vac

		reason := in.Reason
		if strings.TrimSpace(reason) == "" {
			reason = "Vacunación: " + in.VaccineName
		}
		entry, err := s.records.AppendHistory(ctx, p.ID, medrecords.HistoryInput{
			Type:   medrecords.EntryVaccination,
			Weight: in.Weight,
			Reason: reason,
			Notes:  in.VaccineNotes,
			Vet:    in.Vet,
		})
		if err != nil {
			// La vacuna ya quedó en la cartilla; no se revierte.
			res.Warnings = append(res.Warnings, "vaccination saved but history entry failed")
			s.log.Warn("history entry after vaccination failed",
				zap.String("patient_id", p.ID), zap.Error(err))
		} else {
			res.History = entry
		}
	}

	updated, err := s.pets.RecordVisit(ctx, p.ID, in.Weight, s.now())
	if err != nil {
		res.Warnings = append(res.Warnings, "patient weight/last-visit update failed")
		s.log.Warn("record visit failed", zap.String("patient_id", p.ID), zap.Error(err))
		res.Patient = p
	} else {
		res.Patient = updated
	}

	if id := strings.TrimSpace(in.AppointmentID); id != "" {
		if _, err := s.agenda.UpdateStatus(ctx, id, appointments.StatusDone); err != nil {
			res.Warnings = append(res.Warnings, "appointment could not be marked finalizada")
			s.log.Warn("finalize appointment failed",
				zap.String("appointment_id", id), zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.VisitsFinalized.Inc()
	}
	return res, nil
}

// WaitingEntry relaciona una cita de hoy con su paciente, cuando se puede
// resolver: primero por el vínculo explícito y si no por el par
// (mascota, dueño) normalizado.
type WaitingEntry struct {
	Appointment appointments.Appointment
	Patient     *patients.Patient
}

func (s *Service) WaitingRoom(ctx context.Context) ([]WaitingEntry, error) {
	today := s.now().Format("2006-01-02")

	appts, err := s.agenda.ListByDate(ctx, today)
	if err != nil {
		return nil, err
	}

	active, err := s.pets.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*patients.Patient, len(active))
	byID := make(map[string]*patients.Patient, len(active))
	for i := range active {
		p := &active[i]
		byID[p.ID] = p
		byKey[matchKey(p.Name, p.OwnerName)] = p
	}

	out := make([]WaitingEntry, 0, len(appts))
	for _, a := range appts {
		if a.Status == appointments.StatusDone {
			continue
		}

		entry := WaitingEntry{Appointment: a}
		if a.PatientID != "" {
			entry.Patient = byID[a.PatientID]
		}
		if entry.Patient == nil {
			entry.Patient = byKey[matchKey(a.PetName, a.OwnerName)]
		}
		out = append(out, entry)
	}
	return out, nil
}

// SearchPatients es el buscador del workspace para iniciar una visita sin cita.
func (s *Service) SearchPatients(ctx context.Context, q string) ([]patients.Patient, error) {
	return s.pets.Search(ctx, q)
}

func matchKey(pet, owner string) string {
	return strings.ToLower(strings.TrimSpace(pet)) + "|" + strings.ToLower(strings.TrimSpace(owner))
}
