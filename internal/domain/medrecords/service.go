package medrecords

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vet-practice/internal/ports/blob"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("entry not found")
)

const dateLayout = "2006-01-02"

type Service struct {
	repo  Repository
	blobs blob.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo Repository, blobs blob.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:  repo,
		blobs: blobs,
		log:   log,
		now:   time.Now,
	}
}

type HistoryInput struct {
	Type        EntryType
	Date        *time.Time // nil = ahora
	Weight      string
	Reason      string
	Findings    string
	Diagnosis   string
	Treatment   string
	Medications []Medication
	Notes       string
	Vet         string

	Photo            []byte // opcional, foto de hallazgos
	PhotoContentType string
}

func (s *Service) AppendHistory(ctx context.Context, patientID string, in HistoryInput) (HistoryEntry, error) {
	if strings.TrimSpace(patientID) == "" {
		return HistoryEntry{}, ErrInvalidInput
	}
	if in.Type == "" {
		in.Type = EntryConsultation
	}
	if in.Type == EntryConsultation && strings.TrimSpace(in.Diagnosis) == "" {
		return HistoryEntry{}, ErrInvalidInput
	}

	now := s.now()
	date := now
	if in.Date != nil {
		date = *in.Date
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" && in.Type == EntryConsultation {
		reason = "Revisión General"
	}

	e := HistoryEntry{
		ID:          uuid.NewString(),
		PatientID:   patientID,
		Date:        date,
		Type:        in.Type,
		Weight:      strings.TrimSpace(in.Weight),
		Reason:      reason,
		Findings:    strings.TrimSpace(in.Findings),
		Diagnosis:   strings.TrimSpace(in.Diagnosis),
		Treatment:   strings.TrimSpace(in.Treatment),
		Medications: in.Medications,
		Notes:       strings.TrimSpace(in.Notes),
		Vet:         strings.TrimSpace(in.Vet),
	}

	if len(in.Photo) > 0 {
		url, err := s.uploadPhoto(ctx, blob.HistoryPhotoKey(patientID, now), in.PhotoContentType, in.Photo)
		if err != nil {
			return HistoryEntry{}, err
		}
		e.PhotoURL = url
	}

	if err := s.repo.AppendHistory(ctx, e); err != nil {
		return HistoryEntry{}, err
	}
	return e, nil
}

func (s *Service) ListHistory(ctx context.Context, patientID string) ([]HistoryEntry, error) {
	return s.repo.ListHistory(ctx, patientID)
}

type VaccinationInput struct {
	Name    string
	Date    string // YYYY-MM-DD, "" = hoy
	NextDue string
	Notes   string

	Photo            []byte
	PhotoContentType string
}

func (s *Service) AppendVaccination(ctx context.Context, patientID string, in VaccinationInput) (VaccinationEntry, error) {
	if strings.TrimSpace(patientID) == "" || strings.TrimSpace(in.Name) == "" {
		return VaccinationEntry{}, ErrInvalidInput
	}

	now := s.now()

	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = now.Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return VaccinationEntry{}, ErrInvalidInput
	}

	nextDue := strings.TrimSpace(in.NextDue)
	if nextDue != "" {
		if _, err := time.Parse(dateLayout, nextDue); err != nil {
			return VaccinationEntry{}, ErrInvalidInput
		}
	}

	v := VaccinationEntry{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Name:      strings.TrimSpace(in.Name),
		Date:      date,
		NextDue:   nextDue,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
	}

	if len(in.Photo) > 0 {
		url, err := s.uploadPhoto(ctx, blob.VaccinePhotoKey(patientID, now), in.PhotoContentType, in.Photo)
		if err != nil {
			return VaccinationEntry{}, err
		}
		v.PhotoURL = url
	}

	if err := s.repo.AppendVaccination(ctx, v); err != nil {
		return VaccinationEntry{}, err
	}
	return v, nil
}

func (s *Service) ListVaccinations(ctx context.Context, patientID string) ([]VaccinationEntry, error) {
	return s.repo.ListVaccinations(ctx, patientID)
}

// RemoveVaccination borra la entrada y su foto. La foto es best-effort:
// si el blob ya no existe, la entrada se borra igual.
func (s *Service) RemoveVaccination(ctx context.Context, patientID, entryID string) error {
	v, err := s.repo.GetVaccination(ctx, patientID, entryID)
	if err != nil {
		return err
	}

	s.deletePhotoBestEffort(ctx, v.PhotoURL)
	return s.repo.RemoveVaccination(ctx, patientID, entryID)
}

// PurgePatient borra el log completo del paciente, fotos incluidas.
// Lo invoca el hard delete del expediente.
func (s *Service) PurgePatient(ctx context.Context, patientID string) error {
	vaccs, err := s.repo.ListVaccinations(ctx, patientID)
	if err == nil {
		for _, v := range vaccs {
			s.deletePhotoBestEffort(ctx, v.PhotoURL)
		}
	}
	hist, err := s.repo.ListHistory(ctx, patientID)
	if err == nil {
		for _, h := range hist {
			s.deletePhotoBestEffort(ctx, h.PhotoURL)
		}
	}
	return s.repo.DeleteByPatient(ctx, patientID)
}

func (s *Service) uploadPhoto(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s.blobs == nil {
		return "", errors.New("blob storage not configured")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return s.blobs.Put(ctx, key, contentType, data)
}

func (s *Service) deletePhotoBestEffort(ctx context.Context, url string) {
	if url == "" || s.blobs == nil {
		return
	}
	key := blob.KeyFromURL(url)
	if key == "" {
		return
	}
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
		s.log.Warn("deleting record photo", zap.String("key", key), zap.Error(err))
	}
}
