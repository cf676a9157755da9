package patients

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"vet-practice/internal/ports/blob"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("patient not found")
	ErrArchived     = errors.New("patient is archived")
)

// RecordsPurger borra el log médico de un paciente (cartilla + historial).
// Lo implementa el servicio de medrecords; se inyecta para que el hard
// delete del expediente arrastre sus registros sin acoplar los paquetes.
type RecordsPurger interface {
	PurgePatient(ctx context.Context, patientID string) error
}

type Service struct {
	repo   Repository
	blobs  blob.Store
	purger RecordsPurger
	log    *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, blobs blob.Store, purger RecordsPurger, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		blobs:  blobs,
		purger: purger,
		log:    log,
		now:    time.Now,
	}
}

type CreateInput struct {
	Name       string
	Species    string
	Breed      string
	Age        string
	Weight     string
	OwnerName  string
	OwnerPhone string
	OwnerID    string
	Notes      string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Patient, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.OwnerName) == "" {
		return Patient{}, ErrInvalidInput
	}

	now := s.now()
	p := Patient{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(in.Name),
		Species:    normalizeSpecies(in.Species),
		Breed:      strings.TrimSpace(in.Breed),
		Age:        strings.TrimSpace(in.Age),
		Weight:     strings.TrimSpace(in.Weight),
		OwnerName:  strings.TrimSpace(in.OwnerName),
		OwnerPhone: strings.TrimSpace(in.OwnerPhone),
		OwnerID:    strings.TrimSpace(in.OwnerID),
		Notes:      strings.TrimSpace(in.Notes),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// CreateFromBooking crea el expediente mínimo que genera el formulario web
// cuando el dedup no encuentra coincidencia.
func (s *Service) CreateFromBooking(ctx context.Context, name, species, breed, age, ownerName, phone string) (Patient, error) {
	if breed == "" {
		breed = "Desconocido"
	}
	if age == "" {
		age = "No especificada"
	}
	return s.Create(ctx, CreateInput{
		Name:       name,
		Species:    species,
		Breed:      breed,
		Age:        age,
		OwnerName:  ownerName,
		OwnerPhone: phone,
		Notes:      autoCreatedNote,
	})
}

type UpdateInput struct {
	Name       string
	Species    string
	Breed      string
	Age        string
	Weight     string
	OwnerName  string
	OwnerPhone string
	OwnerID    string
	Notes      string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return Patient{}, ErrInvalidInput
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Species = normalizeSpecies(in.Species)
	p.Breed = strings.TrimSpace(in.Breed)
	p.Age = strings.TrimSpace(in.Age)
	p.Weight = strings.TrimSpace(in.Weight)
	p.OwnerName = strings.TrimSpace(in.OwnerName)
	p.OwnerPhone = strings.TrimSpace(in.OwnerPhone)
	p.OwnerID = strings.TrimSpace(in.OwnerID)
	p.Notes = strings.TrimSpace(in.Notes)
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListActive(ctx context.Context) ([]Patient, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) ListArchived(ctx context.Context) ([]Patient, error) {
	return s.repo.ListArchived(ctx)
}

// Search filtra los activos por nombre de mascota o de dueño. El match
// ignora mayúsculas y tildes: "maria" encuentra a "María González", igual
// que el buscador de la lista.
func (s *Service) Search(ctx context.Context, q string) ([]Patient, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	q = searchFold(strings.TrimSpace(q))
	if q == "" {
		return items, nil
	}

	out := make([]Patient, 0, len(items))
	for _, p := range items {
		if strings.Contains(searchFold(p.Name), q) ||
			strings.Contains(searchFold(p.OwnerName), q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// searchFold baja a minúsculas y quita marcas diacríticas (í → i).
// El chain se arma por llamada porque un Transformer no es concurrente.
func searchFold(s string) string {
	s = strings.ToLower(s)
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		return s
	}
	return folded
}

func (s *Service) ListByOwnerID(ctx context.Context, ownerID string) ([]Patient, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByOwnerID(ctx, ownerID)
}

func (s *Service) ListByPhone(ctx context.Context, phone string) ([]Patient, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByPhone(ctx, phone)
}

// FindByPhoneAndName implementa la heurística de deduplicación del agendado
// web: match exacto de teléfono, match case-insensitive de nombre. El match
// de nombre se hace acá y no en el repo, para que "Rex" y "rex" cuenten como
// la misma mascota independientemente del backend.
func (s *Service) FindByPhoneAndName(ctx context.Context, phone, name string) (Patient, bool, error) {
	phone = strings.TrimSpace(phone)
	name = strings.ToLower(strings.TrimSpace(name))
	if phone == "" || name == "" {
		return Patient{}, false, ErrInvalidInput
	}

	candidates, err := s.repo.ListByPhone(ctx, phone)
	if err != nil {
		return Patient{}, false, err
	}
	for _, p := range candidates {
		if strings.ToLower(p.Name) == name {
			return p, true, nil
		}
	}
	return Patient{}, false, nil
}

func (s *Service) Archive(ctx context.Context, id string) (Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	if !p.Active {
		return p, nil // idempotente
	}

	now := s.now()
	p.Active = false
	p.ArchivedAt = &now
	p.UpdatedAt = now

	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s *Service) Restore(ctx context.Context, id string) (Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	if p.Active {
		return p, nil
	}

	p.Active = true
	p.ArchivedAt = nil
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

// HardDelete borra el expediente. La foto de perfil se borra best-effort:
// un blob ya inexistente no bloquea el borrado del documento.
func (s *Service) HardDelete(ctx context.Context, id string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if p.PhotoURL != "" && s.blobs != nil {
		if key := blob.KeyFromURL(p.PhotoURL); key != "" {
			if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, blob.ErrNotFound) {
				s.log.Warn("deleting patient photo", zap.String("patient_id", id), zap.Error(err))
			}
		}
	}

	if s.purger != nil {
		if err := s.purger.PurgePatient(ctx, id); err != nil {
			return err
		}
	}

	return s.repo.Delete(ctx, id)
}

// SetPhoto sube la foto de perfil nueva y, si había una anterior,
// la borra best-effort después de actualizar el documento.
func (s *Service) SetPhoto(ctx context.Context, id, filename, contentType string, data []byte) (Patient, error) {
	if len(data) == 0 {
		return Patient{}, ErrInvalidInput
	}
	if s.blobs == nil {
		return Patient{}, errors.New("blob storage not configured")
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Patient{}, err
	}

	now := s.now()
	key := blob.ProfilePhotoKey(filename, now)
	url, err := s.blobs.Put(ctx, key, contentType, data)
	if err != nil {
		return Patient{}, err
	}

	oldURL := p.PhotoURL
	p.PhotoURL = url
	p.UpdatedAt = now

	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, err
	}

	if oldURL != "" {
		if oldKey := blob.KeyFromURL(oldURL); oldKey != "" {
			if err := s.blobs.Delete(ctx, oldKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
				s.log.Warn("deleting replaced photo", zap.String("patient_id", id), zap.Error(err))
			}
		}
	}
	return p, nil
}

func (s *Service) DeletePhoto(ctx context.Context, id string) (Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	if p.PhotoURL == "" {
		return p, nil
	}

	oldKey := blob.KeyFromURL(p.PhotoURL)
	p.PhotoURL = ""
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, err
	}

	if oldKey != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, oldKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
			s.log.Warn("deleting photo blob", zap.String("patient_id", id), zap.Error(err))
		}
	}
	return p, nil
}

// RecordVisit actualiza el espejo de peso y la marca de última atención.
func (s *Service) RecordVisit(ctx context.Context, id, weight string, at time.Time) (Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Patient{}, err
	}

	if strings.TrimSpace(weight) != "" {
		p.Weight = strings.TrimSpace(weight)
	}
	p.LastVisitAt = &at
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func normalizeSpecies(s string) Species {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "perro", "dog":
		return SpeciesDog
	case "gato", "cat":
		return SpeciesCat
	case "":
		return SpeciesDog // default del formulario
	default:
		return Species(strings.ToLower(strings.TrimSpace(s)))
	}
}
