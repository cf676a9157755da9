package owners

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"vet-practice/internal/domain/patients"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("owner not found")
)

// PatientFinder resuelve las mascotas asociadas a un cliente.
type PatientFinder interface {
	ListByOwnerID(ctx context.Context, ownerID string) ([]patients.Patient, error)
	ListByPhone(ctx context.Context, phone string) ([]patients.Patient, error)
}

type Service struct {
	repo Repository
	pets PatientFinder
	now  func() time.Time
}

func NewService(repo Repository, pets PatientFinder) *Service {
	return &Service{
		repo: repo,
		pets: pets,
		now:  time.Now,
	}
}

type Input struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string
}

func (s *Service) Create(ctx context.Context, in Input) (Owner, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" {
		return Owner{}, ErrInvalidInput
	}

	now := s.now()
	o := Owner{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Email:     strings.TrimSpace(in.Email),
		Address:   strings.TrimSpace(in.Address),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (Owner, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Owner{}, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Phone) == "" {
		return Owner{}, ErrInvalidInput
	}

	o.Name = strings.TrimSpace(in.Name)
	o.Phone = strings.TrimSpace(in.Phone)
	o.Email = strings.TrimSpace(in.Email)
	o.Address = strings.TrimSpace(in.Address)
	o.Notes = strings.TrimSpace(in.Notes)
	o.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, o); err != nil {
		return Owner{}, err
	}
	return o, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Owner, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Owner, error) {
	return s.repo.List(ctx)
}

// Search filtra por nombre o teléfono, case-insensitive.
func (s *Service) Search(ctx context.Context, q string) ([]Owner, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return items, nil
	}

	out := make([]Owner, 0, len(items))
	for _, o := range items {
		if strings.Contains(strings.ToLower(o.Name), q) || strings.Contains(o.Phone, q) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// LinkedPatients devuelve las mascotas del cliente: las linkeadas por ID
// (la forma nueva) más las que matchean por teléfono (expedientes viejos
// sin ClienteID). El merge deduplica prefiriendo el link por ID.
func (s *Service) LinkedPatients(ctx context.Context, ownerID string) ([]patients.Patient, error) {
	o, err := s.repo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	linked, err := s.pets.ListByOwnerID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if o.Phone == "" {
		return linked, nil
	}

	byPhone, err := s.pets.ListByPhone(ctx, o.Phone)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(linked))
	for _, p := range linked {
		seen[p.ID] = struct{}{}
	}
	for _, p := range byPhone {
		if _, ok := seen[p.ID]; !ok {
			linked = append(linked, p)
		}
	}
	return linked, nil
}
