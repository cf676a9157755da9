package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"vet-practice/internal/domain/staff"
)

type staffRepo struct {
	mu      sync.RWMutex
	byID    map[string]staff.User
	byEmail map[string]string // email => id
}

func NewStaffRepo() staff.Repository {
	return &staffRepo{
		byID:    make(map[string]staff.User),
		byEmail: make(map[string]string),
	}
}

func (r *staffRepo) Create(ctx context.Context, u staff.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" || strings.TrimSpace(u.Email) == "" {
		return errors.New("user id and email required")
	}
	if _, exists := r.byEmail[u.Email]; exists {
		return errors.New("email already registered")
	}
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *staffRepo) GetByEmail(ctx context.Context, email string) (staff.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return staff.User{}, staff.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *staffRepo) GetByID(ctx context.Context, id string) (staff.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return staff.User{}, staff.ErrNotFound
	}
	return u, nil
}
