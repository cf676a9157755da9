package staff

import (
	"context"
	"errors"
	"testing"
	"time"

	adapter "vet-practice/internal/adapters/auth"
)

type testRepo struct {
	byEmail map[string]User
}

func newTestRepo() *testRepo {
	return &testRepo{byEmail: map[string]User{}}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return errors.New("repo: email taken")
	}
	r.byEmail[u.Email] = u
	return nil
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc := NewService(newTestRepo(), TokenConfig{
		Secret: "test-secret",
		TTL:    time.Hour,
		Issuer: "vet-practice",
	})

	u, err := svc.Register(context.Background(), "Vet@Clinica.com", "Dra. Paula", "supersecreta")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "vet@clinica.com" {
		t.Fatalf("emails are normalized to lowercase, got %q", u.Email)
	}
	if u.PasswordHash == "supersecreta" || u.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	token, logged, err := svc.Login(context.Background(), "vet@clinica.com", "supersecreta")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != u.ID {
		t.Fatalf("login should return the registered user")
	}

	// El verifier del middleware debe aceptar el token emitido
	claims, err := adapter.NewJWTVerifier("test-secret", "vet-practice").Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.Email != "vet@clinica.com" || claims.UserID != u.ID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	svc := NewService(newTestRepo(), TokenConfig{Secret: "s", TTL: time.Hour})

	if _, err := svc.Register(context.Background(), "vet@clinica.com", "Paula", "supersecreta"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "vet@clinica.com", "otra"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nadie@clinica.com", "supersecreta"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email should also be ErrInvalidCredentials, got %v", err)
	}
}

func TestService_Register_Validation(t *testing.T) {
	svc := NewService(newTestRepo(), TokenConfig{Secret: "s", TTL: time.Hour})

	if _, err := svc.Register(context.Background(), "vet@clinica.com", "Paula", "corta"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("short passwords are rejected, got %v", err)
	}

	if _, err := svc.Register(context.Background(), "vet@clinica.com", "Paula", "supersecreta"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "VET@clinica.com", "Otra", "supersecreta"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestService_VerifierRejectsExpiredToken(t *testing.T) {
	svc := NewService(newTestRepo(), TokenConfig{
		Secret: "test-secret",
		TTL:    time.Hour,
		Issuer: "vet-practice",
	})
	// Reloj congelado dos horas atrás: el token emitido ya venció.
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	if _, err := svc.Register(context.Background(), "vet@clinica.com", "Paula", "supersecreta"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := svc.Login(context.Background(), "vet@clinica.com", "supersecreta")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := adapter.NewJWTVerifier("test-secret", "vet-practice").Verify(context.Background(), token); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}
