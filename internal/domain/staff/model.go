package staff

import "time"

// User es una cuenta de staff. No hay roles: estar autenticado es ser staff.
type User struct {
	ID    string
	Email string
	Name  string

	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}
