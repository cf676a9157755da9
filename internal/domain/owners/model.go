package owners

import "time"

// Owner es la ficha del cliente (el humano responsable de los pacientes).
type Owner struct {
	ID string

	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string

	CreatedAt time.Time
	UpdatedAt time.Time
}
