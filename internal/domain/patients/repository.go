package patients

import "context"

type Repository interface {
	Create(ctx context.Context, p Patient) error
	Update(ctx context.Context, p Patient) error
	GetByID(ctx context.Context, id string) (Patient, error)

	// ListActive devuelve los expedientes no archivados, ordenados por nombre.
	ListActive(ctx context.Context) ([]Patient, error)
	// ListArchived devuelve los archivados, ordenados por fecha de archivo desc.
	ListArchived(ctx context.Context) ([]Patient, error)
	// ListByPhone devuelve todos los expedientes (activos o no) con ese
	// teléfono de dueño; es la base del match de deduplicación.
	ListByPhone(ctx context.Context, phone string) ([]Patient, error)
	// ListByOwnerID devuelve los expedientes enlazados a un cliente.
	ListByOwnerID(ctx context.Context, ownerID string) ([]Patient, error)

	Delete(ctx context.Context, id string) error
}
