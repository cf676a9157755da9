package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// Store abstrae el almacenamiento de fotos (evidencias de vacunas,
// hallazgos clínicos, foto de perfil del paciente).
// Las keys siguen el layout original:
//   - pacientes/{id}/historial/{ts}_h.jpg
//   - pacientes/{id}/vacunas/{ts}_v.jpg
//   - pacientes/{ts}_{filename}  (foto de perfil)
type Store interface {
	// Put guarda el contenido y devuelve la URL pública del blob.
	Put(ctx context.Context, key string, contentType string, data []byte) (string, error)

	// Delete borra el blob. Borrar una key inexistente devuelve ErrNotFound;
	// los llamadores best-effort lo ignoran.
	Delete(ctx context.Context, key string) error
}
