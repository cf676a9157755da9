package patients

import "time"

// Species es texto libre en los datos históricos; estas constantes cubren
// lo que ofrece el formulario.
type Species string

const (
	SpeciesDog   Species = "perro"
	SpeciesCat   Species = "gato"
	SpeciesOther Species = "otro"
)

// Patient es el expediente de una mascota.
//
// Dueño y teléfono viven denormalizados en el expediente; OwnerID enlaza al
// registro de cliente cuando existe (los expedientes viejos solo se pueden
// resolver por teléfono).
type Patient struct {
	ID string

	Name    string
	Species Species
	Breed   string
	Age     string // texto libre: "3 años", "No especificada"
	Weight  string // espejo del último peso registrado, para la lista

	OwnerName  string
	OwnerPhone string
	OwnerID    string // opcional, link a clientes

	Notes    string
	PhotoURL string

	// Soft-archival: Active=false + ArchivedAt => oculto de las listas,
	// restaurable desde la vista de archivo.
	Active     bool
	ArchivedAt *time.Time

	LastVisitAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

const autoCreatedNote = "Generado automáticamente desde Cita Web"
