package appointments

// Catalog es la grilla fija de horarios ofrecidos por día.
// No hay citas entre 13:00 y 15:00 (cierre de mediodía).
var Catalog = []string{
	"09:00", "10:00", "11:00", "12:00",
	"13:00", "15:00", "16:00", "17:00",
}

func IsOffered(t string) bool {
	for _, c := range Catalog {
		if c == t {
			return true
		}
	}
	return false
}

// Availability es el resultado del chequeo de disponibilidad de un día.
type Availability struct {
	Date       string
	Catalog    []string
	Occupied   []string
	Selectable []string
}
