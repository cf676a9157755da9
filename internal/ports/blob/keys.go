package blob

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// HistoryPhotoKey arma la key de una foto de hallazgos clínicos.
func HistoryPhotoKey(patientID string, now time.Time) string {
	return fmt.Sprintf("pacientes/%s/historial/%d_h.jpg", patientID, now.UnixMilli())
}

// VaccinePhotoKey arma la key de una foto de etiqueta de vacuna.
func VaccinePhotoKey(patientID string, now time.Time) string {
	return fmt.Sprintf("pacientes/%s/vacunas/%d_v.jpg", patientID, now.UnixMilli())
}

// ProfilePhotoKey arma la key de la foto de perfil (prefijo plano).
func ProfilePhotoKey(filename string, now time.Time) string {
	return fmt.Sprintf("pacientes/%d_%s", now.UnixMilli(), sanitize(filename))
}

// PatientPrefix es el prefijo bajo el que viven todas las fotos del paciente.
func PatientPrefix(patientID string) string {
	return "pacientes/" + patientID + "/"
}

// KeyFromURL recupera la key a partir de la URL pública que guardamos en el
// documento. Devuelve "" si la URL no es parseable.
func KeyFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "foto.jpg"
	}
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "_")
	return name
}
