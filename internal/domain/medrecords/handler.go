package medrecords

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-practice/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/patients/{patientID}/vaccinations", func(vr chi.Router) {
		vr.Get("/", listVaccinationsHandler(svc))
		vr.Post("/", appendVaccinationHandler(svc))
		vr.Delete("/{entryID}", removeVaccinationHandler(svc))
	})

	r.Route("/patients/{patientID}/history", func(hr chi.Router) {
		hr.Get("/", listHistoryHandler(svc))
		hr.Post("/", appendHistoryHandler(svc))
	})
}

// RegisterPublicRoutes expone la cartilla y el historial en solo-lectura
// para las vistas imprimibles del dueño.
func RegisterPublicRoutes(r chi.Router, svc *Service) {
	r.Get("/public/pets/{patientID}/card", listVaccinationsHandler(svc))
	r.Get("/public/pets/{patientID}/history", listHistoryHandler(svc))
}

type medicationJSON struct {
	Name      string `json:"name"`
	Dose      string `json:"dose"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

type historyRequest struct {
	Type        string           `json:"type"` // Consulta | Vacunación
	Date        string           `json:"date"` // RFC3339 opcional
	Weight      string           `json:"weight"`
	Reason      string           `json:"reason"`
	Findings    string           `json:"findings"`
	Diagnosis   string           `json:"diagnosis"`
	Treatment   string           `json:"treatment"`
	Medications []medicationJSON `json:"medications"`
	Notes       string           `json:"notes"`

	PhotoBase64      string `json:"photo_base64,omitempty"`
	PhotoContentType string `json:"photo_content_type,omitempty"`
}

type historyResponse struct {
	ID          string           `json:"id"`
	PatientID   string           `json:"patient_id"`
	Date        time.Time        `json:"date"`
	Type        string           `json:"type"`
	Weight      string           `json:"weight,omitempty"`
	Reason      string           `json:"reason"`
	Findings    string           `json:"findings,omitempty"`
	PhotoURL    string           `json:"photo_url,omitempty"`
	Diagnosis   string           `json:"diagnosis,omitempty"`
	Treatment   string           `json:"treatment,omitempty"`
	Medications []medicationJSON `json:"medications,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	Vet         string           `json:"vet,omitempty"`
}

type vaccinationRequest struct {
	Name    string `json:"name"`
	Date    string `json:"date"`
	NextDue string `json:"next_due"`
	Notes   string `json:"notes"`

	PhotoBase64      string `json:"photo_base64,omitempty"`
	PhotoContentType string `json:"photo_content_type,omitempty"`
}

type vaccinationResponse struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	NextDue   string    `json:"next_due,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func appendHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req historyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var date *time.Time
		if req.Date != "" {
			t, err := time.Parse(time.RFC3339, req.Date)
			if err != nil {
				http.Error(w, "date must be RFC3339", http.StatusBadRequest)
				return
			}
			date = &t
		}

		photo, err := decodePhoto(req.PhotoBase64)
		if err != nil {
			http.Error(w, "photo_base64 is not valid base64", http.StatusBadRequest)
			return
		}

		vet := ""
		if claims, ok := middleware.GetClaims(r.Context()); ok {
			vet = claims.Email
		}

		e, err := svc.AppendHistory(r.Context(), chi.URLParam(r, "patientID"), HistoryInput{
			Type:             EntryType(req.Type),
			Date:             date,
			Weight:           req.Weight,
			Reason:           req.Reason,
			Findings:         req.Findings,
			Diagnosis:        req.Diagnosis,
			Treatment:        req.Treatment,
			Medications:      fromMedicationJSON(req.Medications),
			Notes:            req.Notes,
			Vet:              vet,
			Photo:            photo,
			PhotoContentType: req.PhotoContentType,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toHistoryResponse(e))
	}
}

func listHistoryHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListHistory(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]historyResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toHistoryResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func appendVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req vaccinationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		photo, err := decodePhoto(req.PhotoBase64)
		if err != nil {
			http.Error(w, "photo_base64 is not valid base64", http.StatusBadRequest)
			return
		}

		v, err := svc.AppendVaccination(r.Context(), chi.URLParam(r, "patientID"), VaccinationInput{
			Name:             req.Name,
			Date:             req.Date,
			NextDue:          req.NextDue,
			Notes:            req.Notes,
			Photo:            photo,
			PhotoContentType: req.PhotoContentType,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toVaccinationResponse(v))
	}
}

func listVaccinationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListVaccinations(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]vaccinationResponse, 0, len(items))
		for _, v := range items {
			out = append(out, toVaccinationResponse(v))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func removeVaccinationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.RemoveVaccination(r.Context(), chi.URLParam(r, "patientID"), chi.URLParam(r, "entryID"))
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func decodePhoto(b64 string) ([]byte, error) {
	if b64 == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(b64)
}

func fromMedicationJSON(in []medicationJSON) []Medication {
	if len(in) == 0 {
		return nil
	}
	out := make([]Medication, 0, len(in))
	for _, m := range in {
		out = append(out, Medication{
			Name:      m.Name,
			Dose:      m.Dose,
			Frequency: m.Frequency,
			Duration:  m.Duration,
		})
	}
	return out
}

func toMedicationJSON(in []Medication) []medicationJSON {
	if len(in) == 0 {
		return nil
	}
	out := make([]medicationJSON, 0, len(in))
	for _, m := range in {
		out = append(out, medicationJSON{
			Name:      m.Name,
			Dose:      m.Dose,
			Frequency: m.Frequency,
			Duration:  m.Duration,
		})
	}
	return out
}

func toHistoryResponse(e HistoryEntry) historyResponse {
	return historyResponse{
		ID:          e.ID,
		PatientID:   e.PatientID,
		Date:        e.Date,
		Type:        string(e.Type),
		Weight:      e.Weight,
		Reason:      e.Reason,
		Findings:    e.Findings,
		PhotoURL:    e.PhotoURL,
		Diagnosis:   e.Diagnosis,
		Treatment:   e.Treatment,
		Medications: toMedicationJSON(e.Medications),
		Notes:       e.Notes,
		Vet:         e.Vet,
	}
}

func toVaccinationResponse(v VaccinationEntry) vaccinationResponse {
	return vaccinationResponse{
		ID:        v.ID,
		PatientID: v.PatientID,
		Name:      v.Name,
		Date:      v.Date,
		NextDue:   v.NextDue,
		Notes:     v.Notes,
		PhotoURL:  v.PhotoURL,
		CreatedAt: v.CreatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "entry not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
