package consultations

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vet-practice/internal/domain/medrecords"
	"vet-practice/internal/middleware"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/consultations", func(cr chi.Router) {
		cr.Post("/", finalizeHandler(svc))
		cr.Get("/waiting-room", waitingRoomHandler(svc))
		cr.Get("/patients", searchPatientsHandler(svc))
	})
}

type medicationJSON struct {
	Name      string `json:"name"`
	Dose      string `json:"dose"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

type finalizeRequest struct {
	PatientID     string `json:"patient_id"`
	AppointmentID string `json:"appointment_id,omitempty"`
	Mode          string `json:"mode"` // consulta | vacuna

	Weight      string           `json:"weight,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	Findings    string           `json:"findings,omitempty"`
	Diagnosis   string           `json:"diagnosis,omitempty"`
	Treatment   string           `json:"treatment,omitempty"`
	Medications []medicationJSON `json:"medications,omitempty"`
	Notes       string           `json:"notes,omitempty"`

	FindingsPhotoBase64      string `json:"findings_photo_base64,omitempty"`
	FindingsPhotoContentType string `json:"findings_photo_content_type,omitempty"`

	VaccineName             string `json:"vaccine_name,omitempty"`
	VaccineDate             string `json:"vaccine_date,omitempty"`
	VaccineNextDue          string `json:"vaccine_next_due,omitempty"`
	VaccineNotes            string `json:"vaccine_notes,omitempty"`
	VaccinePhotoBase64      string `json:"vaccine_photo_base64,omitempty"`
	VaccinePhotoContentType string `json:"vaccine_photo_content_type,omitempty"`
}

type finalizeResponse struct {
	HistoryEntryID string   `json:"history_entry_id,omitempty"`
	VaccinationID  string   `json:"vaccination_id,omitempty"`
	PatientID      string   `json:"patient_id"`
	Weight         string   `json:"weight,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

type waitingEntryResponse struct {
	AppointmentID string `json:"appointment_id"`
	Time          string `json:"time"`
	PetName       string `json:"pet_name"`
	OwnerName     string `json:"owner_name"`
	Reason        string `json:"reason,omitempty"`
	Status        string `json:"status"`
	PatientID     string `json:"patient_id,omitempty"`
}

type patientHitResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	OwnerName   string     `json:"owner_name"`
	OwnerPhone  string     `json:"owner_phone"`
	LastVisitAt *time.Time `json:"last_visit_at,omitempty"`
}

func finalizeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req finalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		findingsPhoto, err := decodePhoto(req.FindingsPhotoBase64)
		if err != nil {
			http.Error(w, "findings_photo_base64 is not valid base64", http.StatusBadRequest)
			return
		}
		vaccinePhoto, err := decodePhoto(req.VaccinePhotoBase64)
		if err != nil {
			http.Error(w, "vaccine_photo_base64 is not valid base64", http.StatusBadRequest)
			return
		}

		vet := ""
		if claims, ok := middleware.GetClaims(r.Context()); ok {
			vet = claims.Email
		}

		res, err := svc.Finalize(r.Context(), FinalizeInput{
			PatientID:     req.PatientID,
			AppointmentID: req.AppointmentID,
			Mode:          Mode(req.Mode),
			Vet:           vet,

			Weight:      req.Weight,
			Reason:      req.Reason,
			Findings:    req.Findings,
			Diagnosis:   req.Diagnosis,
			Treatment:   req.Treatment,
			Medications: fromMedicationJSON(req.Medications),
			Notes:       req.Notes,

			FindingsPhoto:            findingsPhoto,
			FindingsPhotoContentType: req.FindingsPhotoContentType,

			VaccineName:             req.VaccineName,
			VaccineDate:             req.VaccineDate,
			VaccineNextDue:          req.VaccineNextDue,
			VaccineNotes:            req.VaccineNotes,
			VaccinePhoto:            vaccinePhoto,
			VaccinePhotoContentType: req.VaccinePhotoContentType,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		out := finalizeResponse{
			HistoryEntryID: res.History.ID,
			PatientID:      res.Patient.ID,
			Weight:         res.Patient.Weight,
			Warnings:       res.Warnings,
		}
		if res.Vaccination != nil {
			out.VaccinationID = res.Vaccination.ID
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func waitingRoomHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.WaitingRoom(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]waitingEntryResponse, 0, len(entries))
		for _, e := range entries {
			item := waitingEntryResponse{
				AppointmentID: e.Appointment.ID,
				Time:          e.Appointment.Time,
				PetName:       e.Appointment.PetName,
				OwnerName:     e.Appointment.OwnerName,
				Reason:        e.Appointment.Reason,
				Status:        string(e.Appointment.Status),
			}
			if e.Patient != nil {
				item.PatientID = e.Patient.ID
			}
			out = append(out, item)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func searchPatientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits, err := svc.SearchPatients(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]patientHitResponse, 0, len(hits))
		for _, p := range hits {
			out = append(out, patientHitResponse{
				ID:          p.ID,
				Name:        p.Name,
				Species:     string(p.Species),
				OwnerName:   p.OwnerName,
				OwnerPhone:  p.OwnerPhone,
				LastVisitAt: p.LastVisitAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func decodePhoto(b64 string) ([]byte, error) {
	if b64 == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(b64)
}

func fromMedicationJSON(in []medicationJSON) []medrecords.Medication {
	if len(in) == 0 {
		return nil
	}
	out := make([]medrecords.Medication, 0, len(in))
	for _, m := range in {
		out = append(out, medrecords.Medication{
			Name:      m.Name,
			Dose:      m.Dose,
			Frequency: m.Frequency,
			Duration:  m.Duration,
		})
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, medrecords.ErrInvalidInput):
		http.Error(w, "invalid consultation payload", http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "patient not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
