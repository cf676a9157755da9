package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/appointments", func(ar chi.Router) {
		ar.Get("/", listHandler(svc))
		ar.Post("/", createHandler(svc))
		ar.Get("/availability", availabilityHandler(svc))

		ar.Get("/{appointmentID}", getHandler(svc))
		ar.Put("/{appointmentID}", updateHandler(svc))
		ar.Patch("/{appointmentID}/status", updateStatusHandler(svc))
		ar.Delete("/{appointmentID}", deleteHandler(svc))
	})
}

func RegisterPublicRoutes(r chi.Router, svc *Service) {
	r.Post("/public/appointments", bookPublicHandler(svc))
	r.Get("/public/appointments/availability", availabilityHandler(svc))
}

type appointmentRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
	Time string `json:"time"` // HH:MM del catálogo

	PetName string `json:"pet_name"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
	Age     string `json:"age"`

	OwnerName  string `json:"owner_name"`
	OwnerPhone string `json:"owner_phone"`

	Reason    string `json:"reason"`
	PatientID string `json:"patient_id"`
}

type appointmentResponse struct {
	ID         string    `json:"id"`
	StartsAt   time.Time `json:"starts_at"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	PetName    string    `json:"pet_name"`
	Species    string    `json:"species"`
	Breed      string    `json:"breed"`
	Age        string    `json:"age"`
	OwnerName  string    `json:"owner_name"`
	OwnerPhone string    `json:"owner_phone"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	PatientID  string    `json:"patient_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type availabilityResponse struct {
	Date       string   `json:"date"`
	Catalog    []string `json:"catalog"`
	Occupied   []string `json:"occupied"`
	Selectable []string `json:"selectable"`
}

func availabilityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		av, err := svc.GetAvailability(r.Context(), r.URL.Query().Get("date"), r.URL.Query().Get("exclude"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, availabilityResponse(av))
	}
}

func createHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), CreateInput(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(a))
	}
}

type bookingRequest struct {
	OwnerName  string `json:"owner_name"`
	OwnerPhone string `json:"owner_phone"`

	PetName string `json:"pet_name"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
	Age     string `json:"age"`

	Date string `json:"date"`
	Time string `json:"time"`

	PatientID string `json:"patient_id"`
}

func bookPublicHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.BookPublic(r.Context(), BookingInput(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(a))
	}
}

func listHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		// ?date=X es azúcar para from=X&to=X (vista día de la agenda).
		f := ListFilter{
			DateFrom: q.Get("from"),
			DateTo:   q.Get("to"),
			Status:   Status(q.Get("status")),
		}
		if d := q.Get("date"); d != "" {
			f.DateFrom, f.DateTo = d, d
		}

		items, err := svc.List(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "appointmentID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(a))
	}
}

func updateHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Update(r.Context(), chi.URLParam(r, "appointmentID"), UpdateInput(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(a))
	}
}

func updateStatusHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.UpdateStatus(r.Context(), chi.URLParam(r, "appointmentID"), Status(req.Status))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(a))
	}
}

func deleteHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "appointmentID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toResponse(a Appointment) appointmentResponse {
	return appointmentResponse{
		ID:         a.ID,
		StartsAt:   a.StartsAt,
		Date:       a.Date,
		Time:       a.Time,
		PetName:    a.PetName,
		Species:    a.Species,
		Breed:      a.Breed,
		Age:        a.Age,
		OwnerName:  a.OwnerName,
		OwnerPhone: a.OwnerPhone,
		Reason:     a.Reason,
		Status:     string(a.Status),
		PatientID:  a.PatientID,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotTaken):
		// Mensaje específico: el horario se acaba de ocupar, elegí otro.
		http.Error(w, "that time slot was just taken, pick another one", http.StatusConflict)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
