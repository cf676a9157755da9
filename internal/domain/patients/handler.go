package patients

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxPhotoBytes = 5 << 20

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/patients", func(pr chi.Router) {
		pr.Get("/", listPatientsHandler(svc))
		pr.Post("/", createPatientHandler(svc))
		pr.Get("/archived", listArchivedHandler(svc))

		pr.Get("/{patientID}", getPatientHandler(svc))
		pr.Put("/{patientID}", updatePatientHandler(svc))
		pr.Delete("/{patientID}", deletePatientHandler(svc))

		pr.Post("/{patientID}/archive", archiveHandler(svc))
		pr.Post("/{patientID}/restore", restoreHandler(svc))

		pr.Put("/{patientID}/photo", setPhotoHandler(svc))
		pr.Delete("/{patientID}/photo", deletePhotoHandler(svc))
	})
}

// RegisterPublicRoutes expone la consulta "mis mascotas" por teléfono y la
// edición básica que puede hacer el propio dueño.
func RegisterPublicRoutes(r chi.Router, svc *Service) {
	r.Get("/public/pets", lookupByPhoneHandler(svc))
	r.Patch("/public/pets/{patientID}", ownerEditHandler(svc))
}

type patientRequest struct {
	Name       string `json:"name"`
	Species    string `json:"species"`
	Breed      string `json:"breed"`
	Age        string `json:"age"`
	Weight     string `json:"weight"`
	OwnerName  string `json:"owner_name"`
	OwnerPhone string `json:"owner_phone"`
	OwnerID    string `json:"owner_id"`
	Notes      string `json:"notes"`
}

type patientResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	Breed       string     `json:"breed"`
	Age         string     `json:"age"`
	Weight      string     `json:"weight"`
	OwnerName   string     `json:"owner_name"`
	OwnerPhone  string     `json:"owner_phone"`
	OwnerID     string     `json:"owner_id,omitempty"`
	Notes       string     `json:"notes"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	Active      bool       `json:"active"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	LastVisitAt *time.Time `json:"last_visit_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func createPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req patientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			Name:       req.Name,
			Species:    req.Species,
			Breed:      req.Breed,
			Age:        req.Age,
			Weight:     req.Weight,
			OwnerName:  req.OwnerName,
			OwnerPhone: req.OwnerPhone,
			OwnerID:    req.OwnerID,
			Notes:      req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(p))
	}
}

func listPatientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponses(items))
	}
}

func listArchivedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListArchived(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponses(items))
	}
}

func getPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetByID(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

func updatePatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req patientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Update(r.Context(), chi.URLParam(r, "patientID"), UpdateInput{
			Name:       req.Name,
			Species:    req.Species,
			Breed:      req.Breed,
			Age:        req.Age,
			Weight:     req.Weight,
			OwnerName:  req.OwnerName,
			OwnerPhone: req.OwnerPhone,
			OwnerID:    req.OwnerID,
			Notes:      req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

func deletePatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.HardDelete(r.Context(), chi.URLParam(r, "patientID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func archiveHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Archive(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

func restoreHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Restore(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

func setPhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("foto")
		if err != nil {
			http.Error(w, "missing foto file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
		if err != nil {
			http.Error(w, "reading upload", http.StatusBadRequest)
			return
		}

		ct := header.Header.Get("Content-Type")
		if ct == "" {
			ct = "image/jpeg"
		}

		p, err := svc.SetPhoto(r.Context(), chi.URLParam(r, "patientID"), header.Filename, ct, data)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

func deletePhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.DeletePhoto(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

func lookupByPhoneHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone := r.URL.Query().Get("phone")
		if len(phone) < 8 {
			http.Error(w, "phone must have at least 8 digits", http.StatusBadRequest)
			return
		}

		items, err := svc.ListByPhone(r.Context(), phone)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponses(items))
	}
}

type ownerEditRequest struct {
	Name    string `json:"name"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
	Age     string `json:"age"`
}

// ownerEditHandler deja al dueño corregir los datos básicos de su mascota.
// No toca dueño/teléfono/notas: eso es de staff.
func ownerEditHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ownerEditRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		current, err := svc.GetByID(r.Context(), chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.Update(r.Context(), current.ID, UpdateInput{
			Name:       req.Name,
			Species:    req.Species,
			Breed:      req.Breed,
			Age:        req.Age,
			Weight:     current.Weight,
			OwnerName:  current.OwnerName,
			OwnerPhone: current.OwnerPhone,
			OwnerID:    current.OwnerID,
			Notes:      current.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(p))
	}
}

func toResponse(p Patient) patientResponse {
	return patientResponse{
		ID:          p.ID,
		Name:        p.Name,
		Species:     string(p.Species),
		Breed:       p.Breed,
		Age:         p.Age,
		Weight:      p.Weight,
		OwnerName:   p.OwnerName,
		OwnerPhone:  p.OwnerPhone,
		OwnerID:     p.OwnerID,
		Notes:       p.Notes,
		PhotoURL:    p.PhotoURL,
		Active:      p.Active,
		ArchivedAt:  p.ArchivedAt,
		LastVisitAt: p.LastVisitAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toResponses(items []Patient) []patientResponse {
	out := make([]patientResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toResponse(p))
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "patient not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo,
// igual que en el resto del código: todavía no amerita un helper común.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
