package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vet-practice/internal/platform/config"
	"vet-practice/internal/router"
)

const vetEmail = "vet@clinica.com"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	// Límites altos para que el rate limit no interfiera en estos flujos
	ts := httptest.NewServer(router.NewRouter(router.Options{
		RateLimit: config.RateLimitConfig{PublicRPS: 1000, PublicBurst: 1000},
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_WebBookingFlow(t *testing.T) {
	ts := newTestServer(t)

	// 1) Disponibilidad inicial: catálogo completo seleccionable
	{
		st, body := doReq(t, ts.URL, "GET", "/public/appointments/availability?date=2025-06-10", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 availability, got %d body=%s", st, body)
		}
		var av struct {
			Catalog    []string `json:"catalog"`
			Selectable []string `json:"selectable"`
		}
		_ = json.Unmarshal(body, &av)
		if len(av.Catalog) != 8 || len(av.Selectable) != 8 {
			t.Fatalf("expected the full 8-slot catalog selectable, got %v", av)
		}
	}

	// 2) Dueño desconocido reserva => cita + expediente automático
	var apptID, patientID string
	{
		st, body := doReq(t, ts.URL, "POST", "/public/appointments", "", map[string]any{
			"owner_name":  "Luis Pérez",
			"owner_phone": "555-111-2222",
			"pet_name":    "Firulais",
			"species":     "perro",
			"date":        "2025-06-10",
			"time":        "10:00",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 booking, got %d body=%s", st, body)
		}
		var resp struct {
			ID        string `json:"id"`
			PatientID string `json:"patient_id"`
			Reason    string `json:"reason"`
			Status    string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" || resp.PatientID == "" {
			t.Fatalf("booking must link an auto-created record, body=%s", body)
		}
		if resp.Reason != "Cita web" || resp.Status != "pendiente" {
			t.Fatalf("unexpected reason/status: %s/%s", resp.Reason, resp.Status)
		}
		apptID, patientID = resp.ID, resp.PatientID
	}

	// 3) El expediente automático existe, con la nota de origen
	{
		st, body := doReq(t, ts.URL, "GET", "/patients/"+patientID, vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get patient, got %d body=%s", st, body)
		}
		var p struct {
			Name  string `json:"name"`
			Breed string `json:"breed"`
			Age   string `json:"age"`
			Notes string `json:"notes"`
		}
		_ = json.Unmarshal(body, &p)
		if p.Name != "Firulais" || p.Breed != "Desconocido" || p.Age != "No especificada" {
			t.Fatalf("unexpected auto-created record: %+v", p)
		}
		if p.Notes != "Generado automáticamente desde Cita Web" {
			t.Fatalf("expected origin note, got %q", p.Notes)
		}
	}

	// 4) El slot quedó ocupado
	{
		st, body := doReq(t, ts.URL, "GET", "/public/appointments/availability?date=2025-06-10", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 availability, got %d", st)
		}
		var av struct {
			Occupied []string `json:"occupied"`
		}
		_ = json.Unmarshal(body, &av)
		if len(av.Occupied) != 1 || av.Occupied[0] != "10:00" {
			t.Fatalf("expected 10:00 occupied, got %v", av.Occupied)
		}
	}

	// 5) Reservar el mismo slot => 409
	{
		st, body := doReq(t, ts.URL, "POST", "/public/appointments", "", map[string]any{
			"owner_name":  "Ana",
			"owner_phone": "555-999-8888",
			"pet_name":    "Milo",
			"date":        "2025-06-10",
			"time":        "10:00",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 for taken slot, got %d body=%s", st, body)
		}
	}

	// 6) Staff ve la agenda del día y marca la cita atendida
	{
		st, body := doReq(t, ts.URL, "GET", "/appointments?date=2025-06-10", vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 agenda, got %d body=%s", st, body)
		}
		var items []struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != apptID {
			t.Fatalf("expected the booked appointment in the agenda")
		}
	}
	{
		st, body := doReq(t, ts.URL, "PATCH", "/appointments/"+apptID+"/status", vetEmail, map[string]any{
			"status": "atendida",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 status update, got %d body=%s", st, body)
		}
	}
}

func TestHTTP_Booking_DedupReusesRecord(t *testing.T) {
	ts := newTestServer(t)

	// Staff da de alta a Rex con el teléfono de María
	patientID := createPatient(t, ts.URL, map[string]any{
		"name":        "Rex",
		"species":     "perro",
		"breed":       "Labrador",
		"age":         "3 años",
		"owner_name":  "María González",
		"owner_phone": "555-123-4567",
	})

	// La dueña reserva tipeando "rex" en minúsculas
	st, body := doReq(t, ts.URL, "POST", "/public/appointments", "", map[string]any{
		"owner_name":  "Maria",
		"owner_phone": "555-123-4567",
		"pet_name":    "rex",
		"species":     "gato", // tipeo erróneo: debe ganar el expediente
		"date":        "2025-06-10",
		"time":        "11:00",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 booking, got %d body=%s", st, body)
	}

	var resp struct {
		PatientID string `json:"patient_id"`
		Species   string `json:"species"`
		Breed     string `json:"breed"`
		OwnerName string `json:"owner_name"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.PatientID != patientID {
		t.Fatalf("booking should link the existing record, got %q want %q", resp.PatientID, patientID)
	}
	if resp.Species != "perro" || resp.Breed != "Labrador" || resp.OwnerName != "María González" {
		t.Fatalf("snapshot should come from the record, got %+v", resp)
	}
}

func TestHTTP_StaffRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	st, _ := doReq(t, ts.URL, "GET", "/patients", "", nil)
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", st)
	}

	st, _ = doReq(t, ts.URL, "GET", "/patients", vetEmail, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 with dev header, got %d", st)
	}

	// Las rutas públicas no piden credenciales
	st, _ = doReq(t, ts.URL, "GET", "/public/appointments/availability?date=2025-06-10", "", nil)
	if st != http.StatusOK {
		t.Fatalf("public availability should not require auth, got %d", st)
	}
}

func TestHTTP_PatientArchiveRestore(t *testing.T) {
	ts := newTestServer(t)

	patientID := createPatient(t, ts.URL, map[string]any{
		"name":        "Milo",
		"species":     "gato",
		"owner_name":  "Ana",
		"owner_phone": "555-000-1111",
	})

	// Archivar lo saca de la lista activa
	{
		st, body := doReq(t, ts.URL, "POST", "/patients/"+patientID+"/archive", vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 archive, got %d body=%s", st, body)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/patients", vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list, got %d", st)
		}
		var items []any
		_ = json.Unmarshal(body, &items)
		if len(items) != 0 {
			t.Fatalf("archived patient must leave the active list")
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/patients/archived", vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 archived list, got %d", st)
		}
		var items []struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != patientID {
			t.Fatalf("archived patient must show in the archive")
		}
	}

	// Restaurar lo devuelve
	{
		st, _ := doReq(t, ts.URL, "POST", "/patients/"+patientID+"/restore", vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 restore, got %d", st)
		}
		st, body := doReq(t, ts.URL, "GET", "/patients", vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list, got %d", st)
		}
		var items []any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("restored patient must return to the active list")
		}
	}
}

func TestHTTP_MedicalRecordsAndPublicCard(t *testing.T) {
	ts := newTestServer(t)

	patientID := createPatient(t, ts.URL, map[string]any{
		"name":        "Rex",
		"species":     "perro",
		"owner_name":  "María",
		"owner_phone": "555-123-4567",
	})

	// Consulta sin diagnóstico => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/patients/"+patientID+"/history", vetEmail, map[string]any{
			"type":     "Consulta",
			"findings": "tos",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 without diagnosis, got %d", st)
		}
	}

	// Alta de consulta y de vacuna
	{
		st, body := doReq(t, ts.URL, "POST", "/patients/"+patientID+"/history", vetEmail, map[string]any{
			"type":      "Consulta",
			"diagnosis": "otitis",
			"treatment": "gotas",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 history, got %d body=%s", st, body)
		}
		var e struct {
			Vet string `json:"vet"`
		}
		_ = json.Unmarshal(body, &e)
		if e.Vet != vetEmail {
			t.Fatalf("the attending vet comes from the session, got %q", e.Vet)
		}
	}
	var vaccinationID string
	{
		st, body := doReq(t, ts.URL, "POST", "/patients/"+patientID+"/vaccinations", vetEmail, map[string]any{
			"name":     "Rabia",
			"date":     "2025-06-01",
			"next_due": "2026-06-01",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 vaccination, got %d body=%s", st, body)
		}
		var v struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &v)
		vaccinationID = v.ID
	}

	// El dueño ve la cartilla y el historial sin credenciales
	{
		st, body := doReq(t, ts.URL, "GET", "/public/pets/"+patientID+"/card", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 public card, got %d", st)
		}
		var card []struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(body, &card)
		if len(card) != 1 || card[0].Name != "Rabia" {
			t.Fatalf("expected Rabia on the card, got %s", body)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/public/pets/"+patientID+"/history", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 public history, got %d", st)
		}
		var hist []any
		_ = json.Unmarshal(body, &hist)
		if len(hist) != 1 {
			t.Fatalf("expected 1 history entry, got %d", len(hist))
		}
	}

	// Borrar la vacuna deja la cartilla vacía
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/patients/"+patientID+"/vaccinations/"+vaccinationID, vetEmail, nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete vaccination, got %d", st)
		}
		st, body := doReq(t, ts.URL, "GET", "/public/pets/"+patientID+"/card", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 card, got %d", st)
		}
		var card []any
		_ = json.Unmarshal(body, &card)
		if len(card) != 0 {
			t.Fatalf("card should be empty after delete")
		}
	}
}

func TestHTTP_ConsultationFinalize(t *testing.T) {
	ts := newTestServer(t)

	patientID := createPatient(t, ts.URL, map[string]any{
		"name":        "Rex",
		"species":     "perro",
		"owner_name":  "María",
		"owner_phone": "555-123-4567",
	})

	// Cita de staff vinculada al expediente
	var apptID string
	{
		st, body := doReq(t, ts.URL, "POST", "/appointments", vetEmail, map[string]any{
			"date":        "2025-06-10",
			"time":        "09:00",
			"pet_name":    "Rex",
			"owner_name":  "María",
			"owner_phone": "555-123-4567",
			"patient_id":  patientID,
			"reason":      "control",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 appointment, got %d body=%s", st, body)
		}
		var a struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &a)
		apptID = a.ID
	}

	// Finalizar la visita
	{
		st, body := doReq(t, ts.URL, "POST", "/consultations", vetEmail, map[string]any{
			"patient_id":     patientID,
			"appointment_id": apptID,
			"mode":           "consulta",
			"weight":         "28.5 kg",
			"diagnosis":      "sano",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 finalize, got %d body=%s", st, body)
		}
		var res struct {
			HistoryEntryID string   `json:"history_entry_id"`
			Weight         string   `json:"weight"`
			Warnings       []string `json:"warnings"`
		}
		_ = json.Unmarshal(body, &res)
		if res.HistoryEntryID == "" || res.Weight != "28.5 kg" {
			t.Fatalf("unexpected finalize response: %s", body)
		}
		if len(res.Warnings) != 0 {
			t.Fatalf("no warnings expected, got %v", res.Warnings)
		}
	}

	// La cita quedó finalizada y el expediente registró la atención
	{
		st, body := doReq(t, ts.URL, "GET", "/appointments/"+apptID, vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get appointment, got %d", st)
		}
		var a struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &a)
		if a.Status != "finalizada" {
			t.Fatalf("expected finalizada, got %q", a.Status)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/patients/"+patientID, vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get patient, got %d", st)
		}
		var p struct {
			Weight      string  `json:"weight"`
			LastVisitAt *string `json:"last_visit_at"`
		}
		_ = json.Unmarshal(body, &p)
		if p.Weight != "28.5 kg" || p.LastVisitAt == nil {
			t.Fatalf("weight/last visit should update, got %s", body)
		}
	}

	// Y salió de la sala de espera
	// (la cita es de otra fecha, pero la finalizada nunca aparece)
	{
		st, body := doReq(t, ts.URL, "GET", "/consultations/waiting-room", vetEmail, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 waiting room, got %d", st)
		}
		var entries []any
		_ = json.Unmarshal(body, &entries)
		if len(entries) != 0 {
			t.Fatalf("waiting room should be empty, got %d", len(entries))
		}
	}
}

func TestHTTP_PublicPetLookup(t *testing.T) {
	ts := newTestServer(t)

	createPatient(t, ts.URL, map[string]any{
		"name":        "Rex",
		"species":     "perro",
		"owner_name":  "María",
		"owner_phone": "555-123-4567",
	})

	// Teléfono demasiado corto => 400
	st, _ := doReq(t, ts.URL, "GET", "/public/pets?phone=555", "", nil)
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for short phone, got %d", st)
	}

	st, body := doReq(t, ts.URL, "GET", "/public/pets?phone=555-123-4567", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 lookup, got %d", st)
	}
	var items []struct {
		Name string `json:"name"`
	}
	_ = json.Unmarshal(body, &items)
	if len(items) != 1 || items[0].Name != "Rex" {
		t.Fatalf("expected Rex for that phone, got %s", body)
	}

	st, body = doReq(t, ts.URL, "GET", "/public/pets?phone=999-999-9999", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 empty lookup, got %d", st)
	}
	var none []any
	_ = json.Unmarshal(body, &none)
	if len(none) != 0 {
		t.Fatalf("unknown phone should return an empty list")
	}
}

func TestHTTP_LoginIssuesToken(t *testing.T) {
	// Secret configurado pero verifier nil: modo dev con tokens reales
	ts := httptest.NewServer(router.NewRouter(router.Options{
		JWT:       config.JWTConfig{Secret: "test-secret", Issuer: "vet-practice"},
		RateLimit: config.RateLimitConfig{PublicRPS: 1000, PublicBurst: 1000},
	}))
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/auth/register", vetEmail, map[string]any{
		"email":    "dra@clinica.com",
		"name":     "Dra. Paula",
		"password": "supersecreta",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", st, body)
	}

	st, body = doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
		"email":    "dra@clinica.com",
		"password": "supersecreta",
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login, got %d body=%s", st, body)
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Token == "" || resp.User.Email != "dra@clinica.com" {
		t.Fatalf("unexpected login response: %s", body)
	}

	st, body = doReq(t, ts.URL, "POST", "/auth/login", "", map[string]any{
		"email":    "dra@clinica.com",
		"password": "incorrecta",
	})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 wrong password, got %d body=%s", st, body)
	}
}

func TestHTTP_PublicRateLimit(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{
		RateLimit: config.RateLimitConfig{PublicRPS: 1, PublicBurst: 2},
	}))
	defer ts.Close()

	path := "/public/appointments/availability?date=2025-06-10"
	limited := false
	for i := 0; i < 5; i++ {
		st, _ := doReq(t, ts.URL, "GET", path, "", nil)
		if st == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("expected 429 after exhausting the burst")
	}
}

// -------------------------
// Helpers
// -------------------------

func createPatient(t *testing.T, baseURL string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/patients", vetEmail, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create patient, got %d body=%s", st, body)
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create patient: missing id body=%s", body)
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugEmail string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugEmail != "" {
		req.Header.Set("X-Debug-Staff-Email", debugEmail)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
