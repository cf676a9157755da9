package router

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	blobmem "vet-practice/internal/adapters/blob/memory"
	mem "vet-practice/internal/adapters/storage/memory"
	pg "vet-practice/internal/adapters/storage/postgres"
	"vet-practice/internal/domain/appointments"
	"vet-practice/internal/domain/consultations"
	"vet-practice/internal/domain/medrecords"
	"vet-practice/internal/domain/owners"
	"vet-practice/internal/domain/patients"
	"vet-practice/internal/domain/staff"
	"vet-practice/internal/middleware"
	"vet-practice/internal/platform/config"
	"vet-practice/internal/platform/metrics"
	"vet-practice/internal/ports/auth"
	"vet-practice/internal/ports/blob"
	"vet-practice/internal/ports/notify"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // nil => modo dev (X-Debug-Staff-Email)

	// DB opcional: si viene, repos Postgres; si no, in-memory.
	DB *sql.DB

	Blobs    blob.Store      // nil => in-memory
	Notifier notify.Notifier // nil => noop

	Logger  *zap.Logger
	Metrics *metrics.Collector

	JWT config.JWTConfig

	RateLimit config.RateLimitConfig
	CORS      config.CORSConfig
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Blobs == nil {
		opts.Blobs = blobmem.NewStore()
	}
	if opts.RateLimit.PublicRPS <= 0 {
		opts.RateLimit.PublicRPS = 5
	}
	if opts.RateLimit.PublicBurst <= 0 {
		opts.RateLimit.PublicBurst = 10
	}
	if len(opts.CORS.AllowedOrigins) == 0 {
		opts.CORS.AllowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Debug-Staff-Email"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	var (
		patientsRepo   patients.Repository
		ownersRepo     owners.Repository
		apptsRepo      appointments.Repository
		medrecordsRepo medrecords.Repository
		staffRepo      staff.Repository
	)

	if opts.DB != nil {
		patientsRepo = pg.NewPatientsRepo(opts.DB)
		ownersRepo = pg.NewOwnersRepo(opts.DB)
		apptsRepo = pg.NewAppointmentsRepo(opts.DB)
		medrecordsRepo = pg.NewMedRecordsRepo(opts.DB)
		staffRepo = pg.NewStaffRepo(opts.DB)
	} else {
		patientsRepo = mem.NewPatientsRepo()
		ownersRepo = mem.NewOwnersRepo()
		apptsRepo = mem.NewAppointmentsRepo()
		medrecordsRepo = mem.NewMedRecordsRepo()
		staffRepo = mem.NewStaffRepo()
	}

	// Services por módulo. medrecords se crea primero porque pacientes
	// necesita su purger para el hard delete.
	medrecordsSvc := medrecords.NewService(medrecordsRepo, opts.Blobs, log.Named("medrecords"))
	patientsSvc := patients.NewService(patientsRepo, opts.Blobs, medrecordsSvc, log.Named("patients"))
	ownersSvc := owners.NewService(ownersRepo, patientsSvc)
	apptsSvc := appointments.NewService(apptsRepo, patientDirectory{patientsSvc}, opts.Notifier, opts.Metrics, log.Named("appointments"))
	consultSvc := consultations.NewService(patientsSvc, medrecordsSvc, apptsSvc, opts.Metrics, log.Named("consultations"))
	staffSvc := staff.NewService(staffRepo, staff.TokenConfig{
		Secret: opts.JWT.Secret,
		TTL:    opts.JWT.TokenTTL,
		Issuer: opts.JWT.Issuer,
	})

	// Rutas públicas (autoservicio del dueño + login), con rate limit por IP.
	r.Group(func(pub chi.Router) {
		pub.Use(middleware.RateLimit(opts.RateLimit.PublicRPS, opts.RateLimit.PublicBurst))
		appointments.RegisterPublicRoutes(pub, apptsSvc)
		patients.RegisterPublicRoutes(pub, patientsSvc)
		medrecords.RegisterPublicRoutes(pub, medrecordsSvc)
		staff.RegisterPublicRoutes(pub, staffSvc)
	})

	// Rutas de staff: requieren claims.
	r.Group(func(priv chi.Router) {
		priv.Use(middleware.RequireStaff)
		appointments.RegisterRoutes(priv, apptsSvc)
		patients.RegisterRoutes(priv, patientsSvc)
		owners.RegisterRoutes(priv, ownersSvc)
		medrecords.RegisterRoutes(priv, medrecordsSvc)
		consultations.RegisterRoutes(priv, consultSvc)
		staff.RegisterRoutes(priv, staffSvc)
	})

	return r
}

// patientDirectory adapta el servicio de pacientes a lo que necesita el
// agendado (la heurística teléfono + nombre y el alta automática).
type patientDirectory struct {
	svc *patients.Service
}

func (d patientDirectory) FindByPhoneAndName(ctx context.Context, phone, name string) (appointments.PatientRef, bool, error) {
	p, ok, err := d.svc.FindByPhoneAndName(ctx, phone, name)
	if err != nil || !ok {
		return appointments.PatientRef{}, false, err
	}
	return toPatientRef(p), true, nil
}

func (d patientDirectory) CreateFromBooking(ctx context.Context, name, species, breed, age, ownerName, phone string) (appointments.PatientRef, error) {
	p, err := d.svc.CreateFromBooking(ctx, name, species, breed, age, ownerName, phone)
	if err != nil {
		return appointments.PatientRef{}, err
	}
	return toPatientRef(p), nil
}

func toPatientRef(p patients.Patient) appointments.PatientRef {
	return appointments.PatientRef{
		ID:      p.ID,
		Name:    p.Name,
		Species: string(p.Species),
		Breed:   p.Breed,
		Age:     p.Age,
		Owner:   p.OwnerName,
	}
}
