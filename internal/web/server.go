// Package web is the HTTP surface: a JSON API over the booking flow,
// directory and audit log, plus health and metrics endpoints.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/field-scheduler/internal/auth"
	"github.com/example/field-scheduler/internal/booking"
	"github.com/example/field-scheduler/internal/db"
	"github.com/example/field-scheduler/internal/metrics"
	"github.com/example/field-scheduler/internal/records"
	"github.com/example/field-scheduler/internal/salesforce"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Upstream is everything the API needs from the scheduling platform: the
// booking contract plus the customer and appointment reads.
type Upstream interface {
	booking.Platform
	Customers(ctx context.Context, search string) ([]booking.Customer, error)
	Customer(ctx context.Context, id string) (*booking.Customer, error)
	ListAppointments(ctx context.Context) ([]booking.Appointment, error)
}

// Sessions handles local login and request authentication.
type Sessions interface {
	Authenticate(ctx context.Context, username, password string) (int64, error)
	SetSession(w http.ResponseWriter, r *http.Request, userID int64) error
	ClearSession(w http.ResponseWriter)
	RequireAuth(next http.Handler) http.Handler
}

// CredentialSource stores each user's upstream credential.
type CredentialSource interface {
	Save(ctx context.Context, userID int64, accessToken, tenantEndpoint string) error
	Get(ctx context.Context, userID int64) (auth.UpstreamCredential, error)
	Delete(ctx context.Context, userID int64) error
}

// BookingLog is the local audit log of submitted bookings.
type BookingLog interface {
	Create(ctx context.Context, b records.Booking) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]records.Booking, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (records.Booking, error)
}

type Server struct {
	Log         *zap.Logger
	Auth        Sessions
	Creds       CredentialSource
	Bookings    BookingLog
	NewUpstream func(creds salesforce.Credentials) Upstream
	CORSOrigins []string

	flows *flowStore
	cache *upstreamCache
}

func NewServer(log *zap.Logger, sessions Sessions, creds CredentialSource, bookings BookingLog, newUpstream func(salesforce.Credentials) Upstream, corsOrigins []string) *Server {
	return &Server{
		Log:         log,
		Auth:        sessions,
		Creds:       creds,
		Bookings:    bookings,
		NewUpstream: newUpstream,
		CORSOrigins: corsOrigins,
		flows:       newFlowStore(),
		cache:       newUpstreamCache(),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.Auth.RequireAuth)

		r.Put("/api/credentials", s.handleSetCredentials)
		r.Delete("/api/credentials", s.handleDeleteCredentials)

		r.Get("/api/directory/work-type-groups", s.handleWorkTypeGroups)
		r.Get("/api/directory/territories", s.handleTerritories)
		r.Get("/api/directory/resources", s.handleResources)
		r.Get("/api/directory/business-hours/{hoursID}", s.handleBusinessHours)
		r.Post("/api/candidates", s.handleCandidates)

		r.Get("/api/customers", s.handleCustomers)
		r.Get("/api/appointments", s.handleAppointments)
		r.Get("/api/bookings", s.handleBookingLog)
		r.Get("/api/bookings/{bookingID}", s.handleBookingDetail)

		r.Post("/api/flows", s.handleFlowCreate)
		r.Route("/api/flows/{flowID}", func(r chi.Router) {
			r.Get("/", s.handleFlowGet)
			r.Post("/work-type", s.handleFlowWorkType)
			r.Post("/territory", s.handleFlowTerritory)
			r.Post("/time-slot", s.handleFlowTimeSlot)
			r.Post("/resource", s.handleFlowResource)
			r.Post("/back", s.handleFlowBack)
			r.Post("/cancel", s.handleFlowCancel)
			r.Post("/submit", s.handleFlowSubmit)
		})
	})

	return r
}

// Start runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

var errNoUpstreamCredentials = errors.New("upstream credentials not configured")

// upstream returns the caller's platform client and directory components,
// building them on first use and rebuilding when the stored credential has
// changed since the cached state was made.
func (s *Server) upstream(ctx context.Context, userID int64) (*upstreamState, error) {
	cred, err := s.Creds.Get(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errNoUpstreamCredentials
		}
		return nil, err
	}

	if st, ok := s.cache.get(userID, cred.UpdatedAt); ok {
		return st, nil
	}

	up := s.NewUpstream(salesforce.Credentials{
		AccessToken:    cred.AccessToken,
		TenantEndpoint: cred.TenantEndpoint,
	})
	st := &upstreamState{
		credStamp: cred.UpdatedAt,
		upstream:  up,
		resolver:  booking.NewResolver(up, s.Log),
		composer:  booking.NewComposer(up, s.Log),
	}
	s.cache.put(userID, st)
	return st, nil
}

// authedUser pulls the user id set by RequireAuth off the context.
func (s *Server) authedUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeErrorMsg(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return 0, false
	}
	return uid, true
}

// upstreamOr resolves the caller's upstream state and writes the error
// response itself when that fails.
func (s *Server) upstreamOr(w http.ResponseWriter, r *http.Request) (*upstreamState, int64, bool) {
	uid, _ := auth.UserIDFromContext(r.Context())
	st, err := s.upstream(r.Context(), uid)
	if err != nil {
		if errors.Is(err, errNoUpstreamCredentials) {
			writeErrorMsg(w, http.StatusPreconditionFailed, "credentials_missing", err.Error())
			return nil, uid, false
		}
		s.Log.Error("resolve upstream", zap.Int64("user_id", uid), zap.Error(err))
		writeError(w, err)
		return nil, uid, false
	}
	return st, uid, true
}
