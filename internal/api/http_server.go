package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"innkeep/internal/config"
	"innkeep/internal/domain"
	"innkeep/internal/export"
	"innkeep/internal/metrics"

	"github.com/rs/zerolog"
)

// Server exposes the booking REST API.
type Server struct {
	cfg      config.HTTPConfig
	bookings domain.BookingLifecycle
	catalog  domain.Catalog
	reviews  domain.Reviews
	users    domain.UserDirectory
	exporter *export.Exporter
	cache    domain.AvailabilityCache
	tokens   *TokenManager
	limiter  *rateLimiter
	logger   *zerolog.Logger
	server   *http.Server
}

func NewServer(
	cfg config.HTTPConfig,
	authCfg config.AuthConfig,
	bookings domain.BookingLifecycle,
	catalog domain.Catalog,
	reviews domain.Reviews,
	users domain.UserDirectory,
	exporter *export.Exporter,
	cache domain.AvailabilityCache,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		cfg:      cfg,
		bookings: bookings,
		catalog:  catalog,
		reviews:  reviews,
		users:    users,
		exporter: exporter,
		cache:    cache,
		tokens:   NewTokenManager(authCfg),
		limiter:  newRateLimiter(cfg),
		logger:   logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	mux.HandleFunc("GET /api/v1/hotels", s.handleListHotels)
	mux.HandleFunc("GET /api/v1/hotels/{id}", s.handleGetHotel)
	mux.HandleFunc("GET /api/v1/hotels/{id}/rooms", s.handleGetHotelRooms)
	mux.HandleFunc("GET /api/v1/rooms/{id}", s.handleGetRoom)
	mux.HandleFunc("GET /api/v1/rooms/{id}/availability", s.handleRoomAvailability)
	mux.HandleFunc("GET /api/v1/rooms/{id}/calendar", s.handleRoomCalendar)

	mux.HandleFunc("GET /api/v1/hotels/{id}/reviews", s.handleGetHotelReviews)
	mux.HandleFunc("GET /api/v1/reviews/{id}", s.handleGetReview)
	mux.HandleFunc("POST /api/v1/reviews", s.requireAuth(s.handleCreateReview))
	mux.HandleFunc("PUT /api/v1/reviews/{id}", s.requireAuth(s.handleUpdateReview))
	mux.HandleFunc("DELETE /api/v1/reviews/{id}", s.requireAuth(s.handleDeleteReview))

	mux.HandleFunc("POST /api/v1/bookings", s.requireAuth(s.handleCreateBooking))
	mux.HandleFunc("GET /api/v1/bookings", s.requireAuth(s.handleListBookings))
	mux.HandleFunc("GET /api/v1/bookings/{id}", s.requireAuth(s.handleGetBooking))
	mux.HandleFunc("GET /api/v1/bookings/reference/{reference}", s.requireAuth(s.handleGetBookingByReference))
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", s.requireAuth(s.handleCancelBooking))
	mux.HandleFunc("POST /api/v1/bookings/{id}/payments", s.requireAuth(s.handleRecordPayment))

	mux.HandleFunc("POST /api/v1/bookings/{id}/checkin", s.requireAdmin(s.handleCheckIn))
	mux.HandleFunc("POST /api/v1/bookings/{id}/checkout", s.requireAdmin(s.handleCheckOut))
	mux.HandleFunc("POST /api/v1/bookings/{id}/no-show", s.requireAdmin(s.handleMarkNoShow))
	mux.HandleFunc("GET /api/v1/admin/export/bookings", s.requireAdmin(s.handleExportBookings))

	handler := s.loggingMiddleware(s.limiter.Wrap(mux))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: parseTimeout(cfg.ReadHeaderTimeout, 5*time.Second),
		WriteTimeout:      parseTimeout(cfg.WriteTimeout, 30*time.Second),
	}

	return s
}

func parseTimeout(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the composed middleware chain for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path, strconv.Itoa(recorder.status))
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
