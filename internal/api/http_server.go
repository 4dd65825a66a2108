package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"blinklean/internal/config"
	"blinklean/internal/domain"
	"blinklean/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// HealthCheck is run by /readyz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HTTPServer exposes the booking and settlement API over HTTP/JSON.
type HTTPServer struct {
	cfg     config.APIConfig
	svc     Services
	tokens  *TokenAuth
	keys    *KeyAuth
	limiter *rateLimiter
	checks  []HealthCheck
	server  *http.Server
	log     zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, svc Services, checks []HealthCheck, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		svc:     svc,
		tokens:  NewTokenAuth(cfg.Auth.JWTSecret),
		keys:    NewKeyAuth(cfg.Auth),
		limiter: newRateLimiter(cfg.RateLimit),
		checks:  checks,
		log:     zerolog.Nop(),
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

// Handler returns the routed handler with middleware applied.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/v1/availability/check", s.handleAvailabilityCheck)
	mux.HandleFunc("POST /api/v1/scrap/estimate", s.requireRequester(s.handleEstimate))
	mux.HandleFunc("POST /api/v1/bookings/scrap", s.requireRequester(s.handleSubmitBooking))
	mux.HandleFunc("POST /api/v1/payments/create-order", s.requireRequester(s.handleCreateOrder))
	mux.HandleFunc("POST /api/v1/payments/verify", s.requireRequester(s.handleVerifyPayment))
	mux.HandleFunc("POST /api/v1/payments/{order_id}/fail", s.requireKey(PermWritePayments, s.handleFailOrder))
	mux.HandleFunc("GET /api/v1/scrap/rates", s.handleListRates)
	mux.HandleFunc("PUT /api/v1/scrap/rates/{id}", s.requireKey(PermWriteRates, s.handleUpdateRate))
	mux.HandleFunc("GET /api/v1/services", s.handleListServices)

	return s.requestID(s.logRequests(s.rateLimit(mux)))
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type requestIDKey struct{}

func (s *HTTPServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.IncHTTP(endpoint, strconv.Itoa(recorder.status))

		event := s.log.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = s.log.Error()
		}
		id, _ := r.Context().Value(requestIDKey{}).(string)
		event.
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func (s *HTTPServer) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") && !s.limiter.allow(httpClientKey(r)) {
			s.writeError(w, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRequester rejects calls without a valid bearer token and stores its phone in the context.
func (s *HTTPServer) requireRequester(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		phone, err := s.tokens.Requester(r.Header.Get(authorizationHeader))
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r.WithContext(withRequester(r.Context(), phone)))
	}
}

func (s *HTTPServer) requireKey(permission string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := s.keys.Authorize(r.Header.Get(s.keys.Header()), permission)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.log.Debug().Str("client", client).Str("path", r.URL.Path).Msg("api key accepted")
		next(w, r)
	}
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			s.log.Warn().Err(err).Str("check", c.Name).Msg("readiness check failed")
			failed[c.Name] = "unavailable"
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// httpClientKey prefers the bearer token so a user keeps one bucket across addresses.
func httpClientKey(r *http.Request) string {
	if tok := bearerToken(r.Header.Get(authorizationHeader)); tok != "" {
		return "token:" + tok
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return "ip:" + host
	}
	return clientKeyUnknown
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return domain.ValidationError{Msg: "invalid JSON body", Err: err}
	}
	return nil
}

func (s *HTTPServer) writeError(w http.ResponseWriter, err error) {
	code, msg := httpStatus(err)
	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Int("status", code).Msg("request failed")
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
