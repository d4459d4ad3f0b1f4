package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"trainpulse/internal/metrics"
	"trainpulse/internal/service"
)

// Server wires the analysis service into a versioned JSON API.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	metrics    *metrics.Manager
}

// New builds the router and handlers around the analysis service.
func New(svc *service.AnalysisService, m *metrics.Manager, promRegistry *prometheus.Registry) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		metrics: m,
	}

	handler := NewHandler(svc, m)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/analyze", handler.HandleAnalyze).Methods("POST")
	v1.HandleFunc("/predict", handler.HandlePredict).Methods("POST")
	v1.HandleFunc("/load-summary", handler.HandleLoadSummary).Methods("GET")
	v1.HandleFunc("/injury-risk", handler.HandleInjuryRisk).Methods("GET")
	v1.HandleFunc("/readiness", handler.HandleReadiness).Methods("GET")
	v1.HandleFunc("/trends", handler.HandleTrends).Methods("GET")
	v1.HandleFunc("/models", handler.HandleModels).Methods("GET")
	v1.Use(s.requestMiddleware)

	s.router.HandleFunc("/health", handler.HandleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	return s
}

// Serve starts listening on the given port and blocks until the server
// stops.
func (s *Server) Serve(port int) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Infof("listening on port %d", port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() *mux.Router {
	return s.router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.metrics.CounterRequests.WithLabelValues(r.Method, fmt.Sprintf("%d", recorder.status)).Inc()
		s.metrics.HistogramRequestDuration.WithLabelValues(r.Method).Observe(time.Since(started).Seconds())
		log.Debugf("%s %s -> %d in %s", r.Method, r.URL.Path, recorder.status, time.Since(started))
	})
}
