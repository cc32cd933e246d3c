package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/BlackMission/spauth/internal/auth"
	"github.com/BlackMission/spauth/internal/handler"
	"github.com/BlackMission/spauth/internal/metrics"
	"github.com/BlackMission/spauth/internal/state"
)

const requestIDHeader = "X-Request-ID"

// Config holds the server configuration.
type Config struct {
	Host string
	Port int
}

// Deps holds the service dependencies.
type Deps struct {
	Strategies *auth.Registry
	State      *state.Service
	Metrics    *metrics.Metrics
	Logger     logrus.FieldLogger
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	log        logrus.FieldLogger
}

// New creates a new Server with all routes wired.
func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", handler.Health(deps.Strategies)).Methods(http.MethodGet)
	r.HandleFunc("/strategies", handler.Strategies(deps.Strategies)).Methods(http.MethodGet)
	r.HandleFunc("/login/{strategy}", handler.Login(deps.Strategies, deps.State, deps.Metrics)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/endpoint/{strategy}", handler.Endpoint(deps.Strategies, deps.State, deps.Metrics)).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/user/{strategy}", handler.User(deps.Strategies, deps.Metrics)).Methods(http.MethodGet)
	r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)

	r.Use(routeTemplateMiddleware)

	// r.Use middleware never sees unmatched requests.
	h := otelhttp.NewHandler(
		requestIDMiddleware(loggingMiddleware(deps.Logger, deps.Metrics)(r)),
		"spauth",
	)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	return &Server{
		handler: h,
		log:     deps.Logger,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      h,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the server's HTTP handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening and serving.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.httpServer.Addr, err)
	}
	s.log.WithField("addr", s.httpServer.Addr).Info("spauth listening")
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// unmatchedRoute labels requests no route accepted, keeping raw paths out of metrics.
const unmatchedRoute = "unmatched"

func loggingMiddleware(log logrus.FieldLogger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK, route: unmatchedRoute}
			next.ServeHTTP(sw, r)

			m.HTTPRequestsTotal.WithLabelValues(r.Method, sw.route, strconv.Itoa(sw.status)).Inc()

			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"route":      sw.route,
				"status":     sw.status,
				"duration":   time.Since(start).String(),
				"request_id": r.Header.Get(requestIDHeader),
			}).Info("request")
		})
	}
}

// routeTemplateMiddleware runs inside the router and hands the matched path
// template back to loggingMiddleware.
func routeTemplateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sw, ok := w.(*statusWriter); ok {
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					sw.route = tmpl
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
	route  string
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
