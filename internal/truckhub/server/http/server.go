package http

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/truckwatch-io/truckwatch/internal/pkg/metrics"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/core/service"
	"github.com/truckwatch-io/truckwatch/internal/truckhub/stream"
	"github.com/truckwatch-io/truckwatch/pkg/log"
	"github.com/truckwatch-io/truckwatch/pkg/options"
)

// ReadyFunc reports whether a dependency is ready to serve traffic.
type ReadyFunc func(ctx context.Context) error

type Server struct {
	server  *http.Server
	options *options.HttpOptions
	hub     *stream.Hub
}

// NewServer builds the REST API, the WebSocket stream and the probe
// endpoints. checks are consulted by /readyz.
func NewServer(opts *options.HttpOptions, svc *service.Service, hub *stream.Hub, checks ...ReadyFunc) *Server {
	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(svc, hub, checks...),
			ReadHeaderTimeout: opts.Timeout,
			ReadTimeout:       opts.Timeout,
			WriteTimeout:      opts.Timeout,
		},
		options: opts,
		hub:     hub,
	}
}

// NewRouter registers every route on a gorilla/mux router.
func NewRouter(svc *service.Service, hub *stream.Hub, checks ...ReadyFunc) *mux.Router {
	h := &handler{svc: svc, hub: hub}

	r := mux.NewRouter()
	r.Use(instrument)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/trucks", h.listTrucks).Methods(http.MethodGet)
	v1.HandleFunc("/trucks/{truckID}", h.getTruck).Methods(http.MethodGet)
	v1.HandleFunc("/trucks/{truckID}/requests", h.sendRequest).Methods(http.MethodPost)
	v1.HandleFunc("/trucks/{truckID}/reviews", h.listReviews).Methods(http.MethodGet)
	v1.HandleFunc("/trucks/{truckID}/reviews", h.submitReview).Methods(http.MethodPost)

	v1.HandleFunc("/owners/{ownerID}/trucks", h.listOwnerTrucks).Methods(http.MethodGet)
	v1.HandleFunc("/owners/{ownerID}/trucks", h.addTruck).Methods(http.MethodPost)
	v1.HandleFunc("/owners/{ownerID}/trucks/{truckID}", h.updateTruck).Methods(http.MethodPut)
	v1.HandleFunc("/owners/{ownerID}/trucks/{truckID}", h.removeTruck).Methods(http.MethodDelete)
	v1.HandleFunc("/owners/{ownerID}/broadcast", h.getBroadcast).Methods(http.MethodGet)
	v1.HandleFunc("/owners/{ownerID}/broadcast", h.startBroadcast).Methods(http.MethodPost)
	v1.HandleFunc("/owners/{ownerID}/broadcast", h.stopBroadcast).Methods(http.MethodDelete)
	v1.HandleFunc("/owners/{ownerID}/requests", h.ownerRequests).Methods(http.MethodGet)
	v1.HandleFunc("/owners/{ownerID}/requests/{requestID}/{action:acknowledge|ignore}", h.answerRequest).Methods(http.MethodPost)

	v1.HandleFunc("/users", h.registerUser).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}", h.getUser).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/favorites", h.favorites).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/favorites/{truckID}", h.toggleFavorite).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/requests", h.userRequests).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/driver-application", h.applyForDriver).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/driver-application/{action:approve|reject}", h.decideDriver).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/stream", h.stream).Methods(http.MethodGet)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP Server", "addr", s.server.Addr)

	ln, err := net.Listen(s.options.Network, s.server.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		if s.hub != nil {
			s.hub.Close()
		}
		return s.server.Shutdown(shutdownCtx)
	}
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack hands the connection to the WebSocket upgrader.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.code = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).
			Observe(time.Since(start).Seconds())
	})
}
