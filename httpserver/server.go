package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"github.com/preetidudam/EDI-Project/errclass"
	"github.com/preetidudam/EDI-Project/metrics"
)

// HTTPServerConfig contains all configuration parameters for the HTTP server.
type HTTPServerConfig struct {
	// ListenAddr is the address and port the HTTP server will listen on.
	ListenAddr string

	// MetricsAddr is the address and port for the metrics server.
	// If empty, metrics server will not be started.
	MetricsAddr string

	// EnablePprof enables the pprof debugging API when true.
	EnablePprof bool

	Log *slog.Logger

	// DrainDuration is the time to wait after marking server not ready
	// before shutting down, allowing load balancers to detect the change.
	DrainDuration time.Duration

	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
}

// Server serves the session API and health endpoints.
type Server struct {
	cfg     *HTTPServerConfig
	isReady atomic.Bool
	log     *slog.Logger

	srv        *http.Server
	metricsSrv *metrics.MetricsServer
	handler    *Handler
}

// New creates the API server. metricsSrv is started alongside it when
// cfg.MetricsAddr is set; its recorder should be the one the handler's
// manager reports to.
func New(cfg *HTTPServerConfig, handler *Handler, metricsSrv *metrics.MetricsServer) (srv *Server, err error) {
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	srv = &Server{
		cfg:        cfg,
		log:        cfg.Log,
		metricsSrv: metricsSrv,
		handler:    handler,
	}
	srv.isReady.Store(true)

	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return srv, nil
}

func (srv *Server) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Route("/api", func(api chi.Router) {
		api.Group(func(logged chi.Router) {
			logged.Use(srv.httpLogger)

			logged.With(srv.refuseWhileDraining).Post("/session/connect", srv.handler.HandleConnect)
			logged.Post("/session/disconnect", srv.handler.HandleDisconnect)
			logged.Get("/session", srv.handler.HandleSession)

			logged.Get("/devices", srv.handler.HandleListDevices)
			logged.With(srv.refuseWhileDraining).Post("/devices", srv.handler.HandleRegister)
			logged.Get("/devices/{device_id}", srv.handler.HandleGetDevice)
			logged.Get("/derive", srv.handler.HandleDerive)
		})
		// not logged: the request lasts as long as the client listens
		api.Get("/session/events", srv.handler.HandleEvents)
	})

	mux.Group(func(health chi.Router) {
		health.Use(srv.httpLogger)
		health.Get("/livez", srv.handleLivenessCheck)
		health.Get("/readyz", srv.handleReadinessCheck)
		health.Get("/drain", srv.handleDrain)
		health.Get("/undrain", srv.handleUndrain)
	})

	if srv.cfg.EnablePprof {
		srv.log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

// Handler returns the server's router.
func (srv *Server) Handler() http.Handler {
	return srv.srv.Handler
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

// refuseWhileDraining turns away requests that would start wallet prompts or
// ledger writes once the server is draining. Reads keep working.
func (srv *Server) refuseWhileDraining(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !srv.isReady.Load() {
			e := errclass.New(errclass.KindTransientFailure)
			e.Message = "The server is draining. Retry against another instance."
			srv.handler.writeError(w, e)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status string `json:"status"`
	// ContractConfigured is only reported by /readyz.
	ContractConfigured *bool `json:"contractConfigured,omitempty"`
}

func (srv *Server) writeStatus(w http.ResponseWriter, code int, status string) {
	if err := writeJSON(w, code, HealthStatus{Status: status}); err != nil {
		srv.log.Error("Failed to encode health status", "err", err)
	}
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	srv.writeStatus(w, http.StatusOK, "alive")
}

// handleReadinessCheck reports not ready while draining. An unconfigured
// registry contract does not make the server unready: the API still serves
// derivation previews and reports the ConfigurationError to callers.
func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	configured := srv.handler.manager.ContractConfigured()
	body := HealthStatus{Status: "ready", ContractConfigured: &configured}
	code := http.StatusOK
	if !srv.isReady.Load() {
		body.Status = "not ready"
		code = http.StatusServiceUnavailable
	}
	if err := writeJSON(w, code, body); err != nil {
		srv.log.Error("Failed to encode health status", "err", err)
	}
}

func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Swap(false) {
		srv.writeStatus(w, http.StatusOK, "already draining")
		return
	}

	srv.log.Info("Server draining, refusing new connects and registrations", "drainDuration", srv.cfg.DrainDuration)
	time.AfterFunc(srv.cfg.DrainDuration, func() {
		srv.log.Info("Drain period completed")
	})
	srv.writeStatus(w, http.StatusOK, "draining")
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if srv.isReady.Swap(true) {
		srv.writeStatus(w, http.StatusOK, "already ready")
		return
	}

	srv.log.Info("Server accepting registrations again")
	srv.writeStatus(w, http.StatusOK, "ready")
}

func (srv *Server) metricsEnabled() bool {
	return srv.cfg.MetricsAddr != "" && srv.metricsSrv != nil
}

func (srv *Server) serve(name string, listen func() error) {
	go func() {
		if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("Server failed", "server", name, "err", err)
		}
	}()
}

// RunInBackground starts the API listener and, when configured, the metrics
// listener.
func (srv *Server) RunInBackground() {
	if srv.metricsEnabled() {
		srv.log.Info("Starting metrics server", "metricsAddress", srv.cfg.MetricsAddr)
		srv.serve("metrics", srv.metricsSrv.ListenAndServe)
	}

	srv.log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr)
	srv.serve("api", srv.srv.ListenAndServe)
}

func (srv *Server) stop(name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		srv.log.Error("Graceful shutdown failed", "server", name, "err", err)
		return
	}
	srv.log.Info("Server gracefully stopped", "server", name)
}

// Shutdown stops the API listener first so in-flight registrations finish
// while metrics are still scraped.
func (srv *Server) Shutdown() {
	srv.stop("api", srv.srv.Shutdown)
	if srv.metricsEnabled() {
		srv.stop("metrics", srv.metricsSrv.Shutdown)
	}
}
