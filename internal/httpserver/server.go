// Package httpserver is the loopback HTTP Frontend: it turns
// GET /?cmd=<query> into a redirect via the resolver, and renders the
// bindings index and a few supplemental debugging routes.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/sidosera/lolabunny.app/internal/config"
	"github.com/sidosera/lolabunny.app/internal/events"
	"github.com/sidosera/lolabunny.app/internal/plugin"
	"github.com/sidosera/lolabunny.app/internal/resolver"
)

// Server wraps the loopback HTTP listener and its fixed set of routes.
type Server struct {
	router   *httprouter.Router
	resolver *resolver.Resolver
	registry *plugin.Registry
	history  *events.History
	sink     events.Sink
	log      *logrus.Entry

	cfg config.Config

	httpSrv *http.Server
}

// New builds a Server; call ListenAndServe to run it.
func New(cfg config.Config, res *resolver.Resolver, reg *plugin.Registry, history *events.History, sink events.Sink, logger *logrus.Logger, metricsEnabled bool) *Server {
	if sink == nil {
		sink = events.NilSink{}
	}

	s := &Server{
		resolver: res,
		registry: reg,
		history:  history,
		sink:     sink,
		log:      logger.WithField("component", "httpserver"),
		cfg:      cfg,
	}

	r := httprouter.New()
	r.GET("/", s.handleIndexOrRedirect)
	r.GET("/reload", s.handleReload)
	r.GET("/health", s.handleHealth)
	r.GET("/history", s.handleHistory)
	if metricsEnabled {
		r.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	}
	r.NotFound = http.HandlerFunc(s.handleNotFound)
	r.MethodNotAllowed = http.HandlerFunc(s.handleMethodNotAllowed)

	s.router = r
	s.httpSrv = &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Address, strconv.Itoa(cfg.Server.Port)),
		Handler: loopbackOnly(requestLogger(s.log)(r)),
	}

	return s
}

// ListenAndServe blocks until ctx is cancelled or the listener fails. A
// bind/listen error is reported to the caller, which maps it to a
// dedicated process exit code.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleIndexOrRedirect(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query().Get("cmd")
	if query == "" && !r.URL.Query().Has("cmd") {
		// Plain GET / with no cmd parameter at all: render the index.
		s.renderIndex(w, r)
		return
	}

	s.redirect(w, r, query)
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, query string) {
	start := time.Now()
	requestID := uuid.NewString()

	res := s.resolver.Resolve(r.Context(), query)

	if res.Outcome == resolver.OutcomeIndex {
		s.renderIndex(w, r)
	} else {
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, res.URL, http.StatusFound)
	}

	s.sink.Emit(events.RequestTraced(requestID, query, res.Binding, string(res.Outcome), res.AliasExpanded, time.Since(start)))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	err := s.registry.Reload(r.Context())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("reload failed: " + err.Error() + "\n"))
		return
	}

	n := len(s.registry.Snapshot().List())
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("reloaded: " + strconv.Itoa(n) + " plugins active\n"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.history.Recent())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	// An unmatched path renders the bindings index rather than a bare 404
	// body; the cmd-redirect path itself is routed explicitly above and
	// always succeeds.
	s.renderIndex(w, r)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte("only GET is supported\n"))
}

