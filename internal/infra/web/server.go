package web

import (
	"context"
	"fmt"
	"net/http"

	"telegram-content-assistant/internal/engine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the inbound HTTP surface of the callback correlation layer: one
// callback route per job kind, a health endpoint and prometheus metrics. No
// authentication is applied to the callback routes; any party that learns a
// live request_id can resolve it (known gap, the trust boundary of the
// external engine is unspecified).
type Server struct {
	registry *engine.Registry
	server   *http.Server
	log      *zerolog.Logger
}

func NewServer(registry *engine.Registry, port int, logger *zerolog.Logger) *Server {
	srvLog := logger.With().Str("component", "WebhookServer").Logger()
	s := &Server{registry: registry, log: &srvLog}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/webhook/callback/niche", s.callbackHandler(engine.KindNiche, "niche"))
	r.Post("/webhook/callback/topic", s.callbackHandler(engine.KindTopic, "adapted_topic"))
	r.Post("/webhook/callback/post", s.callbackHandler(engine.KindPost, "generated_post"))
	r.Get("/health", s.healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("webhook server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
