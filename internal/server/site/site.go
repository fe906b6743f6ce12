// Package site is the HTTP surface of the bot: the mini-app form endpoint,
// the Telegram webhook, health and metrics.
package site

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/swappy/internal/logging"
	"github.com/dmitrijs2005/swappy/internal/server/auth"
	"github.com/dmitrijs2005/swappy/internal/server/groupstate"
	"github.com/dmitrijs2005/swappy/internal/server/metrics"
	"github.com/dmitrijs2005/swappy/internal/server/posting"
	"github.com/dmitrijs2005/swappy/internal/server/router"
	"github.com/gorilla/mux"
)

// Paths served by the site.
const (
	FormPath    = "/bot/form"
	WebhookPath = "/bot/webhook"
	MetricsPath = "/metrics"
	HealthPath  = "/healthz"
)

const maxBodySize = 64 << 10

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	// AppURL is where the mini-app is served; its origin is allowed by CORS.
	AppURL *url.URL
	// BotToken is the secret init-data is signed with.
	BotToken       string
	InitDataMaxAge time.Duration
	// WebhookSecret, when set, must match the secret token header of every
	// webhook delivery.
	WebhookSecret string
	// Bot is the static part of the routing context.
	Bot router.Context
}

type Server struct {
	cfg     Config
	group   *groupstate.Holder
	members posting.MembershipChecker
	posting *posting.Service
	links   *auth.Links
	router  *router.Router
	health  Pinger
	logger  logging.Logger
}

func NewServer(cfg Config, group *groupstate.Holder, members posting.MembershipChecker, p *posting.Service,
	links *auth.Links, r *router.Router, health Pinger, logger logging.Logger) *Server {
	return &Server{
		cfg:     cfg,
		group:   group,
		members: members,
		posting: p,
		links:   links,
		router:  r,
		health:  health,
		logger:  logger.With("module", "site"),
	}
}

// Handler returns the routed and instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogger)
	r.Use(metrics.InstrumentHandler)

	r.Handle(FormPath, s.cors(http.HandlerFunc(s.handleForm))).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc(WebhookPath, s.handleWebhook).Methods(http.MethodPost)
	r.Handle(MetricsPath, metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc(HealthPath, s.handleHealth).Methods(http.MethodGet)

	return r
}

// routeContext snapshots everything an update needs. It is taken once per
// update.
func (s *Server) routeContext() router.Context {
	rc := s.cfg.Bot
	rc.GroupID = s.group.Snapshot()
	return rc
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.health.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "health check failed", "error", err)
		writeText(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeText(w, http.StatusOK, "ok")
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// origin returns the scheme://host part of u.
func origin(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
}

