package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/padraicbc/racelog/metrics"
	"github.com/padraicbc/racelog/oauth"
	"github.com/padraicbc/racelog/repository"
	"github.com/padraicbc/racelog/stats"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// UserForgetter drops a user from the authentication cache.
type UserForgetter interface {
	Forget(id uuid.UUID)
}

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	races   repository.RaceRepository
	users   repository.UserRepository
	stats   *stats.Aggregator
	google  oauth.Verifier
	metrics *metrics.Metrics
	cache   UserForgetter
	db      Pinger
	log     *zap.Logger
	now     func() time.Time

	JWTKey   []byte
	TokenTTL time.Duration
}

type Option func(*Handler)

// WithClock replaces time.Now for token issuance and upcoming-race countdowns.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithGoogle enables POST /auth/google.
func WithGoogle(v oauth.Verifier) Option {
	return func(h *Handler) { h.google = v }
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(h *Handler) { h.TokenTTL = ttl }
}

// WithUserCache is told about deleted users so stale tokens stop working.
func WithUserCache(c UserForgetter) Option {
	return func(h *Handler) { h.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithPinger makes /health check the database.
func WithPinger(p Pinger) Option {
	return func(h *Handler) { h.db = p }
}

// New creates a Handler over the given repositories and JWT signing key.
func New(races repository.RaceRepository, users repository.UserRepository, jwtKey []byte, opts ...Option) *Handler {
	h := &Handler{
		races:    races,
		users:    users,
		log:      zap.L(),
		now:      time.Now,
		JWTKey:   jwtKey,
		TokenTTL: defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.stats = stats.NewAggregator(races, h.now)
	return h
}
