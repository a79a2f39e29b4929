package handlers

import (
	"context"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"accountdesk/internal/config"
	"accountdesk/internal/database"
	"accountdesk/internal/events"
	"accountdesk/internal/middleware"
	"accountdesk/internal/repository"
	"accountdesk/internal/security"
	"accountdesk/internal/service"
	"accountdesk/internal/storage"
)

// Dependencies is everything the HTTP layer talks to. Nil pings report the
// backing service as disabled.
type Dependencies struct {
	Auth      *service.AuthService
	Profiles  *service.ProfileService
	Tokens    *security.TokenIssuer
	Carrier   security.CookieCarrier
	Gate      *database.Gate
	DBPing    func(context.Context) error
	CachePing func(context.Context) error
	StorePing func(context.Context) error
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     *service.AuthService
	profiles *service.ProfileService
	tokens   *security.TokenIssuer
	carrier  security.CookieCarrier
	gate     *database.Gate
	dbPing   func(context.Context) error
	cache    func(context.Context) error
	storage  func(context.Context) error
	ready    *atomic.Bool
}

// NewHandlerSet builds the repositories and services on top of the shared
// clients. cache and store may be nil.
func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore) HandlerSet {
	users := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	tokens := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTTTL)
	hasher := security.NewHasher(cfg.Security.BcryptCost)

	var publisher service.EventPublisher
	var cachePing func(context.Context) error
	if cache != nil {
		publisher = events.NewStream(cache, cfg.Events)
		cachePing = func(ctx context.Context) error { return cache.Ping(ctx).Err() }
	}

	var avatars service.AvatarOffloader
	var storePing func(context.Context) error
	if store != nil {
		avatars = service.NewAvatarService(store, log)
		storePing = store.Ping
	}

	return newHandlerSet(log, cfg, Dependencies{
		Auth:     service.NewAuthService(users, hasher, tokens, publisher, log),
		Profiles: service.NewProfileService(profileRepo, avatars, log),
		Tokens:   tokens,
		Carrier: security.CookieCarrier{
			Name:     cfg.Security.CookieName,
			SameSite: cfg.Security.SameSite(),
			Secure:   cfg.SecureCookie(),
			MaxAge:   cfg.Security.JWTTTL,
		},
		Gate:      database.NewGate(cfg.Postgres.MaxConns, cfg.Postgres.QueueLimit, cfg.Postgres.AcquireTimeout),
		DBPing:    db.Ping,
		CachePing: cachePing,
		StorePing: storePing,
	})
}

func newHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	ready := &atomic.Bool{}
	ready.Store(true)
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     deps.Auth,
		profiles: deps.Profiles,
		tokens:   deps.Tokens,
		carrier:  deps.Carrier,
		gate:     deps.Gate,
		dbPing:   deps.DBPing,
		cache:    deps.CachePing,
		storage:  deps.StorePing,
		ready:    ready,
	}
}

// SetReady flips the readiness probe. It is cleared when shutdown begins.
func (h HandlerSet) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/readyz", h.Ready)

	store := []gin.HandlerFunc{}
	if h.gate != nil {
		store = append(store, middleware.Admission(h.gate))
	}

	router.POST("/signup", append(store, h.Signup)...)
	router.POST("/signin", append(store, h.Signin)...)
	router.POST("/logout", h.Logout)

	guarded := router.Group("")
	guarded.Use(middleware.Session(h.carrier, h.tokens))
	guarded.Use(store...)
	{
		guarded.GET("/me", h.Me)
		guarded.GET("/profile", h.GetProfile)
		guarded.PUT("/profile", h.UpdateProfile)
	}
}
