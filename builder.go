package boardAuth

import (
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/boardAuth/internal/audit"
	"github.com/MrEthical07/boardAuth/internal/flows"
	"github.com/MrEthical07/boardAuth/internal/logging"
	"github.com/MrEthical07/boardAuth/internal/rate"
	"github.com/MrEthical07/boardAuth/jwt"
	"github.com/MrEthical07/boardAuth/password"
	"github.com/MrEthical07/boardAuth/refresh"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	db     refresh.DBTX
	store  refresh.Store

	userProvider UserProvider
	verifier     CredentialVerifier
	auditSink    AuditSink
	logger       *slog.Logger
	now          func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used when Store.Backend is "redis".
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDatabase sets the handle used when Store.Backend is "postgres".
func (b *Builder) WithDatabase(db refresh.DBTX) *Builder {
	b.db = db
	return b
}

// WithRefreshStore supplies a ready store, overriding Store.Backend.
func (b *Builder) WithRefreshStore(store refresh.Store) *Builder {
	b.store = store
	return b
}

// WithUserProvider sets the user repository. Required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithCredentialVerifier overrides the Argon2id verifier built from
// Config.Password.
func (b *Builder) WithCredentialVerifier(v CredentialVerifier) *Builder {
	b.verifier = v
	return b
}

// WithAuditSink sets the audit destination. It only takes effect when
// Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine logger. Nil discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for token issuance and validation.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder can
// be built only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	// -------- REFRESH STORE --------
	store := b.store
	if store == nil {
		switch cfg.Store.Backend {
		case StoreRedis:
			if b.redis == nil {
				return nil, errors.New("redis store backend requires redis client")
			}
			store = refresh.NewRedisStore(b.redis, cfg.Store.RedisPrefix, cfg.JWT.RefreshTTL)
		case StorePostgres:
			if b.db == nil {
				return nil, errors.New("postgres store backend requires database")
			}
			store = refresh.NewPostgresStore(b.db)
		default:
			store = refresh.NewMemoryStore()
		}
	}

	// -------- LOGIN THROTTLE --------
	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		if b.redis == nil {
			return nil, errors.New("login rate limit requires redis client")
		}
		limiter = rate.New(b.redis, rate.Config{
			MaxLoginAttempts: cfg.RateLimit.MaxLoginAttempts,
			Window:           cfg.RateLimit.LoginWindow,
			PerIP:            cfg.RateLimit.PerIP,
		})
	}

	// -------- CREDENTIAL VERIFIER --------
	verifier := b.verifier
	if verifier == nil {
		ph, err := password.NewArgon2(cfg.Password.Argon2())
		if err != nil {
			return nil, err
		}
		verifier = ph
	}

	// -------- TOKENS --------
	codec := jwt.NewCodec(cfg.JWT.Issuer, b.now)
	validator, err := jwt.NewValidator(codec, jwt.Keys{
		Access:  cfg.JWT.AccessSecret,
		Refresh: cfg.JWT.RefreshSecret,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = logging.Discard()
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		codec:        codec,
		validator:    validator,
		store:        store,
		userProvider: b.userProvider,
		verifier:     verifier,
		limiter:      limiter,
		logger:       logger,
		metrics:      NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	engine.flows = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}
