package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	boardAuth "github.com/MrEthical07/boardAuth"
	"github.com/MrEthical07/boardAuth/internal/audit"
	"github.com/MrEthical07/boardAuth/internal/board"
	"github.com/MrEthical07/boardAuth/internal/config"
	"github.com/MrEthical07/boardAuth/internal/httpapi"
	"github.com/MrEthical07/boardAuth/internal/logging"
	"github.com/MrEthical07/boardAuth/internal/migrations"
	otelexport "github.com/MrEthical07/boardAuth/metrics/export/otel"
	promexport "github.com/MrEthical07/boardAuth/metrics/export/prometheus"
	"github.com/MrEthical07/boardAuth/password"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// App is a fully wired server: engine, board service and router.
type App struct {
	Handler http.Handler
	Engine  *boardAuth.Engine
	closers []func() error
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Build wires every component described by cfg. auditOut receives events
// when the json audit sink is selected. On error everything acquired so far
// is released.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, auditOut io.Writer) (_ *App, err error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if auditOut == nil {
		auditOut = os.Stdout
	}
	app := &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	var db *sql.DB
	if cfg.NeedsPostgres() {
		db, err = migrations.Open(ctx, cfg.Database.Postgres.DSN())
		if err != nil {
			return nil, err
		}
		app.onClose(db.Close)
		if err = migrations.Up(ctx, db); err != nil {
			return nil, err
		}
	}

	var repo board.Repository = board.NewMemoryRepository()
	if cfg.Database.Type == "postgres" {
		repo = board.NewPostgresRepository(db)
	}

	engineCfg := cfg.Engine()
	hasher, err := password.NewArgon2(engineCfg.Password.Argon2())
	if err != nil {
		return nil, err
	}

	builder := boardAuth.New().
		WithConfig(engineCfg).
		WithUserProvider(board.NewAccounts(repo)).
		WithCredentialVerifier(hasher).
		WithLogger(logger)

	if cfg.NeedsRedis() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		app.onClose(rdb.Close)
		if err = rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("%w: redis ping: %v", boardAuth.ErrStoreUnavailable, err)
		}
		builder.WithRedis(rdb)
	}
	if engineCfg.Store.Backend == boardAuth.StorePostgres {
		builder.WithDatabase(db)
	}

	if engineCfg.Audit.Enabled {
		sink, err := auditSink(cfg.Audit, logger, auditOut, app)
		if err != nil {
			return nil, err
		}
		builder.WithAuditSink(sink)
	}

	engine, err := builder.Build()
	if err != nil {
		return nil, err
	}
	app.Engine = engine
	app.onClose(func() error {
		engine.Close()
		return nil
	})

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler, err = promexport.Handler(promexport.NewCollector(engine),
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err != nil {
			return nil, err
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.OTel {
		provider := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(provider)
		exporter, err := otelexport.NewExporter(otel.Meter("github.com/MrEthical07/boardAuth"), engine)
		if err != nil {
			_ = provider.Shutdown(ctx)
			return nil, err
		}
		app.onClose(func() error { return provider.Shutdown(context.Background()) })
		app.onClose(exporter.Close)
	}

	svc := board.NewService(repo, hasher, board.WithLogger(logger))
	app.Handler = httpapi.NewRouter(httpapi.Options{
		Auth:    engine,
		Board:   svc,
		Logger:  logger,
		Metrics: metricsHandler,
	})

	logger.Info("components ready",
		slog.String("database", cfg.Database.Type),
		logging.Backend(string(engineCfg.Store.Backend)),
		slog.Bool("audit", engineCfg.Audit.Enabled),
		slog.Bool("metrics", cfg.Metrics.Enabled),
	)
	return app, nil
}

func auditSink(cfg config.AuditConfig, logger *slog.Logger, out io.Writer, app *App) (boardAuth.AuditSink, error) {
	switch cfg.Sink {
	case "json":
		return boardAuth.NewJSONWriterSink(out), nil
	case "nats":
		natsCfg := audit.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		if cfg.NATSSubject != "" {
			natsCfg.Subject = cfg.NATSSubject
		}
		conn, err := audit.ConnectNATS(natsCfg, logger)
		if err != nil {
			return nil, err
		}
		app.onClose(conn.Drain)
		return boardAuth.NewNATSSink(conn, natsCfg.Subject, logger), nil
	default:
		return boardAuth.NewSlogSink(logger), nil
	}
}
