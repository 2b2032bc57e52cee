// Package app wires the gatepass runtime: config, logging, metrics, storage,
// and the HTTP surface.
package app

import (
	"context"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gatepass/cmd/internal/attendance"
	"gatepass/cmd/internal/auth"
	"gatepass/cmd/internal/gateapi"
	"gatepass/cmd/internal/scanfeed"
	"gatepass/cmd/internal/ticket"
	"gatepass/cmd/internal/verify"
	"gatepass/cmd/security/credential"
	"gatepass/cmd/security/payload"
)

// App owns the wired runtime and the lifecycle of its resources.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	metrics *Metrics
	feed    *scanfeed.Gateway
	api     *gateapi.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}
	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	cipherKey, err := hex.DecodeString(cfg.CipherKeyHex)
	if err != nil {
		return nil, err
	}
	codec, err := payload.NewCodec([]byte(cfg.SigningKey), cipherKey)
	if err != nil {
		return nil, err
	}

	ticketStore, attendanceStore, dbPool, dbEnabled, err := newStores(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	closePool := func() {
		if dbPool != nil {
			dbPool.Close()
		}
	}

	ledger, err := attendance.NewLedger(attendanceStore, attendance.WithStorageTimeout(cfg.StorageTimeout))
	if err != nil {
		closePool()
		return nil, err
	}
	registry, err := ticket.NewRegistry(ticketStore, codec,
		ticket.WithStorageTimeout(cfg.StorageTimeout),
		ticket.WithAttendanceCascade(ledger),
	)
	if err != nil {
		closePool()
		return nil, err
	}

	metrics := NewMetrics()
	feed := scanfeed.NewGateway(log, scanfeed.NewHub(log))

	verifier, err := verify.NewService(log, codec, registry, ledger,
		verify.WithMetrics(metrics),
		verify.WithAnnouncer(feedAnnouncer{hub: feed.Hub()}),
	)
	if err != nil {
		closePool()
		return nil, err
	}

	authSvc, err := newAuthService(cfg)
	if err != nil {
		closePool()
		return nil, err
	}

	api := gateapi.NewHandler(log, authSvc, registry, ledger, verifier, feed)

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		metrics:   metrics,
		feed:      feed,
		api:       api,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.metrics, a.api)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStores decides between Postgres-backed persistence and the in-memory dev
// stores. The app owns the pool; package stores never close it.
func newStores(ctx context.Context, cfg Config, log Logger) (ticket.Store, attendance.Store, *pgxpool.Pool, bool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return ticket.NewMemoryStore(), attendance.NewMemoryStore(), nil, false, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, nil, false, err
	}
	log.Info("db.enabled.postgres_store")

	tickets, err := ticket.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, nil, false, err
	}
	records, err := attendance.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, nil, false, err
	}
	return tickets, records, pool, true, nil
}

func newAuthService(cfg Config) (*auth.Service, error) {
	authCfg := auth.DefaultConfig()
	authCfg.AdminUsername = cfg.AdminUsername
	authCfg.TokenKeyHex = cfg.TokenKeyHex
	authCfg.TokenTTL = cfg.TokenTTL

	authCfg.AdminPasswordHash = cfg.AdminPasswordHash
	if authCfg.AdminPasswordHash == "" {
		hash, err := credential.Hash(cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
		authCfg.AdminPasswordHash = hash
	}
	return auth.NewService(authCfg)
}

// feedAnnouncer fans committed check-ins out to websocket subscribers.
type feedAnnouncer struct {
	hub *scanfeed.Hub
}

func (f feedAnnouncer) AnnounceCheckIn(a verify.Announcement) {
	f.hub.Broadcast(a)
}
