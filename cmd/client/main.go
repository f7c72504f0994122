package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tournament-client/internal/config"
	"tournament-client/internal/identity"
	"tournament-client/internal/kv"
	"tournament-client/internal/nav"
	"tournament-client/internal/session"
	"tournament-client/pkg/logger"
	"tournament-client/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	rootCtx = logger.With(rootCtx, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	mirror, cleanup, err := openMirror(rootCtx, cfg)
	if err != nil {
		log.Error("mirror init failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	idc, err := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.RequestTimeout)
	if err != nil {
		log.Error("identity client init failed", "err", err)
		os.Exit(1)
	}

	// The store needs a navigator and the guard needs the store; bind the
	// router after both exist.
	lnav := &lazyNavigator{}
	store, err := session.New(rootCtx, idc, mirror, lnav, log)
	if err != nil {
		log.Error("session store init failed", "err", err)
		os.Exit(1)
	}

	trail := nav.NewTrail(nav.NewMemoryTrailRepo())
	router, err := nav.NewRouter(nav.DefaultTable(), nav.NewGuard(store), trail, log)
	if err != nil {
		log.Error("router init failed", "err", err)
		os.Exit(1)
	}
	lnav.router = router

	// Recover the session from the durable mirror before serving anything,
	// so the first guard evaluation never trusts a token the identity
	// service has revoked.
	store.InitializeFromToken(rootCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, store, router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("client gateway listening", "addr", srv.Addr, "env", cfg.App.Env, "mirror", cfg.Mirror.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

// lazyNavigator breaks the store -> router -> guard -> store construction
// cycle. The router is bound once during wiring, before any request runs.
type lazyNavigator struct {
	router *nav.Router
}

func (l *lazyNavigator) Push(ctx context.Context, path string) error {
	if l.router == nil {
		return errors.New("router not initialized")
	}
	return l.router.Push(ctx, path)
}

func openMirror(ctx context.Context, cfg config.Config) (kv.Store, func(), error) {
	noop := func() {}
	log := logger.From(ctx)
	switch cfg.Mirror.Backend {
	case "file":
		log.Debug("mirror backed by file", "path", cfg.Mirror.File)
		s, err := kv.NewFile(cfg.Mirror.File)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "redis":
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return nil, noop, err
		}
		s, err := kv.NewRedis(rdb, "mirror:default")
		if err != nil {
			_ = rdb.Close()
			return nil, noop, err
		}
		return s, func() { _ = rdb.Close() }, nil
	case "memory":
		return kv.NewMemory(), noop, nil
	default:
		return nil, noop, errors.New("unknown mirror backend " + cfg.Mirror.Backend)
	}
}
