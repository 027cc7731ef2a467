package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/application"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/config"
	httptransport "github.com/Joy52-cyber/schedulesync-web-sub001/internal/http"
	"github.com/Joy52-cyber/schedulesync-web-sub001/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.DatabasePath))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	handler, sessions, err := newAPIHandler(cfg, pool, logger)
	if err != nil {
		logger.Error("failed to assemble services", "error", err)
		os.Exit(1)
	}

	sweeper := newSessionSweeper(sessions, cfg, logger)
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduling API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// newAPIHandler wires repositories, services and handlers into the HTTP
// entry point.
func newAPIHandler(cfg config.Config, pool *sqlite.ConnectionPool, logger *slog.Logger) (http.Handler, *application.SessionService, error) {
	defaults, err := cfg.DefaultProfile()
	if err != nil {
		return nil, nil, err
	}

	participants := sqlite.NewParticipantRepository(pool)
	policies := sqlite.NewAvailabilityPolicyRepository(pool)
	bookings := sqlite.NewBookingRepository(pool)
	blocks := sqlite.NewBlockedIntervalRepository(pool)
	teams := sqlite.NewTeamRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)

	idGenerator := uuid.NewString
	now := time.Now

	availability := application.NewAvailabilityService(participants, policies, bookings, blocks, defaults, logger, now)
	groups := application.NewGroupService(participants, policies, bookings, blocks, defaults, logger, now)
	teamService := application.NewTeamService(teams, participants, policies, bookings, blocks, defaults, idGenerator, now, logger)
	participantService := application.NewParticipantService(participants, policies, blocks, bookings, defaults, availability, idGenerator, now, logger)
	sessionService := application.NewSessionService(sessionRepo, participants, policies, bookings, blocks, defaults, nil, availability, idGenerator, now, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Participants: httptransport.NewParticipantHandler(participantService, logger),
		Availability: httptransport.NewAvailabilityHandler(availability, logger),
		Groups:       httptransport.NewGroupHandler(groups, logger),
		Teams:        httptransport.NewTeamHandler(teamService, logger),
		Sessions:     httptransport.NewSessionHandler(sessionService, logger),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	return handler, sessionService, nil
}

// sessionSweeper runs the periodic session maintenance jobs: refreshing
// stale proposals every four hours and expiring idle sessions once a day.
type sessionSweeper struct {
	cron     *cron.Cron
	sessions *application.SessionService
	cfg      config.Config
	logger   *slog.Logger
}

func newSessionSweeper(sessions *application.SessionService, cfg config.Config, logger *slog.Logger) *sessionSweeper {
	return &sessionSweeper{
		cron:     cron.New(),
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *sessionSweeper) Start() {
	if _, err := s.cron.AddFunc("0 */4 * * *", s.refreshStale); err != nil {
		s.logger.Error("failed to schedule proposal refresh", "error", err)
	}
	if _, err := s.cron.AddFunc("30 3 * * *", s.expireIdle); err != nil {
		s.logger.Error("failed to schedule idle session sweep", "error", err)
	}
	s.cron.Start()
}

func (s *sessionSweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *sessionSweeper) refreshStale() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	refreshed, err := s.sessions.RefreshStaleProposals(ctx, s.cfg.StaleProposalAge)
	if err != nil {
		s.logger.Error("proposal refresh sweep failed", "error", err)
		return
	}
	if refreshed > 0 {
		s.logger.Info("refreshed stale proposals", "sessions", refreshed)
	}
}

func (s *sessionSweeper) expireIdle() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	expired, err := s.sessions.CloseIdleSessions(ctx, s.cfg.SessionIdleTimeout)
	if err != nil {
		s.logger.Error("idle session sweep failed", "error", err)
		return
	}
	if expired > 0 {
		s.logger.Info("expired idle sessions", "sessions", expired)
	}
}
