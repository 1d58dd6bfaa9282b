package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpHandler "solver-rebalancer/internal/adapter/http/handler"
	"solver-rebalancer/internal/service"
	"solver-rebalancer/pkg/apperror"
	"solver-rebalancer/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("no-api", false, "Do not serve the admin API")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the polling loop and the admin API",
	Long: `Runs one cycle every solver.poll_interval until interrupted. A cycle that
ends in a configuration or storage error stops the process; other failures
are logged and retried on the next tick.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	noAPI, _ := cmd.Flags().GetBool("no-api")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("mode", cfg.Server.Mode).
		Dur("poll_interval", cfg.Solver.PollInterval).
		Msg("Starting solver rebalancer")

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	eng, err := buildEngine(ctx, cfg, st, log)
	if err != nil {
		st.close()
		return err
	}
	defer eng.close()

	var srv *http.Server
	if !noAPI {
		if srv, err = startAdminAPI(eng, log); err != nil {
			return err
		}
	}

	loopErr := pollLoop(ctx, eng, log)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}
	log.Info().Msg("Solver exited")
	return loopErr
}

func startAdminAPI(eng *engine, log zerolog.Logger) (*http.Server, error) {
	cfg := eng.cfg
	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt.secret is required for the admin API (or pass --no-api)")
	}
	gin.SetMode(cfg.Server.Mode)

	deps := httpHandler.RouterDeps{
		TokenSvc:       service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer),
		Earmarks:       eng.earmarks,
		Operations:     eng.operations,
		RateLimit:      cfg.Server.RateLimit,
		HealthCheckers: eng.health,
		MetricsHandler: promhttp.HandlerFor(eng.registry, promhttp.HandlerOpts{}),
		Alerts:         eng.alerts(),
		Logger:         logger.Component(log, "http"),
	}
	if cfg.Server.RateLimit > 0 {
		deps.CallWindow = eng.callWindow
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpHandler.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Admin API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Admin API failed")
		}
	}()
	return srv, nil
}

// pollLoop runs a cycle immediately and then on every tick. It returns nil on
// shutdown and the cycle error when a cycle fails fatally.
func pollLoop(ctx context.Context, eng *engine, log zerolog.Logger) error {
	ticker := time.NewTicker(eng.cfg.Solver.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := eng.runCycle(ctx, log); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if apperror.IsFatal(err) {
				log.Error().Err(err).Msg("Fatal cycle error, stopping")
				return err
			}
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Shutting down")
			return nil
		case <-ticker.C:
		}
	}
}
