package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"solver-rebalancer/config"
	"solver-rebalancer/internal/adapter/bridge"
	"solver-rebalancer/internal/adapter/chain"
	"solver-rebalancer/internal/adapter/hub"
	"solver-rebalancer/internal/adapter/storage/memory"
	pgStorage "solver-rebalancer/internal/adapter/storage/postgres"
	redisStorage "solver-rebalancer/internal/adapter/storage/redis"
	"solver-rebalancer/internal/core/ports"
	"solver-rebalancer/internal/metrics"
	"solver-rebalancer/internal/service"
	"solver-rebalancer/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// storage is the persistence layer shared by every command.
type storage struct {
	pool          *pgxpool.Pool // nil with the memory driver
	redis         *goredis.Client
	earmarkRepo   ports.EarmarkRepository
	operationRepo ports.RebalanceOperationRepository
	transactor    ports.DBTransactor
	purchases     ports.PurchaseCache
	callWindow    *redisStorage.CallWindow
	cycleLock     *redisStorage.CycleLock
	health        []ports.HealthChecker
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	st := &storage{}

	switch cfg.Storage.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory storage, earmarks and operations will not survive a restart")
		mem := memory.NewStore()
		st.earmarkRepo = mem.Earmarks()
		st.operationRepo = mem.Operations()
		st.transactor = mem.Transactor()
	default:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info().Msg("PostgreSQL connected")
		st.pool = pool
		st.earmarkRepo = pgStorage.NewEarmarkRepo(pool)
		st.operationRepo = pgStorage.NewOperationRepo(pool)
		st.transactor = pgStorage.NewTransactor(pool)
		st.health = append(st.health, pgStorage.NewHealthCheck(pool))
	}

	if !cfg.Redis.Enabled {
		st.purchases = memory.NewPurchaseCache(cfg.Solver.PurchaseTTL)
		return st, nil
	}

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	log.Info().Msg("Redis connected")
	st.redis = rdb
	st.purchases = redisStorage.NewPurchaseCache(rdb, cfg.Redis.KeyPrefix, cfg.Solver.PurchaseTTL)
	st.callWindow = redisStorage.NewCallWindow(rdb, cfg.Redis.KeyPrefix)
	st.cycleLock = redisStorage.NewCycleLock(rdb, cfg.Redis.KeyPrefix, instanceID())
	st.health = append(st.health, redisStorage.NewHealthCheck(rdb))
	return st, nil
}

func (s *storage) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// engine is the fully wired rebalancing engine.
type engine struct {
	*storage
	cfg        *config.Config
	clients    *chain.Clients
	earmarks   *service.EarmarkServiceImpl
	operations *service.OperationService
	cycle      *service.CycleService
	alerter    *service.WebhookAlerter // nil when alerts are disabled
	registry   *prometheus.Registry
}

func newSweeper(st *storage, cfg *config.Config, log zerolog.Logger) *service.SweeperService {
	return service.NewSweeperService(st.earmarkRepo, st.operationRepo, st.transactor, service.SweeperConfig{
		InitiatingTTL: cfg.Rebalance.InitiatingTTL,
		EarmarkTTL:    cfg.Rebalance.EarmarkTTL,
		OperationTTL:  cfg.Rebalance.OperationTTL,
	}, logger.Component(log, "sweeper"))
}

// buildEngine dials every chain and wires the services on top of st.
func buildEngine(ctx context.Context, cfg *config.Config, st *storage, log zerolog.Logger) (*engine, error) {
	assets, err := cfg.Solver.AssetBook()
	if err != nil {
		return nil, err
	}
	routes, err := cfg.Rebalance.RouteTable()
	if err != nil {
		return nil, err
	}
	domains := cfg.Solver.DomainIDs()

	registry, err := bridge.NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := registry.ValidateRoutes(routes); err != nil {
		return nil, fmt.Errorf("rebalance routes: %w", err)
	}

	if cfg.Signer.PrivateKey == "" {
		return nil, errors.New("signer.private_key is required")
	}
	key, err := chain.LoadKey(cfg.Signer.PrivateKey)
	if err != nil {
		return nil, err
	}
	clients, err := chain.Dial(ctx, cfg.Chains, logger.Component(log, "chain"))
	if err != nil {
		return nil, err
	}
	for _, d := range domains {
		if _, err := clients.Get(d); err != nil {
			clients.Close()
			return nil, err
		}
	}

	submitter := chain.NewSubmitter(clients, key, cfg.Signer.ReceiptPollInterval, cfg.Signer.ReceiptTimeout, logger.Component(log, "submitter"))
	owner := cfg.Solver.Owner()
	if cfg.Solver.OwnAddress == "" {
		owner = submitter.Address()
	}
	log.Info().Str("owner", owner.Hex()).Strs("domains", cfg.Solver.Domains).Msg("Solver identity loaded")

	hubClient := hub.NewClient(cfg.Hub.BaseURL, &http.Client{Timeout: cfg.Hub.Timeout})
	balances := chain.NewBalanceProvider(chain.NewBalanceReader(clients, assets, owner), hubClient)
	intents := chain.NewIntentSubmitter(clients, submitter, owner, logger.Component(log, "intents"))

	earmarks := service.NewEarmarkService(st.earmarkRepo, st.transactor, logger.Component(log, "earmarks"))
	sweeper := newSweeper(st, cfg, log)
	operations := service.NewOperationService(
		st.operationRepo, st.earmarkRepo, st.transactor, registry, submitter,
		assets, routes, owner, logger.Component(log, "operations"),
	)
	allocator := service.NewSplitIntentAllocator(domains, cfg.Solver.TopN, cfg.Solver.MaxDestinations, logger.Component(log, "allocator"))
	invoices := service.NewInvoiceService(allocator, assets, hubClient, intents, st.purchases, service.MatchingConfig{
		Owner:         owner,
		MinInvoiceAge: cfg.Solver.MinInvoiceAge,
		AbortOnOldest: cfg.Solver.AbortOnOldest(),
	}, logger.Component(log, "matching"))
	rebalancer := service.NewRebalanceService(
		earmarks, st.operationRepo, st.transactor, registry, submitter,
		assets, routes, domains, owner, logger.Component(log, "rebalancer"),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := service.CycleDeps{
		Sweeper:       sweeper,
		Operations:    operations,
		Invoices:      invoices,
		Rebalancer:    rebalancer,
		Earmarks:      earmarks,
		EarmarkRepo:   st.earmarkRepo,
		OperationRepo: st.operationRepo,
		Transactor:    st.transactor,
		Source:        hubClient,
		Balances:      balances,
		Purchases:     st.purchases,
		Assets:        assets,
		Metrics:       metrics.New(reg),
		Logger:        logger.Component(log, "cycle"),
	}

	var alerter *service.WebhookAlerter
	if cfg.Alerts.WebhookURL != "" {
		alerter = service.NewWebhookAlerter(cfg.Alerts.WebhookURL, cfg.Alerts.Secret,
			&http.Client{Timeout: cfg.Alerts.Timeout}, logger.Component(log, "alerts"))
		deps.Alerts = alerter
	}

	return &engine{
		storage:    st,
		cfg:        cfg,
		clients:    clients,
		earmarks:   earmarks,
		operations: operations,
		cycle:      service.NewCycleService(deps),
		alerter:    alerter,
		registry:   reg,
	}, nil
}

// alerts returns the alerter as a port, nil when disabled.
func (e *engine) alerts() ports.Alerter {
	if e.alerter == nil {
		return nil
	}
	return e.alerter
}

// runCycle runs one cycle, guarded by the shared lease when Redis is enabled.
func (e *engine) runCycle(ctx context.Context, log zerolog.Logger) (*ports.CycleReport, error) {
	if e.cycleLock != nil {
		ok, err := e.cycleLock.TryAcquire(ctx, 2*e.cfg.Solver.PollInterval)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Info().Msg("Another instance holds the cycle lease, skipping")
			return nil, nil
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := e.cycleLock.Release(releaseCtx); err != nil {
				log.Warn().Err(err).Msg("Failed to release cycle lease")
			}
		}()
	}
	return e.cycle.RunCycle(ctx)
}

func (e *engine) close() {
	if e.alerter != nil {
		e.alerter.Wait()
	}
	e.clients.Close()
	e.storage.close()
}
