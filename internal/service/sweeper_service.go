package service

import (
	"context"
	"time"

	"solver-rebalancer/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// SweeperConfig holds the TTLs after which non-terminal records are forced terminal.
type SweeperConfig struct {
	InitiatingTTL time.Duration
	EarmarkTTL    time.Duration
	OperationTTL  time.Duration
}

// SweeperService expires stuck earmarks and legs. Each category runs in its
// own transaction and only touches non-terminal rows, so re-runs are no-ops.
type SweeperService struct {
	earmarks   ports.EarmarkRepository
	ops        ports.RebalanceOperationRepository
	transactor ports.DBTransactor
	cfg        SweeperConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewSweeperService creates a new SweeperService.
func NewSweeperService(
	earmarks ports.EarmarkRepository,
	ops ports.RebalanceOperationRepository,
	transactor ports.DBTransactor,
	cfg SweeperConfig,
	log zerolog.Logger,
) *SweeperService {
	return &SweeperService{
		earmarks:   earmarks,
		ops:        ops,
		transactor: transactor,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// Sweep runs all four categories. It stops at the first storage failure and
// returns what was swept so far.
func (s *SweeperService) Sweep(ctx context.Context) (ports.SweepReport, error) {
	var report ports.SweepReport
	now := s.now().UTC()

	err := withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		ids, err := s.earmarks.ExpireInitiating(ctx, tx, now.Add(-s.cfg.InitiatingTTL))
		report.ExpiredInitiating = ids
		return err
	})
	if err != nil {
		return ports.SweepReport{}, err
	}
	s.logExpired(report.ExpiredInitiating, "earmark_id", "earmark stuck in INITIATING")

	err = withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		ids, err := s.earmarks.ExpireStale(ctx, tx, now.Add(-s.cfg.EarmarkTTL))
		if err != nil {
			return err
		}
		report.ExpiredStale = ids
		if len(ids) == 0 {
			return nil
		}
		report.OrphanedOps, err = s.ops.MarkOrphaned(ctx, tx, ids)
		return err
	})
	if err != nil {
		report.ExpiredStale, report.OrphanedOps = nil, 0
		return report, err
	}
	s.logExpired(report.ExpiredStale, "earmark_id", "earmark exceeded TTL")
	if report.OrphanedOps > 0 {
		s.log.Warn().Int64("operations", report.OrphanedOps).Msg("in-flight legs flagged orphaned")
	}

	err = withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		ids, err := s.earmarks.ExpireReadyWithoutActiveOperations(ctx, tx, now.Add(-s.cfg.EarmarkTTL))
		report.ExpiredReady = ids
		return err
	})
	if err != nil {
		report.ExpiredReady = nil
		return report, err
	}
	s.logExpired(report.ExpiredReady, "earmark_id", "READY earmark unclaimed past TTL")

	err = withTransaction(ctx, s.transactor, func(tx pgx.Tx) error {
		ids, err := s.ops.ExpireStale(ctx, tx, now.Add(-s.cfg.OperationTTL))
		report.ExpiredOperations = ids
		return err
	})
	if err != nil {
		report.ExpiredOperations = nil
		return report, err
	}
	s.logExpired(report.ExpiredOperations, "operation_id", "operation exceeded TTL, outcome unknown")

	return report, nil
}

func (s *SweeperService) logExpired(ids []uuid.UUID, field, reason string) {
	for _, id := range ids {
		s.log.Warn().
			Str(field, id.String()).
			Str("status", "EXPIRED").
			Str("reason", reason).
			Msg("record forced terminal")
	}
}
