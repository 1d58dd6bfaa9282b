package main

import (
	"encoding/json"
	"os"

	"solver-rebalancer/internal/core/ports"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(sweepCmd)
}

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Run a single cycle and print its report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStorage(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		eng, err := buildEngine(cmd.Context(), cfg, st, log)
		if err != nil {
			st.close()
			return err
		}
		defer eng.close()

		report, err := eng.runCycle(cmd.Context(), log)
		if report != nil {
			if encErr := printJSON(report); encErr != nil {
				return encErr
			}
		}
		return err
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire stuck earmarks and operations without touching any chain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := openStorage(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer st.close()

		report, err := newSweeper(st, cfg, log).Sweep(cmd.Context())
		if encErr := printJSON(sweepSummary(report)); encErr != nil {
			return encErr
		}
		return err
	},
}

func sweepSummary(r ports.SweepReport) map[string]any {
	return map[string]any{
		"expired_initiating": r.ExpiredInitiating,
		"expired_stale":      r.ExpiredStale,
		"expired_ready":      r.ExpiredReady,
		"orphaned_legs":      r.OrphanedOps,
		"expired_operations": r.ExpiredOperations,
		"total":              r.Total(),
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
