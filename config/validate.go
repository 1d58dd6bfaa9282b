package config

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks the settings the engine cannot run without.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Solver.Domains) == 0 {
		errs = append(errs, errors.New("solver.domains must list at least one domain"))
	}
	if c.Solver.TopN <= 0 {
		errs = append(errs, fmt.Errorf("solver.top_n must be positive, got %d", c.Solver.TopN))
	}
	if c.Solver.MaxDestinations <= 0 {
		errs = append(errs, fmt.Errorf("solver.max_destinations must be positive, got %d", c.Solver.MaxDestinations))
	}
	switch c.Solver.GroupPolicy {
	case GroupPolicyAbort, GroupPolicyContinue:
	default:
		errs = append(errs, fmt.Errorf("solver.group_policy must be %q or %q, got %q",
			GroupPolicyAbort, GroupPolicyContinue, c.Solver.GroupPolicy))
	}
	if c.Solver.OwnAddress != "" && !common.IsHexAddress(c.Solver.OwnAddress) {
		errs = append(errs, fmt.Errorf("solver.own_address %q is not an address", c.Solver.OwnAddress))
	}
	if _, err := c.Solver.AssetBook(); err != nil {
		errs = append(errs, fmt.Errorf("solver.assets: %w", err))
	}
	if _, err := c.Rebalance.RouteTable(); err != nil {
		errs = append(errs, fmt.Errorf("rebalance.routes: %w", err))
	}
	for d, chain := range c.Chains {
		if chain.SpokeAddress != "" && !common.IsHexAddress(chain.SpokeAddress) {
			errs = append(errs, fmt.Errorf("chains.%s.spoke_address %q is not an address", d, chain.SpokeAddress))
		}
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be postgres or memory, got %q", c.Storage.Driver))
	}
	if c.Rebalance.InitiatingTTL <= 0 || c.Rebalance.EarmarkTTL <= 0 || c.Rebalance.OperationTTL <= 0 {
		errs = append(errs, errors.New("rebalance TTLs must be positive"))
	}

	return errors.Join(errs...)
}
