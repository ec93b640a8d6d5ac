// Copyright 2016 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/naoina/toml"
)

// Reconciliation policies for completing a withdrawal whose claimed amount is
// checked against the encrypted balance.
const (
	// ReconcileStrict reveals the encrypted equality bit to the vault and
	// aborts the completion on a mismatch, keeping the pending request alive.
	ReconcileStrict = "strict"

	// ReconcileLegacy never reveals the equality bit: the balance is rewritten
	// through an encrypted select and the claimed amount is paid out
	// unconditionally, reproducing the historical contract behavior.
	ReconcileLegacy = "legacy"
)

var (
	// MainnetChainConfig is the chain parameters to run a node on the main network.
	MainnetChainConfig = &ChainConfig{
		ChainID: big.NewInt(1),
		Vault:   DefaultVaultConfig(),
	}

	// TestnetChainConfig is the chain parameters to run a node on the test network.
	TestnetChainConfig = &ChainConfig{
		ChainID: big.NewInt(1666),
		Vault:   DefaultVaultConfig(),
	}

	// AllVaultProtocolChanges contains every protocol change introduced and
	// accepted by the TOS core developers for the confidential vault. Used by
	// tests that want the latest rules on a throwaway chain.
	AllVaultProtocolChanges = &ChainConfig{
		ChainID: big.NewInt(1337),
		Vault:   DefaultVaultConfig(),
	}
)

// ChainConfig is the core config which determines the vault chain settings.
//
// ChainConfig is stored in the database on a per block basis. This means
// that any network, identified by its genesis block, can have its own
// set of configuration options.
type ChainConfig struct {
	ChainID *big.Int `json:"chainId" toml:"ChainID,omitempty"` // chainId identifies the current chain and is used for replay protection

	// Vault carries the confidential vault settings, fixed at construction.
	Vault *VaultConfig `json:"vault,omitempty" toml:",omitempty"`
}

// VaultConfig holds the construction-time settings of the confidential vault.
// None of these are adjustable at runtime; changing them is a chain restart.
type VaultConfig struct {
	// WithdrawalDelay is the number of seconds between a withdrawal request
	// and the earliest allowed completion.
	WithdrawalDelay uint64 `json:"withdrawalDelay" toml:",omitempty"`

	// ReconcilePolicy selects how completion treats a claimed amount that does
	// not match the encrypted balance: ReconcileStrict or ReconcileLegacy.
	ReconcilePolicy string `json:"reconcilePolicy" toml:",omitempty"`
}

// DefaultVaultConfig returns the vault settings used when a chain config does
// not override them.
func DefaultVaultConfig() *VaultConfig {
	return &VaultConfig{
		WithdrawalDelay: DefaultWithdrawalDelay,
		ReconcilePolicy: ReconcileStrict,
	}
}

// VaultSettings returns the vault configuration of c, falling back to the
// defaults when the chain config carries none.
func (c *ChainConfig) VaultSettings() *VaultConfig {
	if c == nil || c.Vault == nil {
		return DefaultVaultConfig()
	}
	return c.Vault
}

// String implements the fmt.Stringer interface.
func (c *ChainConfig) String() string {
	return fmt.Sprintf("{ChainID: %v Vault: %v}", c.ChainID, c.Vault)
}

// String implements the fmt.Stringer interface.
func (vc *VaultConfig) String() string {
	if vc == nil {
		return "nil"
	}
	return fmt.Sprintf("{WithdrawalDelay: %d ReconcilePolicy: %s}", vc.WithdrawalDelay, vc.ReconcilePolicy)
}

// NormalizeReconcilePolicy canonicalizes a user supplied reconcile policy
// string. The empty string selects the strict default.
func NormalizeReconcilePolicy(policy string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", ReconcileStrict:
		return ReconcileStrict, nil
	case ReconcileLegacy:
		return ReconcileLegacy, nil
	default:
		return "", fmt.Errorf("unknown reconcile policy %q", policy)
	}
}

// Validate checks the vault settings for internally consistent values and
// normalizes the reconcile policy in place.
func (vc *VaultConfig) Validate() error {
	if vc.WithdrawalDelay == 0 {
		return fmt.Errorf("withdrawal delay must be positive")
	}
	policy, err := NormalizeReconcilePolicy(vc.ReconcilePolicy)
	if err != nil {
		return err
	}
	vc.ReconcilePolicy = policy
	return nil
}

// LoadVaultConfig reads a TOML vault configuration from path, applying
// defaults for absent fields and validating the result.
func LoadVaultConfig(path string) (*VaultConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vault config: %w", err)
	}
	cfg := DefaultVaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse vault config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vault config %s: %w", path, err)
	}
	return cfg, nil
}
