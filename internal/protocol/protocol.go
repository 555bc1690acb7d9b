// Package protocol holds the static constants of the savings protocol:
// units, time constants, deployed addresses per network and the reference
// plan catalogue. A Protocol is loaded once at startup and passed to the
// components that need it; nothing mutates it afterwards.
package protocol

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/creasty/defaults"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Contract names as they appear in artifacts and manifests.
const (
	MockUSDC           = "MockUSDC"
	SavingCore         = "SavingCore"
	VaultManager       = "VaultManager"
	DepositCertificate = "DepositCertificate"
	DepositVault       = "DepositVault"
)

// ContractNames lists the protocol contracts in deployment order.
func ContractNames() []string {
	return []string{MockUSDC, SavingCore, VaultManager, DepositCertificate, DepositVault}
}

// ErrNoAddresses is returned when a network has no known deployment.
var ErrNoAddresses = errors.New("no contract addresses for network")

// Protocol is the immutable constant table.
type Protocol struct {
	ChainID            int64                `yaml:"chain_id"             default:"31337"    validate:"gt=0"`
	TokenDecimals      uint8                `yaml:"token_decimals"       default:"6"        validate:"lte=36"`
	BPSDenominator     int64                `yaml:"bps_denominator"      default:"10000"    validate:"gt=0"`
	SecondsPerDay      int64                `yaml:"seconds_per_day"      default:"86400"    validate:"gt=0"`
	SecondsPerYear     int64                `yaml:"seconds_per_year"     default:"31536000" validate:"gtfield=SecondsPerDay"`
	GracePeriodSeconds int64                `yaml:"grace_period_seconds" default:"259200"   validate:"gte=0"`
	Networks           map[string]Addresses `yaml:"networks"             validate:"dive"`
	DefaultPlans       []PlanDef            `yaml:"default_plans"        validate:"dive"`
}

// Addresses are the deployed protocol contracts on one network. Empty means
// not deployed there.
type Addresses struct {
	MockUSDC           string `yaml:"mock_usdc"           json:"MockUSDC"           validate:"omitempty,eth_addr"`
	SavingCore         string `yaml:"saving_core"         json:"SavingCore"         validate:"omitempty,eth_addr"`
	VaultManager       string `yaml:"vault_manager"       json:"VaultManager"       validate:"omitempty,eth_addr"`
	DepositCertificate string `yaml:"deposit_certificate" json:"DepositCertificate" validate:"omitempty,eth_addr"`
	DepositVault       string `yaml:"deposit_vault"       json:"DepositVault"       validate:"omitempty,eth_addr"`
}

// PlanDef is a reference plan definition shown to users before any plan is
// read from chain.
type PlanDef struct {
	Name      string `yaml:"name"       json:"name"      validate:"required"`
	TenorDays int64  `yaml:"tenor_days" json:"tenorDays" validate:"gt=0"`
	AprBps    int64  `yaml:"apr_bps"    json:"aprBps"    validate:"gte=0,lte=10000"`
}

// SetDefaults fills the tables creasty/defaults cannot express as tags.
func (p *Protocol) SetDefaults() {
	if p.Networks == nil {
		p.Networks = map[string]Addresses{
			// Hardhat node: deterministic addresses of the first five
			// deployments from the default account.
			"localhost": {
				MockUSDC:           "0x5FbDB2315678afecb367f032d93F642f64180aa3",
				SavingCore:         "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
				VaultManager:       "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0",
				DepositCertificate: "0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9",
				DepositVault:       "0xDc64a140Aa3E981100a9becA4E685f962f0cF6C9",
			},
		}
	}
	if p.DefaultPlans == nil {
		p.DefaultPlans = []PlanDef{
			{Name: "Starter 30D", TenorDays: 30, AprBps: 500},
			{Name: "Growth 90D", TenorDays: 90, AprBps: 800},
			{Name: "Premium 180D", TenorDays: 180, AprBps: 1000},
			{Name: "Elite 365D", TenorDays: 365, AprBps: 1200},
		}
	}
}

// Default returns the built-in constant table.
func Default() *Protocol {
	p := &Protocol{}
	if err := defaults.Set(p); err != nil {
		// Tags are static; a failure here is a programming error.
		panic(fmt.Sprintf("protocol defaults: %v", err))
	}
	p.normalise()
	return p
}

// Load returns the built-in table with overrides from the YAML file at path
// applied on top. An empty path returns the defaults.
func Load(path string) (*Protocol, error) {
	p := &Protocol{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading protocol file: %w", err)
		}
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parsing protocol file %s: %w", path, err)
		}
	}
	if err := defaults.Set(p); err != nil {
		return nil, fmt.Errorf("applying protocol defaults: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.normalise()
	return p, nil
}

// Validate checks ranges and address formats.
func (p *Protocol) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(p); err != nil {
		return fmt.Errorf("invalid protocol constants: %w", err)
	}
	return nil
}

// GracePeriod is the grace window after maturity.
func (p *Protocol) GracePeriod() time.Duration {
	return time.Duration(p.GracePeriodSeconds) * time.Second
}

// Day is the protocol's day length.
func (p *Protocol) Day() time.Duration {
	return time.Duration(p.SecondsPerDay) * time.Second
}

// NetworkNames returns the networks that have a deployment, sorted.
func (p *Protocol) NetworkNames() []string {
	out := make([]string, 0, len(p.Networks))
	for n := range p.Networks {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AddressesFor returns the deployment on network.
func (p *Protocol) AddressesFor(network string) (Addresses, error) {
	a, ok := p.Networks[network]
	if !ok {
		return Addresses{}, fmt.Errorf("%w: %s", ErrNoAddresses, network)
	}
	return a, nil
}

// Address returns one contract's address on network.
func (p *Protocol) Address(network, contract string) (string, error) {
	a, err := p.AddressesFor(network)
	if err != nil {
		return "", err
	}
	addr := a.ByName()[contract]
	if addr == "" {
		return "", fmt.Errorf("%w: %s has no %s", ErrNoAddresses, network, contract)
	}
	return addr, nil
}

// ByName maps contract names to addresses, leaving out undeployed ones.
func (a Addresses) ByName() map[string]string {
	out := make(map[string]string, 5)
	for name, addr := range map[string]string{
		MockUSDC:           a.MockUSDC,
		SavingCore:         a.SavingCore,
		VaultManager:       a.VaultManager,
		DepositCertificate: a.DepositCertificate,
		DepositVault:       a.DepositVault,
	} {
		if addr != "" {
			out[name] = addr
		}
	}
	return out
}

// normalise checksums every address.
func (p *Protocol) normalise() {
	for name, a := range p.Networks {
		p.Networks[name] = Addresses{
			MockUSDC:           checksum(a.MockUSDC),
			SavingCore:         checksum(a.SavingCore),
			VaultManager:       checksum(a.VaultManager),
			DepositCertificate: checksum(a.DepositCertificate),
			DepositVault:       checksum(a.DepositVault),
		}
	}
}

func checksum(addr string) string {
	if addr == "" {
		return ""
	}
	return common.HexToAddress(addr).Hex()
}
