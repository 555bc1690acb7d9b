package protocol

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Mohsinsiddi/savingctl/internal/deposit"
)

// Constants is the frontend-facing view of a Protocol.
type Constants struct {
	ChainID            int64                `json:"chainId"`
	TokenDecimals      uint8                `json:"tokenDecimals"`
	BPSDenominator     int64                `json:"bpsDenominator"`
	SecondsPerDay      int64                `json:"secondsPerDay"`
	SecondsPerYear     int64                `json:"secondsPerYear"`
	GracePeriodSeconds int64                `json:"gracePeriodSeconds"`
	Contracts          map[string]Addresses `json:"contracts"`
	DepositStatus      map[string]uint8     `json:"depositStatus"`
	DepositStatusLabel map[string]string    `json:"depositStatusLabels"`
	DefaultPlans       []PlanDef            `json:"defaultPlans"`
}

// Constants builds the exported view.
func (p *Protocol) Constants() Constants {
	status := make(map[string]uint8)
	labels := make(map[string]string)
	for _, s := range deposit.All() {
		status[s.String()] = uint8(s)
		labels[strconv.Itoa(int(s))] = s.String()
	}
	return Constants{
		ChainID:            p.ChainID,
		TokenDecimals:      p.TokenDecimals,
		BPSDenominator:     p.BPSDenominator,
		SecondsPerDay:      p.SecondsPerDay,
		SecondsPerYear:     p.SecondsPerYear,
		GracePeriodSeconds: p.GracePeriodSeconds,
		Contracts:          p.Networks,
		DepositStatus:      status,
		DepositStatusLabel: labels,
		DefaultPlans:       p.DefaultPlans,
	}
}

// MarshalConstants renders the constants as indented JSON with a trailing
// newline. Map keys are sorted, so the output is stable.
func (p *Protocol) MarshalConstants() ([]byte, error) {
	data, err := json.MarshalIndent(p.Constants(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteConstants writes the constants JSON to path, creating parent dirs.
func (p *Protocol) WriteConstants(path string) error {
	data, err := p.MarshalConstants()
	if err != nil {
		return fmt.Errorf("encoding constants: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
