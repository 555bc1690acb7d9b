// Package plan reads the deposit-plan catalogue from the SavingCore contract.
package plan

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Plan is one deposit plan. ID 0 means "no such plan".
type Plan struct {
	ID           uint64 `json:"planId"`
	TenorSeconds uint64 `json:"tenorSeconds"`
	AprBps       uint64 `json:"aprBps"`
	Active       bool   `json:"isActive"`
}

// Exists reports whether the record is a real plan rather than the sentinel.
func (p Plan) Exists() bool { return p.ID != 0 }

// Tenor returns the lock-up period.
func (p Plan) Tenor() time.Duration {
	return time.Duration(p.TenorSeconds) * time.Second
}

// Duration is the human-readable tenor.
func (p Plan) Duration() string { return FormatDuration(p.TenorSeconds) }

// APR is the annual rate in percent.
func (p Plan) APR() string { return FormatAPR(p.AprBps) }

// rawPlan mirrors the on-chain struct field for field.
type rawPlan struct {
	PlanId       *big.Int //nolint:revive
	TenorSeconds *big.Int
	AprBps       *big.Int
	IsActive     bool
}

func (r rawPlan) toPlan() (Plan, error) {
	id, err := toUint64("planId", r.PlanId)
	if err != nil {
		return Plan{}, err
	}
	tenor, err := toUint64("tenorSeconds", r.TenorSeconds)
	if err != nil {
		return Plan{}, err
	}
	apr, err := toUint64("aprBps", r.AprBps)
	if err != nil {
		return Plan{}, err
	}
	return Plan{ID: id, TenorSeconds: tenor, AprBps: apr, Active: r.IsActive}, nil
}

func toUint64(field string, n *big.Int) (uint64, error) {
	if n == nil {
		return 0, nil
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("%s out of range: %s", field, n)
	}
	return n.Uint64(), nil
}

// FormatDuration renders seconds as whole days, hours and minutes, leaving
// out zero components. Spans under a minute render as "<n>s".
func FormatDuration(seconds uint64) string {
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return strings.Join(parts, " ")
}

// FormatAPR converts basis points to a percentage: 250 -> "2.5".
func FormatAPR(bps uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(bps), 0).Div(decimal.NewFromInt(100)).String()
}
