package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Holding is one account's balance.
type Holding struct {
	Account string
	Balance *big.Int
}

// ConservationReport compares the sum of known balances with totalSupply.
type ConservationReport struct {
	TotalSupply *big.Int
	Sum         *big.Int
	Holdings    []Holding
}

// Balanced reports whether the listed holders account for the whole supply.
func (r *ConservationReport) Balanced() bool { return r.Sum.Cmp(r.TotalSupply) == 0 }

// Unaccounted is totalSupply minus the summed balances. Positive means some
// holders were not listed.
func (r *ConservationReport) Unaccounted() *big.Int {
	return new(big.Int).Sub(r.TotalSupply, r.Sum)
}

// CheckConservation sums the balances of holders and compares the total with
// totalSupply. Duplicate holders are counted once. Nothing is enforced; the
// report only describes what the chain says.
func (c *Client) CheckConservation(ctx context.Context, holders []string) (*ConservationReport, error) {
	supply, err := c.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}

	r := &ConservationReport{TotalSupply: supply, Sum: new(big.Int)}
	seen := make(map[common.Address]bool, len(holders))
	for _, h := range holders {
		addr, err := parseAddress(h)
		if err != nil {
			return nil, err
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true

		bal, err := c.BalanceOf(ctx, addr.Hex())
		if err != nil {
			return nil, err
		}
		r.Holdings = append(r.Holdings, Holding{Account: addr.Hex(), Balance: bal})
		r.Sum.Add(r.Sum, bal)
	}

	if !r.Balanced() {
		c.log.WithField("unaccounted", r.Unaccounted().String()).Debug("holder set does not cover total supply")
	}
	return r, nil
}
