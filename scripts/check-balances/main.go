// check-balances: queries the stablecoin balance of a set of holders on every
// network the protocol is deployed to, one network after another, and prints a
// summary table.
//
// Run from the module root:
//
//	go run ./scripts/check-balances [--protocol protocol.yaml] [holder...]
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/Mohsinsiddi/savingctl/internal/logging"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/Mohsinsiddi/savingctl/internal/token"
	"github.com/spf13/pflag"
)

// ── config ────────────────────────────────────────────────────────────────────

// Hardhat accounts #0 and #1, the deployer and first depositor on localhost.
var defaultHolders = []string{
	"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
}

const rpcTimeout = 12 * time.Second

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	network string
	holder  string // short form
	balance string
	symbol  string
	err     string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	protocolFile := pflag.String("protocol", "", "protocol constants override (YAML)")
	pflag.Parse()

	holders := pflag.Args()
	if len(holders) == 0 {
		holders = defaultHolders
	}

	proto, err := protocol.Load(*protocolFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	reg := chain.NewRegistry()

	var results []result
	for _, network := range proto.NetworkNames() {
		c, err := reg.GetByName(network)
		if err != nil {
			continue // deployed somewhere the registry does not know
		}
		addr, err := proto.Address(network, protocol.MockUSDC)
		if err != nil {
			continue
		}

		results = append(results, checkNetwork(*c, addr, holders)...)
	}

	printTable(results)
}

// checkNetwork reads every holder's balance on one network.
func checkNetwork(c chain.Chain, tokenAddr string, holders []string) []result {
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	rows := make([]result, 0, len(holders))
	fail := func(note string) []result {
		for _, h := range holders {
			rows = append(rows, result{network: c.Name, holder: shortAddr(h), balance: "—", err: note})
		}
		return rows
	}

	url, err := chain.SelectRPC(ctx, c.RPCs)
	if err != nil {
		return fail("unreachable")
	}
	tc, err := token.NewClient(chain.NewEVMClient(url), tokenAddr, logging.Discard())
	if err != nil {
		return fail(shortErr(err))
	}
	info, err := tc.Info(ctx)
	if err != nil {
		return fail(shortErr(err))
	}

	for _, h := range holders {
		r := result{network: c.Name, holder: shortAddr(h), symbol: info.Symbol}
		bal, err := tc.BalanceOf(ctx, h)
		if err != nil {
			r.balance = "—"
			r.err = shortErr(err)
		} else {
			r.balance = token.FormatUnits(bal, info.Decimals)
		}
		rows = append(rows, r)
	}
	return rows
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.network != b.network {
			return a.network < b.network
		}
		return a.holder < b.holder
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NETWORK\tHOLDER\tBALANCE\tSYMBOL\tNOTE")
	fmt.Fprintln(w, strings.Repeat("-", 10)+"\t"+
		strings.Repeat("-", 14)+"\t"+
		strings.Repeat("-", 20)+"\t"+
		strings.Repeat("-", 6)+"\t"+
		strings.Repeat("-", 12))

	lastNetwork := ""
	for _, r := range results {
		if r.network != lastNetwork {
			if lastNetwork != "" {
				fmt.Fprintln(w, "\t\t\t\t") // blank separator between networks
			}
			lastNetwork = r.network
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.network, r.holder, r.balance, r.symbol, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
