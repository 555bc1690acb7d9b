package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/Mohsinsiddi/savingctl/internal/token"
	"github.com/Mohsinsiddi/savingctl/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

// ── flag vars ─────────────────────────────────────────────────────────────────

var (
	tokenAddressFlag string
	tokenYes         bool
)

// ── root token command ────────────────────────────────────────────────────────

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Read and move the deposit stablecoin",
	Long: `Read and move the protocol's 6-decimal stablecoin (MockUSDC).

Amounts are given in token units ("1000.5"); they are scaled to base units
exactly, never through floating point. Writes wait for the receipt.

Sub-commands:
  savingctl token info           — name, symbol, decimals, supply, owner
  savingctl token balance        — balance of an account
  savingctl token mint           — mint new tokens (owner only)
  savingctl token transfer       — transfer from the signing wallet
  savingctl token conservation   — check balances against total supply`,
}

// ── token info ────────────────────────────────────────────────────────────────

var tokenInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show token metadata and total supply",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, tc, err := openToken(ctx)
		if err != nil {
			return err
		}
		info, err := tc.Info(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Token", [][2]string{
			{"Name", info.Name},
			{"Symbol", info.Symbol},
			{"Decimals", fmt.Sprintf("%d", info.Decimals)},
			{"Total supply", token.FormatUnits(info.TotalSupply, info.Decimals) + " " + info.Symbol},
			{"Owner", ui.Addr(info.Owner)},
			{"Address", ui.Addr(tc.Address())},
			{"Network", ui.Network(s.chain.DisplayName)},
		}))
		return nil
	},
}

// ── token balance ─────────────────────────────────────────────────────────────

var tokenBalanceCmd = &cobra.Command{
	Use:   "balance [address]",
	Short: "Show the token balance of an address or the selected wallet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		account, err := accountAddress(args)
		if err != nil {
			return err
		}
		_, tc, err := openToken(ctx)
		if err != nil {
			return err
		}
		decimals, err := tc.Decimals(ctx)
		if err != nil {
			return err
		}
		bal, err := tc.BalanceOf(ctx, account)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", ui.Addr(account), ui.Val(token.FormatUnits(bal, decimals)))
		return nil
	},
}

// ── token mint ────────────────────────────────────────────────────────────────

var tokenMintCmd = &cobra.Command{
	Use:   "mint <to> <amount>",
	Short: "Mint tokens to an address or wallet name (owner only)",
	Long: `Mint new tokens. The call is dry-run first; a wallet that is not the token
owner is rejected before anything is broadcast.

Examples:
  savingctl token mint 0x7099...79C8 1000 --network localhost
  savingctl token mint alice 250.5 --wallet deployer`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTokenWrite(cmd, "Mint", args[0], args[1], func(ctx context.Context, tc *token.Client, to string, amount *big.Int) (*chain.TxReceipt, error) {
			return tc.Mint(ctx, to, amount)
		})
	},
}

// ── token transfer ────────────────────────────────────────────────────────────

var tokenTransferCmd = &cobra.Command{
	Use:   "transfer <to> <amount>",
	Short: "Transfer tokens from the signing wallet",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTokenWrite(cmd, "Transfer", args[0], args[1], func(ctx context.Context, tc *token.Client, to string, amount *big.Int) (*chain.TxReceipt, error) {
			return tc.Transfer(ctx, to, amount)
		})
	},
}

// ── token conservation ────────────────────────────────────────────────────────

var tokenConservationCmd = &cobra.Command{
	Use:   "conservation <holder>...",
	Short: "Check that the holders' balances add up to total supply",
	Long: `Sum the balances of the given holders (addresses or wallet names) and
compare with totalSupply. Exits non-zero when part of the supply is held by
accounts outside the list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		holders := make([]string, 0, len(args))
		for _, a := range args {
			addr, err := resolveRecipient(a)
			if err != nil {
				return err
			}
			holders = append(holders, addr)
		}

		_, tc, err := openToken(ctx)
		if err != nil {
			return err
		}
		decimals, err := tc.Decimals(ctx)
		if err != nil {
			return err
		}
		report, err := tc.CheckConservation(ctx, holders)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		t := ui.NewTable([]ui.Column{
			{Title: "Holder", Width: 44},
			{Title: "Balance", Width: 24},
		})
		for _, h := range report.Holdings {
			t.AddRow(ui.Row{ui.Addr(h.Account), ui.Val(token.FormatUnits(h.Balance, decimals))})
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta("Sum of balances: "+token.FormatUnits(report.Sum, decimals)))
		fmt.Fprintln(out, ui.Meta("Total supply:    "+token.FormatUnits(report.TotalSupply, decimals)))

		if !report.Balanced() {
			fmt.Fprintln(out, ui.Err("Unaccounted supply: "+token.FormatUnits(report.Unaccounted(), decimals)))
			return errors.New("balances do not add up to total supply")
		}
		fmt.Fprintln(out, ui.Success("Balances add up to total supply"))
		return nil
	},
}

// ── helpers ───────────────────────────────────────────────────────────────────

// openToken connects and builds a read-only client for the stablecoin on the
// selected network. --token overrides the resolved address.
func openToken(ctx context.Context) (*session, *token.Client, error) {
	network := resolveNetwork()
	s, err := connect(ctx, network)
	if err != nil {
		return nil, nil, err
	}
	addr := tokenAddressFlag
	if addr == "" {
		addr, err = contractAddress(network, protocol.MockUSDC)
		if err != nil {
			return nil, nil, err
		}
	}
	tc, err := token.NewClient(s.client, addr, log)
	if err != nil {
		return nil, nil, err
	}
	return s, tc, nil
}

type tokenWrite func(ctx context.Context, tc *token.Client, to string, amount *big.Int) (*chain.TxReceipt, error)

// runTokenWrite is shared by mint and transfer: resolve, preview, confirm,
// send and print the receipt.
func runTokenWrite(cmd *cobra.Command, action, toArg, amountArg string, write tokenWrite) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	to, err := resolveRecipient(toArg)
	if err != nil {
		return err
	}
	signer, err := loadSigner()
	if err != nil {
		return err
	}
	s, tc, err := openToken(ctx)
	if err != nil {
		return err
	}
	chainID, err := s.chainID(ctx)
	if err != nil {
		return err
	}
	tc, err = tc.WithSigner(signer, chainID)
	if err != nil {
		return err
	}

	decimals, err := tc.Decimals(ctx)
	if err != nil {
		return err
	}
	amount, err := token.ParseUnits(amountArg, decimals)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, ui.KeyValueBlock(action+" Preview", [][2]string{
		{"From", ui.Addr(signer.Address())},
		{"To", ui.Addr(to)},
		{"Amount", token.FormatUnits(amount, decimals)},
		{"Base units", amount.String()},
		{"Token", ui.Addr(tc.Address())},
		{"Network", s.chain.DisplayName},
	}))

	if !tokenYes && !ui.ConfirmFrom(cmd.InOrStdin(), cmd.ErrOrStderr(), "Broadcast this transaction?") {
		fmt.Fprintln(out, ui.Meta("Cancelled."))
		return nil
	}

	spin := ui.NewSpinner("Waiting for confirmation...")
	spin.Start()
	receipt, err := write(ctx, tc, to, amount)
	spin.Stop()
	if err != nil {
		return err
	}
	printReceipt(out, s, action, receipt)
	return nil
}

func printReceipt(out io.Writer, s *session, action string, r *chain.TxReceipt) {
	fmt.Fprintln(out, ui.Success(fmt.Sprintf("%s confirmed in block %d", action, r.BlockNumber)))
	fmt.Fprintln(out, ui.Addr("Hash: "+r.Hash))
	fmt.Fprintln(out, ui.Meta(fmt.Sprintf("Gas used: %d", r.GasUsed)))
	if link := s.chain.TxURL(r.Hash); link != "" {
		fmt.Fprintln(out, ui.Meta(link))
	}
}

// resolveRecipient accepts an address or the name of a stored wallet.
func resolveRecipient(s string) (string, error) {
	if common.IsHexAddress(s) {
		return common.HexToAddress(s).Hex(), nil
	}
	w, err := newWalletManager().Get(s)
	if err != nil {
		return "", fmt.Errorf("%q is neither an address nor a known wallet", s)
	}
	return w.Address, nil
}

func init() {
	tokenCmd.PersistentFlags().StringVar(&tokenAddressFlag, "token", "", "token contract address (default: deployment or protocol table)")
	tokenMintCmd.Flags().BoolVarP(&tokenYes, "yes", "y", false, "skip the confirmation prompt")
	tokenTransferCmd.Flags().BoolVarP(&tokenYes, "yes", "y", false, "skip the confirmation prompt")

	tokenCmd.AddCommand(tokenInfoCmd, tokenBalanceCmd, tokenMintCmd, tokenTransferCmd, tokenConservationCmd)
}
