package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/savingctl/internal/chain"
	"github.com/Mohsinsiddi/savingctl/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Supported networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported networks and where the protocol is deployed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		reg := chain.NewRegistry()
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 12},
			{Title: "Display", Width: 20},
			{Title: "Chain ID", Width: 10},
			{Title: "Testnet", Width: 7},
			{Title: "Deployed", Width: 8},
			{Title: "RPCs", Width: 4},
		})

		for _, c := range reg.All() {
			deployed := ""
			if _, err := proto.AddressesFor(c.Name); err == nil {
				deployed = ui.StyleSuccess.Render("✓")
			}
			testnet := ""
			if c.Testnet {
				testnet = "yes"
			}
			name := c.Name
			if c.Name == cfg.DefaultNetwork {
				name += "*"
			}
			t.AddRow(ui.Row{
				ui.Network(name),
				c.DisplayName,
				fmt.Sprintf("%d", c.ChainID),
				testnet,
				deployed,
				fmt.Sprintf("%d", len(cfg.RPCs(c.Name, c.RPCs))),
			})
		}

		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d networks · * default · protocol deployed on: %s",
			len(reg.All()), strings.Join(proto.NetworkNames(), ", "))))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd)
}
