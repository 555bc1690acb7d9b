package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Mohsinsiddi/savingctl/internal/contract"
	"github.com/Mohsinsiddi/savingctl/internal/manifest"
	"github.com/Mohsinsiddi/savingctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	deployOutFlag       string
	deployArtifactsFlag string
	deployFunctions     bool
	deployBuiltin       bool
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Assemble deployment manifests and ABI files",
	Long: `Turn compiler artifacts into the files the frontend consumes.

  savingctl deploy assemble      — <deployments>/<network>/<Contract>.json as {address, abi}
  savingctl deploy extract-abi   — <abi_dir>/<Contract>.json as the bare ABI array
  savingctl deploy list          — show assembled manifests and their functions

Each contract is handled on its own: a missing artifact is reported and the
rest are still written.`,
}

var deployAssembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Write {address, abi} manifests for the selected network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		network := resolveNetwork()
		sources, err := manifest.SourcesFor(proto, network, artifactsDir())
		if err != nil {
			return err
		}
		outDir := deployOutFlag
		if outDir == "" {
			outDir = cfg.NetworkDeploymentsDir(network)
		}
		return printReport(cmd.OutOrStdout(), "manifest", manifest.Assemble(sources, outDir, log))
	},
}

var deployExtractABICmd = &cobra.Command{
	Use:   "extract-abi",
	Short: "Write bare ABI arrays for every protocol contract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := manifest.SourcesFor(proto, resolveNetwork(), artifactsDir())
		if err != nil {
			return err
		}
		outDir := deployOutFlag
		if outDir == "" {
			outDir = cfg.ABIDir
		}
		return printReport(cmd.OutOrStdout(), "ABI file", manifest.ExtractABIs(sources, outDir, log))
	},
}

var deployListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assembled manifests (or the embedded ABIs with --builtin)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if deployBuiltin {
			for _, b := range contract.AllBuiltins() {
				fmt.Fprintf(out, "%s  %s\n", ui.Val(b.Name), ui.Meta(b.Description))
				if deployFunctions {
					printFunctions(out, b.ABI)
				}
			}
			return nil
		}

		reg, err := manifest.LoadDir(cfg.DeploymentsDir)
		if err != nil {
			return err
		}
		var entries []*contract.Entry
		for _, e := range reg.All() {
			if networkFlag == "" || strings.EqualFold(e.Network, networkFlag) {
				entries = append(entries, e)
			}
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, ui.Info("No deployment manifests in "+cfg.DeploymentsDir))
			fmt.Fprintln(out, ui.Meta("Create them with: savingctl deploy assemble --network <network>"))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Contract", Width: 20},
			{Title: "Network", Width: 12},
			{Title: "Address", Width: 44},
			{Title: "Functions", Width: 9},
		})
		for _, e := range entries {
			t.AddRow(ui.Row{ui.Val(e.Name), ui.Network(e.Network), ui.Addr(e.Address), fmt.Sprintf("%d", countFunctions(e.ABI))})
		}
		fmt.Fprintln(out, t.Render())

		if deployFunctions {
			for _, e := range entries {
				fmt.Fprintln(out, ui.StyleTitle.Render(e.Name+" · "+e.Network))
				printFunctions(out, e.ABI)
			}
		}
		return nil
	},
}

func artifactsDir() string {
	if deployArtifactsFlag != "" {
		return deployArtifactsFlag
	}
	return cfg.ArtifactsDir
}

func printReport(out io.Writer, kind string, r *manifest.Report) error {
	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Fprintln(out, ui.Err(res.Err.Error()))
			continue
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%-20s %s", res.Name, ui.Meta(res.Path))))
	}

	failed := len(r.Failed())
	if failed > 0 || !r.Complete() {
		return fmt.Errorf("%d of %d %ss not written to %s", failed, len(r.Results), kind, r.OutDir)
	}
	fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d %s(s) written to %s", len(r.Written()), kind, r.OutDir)))
	return nil
}

func printFunctions(out io.Writer, entries []contract.ABIEntry) {
	for _, e := range entries {
		if e.Type != "function" && e.Type != "error" {
			continue
		}
		kind := "write"
		switch {
		case e.Type == "error":
			kind = "error"
		case e.IsReadFunction():
			kind = "read"
		}
		fmt.Fprintf(out, "  %s  %-6s %s\n", ui.Addr(contract.Selector(e)), kind, contract.Signature(e))
	}
}

func countFunctions(entries []contract.ABIEntry) int {
	n := 0
	for _, e := range entries {
		if e.Type == "function" {
			n++
		}
	}
	return n
}

func init() {
	deployCmd.PersistentFlags().StringVar(&deployArtifactsFlag, "artifacts", "", "compiler artifacts directory (default: artifacts_dir from config)")
	deployAssembleCmd.Flags().StringVarP(&deployOutFlag, "out", "o", "", "output directory (default: <deployments_dir>/<network>)")
	deployExtractABICmd.Flags().StringVarP(&deployOutFlag, "out", "o", "", "output directory (default: abi_dir from config)")
	deployListCmd.Flags().BoolVar(&deployFunctions, "functions", false, "list function selectors")
	deployListCmd.Flags().BoolVar(&deployBuiltin, "builtin", false, "list the ABIs embedded in savingctl")

	deployCmd.AddCommand(deployAssembleCmd, deployExtractABICmd, deployListCmd)
}
