package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/savingctl/internal/metadata"
	"github.com/Mohsinsiddi/savingctl/internal/pipeline"
	"github.com/Mohsinsiddi/savingctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	metadataOutFlag     string
	metadataName        string
	metadataDescription string
	metadataExternalURL string
	metadataImageBase   string
	metadataRun         []string
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Certificate NFT metadata",
}

var metadataPrepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Generate certificate metadata and summarise it for IPFS upload",
	Long: `Generate <id>.json and <id>.svg for every reference plan plus
collection.json, run any extra generator commands, then list and size the
output. The first failing step stops the run.

Each --run value is split into words with shell-style quoting but is not
passed to a shell, so there is no variable expansion or piping. Extra
commands get METADATA_DIR in their environment:
  savingctl metadata prepare --run "node scripts/render-previews.js --title 'Savings Certificate'"

Only files written during this run are listed and sized; leftovers already
in the output directory are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := metadataOutFlag
		if dir == "" {
			dir = cfg.MetadataDir
		}

		gen := metadata.NewGenerator(proto, metadata.Options{
			Name:         metadataName,
			Description:  metadataDescription,
			ExternalURL:  metadataExternalURL,
			ImageBaseURI: metadataImageBase,
		}, log)

		var commands [][]string
		for _, c := range metadataRun {
			argv, err := pipeline.SplitCommand(c)
			if err != nil {
				return fmt.Errorf("--run %q: %w", c, err)
			}
			commands = append(commands, argv)
		}

		st := &pipeline.State{Dir: dir}
		runner := pipeline.NewRunner(log, pipeline.MetadataSteps(gen, commands...)...)
		if err := runner.Run(cmd.Context(), st); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Metadata ready in %s", dir)))
		fmt.Fprintln(out, ui.KeyValueBlock("Summary", [][2]string{
			{"Files", fmt.Sprintf("%d", st.Summary.Files)},
			{"Total size", st.Summary.KB() + " KB"},
		}))
		fmt.Fprintln(out, ui.Info("Next steps:"))
		fmt.Fprintln(out, ui.Meta("  1. Upload the .svg files to IPFS (Pinata, web3.storage or `ipfs add -r`)"))
		fmt.Fprintln(out, ui.Meta("  2. Re-run with --image-base ipfs://<images-cid>/ so the JSON points at them"))
		fmt.Fprintln(out, ui.Meta("  3. Upload the .json files and set the certificate base URI to ipfs://<metadata-cid>/"))
		return nil
	},
}

func init() {
	metadataPrepareCmd.Flags().StringVarP(&metadataOutFlag, "out", "o", "", "output directory (default: metadata_dir from config)")
	metadataPrepareCmd.Flags().StringVar(&metadataName, "name", "", "collection name")
	metadataPrepareCmd.Flags().StringVar(&metadataDescription, "description", "", "collection description")
	metadataPrepareCmd.Flags().StringVar(&metadataExternalURL, "external-url", "", "link shown by marketplaces")
	metadataPrepareCmd.Flags().StringVar(&metadataImageBase, "image-base", "", "image base URI, e.g. ipfs://<cid>/")
	metadataPrepareCmd.Flags().StringArrayVar(&metadataRun, "run", nil, "extra generator command, shell-style quoting, repeatable")

	metadataCmd.AddCommand(metadataPrepareCmd)
}
