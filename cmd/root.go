package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/savingctl/internal/config"
	"github.com/Mohsinsiddi/savingctl/internal/logging"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/Mohsinsiddi/savingctl/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/savingctl/cmd.Version=1.2.3" .
var Version = "0.1.0"

// EnvConfigDir overrides the --config flag.
const EnvConfigDir = "SAVINGCTL_CONFIG_DIR"

var (
	cfgDir  string
	cfg     *config.Config
	proto   *protocol.Protocol
	log     logrus.FieldLogger = logging.Discard()
	verbose bool

	networkFlag string
	walletFlag  string
	rpcFlag     string
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "savingctl",
	Short: "Operator tooling for the savings deposit protocol",
	Long: `savingctl talks to the term-deposit contracts (SavingCore, VaultManager,
DepositCertificate, DepositVault and the MockUSDC stablecoin).

  Inspect and move the stablecoin, read the plan catalogue, assemble
  deployment manifests, export protocol constants and prepare
  certificate metadata for IPFS.

Global flags --network, --wallet and --rpc override the configured
defaults for a single invocation.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config (skip for commands that don't need it).
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err := logging.New(level, cfg.LogFormat)
		if err != nil {
			return err
		}
		log = logger

		proto, err = protocol.Load(cfg.ProtocolFile)
		if err != nil {
			return fmt.Errorf("loading protocol constants: %w", err)
		}
		return nil
	},
}

// Execute runs the root command and exits 1 on any failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		os.Exit(1)
	}
}

func init() {
	if envDir := os.Getenv(EnvConfigDir); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.savingctl)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network to use (default from config)")
	rootCmd.PersistentFlags().StringVarP(&walletFlag, "wallet", "w", "", "wallet name (default from config)")
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "RPC endpoint, bypassing endpoint selection")

	rootCmd.AddCommand(
		tokenCmd,
		plansCmd,
		statusCmd,
		deployCmd,
		metadataCmd,
		constantsCmd,
		walletCmd,
		configCmd,
		networkCmd,
	)
}
