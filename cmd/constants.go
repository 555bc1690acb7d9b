package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/savingctl/internal/ui"
	"github.com/spf13/cobra"
)

var constantsOutFlag string

var constantsCmd = &cobra.Command{
	Use:   "constants",
	Short: "Protocol constants shared with the frontend",
}

var constantsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the protocol constants as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := proto.MarshalConstants()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var constantsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the protocol constants JSON to a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := proto.WriteConstants(constantsOutFlag); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Constants written to "+constantsOutFlag))
		return nil
	},
}

func init() {
	constantsExportCmd.Flags().StringVarP(&constantsOutFlag, "out", "o", "constants.json", "output file")
	constantsCmd.AddCommand(constantsShowCmd, constantsExportCmd)
}
