package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/deposit"
	"github.com/Mohsinsiddi/savingctl/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Deposit certificate status codes",
}

var statusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every status code and label",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := ui.NewTable([]ui.Column{
			{Title: "Code", Width: 4},
			{Title: "Label", Width: 14},
		})
		for _, s := range deposit.All() {
			t.AddRow(ui.Row{strconv.Itoa(int(s)), ui.Status(s)})
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

var statusLabelCmd = &cobra.Command{
	Use:   "label <code|label>",
	Short: "Translate a status code to its label, or a label to its code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if code, err := strconv.ParseUint(args[0], 10, 64); err == nil {
			label, err := deposit.Label(code)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, label)
			return nil
		}
		s, err := deposit.ParseStatus(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, uint8(s))
		return nil
	},
}

var statusScheduleCmd = &cobra.Command{
	Use:   "schedule <start> <tenor-days>",
	Short: "Show maturity and end of grace for a deposit",
	Long: `Derive the maturity date and the end of the grace window for a deposit
opened at <start> (YYYY-MM-DD or RFC 3339) with a tenor of <tenor-days>.
Interest is not computed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseDate(args[0])
		if err != nil {
			return err
		}
		days, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil || days == 0 {
			return fmt.Errorf("invalid tenor %q, expected a positive number of days", args[1])
		}

		sched := deposit.Schedule{
			Start: start,
			Tenor: time.Duration(days) * proto.Day(),
			Grace: proto.GracePeriod(),
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Deposit schedule", [][2]string{
			{"Opened", sched.Start.UTC().Format(time.RFC3339)},
			{"Matures", sched.Maturity().UTC().Format(time.RFC3339)},
			{"Grace ends", sched.GraceEnds().UTC().Format(time.RFC3339)},
			{"Grace period", fmt.Sprintf("%d days", proto.GracePeriodSeconds/proto.SecondsPerDay)},
		}))
		return nil
	},
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func init() {
	statusCmd.AddCommand(statusListCmd, statusLabelCmd, statusScheduleCmd)
}
