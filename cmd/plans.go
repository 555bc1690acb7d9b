package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Mohsinsiddi/savingctl/internal/plan"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/Mohsinsiddi/savingctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	plansAddressFlag string
	plansLimit       int
	plansJSON        bool
	plansInterval    time.Duration
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Read the deposit plan catalogue",
	Long: `Read deposit plans from SavingCore. Plans are read-only here; an id with
no plan reads back as the empty record (plan id 0).`,
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all plans via getAllPlans",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, r, err := openPlans(ctx)
		if err != nil {
			return err
		}
		plans, err := r.GetAllPlans(ctx)
		if err != nil {
			return err
		}
		return printPlans(cmd, s.network, r.Address(), plans)
	},
}

var plansGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one plan via getPlan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid plan id %q", args[0])
		}
		ctx := cmd.Context()
		_, r, err := openPlans(ctx)
		if err != nil {
			return err
		}
		p, err := r.GetPlan(ctx, id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !p.Exists() {
			fmt.Fprintln(out, ui.Warn(fmt.Sprintf("Plan %d does not exist", id)))
			return nil
		}
		if plansJSON {
			return writeJSON(cmd, p)
		}
		fmt.Fprintln(out, ui.KeyValueBlock(fmt.Sprintf("Plan %d", p.ID), [][2]string{
			{"Tenor", p.Duration()},
			{"Tenor (seconds)", strconv.FormatUint(p.TenorSeconds, 10)},
			{"APR", p.APR() + "%"},
			{"APR (bps)", strconv.FormatUint(p.AprBps, 10)},
			{"Status", ui.Active(p.Active)},
		}))
		return nil
	},
}

var plansScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Read plans(1), plans(2), ... until the first empty id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, r, err := openPlans(ctx)
		if err != nil {
			return err
		}
		var plans []plan.Plan
		for p, err := range r.Scan(ctx, plansLimit) {
			if err != nil {
				return err
			}
			plans = append(plans, p)
		}
		return printPlans(cmd, s.network, r.Address(), plans)
	},
}

var plansVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that getPlan and the plans mapping agree",
	Long: `Compare getPlan(id) with the public plans(id) accessor for every plan and
for the first id past the end, where both must be empty.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, r, err := openPlans(ctx)
		if err != nil {
			return err
		}
		v, err := r.VerifyAccessors(ctx, plansLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.PlanTable(v.Plans, nil))
		if !v.Consistent() {
			for _, m := range v.Mismatches {
				fmt.Fprintln(out, ui.Err(fmt.Sprintf("plan %d: getPlan=%+v plans=%+v", m.ID, m.ByGetter, m.ByMapping)))
			}
			return fmt.Errorf("%d of %d ids disagree", len(v.Mismatches), v.Checked)
		}
		if v.Truncated {
			return fmt.Errorf("%w: checked %d ids, raise --limit", plan.ErrScanTruncated, v.Checked)
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Accessors agree on %d ids", v.Checked)))
		return nil
	},
}

var plansWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live plan table, refreshed on an interval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, r, err := openPlans(ctx)
		if err != nil {
			return err
		}
		interval := plansInterval
		if interval <= 0 {
			interval = time.Duration(cfg.WatchInterval) * time.Second
		}
		return ui.NewPlanWatch(ctx, s.network, r.Address(), interval, r.GetAllPlans).Run()
	},
}

func openPlans(ctx context.Context) (*session, *plan.Reader, error) {
	network := resolveNetwork()
	s, err := connect(ctx, network)
	if err != nil {
		return nil, nil, err
	}
	addr := plansAddressFlag
	if addr == "" {
		addr, err = contractAddress(network, protocol.SavingCore)
		if err != nil {
			return nil, nil, err
		}
	}
	r, err := plan.NewReader(s.client, addr, log)
	if err != nil {
		return nil, nil, err
	}
	return s, r, nil
}

func printPlans(cmd *cobra.Command, network, address string, plans []plan.Plan) error {
	if plansJSON {
		if plans == nil {
			plans = []plan.Plan{}
		}
		return writeJSON(cmd, plans)
	}
	out := cmd.OutOrStdout()
	if len(plans) == 0 {
		fmt.Fprintln(out, ui.Info("No plans configured on "+network))
		return nil
	}
	fmt.Fprintln(out, ui.PlanTable(plans, nil))
	fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d plan(s) · %s · %s", len(plans), network, address)))
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	plansCmd.PersistentFlags().StringVar(&plansAddressFlag, "core", "", "SavingCore address (default: deployment or protocol table)")
	plansCmd.PersistentFlags().BoolVar(&plansJSON, "json", false, "print JSON")
	plansScanCmd.Flags().IntVar(&plansLimit, "limit", plan.DefaultScanLimit, "maximum ids to read")
	plansVerifyCmd.Flags().IntVar(&plansLimit, "limit", plan.DefaultScanLimit, "maximum ids to read")
	plansWatchCmd.Flags().DurationVar(&plansInterval, "interval", 0, "refresh interval (default: watch_interval from config)")

	plansCmd.AddCommand(plansListCmd, plansGetCmd, plansScanCmd, plansVerifyCmd, plansWatchCmd)
}
