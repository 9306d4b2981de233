package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/mls-photo-enhancer/internal/metering"
)

var planCmd = &cobra.Command{
	Use:   "plan [free|level1|level2]",
	Short: "Show or change the account's subscription plan",
	Long: `Without an argument, show the account's plan and this month's usage.
With a plan name, switch the account to that plan; usage this month is kept.

Plans: Free (10 photos/month), Level 1 (100/month), Level 2 (unlimited).
Plan state persists across runs only with the redis metering store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().String("account", "", "Account name (default from config)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	a := current
	account, _ := cmd.Flags().GetString("account")
	if account == "" {
		account = a.cfg.Metering.Account
	}

	var (
		status metering.Status
		err    error
	)
	if len(args) == 1 {
		status, err = a.meter.SetPlan(cmd.Context(), account, args[0])
	} else {
		status, err = a.meter.Status(cmd.Context(), account)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", status, status.Account, status.Period)
	return nil
}
