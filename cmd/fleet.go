package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kochimetro/inductd/config"
	"github.com/kochimetro/inductd/infra/snapshot"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet snapshot commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List trainsets in the configured snapshot",
	RunE:  runFleetLs,
}

var fleetValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured snapshot for integrity errors",
	RunE:  runFleetValidate,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	fleetCmd.AddCommand(fleetValidateCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fleet, err := snapshot.Load(cfg.Fleet.SnapshotPath)
	if err != nil {
		return err
	}
	for _, ts := range fleet {
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s bay %s -> %s, %d/%d job cards open\n",
			ts.ID, ts.Stabling.CurrentBay, ts.Stabling.OptimalBay,
			ts.JobCards.Open, ts.JobCards.Total)
	}
	return nil
}

func runFleetValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fleet, err := snapshot.Load(cfg.Fleet.SnapshotPath)
	if err != nil {
		return err
	}
	bad := 0
	for _, ts := range fleet {
		if verr := ts.Validate(); verr != nil {
			bad++
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", verr)
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d trainsets failed validation", bad, len(fleet))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d trainsets valid\n", len(fleet))
	return nil
}
