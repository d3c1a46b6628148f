package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kochimetro/inductd/app"
	"github.com/kochimetro/inductd/config"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one optimization pass over the configured fleet snapshot",
	RunE:  runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Optimize(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d trainsets, fleet score %.1f\n",
		res.RunID, len(res.Results), res.Metrics.OverallScore)
	for i, r := range res.Results {
		fmt.Fprintf(out, "%2d. %-8s %-12s score %3d  %s\n",
			i+1, r.TrainsetID, r.Action, r.CompositeScore, strings.Join(r.Reasoning, "; "))
		for _, c := range r.Constraints {
			fmt.Fprintf(out, "      ! %s\n", c)
		}
	}
	for _, ex := range res.Excluded {
		fmt.Fprintf(out, "excluded %s: %v\n", ex.TrainsetID, ex.Err)
	}
	return nil
}
