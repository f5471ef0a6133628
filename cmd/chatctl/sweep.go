package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"golang.org/x/time/rate"

	"github.com/vybechat/backend/internal/data"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Deactivate expired streaks",
	Long: "Runs the streak expiry sweep, flipping isActive on every streak " +
		"past its window. The streak service has no timer of its own; run " +
		"this periodically (or with --interval) to keep flags converged.",
	RunE: func(cmd *cobra.Command, args []string) error {
		once, _ := cmd.Flags().GetBool("once")
		interval, _ := cmd.Flags().GetDuration("interval")
		patchesPerSec, _ := cmd.Flags().GetInt("rate")

		ctx := context.Background()

		client, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close(ctx) }()

		streaks := data.NewStreaksStore(client.Streaks())

		// Optional pacing for the per-streak patches.
		var pace *rate.Limiter
		if patchesPerSec > 0 {
			pace = rate.NewLimiter(rate.Limit(patchesPerSec), patchesPerSec)
		}

		runSweep := func() {
			swept, err := streaks.SweepExpired(ctx, pace)
			if err != nil {
				jww.ERROR.Printf("sweep failed after %d streaks: %+v", swept, err)
				return
			}
			jww.INFO.Printf("sweep deactivated %d streaks", swept)
		}

		runSweep()
		if once {
			return nil
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case <-ticker.C:
				runSweep()
			case <-stop:
				jww.INFO.Printf("shutting down sweep")
				return nil
			}
		}
	},
}

func init() {
	sweepCmd.Flags().Bool("once", false, "run a single sweep and exit")
	sweepCmd.Flags().Duration("interval", time.Minute, "time between sweeps")
	sweepCmd.Flags().Int("rate", 0, "max streak patches per second (0 = unpaced)")
	rootCmd.AddCommand(sweepCmd)
}
