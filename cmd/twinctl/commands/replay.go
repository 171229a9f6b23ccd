package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/digital-twin/internal/replay"
)

var (
	replayFixture string
	replayVerbose bool
)

// errMismatch is returned when a replay diverges from its fixture.
var errMismatch = errors.New("replay does not match fixture")

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a fixture through the pipeline and compare results",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := replay.LoadFixture(replayFixture)
		if err != nil {
			return err
		}
		start, err := f.Start()
		if err != nil {
			return err
		}

		results, final := replay.Replay(start, f.ToInteractions(), replay.DefaultReplayConfig())
		out := cmd.OutOrStdout()
		if f.Description != "" {
			fmt.Fprintf(out, "%s\n\n", f.Description)
		}
		for _, r := range results {
			status := "ok"
			if !r.Passed {
				status = "fail"
			}
			fmt.Fprintf(out, "%-12s %-24s %-4s %s\n", r.TurnID, r.RuleName, status, truncate(r.Output, 60))
			if replayVerbose {
				fmt.Fprintf(out, "             path: %v\n", r.DecisionPath)
			}
		}

		s := replay.Summarize(results, final)
		fmt.Fprintf(out, "\n%d turns, %d successful, %d fallbacks, %d lookup misses, %d warnings\n",
			s.TotalTurns, s.Successful, s.Fallbacks, s.LookupMisses, s.Warnings)

		mismatches := replay.Check(results, f.ExpectedResults)
		for _, m := range mismatches {
			fmt.Fprintf(out, "MISMATCH %s\n", m)
		}
		if len(mismatches) > 0 {
			return fmt.Errorf("%w: %d differences", errMismatch, len(mismatches))
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayFixture, "fixture", "f", "", "fixture JSON path")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "print decision paths")
	replayCmd.MarkFlagRequired("fixture")
	rootCmd.AddCommand(replayCmd)
}
