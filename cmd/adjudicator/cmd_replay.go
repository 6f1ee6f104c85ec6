package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/clause-adjudicator/internal/replay"
)

var replayFlags struct {
	fixture string
	stored  int
	runs    int
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-judge fixture cases or stored adjudications and compare digests",
	RunE:  runReplay,
}

func init() {
	f := replayCmd.Flags()
	f.StringVar(&replayFlags.fixture, "fixture", "", "Fixture JSON path")
	f.IntVar(&replayFlags.stored, "stored", 0, "Replay the N most recent stored adjudications")
	f.IntVar(&replayFlags.runs, "runs", 0, "Runs per case (0 uses the fixture value or 30)")
	replayCmd.MarkFlagsOneRequired("fixture", "stored")
	replayCmd.MarkFlagsMutuallyExclusive("fixture", "stored")
}

func runReplay(cmd *cobra.Command, _ []string) error {
	a, err := loadAdjudicator()
	if err != nil {
		return err
	}

	var results []replay.CaseResult
	if replayFlags.fixture != "" {
		f, err := replay.LoadFixture(replayFlags.fixture)
		if err != nil {
			return err
		}
		cases, err := f.ToCases(a.Authority())
		if err != nil {
			return err
		}
		runs := replayFlags.runs
		if runs == 0 {
			runs = f.Runs
		}
		if results, err = replay.Run(cmd.Context(), a, cases, runs); err != nil {
			return err
		}
	} else {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		if results, err = replay.Stored(cmd.Context(), a, st, replayFlags.stored, replayFlags.runs); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		mark := "ok  "
		if !r.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(out, "%s %-36s runs=%-3d %-6s %s", mark, r.ID, r.Runs, r.Category, short(r.Digest))
		if r.Reason != "" {
			fmt.Fprintf(out, "  %s", r.Reason)
		}
		fmt.Fprintln(out)
	}
	s := replay.Summarize(results)
	fmt.Fprintf(out, "\n%d cases: %d passed, %d failed (%d unstable)\n", s.Total, s.Passed, s.Failed, s.Unstable)
	if s.Failed > 0 {
		return fmt.Errorf("%d replay cases failed", s.Failed)
	}
	return nil
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
