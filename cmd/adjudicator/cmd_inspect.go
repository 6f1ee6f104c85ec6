package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/clause-adjudicator/internal/logging"
)

var inspectFlags struct {
	last       int
	provenance bool
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [adjudication-id]",
	Short: "List stored adjudications or show one in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.IntVar(&inspectFlags.last, "last", 10, "Number of records to list")
	f.BoolVar(&inspectFlags.provenance, "provenance", false, "List provenance log rows instead of adjudications")
}

func runInspect(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		rec, err := st.GetAdjudication(args[0])
		if err != nil {
			return err
		}
		integrity := "ok"
		if err := rec.Verdict.Verify(); err != nil {
			integrity = err.Error()
		}
		explainJudgement(out, judgement{ID: rec.Request.ID, AdjudicationID: rec.ID, Verdict: &rec.Verdict})
		fmt.Fprintf(out, "  trigger %s at %s, integrity %s\n", rec.Trigger, rec.CreatedAt.Format("2006-01-02 15:04:05"), integrity)
		fmt.Fprintf(out, "  neural band %s, clause %q\n", rec.Request.NeuralBand, rec.Request.ClauseText)

		facts, err := st.FactProvenance(rec.ID)
		if err != nil {
			return err
		}
		for _, f := range facts {
			src := f.Source
			if src == "" {
				src = "unsourced"
			}
			mark := ""
			if f.Overruled {
				mark = " [overruled]"
			}
			fmt.Fprintf(out, "  fact %d: %s = %s (%s)%s\n", f.Seq, f.Name, f.Value, src, mark)
		}
		return nil
	}

	if inspectFlags.provenance {
		entries, err := logging.RecentDecisions(st.DB(), inspectFlags.last)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s %-9s %-36s %-6s %s\n",
				e.CreatedAt.Format("2006-01-02 15:04:05"), e.TriggerType, e.AdjudicationID, e.Category, e.Reason)
		}
		return nil
	}

	recs, err := st.ListAdjudications(inspectFlags.last)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintf(out, "No adjudications in %s\n", rootFlags.db)
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(out, "%s  %s  %-6s risk=%-3d %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.ID, r.Verdict.Category(), r.Verdict.RiskScore(), short(r.Verdict.Digest()))
	}
	return nil
}
