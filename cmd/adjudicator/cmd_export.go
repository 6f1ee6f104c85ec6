package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/clause-adjudicator/internal/replay"
)

var exportFlags struct {
	last int
	out  string
}

var exportCmd = &cobra.Command{
	Use:   "export-fixture",
	Short: "Write recent stored adjudications as a replay fixture",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.IntVar(&exportFlags.last, "last", 10, "Number of most recent adjudications to export")
	f.StringVarP(&exportFlags.out, "out", "o", "", "Output fixture JSON path (required)")
	_ = exportCmd.MarkFlagRequired("out")
}

func runExport(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	recs, err := st.ListAdjudications(exportFlags.last)
	if err != nil {
		return err
	}
	// oldest first so the fixture reads chronologically
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	f := replay.FixtureFromRecords(fmt.Sprintf("exported from %s", rootFlags.db), recs)
	if err := replay.WriteFixture(exportFlags.out, f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cases to %s\n", len(f.Cases), exportFlags.out)
	return nil
}
