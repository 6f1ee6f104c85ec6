package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/codec"
	"github.com/danielpatrickdp/clause-adjudicator/internal/logging"
	"github.com/danielpatrickdp/clause-adjudicator/internal/signals"
	"github.com/danielpatrickdp/clause-adjudicator/internal/store"
)

var interpretFlags struct {
	clause  string
	id      string
	addr    string
	timeout time.Duration
	save    bool
	explain bool
}

var interpretCmd = &cobra.Command{
	Use:   "interpret",
	Short: "Ask the interpretation service about a clause, then adjudicate it",
	RunE:  runInterpret,
}

func init() {
	f := interpretCmd.Flags()
	f.StringVar(&interpretFlags.clause, "clause", "", "Clause text (required)")
	f.StringVar(&interpretFlags.id, "id", "", "Request ID")
	f.StringVar(&interpretFlags.addr, "addr", envOr("INTERPRETER_ADDR", "localhost:50051"), "Interpretation service address")
	f.DurationVar(&interpretFlags.timeout, "timeout", 30*time.Second, "Interpretation RPC timeout")
	f.BoolVar(&interpretFlags.save, "save", false, "Store the verdict in the audit database")
	f.BoolVar(&interpretFlags.explain, "explain", false, "Print the rationale as text instead of JSON")

	_ = interpretCmd.MarkFlagRequired("clause")
}

func runInterpret(cmd *cobra.Command, _ []string) error {
	a, err := loadAdjudicator()
	if err != nil {
		return err
	}
	client, err := codec.NewInterpreterClient(interpretFlags.addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), interpretFlags.timeout)
	defer cancel()
	req, err := signals.NewProducer(client, a.Authority()).Produce(ctx, interpretFlags.id, interpretFlags.clause)
	if err != nil {
		return err
	}
	logging.New("interpret").Debug("interpreted",
		"addr", interpretFlags.addr, "band", req.NeuralBand, "facts", req.Facts.Len())

	var st *store.Store
	if interpretFlags.save {
		if st, err = openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	res, err := a.Run(req)
	j, rerr := record(st, "interpret", req, adjudicator.Outcome{ID: req.ID, Result: res, Err: err})
	if rerr != nil {
		return rerr
	}
	if err := emit(cmd.OutOrStdout(), []judgement{j}, false, interpretFlags.explain); err != nil {
		return err
	}
	if err != nil {
		return fmt.Errorf("adjudicate: %w", err)
	}
	return nil
}
