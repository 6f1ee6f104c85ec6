package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/config"
	"github.com/danielpatrickdp/clause-adjudicator/internal/store"
)

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadAdjudicator builds the pipeline from --config, or from the compiled
// defaults when no file is given.
func loadAdjudicator() (*adjudicator.Adjudicator, error) {
	cfg := config.Default()
	if rootFlags.config != "" {
		var err error
		if cfg, err = config.Load(rootFlags.config); err != nil {
			return nil, err
		}
	}
	return adjudicator.New(cfg)
}

func openStore() (*store.Store, error) {
	st, err := store.NewStore(rootFlags.db)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", rootFlags.db, err)
	}
	return st, nil
}

// readInput reads a file, or stdin when path is "" or "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
