// Package store persists adjudications, the assertions behind them and the
// provenance trail in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/clause-adjudicator/internal/adjudicator"
	"github.com/danielpatrickdp/clause-adjudicator/internal/facts"
	"github.com/danielpatrickdp/clause-adjudicator/internal/logging"
	"github.com/danielpatrickdp/clause-adjudicator/internal/verdict"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS adjudications (
	id            TEXT PRIMARY KEY,
	request_id    TEXT,
	trigger_type  TEXT NOT NULL,
	request_json  TEXT NOT NULL,
	verdict_json  TEXT NOT NULL,
	digest        TEXT NOT NULL,
	category      TEXT NOT NULL,
	risk_score    INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS fact_provenance (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	adjudication_id TEXT NOT NULL,
	seq             INTEGER NOT NULL,
	name            TEXT NOT NULL,
	value           TEXT NOT NULL,
	source          TEXT,
	overruled       INTEGER NOT NULL DEFAULT 0,
	FOREIGN KEY (adjudication_id) REFERENCES adjudications(id)
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	adjudication_id TEXT,
	digest          TEXT,
	trigger_type    TEXT NOT NULL,
	decision_json   TEXT,
	evidence_refs   TEXT,
	category        TEXT,
	reason          TEXT,
	created_at      TEXT NOT NULL,
	FOREIGN KEY (adjudication_id) REFERENCES adjudications(id)
);
`

// #endregion schema

// #region store-struct
// Store manages adjudication records in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region save
// SaveAdjudication stores the request, the verdict and one fact_provenance
// row per assertion in a single transaction, then appends a provenance_log
// row describing the decision.
func (s *Store) SaveAdjudication(trigger string, req adjudicator.Request, res adjudicator.Result) (Record, error) {
	rec := Record{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Request:   NewRequestRecord(req),
		Verdict:   res.Verdict,
		CreatedAt: time.Now().UTC(),
	}
	reqJSON, err := json.Marshal(rec.Request)
	if err != nil {
		return Record{}, fmt.Errorf("marshal request: %w", err)
	}
	verdictJSON, err := json.Marshal(res.Verdict)
	if err != nil {
		return Record{}, fmt.Errorf("marshal verdict: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO adjudications (id, request_id, trigger_type, request_json, verdict_json, digest, category, risk_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, nullIfEmpty(req.ID), trigger, string(reqJSON), string(verdictJSON),
		res.Verdict.Digest(), string(res.Verdict.Category()), res.Verdict.RiskScore(),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert adjudication: %w", err)
	}

	eff := effectiveOf(res)
	for i, f := range req.Facts.Assertions() {
		var src any
		if f.Source != nil {
			src = f.Source.String()
		}
		_, err = tx.Exec(
			`INSERT INTO fact_provenance (adjudication_id, seq, name, value, source, overruled)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ID, i, f.Name, f.Value.String(), src, eff.overrules(f),
		)
		if err != nil {
			return Record{}, fmt.Errorf("insert fact %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}

	entry, err := provenanceFor(rec, req, res)
	if err != nil {
		return Record{}, err
	}
	if err := logging.LogDecision(s.db, entry); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// LogFailure records a request that produced no verdict.
func (s *Store) LogFailure(trigger string, req adjudicator.Request, cause error) error {
	return logging.LogDecision(s.db, logging.ProvenanceEntry{
		TriggerType: trigger,
		Reason:      fmt.Sprintf("%s: %v", label(req), cause),
	})
}

// #endregion save

// #region get
// GetAdjudication retrieves one record by ID.
func (s *Store) GetAdjudication(id string) (Record, error) {
	row := s.db.QueryRow(
		`SELECT id, trigger_type, request_json, verdict_json, created_at
		 FROM adjudications WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("get adjudication %s: %w", id, err)
	}
	return rec, nil
}

// ListAdjudications returns the most recent records, newest first.
func (s *Store) ListAdjudications(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, trigger_type, request_json, verdict_json, created_at
		 FROM adjudications ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list adjudications: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FactProvenance returns the assertions stored with an adjudication, in
// assertion order.
func (s *Store) FactProvenance(id string) ([]FactProvenance, error) {
	rows, err := s.db.Query(
		`SELECT seq, name, value, source, overruled
		 FROM fact_provenance WHERE adjudication_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	var out []FactProvenance
	for rows.Next() {
		var fp FactProvenance
		var src sql.NullString
		if err := rows.Scan(&fp.Seq, &fp.Name, &fp.Value, &src, &fp.Overruled); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		fp.Source = src.String
		out = append(out, fp)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var rec Record
	var reqJSON, verdictJSON, created string
	if err := sc.Scan(&rec.ID, &rec.Trigger, &reqJSON, &verdictJSON, &created); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(reqJSON), &rec.Request); err != nil {
		return Record{}, fmt.Errorf("unmarshal request: %w", err)
	}
	if err := json.Unmarshal([]byte(verdictJSON), &rec.Verdict); err != nil {
		return Record{}, fmt.Errorf("unmarshal verdict: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Record{}, fmt.Errorf("adjudication %s created_at: %w", rec.ID, err)
	}
	rec.CreatedAt = ts
	return rec, nil
}

// #endregion get

// #region provenance
func provenanceFor(rec Record, req adjudicator.Request, res adjudicator.Result) (logging.ProvenanceEntry, error) {
	d := res.Decision
	dr := logging.DecisionRecord{
		RequestID:    req.ID,
		ClauseText:   req.ClauseText,
		NeuralBand:   string(req.NeuralBand),
		PatternScore: res.Patterns.Score,
		HighMatches:  []string{},
		LowMatches:   []string{},
		FiredRules:   []string{},
		Thresholds: logging.DecisionThresholds{
			High:                res.Gate.HighThreshold,
			Low:                 res.Gate.LowThreshold,
			BaseScore:           res.Policy.BaseScore,
			BaseConfidence:      res.Policy.BaseConfidence,
			PerMatch:            res.Policy.PerMatch,
			DisagreementPenalty: res.Policy.DisagreementPenalty,
		},
		Provisional: string(d.Provisional),
		Category:    string(d.Category),
		TieBreak:    string(d.TieBreak),
		Reason:      d.Reason,
	}
	for _, m := range res.Patterns.Matches {
		if m.Weight > 0 {
			dr.HighMatches = append(dr.HighMatches, m.Pattern)
		} else {
			dr.LowMatches = append(dr.LowMatches, m.Pattern)
		}
	}
	for _, ex := range res.Explanations {
		if !ex.Result.Known() {
			dr.UnknownGoals = append(dr.UnknownGoals, ex.Goal)
		}
	}
	for _, r := range res.Resolutions {
		dr.Resolved = append(dr.Resolved, r.Fact)
	}

	refs := make([]string, 0, len(res.Verdict.Trace()))
	for _, e := range res.Verdict.Trace() {
		if e.Kind == verdict.KindRule {
			dr.FiredRules = append(dr.FiredRules, strings.TrimPrefix(e.Source, "rule:"))
		}
		refs = append(refs, e.Source)
	}

	js, err := json.Marshal(dr)
	if err != nil {
		return logging.ProvenanceEntry{}, fmt.Errorf("marshal decision record: %w", err)
	}
	return logging.ProvenanceEntry{
		AdjudicationID: rec.ID,
		Digest:         res.Verdict.Digest(),
		TriggerType:    rec.Trigger,
		DecisionJSON:   string(js),
		EvidenceRefs:   strings.Join(refs, ","),
		Category:       string(res.Verdict.Category()),
		Reason:         d.Reason,
		CreatedAt:      rec.CreatedAt,
	}, nil
}

// #endregion provenance

// #region helpers
// effective maps each authority-resolved fact to the value that won.
type effective map[string]facts.Value

func effectiveOf(res adjudicator.Result) effective {
	out := make(effective, len(res.Resolutions))
	for _, r := range res.Resolutions {
		if f, ok := res.Facts.Get(r.Fact); ok {
			out[f.Name] = f.Value
		}
	}
	return out
}

// overrules reports whether f was asserted for a resolved fact with a value
// other than the winner's, sourced or not.
func (e effective) overrules(f facts.Fact) bool {
	v, ok := e[f.Name]
	return ok && !f.Value.Equal(v)
}

func label(req adjudicator.Request) string {
	if req.ID != "" {
		return req.ID
	}
	return "request"
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
