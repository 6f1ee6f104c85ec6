// Package logging holds the two kinds of logging the service does:
// diagnostic logs through log/slog, and the audit provenance trail in
// SQLite.
package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes a provenance entry to the provenance_log table.
func LogDecision(db *sql.DB, entry ProvenanceEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO provenance_log (adjudication_id, digest, trigger_type, decision_json, evidence_refs, category, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.AdjudicationID),
		nullIfEmpty(entry.Digest),
		entry.TriggerType,
		nullIfEmpty(entry.DecisionJSON),
		nullIfEmpty(entry.EvidenceRefs),
		nullIfEmpty(entry.Category),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// RecentDecisions returns the latest provenance rows, newest first.
func RecentDecisions(db *sql.DB, limit int) ([]ProvenanceEntry, error) {
	rows, err := db.Query(
		`SELECT adjudication_id, digest, trigger_type, decision_json, evidence_refs, category, reason, created_at
		 FROM provenance_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query provenance: %w", err)
	}
	defer rows.Close()

	var out []ProvenanceEntry
	for rows.Next() {
		var e ProvenanceEntry
		var id, digest, decision, refs, cat, reason sql.NullString
		var created string
		if err := rows.Scan(&id, &digest, &e.TriggerType, &decision, &refs, &cat, &reason, &created); err != nil {
			return nil, fmt.Errorf("scan provenance: %w", err)
		}
		e.AdjudicationID = id.String
		e.Digest = digest.String
		e.DecisionJSON = decision.String
		e.EvidenceRefs = refs.String
		e.Category = cat.String
		e.Reason = reason.String
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("provenance created_at: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion log-decision

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
