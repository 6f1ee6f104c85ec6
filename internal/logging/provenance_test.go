package logging

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE provenance_log (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		adjudication_id TEXT,
		digest          TEXT,
		trigger_type    TEXT NOT NULL,
		decision_json   TEXT,
		evidence_refs   TEXT,
		category        TEXT,
		reason          TEXT,
		created_at      TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	rec := DecisionRecord{
		ClauseText:   "at its sole discretion",
		NeuralBand:   "HIGH",
		PatternScore: 3,
		HighMatches:  []string{"sole discretion"},
		Thresholds:   DecisionThresholds{High: 3, Low: -2, BaseScore: 50},
		Provisional:  "HIGH",
		Category:     "HIGH",
		TieBreak:     "none",
	}
	recJSON, _ := json.Marshal(rec)

	entry := ProvenanceEntry{
		AdjudicationID: "a1",
		Digest:         "deadbeef",
		TriggerType:    "judge",
		DecisionJSON:   string(recJSON),
		EvidenceRefs:   "base,pattern:sole discretion",
		Category:       "HIGH",
		Reason:         "pattern score 3 >= 3",
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogDecision(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var stored string
	db.QueryRow("SELECT decision_json FROM provenance_log").Scan(&stored)
	var back DecisionRecord
	if err := json.Unmarshal([]byte(stored), &back); err != nil {
		t.Fatalf("decision_json not valid JSON: %v", err)
	}
	if back.Thresholds.High != 3 || back.HighMatches[0] != "sole discretion" {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestLogDecision_EmptyOptionalsStoredAsNull(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if err := LogDecision(db, ProvenanceEntry{TriggerType: "batch", Reason: "unresolved conflict"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var digest, category sql.NullString
	var created string
	db.QueryRow("SELECT digest, category, created_at FROM provenance_log").Scan(&digest, &category, &created)
	if digest.Valid || category.Valid {
		t.Errorf("expected NULLs, got digest=%v category=%v", digest, category)
	}
	if _, err := time.Parse(time.RFC3339Nano, created); err != nil {
		t.Errorf("created_at not defaulted: %q", created)
	}
}

func TestLogDecision_MissingTable(t *testing.T) {
	db, _ := sql.Open("sqlite", ":memory:")
	defer db.Close()
	if err := LogDecision(db, ProvenanceEntry{TriggerType: "judge"}); err == nil {
		t.Fatal("expected error without provenance_log table")
	}
}

func TestRecentDecisions_NewestFirst(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	for _, id := range []string{"a", "b", "c"} {
		if err := LogDecision(db, ProvenanceEntry{AdjudicationID: id, TriggerType: "judge", Category: "LOW"}); err != nil {
			t.Fatalf("log %s: %v", id, err)
		}
	}
	got, err := RecentDecisions(db, 2)
	if err != nil {
		t.Fatalf("RecentDecisions: %v", err)
	}
	if len(got) != 2 || got[0].AdjudicationID != "c" || got[1].AdjudicationID != "b" {
		t.Fatalf("got %+v", got)
	}
}

func TestRecentDecisions_CorruptTimestamp(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO provenance_log (trigger_type, created_at) VALUES ('judge', 'yesterday')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := RecentDecisions(db, 5); err == nil || !strings.Contains(err.Error(), "created_at") {
		t.Fatalf("err = %v, want created_at parse error", err)
	}
}

// #endregion log-decision-tests

// #region slog-tests
func TestNewTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(slog.LevelDebug, "json", &buf); err != nil {
		t.Fatalf("Init: %v", err)
	}
	WithRequest(New("adjudicator"), "").Debug("hello")
	line := buf.String()
	if !strings.Contains(line, `"component":"adjudicator"`) || !strings.Contains(line, `"request":"-"`) {
		t.Fatalf("log line = %s", line)
	}
}

func TestInitRejectsUnknownFormat(t *testing.T) {
	if err := Init(slog.LevelInfo, "xml", nil); err == nil {
		t.Fatal("expected error for xml format")
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("WARN"); err != nil || l != slog.LevelWarn {
		t.Fatalf("ParseLevel(WARN) = %v, %v", l, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error")
	}
}

// #endregion slog-tests
