package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Audit actions recorded by the application services.
const (
	ActionGoalStatus      = "goal.status"
	ActionGoalAssessed    = "goal.assessed"
	ActionImport          = "data.import"
	ActionSnapshotCapture = "snapshot.capture"
	ActionAlertsNotified  = "alerts.notified"
	ActionWorkspaceInit   = "workspace.init"
)

// Event is one entry of the audit trail. Each event carries the hash of its
// predecessor so edits to the log are detectable.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Actor     string                 `json:"actor"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	PrevHash  string                 `json:"prev_hash,omitempty"`
	Hash      string                 `json:"hash,omitempty"`
}

// CalculateHash returns the SHA256 of the event content and its predecessor hash.
func (e *Event) CalculateHash() string {
	h := sha256.New()
	h.Write([]byte(e.PrevHash))
	h.Write([]byte(e.ID))
	h.Write([]byte(e.Timestamp.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte(e.Action))
	h.Write([]byte(e.Actor))
	h.Write([]byte(canonicalJSON(e.Metadata)))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON encodes metadata with sorted keys.
func canonicalJSON(m map[string]interface{}) string {
	if len(m) == 0 {
		return ""
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := make([]byte, 0, 256)
	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, _ := json.Marshal(k)
		valJSON, _ := json.Marshal(m[k])
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	return string(append(buf, '}'))
}

// VerifyChain checks the links and content hashes of an event sequence and
// returns one message per violation.
func VerifyChain(events []Event) []string {
	var violations []string
	lastHash := ""
	for i := range events {
		e := &events[i]
		if e.PrevHash != lastHash {
			violations = append(violations, fmt.Sprintf("event %d (%s): previous hash mismatch, chain broken", i, e.ID))
		}
		if e.Hash != e.CalculateHash() {
			violations = append(violations, fmt.Sprintf("event %d (%s): content hash mismatch, possible tampering", i, e.ID))
		}
		lastHash = e.Hash
	}
	return violations
}
