package models

import "time"

// AdminEvent is one entry in the append-only administrative audit trail.
// Events are written in the same transaction as the mutation they describe.
type AdminEvent struct {
	ID        int64          `json:"id"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Target    string         `json:"target,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditQueryOpts holds filters for querying the audit trail.
type AuditQueryOpts struct {
	Actor  string
	Action string
	Target string
	Since  *time.Time
	Limit  int
	Offset int
}

// Summary reports entity counts for the admin overview.
type Summary struct {
	KnowledgeEntries int `json:"knowledge_entries"`
	DecisionRecords  int `json:"decision_records"`
	Comments         int `json:"comments"`
	Users            int `json:"users"`
	Admins           int `json:"admins"`
	ActiveUsers      int `json:"active_users"`
	Corpora          int `json:"corpora"`
	AdminEvents      int `json:"admin_events"`
}
