package models

import (
	"encoding/json"
	"time"
)

// StoredReport is a processed financial report as persisted by the store.
type StoredReport struct {
	ID         string          `json:"id"`
	Company    string          `json:"company"`
	SchemaTag  string          `json:"schema_tag"`
	SourceFile string          `json:"source_file,omitempty"`
	Document   json.RawMessage `json:"document"`
	HTML       string          `json:"html,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
