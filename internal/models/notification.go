package models

import "time"

// NotificationTemplate is a named, institution-scoped message template.
// Subject and Body use text/template syntax.
type NotificationTemplate struct {
	ID            string    `db:"id" json:"id"`
	InstitutionID string    `db:"institution_id" json:"institution_id"`
	Key           string    `db:"key" json:"key"`
	Subject       string    `db:"subject" json:"subject"`
	Body          string    `db:"body" json:"body"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// NotificationMessage is a rendered notification handed to the dispatch queue.
type NotificationMessage struct {
	TemplateKey string   `json:"template_key"`
	Recipients  []string `json:"recipients"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
}
