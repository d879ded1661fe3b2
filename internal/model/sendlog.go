package model

import "time"

// SendLogEntry is one row of the send ledger. A zero SentAt or
// FollowupSentAt means the event has not happened.
type SendLogEntry struct {
	ContactEmail   string    `json:"contact_email"`
	ContactName    string    `json:"contact_name,omitempty"`
	Company        string    `json:"company,omitempty"`
	Project        string    `json:"project,omitempty"`
	Subject        string    `json:"subject"`
	SentAt         time.Time `json:"sent_at"`
	SentFrom       string    `json:"sent_from,omitempty"`
	Replied        bool      `json:"replied"`
	FollowupSentAt time.Time `json:"followup_sent_at,omitzero"`
}
