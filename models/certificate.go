package models

import (
	"time"
)

// Certificate is one issued artifact. Records are immutable once issued:
// there is no revocation or edit path.
type Certificate struct {
	CertificateID  string    `json:"certificate_id"`
	HackathonID    string    `json:"hackathon_id,omitempty"`
	TemplateID     string    `json:"template_id,omitempty"`
	RecipientName  string    `json:"recipient_name"`
	RecipientEmail string    `json:"recipient_email"`
	Role           string    `json:"role"`
	EventName      string    `json:"event_name"`
	CertificateURL string    `json:"certificate_url"`
	IssuedAt       time.Time `json:"issued_at"`
}

// Outcome is the result of one roster row within a generation run: either an
// issued Certificate or a failure Reason, never both. AlreadyIssued flags
// rows where a certificate for the same (name, email, event) existed before
// this run, so a caller re-running a batch can see the duplicates it minted.
type Outcome struct {
	Row           int          `json:"row"`
	Certificate   *Certificate `json:"certificate,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	AlreadyIssued bool         `json:"already_issued,omitempty"`
}

// Issued reports whether this outcome carries a certificate.
func (o Outcome) Issued() bool { return o.Certificate != nil }

// GenerationRun is the record of one batch generation: the position mapping
// snapshotted at the start of the run plus one Outcome per roster row, in
// roster order. A partial failure never aborts the batch, so
// Issued() + Failed() always equals the number of input rows.
type GenerationRun struct {
	TemplateSnapshot FieldPositions `json:"template_snapshot"`
	EventName        string         `json:"event_name"`
	StartedAt        time.Time      `json:"started_at"`
	Outcomes         []Outcome      `json:"outcomes"`
}

// Issued returns the number of rows that produced a certificate.
func (r *GenerationRun) Issued() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Issued() {
			n++
		}
	}
	return n
}

// Failed returns the number of rows that did not produce a certificate.
func (r *GenerationRun) Failed() int {
	return len(r.Outcomes) - r.Issued()
}

// Duplicates returns the number of issued rows flagged AlreadyIssued.
func (r *GenerationRun) Duplicates() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Issued() && o.AlreadyIssued {
			n++
		}
	}
	return n
}

// Certificates returns the issued certificates in roster order.
func (r *GenerationRun) Certificates() []Certificate {
	out := make([]Certificate, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Issued() {
			out = append(out, *o.Certificate)
		}
	}
	return out
}

// Failures returns the failed rows, in roster order, as RowErrors.
func (r *GenerationRun) Failures() []RowError {
	var out []RowError
	for _, o := range r.Outcomes {
		if !o.Issued() {
			out = append(out, RowError{Row: o.Row, Reason: o.Reason})
		}
	}
	return out
}
