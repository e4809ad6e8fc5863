package models

// Recipient is one row of an uploaded roster. Role is an unconstrained,
// organizer-supplied string ("participant", "judge", "speaker", ...), not a
// closed enum.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`

	// Row is the zero-based data-row index this recipient came from in the
	// uploaded CSV, kept so per-row failures can be reported against the
	// caller's original file.
	Row int `json:"-"`
}

// RowError records a roster row that could not be turned into a Recipient or
// a certificate. Row is the zero-based data-row index in the uploaded CSV.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
