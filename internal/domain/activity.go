package domain

// Activity represents one academic deadline or assessment listed by the portal.
//
// It is NOT tied to the browser, the snapshot backend or the chat transport.
// Activities are rebuilt from scratch on every extraction pass; only the
// serialized snapshot survives between runs.
type Activity struct {
	// ─────────────────────────────
	// Identity (derived)
	// ─────────────────────────────

	// ID is derived from Period, Course, DueText and Kind.
	// See ActivityID.
	ID string `json:"id"`

	// ─────────────────────────────
	// Source fields
	// ─────────────────────────────

	// Period is the academic term label carried forward from the last
	// period marker row. Empty when no marker was seen yet.
	// Example: 2025.1
	Period string `json:"period"`

	// DueText is the date/time text as shown by the portal, with
	// whitespace runs collapsed. Opaque, never parsed as a date.
	DueText string `json:"dueText"`

	// Course is the discipline name. Never empty.
	Course string `json:"course"`

	// Kind is the classification line, e.g. "Avaliação: Prova 1". May be empty.
	Kind string `json:"kind"`

	// Title is the text of the link embedded in the activity cell, if any.
	Title string `json:"title,omitempty"`

	// ─────────────────────────────
	// Flag icon
	// ─────────────────────────────

	// HasFlagIcon reports whether the row carried a supplementary icon.
	HasFlagIcon bool `json:"hasFlagIcon"`

	// FlagText is the icon's description, e.g. "Esta semana".
	FlagText string `json:"flagText,omitempty"`
}
