package models

// Contact is a recipient's normalized identity and personalization fields.
// Built once by the normalizer and never mutated afterwards.
type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Email     string `json:"email"`
}

// FieldMapping maps each contact field to a source column name.
// An empty value means "no source" and the field defaults to "".
// Email must always resolve to a column.
type FieldMapping struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Email     string `json:"email"`
}

// Campaign pairs one subject+body template with an ordered recipient list,
// submitted for dispatch as a unit.
type Campaign struct {
	Subject    string    `json:"subject"`
	Body       string    `json:"htmlTemplate"`
	Recipients []Contact `json:"users"`
}

// DispatchResult records the outcome for a single recipient.
type DispatchResult struct {
	Email     string `json:"email"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	ErrorMsg  string `json:"errorMessage,omitempty"`
}

// DispatchReport aggregates the outcome of a campaign. Results are in
// recipient order and Total always equals the submitted recipient count.
// Incomplete is set when the dispatch was cancelled before every recipient
// was attempted; unattempted slots are recorded as failures.
type DispatchReport struct {
	Sent       int              `json:"sent"`
	Failed     int              `json:"failed"`
	Total      int              `json:"total"`
	Incomplete bool             `json:"incomplete,omitempty"`
	Results    []DispatchResult `json:"results"`
}
