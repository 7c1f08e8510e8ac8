package types

// Event represents a typed event emitted during state transitions. Downstream
// indexers treat the attribute map as the durable audit trail, so producers
// must include every id, amount and address the operation touched.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
