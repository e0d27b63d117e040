package model

// ConnectedPayload is sent to the client right after a successful handshake.
type ConnectedPayload struct {
	Ok           bool   `json:"ok"`
	ConnectionID string `json:"connection_id"`
	Stream       string `json:"stream"`
	InstanceID   string `json:"instance_id"`
}

// RejectedPayload answers a malformed submission. The connection stays open.
type RejectedPayload struct {
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// FailedPayload answers a submission that could not be stored.
type FailedPayload struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}
