package model

// DisconnectedPayload is the last frame written before the server closes a stream.
type DisconnectedPayload struct {
	Reason string `json:"reason"`
	Code   string `json:"code,omitempty"` // "SHUTDOWN", "EVICTED"
}
