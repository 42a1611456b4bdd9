package ws

import "encoding/json"

// MessageType constants for the push protocol.
const (
	// TypeState carries a full session snapshot after every transition.
	TypeState = "state"
	// TypeTick carries the snapshot emitted by the running quiz timer.
	TypeTick = "tick"
)

// Message wraps outgoing payloads with their type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}
