package session

import "encoding/json"

// Inbound message types.
const (
	MsgAuth          = "auth"
	MsgStartTransfer = "start-transfer"
)

// Outbound message types not produced by a transfer run.
const (
	MsgAuthResult = "auth-result"
	MsgError      = "error"
)

const notAuthenticated = "Not authenticated. Please enter the password."

// Message is one frame on the session channel, sent as
// {"type": "...", "payload": ...}.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// inbound keeps the payload raw until the handler knows its shape.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type AuthResult struct {
	Success bool `json:"success"`
}

// stringPayload decodes a JSON string payload. Anything else yields "".
func stringPayload(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
