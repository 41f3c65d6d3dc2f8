package client

import (
	"encoding/json"

	"github.com/dmitrijs2005/seedpipe/internal/transfer"
)

// Text returns a string payload, or the message of a success payload.
func (e Event) Text() string {
	var s string
	if err := json.Unmarshal(e.Payload, &s); err == nil {
		return s
	}
	var sp transfer.SuccessPayload
	if err := json.Unmarshal(e.Payload, &sp); err == nil {
		return sp.Message
	}
	return string(e.Payload)
}

func (e Event) Stage() (transfer.StagePayload, error) {
	var p transfer.StagePayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

func (e Event) Progress() (transfer.ProgressPayload, error) {
	var p transfer.ProgressPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}

// Success decodes a success payload. A bare string becomes the message.
func (e Event) Success() (transfer.SuccessPayload, error) {
	var s string
	if err := json.Unmarshal(e.Payload, &s); err == nil {
		return transfer.SuccessPayload{Message: s}, nil
	}
	var p transfer.SuccessPayload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}
