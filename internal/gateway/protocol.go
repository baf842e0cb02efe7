package gateway

import "encoding/json"

// PushFrame is the wire format of a server push. Every frame carries the
// event name and a JSON payload; clients dispatch on the event name.
type PushFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Envelope is the cross-instance fan-out record published to the shared
// event topic. Origin identifies the publishing instance so subscribers
// can skip envelopes they emitted locally themselves.
type Envelope struct {
	Origin string          `json:"origin"`
	UserId string          `json:"user_id"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}
