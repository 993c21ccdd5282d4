package websocket

import (
	"encoding/json"

	"github.com/searchktools/duplex-server/core/codec"
)

// Event is the typed-event envelope: a JSON object with exactly a "type"
// string and a "data" value. Raw messages that do not decode to this shape
// still reach the message callbacks but never the typed handlers.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EncodeEvent builds the wire form of a typed event. The payload codec must
// produce valid JSON for the data member; the default is codec.JSONCodec.
func EncodeEvent(c codec.Codec, event string, data any) ([]byte, error) {
	if c == nil {
		c = &codec.JSONCodec{}
	}
	encoded, err := c.Encode(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Event{Type: event, Data: encoded})
}

// DecodeEvent attempts to read a message as a typed-event envelope. The
// second return is false when the message is not one; the failure is
// deliberately silent so raw traffic can share the connection.
func DecodeEvent(data []byte) (*Event, bool) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, false
	}
	rawType, hasType := members["type"]
	rawData, hasData := members["data"]
	if len(members) != 2 || !hasType || !hasData {
		return nil, false
	}
	event := Event{Data: rawData}
	if err := json.Unmarshal(rawType, &event.Type); err != nil || event.Type == "" {
		return nil, false
	}
	return &event, true
}
