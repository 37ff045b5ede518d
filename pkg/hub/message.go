// Package hub fans progress events out to websocket clients using a
// single goroutine that owns the client set.
package hub

import (
	"encoding/json"
	"fmt"
)

// Message is one pre-encoded text frame. A non-empty Topic limits delivery
// to clients subscribed to that topic.
type Message struct {
	Topic string
	Data  []byte
}

// Encode marshals v as a JSON text frame.
func Encode(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("hub: encode: %w", err)
	}
	return Message{Data: data}, nil
}
