// Package mux models the subset of Mux webhook events that gets relayed.
package mux

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEventTypeRequired = errors.New("event type is required")
	ErrEventIDRequired   = errors.New("event id is required")
)

// PlaybackID is a playback identifier attached to an asset.
type PlaybackID struct {
	Policy string `json:"policy"`
	ID     string `json:"id"`
}

// Data is the asset object carried by video.asset.* events.
type Data struct {
	Status      string       `json:"status"`
	PlaybackIDs []PlaybackID `json:"playback_ids"`
	ID          string       `json:"id"`
	Duration    *float64     `json:"duration,omitempty"`
	CreatedAt   int64        `json:"created_at"`
	AspectRatio *string      `json:"aspect_ratio,omitempty"`
}

// Event is a Mux webhook delivery. Unknown fields are ignored.
type Event struct {
	Type      string `json:"type"`
	Data      Data   `json:"data"`
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// ParseEvent decodes a raw webhook body. Signature verification must happen
// on the same bytes before they are decoded.
func ParseEvent(body []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, fmt.Errorf("decoding mux event: %w", err)
	}
	if event.Type == "" {
		return Event{}, ErrEventTypeRequired
	}
	if event.ID == "" {
		return Event{}, ErrEventIDRequired
	}
	return event, nil
}
