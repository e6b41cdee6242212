package mux

import (
	"encoding/json"
	"fmt"
)

// Report is what gets relayed for every received event.
type Report struct {
	Data     Event `json:"data"`
	Verified bool  `json:"verified"`
}

// Text renders the report as indented JSON for a chat message.
func (r Report) Text() (string, error) {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling mux report: %w", err)
	}
	return string(out), nil
}
