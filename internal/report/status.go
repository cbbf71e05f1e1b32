package report

import (
	"encoding/json"
	"fmt"

	"github.com/Tnze/go-mc/chat"
)

// ServerStatus is the server list document carried by a status response.
type ServerStatus struct {
	Version struct {
		Name     string `json:"name"`
		Protocol int32  `json:"protocol"`
	} `json:"version"`
	Players struct {
		Max    int `json:"max"`
		Online int `json:"online"`
		Sample []struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		} `json:"sample"`
	} `json:"players"`
	Description        chat.Message `json:"description"`
	Favicon            string       `json:"favicon,omitempty"`
	EnforcesSecureChat bool         `json:"enforcesSecureChat"`
}

func ParseStatus(raw string) (*ServerStatus, error) {
	var st ServerStatus
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode status json: %w", err)
	}
	return &st, nil
}

// PlainText renders a JSON text component without formatting codes. Input
// that is not valid chat JSON is returned unchanged.
func PlainText(raw string) string {
	var msg chat.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return raw
	}
	return msg.ClearString()
}
