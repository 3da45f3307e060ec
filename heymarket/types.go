// ABOUTME: Wire types for the Heymarket list, broadcast report, and message endpoints
// ABOUTME: IDs accept JSON numbers or strings so lookups compare by value
package heymarket

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NoResponseTime is the placeholder Heymarket returns in response_time
// when the recipient has not replied.
const NoResponseTime = "0001-01-01T00:00:00Z"

// ID is an identifier that may arrive as a JSON number or string.
type ID string

// UnmarshalJSON accepts 123, "123", or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits numeric IDs as JSON numbers and anything else as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.numeric() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Empty reports whether the ID is missing. Zero counts as missing.
func (id ID) Empty() bool {
	return id == "" || id == "0"
}

func (id ID) String() string {
	return string(id)
}

func (id ID) numeric() bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		if r == '-' && i == 0 && len(id) > 1 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Target holds the display metadata the list keeps per recipient.
type Target struct {
	FirstName string `json:"f"`
	LastName  string `json:"l"`
}

// List is a saved recipient group.
type List struct {
	ID      ID            `json:"id"`
	Targets map[ID]Target `json:"targets"`
}

// Broadcast is one campaign send event.
type Broadcast struct {
	ID      ID     `json:"id"`
	ListID  ID     `json:"list_id"`
	InboxID ID     `json:"inbox_id"`
	Date    string `json:"date"`
}

// ListsResponse is the discovery call's payload.
type ListsResponse struct {
	Lists      []List      `json:"lists"`
	Broadcasts []Broadcast `json:"broadcasts"`
}

// ReportContact is a single recipient's delivery and reply status.
type ReportContact struct {
	Target         ID     `json:"target"`
	Status         string `json:"status"`
	ResponseTime   string `json:"response_time"`
	ConversationID ID     `json:"conversation_id"`
}

// Responded reports whether the contact has replied.
func (c ReportContact) Responded() bool {
	return c.ResponseTime != "" && c.ResponseTime != NoResponseTime
}

// Failed reports whether delivery failed.
func (c ReportContact) Failed() bool {
	return c.Status == "failed"
}

// Report is the per-broadcast delivery report.
type Report struct {
	Contacts []ReportContact `json:"contacts"`
}

// Message is one entry of a conversation thread.
type Message struct {
	Sender ID     `json:"sender"`
	Target ID     `json:"target"`
	Type   string `json:"type"`
	Text   string `json:"text"`
}

// Inbound reports whether the recipient sent the message.
func (m Message) Inbound() bool {
	return m.Sender == m.Target
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}
