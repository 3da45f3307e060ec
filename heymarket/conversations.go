// ABOUTME: Conversation transcript retrieval for contacts who replied to a broadcast
// ABOUTME: Keeps text messages in chronological order, labelled by direction
package heymarket

import (
	"context"
)

const (
	inboundPrefix  = "-> You"
	outboundPrefix = "You ->"
)

type messagesRequest struct {
	ParentID  ID     `json:"parent_id"`
	TeamID    int64  `json:"team_id"`
	Date      string `json:"date"`
	Filter    string `json:"filter"`
	Ascending bool   `json:"ascending"`
	Type      string `json:"type"`
}

// FetchConversation returns the text messages of a conversation, oldest first,
// each rendered as "<direction>: <text>". Errors are logged and yield an
// empty transcript.
func (c *Client) FetchConversation(ctx context.Context, conversationID ID) []string {
	body := messagesRequest{
		ParentID:  conversationID,
		TeamID:    c.teamID,
		Date:      c.timestamp(),
		Filter:    "ALL",
		Ascending: false,
		Type:      "messages",
	}

	var resp messagesResponse
	if err := c.Send(ctx, c.baseURL+messagesPath, "", body, &resp); err != nil {
		c.logger.Error("failed to fetch conversation", "conversation_id", conversationID, "err", err)
		if c.onConvErr != nil {
			c.onConvErr(err)
		}
		return []string{}
	}

	return FormatTranscript(resp.Messages)
}

// FormatTranscript turns a newest-first message list into chronological
// direction-labelled lines, dropping anything that is not plain text.
func FormatTranscript(newestFirst []Message) []string {
	lines := make([]string, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		m := newestFirst[i]
		if m.Type != "text" {
			continue
		}
		direction := outboundPrefix
		if m.Inbound() {
			direction = inboundPrefix
		}
		lines = append(lines, direction+": "+m.Text)
	}
	return lines
}
