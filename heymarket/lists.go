// ABOUTME: List and broadcast discovery plus per-broadcast delivery reports
// ABOUTME: One discovery call returns every list and broadcast visible to the team
package heymarket

import (
	"context"
	"fmt"
)

type listsRequest struct {
	Filter         string `json:"filter"`
	Archived       bool   `json:"archived"`
	Ascending      bool   `json:"ascending"`
	Order          string `json:"order"`
	TeamID         int64  `json:"team_id"`
	Type           string `json:"type"`
	ResetLocalList bool   `json:"resetLocalList"`
	Date           string `json:"date"`
}

type reportRequest struct {
	ListID      ID    `json:"list_id"`
	BroadcastID ID    `json:"broadcast_id"`
	TeamID      int64 `json:"team_id"`
}

// FetchLists returns the team's own, unarchived lists and broadcasts,
// most recently updated first.
func (c *Client) FetchLists(ctx context.Context) (*ListsResponse, error) {
	body := listsRequest{
		Filter:         "MY",
		Archived:       false,
		Ascending:      false,
		Order:          "updated",
		TeamID:         c.teamID,
		Type:           "lists",
		ResetLocalList: true,
		Date:           c.timestamp(),
	}

	var resp ListsResponse
	if err := c.Send(ctx, c.baseURL+listsPath, "", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch lists: %w", err)
	}

	c.logger.Debug("fetched lists", "lists", len(resp.Lists), "broadcasts", len(resp.Broadcasts))
	return &resp, nil
}

// FetchReport returns the delivery report for one broadcast.
func (c *Client) FetchReport(ctx context.Context, listID, broadcastID ID) (*Report, error) {
	body := reportRequest{
		ListID:      listID,
		BroadcastID: broadcastID,
		TeamID:      c.teamID,
	}

	var report Report
	if err := c.Send(ctx, c.baseURL+reportPath, "", body, &report); err != nil {
		return nil, fmt.Errorf("failed to fetch report for broadcast %s: %w", broadcastID, err)
	}

	return &report, nil
}
