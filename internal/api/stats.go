package api

import (
	"context"
	"net/url"
)

// GlobalStats fetches the aggregate dashboard statistics.
func (c *Client) GlobalStats(ctx context.Context) (GlobalStats, error) {
	var stats GlobalStats
	if err := c.get(ctx, "/api/admin/stats", nil, &stats); err != nil {
		return GlobalStats{}, err
	}
	return stats, nil
}

// StatsByDate fetches statistics for a date range. Empty bounds are omitted.
func (c *Client) StatsByDate(ctx context.Context, from, to string) (GlobalStats, error) {
	query := url.Values{}
	if from != "" {
		query.Set("inicio", from)
	}
	if to != "" {
		query.Set("fin", to)
	}
	var stats GlobalStats
	if err := c.get(ctx, "/api/admin/stats/fecha", query, &stats); err != nil {
		return GlobalStats{}, err
	}
	return stats, nil
}

// ConnectionStats fetches the live connection snapshot over REST. Used as the
// polling fallback while the realtime channel is down.
func (c *Client) ConnectionStats(ctx context.Context) (ConnectionStats, error) {
	var stats ConnectionStats
	if err := c.get(ctx, "/api/admin/connection-stats", nil, &stats); err != nil {
		return ConnectionStats{}, err
	}
	return stats, nil
}
