package client

import (
	"context"

	domain "github.com/catalogwatch/collector/pkg/types"
)

// ControlResponse reports the outcome of a control operation.
type ControlResponse struct {
	Status   string `json:"status"`
	Paused   bool   `json:"paused"`
	Stopping bool   `json:"stopping"`
}

// Pause sets the manual pause flag on the collector.
func (c *Client) Pause(ctx context.Context) (*ControlResponse, error) {
	var resp ControlResponse
	if err := c.post(ctx, "/api/v1/control/pause", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resume clears the manual pause flag on the collector.
func (c *Client) Resume(ctx context.Context) (*ControlResponse, error) {
	var resp ControlResponse
	if err := c.post(ctx, "/api/v1/control/resume", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests a one-way shutdown of collection.
func (c *Client) Stop(ctx context.Context) (*ControlResponse, error) {
	var resp ControlResponse
	if err := c.post(ctx, "/api/v1/control/stop", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TriggerDiscovery starts a discovery walk immediately.
func (c *Client) TriggerDiscovery(ctx context.Context) (*ControlResponse, error) {
	var resp ControlResponse
	if err := c.post(ctx, "/api/v1/discovery/run", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SystemState returns the collector's state snapshot.
func (c *Client) SystemState(ctx context.Context) (*domain.SystemState, error) {
	var state domain.SystemState
	if err := c.get(ctx, "/api/v1/system/state", &state); err != nil {
		return nil, err
	}
	return &state, nil
}
