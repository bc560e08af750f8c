package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Vigil.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ingest runs one detection event through the pipeline.
func (c *Client) Ingest(event DetectionEvent) (*IngestResponse, error) {
	var resp IngestResponse
	if err := c.client.Call("Vigil.Ingest", IngestRequest{Event: event}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scene records a scene-classifier observation.
func (c *Client) Scene(req SceneRequest) (*SceneResponse, error) {
	var resp SceneResponse
	if err := c.client.Call("Vigil.Scene", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Feedback applies a viewer verdict to the learned weights.
func (c *Client) Feedback(req FeedbackRequest) (*FeedbackResponse, error) {
	var resp FeedbackResponse
	if err := c.client.Call("Vigil.Feedback", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WarningsList returns journaled warnings, optionally filtered.
func (c *Client) WarningsList(req WarningsListRequest) (*WarningsListResponse, error) {
	var resp WarningsListResponse
	if err := c.client.Call("Vigil.WarningsList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WarningsClear removes all journaled warnings.
func (c *Client) WarningsClear() (*WarningsClearResponse, error) {
	var resp WarningsClearResponse
	if err := c.client.Call("Vigil.WarningsClear", WarningsClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Sweep forces a deduplication sweep.
func (c *Client) Sweep() (*SweepResponse, error) {
	var resp SweepResponse
	if err := c.client.Call("Vigil.Sweep", SweepRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AttentionReset discards learned weights for the named categories.
func (c *Client) AttentionReset(categories []string) (*AttentionResetResponse, error) {
	var resp AttentionResetResponse
	req := AttentionResetRequest{Categories: categories}
	if err := c.client.Call("Vigil.AttentionReset", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FeedbackStats retrieves journaled feedback counts.
func (c *Client) FeedbackStats() (*FeedbackStatsResponse, error) {
	var resp FeedbackStatsResponse
	if err := c.client.Call("Vigil.FeedbackStats", FeedbackStatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Vigil.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	var resp ShutdownResponse
	if err := c.client.Call("Vigil.Shutdown", ShutdownRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail fetches daemon log lines starting at the requested offset.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Vigil.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
