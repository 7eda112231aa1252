package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the watcher daemon.
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
	if err := c.client.Call("Cineforge.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatchList returns the watched projects and their reconciled state.
func (c *Client) WatchList() (*WatchListResponse, error) {
	var resp WatchListResponse
	if err := c.client.Call("Cineforge.WatchList", WatchListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProductionStatus returns one watched project's snapshot and event lines.
func (c *Client) ProductionStatus(projectID string) (*ProductionStatusResponse, error) {
	var resp ProductionStatusResponse
	req := ProductionStatusRequest{ProjectID: projectID}
	if err := c.client.Call("Cineforge.ProductionStatus", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Watch asks the daemon to start watching a project.
func (c *Client) Watch(projectID string) (*WatchResponse, error) {
	var resp WatchResponse
	req := WatchRequest{ProjectID: projectID}
	if err := c.client.Call("Cineforge.Watch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Cineforge.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Cineforge.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
