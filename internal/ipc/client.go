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

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Lodestone.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Lodestone.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Lodestone.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InstallClient queues a game client install for a profile.
func (c *Client) InstallClient(req InstallClientRequest) (*InstallClientResponse, error) {
	var resp InstallClientResponse
	if err := c.client.Call("Lodestone.InstallClient", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InstallContent queues content installs for a profile.
func (c *Client) InstallContent(req InstallContentRequest) (*InstallContentResponse, error) {
	var resp InstallContentResponse
	if err := c.client.Call("Lodestone.InstallContent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueList returns queue items optionally filtered by states and profile.
func (c *Client) QueueList(states []string, profileID string) (*QueueListResponse, error) {
	var resp QueueListResponse
	req := QueueListRequest{States: states, ProfileID: profileID}
	if err := c.client.Call("Lodestone.QueueList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueDescribe returns details for a single queue item.
func (c *Client) QueueDescribe(id int64) (*QueueDescribeResponse, error) {
	var resp QueueDescribeResponse
	if err := c.client.Call("Lodestone.QueueDescribe", QueueDescribeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRetry moves an errored item back to pending.
func (c *Client) QueueRetry(id int64) (*QueueRetryResponse, error) {
	var resp QueueRetryResponse
	if err := c.client.Call("Lodestone.QueueRetry", QueueRetryRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueuePostpone parks a pending item.
func (c *Client) QueuePostpone(id int64) (*QueuePostponeResponse, error) {
	var resp QueuePostponeResponse
	if err := c.client.Call("Lodestone.QueuePostpone", QueuePostponeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueResume returns a postponed item to the queue tail.
func (c *Client) QueueResume(id int64) (*QueueResumeResponse, error) {
	var resp QueueResumeResponse
	if err := c.client.Call("Lodestone.QueueResume", QueueResumeRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueRemove deletes a non-current item.
func (c *Client) QueueRemove(id int64) (*QueueRemoveResponse, error) {
	var resp QueueRemoveResponse
	if err := c.client.Call("Lodestone.QueueRemove", QueueRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueCancel asks the in-flight install to stop.
func (c *Client) QueueCancel(id int64) (*QueueCancelResponse, error) {
	var resp QueueCancelResponse
	if err := c.client.Call("Lodestone.QueueCancel", QueueCancelRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueueClear bulk-deletes items in a state, or all non-current items when
// state is empty.
func (c *Client) QueueClear(state string) (*QueueClearResponse, error) {
	var resp QueueClearResponse
	if err := c.client.Call("Lodestone.QueueClear", QueueClearRequest{State: state}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Lodestone.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProfileCreate registers a new profile.
func (c *Client) ProfileCreate(req ProfileCreateRequest) (*ProfileCreateResponse, error) {
	var resp ProfileCreateResponse
	if err := c.client.Call("Lodestone.ProfileCreate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProfileList retrieves every profile.
func (c *Client) ProfileList() (*ProfileListResponse, error) {
	var resp ProfileListResponse
	if err := c.client.Call("Lodestone.ProfileList", ProfileListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProfileRemove deletes a profile and its queue history.
func (c *Client) ProfileRemove(id string) (*ProfileRemoveResponse, error) {
	var resp ProfileRemoveResponse
	if err := c.client.Call("Lodestone.ProfileRemove", ProfileRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Lodestone.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
