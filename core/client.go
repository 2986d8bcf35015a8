package chatlisp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// Client talks to a Core over its unix socket. Calls are serialized on one
// connection.
type Client struct {
	conn net.Conn
	mu   sync.Mutex
}

func Dial(sockPath string) (*Client, error) {
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", sockPath, err)
	}
	return &Client{conn: conn}, nil
}

// Call sends req, adding an id if it has none, and returns the raw response.
func (c *Client) Call(ctx context.Context, req map[string]any) (map[string]any, error) {
	if _, ok := req["id"]; !ok {
		req["id"] = NextID()
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetDeadline(deadline)
		defer c.conn.SetDeadline(time.Time{})
	}
	if err := WriteMsg(c.conn, req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	resp, err := ReadMsg(c.conn)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return resp, nil
}

// Value calls req and unwraps the response value, turning ok=false into an
// error.
func (c *Client) Value(ctx context.Context, req map[string]any) (any, error) {
	resp, err := c.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	if ok, _ := resp["ok"].(bool); !ok {
		errMsg, _ := resp["error"].(string)
		if errMsg == "" {
			errMsg = "unknown error"
		}
		return nil, fmt.Errorf("core: %s", errMsg)
	}
	return resp["value"], nil
}

// Run evaluates code on the core and returns its display text.
func (c *Client) Run(ctx context.Context, code string) (string, error) {
	v, err := c.Value(ctx, map[string]any{"op": "run", "code": code})
	if err != nil {
		return "", err
	}
	text, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("run: unexpected value %T", v)
	}
	return text, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
