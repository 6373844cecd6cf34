package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"mp3player/internal/app/errors"
)

const (
	// SocketTimeout bounds how long startup waits for mpv to create its
	// IPC socket.
	SocketTimeout = 10 * time.Second
	// SocketPollInterval is the poll period while waiting for the socket.
	SocketPollInterval = 100 * time.Millisecond
	// CommandTimeout bounds a single IPC round trip.
	CommandTimeout = 2 * time.Second
	// MaxRetries is the attempt count for transient IPC failures.
	MaxRetries = 3
	// RetryDelay separates retry attempts.
	RetryDelay = 500 * time.Millisecond
)

// Response is a single mpv IPC reply line. Event notifications share the
// stream with command replies; Event is set on those and Error is empty.
type Response struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	RequestID int             `json:"request_id"`
}

// Err converts a non-success reply into an error.
func (r *Response) Err() error {
	if r.Error == "" || r.Error == "success" {
		return nil
	}
	return errors.Wrap(errors.ErrCommandFailed, r.Error)
}

type command struct {
	Command []interface{} `json:"command"`
}

// Client speaks mpv's JSON IPC protocol over a unix socket. Requests are
// serialized; event lines arriving between replies are skipped.
type Client struct {
	socketPath string
	log        *zap.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewClient prepares a client for the given socket path without connecting.
func NewClient(socketPath string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{socketPath: socketPath, log: log}
}

// WaitForSocket polls until mpv creates the socket file, then connects.
func (c *Client) WaitForSocket(ctx context.Context) error {
	deadline := time.Now().Add(SocketTimeout)
	for {
		if _, err := os.Stat(c.socketPath); err == nil {
			return c.connect()
		}
		if time.Now().After(deadline) {
			return errors.Wrapf(errors.ErrSocketUnavailable, "socket %s not created within %s", c.socketPath, SocketTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(SocketPollInterval):
		}
	}
}

func (c *Client) connect() error {
	conn, err := net.DialTimeout("unix", c.socketPath, CommandTimeout)
	if err != nil {
		return errors.Wrapf(errors.ErrSocketUnavailable, "connect %s: %v", c.socketPath, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.mu.Unlock()
	c.log.Debug("connected to mpv socket", zap.String("path", c.socketPath))
	return nil
}

// Close tears down the socket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	return err
}

// Send issues one command and returns mpv's reply.
func (c *Client) Send(ctx context.Context, args ...interface{}) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, errors.ErrSocketUnavailable
	}

	payload, err := json.Marshal(command{Command: args})
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}
	payload = append(payload, '\n')

	deadline := time.Now().Add(CommandTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	defer c.conn.SetDeadline(time.Time{})

	c.log.Debug("sending command", zap.ByteString("payload", payload[:len(payload)-1]))
	if _, err := c.conn.Write(payload); err != nil {
		return nil, errors.Wrapf(errors.ErrSocketUnavailable, "write: %v", err)
	}

	// Replies and event notifications interleave on the same stream; the
	// first non-event line answers our command.
	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, errors.Wrapf(errors.ErrSocketUnavailable, "read: %v", err)
		}

		var resp Response
		if err := json.Unmarshal(line, &resp); err != nil {
			c.log.Debug("skipping unparseable line", zap.ByteString("line", line))
			continue
		}
		if resp.Event != "" {
			c.log.Debug("skipping event", zap.String("event", resp.Event))
			continue
		}
		return &resp, nil
	}
}

// SendWithRetry retries transient mpv failures ("property unavailable",
// "error running command") before giving up.
func (c *Client) SendWithRetry(ctx context.Context, args ...interface{}) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		resp, err := c.Send(ctx, args...)
		if err != nil {
			return nil, err
		}
		respErr := resp.Err()
		if respErr == nil {
			return resp, nil
		}
		if !errors.IsRetryable(respErr) {
			return resp, respErr
		}

		lastErr = respErr
		c.log.Warn("command failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("error", resp.Error))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(RetryDelay):
		}
	}
	return nil, errors.Wrapf(lastErr, "failed after %d attempts", MaxRetries)
}

// GetFloat reads a float property such as time-pos or duration.
func (c *Client) GetFloat(ctx context.Context, property string) (float64, error) {
	resp, err := c.SendWithRetry(ctx, "get_property", property)
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		return 0, fmt.Errorf("property %s: %w", property, err)
	}
	return v, nil
}

// GetBool reads a boolean property such as pause.
func (c *Client) GetBool(ctx context.Context, property string) (bool, error) {
	resp, err := c.SendWithRetry(ctx, "get_property", property)
	if err != nil {
		return false, err
	}
	var v bool
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		return false, fmt.Errorf("property %s: %w", property, err)
	}
	return v, nil
}

// SetProperty writes a property value.
func (c *Client) SetProperty(ctx context.Context, property string, value interface{}) error {
	resp, err := c.SendWithRetry(ctx, "set_property", property, value)
	if err != nil {
		return err
	}
	return resp.Err()
}
