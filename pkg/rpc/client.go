package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
)

// codeErrors maps wire error codes back to the sentinels callers match on.
var codeErrors = map[string]error{
	CodeInvalidInput: apperrors.ErrInvalidInput,
	CodeTimeout:      apperrors.ErrTimeout,
}

// Client issues calls over one connection, one at a time. A transport
// failure drops the connection and the next Call dials again.
type Client struct {
	addr string

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	nextID int64
}

// Dial connects to the engine server at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	c := &Client{addr: addr}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.addr, err)
	}
	c.conn, c.reader = conn, bufio.NewReader(conn)
	return nil
}

// drop closes a connection whose stream state is no longer trustworthy.
func (c *Client) drop() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn, c.reader = nil, nil
	}
}

// Call sends method with params and decodes the reply into result, which
// may be nil. ctx's deadline bounds the round trip.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("rpc %s: encoding params: %w", method, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.connect(ctx); err != nil {
			return err
		}
	}
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		c.drop()
		return fmt.Errorf("rpc %s: %w", method, err)
	}

	c.nextID++
	req := Request{Method: method, ID: strconv.FormatInt(c.nextID, 10), Params: body}
	resp, err := c.roundTrip(req)
	if err != nil {
		c.drop()
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	if resp.Error != "" {
		if sentinel, ok := codeErrors[resp.Code]; ok {
			return fmt.Errorf("rpc %s: %w: %s", method, sentinel, resp.Error)
		}
		return fmt.Errorf("rpc %s: %s", method, resp.Error)
	}
	if result != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, result); err != nil {
			return fmt.Errorf("rpc %s: decoding result: %w", method, err)
		}
	}
	return nil
}

// roundTrip writes one request line and reads one response line.
func (c *Client) roundTrip(req Request) (Response, error) {
	line, err := json.Marshal(req)
	if err != nil {
		return Response{}, err
	}
	if _, err := c.conn.Write(append(line, '\n')); err != nil {
		return Response{}, fmt.Errorf("writing request: %w", err)
	}
	reply, err := c.reader.ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("reading response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(reply, &resp); err != nil {
		return Response{}, fmt.Errorf("decoding response: %w", err)
	}
	if resp.ID != req.ID {
		return Response{}, fmt.Errorf("response id %q for request %q", resp.ID, req.ID)
	}
	return resp, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.reader = nil, nil
	return err
}
