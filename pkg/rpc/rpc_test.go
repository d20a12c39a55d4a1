package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
)

type echoRequest struct {
	Text string `json:"text"`
}

type echoResponse struct {
	Upper string `json:"upper"`
}

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	s := NewServer(time.Second)
	s.Register("Echo.Upper", func(ctx context.Context, req json.RawMessage) (any, error) {
		var in echoRequest
		if err := Decode(req, &in); err != nil {
			return nil, err
		}
		return echoResponse{Upper: strings.ToUpper(in.Text)}, nil
	})
	s.Register("Echo.Fail", func(context.Context, json.RawMessage) (any, error) {
		return nil, errors.New("backend exploded")
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.ServeListener(ln)
	t.Cleanup(s.Stop)
	return s, ln.Addr().String()
}

func TestCallRoundTrip(t *testing.T) {
	s, addr := startServer(t)
	assert.Equal(t, 2, s.MethodCount())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	for _, text := range []string{"hello", "naïve"} {
		var out echoResponse
		require.NoError(t, c.Call(ctx, "Echo.Upper", echoRequest{Text: text}, &out))
		assert.Equal(t, strings.ToUpper(text), out.Upper)
	}
}

func TestCallErrors(t *testing.T) {
	_, addr := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	err = c.Call(ctx, "Echo.Missing", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown method")

	err = c.Call(ctx, "Echo.Upper", map[string]any{"text": 42}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	err = c.Call(ctx, "Echo.Fail", nil, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "backend exploded")
}

func TestDecode(t *testing.T) {
	var in echoRequest
	assert.ErrorIs(t, Decode(nil, &in), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, Decode(json.RawMessage(`{"text":[1]}`), &in), apperrors.ErrInvalidInput)
	require.NoError(t, Decode(json.RawMessage(`{"text":"ok"}`), &in))
	assert.Equal(t, "ok", in.Text)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, CodeInvalidInput, errorCode(apperrors.ErrInputTooLong))
	assert.Equal(t, CodeTimeout, errorCode(context.DeadlineExceeded))
	assert.Equal(t, CodeInternal, errorCode(errors.New("x")))
}

func TestServerAnswersMalformedLine(t *testing.T) {
	_, addr := startServer(t)
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	_, err = conn.Write([]byte("{not json}\n" + `{"method":"Echo.Upper","id":"7","params":{"text":"ok"}}` + "\n"))
	require.NoError(t, err)

	dec := json.NewDecoder(conn)
	var bad, good Response
	require.NoError(t, dec.Decode(&bad))
	assert.Equal(t, CodeInvalidInput, bad.Code)
	require.NoError(t, dec.Decode(&good))
	assert.Equal(t, "7", good.ID)
	assert.JSONEq(t, `{"upper":"OK"}`, string(good.Data))
}

func TestServerRecoversHandlerPanic(t *testing.T) {
	s, addr := startServer(t)
	s.Register("Echo.Panic", func(context.Context, json.RawMessage) (any, error) {
		panic("unexpected")
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	err = c.Call(ctx, "Echo.Panic", nil, nil)
	assert.ErrorContains(t, err, "internal error")

	var out echoResponse
	require.NoError(t, c.Call(ctx, "Echo.Upper", echoRequest{Text: "still up"}, &out))
	assert.Equal(t, "STILL UP", out.Upper)
}

func TestClientRedialsAfterServerRestart(t *testing.T) {
	s, addr := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr)
	require.NoError(t, err)
	defer c.Close()
	s.Stop()

	assert.Error(t, c.Call(ctx, "Echo.Upper", echoRequest{Text: "x"}, nil))

	s2 := NewServer(time.Second)
	s2.Register("Echo.Upper", func(context.Context, json.RawMessage) (any, error) {
		return echoResponse{Upper: "BACK"}, nil
	})
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		t.Skipf("cannot rebind %s: %v", addr, err)
	}
	go s2.ServeListener(ln)
	defer s2.Stop()

	var out echoResponse
	require.NoError(t, c.Call(ctx, "Echo.Upper", echoRequest{Text: "x"}, &out))
	assert.Equal(t, "BACK", out.Upper)
}
