// Package rpc provides a lightweight JSON-over-TCP RPC framework for
// internal callers of the scoring engine, such as a transcription worker
// that wants scores without going through the public HTTP API.
//
// Protocol: newline-delimited JSON over a persistent TCP connection. Each
// Request carries a method name in "Service.Method" form and an opaque ID
// echoed on the Response. Requests on one connection are answered in order.
//
// Example server:
//
//	s := rpc.NewServer(5 * time.Second)
//	s.Register("Engine.Score", func(ctx context.Context, req json.RawMessage) (any, error) {
//	    var in proto.ScoreRequest
//	    if err := rpc.Decode(req, &in); err != nil {
//	        return nil, err
//	    }
//	    return &proto.ScoreResponse{Score: align.Score(in.Target, in.Candidate)}, nil
//	})
//	s.Serve(":9091")
package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
)

// Error codes carried on the wire so clients can restore sentinel errors.
const (
	CodeInvalidInput  = "invalid_input"
	CodeUnknownMethod = "unknown_method"
	CodeTimeout       = "timeout"
	CodeInternal      = "internal"
)

// HandlerFunc processes an RPC request and returns a response or error.
type HandlerFunc func(ctx context.Context, req json.RawMessage) (any, error)

// Request is the wire format for an RPC request.
type Request struct {
	Method string          `json:"method"`
	ID     string          `json:"id"`
	Params json.RawMessage `json:"params"`
}

// Response is the wire format for an RPC response.
type Response struct {
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// maxRequestBytes caps one request line.
const maxRequestBytes = 1 << 20

// Server answers newline-delimited JSON requests on TCP connections.
type Server struct {
	timeout time.Duration
	logger  *slog.Logger

	// base is cancelled by Stop so in-flight handlers see shutdown.
	base   context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	listener net.Listener
	conns    map[net.Conn]struct{}

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewServer creates a Server. timeout bounds each handler call; zero
// leaves calls unbounded.
func NewServer(timeout time.Duration) *Server {
	base, cancel := context.WithCancel(context.Background())
	return &Server{
		timeout:  timeout,
		logger:   slog.Default().With("component", "rpc-server"),
		base:     base,
		cancel:   cancel,
		handlers: make(map[string]HandlerFunc),
		conns:    make(map[net.Conn]struct{}),
	}
}

// Register binds method to handler, replacing any earlier binding.
func (s *Server) Register(method string, handler HandlerFunc) {
	s.mu.Lock()
	s.handlers[method] = handler
	s.mu.Unlock()
}

// Serve listens on addr and blocks until Stop.
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc listen %s: %w", addr, err)
	}
	return s.ServeListener(ln)
}

// ServeListener accepts connections on ln and blocks until Stop.
func (s *Server) ServeListener(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("rpc server listening", "addr", ln.Addr().String(), "methods", s.MethodCount())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.base.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		if !s.track(conn) {
			_ = conn.Close()
			return nil
		}
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

// track records conn unless the server is already stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base.Err() != nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	lines := bufio.NewScanner(conn)
	lines.Buffer(make([]byte, 0, 4096), maxRequestBytes)
	out := bufio.NewWriter(conn)
	enc := json.NewEncoder(out)

	for lines.Scan() {
		if len(lines.Bytes()) == 0 {
			continue
		}
		var resp Response
		var req Request
		if err := json.Unmarshal(lines.Bytes(), &req); err != nil {
			resp = Response{Error: "malformed request: " + err.Error(), Code: CodeInvalidInput}
		} else {
			resp = s.dispatch(req)
		}
		err := enc.Encode(resp)
		if err == nil {
			err = out.Flush()
		}
		if err != nil {
			s.logger.Debug("client gone", "remote", conn.RemoteAddr().String(), "error", err)
			return
		}
	}
	if err := lines.Err(); err != nil && s.base.Err() == nil {
		s.logger.Warn("connection closed", "remote", conn.RemoteAddr().String(), "error", err)
	}
}

func (s *Server) dispatch(req Request) (resp Response) {
	resp.ID = req.ID

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()
	if !ok {
		resp.Error, resp.Code = "unknown method: "+req.Method, CodeUnknownMethod
		return resp
	}

	ctx := s.base
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("handler panicked", "method", req.Method, "panic", p)
			resp = Response{ID: req.ID, Error: "internal error", Code: CodeInternal}
		}
	}()

	data, err := handler(ctx, req.Params)
	if err != nil {
		resp.Error, resp.Code = err.Error(), errorCode(err)
		if resp.Code == CodeInternal {
			s.logger.Error("handler failed", "method", req.Method, "error", err)
		}
		return resp
	}
	if resp.Data, err = json.Marshal(data); err != nil {
		resp.Data = nil
		resp.Error, resp.Code = "encoding response", CodeInternal
	}
	return resp
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrInputTooLong):
		return CodeInvalidInput
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, apperrors.ErrTimeout):
		return CodeTimeout
	default:
		return CodeInternal
	}
}

// Decode unmarshals params into v, reporting malformed or wrongly typed
// input as ErrInvalidInput.
func Decode(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: missing params", apperrors.ErrInvalidInput)
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}

// MethodCount returns the number of registered methods.
func (s *Server) MethodCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// Stop cancels in-flight calls, closes the listener and every connection,
// and waits for connection goroutines to finish.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.cancel()
		if s.listener != nil {
			_ = s.listener.Close()
		}
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
		s.logger.Info("rpc server stopped")
	})
}
