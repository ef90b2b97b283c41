// Package rpc implements the agent tool surface (spec.md §6.3): a
// JSON-RPC 2.0 dispatcher over stdio exposing recall, remember,
// memory_list, memory_extract, remember_url, and forget, each mapping
// one-to-one to a CLI verb. No JSON-RPC library appears anywhere in the
// retrieval pack, so this surface is intentionally built on stdlib
// encoding/json plus a small dispatch table rather than an off-the-shelf
// dependency (see DESIGN.md).
package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

const jsonrpcVersion = "2.0"

// Error codes per the JSON-RPC 2.0 spec.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToolHandler executes one registered tool call against raw JSON
// arguments, returning the value to serialize as the RPC result.
type ToolHandler func(params json.RawMessage) (any, error)

// ToolSpec describes one tool for capability advertisement (tools/list).
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	Handler     ToolHandler    `json:"-"`
}

// Server dispatches JSON-RPC requests, one newline-delimited JSON object
// per line, read from and written to the streams passed to Serve.
type Server struct {
	tools  map[string]ToolSpec
	order  []string
	logger zerolog.Logger
}

func NewServer(logger zerolog.Logger) *Server {
	return &Server{tools: make(map[string]ToolSpec), logger: logger}
}

// Register adds a tool to the dispatch table and the tools/list listing.
func (s *Server) Register(spec ToolSpec) {
	if _, exists := s.tools[spec.Name]; !exists {
		s.order = append(s.order, spec.Name)
	}
	s.tools[spec.Name] = spec
}

// Serve reads requests from in until EOF, writing one response per
// request to out. A malformed line produces a parse-error response
// rather than terminating the loop — one bad line must not kill the
// session.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := s.handleLine(line)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("rpc: write response: %w", err)
		}
	}
	return scanner.Err()
}

func (s *Server) handleLine(line []byte) response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return response{JSONRPC: jsonrpcVersion, Error: &rpcError{Code: codeParseError, Message: "parse error"}}
	}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		return response{JSONRPC: jsonrpcVersion, ID: req.ID, Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}}
	}

	result, err := s.dispatch(req.Method, req.Params)
	if err != nil {
		code := codeInternalError
		if rpcErr, ok := err.(*dispatchError); ok {
			code = rpcErr.code
		}
		return response{JSONRPC: jsonrpcVersion, ID: req.ID, Error: &rpcError{Code: code, Message: err.Error()}}
	}
	return response{JSONRPC: jsonrpcVersion, ID: req.ID, Result: result}
}

type dispatchError struct {
	code int
	msg  string
}

func (e *dispatchError) Error() string { return e.msg }

func (s *Server) dispatch(method string, params json.RawMessage) (any, error) {
	switch method {
	case "initialize":
		return map[string]any{
			"protocolVersion": jsonrpcVersion,
			"serverInfo":      map[string]string{"name": "rlm", "version": "1"},
			"capabilities":    map[string]any{"tools": map[string]any{}},
		}, nil
	case "tools/list":
		return map[string]any{"tools": s.toolList()}, nil
	case "tools/call":
		return s.callTool(params)
	default:
		return nil, &dispatchError{code: codeMethodNotFound, msg: "method not found: " + method}
	}
}

func (s *Server) toolList() []ToolSpec {
	specs := make([]ToolSpec, 0, len(s.order))
	for _, name := range s.order {
		specs = append(specs, s.tools[name])
	}
	return specs
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) callTool(params json.RawMessage) (any, error) {
	var call toolCallParams
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &dispatchError{code: codeInvalidParams, msg: "invalid tool call params"}
	}
	spec, ok := s.tools[call.Name]
	if !ok {
		return nil, &dispatchError{code: codeMethodNotFound, msg: "unknown tool: " + call.Name}
	}
	result, err := spec.Handler(call.Arguments)
	if err != nil {
		s.logger.Warn().Err(err).Str("component", "rpc").Str("tool", call.Name).Msg("tool call failed")
		return nil, &dispatchError{code: codeInternalError, msg: err.Error()}
	}
	return result, nil
}
