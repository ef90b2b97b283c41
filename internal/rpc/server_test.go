package rpc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	s := NewServer(zerolog.Nop())
	s.Register(ToolSpec{
		Name:        "echo",
		Description: "echoes its input",
		InputSchema: schema(map[string]string{"text": "string"}, "text"),
		Handler: func(params json.RawMessage) (any, error) {
			var args struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(params, &args); err != nil {
				return nil, err
			}
			return args.Text, nil
		},
	})
	return s
}

func serveOne(t *testing.T, s *Server, line string) map[string]any {
	t.Helper()
	var out bytes.Buffer
	err := s.Serve(bytes.NewBufferString(line+"\n"), &out)
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	return resp
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	s := newTestServer()
	resp := serveOne(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	require.Nil(t, resp["error"])
	result := resp["result"].(map[string]any)
	require.Contains(t, result, "capabilities")
}

func TestToolsListIncludesRegisteredTool(t *testing.T) {
	s := newTestServer()
	resp := serveOne(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	result := resp["result"].(map[string]any)
	tools := result["tools"].([]any)
	require.Len(t, tools, 1)
	require.Equal(t, "echo", tools[0].(map[string]any)["name"])
}

func TestToolsCallDispatchesToHandler(t *testing.T) {
	s := newTestServer()
	resp := serveOne(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`)
	require.Nil(t, resp["error"])
	require.Equal(t, "hi", resp["result"])
}

func TestToolsCallUnknownToolReturnsError(t *testing.T) {
	s := newTestServer()
	resp := serveOne(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)
	require.NotNil(t, resp["error"])
}

func TestMalformedLineReturnsParseError(t *testing.T) {
	s := newTestServer()
	resp := serveOne(t, s, `not json`)
	errObj := resp["error"].(map[string]any)
	require.Equal(t, float64(codeParseError), errObj["code"])
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	s := newTestServer()
	resp := serveOne(t, s, `{"jsonrpc":"2.0","id":1,"method":"bogus"}`)
	errObj := resp["error"].(map[string]any)
	require.Equal(t, float64(codeMethodNotFound), errObj["code"])
}
