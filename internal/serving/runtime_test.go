package serving

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"mcpstack/internal/api"
	"mcpstack/internal/config"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func pingAction(name string) api.Action {
	return api.Action{
		Definition: mcp.NewTool(name, mcp.WithDescription("replies pong")),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong from " + name), nil
		},
	}
}

func TestRegisterAction(t *testing.T) {
	rt := New(Config{})

	require.NoError(t, rt.RegisterAction(pingAction("a")))
	require.NoError(t, rt.RegisterAction(pingAction("b")))
	assert.Equal(t, []string{"a", "b"}, rt.Actions())
	assert.NotNil(t, rt.MCPServer().GetTool("a"))

	assert.ErrorContains(t, rt.RegisterAction(pingAction("a")), "already registered")
	assert.Error(t, rt.RegisterAction(api.Action{Definition: mcp.NewTool("no_handler")}))
	assert.Error(t, rt.RegisterAction(api.Action{}))
}

func TestFactory(t *testing.T) {
	rt, err := Factory(Config{Transport: config.TransportSSE})()
	require.NoError(t, err)
	assert.NotNil(t, rt)

	_, err = Factory(Config{Transport: "carrier-pigeon"})()
	assert.ErrorContains(t, err, "unsupported transport")
}

func TestServe_Stdio(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"ping","arguments":{}}}`,
		"",
	}, "\n")
	out := &syncBuffer{}

	rt := New(Config{Stdin: strings.NewReader(input), Stdout: out})
	require.NoError(t, rt.RegisterAction(pingAction("ping")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rt.Serve(ctx))

	assert.Contains(t, out.String(), "pong from ping")
}

func TestServe_StreamableHTTPStopsOnCancel(t *testing.T) {
	rt := New(Config{Transport: config.TransportStreamableHTTP, Host: "127.0.0.1", Port: 0})
	require.NoError(t, rt.RegisterAction(pingAction("ping")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Serve(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestServe_UnsupportedTransport(t *testing.T) {
	rt := New(Config{Transport: "carrier-pigeon"})
	assert.ErrorContains(t, rt.Serve(context.Background()), "unsupported transport")
}

func TestServe_NoneTransportReturnsImmediately(t *testing.T) {
	rt, err := Factory(Config{Transport: TransportNone})()
	require.NoError(t, err)
	require.NoError(t, rt.RegisterAction(pingAction("a")))

	done := make(chan error, 1)
	go func() { done <- rt.Serve(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve blocked with the none transport")
	}
}
