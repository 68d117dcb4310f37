//go:build functional

// Package functional drives a real inventory server over TCP.
package functional

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/auth"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/config"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/server"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/store"
)

// EnvTestServerHost overrides the listen host.
const EnvTestServerHost = "TEST_SERVER_HOST"

const (
	defaultHost            = "127.0.0.1"
	defaultRequestTimeout  = 5 * time.Second
	defaultReadyTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// TestAPIKey is accepted by servers started WithAPIKey.
const TestAPIKey = "k-functional"

// TestServer runs server.Server on a free port.
type TestServer struct {
	Server  *server.Server
	Store   *store.MemoryStore
	BaseURL string
	WSURL   string
	t       *testing.T
}

// Option tweaks the server configuration before start.
type Option func(*config.Config, *auth.Authenticator)

// WithAPIKey guards mutations with TestAPIKey.
func WithAPIKey() Option {
	return func(_ *config.Config, a *auth.Authenticator) {
		ak, err := auth.NewAPIKeyAuthenticator(TestAPIKey + ":functional")
		if err != nil {
			panic(err)
		}
		*a = ak
	}
}

// WithExportDir enables server-side export into dir.
func WithExportDir(dir string) Option {
	return func(cfg *config.Config, _ *auth.Authenticator) {
		cfg.ExportDir = dir
	}
}

// StartTestServer starts a server and stops it when the test ends.
func StartTestServer(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	host := defaultHost
	if h := os.Getenv(EnvTestServerHost); h != "" {
		host = h
	}

	listener, err := net.Listen("tcp", host+":0")
	if err != nil {
		t.Fatalf("Failed to find available port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	cfg := &config.Config{
		ServerPort:      port,
		LogLevel:        "error",
		ShutdownTimeout: defaultShutdownTimeout,
		MetricsEnabled:  true,
		AuthMode:        auth.ModeNone,
	}
	var authenticator auth.Authenticator
	for _, opt := range opts {
		opt(cfg, &authenticator)
	}

	inventory := store.NewMemoryStore()
	ts := &TestServer{
		Server:  server.New(cfg, zap.NewNop(), inventory, authenticator),
		Store:   inventory,
		BaseURL: fmt.Sprintf("http://%s:%d", host, port),
		WSURL:   fmt.Sprintf("ws://%s:%d/ws", host, port),
		t:       t,
	}

	go func() {
		if err := ts.Server.Start(); err != nil {
			t.Logf("Server error: %v", err)
		}
	}()
	ts.waitForReady()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := ts.Server.Shutdown(ctx); err != nil {
			t.Logf("Server shutdown error: %v", err)
		}
	})

	return ts
}

func (ts *TestServer) waitForReady() {
	deadline := time.Now().Add(defaultReadyTimeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.BaseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	ts.t.Fatalf("Server did not become ready within %s", defaultReadyTimeout)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do sends body (JSON encoded unless it is a string) and reads the reply.
func (ts *TestServer) Do(method, path string, body any, headers map[string]string) *Response {
	ts.t.Helper()

	var reader io.Reader
	contentType := "application/json"
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
		contentType = "text/csv"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			ts.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, ts.BaseURL+path, reader)
	if err != nil {
		ts.t.Fatalf("new request: %v", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		ts.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		ts.t.Fatalf("read body: %v", err)
	}
	return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}
}

// envelope mirrors the JSON wrapper of every successful reply.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// Decode unwraps the envelope of resp into T.
func Decode[T any](t *testing.T, resp *Response) T {
	t.Helper()

	var env envelope[T]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		t.Fatalf("decode %s: %v", resp.Body, err)
	}
	if !env.Success {
		t.Fatalf("response not successful: %s", resp.Body)
	}
	return env.Data
}

// AssertStatusCode fails the test on an unexpected status.
func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("status = %d, want %d; body %s", resp.StatusCode, expected, resp.Body)
	}
}
