package devserver

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/mono/internal/chat"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger.Discard()
	s := New()
	s.now = func() time.Time { return time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC) }
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestChatEcho(t *testing.T) {
	srv := newTestServer(t)
	s := chat.NewSession(srv.URL+"/api/chat", chat.SystemMessage(time.Now()), chat.Options{})

	reply, err := s.Submit(context.Background(), "hello there friend")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if reply.Content != "You said: hello there friend" {
		t.Errorf("reply = %q", reply.Content)
	}
}

func TestChatToolCall(t *testing.T) {
	srv := newTestServer(t)
	s := chat.NewSession(srv.URL+"/api/chat", chat.SystemMessage(time.Now()), chat.Options{})

	reply, err := s.Submit(context.Background(), "/time")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(reply.ToolInvocations) != 1 || reply.ToolInvocations[0].State != models.ToolStateResult {
		t.Fatalf("tool invocations = %+v", reply.ToolInvocations)
	}
	if !strings.Contains(reply.Content, "2026-06-01T08:00:00Z") {
		t.Errorf("reply = %q", reply.Content)
	}
}

func TestChallengesAndCompletion(t *testing.T) {
	srv := newTestServer(t)
	c := chat.NewClient(srv.URL+"/api/challenges", srv.URL+"/api/completion", chat.Options{})

	days, err := c.Generate(context.Background(), "drawing")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(days) != 30 || days[0].Title != "drawing, day 1" {
		t.Errorf("Generate() = %d days, first %+v", len(days), days[0])
	}

	text, err := c.Complete(context.Background(), "ping")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "Echo: ping" {
		t.Errorf("Complete() = %q", text)
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/chat", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("preflight status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "GET, POST, PUT, DELETE, OPTIONS" {
		t.Errorf("Allow-Methods = %q", got)
	}
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path string
		body string
	}{
		{"/api/chat", `{`},
		{"/api/chat", `{"messages":[]}`},
		{"/api/challenges", `{"prompt":"  "}`},
		{"/api/completion", `not json`},
	}
	for _, tt := range tests {
		resp, err := http.Post(srv.URL+tt.path, "application/json", strings.NewReader(tt.body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s %s status = %d, want 400", tt.path, tt.body, resp.StatusCode)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	logger.Discard()
	ctx, cancel := context.WithCancel(context.Background())
	addrs := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- New().Run(ctx, "127.0.0.1:0", func(a net.Addr) { addrs <- a })
	}()

	addr := <-addrs
	resp, err := http.Get("http://" + addr.String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
