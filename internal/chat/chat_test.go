package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
)

func init() {
	logger.Discard()
}

var testSystem = SystemMessage(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))

func TestSystemMessage(t *testing.T) {
	if testSystem.ID != SystemMessageID || testSystem.Role != models.RoleSystem {
		t.Errorf("SystemMessage() = %+v", testSystem)
	}
	if !strings.Contains(testSystem.Content, "Current Local Time: 2026/1/1 12:00:00") {
		t.Errorf("system prompt missing local time: %q", testSystem.Content)
	}
}

func TestTranscriptReset(t *testing.T) {
	for _, n := range []int{0, 1, 7} {
		tr := NewTranscript(testSystem)
		for i := 0; i < n; i++ {
			tr.append(models.RoleUser, fmt.Sprintf("msg %d", i))
			tr.append(models.RoleAssistant, "ok")
		}
		tr.Reset()

		msgs := tr.Messages()
		if len(msgs) != 1 || msgs[0].ID != SystemMessageID || msgs[0].Content != testSystem.Content {
			t.Errorf("after %d exchanges Reset() left %+v", n, msgs)
		}
	}
}

func TestTranscriptMessagesIsCopy(t *testing.T) {
	tr := NewTranscript(testSystem)
	msgs := tr.Messages()
	msgs[0].Content = "changed"
	if tr.Messages()[0].Content == "changed" {
		t.Error("Messages() exposed internal state")
	}
}

func TestReadStream(t *testing.T) {
	input := strings.Join([]string{
		`f:{"messageId":"m1"}`,
		`0:"Hel"`,
		``,
		`2:[{"ignored":true}]`,
		`0:"lo"`,
		`9:{"toolCallId":"c1","toolName":"webSearch","args":{"query":"go"}}`,
		`a:{"toolCallId":"c1","result":"found"}`,
		`e:{"finishReason":"tool-calls"}`,
		`d:{"finishReason":"stop"}`,
	}, "\n")

	var parts []Part
	if err := ReadStream(strings.NewReader(input), func(p Part) error {
		parts = append(parts, p)
		return nil
	}); err != nil {
		t.Fatalf("ReadStream() error = %v", err)
	}

	var types []string
	for _, p := range parts {
		types = append(types, string(p.Type))
	}
	if got := strings.Join(types, ""); got != "f009aed" {
		t.Errorf("part types = %q, want f009aed", got)
	}
	if parts[1].Text != "Hel" || parts[3].ToolName != "webSearch" || string(parts[4].Result) != `"found"` {
		t.Errorf("unexpected parts: %+v", parts)
	}
	if parts[6].FinishReason != "stop" {
		t.Errorf("FinishReason = %q", parts[6].FinishReason)
	}
}

func TestReadStreamMalformed(t *testing.T) {
	for _, input := range []string{"hello", `0:not-json`} {
		err := ReadStream(strings.NewReader(input), func(Part) error { return nil })
		if err == nil {
			t.Errorf("ReadStream(%q) succeeded", input)
		}
	}
}

func TestWriteThenRead(t *testing.T) {
	var b strings.Builder
	WriteText(&b, "hi \"there\"\n")
	WriteToolCall(&b, "c1", "lookup", map[string]string{"q": "x"})
	WriteToolResult(&b, "c1", 42)
	WriteFinish(&b, "stop")

	var text string
	var result string
	ReadStream(strings.NewReader(b.String()), func(p Part) error {
		switch p.Type {
		case PartText:
			text += p.Text
		case PartToolResult:
			result = string(p.Result)
		}
		return nil
	})
	if text != "hi \"there\"\n" || result != "42" {
		t.Errorf("round trip text %q result %q", text, result)
	}
}

type recorder struct {
	mu       sync.Mutex
	statuses []Status
	ch       chan Status
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Status, 32)}
}

func (r *recorder) hook(s Status) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
	r.ch <- s
}

func (r *recorder) waitFor(t *testing.T, want Status) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if s == want {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for status %s", want)
		}
	}
}

func TestSubmitStreamsReply(t *testing.T) {
	type captured struct {
		auth string
		body chatRequest
	}
	requests := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c captured
		c.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&c.body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		requests <- c
		WriteText(w, "Hel")
		WriteToolCall(w, "c1", "webSearch", map[string]string{"query": "weather"})
		WriteToolResult(w, "c1", "sunny")
		WriteText(w, "lo")
		WriteFinish(w, "stop")
	}))
	defer srv.Close()

	s := NewSession(srv.URL, testSystem, Options{Token: "secret"})
	rec := newRecorder()
	s.OnStatus = rec.hook
	var finished models.Message
	s.OnFinish = func(m models.Message) { finished = m }

	reply, err := s.Submit(context.Background(), "  what's the weather?  ")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	req := <-requests
	if req.auth != "Bearer secret" {
		t.Errorf("Authorization = %q", req.auth)
	}
	got := req.body
	if len(got.Messages) != 2 || got.Messages[0].Role != models.RoleSystem || got.Messages[1].Content != "what's the weather?" {
		t.Errorf("request messages = %+v", got.Messages)
	}

	if reply.Role != models.RoleAssistant || reply.Content != "Hello" {
		t.Errorf("reply = %+v", reply)
	}
	if len(reply.ToolInvocations) != 1 || reply.ToolInvocations[0].State != models.ToolStateResult || string(reply.ToolInvocations[0].Result) != `"sunny"` {
		t.Errorf("tool invocations = %+v", reply.ToolInvocations)
	}
	if finished.ID != reply.ID {
		t.Error("OnFinish not called with the reply")
	}

	want := []Status{StatusSubmitted, StatusStreaming, StatusReady}
	if fmt.Sprint(rec.statuses) != fmt.Sprint(want) {
		t.Errorf("statuses = %v, want %v", rec.statuses, want)
	}

	msgs := s.Messages()
	if len(msgs) != 3 || msgs[2].ID != reply.ID {
		t.Errorf("transcript = %+v", msgs)
	}

	s.Reset()
	if s.Transcript().Len() != 1 {
		t.Errorf("Len() after Reset = %d", s.Transcript().Len())
	}
}

func TestSubmitRejectsBlank(t *testing.T) {
	s := NewSession("http://127.0.0.1:1", testSystem, Options{})
	if _, err := s.Submit(context.Background(), "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("Submit() error = %v, want ErrEmptyMessage", err)
	}
	if s.Transcript().Len() != 1 || s.Status() != StatusReady {
		t.Error("blank submit changed the session")
	}
}

func TestSubmitWhileBusy(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteText(w, "thinking")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
		WriteFinish(w, "stop")
	}))
	defer srv.Close()

	s := NewSession(srv.URL, testSystem, Options{})
	rec := newRecorder()
	s.OnStatus = rec.hook

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "first")
		done <- err
	}()

	rec.waitFor(t, StatusStreaming)
	if !s.Busy() {
		t.Error("Busy() = false while streaming")
	}
	if _, err := s.Submit(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("Submit() while streaming error = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if s.Status() != StatusReady {
		t.Errorf("Status() = %s, want ready", s.Status())
	}
}

func TestSubmitServerFailure(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "model overloaded", http.StatusServiceUnavailable)
			return
		}
		WriteText(w, "ok")
		WriteFinish(w, "stop")
	}))
	defer srv.Close()

	s := NewSession(srv.URL, testSystem, Options{})
	_, err := s.Submit(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("Submit() error = %v, want status 503", err)
	}
	if s.Status() != StatusError || s.Err() == nil {
		t.Errorf("Status() = %s Err() = %v", s.Status(), s.Err())
	}

	fail.Store(false)
	reply, err := s.Submit(context.Background(), "hello again")
	if err != nil {
		t.Fatalf("resend error = %v", err)
	}
	if reply.Content != "ok" || s.Status() != StatusReady || s.Err() != nil {
		t.Errorf("after resend reply %q status %s err %v", reply.Content, s.Status(), s.Err())
	}
}

func TestSubmitStreamErrorPart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteText(w, "partial")
		WriteError(w, "quota exceeded")
	}))
	defer srv.Close()

	s := NewSession(srv.URL, testSystem, Options{})
	reply, err := s.Submit(context.Background(), "hello")

	var se *StreamError
	if !errors.As(err, &se) || se.Message != "quota exceeded" {
		t.Fatalf("Submit() error = %v, want StreamError", err)
	}
	if reply.Content != "partial" {
		t.Errorf("partial reply = %q", reply.Content)
	}
	if s.Status() != StatusError {
		t.Errorf("Status() = %s", s.Status())
	}
}

func TestResetDropsLateReply(t *testing.T) {
	tests := []struct {
		name string
		// early writes a part before the reset.
		early bool
	}{
		{name: "before first part"},
		{name: "mid stream", early: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arrived := make(chan struct{})
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.early {
					WriteText(w, "thinking")
				}
				w.(http.Flusher).Flush()
				close(arrived)
				<-release
				WriteText(w, "hi")
				WriteFinish(w, "stop")
			}))
			defer srv.Close()

			s := NewSession(srv.URL, testSystem, Options{})
			rec := newRecorder()
			s.OnStatus = rec.hook

			done := make(chan error, 1)
			go func() {
				_, err := s.Submit(context.Background(), "hello")
				done <- err
			}()

			<-arrived
			if tt.early {
				rec.waitFor(t, StatusStreaming)
			}
			s.Reset()
			close(release)

			if err := <-done; !errors.Is(err, ErrReset) {
				t.Errorf("Submit() error = %v, want ErrReset", err)
			}
			if n := s.Transcript().Len(); n != 1 {
				t.Errorf("Len() after reset = %d, want 1: %+v", n, s.Messages())
			}
			if s.Status() != StatusReady {
				t.Errorf("Status() = %s, want ready", s.Status())
			}
		})
	}
}

func TestSubmitCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteText(w, "long answer")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	s := NewSession(srv.URL, testSystem, Options{})
	rec := newRecorder()
	s.OnStatus = rec.hook

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx, "tell me a story")
		done <- err
	}()

	rec.waitFor(t, StatusStreaming)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Submit() error = %v, want context.Canceled", err)
	}
	if s.Status() != StatusError {
		t.Errorf("Status() = %s, want error", s.Status())
	}
}

func challengeJSON(n int, reversed bool) string {
	var items []string
	for i := 1; i <= n; i++ {
		day := i
		if reversed {
			day = n - i + 1
		}
		items = append(items, fmt.Sprintf(`{"day":%d,"title":"Day %d","description":"Do thing %d"}`, day, day, day))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func TestGenerate(t *testing.T) {
	prompts := make(chan promptRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p promptRequest
		json.NewDecoder(r.Body).Decode(&p)
		prompts <- p
		doc := challengeJSON(30, true)
		// Stream in uneven chunks.
		for len(doc) > 0 {
			n := 37
			if n > len(doc) {
				n = len(doc)
			}
			w.Write([]byte(doc[:n]))
			w.(http.Flusher).Flush()
			doc = doc[n:]
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, Options{})
	days, err := c.Generate(context.Background(), " learn guitar ")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if p := <-prompts; p.Prompt != "learn guitar" {
		t.Errorf("prompt = %q", p.Prompt)
	}
	if len(days) != 30 || days[0].Day != 1 || days[29].Title != "Day 30" {
		t.Errorf("Generate() days = %d, first %+v", len(days), days[0])
	}
}

func TestGenerateRejectsShortPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(challengeJSON(12, false)))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, Options{})
	if _, err := c.Generate(context.Background(), "x"); err == nil {
		t.Error("Generate() accepted a 12-day plan")
	}
	if _, err := c.Generate(context.Background(), "  "); err == nil {
		t.Error("Generate() accepted a blank prompt")
	}
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteText(w, "Paris ")
		WriteText(w, "is the capital.")
		WriteFinish(w, "stop")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, Options{})
	got, err := c.Complete(context.Background(), "capital of France?")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "Paris is the capital." {
		t.Errorf("Complete() = %q", got)
	}
}
