package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/models"
)

type Status string

const (
	StatusReady     Status = "ready"
	StatusSubmitted Status = "submitted"
	StatusStreaming Status = "streaming"
	StatusError     Status = "error"
)

var (
	// ErrBusy is returned by Submit while a request is in flight.
	ErrBusy = errors.New("a message is already being answered")
	// ErrEmptyMessage is returned by Submit for blank input.
	ErrEmptyMessage = errors.New("message cannot be empty")
	// ErrReset is returned by Submit when Reset cleared the conversation
	// before the reply finished.
	ErrReset = errors.New("conversation was reset")
)

// StreamError is an error the server reported inside the stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string { return "assistant error: " + e.Message }

// Options configures the HTTP side of a session or client.
type Options struct {
	// Token is sent as a bearer token when set.
	Token string
	// Timeout bounds a whole request including the stream. Zero means none.
	Timeout time.Duration
	// HTTPClient replaces the underlying transport client, mainly for tests.
	HTTPClient *http.Client
}

func newHTTP(opts Options) *resty.Client {
	var c *resty.Client
	if opts.HTTPClient != nil {
		c = resty.NewWithClient(opts.HTTPClient)
	} else {
		c = resty.New()
	}
	c.SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/plain").
		SetTimeout(opts.Timeout)
	if opts.Token != "" {
		c.SetAuthToken(opts.Token)
	}
	return c
}

type chatRequest struct {
	Messages []models.Message `json:"messages"`
}

// Session submits a transcript to the chat endpoint and streams the answer
// back into it.
type Session struct {
	http       *resty.Client
	url        string
	transcript *Transcript

	mu      sync.Mutex
	status  Status
	lastErr error

	// OnStatus is called after every status change.
	OnStatus func(Status)
	// OnFinish is called with the completed assistant message.
	OnFinish func(models.Message)
	// OnUpdate is called whenever the transcript changes during a stream.
	OnUpdate func()
}

// NewSession starts a session whose transcript begins with system.
func NewSession(url string, system models.Message, opts Options) *Session {
	return &Session{
		http:       newHTTP(opts),
		url:        url,
		transcript: NewTranscript(system),
		status:     StatusReady,
	}
}

func (s *Session) Transcript() *Transcript { return s.transcript }

func (s *Session) Messages() []models.Message { return s.transcript.Messages() }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error that put the session into StatusError.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Busy reports whether input should be disabled.
func (s *Session) Busy() bool {
	st := s.Status()
	return st == StatusSubmitted || st == StatusStreaming
}

// Reset truncates the transcript to the system message. A stream still in
// flight stops at its next part and none of its output reaches the new
// transcript.
func (s *Session) Reset() {
	s.transcript.Reset()
	s.notifyUpdate()
}

func (s *Session) setStatus(st Status, err error) {
	s.mu.Lock()
	s.status = st
	s.lastErr = err
	hook := s.OnStatus
	s.mu.Unlock()
	if hook != nil {
		hook(st)
	}
}

func (s *Session) notifyUpdate() {
	if s.OnUpdate != nil {
		s.OnUpdate()
	}
}

// Submit appends text as a user message, posts the transcript and streams
// the reply into a trailing assistant message, which it returns. On failure
// the session is left in StatusError until the next Submit.
func (s *Session) Submit(ctx context.Context, text string) (models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.status == StatusSubmitted || s.status == StatusStreaming {
		s.mu.Unlock()
		return models.Message{}, ErrBusy
	}
	s.status = StatusSubmitted
	s.lastErr = nil
	hook := s.OnStatus
	s.mu.Unlock()
	if hook != nil {
		hook(StatusSubmitted)
	}

	_, gen := s.transcript.append(models.RoleUser, text)
	s.notifyUpdate()

	reply, err := s.stream(ctx, gen)
	if errors.Is(err, ErrReset) {
		logger.Debug("Dropped reply to a reset conversation")
		s.setStatus(StatusReady, nil)
		return models.Message{}, err
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		logger.Warn("Chat request failed", "error", err)
		s.setStatus(StatusError, err)
		return reply, err
	}

	s.setStatus(StatusReady, nil)
	if s.OnFinish != nil {
		s.OnFinish(reply)
	}
	return reply, nil
}

func (s *Session) stream(ctx context.Context, gen uint64) (models.Message, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(&chatRequest{Messages: s.transcript.Messages()}).
		SetDoNotParseResponse(true).
		Post(s.url)
	if err != nil {
		return models.Message{}, fmt.Errorf("chat request: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(body, 1024))
		return models.Message{}, fmt.Errorf("chat request failed with status %d: %s", resp.StatusCode(), strings.TrimSpace(string(msg)))
	}

	var replyID string
	streaming := false
	// update applies fn to the reply, creating it on first use. It fails
	// with ErrReset once the transcript has moved past gen.
	update := func(fn func(*models.Message)) error {
		if replyID == "" {
			m, ok := s.transcript.appendIn(gen, models.RoleAssistant, "")
			if !ok {
				return ErrReset
			}
			replyID = m.ID
		}
		if !s.transcript.edit(gen, replyID, fn) {
			return ErrReset
		}
		return nil
	}

	err = ReadStream(body, func(p Part) error {
		if s.transcript.Generation() != gen {
			return ErrReset
		}
		if !streaming {
			streaming = true
			s.setStatus(StatusStreaming, nil)
		}
		var err error
		switch p.Type {
		case PartText:
			err = update(func(m *models.Message) { m.Content += p.Text })
		case PartToolCall:
			err = update(func(m *models.Message) {
				m.ToolInvocations = append(m.ToolInvocations, models.ToolInvocation{
					ToolCallID: p.ToolCallID,
					ToolName:   p.ToolName,
					Args:       p.Args,
					State:      models.ToolStateCall,
				})
			})
		case PartToolResult:
			err = update(func(m *models.Message) {
				for i := range m.ToolInvocations {
					if m.ToolInvocations[i].ToolCallID == p.ToolCallID {
						m.ToolInvocations[i].Result = p.Result
						m.ToolInvocations[i].State = models.ToolStateResult
					}
				}
			})
		case PartError:
			return &StreamError{Message: p.Text}
		default:
			return nil
		}
		if err != nil {
			return err
		}
		s.notifyUpdate()
		return nil
	})
	if err == nil && s.transcript.Generation() != gen {
		err = ErrReset
	}

	var reply models.Message
	if replyID != "" {
		reply, _ = s.transcript.get(replyID)
	}
	return reply, err
}
