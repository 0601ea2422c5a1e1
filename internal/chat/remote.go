package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/julianstephens/mono/internal/models"
)

// Client calls the one-shot endpoints: challenge generation and text completion.
type Client struct {
	http          *resty.Client
	challengesURL string
	completionURL string
}

func NewClient(challengesURL, completionURL string, opts Options) *Client {
	return &Client{
		http:          newHTTP(opts),
		challengesURL: challengesURL,
		completionURL: completionURL,
	}
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

func (c *Client) post(ctx context.Context, url, prompt string) (io.ReadCloser, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&promptRequest{Prompt: prompt}).
		SetDoNotParseResponse(true).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	body := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(body, 1024))
		body.Close()
		return nil, fmt.Errorf("request %s failed with status %d: %s", url, resp.StatusCode(), strings.TrimSpace(string(msg)))
	}
	return body, nil
}

// Generate asks for a 30-day challenge about prompt. The endpoint streams
// the JSON array as plain text chunks; the concatenation is the document.
func (c *Client) Generate(ctx context.Context, prompt string) ([]models.ChallengeDay, error) {
	body, err := c.post(ctx, c.challengesURL, prompt)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read challenge stream: %w", err)
	}
	days, err := decodeChallengeDays(raw)
	if err != nil {
		return nil, err
	}
	return models.NormalizeDays(days)
}

func decodeChallengeDays(raw []byte) ([]models.ChallengeDay, error) {
	raw = bytes.TrimSpace(raw)
	var days []models.ChallengeDay
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Elements []models.ChallengeDay `json:"elements"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode challenge: %w", err)
		}
		days = wrapped.Elements
	} else if err := json.Unmarshal(raw, &days); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	for i := range days {
		days[i].Memo = ""
		days[i].Sticker = ""
	}
	return days, nil
}

// Complete sends a single prompt and returns the streamed answer text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := c.post(ctx, c.completionURL, prompt)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var b strings.Builder
	err = ReadStream(body, func(p Part) error {
		switch p.Type {
		case PartText:
			b.WriteString(p.Text)
		case PartError:
			return &StreamError{Message: p.Text}
		}
		return nil
	})
	return b.String(), err
}
