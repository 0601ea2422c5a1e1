package chat

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// PartType is the one-character prefix of a data stream line.
type PartType byte

const (
	PartText       PartType = '0'
	PartError      PartType = '3'
	PartToolCall   PartType = '9'
	PartToolResult PartType = 'a'
	PartFinishStep PartType = 'e'
	PartFinish     PartType = 'd'
	PartStartStep  PartType = 'f'
)

// Part is one decoded line of the data stream. Only the fields matching
// Type are set.
type Part struct {
	Type PartType

	Text string

	ToolCallID string
	ToolName   string
	Args       json.RawMessage
	Result     json.RawMessage

	FinishReason string
}

type toolCallPart struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	Args       json.RawMessage `json:"args"`
}

type toolResultPart struct {
	ToolCallID string          `json:"toolCallId"`
	Result     json.RawMessage `json:"result"`
}

type finishPart struct {
	FinishReason string `json:"finishReason"`
}

// maxLineSize bounds a single stream line; tool results can be large.
const maxLineSize = 4 << 20

// ReadStream decodes a data stream line by line and calls fn for each known
// part. Blank lines and unknown part types are skipped. It stops at the
// first error from the reader, the decoder, or fn.
func ReadStream(r io.Reader, fn func(Part) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		part, ok, err := decodeLine(line)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := fn(part); err != nil {
			return err
		}
	}
	return sc.Err()
}

func decodeLine(line []byte) (Part, bool, error) {
	if len(line) < 2 || line[1] != ':' {
		return Part{}, false, fmt.Errorf("malformed stream line %q", truncate(line))
	}
	p := Part{Type: PartType(line[0])}
	payload := line[2:]

	var err error
	switch p.Type {
	case PartText:
		err = json.Unmarshal(payload, &p.Text)
	case PartError:
		err = json.Unmarshal(payload, &p.Text)
	case PartToolCall:
		var tc toolCallPart
		err = json.Unmarshal(payload, &tc)
		p.ToolCallID, p.ToolName, p.Args = tc.ToolCallID, tc.ToolName, tc.Args
	case PartToolResult:
		var tr toolResultPart
		err = json.Unmarshal(payload, &tr)
		p.ToolCallID, p.Result = tr.ToolCallID, tr.Result
	case PartFinish, PartFinishStep:
		var f finishPart
		err = json.Unmarshal(payload, &f)
		p.FinishReason = f.FinishReason
	case PartStartStep:
	default:
		return Part{}, false, nil
	}
	if err != nil {
		return Part{}, false, fmt.Errorf("decode %q part: %w", string(p.Type), err)
	}
	return p, true, nil
}

func truncate(b []byte) string {
	if len(b) > 40 {
		return string(b[:40]) + "..."
	}
	return string(b)
}

// WriteText encodes a text delta line.
func WriteText(w io.Writer, text string) error {
	return writePart(w, PartText, text)
}

// WriteToolCall encodes a tool call line.
func WriteToolCall(w io.Writer, id, name string, args interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return writePart(w, PartToolCall, toolCallPart{ToolCallID: id, ToolName: name, Args: raw})
}

// WriteToolResult encodes a tool result line.
func WriteToolResult(w io.Writer, id string, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return writePart(w, PartToolResult, toolResultPart{ToolCallID: id, Result: raw})
}

// WriteError encodes an error line.
func WriteError(w io.Writer, msg string) error {
	return writePart(w, PartError, msg)
}

// WriteFinish encodes the final message line.
func WriteFinish(w io.Writer, reason string) error {
	return writePart(w, PartFinish, finishPart{FinishReason: reason})
}

func writePart(w io.Writer, t PartType, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%c:%s\n", t, raw)
	return err
}
