package models

import "encoding/json"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ToolInvocationState string

const (
	ToolStateCall   ToolInvocationState = "call"
	ToolStateResult ToolInvocationState = "result"
)

// ToolInvocation is a tool call the assistant made while answering,
// with its result once the stream delivers it.
type ToolInvocation struct {
	ToolCallID string              `json:"toolCallId"`
	ToolName   string              `json:"toolName"`
	Args       json.RawMessage     `json:"args,omitempty"`
	Result     json.RawMessage     `json:"result,omitempty"`
	State      ToolInvocationState `json:"state"`
}

// Message is one entry of a chat transcript. Never persisted.
type Message struct {
	ID              string           `json:"id"`
	Role            Role             `json:"role"`
	Content         string           `json:"content"`
	ToolInvocations []ToolInvocation `json:"toolInvocations,omitempty"`
}
