// Package chat is the client side of the remote assistant: the in-memory
// transcript, the streaming session that fills it, and the challenge and
// completion calls.
package chat

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/mono/internal/constants"
	"github.com/julianstephens/mono/internal/models"
)

// SystemMessageID is the id of the fixed first message.
const SystemMessageID = "system"

// SystemMessage builds the fixed system prompt stamped with the local time.
func SystemMessage(now time.Time) models.Message {
	return models.Message{
		ID:      SystemMessageID,
		Role:    models.RoleSystem,
		Content: fmt.Sprintf(constants.SystemPrompt, now.Format("2006/1/2 15:04:05")),
	}
}

// Transcript is the ordered message list of one session. The first message
// is always the system message. It is safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	system   models.Message
	messages []models.Message
	// gen counts resets. Writes tagged with an older generation are dropped.
	gen uint64
}

func NewTranscript(system models.Message) *Transcript {
	return &Transcript{
		system:   system,
		messages: []models.Message{system},
	}
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []models.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = cloneMessage(m)
	}
	return out
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the final message.
func (t *Transcript) Last() models.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneMessage(t.messages[len(t.messages)-1])
}

// Reset truncates the transcript back to the system message.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.messages = []models.Message{t.system}
	t.gen++
	t.mu.Unlock()
}

// Generation identifies the transcript between two resets.
func (t *Transcript) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen
}

// append adds a message to the current generation and returns it with
// that generation.
func (t *Transcript) append(role models.Role, content string) (models.Message, uint64) {
	m := models.Message{ID: uuid.NewString(), Role: role, Content: content}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
	return m, t.gen
}

// appendIn adds a message only while the transcript is still at gen.
func (t *Transcript) appendIn(gen uint64, role models.Role, content string) (models.Message, bool) {
	m := models.Message{ID: uuid.NewString(), Role: role, Content: content}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return models.Message{}, false
	}
	t.messages = append(t.messages, m)
	return m, true
}

// edit applies fn to the message with id while the transcript is still at
// gen. It reports false when Reset ran in between.
func (t *Transcript) edit(gen uint64, id string, fn func(*models.Message)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return false
	}
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].ID == id {
			fn(&t.messages[i])
			return true
		}
	}
	return false
}

func (t *Transcript) get(id string) (models.Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.messages {
		if m.ID == id {
			return cloneMessage(m), true
		}
	}
	return models.Message{}, false
}

func cloneMessage(m models.Message) models.Message {
	if m.ToolInvocations != nil {
		inv := make([]models.ToolInvocation, len(m.ToolInvocations))
		copy(inv, m.ToolInvocations)
		for i := range inv {
			inv[i].Args = append(json.RawMessage(nil), inv[i].Args...)
			inv[i].Result = append(json.RawMessage(nil), inv[i].Result...)
		}
		m.ToolInvocations = inv
	}
	return m
}
