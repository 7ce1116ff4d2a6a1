package bot

import (
	"context"
	"fmt"
	"sync"
)

// SentMessage records one outbound call made against the MockAdapter.
type SentMessage struct {
	ChatID         string
	Text           string
	ContactRequest bool
	DocumentName   string
	Document       []byte
	Voice          []byte
}

// MockAdapter implements Adapter for testing. It records every outbound call
// and can be configured to fail.
type MockAdapter struct {
	mu   sync.Mutex
	sent []SentMessage
	fail bool
}

// NewMockAdapter creates an empty MockAdapter.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

// SetFail makes all subsequent sends return an error.
func (m *MockAdapter) SetFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

// Sent returns a copy of all recorded outbound messages.
func (m *MockAdapter) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastText returns the text of the most recent send, or "" if none.
func (m *MockAdapter) LastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

func (m *MockAdapter) record(msg SentMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("mock adapter: send failed")
	}
	m.sent = append(m.sent, msg)
	return nil
}

// SendText records a plain text send.
func (m *MockAdapter) SendText(ctx context.Context, chatID, text string) error {
	return m.record(SentMessage{ChatID: chatID, Text: text})
}

// SendContactRequest records a contact-request send.
func (m *MockAdapter) SendContactRequest(ctx context.Context, chatID, text string) error {
	return m.record(SentMessage{ChatID: chatID, Text: text, ContactRequest: true})
}

// SendDocument records a document send.
func (m *MockAdapter) SendDocument(ctx context.Context, chatID, name string, data []byte) error {
	return m.record(SentMessage{ChatID: chatID, DocumentName: name, Document: data})
}

// SendVoice records a voice send.
func (m *MockAdapter) SendVoice(ctx context.Context, chatID string, data []byte) error {
	return m.record(SentMessage{ChatID: chatID, Voice: data})
}
