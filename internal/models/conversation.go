package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Conversation states for the auxiliary-person registration flow. Each state
// names the field consumed from the next free-text message.
const (
	StateCollectName  = "collect_name"
	StateCollectEmail = "collect_email"
	StateCollectPhone = "collect_phone"
	StateCollectRole  = "collect_role"
)

// Conversation is the durable per-chat state row for multi-step flows. The
// row exists only while a flow is in progress and is deleted on completion
// or reset.
type Conversation struct {
	ChatID string `gorm:"primaryKey;size:32"`
	State  string `gorm:"size:32;not null"`
	Draft  string `gorm:"type:text"`

	UpdatedAt time.Time
}

// PersonDraft is the scratch data accumulated across registration states.
// It is stored serialized in Conversation.Draft so fields outside the
// current phase never leak into the schema.
type PersonDraft struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Celular string `json:"celular,omitempty"`
}

// SetDraft serializes the scratch data into the Draft column.
func (c *Conversation) SetDraft(d PersonDraft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("models: encode conversation draft: %w", err)
	}
	c.Draft = string(data)
	return nil
}

// DraftData deserializes the Draft column. An empty column yields a zero
// draft rather than an error.
func (c *Conversation) DraftData() (PersonDraft, error) {
	var d PersonDraft
	if c.Draft == "" {
		return d, nil
	}
	if err := json.Unmarshal([]byte(c.Draft), &d); err != nil {
		return PersonDraft{}, fmt.Errorf("models: decode conversation draft: %w", err)
	}
	return d, nil
}
