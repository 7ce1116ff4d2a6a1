// Package bot bridges the maintenance workflow to chat platforms. Telegram is
// the production adapter; MockAdapter serves the tests.
package bot

import "context"

// Adapter is the interface that platform-specific implementations must
// satisfy. Chat IDs are platform-native identifiers rendered as strings.
type Adapter interface {
	// SendText delivers a plain text message to a chat.
	SendText(ctx context.Context, chatID, text string) error

	// SendContactRequest delivers a text message together with a button
	// prompting the recipient to share their phone contact.
	SendContactRequest(ctx context.Context, chatID, text string) error

	// SendDocument delivers a file attachment with the given name.
	SendDocument(ctx context.Context, chatID, name string, data []byte) error

	// SendVoice delivers an audio clip playable inline in the chat.
	SendVoice(ctx context.Context, chatID string, data []byte) error
}

// Contact is phone contact data shared by a chat participant.
type Contact struct {
	PhoneNumber string
	FirstName   string
}

// Inbound is a platform-neutral view of one incoming chat message.
type Inbound struct {
	ChatID  string
	Text    string
	Contact *Contact // non-nil when the message carries a shared contact
}
