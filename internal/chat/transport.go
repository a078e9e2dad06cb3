// Package chat is the boundary to the messaging platform. The core only
// talks through Transport; delivery is never assumed, failures are the
// caller's to log and not retry.
package chat

import "context"

// Format selects message text formatting.
type Format string

const (
	FormatPlain    Format = ""
	FormatHTML     Format = "HTML"
	FormatMarkdown Format = "Markdown"
)

// Button is one inline option: a visible label and the action token sent
// back when pressed.
type Button struct {
	Label  string
	Action string
}

// Transport delivers messages to users. Rows of buttons render as an inline
// keyboard under the message.
type Transport interface {
	SendText(ctx context.Context, userID int64, text string, format Format) error
	SendPhoto(ctx context.Context, userID int64, photoRef, caption string, format Format, buttons [][]Button) error
	SendButtons(ctx context.Context, userID int64, text string, format Format, buttons [][]Button) error
	EditLastMessage(ctx context.Context, userID int64, text string, buttons [][]Button) error
	DeleteLastMessage(ctx context.Context, userID int64) error
}
