package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"github.com/amora-app/amora-bot/internal/bot"
	"github.com/amora-app/amora-bot/internal/chat"
	"github.com/gofiber/fiber/v2"
)

// Update is the chat platform's webhook payload, trimmed to what the bot
// consumes.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

type Message struct {
	From  *Sender     `json:"from"`
	Text  string      `json:"text"`
	Photo []PhotoSize `json:"photo"`
}

type Sender struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
}

type PhotoSize struct {
	FileID string `json:"file_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type CallbackQuery struct {
	ID   string  `json:"id"`
	From *Sender `json:"from"`
	Data string  `json:"data"`
}

// EventProcessor runs one normalized event through the conversation engine.
type EventProcessor interface {
	HandleEvent(ctx context.Context, ev bot.Event) error
}

type WebhookHandler struct {
	engine    EventProcessor
	transport chat.Transport
	secret    string
}

func NewWebhookHandler(engine EventProcessor, transport chat.Transport, secret string) *WebhookHandler {
	return &WebhookHandler{engine: engine, transport: transport, secret: secret}
}

// HandleUpdate authenticates the platform's secret header, normalizes the
// update and runs the engine. Engine failures are reported to the user as a
// generic message and acknowledged to the platform so it does not redeliver.
func (h *WebhookHandler) HandleUpdate(c *fiber.Ctx) error {
	if h.secret != "" {
		header := c.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(header), []byte(h.secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false})
		}
	}

	var update Update
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false})
	}

	ev, ok := normalize(&update)
	if !ok {
		// Update types the bot does not handle (edits, channel posts, ...).
		return c.JSON(fiber.Map{"ok": true})
	}

	if err := h.engine.HandleEvent(c.UserContext(), ev); err != nil {
		slog.Error("event handling failed", "user_id", ev.UserID, "action", ev.Action, "error", err)
		if sendErr := h.transport.SendText(c.UserContext(), ev.UserID, "Something went wrong. Please try again.", chat.FormatPlain); sendErr != nil {
			slog.Warn("failure notice undelivered", "user_id", ev.UserID, "error", sendErr)
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}

// normalize flattens an update into a bot.Event. The largest photo size wins
// when a photo message carries several renditions.
func normalize(u *Update) (bot.Event, bool) {
	if u.Message != nil && u.Message.From != nil {
		ev := bot.Event{
			UserID: u.Message.From.ID,
			Name:   u.Message.From.FirstName,
			Text:   u.Message.Text,
		}
		if len(u.Message.Photo) > 0 {
			best := u.Message.Photo[0]
			for _, p := range u.Message.Photo[1:] {
				if p.Width*p.Height > best.Width*best.Height {
					best = p
				}
			}
			ev.PhotoRef = best.FileID
		}
		return ev, true
	}
	if u.CallbackQuery != nil && u.CallbackQuery.From != nil {
		return bot.Event{
			UserID: u.CallbackQuery.From.ID,
			Name:   u.CallbackQuery.From.FirstName,
			Action: u.CallbackQuery.Data,
		}, true
	}
	return bot.Event{}, false
}
