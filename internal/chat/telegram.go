package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrNoLastMessage is returned when there is nothing tracked to edit or delete.
var ErrNoLastMessage = errors.New("no tracked message for user")

// Client implements Transport against the Telegram Bot API. It remembers the
// last message id sent to each user so EditLastMessage and DeleteLastMessage
// have a target; the platform itself has no "last message" notion.
type Client struct {
	apiURL string
	token  string
	http   *http.Client

	mu      sync.Mutex
	lastMsg map[int64]int64
}

func NewClient(apiURL, token string) *Client {
	return &Client{
		apiURL:  apiURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		lastMsg: make(map[int64]int64),
	}
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

func keyboard(buttons [][]Button) *inlineKeyboard {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]inlineButton, len(buttons))
	for i, row := range buttons {
		rows[i] = make([]inlineButton, len(row))
		for j, b := range row {
			rows[i][j] = inlineButton{Text: b.Label, CallbackData: b.Action}
		}
	}
	return &inlineKeyboard{InlineKeyboard: rows}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, payload map[string]interface{}) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("%s rejected: %s", method, parsed.Description)
	}
	return &parsed, nil
}

func (c *Client) track(userID, messageID int64) {
	c.mu.Lock()
	c.lastMsg[userID] = messageID
	c.mu.Unlock()
}

func (c *Client) tracked(userID int64) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.lastMsg[userID]
	return id, ok
}

func (c *Client) untrack(userID int64) {
	c.mu.Lock()
	delete(c.lastMsg, userID)
	c.mu.Unlock()
}

func (c *Client) SendText(ctx context.Context, userID int64, text string, format Format) error {
	payload := map[string]interface{}{
		"chat_id": userID,
		"text":    text,
	}
	if format != FormatPlain {
		payload["parse_mode"] = string(format)
	}
	resp, err := c.call(ctx, "sendMessage", payload)
	if err != nil {
		return err
	}
	c.track(userID, resp.Result.MessageID)
	return nil
}

func (c *Client) SendPhoto(ctx context.Context, userID int64, photoRef, caption string, format Format, buttons [][]Button) error {
	payload := map[string]interface{}{
		"chat_id": userID,
		"photo":   photoRef,
		"caption": caption,
	}
	if format != FormatPlain {
		payload["parse_mode"] = string(format)
	}
	if kb := keyboard(buttons); kb != nil {
		payload["reply_markup"] = kb
	}
	resp, err := c.call(ctx, "sendPhoto", payload)
	if err != nil {
		return err
	}
	c.track(userID, resp.Result.MessageID)
	return nil
}

func (c *Client) SendButtons(ctx context.Context, userID int64, text string, format Format, buttons [][]Button) error {
	payload := map[string]interface{}{
		"chat_id": userID,
		"text":    text,
	}
	if format != FormatPlain {
		payload["parse_mode"] = string(format)
	}
	if kb := keyboard(buttons); kb != nil {
		payload["reply_markup"] = kb
	}
	resp, err := c.call(ctx, "sendMessage", payload)
	if err != nil {
		return err
	}
	c.track(userID, resp.Result.MessageID)
	return nil
}

func (c *Client) EditLastMessage(ctx context.Context, userID int64, text string, buttons [][]Button) error {
	messageID, ok := c.tracked(userID)
	if !ok {
		return ErrNoLastMessage
	}
	payload := map[string]interface{}{
		"chat_id":    userID,
		"message_id": messageID,
		"text":       text,
	}
	if kb := keyboard(buttons); kb != nil {
		payload["reply_markup"] = kb
	}
	_, err := c.call(ctx, "editMessageText", payload)
	return err
}

func (c *Client) DeleteLastMessage(ctx context.Context, userID int64) error {
	messageID, ok := c.tracked(userID)
	if !ok {
		return ErrNoLastMessage
	}
	payload := map[string]interface{}{
		"chat_id":    userID,
		"message_id": messageID,
	}
	if _, err := c.call(ctx, "deleteMessage", payload); err != nil {
		return err
	}
	c.untrack(userID)
	return nil
}
