// Package telegram adapts telegram-bot-api to the methods the bot needs.
// Requests the library models go through its typed configs; newer Bot API
// fields (web_app buttons, menu buttons, webhook secrets) go through
// MakeRequest with locally defined payloads. There are no retries.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultBaseURL is the public Bot API host.
const DefaultBaseURL = "https://api.telegram.org"

// AllowedUpdates are the update kinds the webhook subscribes to.
var AllowedUpdates = []string{"message", "callback_query"}

type Client struct {
	api *tgbotapi.BotAPI
	me  User
}

type options struct {
	baseURL string
	http    *http.Client
}

type Option func(*options)

func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.http = h }
}

// NewClient connects to the Bot API and identifies the bot with getMe.
func NewClient(token string, opts ...Option) (*Client, error) {
	o := options{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, o.baseURL+"/bot%s/%s", o.http)
	if err != nil {
		return nil, wrap("getMe", err)
	}

	return &Client{
		api: api,
		me: User{
			ID:           api.Self.ID,
			IsBot:        api.Self.IsBot,
			FirstName:    api.Self.FirstName,
			LastName:     api.Self.LastName,
			Username:     api.Self.UserName,
			LanguageCode: api.Self.LanguageCode,
		},
	}, nil
}

// wrap prefixes err with method. Transport errors embed the request url,
// which carries the token, so only their cause is kept.
func wrap(method string, err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		err = ue.Err
	}
	return fmt.Errorf("telegram %s: %w", method, err)
}

// request runs a typed config. The library has no context support, so ctx
// is only checked before the call.
func (c *Client) request(ctx context.Context, method string, cfg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(method, err)
	}
	resp, err := c.api.Request(cfg)
	if err != nil {
		return nil, wrap(method, err)
	}
	return resp, nil
}

func (c *Client) raw(ctx context.Context, method string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(method, err)
	}
	resp, err := c.api.MakeRequest(method, params)
	if err != nil {
		return nil, wrap(method, err)
	}
	return resp, nil
}

// GetMe returns the identity resolved when the client was created.
func (c *Client) GetMe(context.Context) (*User, error) {
	me := c.me
	return &me, nil
}

type SendMessageParams struct {
	ChatID      int64
	Text        string
	ParseMode   string
	ReplyMarkup any
}

func (c *Client) SendMessage(ctx context.Context, p SendMessageParams) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("sendMessage", err)
	}

	cfg := tgbotapi.NewMessage(p.ChatID, p.Text)
	cfg.ParseMode = p.ParseMode
	cfg.ReplyMarkup = p.ReplyMarkup

	sent, err := c.api.Send(cfg)
	if err != nil {
		return nil, wrap("sendMessage", err)
	}
	return fromAPIMessage(sent), nil
}

func fromAPIMessage(m tgbotapi.Message) *Message {
	out := &Message{MessageID: m.MessageID, Date: int64(m.Date), Text: m.Text}
	if m.Chat != nil {
		out.Chat = Chat{ID: m.Chat.ID, Type: m.Chat.Type, Title: m.Chat.Title, Username: m.Chat.UserName}
	}
	return out
}

type EditMessageTextParams struct {
	ChatID      int64
	MessageID   int
	Text        string
	ParseMode   string
	ReplyMarkup *InlineKeyboardMarkup
}

// EditMessageText replaces the text of a message. The keyboard may carry
// web_app buttons, which the library's markup types lack.
func (c *Client) EditMessageText(ctx context.Context, p EditMessageTextParams) (*Message, error) {
	params := messageParams(p.ChatID, p.MessageID)
	params["text"] = p.Text
	params.AddNonEmpty("parse_mode", p.ParseMode)
	if err := params.AddInterface("reply_markup", p.ReplyMarkup); err != nil {
		return nil, wrap("editMessageText", err)
	}

	if _, err := c.raw(ctx, "editMessageText", params); err != nil {
		return nil, err
	}
	return &Message{MessageID: p.MessageID, Chat: Chat{ID: p.ChatID}, Text: p.Text, ReplyMarkup: p.ReplyMarkup}, nil
}

// EditMessageReplyMarkup replaces the inline keyboard of a message.
func (c *Client) EditMessageReplyMarkup(ctx context.Context, chatID int64, messageID int, kb *InlineKeyboardMarkup) error {
	params := messageParams(chatID, messageID)
	if err := params.AddInterface("reply_markup", kb); err != nil {
		return wrap("editMessageReplyMarkup", err)
	}
	_, err := c.raw(ctx, "editMessageReplyMarkup", params)
	return err
}

func messageParams(chatID int64, messageID int) tgbotapi.Params {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_id", messageID)
	return params
}

func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.request(ctx, "deleteMessage", tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

type CopyMessageParams struct {
	ChatID      int64
	FromChatID  int64
	MessageID   int
	ReplyMarkup *InlineKeyboardMarkup
}

// CopyMessage copies a message and returns the id of the copy.
func (c *Client) CopyMessage(ctx context.Context, p CopyMessageParams) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, wrap("copyMessage", err)
	}

	cfg := tgbotapi.NewCopyMessage(p.ChatID, p.FromChatID, p.MessageID)
	if p.ReplyMarkup != nil {
		cfg.ReplyMarkup = p.ReplyMarkup
	}

	id, err := c.api.CopyMessage(cfg)
	if err != nil {
		return 0, wrap("copyMessage", err)
	}
	return id.MessageID, nil
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, id, text string) error {
	_, err := c.request(ctx, "answerCallbackQuery", tgbotapi.NewCallback(id, text))
	return err
}

func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (*ChatMember, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("getChatMember", err)
	}

	m, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return nil, wrap("getChatMember", err)
	}

	out := &ChatMember{Status: m.Status, IsMember: m.IsMember}
	if m.User != nil {
		out.User = User{ID: m.User.ID, FirstName: m.User.FirstName, LastName: m.User.LastName, Username: m.User.UserName}
	}
	return out, nil
}

// IsChatMember reports whether user is currently present in chat.
func (c *Client) IsChatMember(ctx context.Context, chatID, userID int64) (bool, error) {
	m, err := c.GetChatMember(ctx, chatID, userID)
	if err != nil {
		return false, err
	}
	return m.IsPresent(), nil
}

func (c *Client) SetChatMenuButton(ctx context.Context, b MenuButton) error {
	params := tgbotapi.Params{}
	if err := params.AddInterface("menu_button", b); err != nil {
		return wrap("setChatMenuButton", err)
	}
	_, err := c.raw(ctx, "setChatMenuButton", params)
	return err
}

func (c *Client) SetMyCommands(ctx context.Context, cmds []BotCommand) error {
	_, err := c.request(ctx, "setMyCommands", tgbotapi.NewSetMyCommands(cmds...))
	return err
}

// SetWebhook registers hookURL for AllowedUpdates. Telegram echoes
// secretToken back in every delivery.
func (c *Client) SetWebhook(ctx context.Context, hookURL, secretToken string) error {
	params := tgbotapi.Params{}
	params["url"] = hookURL
	params.AddNonEmpty("secret_token", secretToken)
	if err := params.AddInterface("allowed_updates", AllowedUpdates); err != nil {
		return wrap("setWebhook", err)
	}
	_, err := c.raw(ctx, "setWebhook", params)
	return err
}
