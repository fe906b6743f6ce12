package telegram

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Inbound updates and keyboards are declared here rather than taken from
// tgbotapi: its types predate users_shared, request_users and web_app.

// ParseModeHTML selects Telegram's HTML message markup.
const ParseModeHTML = tgbotapi.ModeHTML

type Update struct {
	UpdateID      int            `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Mention renders an HTML link to a user profile.
func Mention(userID int64, name string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

type Message struct {
	MessageID        int                   `json:"message_id"`
	From             *User                 `json:"from,omitempty"`
	Chat             Chat                  `json:"chat"`
	Date             int64                 `json:"date"`
	Text             string                `json:"text,omitempty"`
	NewChatMembers   []User                `json:"new_chat_members,omitempty"`
	GroupChatCreated bool                  `json:"group_chat_created,omitempty"`
	UsersShared      *UsersShared          `json:"users_shared,omitempty"`
	ReplyMarkup      *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// UsersShared is sent when a user picks users through a KeyboardButton with
// RequestUsers. Older Bot API versions fill UserIDs, newer ones Users.
type UsersShared struct {
	RequestID int          `json:"request_id"`
	UserIDs   []int64      `json:"user_ids,omitempty"`
	Users     []SharedUser `json:"users,omitempty"`
}

type SharedUser struct {
	UserID    int64  `json:"user_id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// IDs returns the shared user ids without duplicates, in payload order.
func (u *UsersShared) IDs() []int64 {
	if u == nil {
		return nil
	}
	seen := make(map[int64]struct{}, len(u.Users)+len(u.UserIDs))
	var ids []int64
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, su := range u.Users {
		add(su.UserID)
	}
	for _, id := range u.UserIDs {
		add(id)
	}
	return ids
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

type WebAppInfo struct {
	URL string `json:"url"`
}

type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type InlineKeyboardButton struct {
	Text         string      `json:"text"`
	CallbackData string      `json:"callback_data,omitempty"`
	URL          string      `json:"url,omitempty"`
	WebApp       *WebAppInfo `json:"web_app,omitempty"`
}

type ReplyKeyboardMarkup struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard,omitempty"`
	IsPersistent   bool               `json:"is_persistent,omitempty"`
}

type KeyboardButton struct {
	Text         string                      `json:"text"`
	RequestUsers *KeyboardButtonRequestUsers `json:"request_users,omitempty"`
}

type KeyboardButtonRequestUsers struct {
	RequestID   int   `json:"request_id"`
	UserIsBot   *bool `json:"user_is_bot,omitempty"`
	MaxQuantity int   `json:"max_quantity,omitempty"`
}

// Chat member statuses.
const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
	StatusMember        = "member"
	StatusRestricted    = "restricted"
	StatusLeft          = "left"
	StatusKicked        = "kicked"
)

type ChatMember struct {
	Status   string `json:"status"`
	User     User   `json:"user"`
	IsMember bool   `json:"is_member,omitempty"`
}

// IsPresent reports whether the member is currently in the chat.
func (m ChatMember) IsPresent() bool {
	switch m.Status {
	case StatusCreator, StatusAdministrator, StatusMember:
		return true
	case StatusRestricted:
		return m.IsMember
	default:
		return false
	}
}

type BotCommand = tgbotapi.BotCommand

type MenuButton struct {
	Type   string      `json:"type"`
	Text   string      `json:"text,omitempty"`
	WebApp *WebAppInfo `json:"web_app,omitempty"`
}

// NewWebAppMenuButton returns a chat menu button that opens url.
func NewWebAppMenuButton(text, url string) MenuButton {
	return MenuButton{Type: "web_app", Text: text, WebApp: &WebAppInfo{URL: url}}
}
