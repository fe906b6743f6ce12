// Package telegramtest provides an in-memory stand-in for the Bot API client.
package telegramtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/swappy/internal/telegram"
)

// Sent is one message the fake bot holds.
type Sent struct {
	ChatID      int64
	MessageID   int
	Text        string
	ParseMode   string
	ReplyMarkup any
	// CopiedFrom is set for copies as chat/message.
	CopiedFrom [2]int64
}

// Bot implements the client methods used by the application. Messages live
// in a map keyed by chat and message id. Fail makes the named method return
// an error.
type Bot struct {
	mu       sync.Mutex
	nextID   int
	messages map[[2]int64]*Sent
	deleted  [][2]int64
	answers  []string
	members  map[[2]int64]bool
	Fail     map[string]error
	Calls    []string
}

func NewBot() *Bot {
	return &Bot{
		nextID:   100,
		messages: make(map[[2]int64]*Sent),
		members:  make(map[[2]int64]bool),
		Fail:     make(map[string]error),
	}
}

var ErrNotFound = errors.New("Bad Request: message not found")

func (b *Bot) call(method string) error {
	b.Calls = append(b.Calls, method)
	return b.Fail[method]
}

// SetMember marks user as present in chat.
func (b *Bot) SetMember(chat, user int64, present bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.members[[2]int64{chat, user}] = present
}

// Put places a message in chat as if somebody sent it and returns its id.
func (b *Bot) Put(chat int64, text string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store(&Sent{ChatID: chat, Text: text})
}

func (b *Bot) store(m *Sent) int {
	b.nextID++
	m.MessageID = b.nextID
	b.messages[[2]int64{m.ChatID, int64(m.MessageID)}] = m
	return m.MessageID
}

// Message returns a live message or nil.
func (b *Bot) Message(chat int64, id int) *Sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.messages[[2]int64{chat, int64(id)}]
}

// Messages returns the live messages of chat.
func (b *Bot) Messages(chat int64) []*Sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*Sent
	for k, m := range b.messages {
		if k[0] == chat {
			out = append(out, m)
		}
	}
	return out
}

// Deleted lists deleted messages as chat/message pairs.
func (b *Bot) Deleted() [][2]int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][2]int64(nil), b.deleted...)
}

// Answers lists the texts of answered callback queries.
func (b *Bot) Answers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.answers...)
}

func (b *Bot) SendMessage(_ context.Context, p telegram.SendMessageParams) (*telegram.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("sendMessage"); err != nil {
		return nil, err
	}
	id := b.store(&Sent{ChatID: p.ChatID, Text: p.Text, ParseMode: p.ParseMode, ReplyMarkup: p.ReplyMarkup})
	return &telegram.Message{MessageID: id, Chat: telegram.Chat{ID: p.ChatID}, Text: p.Text}, nil
}

func (b *Bot) EditMessageText(_ context.Context, p telegram.EditMessageTextParams) (*telegram.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("editMessageText"); err != nil {
		return nil, err
	}
	m, ok := b.messages[[2]int64{p.ChatID, int64(p.MessageID)}]
	if !ok {
		return nil, ErrNotFound
	}
	m.Text = p.Text
	m.ParseMode = p.ParseMode
	if p.ReplyMarkup != nil {
		m.ReplyMarkup = p.ReplyMarkup
	}
	return &telegram.Message{MessageID: m.MessageID, Chat: telegram.Chat{ID: p.ChatID}, Text: m.Text}, nil
}

func (b *Bot) EditMessageReplyMarkup(_ context.Context, chatID int64, messageID int, kb *telegram.InlineKeyboardMarkup) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("editMessageReplyMarkup"); err != nil {
		return err
	}
	m, ok := b.messages[[2]int64{chatID, int64(messageID)}]
	if !ok {
		return ErrNotFound
	}
	m.ReplyMarkup = kb
	return nil
}

func (b *Bot) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("deleteMessage"); err != nil {
		return err
	}
	k := [2]int64{chatID, int64(messageID)}
	if _, ok := b.messages[k]; !ok {
		return ErrNotFound
	}
	delete(b.messages, k)
	b.deleted = append(b.deleted, k)
	return nil
}

func (b *Bot) CopyMessage(_ context.Context, p telegram.CopyMessageParams) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("copyMessage"); err != nil {
		return 0, err
	}
	src, ok := b.messages[[2]int64{p.FromChatID, int64(p.MessageID)}]
	if !ok {
		return 0, ErrNotFound
	}
	var markup any
	if p.ReplyMarkup != nil {
		markup = p.ReplyMarkup
	}
	return b.store(&Sent{
		ChatID:      p.ChatID,
		Text:        src.Text,
		ParseMode:   src.ParseMode,
		ReplyMarkup: markup,
		CopiedFrom:  [2]int64{p.FromChatID, int64(p.MessageID)},
	}), nil
}

func (b *Bot) AnswerCallbackQuery(_ context.Context, id, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("answerCallbackQuery"); err != nil {
		return err
	}
	b.answers = append(b.answers, text)
	return nil
}

func (b *Bot) IsChatMember(_ context.Context, chatID, userID int64) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call("getChatMember"); err != nil {
		return false, err
	}
	return b.members[[2]int64{chatID, userID}], nil
}

// Keyboard returns the inline keyboard of a live message.
func (b *Bot) Keyboard(chat int64, id int) (*telegram.InlineKeyboardMarkup, error) {
	m := b.Message(chat, id)
	if m == nil {
		return nil, fmt.Errorf("message %d/%d not found", chat, id)
	}
	kb, ok := m.ReplyMarkup.(*telegram.InlineKeyboardMarkup)
	if !ok {
		return nil, fmt.Errorf("message %d/%d has no inline keyboard", chat, id)
	}
	return kb, nil
}
