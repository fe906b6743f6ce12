// Package handlers implements the endpoints of the bot's routing tree.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/logging"
	"github.com/dmitrijs2005/swappy/internal/server/groupstate"
	"github.com/dmitrijs2005/swappy/internal/server/ledger"
	"github.com/dmitrijs2005/swappy/internal/server/metrics"
	"github.com/dmitrijs2005/swappy/internal/server/posting"
	"github.com/dmitrijs2005/swappy/internal/server/router"
	"github.com/dmitrijs2005/swappy/internal/telegram"
)

// Messenger is the part of the chat API the handlers use.
type Messenger interface {
	SendMessage(ctx context.Context, p telegram.SendMessageParams) (*telegram.Message, error)
	EditMessageText(ctx context.Context, p telegram.EditMessageTextParams) (*telegram.Message, error)
	AnswerCallbackQuery(ctx context.Context, id, text string) error
}

// User-facing texts.
const (
	textStart         = "Привет! Чтобы узнать список моих комманд, используй /help."
	textTryLater      = "Что-то пошло не так, попробуйте позднее"
	textNoGroup       = "Группа пока не настроена"
	textGiverNotIn    = "Вручать ⭐️ могут только участники группы"
	textReceiverNotIn = "Этот пользователь не состоит в группе"
	textSelfGrant     = "Себе ⭐️ вручить нельзя"
	textNotYours      = "Это объявление не ваше"
	textWithdrawn     = "Вы сняли это объявление."
	textReposted      = "Объявление поднято"
	textOpenForm      = "Откройте форму, чтобы изменить объявление"
	textGroupSet      = "Successfully set"
	textTestMessage   = "Hi, this is a test message"
)

// giveStarRequestID tags the request_users button of the start keyboard.
const giveStarRequestID = 1

type Bot struct {
	msg     Messenger
	members posting.MembershipChecker
	ledger  *ledger.Ledger
	posting *posting.Service
	group   *groupstate.Holder
	logger  logging.Logger
}

func New(msg Messenger, members posting.MembershipChecker, l *ledger.Ledger, p *posting.Service, g *groupstate.Holder, logger logging.Logger) *Bot {
	return &Bot{
		msg:     msg,
		members: members,
		ledger:  l,
		posting: p,
		group:   g,
		logger:  logger.With("module", "handlers"),
	}
}

// Handlers returns the router endpoints backed by b.
func (b *Bot) Handlers() router.Handlers {
	return router.Handlers{
		PublicCommand:     b.PublicCommand,
		MaintainerCommand: b.MaintainerCommand,
		AddedToGroup:      b.AddedToGroup,
		UsersShared:       b.UsersShared,
		CallbackQuery:     b.CallbackQuery,
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup any) error {
	_, err := b.msg.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: text, ReplyMarkup: markup})
	return err
}

func (b *Bot) replyHTML(ctx context.Context, chatID int64, text string) error {
	_, err := b.msg.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: text, ParseMode: telegram.ParseModeHTML})
	return err
}

func (b *Bot) PublicCommand(ctx context.Context, ev *router.Event) error {
	msg := ev.Message()
	sender := ev.Sender()

	switch ev.Command.Name {
	case router.CmdStart:
		return b.reply(ctx, msg.Chat.ID, textStart, startKeyboard())

	case router.CmdHelp:
		text := router.Descriptions(router.PublicCommands)
		if sender == ev.Context.MaintainerID {
			text += "\n\n" + router.Descriptions(router.MaintainerCommands)
		}
		return b.reply(ctx, msg.Chat.ID, text, nil)

	case router.CmdMyID:
		return b.reply(ctx, msg.Chat.ID, strconv.FormatInt(sender, 10), nil)

	case router.CmdMaintainer:
		return b.reply(ctx, msg.Chat.ID, strconv.FormatInt(ev.Context.MaintainerID, 10), nil)

	case router.CmdStars:
		n, err := b.ledger.Count(ctx, ledger.Key(ev.Context.GroupID, sender))
		if err != nil {
			b.logger.Error(ctx, "failed to count stars", "user", sender, "error", err)
			return b.reply(ctx, msg.Chat.ID, textTryLater, nil)
		}
		return b.reply(ctx, msg.Chat.ID, fmt.Sprintf("У вас ⭐️%d", n), nil)

	default:
		return fmt.Errorf("unhandled public command %q", ev.Command.Name)
	}
}

func (b *Bot) MaintainerCommand(ctx context.Context, ev *router.Event) error {
	chatID := ev.Message().Chat.ID

	switch ev.Command.Name {
	case router.CmdGetGroup:
		return b.reply(ctx, chatID, strconv.FormatInt(ev.Context.GroupID, 10), nil)

	case router.CmdSetGroup:
		if err := b.group.Set(ctx, ev.Command.Int); err != nil {
			b.logger.Error(ctx, "failed to set target group", "group", ev.Command.Int, "error", err)
			return b.reply(ctx, chatID, textTryLater, nil)
		}
		b.logger.Info(ctx, "target group changed", "from", ev.Context.GroupID, "to", ev.Command.Int)
		return b.reply(ctx, chatID, textGroupSet, nil)

	case router.CmdTestMsg:
		return b.sendTestMessage(ctx, ev.Context.GroupID, chatID, ev.Sender())

	default:
		return fmt.Errorf("unhandled maintainer command %q", ev.Command.Name)
	}
}

func (b *Bot) sendTestMessage(ctx context.Context, group, requester, maintainer int64) error {
	sent, err := b.msg.SendMessage(ctx, telegram.SendMessageParams{ChatID: group, Text: textTestMessage})
	if err != nil {
		b.logger.Warn(ctx, "failed to send test message", "group", group, "error", err)
		return b.reply(ctx, requester, err.Error(), nil)
	}

	b.posting.TrackAuthor(ctx, group, maintainer, sent.MessageID)

	report := fmt.Sprintf("sent\nid: <code>%d</code>\ngroup_id: <code>%d</code>", sent.MessageID, group)
	del := router.Callback{Verb: router.VerbDelete, MessageID: int32(sent.MessageID)}
	_, err = b.msg.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:    requester,
		Text:      report,
		ParseMode: telegram.ParseModeHTML,
		ReplyMarkup: &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "Delete", CallbackData: del.String()}},
		}},
	})
	return err
}

func (b *Bot) AddedToGroup(ctx context.Context, ev *router.Event) error {
	msg := ev.Message()

	who := "Somebody"
	if msg.From != nil {
		who = telegram.Mention(msg.From.ID, msg.From.FullName())
	}

	text := fmt.Sprintf("%s added me to %s (<code>%d</code>)", who, html.EscapeString(msg.Chat.Title), msg.Chat.ID)
	b.logger.Info(ctx, "added to chat", "chat", msg.Chat.ID, "title", msg.Chat.Title)
	return b.replyHTML(ctx, ev.Context.MaintainerID, text)
}

// UsersShared grants a star from the sender to every shared user. Both must
// currently be members of the target group.
func (b *Bot) UsersShared(ctx context.Context, ev *router.Event) error {
	msg := ev.Message()
	giver := ev.Sender()
	group := ev.Context.GroupID

	if group == 0 {
		return b.reply(ctx, msg.Chat.ID, textNoGroup, nil)
	}

	present, err := b.members.IsChatMember(ctx, group, giver)
	if err != nil {
		b.logger.Error(ctx, "membership check failed", "user", giver, "error", err)
		metrics.RecordGrant("error")
		return b.reply(ctx, msg.Chat.ID, textTryLater, nil)
	}
	if !present {
		metrics.RecordGrant("not_member")
		return b.reply(ctx, msg.Chat.ID, textGiverNotIn, nil)
	}

	for _, receiver := range msg.UsersShared.IDs() {
		text := b.grant(ctx, group, giver, receiver)
		if err := b.replyHTML(ctx, msg.Chat.ID, text); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) grant(ctx context.Context, group, giver, receiver int64) string {
	present, err := b.members.IsChatMember(ctx, group, receiver)
	if err != nil {
		b.logger.Error(ctx, "membership check failed", "user", receiver, "error", err)
		metrics.RecordGrant("error")
		return textTryLater
	}
	if !present {
		metrics.RecordGrant("not_member")
		return textReceiverNotIn
	}

	key := ledger.Key(group, receiver)
	if err := b.ledger.Grant(ctx, giver, receiver, key); err != nil {
		if errors.Is(err, common.ErrSelfGrant) {
			metrics.RecordGrant("self")
			return textSelfGrant
		}
		b.logger.Error(ctx, "star grant failed", "giver", giver, "receiver", receiver, "error", err)
		metrics.RecordGrant("error")
		return textTryLater
	}
	metrics.RecordGrant("ok")

	n, err := b.ledger.Count(ctx, key)
	if err != nil {
		b.logger.Error(ctx, "failed to count stars", "user", receiver, "error", err)
		return textTryLater
	}

	return fmt.Sprintf("⭐️ вручена! У %s теперь ⭐️%d", telegram.Mention(receiver, "пользователя"), n)
}

// CallbackQuery handles the buttons attached to ad reports. Unknown payloads
// are acknowledged and ignored.
func (b *Bot) CallbackQuery(ctx context.Context, ev *router.Event) error {
	cq := ev.Update.CallbackQuery

	cb, ok := router.ParseCallback(cq.Data)
	if !ok {
		b.logger.Debug(ctx, "ignoring callback", "data", cq.Data)
		return b.msg.AnswerCallbackQuery(ctx, cq.ID, "")
	}

	answer, err := b.callback(ctx, ev.Context.GroupID, cq, cb)
	if aerr := b.msg.AnswerCallbackQuery(ctx, cq.ID, answer); aerr != nil {
		b.logger.Warn(ctx, "failed to answer callback", "error", aerr)
	}
	return err
}

func (b *Bot) callback(ctx context.Context, group int64, cq *telegram.CallbackQuery, cb router.Callback) (string, error) {
	user := cq.From.ID
	id := int(cb.MessageID)

	reportID := 0
	if cq.Message != nil {
		reportID = cq.Message.MessageID
	}

	var err error
	answer := ""

	switch cb.Verb {
	case router.VerbDelete:
		err = b.posting.Withdraw(ctx, group, user, id)
		if err == nil && cq.Message != nil {
			_, eerr := b.msg.EditMessageText(ctx, telegram.EditMessageTextParams{
				ChatID:    cq.Message.Chat.ID,
				MessageID: cq.Message.MessageID,
				Text:      cq.Message.Text + "\n\n" + textWithdrawn,
			})
			if eerr != nil {
				b.logger.Warn(ctx, "failed to mark report", "report_id", cq.Message.MessageID, "error", eerr)
			}
		}

	case router.VerbEdit:
		var link string
		link, err = b.posting.EditURL(ctx, group, user, id, reportID)
		if err == nil {
			err = b.reply(ctx, user, textOpenForm, &telegram.InlineKeyboardMarkup{
				InlineKeyboard: [][]telegram.InlineKeyboardButton{
					{{Text: posting.EditButton, WebApp: &telegram.WebAppInfo{URL: link}}},
				},
			})
		}

	case router.VerbRepost:
		_, err = b.posting.Repost(ctx, group, user, id, reportID)
		if err == nil {
			answer = textReposted
		}
	}

	switch {
	case err == nil:
		return answer, nil
	case errors.Is(err, common.ErrorForbidden):
		return textNotYours, nil
	default:
		return textTryLater, fmt.Errorf("callback %s: %w", cb, err)
	}
}

func startKeyboard() *telegram.ReplyKeyboardMarkup {
	noBots := false
	return &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{{
			{
				Text: router.GiveStarButton,
				RequestUsers: &telegram.KeyboardButtonRequestUsers{
					RequestID:   giveStarRequestID,
					UserIsBot:   &noBots,
					MaxQuantity: 1,
				},
			},
			{Text: router.StarsButton},
		}},
		ResizeKeyboard: true,
		IsPersistent:   true,
	}
}
