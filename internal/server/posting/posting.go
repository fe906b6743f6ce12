// Package posting runs the life cycle of an ad in the target group: posting
// or editing it, reporting it back to its author, taking it down and
// reposting it.
//
// Steps that talk to the chat API and steps that write ownership records are
// independent; a failure after the ad went live is logged and the ad stays
// up.
package posting

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/logging"
	"github.com/dmitrijs2005/swappy/internal/server/ads"
	"github.com/dmitrijs2005/swappy/internal/server/auth"
	"github.com/dmitrijs2005/swappy/internal/server/ledger"
	"github.com/dmitrijs2005/swappy/internal/server/router"
	"github.com/dmitrijs2005/swappy/internal/telegram"
)

// ErrDelivery wraps chat API failures on the main path of a workflow.
var ErrDelivery = errors.New("message delivery failed")

// Messenger is the part of the chat API the workflows use.
type Messenger interface {
	SendMessage(ctx context.Context, p telegram.SendMessageParams) (*telegram.Message, error)
	EditMessageText(ctx context.Context, p telegram.EditMessageTextParams) (*telegram.Message, error)
	EditMessageReplyMarkup(ctx context.Context, chatID int64, messageID int, kb *telegram.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	CopyMessage(ctx context.Context, p telegram.CopyMessageParams) (int, error)
}

// MembershipChecker answers whether a user is currently present in a chat.
// It is the only membership capability the bot and the form endpoint use.
type MembershipChecker interface {
	IsChatMember(ctx context.Context, chatID, userID int64) (bool, error)
}

// Report button labels.
const (
	EditButton     = "Редактировать ✏️"
	WithdrawButton = "Снять 🗑️"
	RepostButton   = "Поднять ⬆️"
)

type Service struct {
	msg    Messenger
	ledger *ledger.Ledger
	ads    *ads.Store
	links  *auth.Links
	logger logging.Logger
}

func NewService(msg Messenger, l *ledger.Ledger, a *ads.Store, links *auth.Links, logger logging.Logger) *Service {
	return &Service{msg: msg, ledger: l, ads: a, links: links, logger: logger.With("module", "posting")}
}

// Author is who an ad is published on behalf of.
type Author struct {
	ID int64
	// Mention is the HTML link put in front of the ad.
	Mention string
}

type PublishRequest struct {
	Group  int64
	Author Author
	// Body is the rendered ad, HTML.
	Body string
	// Edit, when set, replaces an existing ad instead of posting a new one.
	Edit *auth.EditTarget
	// Keeping adds a direct edit link to the report.
	Keeping bool
}

type Result struct {
	MessageID int
	ReportID  int
}

// Publish posts or edits an ad and reports it to its author. Editing an ad
// the author does not own fails with common.ErrorForbidden.
func (s *Service) Publish(ctx context.Context, req PublishRequest) (Result, error) {
	if req.Edit != nil {
		if err := s.authorize(ctx, req.Group, req.Author.ID, req.Edit); err != nil {
			return Result{}, err
		}
	}

	text := req.Author.Mention + s.starBadge(ctx, req.Group, req.Author.ID) + ":\n\n" + req.Body

	var messageID int
	if req.Edit != nil {
		if _, err := s.msg.EditMessageText(ctx, telegram.EditMessageTextParams{
			ChatID:    req.Group,
			MessageID: req.Edit.MessageID,
			Text:      text,
			ParseMode: telegram.ParseModeHTML,
		}); err != nil {
			return Result{}, fmt.Errorf("%w: edit ad: %w", ErrDelivery, err)
		}
		messageID = req.Edit.MessageID
	} else {
		m, err := s.msg.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:    req.Group,
			Text:      text,
			ParseMode: telegram.ParseModeHTML,
		})
		if err != nil {
			return Result{}, fmt.Errorf("%w: post ad: %w", ErrDelivery, err)
		}
		messageID = m.MessageID
	}

	s.TrackAuthor(ctx, req.Group, req.Author.ID, messageID)

	if req.Edit != nil && req.Edit.ReportID != 0 {
		if err := s.msg.DeleteMessage(ctx, req.Author.ID, req.Edit.ReportID); err != nil {
			s.logger.Warn(ctx, "failed to delete old report", "report_id", req.Edit.ReportID, "error", err)
		}
	}

	reportID, err := s.Report(ctx, req.Group, req.Author.ID, messageID, req.Keeping)
	if err != nil {
		return Result{MessageID: messageID}, err
	}

	return Result{MessageID: messageID, ReportID: reportID}, nil
}

// TrackAuthor records user as the author of a message that is already live.
// A failure is logged and leaves the message unowned.
func (s *Service) TrackAuthor(ctx context.Context, group, user int64, messageID int) {
	if err := s.ads.RecordAuthor(ctx, group, user, messageID); err != nil {
		s.logger.Error(ctx, "failed to record ad author", "group", group, "message_id", messageID, "error", err)
	}
}

// Report copies the ad into the author's private chat with the management
// buttons and returns the id of the copy.
func (s *Service) Report(ctx context.Context, group, author int64, messageID int, keeping bool) (int, error) {
	reportID, err := s.msg.CopyMessage(ctx, telegram.CopyMessageParams{
		ChatID:      author,
		FromChatID:  group,
		MessageID:   messageID,
		ReplyMarkup: ReportKeyboard(messageID, ""),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: report ad: %w", ErrDelivery, err)
	}

	if keeping {
		// the edit link has to name the report, so it is attached afterwards
		editURL, err := s.links.EditURL(auth.EditTarget{UserID: author, MessageID: messageID, ReportID: reportID})
		if err == nil {
			err = s.msg.EditMessageReplyMarkup(ctx, author, reportID, ReportKeyboard(messageID, editURL))
		}
		if err != nil {
			s.logger.Warn(ctx, "failed to attach edit link", "report_id", reportID, "error", err)
		}
	}

	return reportID, nil
}

// Withdraw removes an ad from the group. Only its author may do so.
func (s *Service) Withdraw(ctx context.Context, group, user int64, messageID int) error {
	if err := s.requireAuthor(ctx, group, user, messageID); err != nil {
		return err
	}

	if err := s.msg.DeleteMessage(ctx, group, messageID); err != nil {
		return fmt.Errorf("%w: delete ad: %w", ErrDelivery, err)
	}

	if err := s.ads.Forget(ctx, group, user, messageID); err != nil {
		s.logger.Error(ctx, "failed to retract ad author", "group", group, "message_id", messageID, "error", err)
	}
	return nil
}

// Repost copies an ad to the bottom of the group, moves ownership to the
// copy, deletes the original and sends a fresh report. oldReport, when not
// zero, is deleted from the author's chat.
func (s *Service) Repost(ctx context.Context, group, user int64, messageID, oldReport int) (Result, error) {
	if err := s.requireAuthor(ctx, group, user, messageID); err != nil {
		return Result{}, err
	}

	newID, err := s.msg.CopyMessage(ctx, telegram.CopyMessageParams{
		ChatID:     group,
		FromChatID: group,
		MessageID:  messageID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: repost ad: %w", ErrDelivery, err)
	}

	s.TrackAuthor(ctx, group, user, newID)

	if err := s.msg.DeleteMessage(ctx, group, messageID); err != nil {
		s.logger.Warn(ctx, "failed to delete reposted ad", "message_id", messageID, "error", err)
	} else if err := s.ads.Forget(ctx, group, user, messageID); err != nil {
		s.logger.Error(ctx, "failed to retract ad author", "message_id", messageID, "error", err)
	}

	if oldReport != 0 {
		if err := s.msg.DeleteMessage(ctx, user, oldReport); err != nil {
			s.logger.Warn(ctx, "failed to delete old report", "report_id", oldReport, "error", err)
		}
	}

	reportID, err := s.Report(ctx, group, user, newID, false)
	if err != nil {
		return Result{MessageID: newID}, err
	}
	return Result{MessageID: newID, ReportID: reportID}, nil
}

// EditURL returns a mini-app link for editing an ad reported as reportID.
func (s *Service) EditURL(ctx context.Context, group, user int64, messageID, reportID int) (string, error) {
	if err := s.requireAuthor(ctx, group, user, messageID); err != nil {
		return "", err
	}
	return s.links.EditURL(auth.EditTarget{UserID: user, MessageID: messageID, ReportID: reportID})
}

// ReportKeyboard returns the buttons attached to an ad report. With an empty
// editURL the edit button goes through the bot instead of opening the form.
func ReportKeyboard(messageID int, editURL string) *telegram.InlineKeyboardMarkup {
	id := int32(messageID)

	edit := telegram.InlineKeyboardButton{
		Text:         EditButton,
		CallbackData: router.Callback{Verb: router.VerbEdit, MessageID: id}.String(),
	}
	if editURL != "" {
		edit = telegram.InlineKeyboardButton{Text: EditButton, WebApp: &telegram.WebAppInfo{URL: editURL}}
	}

	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{
			edit,
			{Text: WithdrawButton, CallbackData: router.Callback{Verb: router.VerbDelete, MessageID: id}.String()},
		},
		{
			{Text: RepostButton, CallbackData: router.Callback{Verb: router.VerbRepost, MessageID: id}.String()},
		},
	}}
}

func (s *Service) authorize(ctx context.Context, group, author int64, edit *auth.EditTarget) error {
	if edit.UserID != author {
		return fmt.Errorf("%w: edit token issued to another user", common.ErrorForbidden)
	}
	return s.requireAuthor(ctx, group, author, edit.MessageID)
}

func (s *Service) requireAuthor(ctx context.Context, group, user int64, messageID int) error {
	ok, err := s.ads.IsAuthor(ctx, group, user, messageID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: message %d is not authored by %d", common.ErrorForbidden, messageID, user)
	}
	return nil
}

func (s *Service) starBadge(ctx context.Context, group, user int64) string {
	n, err := s.ledger.Count(ctx, ledger.Key(group, user))
	if err != nil {
		s.logger.Warn(ctx, "failed to read star count", "user", user, "error", err)
		return ""
	}
	if n == 0 {
		return ""
	}
	return fmt.Sprintf(" (<i>⭐️</i>%d)", n)
}
