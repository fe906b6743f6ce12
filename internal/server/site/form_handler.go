package site

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/server/auth"
	"github.com/dmitrijs2005/swappy/internal/server/authgate"
	"github.com/dmitrijs2005/swappy/internal/server/metrics"
	"github.com/dmitrijs2005/swappy/internal/server/posting"
	"github.com/dmitrijs2005/swappy/internal/server/site/form"
)

// Responses shown to the mini-app user.
const (
	msgTryLater     = "Что-то пошло не так, попробуйте позднее"
	msgBadForm      = "Что-то пошло не так"
	msgNotMember    = "Публиковать объявления могут только участники группы"
	msgNotYours     = "Редактируемое сообщение не ваше"
	msgLinkExpired  = "Ссылка для редактирования устарела"
	msgLinkInvalid  = "Некорректная ссылка для редактирования"
	keepingQueryArg = "keeping"
)

// handleForm publishes or edits an ad posted by the mini-app. Nothing
// happens before the init-data is verified.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	initData := r.Header.Get(common.InitDataHeaderName)
	if initData == "" {
		metrics.RecordInitData(authgate.Kind(authgate.ErrBadArgs))
		writeText(w, http.StatusBadRequest, "")
		return
	}

	principal, err := authgate.Validate([]byte(initData), []byte(s.cfg.BotToken), s.cfg.InitDataMaxAge)
	metrics.RecordInitData(authgate.Kind(err))
	if err != nil {
		s.logger.Info(ctx, "init data rejected", "request_id", RequestID(ctx), "error", err)
		writeText(w, http.StatusBadRequest, "")
		return
	}

	// one snapshot for the whole request
	group := s.group.Snapshot()
	log := s.logger.With("request_id", RequestID(ctx), "user", principal.ID, "group", group)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeText(w, http.StatusBadRequest, msgBadForm)
		return
	}

	ad, err := form.Parse(body)
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			writeText(w, http.StatusBadRequest, verr.Message)
			return
		}
		log.Info(ctx, "bad form", "error", err)
		writeText(w, http.StatusBadRequest, msgBadForm)
		return
	}

	if group == 0 {
		log.Error(ctx, "form posted before the target group is set")
		writeText(w, http.StatusInternalServerError, msgTryLater)
		return
	}

	present, err := s.members.IsChatMember(ctx, group, principal.UserID())
	if err != nil {
		log.Error(ctx, "membership check failed", "error", err)
		writeText(w, http.StatusInternalServerError, msgTryLater)
		return
	}
	if !present {
		writeText(w, http.StatusForbidden, msgNotMember)
		return
	}

	var edit *auth.EditTarget
	if tok := r.URL.Query().Get(auth.EditQueryParam); tok != "" {
		target, err := s.links.Parse(tok)
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			writeText(w, http.StatusBadRequest, msgLinkExpired)
			return
		case err != nil:
			log.Info(ctx, "bad edit token", "error", err)
			writeText(w, http.StatusForbidden, msgLinkInvalid)
			return
		}
		edit = &target
	}

	res, err := s.posting.Publish(ctx, posting.PublishRequest{
		Group:   group,
		Author:  posting.Author{ID: principal.UserID(), Mention: principal.Mention()},
		Body:    ad.HTML(),
		Edit:    edit,
		Keeping: keeping(r.URL.Query().Get(keepingQueryArg)),
	})
	switch {
	case errors.Is(err, common.ErrorForbidden):
		log.Warn(ctx, "edit of a foreign ad refused", "error", err)
		writeText(w, http.StatusForbidden, msgNotYours)
		return
	case err != nil:
		log.Error(ctx, "failed to publish ad", "message_id", res.MessageID, "error", err)
		writeText(w, http.StatusInternalServerError, msgTryLater)
		return
	}

	mode := "new"
	if edit != nil {
		mode = "edit"
	}
	metrics.RecordAd(mode)
	log.Info(ctx, "ad published", "mode", mode, "message_id", res.MessageID, "report_id", res.ReportID)

	writeText(w, http.StatusOK, "")
}

func keeping(v string) bool {
	switch v {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
