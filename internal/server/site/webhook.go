package site

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/telegram"
)

// handleWebhook routes one Telegram update. Telegram redelivers updates
// answered with an error status, so handler failures are only logged.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.cfg.WebhookSecret != "" {
		got := r.Header.Get(common.WebhookSecretHeaderName)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.WebhookSecret)) != 1 {
			writeText(w, http.StatusUnauthorized, "")
			return
		}
	}

	var u telegram.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&u); err != nil {
		s.logger.Warn(ctx, "undecodable update", "error", err)
		writeText(w, http.StatusBadRequest, "")
		return
	}

	out, err := s.router.Route(ctx, &u, s.routeContext())
	if err != nil {
		s.logger.Error(ctx, "update handler failed", "update_id", u.UpdateID, "error", err)
	} else {
		s.logger.Debug(ctx, "update routed", "update_id", u.UpdateID, "outcome", out.String())
	}

	w.WriteHeader(http.StatusOK)
}
