package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"servipay/internal/services/webhook"
)

// Webhook receives MercadoPago payment notifications. Everything the service
// decides is "nothing to do" still answers 200 so the provider stops
// redelivering; only unexpected internal failures answer 500.
func Webhook(svc *webhook.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var n webhook.Notification
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}

		out, err := svc.Process(r.Context(), n)
		switch {
		case errors.Is(err, webhook.ErrMissingPaymentID):
			writeError(w, http.StatusBadRequest, "notification carries no payment id")
			return
		case err != nil:
			log.Error().Err(err).Str("payment_id", n.Data.ID).Msg("webhook processing failed")
			writeError(w, http.StatusInternalServerError, "webhook processing failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": out.Message})
	}
}
