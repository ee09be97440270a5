package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"servipay/internal/services/connect"
	"servipay/internal/store/repositories"
)

var validate = validator.New()

// OAuthInit answers with the authorization URL a professional visits to link
// their MercadoPago account. Pure URL construction, no side effects.
func OAuthInit(svc *connect.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("professional_id")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "professional_id is required")
			return
		}
		professionalID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || professionalID <= 0 {
			writeError(w, http.StatusBadRequest, "professional_id must be a positive integer")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"authorizationUrl": svc.AuthorizationURL(professionalID),
		})
	}
}

type refreshReq struct {
	ProfessionalID int64 `json:"professionalId" validate:"required,gt=0"`
}

type refreshResp struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RefreshToken exchanges the stored refresh token for a fresh credential.
// Provider rejection comes back as 500 after the credential was deactivated.
func RefreshToken(svc *connect.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in refreshReq
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := validate.Struct(in); err != nil {
			writeError(w, http.StatusBadRequest, "professionalId is required")
			return
		}

		res, err := svc.RefreshToken(r.Context(), in.ProfessionalID)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			writeError(w, http.StatusNotFound, "no active token for professional")
			return
		case errors.Is(err, connect.ErrProviderFailure):
			writeError(w, http.StatusInternalServerError, "token refresh failed; account disconnected")
			return
		case err != nil:
			log.Error().Err(err).Int64("professional_id", in.ProfessionalID).Msg("token refresh failed")
			writeError(w, http.StatusInternalServerError, "token refresh failed")
			return
		}

		writeJSON(w, http.StatusOK, refreshResp{
			Success:   true,
			Message:   "token refreshed",
			ExpiresAt: res.ExpiresAt,
		})
	}
}
