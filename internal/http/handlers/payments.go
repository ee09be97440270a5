package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"servipay/internal/services/checkout"
	"servipay/internal/store/repositories"
)

type createPaymentReq struct {
	ServiceRequestID     int64   `json:"serviceRequestId" validate:"required,gt=0"`
	Amount               float64 `json:"amount" validate:"required,gt=0"`
	CommissionPercentage float64 `json:"commissionPercentage" validate:"omitempty,gte=0,lte=100"`
}

type createPaymentResp struct {
	Success          bool   `json:"success"`
	NeedsConnection  bool   `json:"needsConnection,omitempty"`
	NeedsRefresh     bool   `json:"needsRefresh,omitempty"`
	Message          string `json:"message,omitempty"`
	PreferenceID     string `json:"preferenceId,omitempty"`
	InitPoint        string `json:"initPoint,omitempty"`
	SandboxInitPoint string `json:"sandboxInitPoint,omitempty"`
}

// CreatePayment creates a hosted checkout preference for a service request
// and records the pending transaction. NeedsConnection/NeedsRefresh come back
// as 400 with a structured body so the frontend can prompt onboarding instead
// of showing a hard failure.
func CreatePayment(svc *checkout.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in createPaymentReq
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := validate.Struct(in); err != nil {
			writeError(w, http.StatusBadRequest, "serviceRequestId and amount are required")
			return
		}
		commission := in.CommissionPercentage
		if commission == 0 {
			commission = checkout.DefaultCommissionPercent
		}

		res, err := svc.CreatePayment(r.Context(), in.ServiceRequestID, in.Amount, commission)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			writeError(w, http.StatusBadRequest, "service request not found")
			return
		case err != nil:
			log.Error().Err(err).
				Int64("service_request_id", in.ServiceRequestID).
				Msg("payment creation failed")
			writeError(w, http.StatusInternalServerError, "payment creation failed")
			return
		}

		if res.NeedsConnection {
			writeJSON(w, http.StatusBadRequest, createPaymentResp{
				NeedsConnection: true,
				Message:         "professional has not connected a mercadopago account",
			})
			return
		}
		if res.NeedsRefresh {
			writeJSON(w, http.StatusBadRequest, createPaymentResp{
				NeedsRefresh: true,
				Message:      "mercadopago token expired, refresh and retry",
			})
			return
		}

		writeJSON(w, http.StatusOK, createPaymentResp{
			Success:          true,
			PreferenceID:     res.PreferenceID,
			InitPoint:        res.InitPoint,
			SandboxInitPoint: res.SandboxInitPoint,
		})
	}
}

// ListTransactions pages a professional's payment attempts.
func ListTransactions(svc *checkout.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("professional_id")
		professionalID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || professionalID <= 0 {
			writeError(w, http.StatusBadRequest, "professional_id is required")
			return
		}
		limit, offset := 0, 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}
		if v := r.URL.Query().Get("offset"); v != "" {
			offset, _ = strconv.Atoi(v)
		}

		rows, err := svc.ListTransactions(r.Context(), professionalID, limit, offset)
		if err != nil {
			log.Error().Err(err).Int64("professional_id", professionalID).Msg("list transactions failed")
			writeError(w, http.StatusInternalServerError, "db error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": rows})
	}
}
