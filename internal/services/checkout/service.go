// Package checkout creates MercadoPago hosted checkout preferences for
// service requests and records the resulting pending transaction.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"servipay/internal/config"
	"servipay/internal/domain"
	"servipay/internal/mercadopago"
	"servipay/internal/store/repositories"
)

// DefaultCommissionPercent is the platform cut applied when the caller does
// not supply one.
const DefaultCommissionPercent = 10.0

const (
	defaultClientName       = "Cliente"
	defaultProfessionalName = "Profesional"
)

// Provider is the slice of the MercadoPago client this service needs.
type Provider interface {
	CreatePreference(ctx context.Context, accessToken string, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}

type Service struct {
	requests repositories.RequestRepository
	tokens   repositories.TokenRepository
	txs      repositories.TransactionRepository
	mp       Provider
	app      config.AppCfg
	now      func() time.Time
}

func NewService(
	requests repositories.RequestRepository,
	tokens repositories.TokenRepository,
	txs repositories.TransactionRepository,
	mp Provider,
	app config.AppCfg,
) *Service {
	return &Service{requests: requests, tokens: tokens, txs: txs, mp: mp, app: app, now: time.Now}
}

// Result is the structured answer for payment creation. NeedsConnection and
// NeedsRefresh are onboarding signals, not errors: the caller prompts the
// professional to link or refresh and retries.
type Result struct {
	NeedsConnection  bool
	NeedsRefresh     bool
	PreferenceID     string
	InitPoint        string
	SandboxInitPoint string
}

// Fee is the platform cut of amount at the given commission percentage,
// rounded to cents.
func Fee(amount, commissionPercent float64) float64 {
	return math.Round(amount*commissionPercent/100*100) / 100
}

// CreatePayment runs the payment creation sequence for a service request:
// validate the request and its professional, check the connected credential,
// create the preference under the professional's token and persist a pending
// transaction plus the checkout link.
//
// The expiry check is one-shot: an expired token yields NeedsRefresh and the
// caller is expected to invoke the refresh endpoint and retry.
func (s *Service) CreatePayment(ctx context.Context, serviceRequestID int64, amount, commissionPercent float64) (*Result, error) {
	sr, err := s.requests.FindServiceRequest(ctx, serviceRequestID)
	if err != nil {
		return nil, fmt.Errorf("load service request %d: %w", serviceRequestID, err)
	}
	pro, err := s.requests.FindProfessional(ctx, sr.ProfessionalID)
	if err != nil {
		return nil, fmt.Errorf("load professional %d: %w", sr.ProfessionalID, err)
	}

	tok, err := s.tokens.FindActiveByProfessional(ctx, pro.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &Result{NeedsConnection: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if tok.Expired(s.now()) {
		return &Result{NeedsRefresh: true}, nil
	}

	// Display names are best effort; a missing profile is not an error.
	clientName := s.displayName(ctx, sr.ClientID, defaultClientName)
	proName := s.displayName(ctx, pro.UserID, defaultProfessionalName)

	fee := Fee(amount, commissionPercent)
	net := amount - fee
	ref := domain.ExternalReference(sr.ID)

	pref, err := s.mp.CreatePreference(ctx, tok.AccessToken, mercadopago.PreferenceRequest{
		Items: []mercadopago.PreferenceItem{{
			Title:       fmt.Sprintf("Servicio de %s", proName),
			Description: fmt.Sprintf("Solicitud de servicio #%d", sr.ID),
			Quantity:    1,
			UnitPrice:   amount,
			CurrencyID:  "ARS",
		}},
		Payer: mercadopago.PreferencePayer{Name: clientName},
		BackURLs: &mercadopago.BackURLs{
			Success: s.app.FrontendURL + "/payments/success",
			Pending: s.app.FrontendURL + "/payments/pending",
			Failure: s.app.FrontendURL + "/payments/failure",
		},
		AutoReturn:        "approved",
		ExternalReference: ref,
		NotificationURL:   s.app.BaseURL + "/api/v1/payments/webhook",
		MarketplaceFee:    fee,
	})
	if err != nil {
		log.Error().Err(err).
			Int64("service_request_id", sr.ID).
			Int64("professional_id", pro.ID).
			Float64("amount", amount).
			Msg("create preference failed")
		return nil, fmt.Errorf("create preference: %w", err)
	}

	tx := &domain.Transaction{
		ServiceRequestID:  sr.ID,
		ProfessionalID:    pro.ID,
		ClientID:          sr.ClientID,
		PreferenceID:      pref.ID,
		Status:            domain.PaymentStatusPending,
		TransactionAmount: amount,
		ApplicationFee:    fee,
		NetAmount:         net,
		ExternalReference: ref,
		MPUserID:          tok.MPUserID,
	}
	if err := s.txs.Insert(ctx, tx); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	if err := s.requests.SetPaymentLink(ctx, sr.ID, pref.InitPoint, domain.PaymentStatusPending); err != nil {
		return nil, fmt.Errorf("update service request: %w", err)
	}

	return &Result{
		PreferenceID:     pref.ID,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

// ListTransactions pages a professional's payment attempts, newest first.
func (s *Service) ListTransactions(ctx context.Context, professionalID int64, limit, offset int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.txs.ListByProfessional(ctx, professionalID, limit, offset)
}

func (s *Service) displayName(ctx context.Context, userID int64, fallback string) string {
	p, err := s.requests.FindProfileByUserID(ctx, userID)
	if err != nil || p.FullName == nil || *p.FullName == "" {
		return fallback
	}
	return *p.FullName
}
