// Package webhook reconciles asynchronous MercadoPago payment notifications
// against locally stored transactions and service requests.
//
// Known gap, kept deliberately: notifications are not signature-verified and
// there is no idempotency guard, so concurrent duplicate deliveries race on
// the final status write (last write wins). Providers redeliver on non-2xx,
// which is why most "nothing to do" conditions acknowledge with success
// instead of erroring.
package webhook

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"

	"servipay/internal/domain"
	"servipay/internal/mercadopago"
	"servipay/internal/store/repositories"
)

// ErrMissingPaymentID marks a payment notification without a payment id; the
// handler answers 400.
var ErrMissingPaymentID = errors.New("notification carries no payment id")

// Provider is the slice of the MercadoPago client this service needs.
type Provider interface {
	GetPayment(ctx context.Context, accessToken, paymentID string) (*mercadopago.Payment, error)
}

// Notification is the inbound provider payload. Only type "payment" is acted
// on; everything else is acknowledged and dropped.
type Notification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type Service struct {
	requests      repositories.RequestRepository
	tokens        repositories.TokenRepository
	txs           repositories.TransactionRepository
	mp            Provider
	platformToken string
}

func NewService(
	requests repositories.RequestRepository,
	tokens repositories.TokenRepository,
	txs repositories.TransactionRepository,
	mp Provider,
	platformToken string,
) *Service {
	return &Service{requests: requests, tokens: tokens, txs: txs, mp: mp, platformToken: platformToken}
}

// Outcome is what the handler reports back on a 200 acknowledgment.
type Outcome struct {
	Message string
}

// Process handles one notification end to end. Unresolvable notifications
// (unknown type, no matching transaction, no active token) acknowledge
// without side effects; an error return means the handler should answer 500
// and let the provider redeliver.
func (s *Service) Process(ctx context.Context, n Notification) (*Outcome, error) {
	if n.Type != "payment" {
		return &Outcome{Message: "notification ignored"}, nil
	}
	if n.Data.ID == "" {
		return nil, ErrMissingPaymentID
	}

	res, err := s.resolveTransaction(ctx, n.Data.ID)
	if err != nil {
		return nil, err
	}
	if res.how == notFound {
		log.Warn().Str("payment_id", n.Data.ID).Msg("webhook: no transaction resolved, ignoring")
		return &Outcome{Message: "no matching transaction"}, nil
	}
	tx := res.tx

	pro, err := s.requests.FindProfessional(ctx, tx.ProfessionalID)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Warn().Int64("transaction_id", tx.ID).Msg("webhook: owning professional missing, ignoring")
		return &Outcome{Message: "professional not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	tok, err := s.tokens.FindActiveByProfessional(ctx, pro.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Warn().Int64("professional_id", pro.ID).Msg("webhook: no active token, ignoring")
		return &Outcome{Message: "no active token"}, nil
	}
	if err != nil {
		return nil, err
	}

	// Re-fetch the payment under the owner's credentials for the
	// authoritative status and amounts.
	pay, err := s.mp.GetPayment(ctx, tok.AccessToken, n.Data.ID)
	if err != nil {
		return nil, err
	}

	serviceRequestID := tx.ServiceRequestID
	if id, ok := domain.ServiceRequestIDFromReference(pay.ExternalReference); ok {
		serviceRequestID = id
	}

	paymentID := n.Data.ID
	if pay.ID != 0 {
		paymentID = strconv.FormatInt(pay.ID, 10)
	}
	if err := s.txs.UpdateFromPayment(ctx, tx.ID, paymentID, pay.Status, pay.PaymentTypeID, pay.PaymentMethodID, pay.TransactionAmount); err != nil {
		return nil, err
	}

	status, completed, changed := domain.PaymentOutcome(pay.Status)
	if changed {
		if err := s.requests.SetPaymentState(ctx, serviceRequestID, status, completed); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("payment_id", paymentID).
		Str("status", pay.Status).
		Int64("service_request_id", serviceRequestID).
		Msg("webhook: payment reconciled")
	return &Outcome{Message: "payment processed"}, nil
}
