package webhook

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"servipay/internal/domain"
	"servipay/internal/store/repositories"
)

type resolvedBy int

const (
	notFound resolvedBy = iota
	byPaymentID
	byReference
)

type resolution struct {
	how resolvedBy
	tx  *domain.Transaction
}

// resolveTransaction recovers the transaction a notification belongs to. The
// direct lookup by payment id only works once a previous delivery recorded
// it; before that, the payment is fetched under the platform-level token and
// joined on its external reference (`service-<id>`).
//
// A failed platform fetch resolves to notFound rather than an error: the
// transaction may genuinely belong to someone else, and erroring would only
// provoke redelivery of something we cannot attribute anyway.
func (s *Service) resolveTransaction(ctx context.Context, paymentID string) (resolution, error) {
	tx, err := s.txs.FindByPaymentID(ctx, paymentID)
	if err == nil {
		return resolution{how: byPaymentID, tx: tx}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return resolution{}, err
	}

	if s.platformToken == "" {
		return resolution{how: notFound}, nil
	}
	pay, err := s.mp.GetPayment(ctx, s.platformToken, paymentID)
	if err != nil {
		log.Warn().Err(err).Str("payment_id", paymentID).Msg("webhook: platform payment fetch failed")
		return resolution{how: notFound}, nil
	}

	serviceRequestID, ok := domain.ServiceRequestIDFromReference(pay.ExternalReference)
	if !ok {
		return resolution{how: notFound}, nil
	}
	tx, err = s.txs.FindByServiceRequestID(ctx, serviceRequestID)
	if errors.Is(err, repositories.ErrNotFound) {
		return resolution{how: notFound}, nil
	}
	if err != nil {
		return resolution{}, err
	}
	return resolution{how: byReference, tx: tx}, nil
}
