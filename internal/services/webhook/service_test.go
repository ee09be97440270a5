package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"servipay/internal/domain"
	"servipay/internal/mercadopago"
	"servipay/internal/store/storetest"
)

type fakeProvider struct {
	payments map[string]*mercadopago.Payment // keyed by payment id
	errFor   map[string]error                // keyed by access token
	tokens   []string                        // access tokens in call order
}

func (f *fakeProvider) GetPayment(_ context.Context, accessToken, paymentID string) (*mercadopago.Payment, error) {
	f.tokens = append(f.tokens, accessToken)
	if err, ok := f.errFor[accessToken]; ok {
		return nil, err
	}
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, &mercadopago.APIError{Status: 404, Body: `{"message":"payment not found"}`}
	}
	return p, nil
}

func notification(typ, id string) Notification {
	var n Notification
	n.Type = typ
	n.Data.ID = id
	return n
}

func newFixture(pv *fakeProvider) (*Service, *storetest.Requests, *storetest.Tokens, *storetest.Transactions) {
	req := storetest.NewRequests()
	tok := storetest.NewTokens()
	txs := storetest.NewTransactions()

	req.ServiceRequests[7] = &domain.ServiceRequest{
		ID: 7, ClientID: 20, ProfessionalID: 3,
		PaymentStatus: domain.PaymentStatusPending,
	}
	req.Professionals[3] = &domain.Professional{ID: 3, UserID: 30}
	tok.Active[3] = &domain.OAuthToken{
		ID: 1, ProfessionalID: 3, AccessToken: "pro-token",
		ExpiresAt: time.Now().Add(time.Hour), IsActive: true,
	}

	svc := NewService(req, tok, txs, pv, "platform-token")
	return svc, req, tok, txs
}

func seedTransaction(t *testing.T, txs *storetest.Transactions, paymentID string) *domain.Transaction {
	t.Helper()
	tx := &domain.Transaction{
		ServiceRequestID: 7, ProfessionalID: 3, ClientID: 20,
		Status: domain.PaymentStatusPending, ExternalReference: "service-7",
	}
	if paymentID != "" {
		tx.PaymentID = &paymentID
	}
	require.NoError(t, txs.Insert(context.Background(), tx))
	return tx
}

func TestIgnoresNonPaymentNotifications(t *testing.T) {
	pv := &fakeProvider{}
	svc, req, _, txs := newFixture(pv)
	seedTransaction(t, txs, "123")

	out, err := svc.Process(context.Background(), notification("merchant_order", "123"))
	require.NoError(t, err)
	require.Equal(t, "notification ignored", out.Message)
	require.Empty(t, pv.tokens, "no provider calls for ignored types")
	require.Equal(t, domain.PaymentStatusPending, req.ServiceRequests[7].PaymentStatus)
}

func TestMissingPaymentID(t *testing.T) {
	svc, _, _, _ := newFixture(&fakeProvider{})

	_, err := svc.Process(context.Background(), notification("payment", ""))
	require.ErrorIs(t, err, ErrMissingPaymentID)
}

func TestApprovedMarksRequestPaid(t *testing.T) {
	pv := &fakeProvider{payments: map[string]*mercadopago.Payment{
		"123": {
			ID: 123, Status: "approved", ExternalReference: "service-7",
			TransactionAmount: 100, PaymentTypeID: "credit_card", PaymentMethodID: "visa",
		},
	}}
	svc, req, _, txs := newFixture(pv)
	seedTransaction(t, txs, "123")

	out, err := svc.Process(context.Background(), notification("payment", "123"))
	require.NoError(t, err)
	require.Equal(t, "payment processed", out.Message)

	sr := req.ServiceRequests[7]
	require.Equal(t, domain.PaymentStatusPaid, sr.PaymentStatus)
	require.True(t, sr.PaymentCompleted)

	tx := txs.Rows[0]
	require.Equal(t, "approved", tx.Status)
	require.NotNil(t, tx.PaymentID)
	require.Equal(t, "123", *tx.PaymentID)
	require.NotNil(t, tx.PaymentType)
	require.Equal(t, "credit_card", *tx.PaymentType)
	require.InDelta(t, 100.0, tx.TransactionAmount, 1e-9)
}

func TestRejectedRevertsRequest(t *testing.T) {
	for _, status := range []string{"rejected", "cancelled"} {
		pv := &fakeProvider{payments: map[string]*mercadopago.Payment{
			"123": {ID: 123, Status: status, ExternalReference: "service-7"},
		}}
		svc, req, _, txs := newFixture(pv)
		req.ServiceRequests[7].PaymentStatus = domain.PaymentStatusPaid
		req.ServiceRequests[7].PaymentCompleted = true
		seedTransaction(t, txs, "123")

		_, err := svc.Process(context.Background(), notification("payment", "123"))
		require.NoError(t, err, status)

		sr := req.ServiceRequests[7]
		require.Equal(t, domain.PaymentStatusPending, sr.PaymentStatus, status)
		require.False(t, sr.PaymentCompleted, status)
	}
}

func TestUnknownStatusLeavesRequestUntouched(t *testing.T) {
	pv := &fakeProvider{payments: map[string]*mercadopago.Payment{
		"123": {ID: 123, Status: "in_process", ExternalReference: "service-7"},
	}}
	svc, req, _, txs := newFixture(pv)
	seedTransaction(t, txs, "123")

	_, err := svc.Process(context.Background(), notification("payment", "123"))
	require.NoError(t, err)

	sr := req.ServiceRequests[7]
	require.Equal(t, domain.PaymentStatusPending, sr.PaymentStatus)
	require.False(t, sr.PaymentCompleted)
	// The transaction still records the provider's status.
	require.Equal(t, "in_process", txs.Rows[0].Status)
}

func TestFallbackResolutionByReference(t *testing.T) {
	pv := &fakeProvider{payments: map[string]*mercadopago.Payment{
		"555": {ID: 555, Status: "approved", ExternalReference: "service-7", TransactionAmount: 80},
	}}
	svc, req, _, txs := newFixture(pv)
	// Transaction exists but never saw a payment id: only the external
	// reference can recover it.
	seedTransaction(t, txs, "")

	out, err := svc.Process(context.Background(), notification("payment", "555"))
	require.NoError(t, err)
	require.Equal(t, "payment processed", out.Message)

	// First fetch under the platform token, second under the owner's.
	require.Equal(t, []string{"platform-token", "pro-token"}, pv.tokens)

	require.NotNil(t, txs.Rows[0].PaymentID)
	require.Equal(t, "555", *txs.Rows[0].PaymentID)
	require.Equal(t, domain.PaymentStatusPaid, req.ServiceRequests[7].PaymentStatus)
	require.True(t, req.ServiceRequests[7].PaymentCompleted)
}

func TestUnresolvedAcknowledges(t *testing.T) {
	svc, _, _, _ := newFixture(&fakeProvider{})

	out, err := svc.Process(context.Background(), notification("payment", "999"))
	require.NoError(t, err)
	require.Equal(t, "no matching transaction", out.Message)
}

func TestPlatformFetchFailureAcknowledges(t *testing.T) {
	pv := &fakeProvider{errFor: map[string]error{
		"platform-token": &mercadopago.APIError{Status: 500, Body: "upstream down"},
	}}
	svc, _, _, txs := newFixture(pv)
	seedTransaction(t, txs, "")

	out, err := svc.Process(context.Background(), notification("payment", "555"))
	require.NoError(t, err)
	require.Equal(t, "no matching transaction", out.Message)
}

func TestNoActiveTokenAcknowledges(t *testing.T) {
	pv := &fakeProvider{}
	svc, _, tok, txs := newFixture(pv)
	seedTransaction(t, txs, "123")
	delete(tok.Active, 3)

	out, err := svc.Process(context.Background(), notification("payment", "123"))
	require.NoError(t, err)
	require.Equal(t, "no active token", out.Message)
}

func TestOwnerFetchFailureErrors(t *testing.T) {
	pv := &fakeProvider{errFor: map[string]error{
		"pro-token": &mercadopago.APIError{Status: 500, Body: "upstream down"},
	}}
	svc, _, _, txs := newFixture(pv)
	seedTransaction(t, txs, "123")

	_, err := svc.Process(context.Background(), notification("payment", "123"))
	require.Error(t, err)
	var apiErr *mercadopago.APIError
	require.ErrorAs(t, err, &apiErr)
}
