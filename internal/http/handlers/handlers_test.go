package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"servipay/internal/config"
	"servipay/internal/mercadopago"
	"servipay/internal/services/checkout"
	"servipay/internal/services/connect"
	"servipay/internal/services/webhook"
	"servipay/internal/store/storetest"
)

func testClient() *mercadopago.Client {
	return mercadopago.New(config.MercadoPagoCfg{
		AppID:       "app-123",
		RedirectURI: "https://app.servipay.test/mp/callback",
		BaseURL:     "https://api.mercadopago.test",
		AuthBaseURL: "https://auth.mercadopago.test",
	})
}

func TestOAuthInitRequiresProfessionalID(t *testing.T) {
	h := OAuthInit(connect.NewService(storetest.NewTokens(), storetest.NewRequests(), testClient()))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/oauth/init", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "professional_id")
	require.NotContains(t, rec.Body.String(), "authorizationUrl")
}

func TestOAuthInitBuildsURL(t *testing.T) {
	h := OAuthInit(connect.NewService(storetest.NewTokens(), storetest.NewRequests(), testClient()))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/oauth/init?professional_id=42", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "authorizationUrl")
	require.Contains(t, rec.Body.String(), "state=42")
}

func TestRefreshTokenValidation(t *testing.T) {
	h := RefreshToken(connect.NewService(storetest.NewTokens(), storetest.NewRequests(), testClient()))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/token/refresh", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/token/refresh", strings.NewReader(`not json`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshTokenNoActiveToken(t *testing.T) {
	h := RefreshToken(connect.NewService(storetest.NewTokens(), storetest.NewRequests(), testClient()))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/token/refresh", strings.NewReader(`{"professionalId":3}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func newCheckoutService() *checkout.Service {
	return checkout.NewService(
		storetest.NewRequests(), storetest.NewTokens(), storetest.NewTransactions(),
		testClient(), config.AppCfg{},
	)
}

func TestCreatePaymentValidation(t *testing.T) {
	h := CreatePayment(newCheckoutService())

	for _, body := range []string{`{}`, `{"serviceRequestId":7}`, `{"amount":100}`} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCreatePaymentUnknownServiceRequest(t *testing.T) {
	h := CreatePayment(newCheckoutService())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/payments",
		strings.NewReader(`{"serviceRequestId":99,"amount":100}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "service request not found")
}

func newWebhookService() *webhook.Service {
	return webhook.NewService(
		storetest.NewRequests(), storetest.NewTokens(), storetest.NewTransactions(),
		testClient(), "",
	)
}

func TestWebhookIgnoresNonPaymentType(t *testing.T) {
	h := Webhook(newWebhookService())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/payments/webhook",
		strings.NewReader(`{"type":"merchant_order","data":{"id":"1"}}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "notification ignored")
}

func TestWebhookRequiresPaymentID(t *testing.T) {
	h := Webhook(newWebhookService())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/payments/webhook",
		strings.NewReader(`{"type":"payment","data":{}}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTransactionsRequiresProfessionalID(t *testing.T) {
	h := ListTransactions(newCheckoutService())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/payments/transactions", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
