package connect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"servipay/internal/domain"
	"servipay/internal/mercadopago"
	"servipay/internal/store/repositories"
	"servipay/internal/store/storetest"
)

type fakeProvider struct {
	resp        *mercadopago.TokenResponse
	err         error
	lastRefresh string
	calls       int
}

func (f *fakeProvider) AuthorizationURL(state string) string {
	return "https://auth.test/authorization?state=" + state
}

func (f *fakeProvider) RefreshToken(_ context.Context, refreshToken string) (*mercadopago.TokenResponse, error) {
	f.calls++
	f.lastRefresh = refreshToken
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func seedToken(tok *storetest.Tokens, req *storetest.Requests) {
	req.Professionals[3] = &domain.Professional{ID: 3, UserID: 30, MercadoPagoConnected: true}
	tok.Active[3] = &domain.OAuthToken{
		ID: 11, ProfessionalID: 3,
		AccessToken: "old-access", RefreshToken: "old-refresh",
		ExpiresAt: time.Now().Add(-time.Hour), IsActive: true,
	}
}

func TestAuthorizationURLCarriesProfessionalID(t *testing.T) {
	svc := NewService(storetest.NewTokens(), storetest.NewRequests(), &fakeProvider{})
	require.Equal(t, "https://auth.test/authorization?state=42", svc.AuthorizationURL(42))
}

func TestRefreshTokenSuccess(t *testing.T) {
	pv := &fakeProvider{resp: &mercadopago.TokenResponse{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresIn:    21600,
	}}
	tok, req := storetest.NewTokens(), storetest.NewRequests()
	seedToken(tok, req)
	svc := NewService(tok, req, pv)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	res, err := svc.RefreshToken(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, now.Add(21600*time.Second), res.ExpiresAt)
	require.Equal(t, "old-refresh", pv.lastRefresh)

	stored := tok.Active[3]
	require.Equal(t, "new-access", stored.AccessToken)
	require.Equal(t, "new-refresh", stored.RefreshToken)
	require.Equal(t, int64(21600), stored.ExpiresIn)
	require.Equal(t, now.Add(21600*time.Second), stored.ExpiresAt)
	require.True(t, stored.IsActive)
}

func TestRefreshTokenProviderFailureFailsClosed(t *testing.T) {
	pv := &fakeProvider{err: &mercadopago.APIError{Status: 400, Body: `{"error":"invalid_grant"}`}}
	tok, req := storetest.NewTokens(), storetest.NewRequests()
	seedToken(tok, req)
	svc := NewService(tok, req, pv)

	_, err := svc.RefreshToken(context.Background(), 3)
	require.ErrorIs(t, err, ErrProviderFailure)
	require.False(t, tok.Active[3].IsActive, "rejected token must be deactivated")
	require.False(t, req.Professionals[3].MercadoPagoConnected, "connection flag must be cleared")
}

func TestRefreshTokenNoActiveToken(t *testing.T) {
	svc := NewService(storetest.NewTokens(), storetest.NewRequests(), &fakeProvider{})

	_, err := svc.RefreshToken(context.Background(), 3)
	require.ErrorIs(t, err, repositories.ErrNotFound)
}
