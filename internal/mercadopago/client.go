package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"servipay/internal/config"
)

// APIError is a non-2xx answer from the MercadoPago API. The provider's error
// body is kept verbatim for logging.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: status %d; body=%s", e.Status, e.Body)
}

type Client struct {
	cfg  config.MercadoPagoCfg
	http *http.Client
}

func New(cfg config.MercadoPagoCfg) *Client {
	return &Client{cfg: cfg, http: &http.Client{Timeout: 15 * time.Second}}
}

// AuthorizationURL builds the OAuth authorization URL a professional visits to
// link their MercadoPago account. The state is opaque to MercadoPago and comes
// back on the redirect to correlate the callback with the professional.
func (c *Client) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.AppID)
	q.Set("response_type", "code")
	q.Set("platform_id", "mp")
	q.Set("state", state)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	return c.cfg.AuthBaseURL + "/authorization?" + q.Encode()
}

// RefreshToken exchanges a stored refresh token for a fresh credential.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	payload := map[string]string{
		"client_id":     c.cfg.AppID,
		"client_secret": c.cfg.ClientSecret,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}
	var out TokenResponse
	if err := c.post(ctx, "/oauth/token", "", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePreference creates a hosted checkout preference under the given
// professional's access token.
func (c *Client) CreatePreference(ctx context.Context, accessToken string, req PreferenceRequest) (*Preference, error) {
	var out Preference
	if err := c.post(ctx, "/checkout/preferences", accessToken, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPayment fetches a payment by id under the given access token.
func (c *Client) GetPayment(ctx context.Context, accessToken, paymentID string) (*Payment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v1/payments/"+url.PathEscape(paymentID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return nil, &APIError{Status: res.StatusCode, Body: string(b)}
	}

	var out Payment
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path, accessToken string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return &APIError{Status: res.StatusCode, Body: string(body)}
	}
	return json.NewDecoder(res.Body).Decode(out)
}
