// Package connect handles a professional's MercadoPago account linkage: the
// OAuth authorization URL and on-demand refresh of the stored credential.
package connect

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"servipay/internal/mercadopago"
	"servipay/internal/store/repositories"
)

// ErrProviderFailure marks a refresh the provider rejected. The credential is
// already deactivated by the time callers see it.
var ErrProviderFailure = errors.New("mercadopago token refresh failed")

// Provider is the slice of the MercadoPago client this service needs.
type Provider interface {
	AuthorizationURL(state string) string
	RefreshToken(ctx context.Context, refreshToken string) (*mercadopago.TokenResponse, error)
}

type Service struct {
	tokens   repositories.TokenRepository
	requests repositories.RequestRepository
	mp       Provider
	now      func() time.Time
}

func NewService(tokens repositories.TokenRepository, requests repositories.RequestRepository, mp Provider) *Service {
	return &Service{tokens: tokens, requests: requests, mp: mp, now: time.Now}
}

// AuthorizationURL builds the URL a professional visits to authorize the
// marketplace. The professional id travels as the opaque OAuth state so the
// callback can attribute the resulting credential.
func (s *Service) AuthorizationURL(professionalID int64) string {
	return s.mp.AuthorizationURL(strconv.FormatInt(professionalID, 10))
}

type RefreshResult struct {
	ExpiresAt time.Time
}

// RefreshToken exchanges the professional's stored refresh token for a new
// credential. A provider rejection fails closed: the token is deactivated and
// the professional marked disconnected, so a stale credential cannot keep
// being reused.
func (s *Service) RefreshToken(ctx context.Context, professionalID int64) (*RefreshResult, error) {
	tok, err := s.tokens.FindActiveByProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	res, err := s.mp.RefreshToken(ctx, tok.RefreshToken)
	if err != nil {
		log.Error().Err(err).
			Int64("professional_id", professionalID).
			Int64("token_id", tok.ID).
			Msg("token refresh rejected, deactivating credential")
		if derr := s.tokens.Deactivate(ctx, tok.ID); derr != nil {
			log.Error().Err(derr).Int64("token_id", tok.ID).Msg("deactivate token failed")
		}
		if derr := s.requests.SetProfessionalConnected(ctx, professionalID, false); derr != nil {
			log.Error().Err(derr).Int64("professional_id", professionalID).Msg("clear connected flag failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	expiresAt := s.now().Add(time.Duration(res.ExpiresIn) * time.Second)
	if err := s.tokens.UpdateTokens(ctx, tok.ID, res.AccessToken, res.RefreshToken, res.ExpiresIn, expiresAt); err != nil {
		return nil, fmt.Errorf("persist refreshed token: %w", err)
	}
	return &RefreshResult{ExpiresAt: expiresAt}, nil
}
