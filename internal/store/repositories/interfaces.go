package repositories

import (
	"context"
	"errors"
	"time"

	"servipay/internal/domain"
)

// ErrNotFound is returned when a referenced entity does not exist. Services
// branch on it to tell "absent" apart from store failures.
var ErrNotFound = errors.New("not found")

// RequestRepository defines data access for service requests and the people
// attached to them.
type RequestRepository interface {
	FindServiceRequest(ctx context.Context, id int64) (*domain.ServiceRequest, error)
	SetPaymentLink(ctx context.Context, id int64, link, status string) error
	SetPaymentState(ctx context.Context, id int64, status string, completed bool) error
	FindProfessional(ctx context.Context, id int64) (*domain.Professional, error)
	SetProfessionalConnected(ctx context.Context, professionalID int64, connected bool) error
	FindProfileByUserID(ctx context.Context, userID int64) (*domain.Profile, error)
}

// TokenRepository defines data access for MercadoPago OAuth credentials.
type TokenRepository interface {
	FindActiveByProfessional(ctx context.Context, professionalID int64) (*domain.OAuthToken, error)
	UpdateTokens(ctx context.Context, id int64, accessToken, refreshToken string, expiresIn int64, expiresAt time.Time) error
	Deactivate(ctx context.Context, id int64) error
}

// TransactionRepository defines data access for payment attempts.
type TransactionRepository interface {
	Insert(ctx context.Context, tx *domain.Transaction) error
	FindByPaymentID(ctx context.Context, paymentID string) (*domain.Transaction, error)
	FindByServiceRequestID(ctx context.Context, serviceRequestID int64) (*domain.Transaction, error)
	UpdateFromPayment(ctx context.Context, id int64, paymentID, status, paymentType, paymentMethod string, amount float64) error
	ListByProfessional(ctx context.Context, professionalID int64, limit, offset int) ([]domain.Transaction, error)
}
