// Package storetest provides in-memory repository implementations for unit
// tests. Every type also takes an Err field that, when set, fails all calls,
// for exercising store-failure paths.
package storetest

import (
	"context"
	"time"

	"servipay/internal/domain"
	"servipay/internal/store/repositories"
)

// Requests implements repositories.RequestRepository.
type Requests struct {
	ServiceRequests map[int64]*domain.ServiceRequest
	Professionals   map[int64]*domain.Professional
	Profiles        map[int64]*domain.Profile
	Err             error
}

func NewRequests() *Requests {
	return &Requests{
		ServiceRequests: map[int64]*domain.ServiceRequest{},
		Professionals:   map[int64]*domain.Professional{},
		Profiles:        map[int64]*domain.Profile{},
	}
}

func (r *Requests) FindServiceRequest(_ context.Context, id int64) (*domain.ServiceRequest, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	sr, ok := r.ServiceRequests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return sr, nil
}

func (r *Requests) SetPaymentLink(_ context.Context, id int64, link, status string) error {
	if r.Err != nil {
		return r.Err
	}
	if sr, ok := r.ServiceRequests[id]; ok {
		sr.PaymentLink = &link
		sr.PaymentStatus = status
	}
	return nil
}

func (r *Requests) SetPaymentState(_ context.Context, id int64, status string, completed bool) error {
	if r.Err != nil {
		return r.Err
	}
	if sr, ok := r.ServiceRequests[id]; ok {
		sr.PaymentStatus = status
		sr.PaymentCompleted = completed
	}
	return nil
}

func (r *Requests) FindProfessional(_ context.Context, id int64) (*domain.Professional, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	p, ok := r.Professionals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

func (r *Requests) SetProfessionalConnected(_ context.Context, professionalID int64, connected bool) error {
	if r.Err != nil {
		return r.Err
	}
	if p, ok := r.Professionals[professionalID]; ok {
		p.MercadoPagoConnected = connected
	}
	return nil
}

func (r *Requests) FindProfileByUserID(_ context.Context, userID int64) (*domain.Profile, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	p, ok := r.Profiles[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

// Tokens implements repositories.TokenRepository. Rows are keyed by
// professional id, mirroring the one-active-token invariant.
type Tokens struct {
	Active map[int64]*domain.OAuthToken
	Err    error
}

func NewTokens() *Tokens {
	return &Tokens{Active: map[int64]*domain.OAuthToken{}}
}

func (t *Tokens) FindActiveByProfessional(_ context.Context, professionalID int64) (*domain.OAuthToken, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	tok, ok := t.Active[professionalID]
	if !ok || !tok.IsActive {
		return nil, repositories.ErrNotFound
	}
	return tok, nil
}

func (t *Tokens) UpdateTokens(_ context.Context, id int64, accessToken, refreshToken string, expiresIn int64, expiresAt time.Time) error {
	if t.Err != nil {
		return t.Err
	}
	for _, tok := range t.Active {
		if tok.ID == id {
			tok.AccessToken = accessToken
			tok.RefreshToken = refreshToken
			tok.ExpiresIn = expiresIn
			tok.ExpiresAt = expiresAt
		}
	}
	return nil
}

func (t *Tokens) Deactivate(_ context.Context, id int64) error {
	if t.Err != nil {
		return t.Err
	}
	for _, tok := range t.Active {
		if tok.ID == id {
			tok.IsActive = false
		}
	}
	return nil
}

// Transactions implements repositories.TransactionRepository.
type Transactions struct {
	Rows   []*domain.Transaction
	Err    error
	nextID int64
}

func NewTransactions() *Transactions { return &Transactions{} }

func (s *Transactions) Insert(_ context.Context, tx *domain.Transaction) error {
	if s.Err != nil {
		return s.Err
	}
	s.nextID++
	tx.ID = s.nextID
	tx.CreatedAt = time.Now()
	tx.UpdatedAt = tx.CreatedAt
	s.Rows = append(s.Rows, tx)
	return nil
}

func (s *Transactions) FindByPaymentID(_ context.Context, paymentID string) (*domain.Transaction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	for i := len(s.Rows) - 1; i >= 0; i-- {
		if s.Rows[i].PaymentID != nil && *s.Rows[i].PaymentID == paymentID {
			return s.Rows[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Transactions) FindByServiceRequestID(_ context.Context, serviceRequestID int64) (*domain.Transaction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	for i := len(s.Rows) - 1; i >= 0; i-- {
		if s.Rows[i].ServiceRequestID == serviceRequestID {
			return s.Rows[i], nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Transactions) UpdateFromPayment(_ context.Context, id int64, paymentID, status, paymentType, paymentMethod string, amount float64) error {
	if s.Err != nil {
		return s.Err
	}
	for _, tx := range s.Rows {
		if tx.ID != id {
			continue
		}
		tx.PaymentID = &paymentID
		tx.Status = status
		if paymentType != "" {
			tx.PaymentType = &paymentType
		}
		if paymentMethod != "" {
			tx.PaymentMethod = &paymentMethod
		}
		if amount > 0 {
			tx.TransactionAmount = amount
		}
		tx.UpdatedAt = time.Now()
	}
	return nil
}

func (s *Transactions) ListByProfessional(_ context.Context, professionalID int64, limit, offset int) ([]domain.Transaction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	var all []domain.Transaction
	for i := len(s.Rows) - 1; i >= 0; i-- {
		if s.Rows[i].ProfessionalID == professionalID {
			all = append(all, *s.Rows[i])
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
