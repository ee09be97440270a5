package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"servipay/internal/domain"
)

// requestRepository implements repositories.RequestRepository.
type requestRepository struct {
	db *pgxpool.Pool
}

func NewRequestRepository(db *pgxpool.Pool) *requestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) FindServiceRequest(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, client_id, professional_id, payment_link,
		       COALESCE(payment_status, 'pending'),
		       COALESCE(payment_completed, false)
		FROM service_requests
		WHERE id = $1`, id)

	var sr domain.ServiceRequest
	if err := row.Scan(
		&sr.ID, &sr.ClientID, &sr.ProfessionalID, &sr.PaymentLink,
		&sr.PaymentStatus, &sr.PaymentCompleted,
	); err != nil {
		return nil, mapErr(err)
	}
	return &sr, nil
}

func (r *requestRepository) SetPaymentLink(ctx context.Context, id int64, link, status string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE service_requests
		   SET payment_link = $2, payment_status = $3, updated_at = now()
		 WHERE id = $1`, id, link, status)
	return err
}

func (r *requestRepository) SetPaymentState(ctx context.Context, id int64, status string, completed bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE service_requests
		   SET payment_status = $2, payment_completed = $3, updated_at = now()
		 WHERE id = $1`, id, status, completed)
	return err
}

func (r *requestRepository) FindProfessional(ctx context.Context, id int64) (*domain.Professional, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, COALESCE(mercadopago_connected, false)
		FROM professionals
		WHERE id = $1`, id)

	var p domain.Professional
	if err := row.Scan(&p.ID, &p.UserID, &p.MercadoPagoConnected); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *requestRepository) SetProfessionalConnected(ctx context.Context, professionalID int64, connected bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE professionals
		   SET mercadopago_connected = $2, updated_at = now()
		 WHERE id = $1`, professionalID, connected)
	return err
}

func (r *requestRepository) FindProfileByUserID(ctx context.Context, userID int64) (*domain.Profile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, full_name
		FROM profiles
		WHERE user_id = $1`, userID)

	var p domain.Profile
	if err := row.Scan(&p.UserID, &p.FullName); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}
