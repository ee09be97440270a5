package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servipay/internal/domain"
)

const transactionColumns = `
	id, service_request_id, professional_id, client_id,
	preference_id, payment_id, status, payment_type, payment_method,
	transaction_amount, application_fee, net_amount,
	external_reference, mp_user_id, created_at, updated_at`

// transactionRepository implements repositories.TransactionRepository.
type transactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *transactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Insert(ctx context.Context, t *domain.Transaction) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO mercadopago_transactions (
			service_request_id, professional_id, client_id,
			preference_id, payment_id, status,
			transaction_amount, application_fee, net_amount,
			external_reference, mp_user_id
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`,
		t.ServiceRequestID, t.ProfessionalID, t.ClientID,
		t.PreferenceID, t.PaymentID, t.Status,
		t.TransactionAmount, t.ApplicationFee, t.NetAmount,
		t.ExternalReference, t.MPUserID,
	)
	return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *transactionRepository) FindByPaymentID(ctx context.Context, paymentID string) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM mercadopago_transactions
		WHERE payment_id = $1
		ORDER BY id DESC
		LIMIT 1`, paymentID)
	return scanTransaction(row)
}

func (r *transactionRepository) FindByServiceRequestID(ctx context.Context, serviceRequestID int64) (*domain.Transaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM mercadopago_transactions
		WHERE service_request_id = $1
		ORDER BY id DESC
		LIMIT 1`, serviceRequestID)
	return scanTransaction(row)
}

func (r *transactionRepository) UpdateFromPayment(ctx context.Context, id int64, paymentID, status, paymentType, paymentMethod string, amount float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE mercadopago_transactions
		   SET payment_id = $2, status = $3,
		       payment_type = NULLIF($4, ''), payment_method = NULLIF($5, ''),
		       transaction_amount = CASE WHEN $6 > 0 THEN $6 ELSE transaction_amount END,
		       updated_at = now()
		 WHERE id = $1`, id, paymentID, status, paymentType, paymentMethod, amount)
	return err
}

func (r *transactionRepository) ListByProfessional(ctx context.Context, professionalID int64, limit, offset int) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM mercadopago_transactions
		WHERE professional_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, professionalID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := row.Scan(
		&t.ID, &t.ServiceRequestID, &t.ProfessionalID, &t.ClientID,
		&t.PreferenceID, &t.PaymentID, &t.Status, &t.PaymentType, &t.PaymentMethod,
		&t.TransactionAmount, &t.ApplicationFee, &t.NetAmount,
		&t.ExternalReference, &t.MPUserID, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}
