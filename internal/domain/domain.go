package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ServiceRequest is a job agreed between a client and a professional. Payment
// fields are the only ones this service mutates.
type ServiceRequest struct {
	ID               int64
	ClientID         int64
	ProfessionalID   int64
	PaymentLink      *string
	PaymentStatus    string
	PaymentCompleted bool
}

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Professional maps a platform user to a professional record.
type Professional struct {
	ID                   int64
	UserID               int64
	MercadoPagoConnected bool
}

// Profile carries display data only. FullName is nullable; callers degrade to
// a placeholder name when it is missing.
type Profile struct {
	UserID   int64
	FullName *string
}

// OAuthToken is a professional's MercadoPago credential. At most one row per
// professional has IsActive=true.
type OAuthToken struct {
	ID             int64
	ProfessionalID int64
	AccessToken    string
	RefreshToken   string
	ExpiresIn      int64
	ExpiresAt      time.Time
	IsActive       bool
	MPUserID       int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Expired reports whether the token's expiry is strictly in the past.
func (t OAuthToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// Transaction records one payment attempt for a service request.
type Transaction struct {
	ID                int64     `json:"id"`
	ServiceRequestID  int64     `json:"serviceRequestId"`
	ProfessionalID    int64     `json:"professionalId"`
	ClientID          int64     `json:"clientId"`
	PreferenceID      string    `json:"preferenceId"`
	PaymentID         *string   `json:"paymentId"`
	Status            string    `json:"status"`
	PaymentType       *string   `json:"paymentType"`
	PaymentMethod     *string   `json:"paymentMethod"`
	TransactionAmount float64   `json:"transactionAmount"`
	ApplicationFee    float64   `json:"applicationFee"`
	NetAmount         float64   `json:"netAmount"`
	ExternalReference string    `json:"externalReference"`
	MPUserID          int64     `json:"mpUserId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

const referencePrefix = "service-"

// ExternalReference derives the provider-side correlation key for a service
// request. It is the join key used to recover a transaction when a webhook
// arrives before the transaction carries the provider's payment id.
func ExternalReference(serviceRequestID int64) string {
	return fmt.Sprintf("%s%d", referencePrefix, serviceRequestID)
}

// ServiceRequestIDFromReference reverses ExternalReference. ok is false when
// the reference does not carry the expected prefix and a numeric id.
func ServiceRequestIDFromReference(ref string) (int64, bool) {
	s, found := strings.CutPrefix(ref, referencePrefix)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// PaymentOutcome maps a provider payment status onto service request fields.
// approved marks the request paid; rejected and cancelled revert it to
// pending; any other status leaves the request untouched (changed=false).
func PaymentOutcome(providerStatus string) (paymentStatus string, completed bool, changed bool) {
	switch providerStatus {
	case "approved":
		return PaymentStatusPaid, true, true
	case "rejected", "cancelled":
		return PaymentStatusPending, false, true
	default:
		return "", false, false
	}
}
