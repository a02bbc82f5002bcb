package domain

import "time"

type BillingStatus string

const (
	BillingStatusPending   BillingStatus = "PENDING"
	BillingStatusCompleted BillingStatus = "COMPLETED"
	BillingStatusFailed    BillingStatus = "FAILED"
)

// PaymentMethodNoShow marks the pending record raised by the daily sweep.
const PaymentMethodNoShow = "NO_SHOW"

// BillingRecord is an append-only ledger entry for a reservation.
type BillingRecord struct {
	ID            int64         `json:"id"`
	ReservationID int64         `json:"reservation_id"`
	AmountCents   int64         `json:"amount_cents"`
	Status        BillingStatus `json:"status"`
	PaymentMethod string        `json:"payment_method"`
	CreatedAt     time.Time     `json:"created_at"`
}

// OptionalCharge is an incidental charge (minibar, laundry) added during a stay.
type OptionalCharge struct {
	ID            int64     `json:"id"`
	ReservationID int64     `json:"reservation_id"`
	Description   string    `json:"description"`
	AmountCents   int64     `json:"amount_cents"`
	CreatedAt     time.Time `json:"created_at"`
}

type Invoice struct {
	ReservationID        int64            `json:"reservation_id"`
	Nights               int              `json:"nights"`
	NightlyPriceCents    int64            `json:"nightly_price_cents"`
	RoomChargesCents     int64            `json:"room_charges_cents"`
	OptionalCharges      []OptionalCharge `json:"optional_charges"`
	OptionalChargesCents int64            `json:"optional_charges_cents"`
	LateCheckoutCents    int64            `json:"late_checkout_cents"`
	TotalAmountCents     int64            `json:"total_amount_cents"`
	PaidAmountCents      int64            `json:"paid_amount_cents"`
	RemainingAmountCents int64            `json:"remaining_amount_cents"`
	GeneratedAt          time.Time        `json:"generated_at"`
}
