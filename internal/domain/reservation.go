package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusPending    ReservationStatus = "PENDING"
	ReservationStatusConfirmed  ReservationStatus = "CONFIRMED"
	ReservationStatusCheckedIn  ReservationStatus = "CHECKED_IN"
	ReservationStatusCheckedOut ReservationStatus = "CHECKED_OUT"
	ReservationStatusCancelled  ReservationStatus = "CANCELLED"
	ReservationStatusNoShow     ReservationStatus = "NO_SHOW"
)

var transitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:   {ReservationStatusConfirmed, ReservationStatusCancelled},
	ReservationStatusConfirmed: {ReservationStatusCheckedIn, ReservationStatusNoShow, ReservationStatusCancelled},
	ReservationStatusCheckedIn: {ReservationStatusCheckedOut, ReservationStatusCancelled},
	ReservationStatusNoShow:    {ReservationStatusCancelled},
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCheckedIn,
		ReservationStatusCheckedOut, ReservationStatusCancelled, ReservationStatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCancelled || s == ReservationStatusCheckedOut
}

// BlocksInventory reports whether a reservation in status s occupies its
// room for availability purposes. PENDING holds do not.
func (s ReservationStatus) BlocksInventory() bool {
	return s == ReservationStatusConfirmed || s == ReservationStatusCheckedIn
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Reservation occupies its room over the half-open range [CheckIn, CheckOut).
// CheckIn and CheckOut are calendar dates at midnight in the hotel timezone.
type Reservation struct {
	ID                  int64             `json:"id"`
	RoomID              int64             `json:"room_id"`
	UserID              string            `json:"user_id"`
	CheckIn             time.Time         `json:"check_in"`
	CheckOut            time.Time         `json:"check_out"`
	Guests              int               `json:"guests"`
	Status              ReservationStatus `json:"status"`
	TotalAmountCents    int64             `json:"total_amount_cents"`
	DiscountRate        float64           `json:"discount_rate"`
	GroupID             *string           `json:"group_id,omitempty"`
	HasCreditCardOnFile bool              `json:"has_credit_card_on_file"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
