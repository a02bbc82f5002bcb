package kafka

import (
	"time"

	"github.com/google/uuid"

	"github.com/minfaz98/cozy-stay/internal/domain"
)

const (
	EventReservationCreated   = "reservation_created"
	EventReservationConfirmed = "reservation_confirmed"
	EventReservationUpdated   = "reservation_updated"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationExpired   = "reservation_expired"
	EventReservationCheckedIn = "reservation_checked_in"
	EventReservationNoShow    = "reservation_no_show"
	EventCheckoutCompleted    = "checkout_completed"
	EventPaymentRecorded      = "payment_recorded"
)

type ReservationEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	ReservationID int64     `json:"reservation_id"`
	RoomID        int64     `json:"room_id"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	TotalCents    int64     `json:"total_amount_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewReservationEvent(eventType string, r *domain.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		ReservationID: r.ID,
		RoomID:        r.RoomID,
		UserID:        r.UserID,
		Status:        string(r.Status),
		CheckIn:       r.CheckIn.Format(time.DateOnly),
		CheckOut:      r.CheckOut.Format(time.DateOnly),
		TotalCents:    r.TotalAmountCents,
		OccurredAt:    at,
	}
}

// DailySnapshot asks the reporting subsystem to capture the day's activity.
type DailySnapshot struct {
	ID         string    `json:"id"`
	Day        string    `json:"day"`
	Cancelled  []int64   `json:"cancelled"`
	NoShows    []int64   `json:"no_shows"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
