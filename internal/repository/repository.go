package repository

import (
	"context"
	"time"

	"github.com/minfaz98/cozy-stay/internal/domain"
)

type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	List(ctx context.Context) ([]domain.Room, error)
	ListByType(ctx context.Context, roomType domain.RoomType) ([]domain.Room, error)
	UpdateStatus(ctx context.Context, id int64, status domain.RoomStatus) error
}

// StatusChange moves a reservation from From to To only if it is still in
// From when the write commits. RoomStatus, when set, is applied to the
// reservation's room in the same transaction. ChargesCents, when set, must
// still equal the total of the reservation's optional charges or the change
// fails with domain.ErrPayment.
type StatusChange struct {
	ReservationID int64
	From          domain.ReservationStatus
	To            domain.ReservationStatus
	RoomStatus    *domain.RoomStatus
	ChargesCents  *int64
}

type ReservationRepository interface {
	// Create inserts the reservation and, if given, its masked card. When the
	// status blocks inventory the room is locked and re-checked for overlaps
	// before insert; a conflict yields domain.ErrRoomUnavailable.
	Create(ctx context.Context, reservation *domain.Reservation, card *domain.CreditCard) error
	// CreateBatch inserts every reservation of a bulk group atomically.
	CreateBatch(ctx context.Context, reservations []*domain.Reservation, card *domain.CreditCard) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	// ListBlockingByRoom returns CONFIRMED and CHECKED_IN reservations of the
	// room that intersect [from, to).
	ListBlockingByRoom(ctx context.Context, roomID int64, from, to time.Time) ([]domain.Reservation, error)
	// Reschedule persists new room, dates and total, re-checking overlaps
	// against every other blocking reservation of the target room. The write
	// only applies while the stored status still equals reservation.Status.
	// A non-nil change moves the status (From must equal reservation.Status)
	// and sets the target room's status in the same write.
	Reschedule(ctx context.Context, reservation *domain.Reservation, change *StatusChange) error
	// Confirm attaches the card and moves PENDING to CONFIRMED after an
	// overlap re-check.
	Confirm(ctx context.Context, id int64, card domain.CreditCard) (*domain.Reservation, error)
	Transition(ctx context.Context, change StatusChange) (*domain.Reservation, error)
	// MarkNoShow moves a CONFIRMED reservation without any billing record to
	// NO_SHOW and appends record, as one transaction.
	MarkNoShow(ctx context.Context, id int64, record *domain.BillingRecord) (*domain.Reservation, error)
	ListPendingWithoutCard(ctx context.Context, createdBefore time.Time) ([]domain.Reservation, error)
	// ListOverdueConfirmed returns CONFIRMED reservations with check-in before
	// day and check-out on or after day that have no billing record.
	ListOverdueConfirmed(ctx context.Context, day time.Time) ([]domain.Reservation, error)
}

type BillingRepository interface {
	Append(ctx context.Context, record *domain.BillingRecord) error
	ListByReservation(ctx context.Context, reservationID int64) ([]domain.BillingRecord, error)
}

type ChargeRepository interface {
	// Add appends a charge unless the reservation is CHECKED_OUT or
	// CANCELLED, which yields domain.ErrInvalidStateTransition.
	Add(ctx context.Context, charge *domain.OptionalCharge) error
	ListByReservation(ctx context.Context, reservationID int64) ([]domain.OptionalCharge, error)
}
