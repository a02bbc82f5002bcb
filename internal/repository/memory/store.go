// Package memory is an in-process implementation of the repository
// interfaces. A single mutex makes every method atomic, which gives the same
// check-then-write guarantees the Postgres implementation gets from row locks
// and the exclusion constraint.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/repository"
)

type Store struct {
	mu sync.Mutex

	now func() time.Time

	rooms        map[int64]domain.Room
	reservations map[int64]domain.Reservation
	cards        map[int64]domain.CreditCard
	billing      []domain.BillingRecord
	charges      []domain.OptionalCharge

	nextRoomID        int64
	nextReservationID int64
	nextBillingID     int64
	nextChargeID      int64
}

type Option func(*Store)

// WithNow overrides the timestamp source used for created_at/updated_at.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		now:          time.Now,
		rooms:        make(map[int64]domain.Room),
		reservations: make(map[int64]domain.Reservation),
		cards:        make(map[int64]domain.CreditCard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Rooms() repository.RoomRepository               { return roomRepo{s} }
func (s *Store) Reservations() repository.ReservationRepository { return reservationRepo{s} }
func (s *Store) Billing() repository.BillingRepository          { return billingRepo{s} }
func (s *Store) Charges() repository.ChargeRepository           { return chargeRepo{s} }

// AddRoom seeds a room and returns it with its assigned id.
func (s *Store) AddRoom(room domain.Room) domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRoomID++
	room.ID = s.nextRoomID
	if room.Status == "" {
		room.Status = domain.RoomStatusAvailable
	}
	room.CreatedAt = s.now()
	room.UpdatedAt = room.CreatedAt
	s.rooms[room.ID] = room
	return room
}

// Card returns the stored (masked) card for a reservation.
func (s *Store) Card(reservationID int64) (domain.CreditCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[reservationID]
	return card, ok
}

// Snapshot returns every reservation ordered by id.
func (s *Store) Snapshot() []domain.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sortedReservations(func(domain.Reservation) bool { return true })
}

func (s *Store) sortedReservations(keep func(domain.Reservation) bool) []domain.Reservation {
	var out []domain.Reservation
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) checkOverlap(roomID int64, from, to time.Time, excludeID int64) error {
	for _, r := range s.reservations {
		if r.ID == excludeID || r.RoomID != roomID || !r.Status.BlocksInventory() {
			continue
		}
		if domain.Overlaps(from, to, r.CheckIn, r.CheckOut) {
			return fmt.Errorf("%w: room %d is booked between %s and %s", domain.ErrRoomUnavailable, roomID,
				r.CheckIn.Format(time.DateOnly), r.CheckOut.Format(time.DateOnly))
		}
	}
	return nil
}

func (s *Store) hasBilling(reservationID int64) bool {
	for _, b := range s.billing {
		if b.ReservationID == reservationID {
			return true
		}
	}
	return false
}

func (s *Store) chargesTotal(reservationID int64) int64 {
	var total int64
	for _, c := range s.charges {
		if c.ReservationID == reservationID {
			total += c.AmountCents
		}
	}
	return total
}

func (s *Store) setRoomStatus(id int64, status domain.RoomStatus) error {
	room, ok := s.rooms[id]
	if !ok {
		return fmt.Errorf("%w: id %d", domain.ErrRoomNotFound, id)
	}
	room.Status = status
	room.UpdatedAt = s.now()
	s.rooms[id] = room
	return nil
}

func (s *Store) appendBilling(record *domain.BillingRecord) {
	s.nextBillingID++
	record.ID = s.nextBillingID
	record.CreatedAt = s.now()
	s.billing = append(s.billing, *record)
}

type roomRepo struct{ s *Store }

func (r roomRepo) GetByID(_ context.Context, id int64) (*domain.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrRoomNotFound, id)
	}
	return &room, nil
}

func (r roomRepo) List(_ context.Context) ([]domain.Room, error) {
	return r.list(func(domain.Room) bool { return true }), nil
}

func (r roomRepo) ListByType(_ context.Context, roomType domain.RoomType) ([]domain.Room, error) {
	return r.list(func(room domain.Room) bool { return room.Type == roomType }), nil
}

func (r roomRepo) list(keep func(domain.Room) bool) []domain.Room {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []domain.Room
	for _, room := range r.s.rooms {
		if keep(room) {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (r roomRepo) UpdateStatus(_ context.Context, id int64, status domain.RoomStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.setRoomStatus(id, status)
}

type reservationRepo struct{ s *Store }

func (r reservationRepo) Create(_ context.Context, reservation *domain.Reservation, card *domain.CreditCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.validateInsert(reservation); err != nil {
		return err
	}
	r.insert(reservation, card)
	return nil
}

func (r reservationRepo) CreateBatch(_ context.Context, reservations []*domain.Reservation, card *domain.CreditCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// validate the whole group first so a conflict leaves nothing behind
	for i, reservation := range reservations {
		if err := r.validateInsert(reservation); err != nil {
			return err
		}
		for _, other := range reservations[:i] {
			if other.RoomID == reservation.RoomID && domain.Overlaps(other.CheckIn, other.CheckOut, reservation.CheckIn, reservation.CheckOut) {
				return fmt.Errorf("%w: room %d requested twice", domain.ErrRoomUnavailable, reservation.RoomID)
			}
		}
	}
	for _, reservation := range reservations {
		r.insert(reservation, card)
	}
	return nil
}

func (r reservationRepo) validateInsert(reservation *domain.Reservation) error {
	if _, ok := r.s.rooms[reservation.RoomID]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrRoomNotFound, reservation.RoomID)
	}
	if reservation.Status.BlocksInventory() {
		return r.s.checkOverlap(reservation.RoomID, reservation.CheckIn, reservation.CheckOut, 0)
	}
	return nil
}

func (r reservationRepo) insert(reservation *domain.Reservation, card *domain.CreditCard) {
	r.s.nextReservationID++
	reservation.ID = r.s.nextReservationID
	reservation.HasCreditCardOnFile = card != nil
	reservation.CreatedAt = r.s.now()
	reservation.UpdatedAt = reservation.CreatedAt
	r.s.reservations[reservation.ID] = *reservation

	if card != nil {
		r.s.cards[reservation.ID] = card.Masked()
	}
	if reservation.Status == domain.ReservationStatusCheckedIn {
		_ = r.s.setRoomStatus(reservation.RoomID, domain.RoomStatusOccupied)
	}
}

func (r reservationRepo) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	return &res, nil
}

func (r reservationRepo) ListBlockingByRoom(_ context.Context, roomID int64, from, to time.Time) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.sortedReservations(func(res domain.Reservation) bool {
		return res.RoomID == roomID && res.Status.BlocksInventory() && domain.Overlaps(from, to, res.CheckIn, res.CheckOut)
	}), nil
}

func (r reservationRepo) Reschedule(_ context.Context, reservation *domain.Reservation, change *repository.StatusChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.reservations[reservation.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", domain.ErrNotFound, reservation.ID)
	}
	if current.Status != reservation.Status || (change != nil && change.From != current.Status) {
		return fmt.Errorf("%w: reservation %d is %s, expected %s", domain.ErrInvalidStateTransition,
			current.ID, current.Status, reservation.Status)
	}
	if _, ok := r.s.rooms[reservation.RoomID]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrRoomNotFound, reservation.RoomID)
	}
	next := current.Status
	if change != nil {
		next = change.To
	}
	if current.Status.BlocksInventory() || next.BlocksInventory() {
		if err := r.s.checkOverlap(reservation.RoomID, reservation.CheckIn, reservation.CheckOut, current.ID); err != nil {
			return err
		}
	}
	if change != nil && change.RoomStatus != nil {
		if err := r.s.setRoomStatus(reservation.RoomID, *change.RoomStatus); err != nil {
			return err
		}
	}

	current.RoomID = reservation.RoomID
	current.CheckIn = reservation.CheckIn
	current.CheckOut = reservation.CheckOut
	current.TotalAmountCents = reservation.TotalAmountCents
	current.Status = next
	current.UpdatedAt = r.s.now()
	r.s.reservations[current.ID] = current
	*reservation = current
	return nil
}

func (r reservationRepo) Confirm(_ context.Context, id int64, card domain.CreditCard) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	if current.Status != domain.ReservationStatusPending {
		return nil, fmt.Errorf("%w: cannot confirm %s reservation", domain.ErrInvalidStateTransition, current.Status)
	}
	if err := r.s.checkOverlap(current.RoomID, current.CheckIn, current.CheckOut, current.ID); err != nil {
		return nil, err
	}

	current.Status = domain.ReservationStatusConfirmed
	current.HasCreditCardOnFile = true
	current.UpdatedAt = r.s.now()
	r.s.reservations[id] = current
	r.s.cards[id] = card.Masked()
	return &current, nil
}

func (r reservationRepo) Transition(_ context.Context, change repository.StatusChange) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.reservations[change.ReservationID]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, change.ReservationID)
	}
	if current.Status != change.From {
		return nil, fmt.Errorf("%w: reservation %d is %s, expected %s", domain.ErrInvalidStateTransition,
			current.ID, current.Status, change.From)
	}
	if change.ChargesCents != nil {
		if total := r.s.chargesTotal(current.ID); total != *change.ChargesCents {
			return nil, fmt.Errorf("%w: charges changed from %d to %d cents", domain.ErrPayment, *change.ChargesCents, total)
		}
	}
	if change.RoomStatus != nil {
		if err := r.s.setRoomStatus(current.RoomID, *change.RoomStatus); err != nil {
			return nil, err
		}
	}

	current.Status = change.To
	current.UpdatedAt = r.s.now()
	r.s.reservations[current.ID] = current
	return &current, nil
}

func (r reservationRepo) MarkNoShow(_ context.Context, id int64, record *domain.BillingRecord) (*domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	if current.Status != domain.ReservationStatusConfirmed || r.s.hasBilling(id) {
		return nil, fmt.Errorf("%w: reservation %d is no longer an unbilled confirmed stay", domain.ErrInvalidStateTransition, id)
	}

	current.Status = domain.ReservationStatusNoShow
	current.UpdatedAt = r.s.now()
	r.s.reservations[id] = current

	record.ReservationID = id
	r.s.appendBilling(record)
	return &current, nil
}

func (r reservationRepo) ListPendingWithoutCard(_ context.Context, createdBefore time.Time) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.sortedReservations(func(res domain.Reservation) bool {
		return res.Status == domain.ReservationStatusPending && !res.HasCreditCardOnFile && res.CreatedAt.Before(createdBefore)
	}), nil
}

func (r reservationRepo) ListOverdueConfirmed(_ context.Context, day time.Time) ([]domain.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.sortedReservations(func(res domain.Reservation) bool {
		return res.Status == domain.ReservationStatusConfirmed &&
			res.CheckIn.Before(day) && !res.CheckOut.Before(day) && !r.s.hasBilling(res.ID)
	}), nil
}

type billingRepo struct{ s *Store }

func (b billingRepo) Append(_ context.Context, record *domain.BillingRecord) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if _, ok := b.s.reservations[record.ReservationID]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrNotFound, record.ReservationID)
	}
	b.s.appendBilling(record)
	return nil
}

func (b billingRepo) ListByReservation(_ context.Context, reservationID int64) ([]domain.BillingRecord, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	var out []domain.BillingRecord
	for _, rec := range b.s.billing {
		if rec.ReservationID == reservationID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type chargeRepo struct{ s *Store }

func (c chargeRepo) Add(_ context.Context, charge *domain.OptionalCharge) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	res, ok := c.s.reservations[charge.ReservationID]
	if !ok {
		return fmt.Errorf("%w: id %d", domain.ErrNotFound, charge.ReservationID)
	}
	if res.Status.IsTerminal() {
		return fmt.Errorf("%w: reservation %d is %s", domain.ErrInvalidStateTransition, res.ID, res.Status)
	}
	c.s.nextChargeID++
	charge.ID = c.s.nextChargeID
	charge.CreatedAt = c.s.now()
	c.s.charges = append(c.s.charges, *charge)
	return nil
}

func (c chargeRepo) ListByReservation(_ context.Context, reservationID int64) ([]domain.OptionalCharge, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	var out []domain.OptionalCharge
	for _, ch := range c.s.charges {
		if ch.ReservationID == reservationID {
			out = append(out, ch)
		}
	}
	return out, nil
}

var (
	_ repository.RoomRepository        = roomRepo{}
	_ repository.ReservationRepository = reservationRepo{}
	_ repository.BillingRepository     = billingRepo{}
	_ repository.ChargeRepository      = chargeRepo{}
)
