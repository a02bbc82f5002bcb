package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/minfaz98/cozy-stay/internal/availability"
	"github.com/minfaz98/cozy-stay/internal/clock"
	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/kafka"
	"github.com/minfaz98/cozy-stay/internal/pricing"
	"github.com/minfaz98/cozy-stay/internal/repository"
)

type UseCase interface {
	Create(ctx context.Context, input CreateInput) (*domain.Reservation, error)
	CreateBulk(ctx context.Context, input BulkInput) ([]domain.Reservation, error)
	CreateWalkIn(ctx context.Context, input CreateInput) (*domain.Reservation, error)
	Get(ctx context.Context, id int64) (*domain.Reservation, error)
	Update(ctx context.Context, input UpdateInput) (*domain.Reservation, error)
	Cancel(ctx context.Context, id int64) (*domain.Reservation, error)
	AttachCard(ctx context.Context, id int64, card domain.CreditCard) (*domain.Reservation, error)
	CheckIn(ctx context.Context, id int64) (*domain.Reservation, error)
	ExpirePending(ctx context.Context, id int64) (*domain.Reservation, error)
}

// RoleCompany is the only caller role allowed to place bulk bookings.
const RoleCompany = "COMPANY"

// Caller is the identity established by the upstream auth middleware.
type Caller struct {
	UserID string
	Role   string
}

type CreateInput struct {
	Caller   Caller
	RoomID   int64
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
	Card     *domain.CreditCard
}

type BulkInput struct {
	Caller        Caller
	RoomType      domain.RoomType
	NumberOfRooms int
	GuestsPerRoom int
	CheckIn       time.Time
	CheckOut      time.Time
	Card          domain.CreditCard
}

// UpdateInput changes any subset of dates, room and status. Nil fields keep
// their current value.
type UpdateInput struct {
	ID       int64
	CheckIn  *time.Time
	CheckOut *time.Time
	RoomID   *int64
	Status   *domain.ReservationStatus
}

type Locker interface {
	AcquireRoomLock(ctx context.Context, roomID int64, ttl time.Duration) (token string, ok bool, err error)
	ReleaseRoomLock(ctx context.Context, roomID int64, token string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// RoomCache is invalidated whenever a room status changes here.
type RoomCache interface {
	InvalidateRooms(ctx context.Context) error
}

// Policy holds the hotel's wall-clock rules.
type Policy struct {
	Location           *time.Location
	ConfirmationCutoff clock.Daily
}

const lockRetryInterval = 50 * time.Millisecond

type Service struct {
	rooms              repository.RoomRepository
	reservations       repository.ReservationRepository
	checker            *availability.Checker
	clock              clock.Clock
	policy             Policy
	locker             Locker
	lockTTL            time.Duration
	lockWait           time.Duration
	roomCache          RoomCache
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	logger             *slog.Logger
}

type Option func(*Service)

func WithLocker(locker Locker, ttl, wait time.Duration) Option {
	return func(s *Service) {
		s.locker = locker
		s.lockTTL = ttl
		s.lockWait = wait
	}
}

func WithProducer(producer Producer, eventsTopic string) Option {
	return func(s *Service) {
		s.producer = producer
		s.eventsTopic = eventsTopic
	}
}

func WithNotificationsTopic(topic string) Option {
	return func(s *Service) {
		s.notificationsTopic = topic
	}
}

func WithRoomCache(cache RoomCache) Option {
	return func(s *Service) {
		s.roomCache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(
	rooms repository.RoomRepository,
	reservations repository.ReservationRepository,
	clk clock.Clock,
	policy Policy,
	opts ...Option,
) *Service {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	s := &Service{
		rooms:        rooms,
		reservations: reservations,
		checker:      availability.NewChecker(rooms, reservations),
		clock:        clk,
		policy:       policy,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Reservation, error) {
	now := s.clock.Now()
	checkIn, checkOut, err := s.validateStay(now, input.CheckIn, input.CheckOut)
	if err != nil {
		return nil, err
	}
	if input.Guests <= 0 {
		return nil, fmt.Errorf("%w: guests must be positive", domain.ErrValidation)
	}

	status := domain.ReservationStatusConfirmed
	if input.Card != nil {
		if err := input.Card.Validate(now); err != nil {
			return nil, err
		}
	} else {
		if s.pastCutoff(now) {
			return nil, fmt.Errorf("%w: reservations without a credit card are not accepted after %s",
				domain.ErrValidation, s.policy.ConfirmationCutoff)
		}
		status = domain.ReservationStatusPending
	}

	return s.createSingle(ctx, input, checkIn, checkOut, status, kafka.EventReservationCreated)
}

// CreateWalkIn books a guest standing at the desk straight into CHECKED_IN
// for a stay starting today.
func (s *Service) CreateWalkIn(ctx context.Context, input CreateInput) (*domain.Reservation, error) {
	now := s.clock.Now()
	today := clock.CivilDate(now, s.policy.Location)
	if input.CheckIn.IsZero() {
		input.CheckIn = today
	}
	checkIn, checkOut, err := s.validateStay(now, input.CheckIn, input.CheckOut)
	if err != nil {
		return nil, err
	}
	if !checkIn.Equal(today) {
		return nil, fmt.Errorf("%w: walk-in stays must start today", domain.ErrValidation)
	}
	if input.Guests <= 0 {
		return nil, fmt.Errorf("%w: guests must be positive", domain.ErrValidation)
	}
	if input.Card != nil {
		if err := input.Card.Validate(now); err != nil {
			return nil, err
		}
	}

	created, err := s.createSingle(ctx, input, checkIn, checkOut, domain.ReservationStatusCheckedIn, kafka.EventReservationCheckedIn)
	if err != nil {
		return nil, err
	}
	s.invalidateRooms(ctx)
	return created, nil
}

func (s *Service) createSingle(ctx context.Context, input CreateInput, checkIn, checkOut time.Time,
	status domain.ReservationStatus, eventType string) (*domain.Reservation, error) {
	if input.Caller.UserID == "" {
		return nil, fmt.Errorf("%w: caller identity is required", domain.ErrValidation)
	}
	room, err := s.rooms.GetByID(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if err := checkRoomFits(room, input.Guests); err != nil {
		return nil, err
	}

	reservation := &domain.Reservation{
		RoomID:           room.ID,
		UserID:           input.Caller.UserID,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Guests:           input.Guests,
		Status:           status,
		TotalAmountCents: pricing.StayPrice(*room, checkIn, checkOut),
	}

	err = s.withRoomLocks(ctx, []int64{room.ID}, func() error {
		if err := s.ensureAvailable(ctx, room.ID, checkIn, checkOut, 0); err != nil {
			return err
		}
		return s.reservations.Create(ctx, reservation, input.Card)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reservation created",
		"reservation_id", reservation.ID, "room_id", reservation.RoomID, "status", reservation.Status)
	s.publish(ctx, eventType, reservation)
	return reservation, nil
}

// CreateBulk books NumberOfRooms rooms of one type for a company under a
// shared discount rate derived from the group size.
func (s *Service) CreateBulk(ctx context.Context, input BulkInput) ([]domain.Reservation, error) {
	if input.Caller.Role != RoleCompany {
		return nil, fmt.Errorf("%w: bulk booking requires the %s role", domain.ErrForbidden, RoleCompany)
	}
	if input.Caller.UserID == "" {
		return nil, fmt.Errorf("%w: caller identity is required", domain.ErrValidation)
	}
	if input.NumberOfRooms < pricing.MinBulkRooms {
		return nil, fmt.Errorf("%w: bulk booking needs at least %d rooms", domain.ErrValidation, pricing.MinBulkRooms)
	}
	if !input.RoomType.Valid() {
		return nil, fmt.Errorf("%w: unknown room type %q", domain.ErrValidation, input.RoomType)
	}
	guests := input.GuestsPerRoom
	if guests == 0 {
		guests = 1
	}
	if guests < 0 {
		return nil, fmt.Errorf("%w: guests must be positive", domain.ErrValidation)
	}

	now := s.clock.Now()
	checkIn, checkOut, err := s.validateStay(now, input.CheckIn, input.CheckOut)
	if err != nil {
		return nil, err
	}
	if err := input.Card.Validate(now); err != nil {
		return nil, err
	}

	candidates, err := s.rooms.ListByType(ctx, input.RoomType)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 && !anyHolds(candidates, guests) {
		return nil, fmt.Errorf("%w: no %s room holds %d guests", domain.ErrValidation, input.RoomType, guests)
	}

	rate := pricing.BulkDiscountRate(input.NumberOfRooms)
	groupID := uuid.NewString()

	var chosen []domain.Room
	for _, room := range candidates {
		if checkRoomFits(&room, guests) != nil {
			continue
		}
		ok, err := s.checker.IsAvailable(ctx, room.ID, checkIn, checkOut, 0)
		if err != nil {
			return nil, err
		}
		if ok {
			chosen = append(chosen, room)
		}
		if len(chosen) == input.NumberOfRooms {
			break
		}
	}
	if len(chosen) < input.NumberOfRooms {
		return nil, fmt.Errorf("%w: only %d of %d %s rooms are free", domain.ErrRoomUnavailable,
			len(chosen), input.NumberOfRooms, input.RoomType)
	}

	batch := make([]*domain.Reservation, 0, len(chosen))
	roomIDs := make([]int64, 0, len(chosen))
	for _, room := range chosen {
		batch = append(batch, &domain.Reservation{
			RoomID:           room.ID,
			UserID:           input.Caller.UserID,
			CheckIn:          checkIn,
			CheckOut:         checkOut,
			Guests:           guests,
			Status:           domain.ReservationStatusConfirmed,
			TotalAmountCents: pricing.BulkStayPrice(room, checkIn, checkOut, rate),
			DiscountRate:     rate,
			GroupID:          &groupID,
		})
		roomIDs = append(roomIDs, room.ID)
	}

	card := input.Card
	err = s.withRoomLocks(ctx, roomIDs, func() error {
		for _, r := range batch {
			if err := s.ensureAvailable(ctx, r.RoomID, checkIn, checkOut, 0); err != nil {
				return err
			}
		}
		return s.reservations.CreateBatch(ctx, batch, &card)
	})
	if err != nil {
		return nil, err
	}

	created := make([]domain.Reservation, 0, len(batch))
	for _, r := range batch {
		s.publish(ctx, kafka.EventReservationCreated, r)
		created = append(created, *r)
	}
	s.logger.InfoContext(ctx, "bulk reservation created",
		"group_id", groupID, "rooms", len(created), "discount_rate", rate)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// Update reschedules and/or moves the reservation and applies a requested
// status change. Only CHECKED_IN and CANCELLED can be reached this way;
// confirmation needs a card and checkout goes through billing. A reschedule
// combined with check-in is one write, so a failure leaves nothing changed.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*domain.Reservation, error) {
	current, err := s.reservations.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	rescheduling := input.CheckIn != nil || input.CheckOut != nil || input.RoomID != nil

	checkIn := false
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *input.Status)
		}
		if *input.Status != current.Status {
			if !current.Status.CanTransitionTo(*input.Status) {
				return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidStateTransition, current.Status, *input.Status)
			}
			switch *input.Status {
			case domain.ReservationStatusCancelled:
				if rescheduling {
					return nil, fmt.Errorf("%w: a cancellation cannot change dates or room", domain.ErrValidation)
				}
				return s.Cancel(ctx, current.ID)
			case domain.ReservationStatusCheckedIn:
				checkIn = true
			case domain.ReservationStatusConfirmed:
				return nil, fmt.Errorf("%w: attach a credit card to confirm", domain.ErrValidation)
			case domain.ReservationStatusCheckedOut:
				return nil, fmt.Errorf("%w: checkout must settle the invoice", domain.ErrValidation)
			default:
				return nil, fmt.Errorf("%w: %s is set by the daily sweep", domain.ErrValidation, *input.Status)
			}
		}
	}

	if !rescheduling {
		if checkIn {
			return s.CheckIn(ctx, current.ID)
		}
		return current, nil
	}
	return s.reschedule(ctx, current, input, checkIn)
}

// reschedule validates the new stay and writes it. With checkIn set the
// check-in window is checked against the new dates and the status moves to
// CHECKED_IN in the same repository write.
func (s *Service) reschedule(ctx context.Context, current *domain.Reservation, input UpdateInput, checkIn bool) (*domain.Reservation, error) {
	if current.Status.IsTerminal() || current.Status == domain.ReservationStatusNoShow {
		return nil, fmt.Errorf("%w: cannot change a %s reservation", domain.ErrInvalidStateTransition, current.Status)
	}

	updated := *current
	if input.CheckIn != nil {
		updated.CheckIn = *input.CheckIn
	}
	if input.CheckOut != nil {
		updated.CheckOut = *input.CheckOut
	}
	if input.RoomID != nil {
		updated.RoomID = *input.RoomID
	}

	if current.Status == domain.ReservationStatusCheckedIn &&
		(updated.RoomID != current.RoomID || !sameDay(updated.CheckIn, current.CheckIn)) {
		return nil, fmt.Errorf("%w: a checked-in stay can only change its check-out date", domain.ErrValidation)
	}

	now := s.clock.Now()
	var err error
	if current.Status == domain.ReservationStatusCheckedIn {
		updated.CheckIn, updated.CheckOut, err = normalizeStay(updated.CheckIn, updated.CheckOut, s.policy.Location)
	} else {
		updated.CheckIn, updated.CheckOut, err = s.validateStay(now, updated.CheckIn, updated.CheckOut)
	}
	if err != nil {
		return nil, err
	}

	var change *repository.StatusChange
	if checkIn {
		if current.Status != domain.ReservationStatusConfirmed {
			return nil, fmt.Errorf("%w: cannot check in %s reservation", domain.ErrInvalidStateTransition, current.Status)
		}
		if err := s.checkInWindow(now, &updated); err != nil {
			return nil, err
		}
		occupied := domain.RoomStatusOccupied
		change = &repository.StatusChange{
			ReservationID: current.ID,
			From:          current.Status,
			To:            domain.ReservationStatusCheckedIn,
			RoomStatus:    &occupied,
		}
	}

	room, err := s.rooms.GetByID(ctx, updated.RoomID)
	if err != nil {
		return nil, err
	}
	if err := checkRoomFits(room, updated.Guests); err != nil {
		return nil, err
	}

	// the discount rate is fixed at creation; bulk stays keep theirs
	if updated.DiscountRate > 0 {
		updated.TotalAmountCents = pricing.BulkStayPrice(*room, updated.CheckIn, updated.CheckOut, updated.DiscountRate)
	} else {
		updated.TotalAmountCents = pricing.StayPrice(*room, updated.CheckIn, updated.CheckOut)
	}

	err = s.withRoomLocks(ctx, []int64{updated.RoomID}, func() error {
		if err := s.ensureAvailable(ctx, updated.RoomID, updated.CheckIn, updated.CheckOut, updated.ID); err != nil {
			return err
		}
		return s.reservations.Reschedule(ctx, &updated, change)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventReservationUpdated, &updated)
	if change != nil {
		s.invalidateRooms(ctx)
		s.publish(ctx, kafka.EventReservationCheckedIn, &updated)
	}
	return &updated, nil
}

func (s *Service) Cancel(ctx context.Context, id int64) (*domain.Reservation, error) {
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation %d is already %s", domain.ErrInvalidStateTransition, id, current.Status)
	}

	change := repository.StatusChange{
		ReservationID: id,
		From:          current.Status,
		To:            domain.ReservationStatusCancelled,
	}
	if current.Status == domain.ReservationStatusCheckedIn {
		available := domain.RoomStatusAvailable
		change.RoomStatus = &available
	}

	updated, err := s.reservations.Transition(ctx, change)
	if err != nil {
		return nil, err
	}
	if change.RoomStatus != nil {
		s.invalidateRooms(ctx)
	}
	s.publish(ctx, kafka.EventReservationCancelled, updated)
	return updated, nil
}

// AttachCard confirms a PENDING reservation. PENDING holds never block
// inventory, so the room is re-checked and may have been taken meanwhile.
func (s *Service) AttachCard(ctx context.Context, id int64, card domain.CreditCard) (*domain.Reservation, error) {
	if err := card.Validate(s.clock.Now()); err != nil {
		return nil, err
	}
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.ReservationStatusPending {
		return nil, fmt.Errorf("%w: cannot confirm %s reservation", domain.ErrInvalidStateTransition, current.Status)
	}

	var updated *domain.Reservation
	err = s.withRoomLocks(ctx, []int64{current.RoomID}, func() error {
		if err := s.ensureAvailable(ctx, current.RoomID, current.CheckIn, current.CheckOut, current.ID); err != nil {
			return err
		}
		var err error
		updated, err = s.reservations.Confirm(ctx, id, card)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventReservationConfirmed, updated)
	return updated, nil
}

func (s *Service) CheckIn(ctx context.Context, id int64) (*domain.Reservation, error) {
	current, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.ReservationStatusConfirmed {
		return nil, fmt.Errorf("%w: cannot check in %s reservation", domain.ErrInvalidStateTransition, current.Status)
	}
	if err := s.checkInWindow(s.clock.Now(), current); err != nil {
		return nil, err
	}

	occupied := domain.RoomStatusOccupied
	updated, err := s.reservations.Transition(ctx, repository.StatusChange{
		ReservationID: id,
		From:          domain.ReservationStatusConfirmed,
		To:            domain.ReservationStatusCheckedIn,
		RoomStatus:    &occupied,
	})
	if err != nil {
		return nil, err
	}
	s.invalidateRooms(ctx)
	s.publish(ctx, kafka.EventReservationCheckedIn, updated)
	return updated, nil
}

// ExpirePending cancels a PENDING reservation that never received a card.
// It fails with ErrInvalidStateTransition if the reservation moved on.
func (s *Service) ExpirePending(ctx context.Context, id int64) (*domain.Reservation, error) {
	updated, err := s.reservations.Transition(ctx, repository.StatusChange{
		ReservationID: id,
		From:          domain.ReservationStatusPending,
		To:            domain.ReservationStatusCancelled,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.EventReservationExpired, updated)
	return updated, nil
}

// checkInWindow requires today, in the hotel's timezone, within
// [CheckIn, CheckOut).
func (s *Service) checkInWindow(now time.Time, r *domain.Reservation) error {
	today := clock.CivilDate(now, s.policy.Location)
	if today.Before(r.CheckIn) {
		return fmt.Errorf("%w: check-in opens on %s", domain.ErrValidation, r.CheckIn.Format(time.DateOnly))
	}
	if !today.Before(r.CheckOut) {
		return fmt.Errorf("%w: stay ended on %s", domain.ErrValidation, r.CheckOut.Format(time.DateOnly))
	}
	return nil
}

func (s *Service) pastCutoff(now time.Time) bool {
	return !now.Before(s.policy.ConfirmationCutoff.On(now, s.policy.Location))
}

// validateStay normalizes both dates to civil dates and rejects empty,
// inverted or past stays.
func (s *Service) validateStay(now, checkIn, checkOut time.Time) (time.Time, time.Time, error) {
	in, out, err := normalizeStay(checkIn, checkOut, s.policy.Location)
	if err != nil {
		return in, out, err
	}
	if in.Before(clock.CivilDate(now, s.policy.Location)) {
		return in, out, fmt.Errorf("%w: check-in %s is in the past", domain.ErrValidation, in.Format(time.DateOnly))
	}
	return in, out, nil
}

func normalizeStay(checkIn, checkOut time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return checkIn, checkOut, fmt.Errorf("%w: check-in and check-out dates are required", domain.ErrValidation)
	}
	in := civil(checkIn)
	out := civil(checkOut)
	if !out.After(in) {
		return in, out, fmt.Errorf("%w: check-out must be after check-in", domain.ErrValidation)
	}
	return in, out, nil
}

// civil keeps the calendar day a caller wrote, whatever offset it came with.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return civil(a).Equal(civil(b))
}

func anyHolds(rooms []domain.Room, guests int) bool {
	for _, room := range rooms {
		if room.Capacity >= guests {
			return true
		}
	}
	return false
}

func checkRoomFits(room *domain.Room, guests int) error {
	if room.Status == domain.RoomStatusMaintenance {
		return fmt.Errorf("%w: room %s is under maintenance", domain.ErrRoomUnavailable, room.Number)
	}
	if guests > room.Capacity {
		return fmt.Errorf("%w: room %s holds at most %d guests", domain.ErrValidation, room.Number, room.Capacity)
	}
	return nil
}

func (s *Service) ensureAvailable(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) error {
	ok, err := s.checker.IsAvailable(ctx, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: room %d is booked between %s and %s", domain.ErrRoomUnavailable, roomID,
			checkIn.Format(time.DateOnly), checkOut.Format(time.DateOnly))
	}
	return nil
}

// withRoomLocks holds the distributed lock of every room in roomIDs while fn
// runs. Locks are taken in id order so two bulk bookings cannot deadlock.
func (s *Service) withRoomLocks(ctx context.Context, roomIDs []int64, fn func() error) error {
	if s.locker == nil {
		return fn()
	}

	ids := append([]int64(nil), roomIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	type heldLock struct {
		roomID int64
		token  string
	}
	var held []heldLock
	defer func() {
		for _, h := range held {
			if err := s.locker.ReleaseRoomLock(ctx, h.roomID, h.token); err != nil {
				s.logger.WarnContext(ctx, "release room lock", "room_id", h.roomID, "error", err)
			}
		}
	}()

	for _, id := range ids {
		token, err := s.acquireRoomLock(ctx, id)
		if err != nil {
			return err
		}
		held = append(held, heldLock{roomID: id, token: token})
	}
	return fn()
}

func (s *Service) acquireRoomLock(ctx context.Context, roomID int64) (string, error) {
	attempts := int(s.lockWait/lockRetryInterval) + 1
	for i := 0; i < attempts; i++ {
		token, ok, err := s.locker.AcquireRoomLock(ctx, roomID, s.lockTTL)
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
	return "", fmt.Errorf("%w: room %d is being booked by another request", domain.ErrRoomUnavailable, roomID)
}

func (s *Service) invalidateRooms(ctx context.Context) {
	if s.roomCache == nil {
		return
	}
	if err := s.roomCache.InvalidateRooms(ctx); err != nil {
		s.logger.WarnContext(ctx, "invalidate room cache", "error", err)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, r *domain.Reservation) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.NewReservationEvent(eventType, r, s.clock.Now())
	key := strconv.FormatInt(r.ID, 10)
	topics := []string{s.eventsTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	var errs []error
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, key, event); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.WarnContext(ctx, "publish reservation event",
			"type", eventType, "reservation_id", r.ID, "error", err)
	}
}

var _ UseCase = (*Service)(nil)
