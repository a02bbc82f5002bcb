package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/minfaz98/cozy-stay/internal/clock"
	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/kafka"
	"github.com/minfaz98/cozy-stay/internal/pricing"
	"github.com/minfaz98/cozy-stay/internal/repository"
)

type UseCase interface {
	GenerateInvoice(ctx context.Context, reservationID int64) (*domain.Invoice, error)
	RecordPayment(ctx context.Context, input PaymentInput) (*domain.BillingRecord, error)
	AddCharge(ctx context.Context, input ChargeInput) (*domain.OptionalCharge, error)
	CompleteCheckout(ctx context.Context, reservationID int64) (*Checkout, error)
	BillNoShow(ctx context.Context, reservationID int64) (*domain.Reservation, error)
}

type PaymentInput struct {
	ReservationID int64
	AmountCents   int64
	Method        string
}

type ChargeInput struct {
	ReservationID int64
	Description   string
	AmountCents   int64
}

// Checkout is the settled invoice and the CHECKED_OUT reservation.
type Checkout struct {
	Reservation *domain.Reservation `json:"reservation"`
	Invoice     *domain.Invoice     `json:"invoice"`
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type RoomCache interface {
	InvalidateRooms(ctx context.Context) error
}

// Policy holds the scheduled checkout time in the hotel's timezone.
type Policy struct {
	Location     *time.Location
	CheckoutTime clock.Daily
}

type Service struct {
	reservations repository.ReservationRepository
	rooms        repository.RoomRepository
	billing      repository.BillingRepository
	charges      repository.ChargeRepository
	clock        clock.Clock
	policy       Policy
	roomCache    RoomCache
	producer     Producer
	eventsTopic  string
	logger       *slog.Logger
}

type Option func(*Service)

func WithProducer(producer Producer, eventsTopic string) Option {
	return func(s *Service) {
		s.producer = producer
		s.eventsTopic = eventsTopic
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
	reservations repository.ReservationRepository,
	rooms repository.RoomRepository,
	billing repository.BillingRepository,
	charges repository.ChargeRepository,
	clk clock.Clock,
	policy Policy,
	opts ...Option,
) *Service {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	s := &Service{
		reservations: reservations,
		rooms:        rooms,
		billing:      billing,
		charges:      charges,
		clock:        clk,
		policy:       policy,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateInvoice totals the stay at the room's nightly price, optional
// charges and any late checkout fee, less completed payments.
func (s *Service) GenerateInvoice(ctx context.Context, reservationID int64) (*domain.Invoice, error) {
	r, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	return s.invoice(ctx, r, s.clock.Now())
}

func (s *Service) invoice(ctx context.Context, r *domain.Reservation, now time.Time) (*domain.Invoice, error) {
	nightly, err := s.nightlyPrice(ctx, r)
	if err != nil {
		return nil, err
	}
	charges, err := s.charges.ListByReservation(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	records, err := s.billing.ListByReservation(ctx, r.ID)
	if err != nil {
		return nil, err
	}

	nights := pricing.Nights(r.CheckIn, r.CheckOut)
	inv := &domain.Invoice{
		ReservationID:     r.ID,
		Nights:            nights,
		NightlyPriceCents: nightly,
		RoomChargesCents:  nightly * int64(nights),
		OptionalCharges:   charges,
		GeneratedAt:       now,
	}
	if inv.OptionalCharges == nil {
		inv.OptionalCharges = []domain.OptionalCharge{}
	}
	for _, c := range charges {
		inv.OptionalChargesCents += c.AmountCents
	}
	if s.lateCheckout(r, now) {
		inv.LateCheckoutCents = nightly
	}
	inv.TotalAmountCents = inv.RoomChargesCents + inv.OptionalChargesCents + inv.LateCheckoutCents

	for _, b := range records {
		if b.Status == domain.BillingStatusCompleted {
			inv.PaidAmountCents += b.AmountCents
		}
	}
	inv.RemainingAmountCents = inv.TotalAmountCents - inv.PaidAmountCents
	return inv, nil
}

// nightlyPrice is the room's base rate with the reservation's bulk discount
// applied, if any.
func (s *Service) nightlyPrice(ctx context.Context, r *domain.Reservation) (int64, error) {
	room, err := s.rooms.GetByID(ctx, r.RoomID)
	if err != nil {
		return 0, err
	}
	return pricing.DiscountedNightly(room.PriceCents, r.DiscountRate), nil
}

// lateCheckout reports whether the guest stayed past the scheduled checkout
// time. A settled stay is judged by when it was checked out.
func (s *Service) lateCheckout(r *domain.Reservation, now time.Time) bool {
	deadline := s.policy.CheckoutTime.OnDate(r.CheckOut, s.policy.Location)
	switch r.Status {
	case domain.ReservationStatusCheckedIn:
		return now.After(deadline)
	case domain.ReservationStatusCheckedOut:
		return r.UpdatedAt.After(deadline)
	default:
		return false
	}
}

func (s *Service) RecordPayment(ctx context.Context, input PaymentInput) (*domain.BillingRecord, error) {
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", domain.ErrPayment)
	}
	method := strings.TrimSpace(input.Method)
	if method == "" {
		return nil, fmt.Errorf("%w: payment method is required", domain.ErrValidation)
	}
	r, err := s.reservations.GetByID(ctx, input.ReservationID)
	if err != nil {
		return nil, err
	}
	if r.Status == domain.ReservationStatusCancelled {
		return nil, fmt.Errorf("%w: reservation %d is cancelled", domain.ErrInvalidStateTransition, r.ID)
	}

	record := &domain.BillingRecord{
		ReservationID: r.ID,
		AmountCents:   input.AmountCents,
		Status:        domain.BillingStatusCompleted,
		PaymentMethod: method,
	}
	if err := s.billing.Append(ctx, record); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment recorded",
		"reservation_id", r.ID, "amount_cents", record.AmountCents, "method", record.PaymentMethod)
	s.publish(ctx, kafka.EventPaymentRecorded, r)
	return record, nil
}

func (s *Service) AddCharge(ctx context.Context, input ChargeInput) (*domain.OptionalCharge, error) {
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: charge amount must be positive", domain.ErrValidation)
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: charge description is required", domain.ErrValidation)
	}
	r, err := s.reservations.GetByID(ctx, input.ReservationID)
	if err != nil {
		return nil, err
	}
	if r.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation %d is %s", domain.ErrInvalidStateTransition, r.ID, r.Status)
	}

	charge := &domain.OptionalCharge{
		ReservationID: r.ID,
		Description:   description,
		AmountCents:   input.AmountCents,
	}
	if err := s.charges.Add(ctx, charge); err != nil {
		return nil, err
	}
	return charge, nil
}

// CompleteCheckout settles a CHECKED_IN stay. The status change and the room
// release are committed together; an unpaid balance leaves both untouched.
// The change only commits while the charges still match the invoice.
func (s *Service) CompleteCheckout(ctx context.Context, reservationID int64) (*Checkout, error) {
	r, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReservationStatusCheckedIn {
		return nil, fmt.Errorf("%w: cannot check out %s reservation", domain.ErrInvalidStateTransition, r.Status)
	}

	inv, err := s.invoice(ctx, r, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if inv.RemainingAmountCents > 0 {
		return nil, fmt.Errorf("%w: %d cents outstanding", domain.ErrPayment, inv.RemainingAmountCents)
	}

	// a charge added after the balance check must fail the checkout
	available := domain.RoomStatusAvailable
	charges := inv.OptionalChargesCents
	updated, err := s.reservations.Transition(ctx, repository.StatusChange{
		ReservationID: r.ID,
		From:          domain.ReservationStatusCheckedIn,
		To:            domain.ReservationStatusCheckedOut,
		RoomStatus:    &available,
		ChargesCents:  &charges,
	})
	if err != nil {
		return nil, err
	}

	if s.roomCache != nil {
		if err := s.roomCache.InvalidateRooms(ctx); err != nil {
			s.logger.WarnContext(ctx, "invalidate room cache", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "checkout completed",
		"reservation_id", updated.ID, "room_id", updated.RoomID, "total_cents", inv.TotalAmountCents)
	s.publish(ctx, kafka.EventCheckoutCompleted, updated)
	return &Checkout{Reservation: updated, Invoice: inv}, nil
}

// BillNoShow marks a CONFIRMED reservation whose check-in date passed as
// NO_SHOW and raises a PENDING charge for one night. A reservation that has
// moved on or was already billed yields domain.ErrInvalidStateTransition.
func (s *Service) BillNoShow(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.Status != domain.ReservationStatusConfirmed {
		return nil, fmt.Errorf("%w: reservation %d is %s", domain.ErrInvalidStateTransition, r.ID, r.Status)
	}
	nightly, err := s.nightlyPrice(ctx, r)
	if err != nil {
		return nil, err
	}

	updated, err := s.reservations.MarkNoShow(ctx, r.ID, &domain.BillingRecord{
		AmountCents:   nightly,
		Status:        domain.BillingStatusPending,
		PaymentMethod: domain.PaymentMethodNoShow,
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, kafka.EventReservationNoShow, updated)
	return updated, nil
}

func (s *Service) publish(ctx context.Context, eventType string, r *domain.Reservation) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.NewReservationEvent(eventType, r, s.clock.Now())
	if err := s.producer.Publish(ctx, s.eventsTopic, strconv.FormatInt(r.ID, 10), event); err != nil {
		s.logger.WarnContext(ctx, "publish billing event", "type", eventType, "reservation_id", r.ID, "error", err)
	}
}

var _ UseCase = (*Service)(nil)
