package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/minfaz98/cozy-stay/internal/clock"
	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/kafka"
	"github.com/minfaz98/cozy-stay/internal/repository"
	"github.com/minfaz98/cozy-stay/internal/repository/memory"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func date(day int) time.Time {
	return time.Date(2026, 6, day, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	store *memory.Store
	clock *clock.Fake
	svc   *Service
	room  domain.Room
}

func newFixture(t *testing.T, now time.Time, opts ...Option) *fixture {
	t.Helper()
	clk := clock.NewFake(now)
	store := memory.NewStore(memory.WithNow(clk.Now))
	room := store.AddRoom(domain.Room{Number: "201", Type: domain.RoomTypeSingle, PriceCents: 10000, Capacity: 1})
	noon, err := clock.ParseDaily("12:00")
	require.NoError(t, err)
	svc := NewService(store.Reservations(), store.Rooms(), store.Billing(), store.Charges(), clk,
		Policy{Location: time.UTC, CheckoutTime: noon}, opts...)
	return &fixture{store: store, clock: clk, svc: svc, room: room}
}

func (f *fixture) seed(t *testing.T, status domain.ReservationStatus, checkIn, checkOut time.Time, rate float64) *domain.Reservation {
	t.Helper()
	r := &domain.Reservation{
		RoomID:       f.room.ID,
		UserID:       "user-1",
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Guests:       1,
		Status:       status,
		DiscountRate: rate,
	}
	require.NoError(t, f.store.Reservations().Create(context.Background(), r, nil))
	return r
}

func TestGenerateInvoice(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 14, 9, 0, 0, 0, time.UTC))
	r := f.seed(t, domain.ReservationStatusCheckedIn, date(13), date(15), 0)

	_, err := f.svc.AddCharge(context.Background(), ChargeInput{ReservationID: r.ID, Description: "minibar", AmountCents: 1250})
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: 5000, Method: "CARD"})
	require.NoError(t, err)

	inv, err := f.svc.GenerateInvoice(context.Background(), r.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, inv.Nights)
	assert.Equal(t, int64(10000), inv.NightlyPriceCents)
	assert.Equal(t, int64(20000), inv.RoomChargesCents)
	assert.Equal(t, int64(1250), inv.OptionalChargesCents)
	assert.Len(t, inv.OptionalCharges, 1)
	assert.Zero(t, inv.LateCheckoutCents)
	assert.Equal(t, int64(21250), inv.TotalAmountCents)
	assert.Equal(t, int64(5000), inv.PaidAmountCents)
	assert.Equal(t, int64(16250), inv.RemainingAmountCents)
}

func TestGenerateInvoice_LateCheckout(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{"before noon", time.Date(2026, 6, 15, 11, 59, 0, 0, time.UTC), 0},
		{"at noon", time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC), 0},
		{"after noon", time.Date(2026, 6, 15, 12, 30, 0, 0, time.UTC), 10000},
		{"next day", time.Date(2026, 6, 16, 8, 0, 0, 0, time.UTC), 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, time.Date(2026, 6, 13, 15, 0, 0, 0, time.UTC))
			r := f.seed(t, domain.ReservationStatusCheckedIn, date(13), date(15), 0)
			f.clock.Set(tt.now)

			inv, err := f.svc.GenerateInvoice(context.Background(), r.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, inv.LateCheckoutCents)
			assert.Equal(t, 20000+tt.want, inv.TotalAmountCents)
		})
	}
}

func TestGenerateInvoice_NoLateFeeBeforeCheckIn(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 20, 9, 0, 0, 0, time.UTC))
	r := f.seed(t, domain.ReservationStatusConfirmed, date(13), date(15), 0)

	inv, err := f.svc.GenerateInvoice(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Zero(t, inv.LateCheckoutCents)
}

func TestGenerateInvoice_BulkDiscount(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC))
	r := f.seed(t, domain.ReservationStatusConfirmed, date(13), date(16), 0.2)

	inv, err := f.svc.GenerateInvoice(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), inv.NightlyPriceCents)
	assert.Equal(t, int64(24000), inv.RoomChargesCents)
}

func TestGenerateInvoice_NotFound(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC))

	_, err := f.svc.GenerateInvoice(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 14, 9, 0, 0, 0, time.UTC))
	r := f.seed(t, domain.ReservationStatusCheckedIn, date(13), date(15), 0)

	before, err := f.svc.GenerateInvoice(context.Background(), r.ID)
	require.NoError(t, err)

	for _, amount := range []int64{0, -100} {
		_, err := f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: amount, Method: "CARD"})
		assert.ErrorIs(t, err, domain.ErrPayment)
	}
	_, err = f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: 100, Method: " "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	records, err := f.store.Billing().ListByReservation(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	record, err := f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: 7500, Method: "CASH"})
	require.NoError(t, err)
	assert.Equal(t, domain.BillingStatusCompleted, record.Status)

	after, err := f.svc.GenerateInvoice(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, before.RemainingAmountCents-7500, after.RemainingAmountCents)
}

func TestRecordPayment_Cancelled(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC))
	r := f.seed(t, domain.ReservationStatusCancelled, date(13), date(15), 0)

	_, err := f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: 100, Method: "CARD"})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestAddCharge_Rejected(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 14, 9, 0, 0, 0, time.UTC))
	active := f.seed(t, domain.ReservationStatusCheckedIn, date(13), date(15), 0)
	done := f.seed(t, domain.ReservationStatusCheckedOut, date(10), date(12), 0)

	_, err := f.svc.AddCharge(context.Background(), ChargeInput{ReservationID: active.ID, Description: "spa", AmountCents: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.AddCharge(context.Background(), ChargeInput{ReservationID: active.ID, AmountCents: 100})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.svc.AddCharge(context.Background(), ChargeInput{ReservationID: done.ID, Description: "spa", AmountCents: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestCompleteCheckout(t *testing.T) {
	producer := new(MockProducer)
	f := newFixture(t, time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC), WithProducer(producer, "reservation-events"))
	r := f.seed(t, domain.ReservationStatusCheckedIn, date(13), date(15), 0)

	_, err := f.svc.CompleteCheckout(context.Background(), r.ID)
	assert.ErrorIs(t, err, domain.ErrPayment)

	stored, err := f.store.Reservations().GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusCheckedIn, stored.Status)
	room, err := f.store.Rooms().GetByID(context.Background(), f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusOccupied, room.Status)

	producer.On("Publish", mock.Anything, "reservation-events", mock.Anything, mock.Anything).Return(nil)
	_, err = f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: 20000, Method: "CARD"})
	require.NoError(t, err)

	out, err := f.svc.CompleteCheckout(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusCheckedOut, out.Reservation.Status)
	assert.Zero(t, out.Invoice.RemainingAmountCents)

	room, err = f.store.Rooms().GetByID(context.Background(), f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusAvailable, room.Status)

	// a settled stay does not accrue a late fee afterwards
	f.clock.Set(time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC))
	inv, err := f.svc.GenerateInvoice(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Zero(t, inv.LateCheckoutCents)

	_, err = f.svc.CompleteCheckout(context.Background(), r.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	producer.AssertCalled(t, "Publish", mock.Anything, "reservation-events", mock.Anything,
		mock.MatchedBy(func(e kafka.ReservationEvent) bool { return e.Type == kafka.EventCheckoutCompleted }))
}

// chargeBeforeTransition lands a charge between the balance check and the
// status change of a checkout.
type chargeBeforeTransition struct {
	repository.ReservationRepository
	charges repository.ChargeRepository
	charge  domain.OptionalCharge
}

func (c chargeBeforeTransition) Transition(ctx context.Context, change repository.StatusChange) (*domain.Reservation, error) {
	charge := c.charge
	if err := c.charges.Add(ctx, &charge); err != nil {
		return nil, err
	}
	return c.ReservationRepository.Transition(ctx, change)
}

func TestCompleteCheckout_ChargeDuringCheckout(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC))
	r := f.seed(t, domain.ReservationStatusCheckedIn, date(13), date(15), 0)
	_, err := f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: 20000, Method: "CARD"})
	require.NoError(t, err)

	noon, err := clock.ParseDaily("12:00")
	require.NoError(t, err)
	racing := chargeBeforeTransition{
		ReservationRepository: f.store.Reservations(),
		charges:               f.store.Charges(),
		charge:                domain.OptionalCharge{ReservationID: r.ID, Description: "minibar", AmountCents: 500},
	}
	svc := NewService(racing, f.store.Rooms(), f.store.Billing(), f.store.Charges(), f.clock,
		Policy{Location: time.UTC, CheckoutTime: noon})

	_, err = svc.CompleteCheckout(context.Background(), r.ID)
	assert.ErrorIs(t, err, domain.ErrPayment)

	stored, err := f.store.Reservations().GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusCheckedIn, stored.Status)
	room, err := f.store.Rooms().GetByID(context.Background(), f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStatusOccupied, room.Status)

	inv, err := f.svc.GenerateInvoice(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), inv.RemainingAmountCents)
}

func TestAddCharge_AfterCheckout(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC))
	r := f.seed(t, domain.ReservationStatusCheckedIn, date(13), date(15), 0)
	_, err := f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: 20000, Method: "CARD"})
	require.NoError(t, err)
	_, err = f.svc.CompleteCheckout(context.Background(), r.ID)
	require.NoError(t, err)

	err = f.store.Charges().Add(context.Background(), &domain.OptionalCharge{ReservationID: r.ID, Description: "late minibar", AmountCents: 500})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestCompleteCheckout_LateNeedsExtraNight(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 15, 13, 0, 0, 0, time.UTC))
	r := f.seed(t, domain.ReservationStatusCheckedIn, date(13), date(15), 0)

	_, err := f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: 20000, Method: "CARD"})
	require.NoError(t, err)
	_, err = f.svc.CompleteCheckout(context.Background(), r.ID)
	assert.ErrorIs(t, err, domain.ErrPayment)

	_, err = f.svc.RecordPayment(context.Background(), PaymentInput{ReservationID: r.ID, AmountCents: 10000, Method: "CARD"})
	require.NoError(t, err)
	out, err := f.svc.CompleteCheckout(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), out.Invoice.LateCheckoutCents)

	inv, err := f.svc.GenerateInvoice(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), inv.LateCheckoutCents)
	assert.Zero(t, inv.RemainingAmountCents)
}

func TestBillNoShow(t *testing.T) {
	f := newFixture(t, time.Date(2026, 6, 15, 19, 0, 0, 0, time.UTC))
	r := f.seed(t, domain.ReservationStatusConfirmed, date(14), date(17), 0)

	updated, err := f.svc.BillNoShow(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusNoShow, updated.Status)

	_, err = f.svc.BillNoShow(context.Background(), r.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	records, err := f.store.Billing().ListByReservation(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(10000), records[0].AmountCents)
	assert.Equal(t, domain.BillingStatusPending, records[0].Status)
	assert.Equal(t, domain.PaymentMethodNoShow, records[0].PaymentMethod)

	// a pending no-show charge is not counted as paid
	inv, err := f.svc.GenerateInvoice(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Zero(t, inv.PaidAmountCents)
}
