package api

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/service/billing"
	"github.com/minfaz98/cozy-stay/internal/service/reservation"
	"github.com/minfaz98/cozy-stay/internal/service/rooms"
)

type MockReservationUseCase struct {
	mock.Mock
}

func (m *MockReservationUseCase) reservation(args mock.Arguments) (*domain.Reservation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) Create(ctx context.Context, input reservation.CreateInput) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, input))
}

func (m *MockReservationUseCase) CreateBulk(ctx context.Context, input reservation.BulkInput) ([]domain.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationUseCase) CreateWalkIn(ctx context.Context, input reservation.CreateInput) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, input))
}

func (m *MockReservationUseCase) Get(ctx context.Context, id int64) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, id))
}

func (m *MockReservationUseCase) Update(ctx context.Context, input reservation.UpdateInput) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, input))
}

func (m *MockReservationUseCase) Cancel(ctx context.Context, id int64) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, id))
}

func (m *MockReservationUseCase) AttachCard(ctx context.Context, id int64, card domain.CreditCard) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, id, card))
}

func (m *MockReservationUseCase) CheckIn(ctx context.Context, id int64) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, id))
}

func (m *MockReservationUseCase) ExpirePending(ctx context.Context, id int64) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, id))
}

type MockBillingUseCase struct {
	mock.Mock
}

func (m *MockBillingUseCase) GenerateInvoice(ctx context.Context, reservationID int64) (*domain.Invoice, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockBillingUseCase) RecordPayment(ctx context.Context, input billing.PaymentInput) (*domain.BillingRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BillingRecord), args.Error(1)
}

func (m *MockBillingUseCase) AddCharge(ctx context.Context, input billing.ChargeInput) (*domain.OptionalCharge, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OptionalCharge), args.Error(1)
}

func (m *MockBillingUseCase) CompleteCheckout(ctx context.Context, reservationID int64) (*billing.Checkout, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Checkout), args.Error(1)
}

func (m *MockBillingUseCase) BillNoShow(ctx context.Context, reservationID int64) (*domain.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

type MockRoomUseCase struct {
	mock.Mock
}

func (m *MockRoomUseCase) List(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockRoomUseCase) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomUseCase) Availability(ctx context.Context, id int64, checkIn, checkOut time.Time) (bool, error) {
	args := m.Called(ctx, id, checkIn, checkOut)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomUseCase) Quote(ctx context.Context, id int64, checkIn, checkOut time.Time) (*rooms.Quote, error) {
	args := m.Called(ctx, id, checkIn, checkOut)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rooms.Quote), args.Error(1)
}
