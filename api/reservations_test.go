package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/service/reservation"
)

func day(d int) time.Time {
	return time.Date(2026, 6, d, 0, 0, 0, 0, time.UTC)
}

func sampleReservation() *domain.Reservation {
	return &domain.Reservation{
		ID:               5,
		RoomID:           1,
		UserID:           "guest-1",
		CheckIn:          day(20),
		CheckOut:         day(22),
		Guests:           2,
		Status:           domain.ReservationStatusConfirmed,
		TotalAmountCents: 20000,
	}
}

type testServer struct {
	reservations *MockReservationUseCase
	billing      *MockBillingUseCase
	rooms        *MockRoomUseCase
	router       *gin.Engine
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	s := &testServer{
		reservations: &MockReservationUseCase{},
		billing:      &MockBillingUseCase{},
		rooms:        &MockRoomUseCase{},
	}
	s.router = NewRouter(Handlers{
		Reservations: NewReservationHandler(s.reservations),
		Billing:      NewBillingHandler(s.billing),
		Rooms:        NewRoomHandler(s.rooms),
	}, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return s
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestReservationHandler_create(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewReservationHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := `{"room_id":1,"check_in":"2026-06-20","check_out":"2026-06-22T10:00:00+05:30","guests":2,
		"credit_card":{"card_number":"4111111111111111","expiry_month":12,"expiry_year":2030,"cvv":"123","holder_name":"Ada"}}`
	c.Request = httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.Header.Set(HeaderUserID, "guest-1")

	mockService.On("Create", c.Request.Context(), mock.MatchedBy(func(in reservation.CreateInput) bool {
		return in.Caller.UserID == "guest-1" && in.RoomID == 1 && in.Guests == 2 &&
			in.CheckIn.Equal(day(20)) && in.CheckOut.Equal(day(22)) &&
			in.Card != nil && in.Card.Number == "4111111111111111"
	})).Return(sampleReservation(), nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response reservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(5), response.ID)
	assert.Equal(t, "2026-06-20", response.CheckIn)
	assert.Equal(t, "2026-06-22", response.CheckOut)
	assert.Equal(t, "CONFIRMED", response.Status)

	mockService.AssertExpectations(t)
}

func TestReservationHandler_create_bindError(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodPost, "/reservations", `{"room_id":1,"check_out":"2026-06-22"}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
	s.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReservationHandler_create_badDate(t *testing.T) {
	s := newTestServer()

	w := s.do(http.MethodPost, "/reservations", `{"room_id":1,"check_in":"20/06/2026","check_out":"2026-06-22","guests":1}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReservationHandler_errorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: bad dates", domain.ErrValidation), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{domain.ErrRoomNotFound, http.StatusNotFound, "ROOM_NOT_FOUND"},
		{fmt.Errorf("%w: taken", domain.ErrRoomUnavailable), http.StatusConflict, "ROOM_UNAVAILABLE"},
		{domain.ErrInvalidStateTransition, http.StatusConflict, "INVALID_STATE_TRANSITION"},
		{domain.ErrPayment, http.StatusPaymentRequired, "PAYMENT_ERROR"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			s := newTestServer()
			s.reservations.On("Create", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := s.do(http.MethodPost, "/reservations", `{"room_id":1,"check_in":"2026-06-20","check_out":"2026-06-22","guests":1}`, nil)

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, body.Message, "db exploded")
			}
		})
	}
}

func TestReservationHandler_createBulk(t *testing.T) {
	s := newTestServer()
	group := "g-1"
	first, second := *sampleReservation(), *sampleReservation()
	first.GroupID, second.GroupID = &group, &group
	second.ID, second.RoomID = 6, 2

	s.reservations.On("CreateBulk", mock.Anything, mock.MatchedBy(func(in reservation.BulkInput) bool {
		return in.Caller.Role == reservation.RoleCompany && in.Caller.UserID == "acme" &&
			in.NumberOfRooms == 2 && in.RoomType == domain.RoomTypeDouble
	})).Return([]domain.Reservation{first, second}, nil)

	body := `{"room_type":"DOUBLE","number_of_rooms":2,"check_in":"2026-06-20","check_out":"2026-06-22",
		"credit_card":{"card_number":"4111111111111111","expiry_month":12,"expiry_year":2030,"cvv":"123","holder_name":"Acme"}}`
	w := s.do(http.MethodPost, "/reservations/bulk", body, map[string]string{
		HeaderUserID: "acme", HeaderUserRole: reservation.RoleCompany,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp []reservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "g-1", *resp[1].GroupID)
}

func TestReservationHandler_get(t *testing.T) {
	s := newTestServer()
	s.reservations.On("Get", mock.Anything, int64(5)).Return(sampleReservation(), nil)
	s.reservations.On("Get", mock.Anything, int64(6)).Return(nil, fmt.Errorf("%w: id 6", domain.ErrNotFound))

	w := s.do(http.MethodGet, "/reservations/5", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/reservations/6", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESERVATION_NOT_FOUND", decodeError(t, w).Code)

	w = s.do(http.MethodGet, "/reservations/abc", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestReservationHandler_update(t *testing.T) {
	s := newTestServer()
	s.reservations.On("Update", mock.Anything, mock.MatchedBy(func(in reservation.UpdateInput) bool {
		return in.ID == 5 && in.CheckIn == nil && in.CheckOut != nil && in.CheckOut.Equal(day(24)) &&
			in.Status != nil && *in.Status == domain.ReservationStatusCheckedIn
	})).Return(sampleReservation(), nil)

	w := s.do(http.MethodPatch, "/reservations/5", `{"check_out":"2026-06-24","status":"CHECKED_IN"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	s.reservations.AssertExpectations(t)
}

func TestReservationHandler_cancel(t *testing.T) {
	s := newTestServer()
	cancelled := sampleReservation()
	cancelled.Status = domain.ReservationStatusCancelled
	s.reservations.On("Cancel", mock.Anything, int64(5)).Return(cancelled, nil).Once()
	s.reservations.On("Cancel", mock.Anything, int64(5)).Return(nil, domain.ErrInvalidStateTransition).Once()

	w := s.do(http.MethodDelete, "/reservations/5", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/reservations/5", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReservationHandler_attachCardAndCheckIn(t *testing.T) {
	s := newTestServer()
	s.reservations.On("AttachCard", mock.Anything, int64(5), mock.MatchedBy(func(card domain.CreditCard) bool {
		return card.HolderName == "Ada" && card.CVV == "123"
	})).Return(sampleReservation(), nil)
	checkedIn := sampleReservation()
	checkedIn.Status = domain.ReservationStatusCheckedIn
	s.reservations.On("CheckIn", mock.Anything, int64(5)).Return(checkedIn, nil)

	w := s.do(http.MethodPost, "/reservations/5/card",
		`{"card_number":"4111111111111111","expiry_month":12,"expiry_year":2030,"cvv":"123","holder_name":"Ada"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/reservations/5/check-in", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"CHECKED_IN"`)
}

func TestReservationHandler_walkIn(t *testing.T) {
	s := newTestServer()
	walkIn := sampleReservation()
	walkIn.Status = domain.ReservationStatusCheckedIn
	s.reservations.On("CreateWalkIn", mock.Anything, mock.MatchedBy(func(in reservation.CreateInput) bool {
		return in.CheckIn.IsZero() && in.CheckOut.Equal(day(22))
	})).Return(walkIn, nil)

	w := s.do(http.MethodPost, "/reservations/walk-in", `{"room_id":1,"check_out":"2026-06-22","guests":1}`,
		map[string]string{HeaderUserID: "desk"})

	assert.Equal(t, http.StatusCreated, w.Code)
	s.reservations.AssertExpectations(t)
}
