package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/service/reservation"
)

type ReservationHandler struct {
	service reservation.UseCase
}

type createReservationRequest struct {
	RoomID     int64              `json:"room_id" binding:"required"`
	CheckIn    string             `json:"check_in"`
	CheckOut   string             `json:"check_out" binding:"required"`
	Guests     int                `json:"guests" binding:"required"`
	CreditCard *domain.CreditCard `json:"credit_card"`
}

type bulkReservationRequest struct {
	RoomType      domain.RoomType   `json:"room_type" binding:"required"`
	NumberOfRooms int               `json:"number_of_rooms" binding:"required"`
	GuestsPerRoom int               `json:"guests_per_room"`
	CheckIn       string            `json:"check_in" binding:"required"`
	CheckOut      string            `json:"check_out" binding:"required"`
	CreditCard    domain.CreditCard `json:"credit_card"`
}

type updateReservationRequest struct {
	CheckIn  *string                   `json:"check_in"`
	CheckOut *string                   `json:"check_out"`
	RoomID   *int64                    `json:"room_id"`
	Status   *domain.ReservationStatus `json:"status"`
}

type reservationResponse struct {
	ID                  int64   `json:"id"`
	RoomID              int64   `json:"room_id"`
	UserID              string  `json:"user_id"`
	CheckIn             string  `json:"check_in"`
	CheckOut            string  `json:"check_out"`
	Guests              int     `json:"guests"`
	Status              string  `json:"status"`
	TotalAmountCents    int64   `json:"total_amount_cents"`
	DiscountRate        float64 `json:"discount_rate"`
	GroupID             *string `json:"group_id,omitempty"`
	HasCreditCardOnFile bool    `json:"has_credit_card_on_file"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

func toReservationResponse(r *domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:                  r.ID,
		RoomID:              r.RoomID,
		UserID:              r.UserID,
		CheckIn:             r.CheckIn.Format(time.DateOnly),
		CheckOut:            r.CheckOut.Format(time.DateOnly),
		Guests:              r.Guests,
		Status:              string(r.Status),
		TotalAmountCents:    r.TotalAmountCents,
		DiscountRate:        r.DiscountRate,
		GroupID:             r.GroupID,
		HasCreditCardOnFile: r.HasCreditCardOnFile,
		CreatedAt:           r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           r.UpdatedAt.Format(time.RFC3339),
	}
}

func NewReservationHandler(service reservation.UseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.POST("/bulk", h.createBulk)
	router.POST("/walk-in", h.walkIn)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.DELETE("/:id", h.cancel)
	router.POST("/:id/card", h.attachCard)
	router.POST("/:id/check-in", h.checkIn)
}

func (h *ReservationHandler) bindCreate(c *gin.Context) (reservation.CreateInput, bool) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return reservation.CreateInput{}, false
	}
	checkIn, err := parseDate("check_in", req.CheckIn)
	if err != nil {
		writeError(c, err)
		return reservation.CreateInput{}, false
	}
	checkOut, err := parseDate("check_out", req.CheckOut)
	if err != nil {
		writeError(c, err)
		return reservation.CreateInput{}, false
	}
	return reservation.CreateInput{
		Caller:   callerFrom(c),
		RoomID:   req.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   req.Guests,
		Card:     req.CreditCard,
	}, true
}

func (h *ReservationHandler) create(c *gin.Context) {
	input, ok := h.bindCreate(c)
	if !ok {
		return
	}
	r, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReservationResponse(r))
}

func (h *ReservationHandler) walkIn(c *gin.Context) {
	input, ok := h.bindCreate(c)
	if !ok {
		return
	}
	r, err := h.service.CreateWalkIn(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toReservationResponse(r))
}

func (h *ReservationHandler) createBulk(c *gin.Context) {
	var req bulkReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, err := parseDate("check_in", req.CheckIn)
	if err != nil {
		writeError(c, err)
		return
	}
	checkOut, err := parseDate("check_out", req.CheckOut)
	if err != nil {
		writeError(c, err)
		return
	}

	created, err := h.service.CreateBulk(c.Request.Context(), reservation.BulkInput{
		Caller:        callerFrom(c),
		RoomType:      req.RoomType,
		NumberOfRooms: req.NumberOfRooms,
		GuestsPerRoom: req.GuestsPerRoom,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Card:          req.CreditCard,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]reservationResponse, 0, len(created))
	for i := range created {
		resp = append(resp, toReservationResponse(&created[i]))
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ReservationHandler) get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

func (h *ReservationHandler) update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	input := reservation.UpdateInput{ID: id, RoomID: req.RoomID, Status: req.Status}
	if req.CheckIn != nil {
		t, err := parseDate("check_in", *req.CheckIn)
		if err != nil {
			writeError(c, err)
			return
		}
		input.CheckIn = &t
	}
	if req.CheckOut != nil {
		t, err := parseDate("check_out", *req.CheckOut)
		if err != nil {
			writeError(c, err)
			return
		}
		input.CheckOut = &t
	}

	r, err := h.service.Update(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

func (h *ReservationHandler) attachCard(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var card domain.CreditCard
	if err := c.ShouldBindJSON(&card); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.service.AttachCard(c.Request.Context(), id, card)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}

func (h *ReservationHandler) checkIn(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	r, err := h.service.CheckIn(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(r))
}
