package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minfaz98/cozy-stay/internal/service/rooms"
)

type RoomHandler struct {
	service rooms.UseCase
}

type stayQuery struct {
	CheckIn  string `form:"check_in" binding:"required"`
	CheckOut string `form:"check_out" binding:"required"`
}

func NewRoomHandler(service rooms.UseCase) *RoomHandler {
	return &RoomHandler{service: service}
}

func (h *RoomHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/availability", h.availability)
	router.GET("/:id/quote", h.quote)
}

func (h *RoomHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *RoomHandler) get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	room, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) availability(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	q, ok := bindStay(c)
	if !ok {
		return
	}
	checkIn, err := parseDate("check_in", q.CheckIn)
	if err != nil {
		writeError(c, err)
		return
	}
	checkOut, err := parseDate("check_out", q.CheckOut)
	if err != nil {
		writeError(c, err)
		return
	}

	free, err := h.service.Availability(c.Request.Context(), id, checkIn, checkOut)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id":   id,
		"check_in":  q.CheckIn,
		"check_out": q.CheckOut,
		"available": free,
	})
}

func (h *RoomHandler) quote(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	q, ok := bindStay(c)
	if !ok {
		return
	}
	checkIn, err := parseDate("check_in", q.CheckIn)
	if err != nil {
		writeError(c, err)
		return
	}
	checkOut, err := parseDate("check_out", q.CheckOut)
	if err != nil {
		writeError(c, err)
		return
	}

	quote, err := h.service.Quote(c.Request.Context(), id, checkIn, checkOut)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func bindStay(c *gin.Context) (stayQuery, bool) {
	var q stayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return q, false
	}
	return q, true
}
