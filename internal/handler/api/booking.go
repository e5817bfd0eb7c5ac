package api

import (
	"net/http"

	reqdto "venue-booking/internal/handler/dto/request"
	resdto "venue-booking/internal/handler/dto/response"
	"venue-booking/internal/handler/httperr"
	"venue-booking/internal/handler/middleware"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/commands"
	"venue-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	cmds commands.BookingCommands
	q    queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q}
}

// @Summary Submit bookings
// @Description Create one booking per item. Pay-later bookings are confirmed immediately.
// @Description A repeated Idempotency-Key replays the stored bookings with 200.
// @Tags bookings
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Idempotency key for duplicate prevention"
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.SubmitBookingsResponse
// @Success 200 {object} resdto.SubmitBookingsResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	key, hasKey, ok := idempotencyKey(c)
	if !ok {
		return
	}

	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	var (
		result *commands.SubmitResult
		err    error
	)
	if hasKey {
		result, err = h.cmds.SubmitIdempotent(c.Request.Context(), req, key)
	} else {
		result, err = h.cmds.Submit(c.Request.Context(), req)
	}
	if err != nil {
		abortWithMapped(c, err)
		return
	}

	body, err := resdto.FromSubmitResult(result)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	if result.Replayed {
		c.Header(middleware.ReplayedHeader, "true")
		c.JSON(http.StatusOK, body)
		return
	}
	if len(result.Failures) > 0 {
		// stored bookings are still returned so the caller can retry or pay
		status, msg := statusFor(result.Failures[0].Err)
		httperr.AbortWithError(c, status, result.Failures[0].Err, msg, body)
		return
	}
	c.JSON(http.StatusCreated, body)
}

// @Summary Get booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithMapped(c, err)
		return
	}
	h.respondView(c, http.StatusOK, view)
}

// @Summary Pay for booking
// @Description Charge the booking total. A successful charge confirms the booking.
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body reqdto.PayBookingRequest true "Card token"
// @Success 200 {object} resdto.PaymentResponse
// @Success 202 {object} resdto.PaymentResponse
// @Failure 402 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/bookings/{id}/payments [post]
func (h *BookingHandler) Pay(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req reqdto.PayBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}

	outcome, err := h.cmds.Pay(c.Request.Context(), id, req.CardToken)
	if err != nil {
		if errs.Is(err, commands.ErrPaymentPending) {
			c.JSON(http.StatusAccepted, resdto.PaymentResponse{Status: "pending"})
			return
		}
		abortWithMapped(c, err)
		return
	}

	body, err := resdto.FromPaymentOutcome(outcome)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(http.StatusOK, body)
}

// @Summary Cancel booking
// @Description Cancel a pending or confirmed booking and release its calendar block
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	view, err := h.cmds.Cancel(c.Request.Context(), id)
	if err != nil {
		abortWithMapped(c, err)
		return
	}
	h.respondView(c, http.StatusOK, view)
}

func (h *BookingHandler) respondView(c *gin.Context, status int, view *queries.BookingView) {
	body, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
		return
	}
	c.JSON(status, body)
}

func bookingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// idempotencyKey reads the optional key header. ok is false once the
// request has been aborted.
func idempotencyKey(c *gin.Context) (key uuid.UUID, present, ok bool) {
	raw := c.GetHeader(middleware.IdempotencyKeyHeader)
	if raw == "" {
		return uuid.Nil, false, true
	}
	key, err := uuid.Parse(raw)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid Idempotency-Key, expected a UUID", nil)
		return uuid.Nil, false, false
	}
	return key, true, true
}
