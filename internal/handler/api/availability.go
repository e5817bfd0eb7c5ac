package api

import (
	"net/http"

	resdto "venue-booking/internal/handler/dto/response"
	"venue-booking/internal/handler/middleware"
	"venue-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	q queries.AvailabilityQueries
}

func NewAvailabilityHandler(q queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{q: q}
}

// @Summary Check availability
// @Description Report which catalog slots can be booked on a venue-local date
// @Tags availability
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Header 200 {string} X-Availability-Degraded "true when the calendar could not be read"
// @Router /api/availability [get]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	res, err := h.q.Check(c.Request.Context(), c.Query("date"))
	if err != nil {
		abortWithMapped(c, err)
		return
	}
	if res.Degraded {
		c.Header(middleware.DegradedHeader, "true")
	}
	c.JSON(http.StatusOK, resdto.FromAvailabilityResult(res))
}

// @Summary List slots
// @Description List the daily slot catalog in order
// @Tags availability
// @Produce json
// @Success 200 {array} resdto.SlotResponse
// @Router /api/slots [get]
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	c.JSON(http.StatusOK, resdto.FromSlotViews(h.q.Slots()))
}
