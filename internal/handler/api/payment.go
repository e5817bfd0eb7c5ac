package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	reqdto "venue-booking/internal/handler/dto/request"
	resdto "venue-booking/internal/handler/dto/response"
	"venue-booking/internal/handler/httperr"
	"venue-booking/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type PaymentHandler struct {
	cmds   commands.BookingCommands
	logger *slog.Logger
}

func NewPaymentHandler(cmds commands.BookingCommands, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{cmds: cmds, logger: logger}
}

// @Summary Payment webhook
// @Description Receive processor events. The charge is re-read from the processor before acting.
// @Tags payments
// @Accept json
// @Produce json
// @Param request body reqdto.PaymentWebhookRequest true "Processor event"
// @Success 200 {object} resdto.PaymentResponse
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	req, err := bindWebhook(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	if req.Data.Object != "" && req.Data.Object != "charge" {
		h.logger.InfoContext(c.Request.Context(), "Ignoring non-charge payment event",
			"event_id", req.ID,
			"key", req.Key,
			"object", req.Data.Object)
		c.JSON(http.StatusOK, resdto.PaymentResponse{Status: "ignored"})
		return
	}

	outcome, err := h.cmds.HandlePaymentEvent(c.Request.Context(), req.Data.ID)
	if err != nil {
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

// bindWebhook tolerates the extra fields processors add to event envelopes,
// which the strict global JSON decoder would reject.
func bindWebhook(c *gin.Context) (reqdto.PaymentWebhookRequest, error) {
	var req reqdto.PaymentWebhookRequest
	raw, err := c.GetRawData()
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, err
	}
	return req, binding.Validator.ValidateStruct(&req)
}
