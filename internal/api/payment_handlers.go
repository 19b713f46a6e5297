package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/logging"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// PaymentCallback handles the payment processor's webhook. A successful
// payment is recorded exactly once per transaction ID and advances the
// member's commission from unpaid to paid. Replays of a transaction the
// service has already seen acknowledge without re-running the transition.
func (h *Handler) PaymentCallback(c *gin.Context) {
	var req models.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	// Only successful payments drive commission transitions; every other
	// event is acknowledged and dropped so the processor stops retrying.
	if req.Event != models.PaymentEventSucceeded {
		c.JSON(http.StatusOK, models.SuccessResponse{
			Message: "Event ignored",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	payment, recorded, err := h.store.RecordPayment(ctx, req.MemberID, req.TransactionID, req.Amount)
	if err != nil {
		respondError(c, err, "Failed to record payment")
		return
	}

	if !recorded {
		c.JSON(http.StatusOK, models.SuccessResponse{
			Message: "Payment already recorded",
			Data:    payment,
		})
		return
	}

	commission, err := h.store.MarkCommissionPaid(ctx, req.MemberID)
	if err != nil {
		// The payment itself is booked; a missing or already-settled
		// commission is left to the reconciliation audit.
		logging.LogKV("error", "commission payout transition failed", map[string]interface{}{
			"member_id":      req.MemberID,
			"transaction_id": req.TransactionID,
			"request_id":     logging.GetRequestID(c),
			"error":          err.Error(),
		})
		c.JSON(http.StatusOK, models.SuccessResponse{
			Message: "Payment recorded; commission not updated",
			Data:    payment,
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Payment recorded successfully",
		Data: gin.H{
			"payment":    payment,
			"commission": commission,
		},
	})
}
