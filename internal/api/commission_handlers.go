package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// CalculateCommission answers the pure rate-table query without touching
// storage. Unknown tiers and coverage types are a 400, never a silent zero.
func (h *Handler) CalculateCommission(c *gin.Context) {
	tier := models.PlanTier(c.Query("tier"))
	coverage := models.CoverageType(c.Query("coverage_type"))
	rxAddon := c.Query("rx_addon") == "true"

	amount, err := h.calc.Calculate(tier, coverage, rxAddon)
	if err != nil {
		respondError(c, err, "Failed to calculate commission")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan_tier":     tier,
		"coverage_type": coverage,
		"rx_addon":      rxAddon,
		"amount":        amount,
		"rate_version":  h.calc.Version(),
	})
}

// UpsertMemberCommission runs the commission flow for an existing member:
// recompute the amount from the member's current plan and coverage, then
// insert-or-update the single commission row. Safe to retry; two identical
// calls leave exactly one row.
func (h *Handler) UpsertMemberCommission(c *gin.Context) {
	memberID := c.Param("member_id")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	member, ok := h.loadMemberForCaller(c, ctx, memberID)
	if !ok {
		return
	}

	if member.EnrolledBy == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "No enrolling agent",
			Message: "This member has no enrolling agent to credit a commission to",
		})
		return
	}

	agent, err := h.store.GetUser(ctx, *member.EnrolledBy)
	if err != nil {
		respondError(c, err, "Failed to resolve enrolling agent")
		return
	}
	plan, err := h.store.GetPlan(ctx, member.PlanID)
	if err != nil {
		respondError(c, err, "Failed to resolve plan")
		return
	}

	commission, created, err := h.recordCommission(ctx, agent, member, plan.Tier)
	if err != nil {
		respondError(c, err, "Failed to record commission")
		return
	}

	status := http.StatusOK
	message := "Commission already recorded"
	if created {
		status = http.StatusCreated
		message = "Commission recorded successfully"
	}
	c.JSON(status, models.SuccessResponse{
		Message: message,
		Data:    commission,
	})
}

// GetMemberCommission returns the commission recorded for one member.
func (h *Handler) GetMemberCommission(c *gin.Context) {
	memberID := c.Param("member_id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, ok := h.loadMemberForCaller(c, ctx, memberID); !ok {
		return
	}

	commission, err := h.store.GetCommissionByMember(ctx, memberID)
	if err != nil {
		respondError(c, err, "Failed to retrieve commission")
		return
	}

	c.JSON(http.StatusOK, commission)
}

// parseCommissionFilter reads the shared list/summary query parameters.
// Non-admin callers are pinned to their own commissions regardless of the
// agent_id parameter. Returns false after writing the error response.
func parseCommissionFilter(c *gin.Context) (models.CommissionFilter, bool) {
	var filter models.CommissionFilter

	callerID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid user",
			Message: "Could not extract user ID from token",
		})
		return filter, false
	}

	filter.Page, filter.Limit = parsePagination(c)

	if IsAdminRequest(c) {
		filter.AgentID = c.Query("agent_id")
	} else {
		filter.AgentID = callerID
	}

	if ps := c.Query("payment_status"); ps != "" {
		status := models.PaymentStatus(ps)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid payment status",
				Message: "payment_status must be unpaid, paid, or cancelled",
			})
			return filter, false
		}
		filter.PaymentStatus = &status
	}

	if s := c.Query("status"); s != "" {
		status := models.CommissionStatus(s)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid status",
				Message: "status must be pending, active, or cancelled",
			})
			return filter, false
		}
		filter.Status = &status
	}

	if from := c.Query("date_from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid date_from",
				Message: "date_from must be YYYY-MM-DD",
			})
			return filter, false
		}
		filter.DateFrom = &t
	}

	if to := c.Query("date_to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid date_to",
				Message: "date_to must be YYYY-MM-DD",
			})
			return filter, false
		}
		// The filter's upper bound is exclusive; include the named day.
		t = t.AddDate(0, 0, 1)
		filter.DateTo = &t
	}

	return filter, true
}

// GetCommissions lists commissions under the shared filter, newest first.
func (h *Handler) GetCommissions(c *gin.Context) {
	filter, ok := parseCommissionFilter(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	response, err := h.store.ListCommissions(ctx, filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve commissions")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetCommissionSummary aggregates commissions under the shared filter.
// Payable figures exclude admin-enrollment rows and cancelled rows.
func (h *Handler) GetCommissionSummary(c *gin.Context) {
	filter, ok := parseCommissionFilter(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := h.store.SummarizeCommissions(ctx, filter)
	if err != nil {
		respondError(c, err, "Failed to summarize commissions")
		return
	}

	c.JSON(http.StatusOK, summary)
}
