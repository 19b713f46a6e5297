package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// GetPlans lists plan offerings. Agents see active plans only; admins may
// include retired plans with include_inactive=true.
func (h *Handler) GetPlans(c *gin.Context) {
	activeOnly := true
	if c.Query("include_inactive") == "true" && IsAdminRequest(c) {
		activeOnly = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	plans, err := h.store.ListPlans(ctx, activeOnly)
	if err != nil {
		respondError(c, err, "Failed to retrieve plans")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plans": plans,
		"total": len(plans),
	})
}

// CreatePlan adds a plan offering (admin only).
func (h *Handler) CreatePlan(c *gin.Context) {
	var req models.PlanCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if !req.Tier.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid tier",
			Message: "tier must be base, plus, or elite",
		})
		return
	}
	if req.MonthlyPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid price",
			Message: "monthly_price must not be negative",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	plan, err := h.store.CreatePlan(ctx, req)
	if err != nil {
		respondError(c, err, "Failed to create plan")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Plan created successfully",
		Data:    plan,
	})
}

// UpdatePlan changes a plan's name, price, or active flag (admin only).
// Tier is immutable; recorded commissions keep the snapshot they were
// priced under either way.
func (h *Handler) UpdatePlan(c *gin.Context) {
	planID := c.Param("plan_id")

	var req models.PlanUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if req.MonthlyPrice != nil && req.MonthlyPrice.IsNegative() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid price",
			Message: "monthly_price must not be negative",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	plan, err := h.store.UpdatePlan(ctx, planID, req)
	if err != nil {
		respondError(c, err, "Failed to update plan")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Plan updated successfully",
		Data:    plan,
	})
}
