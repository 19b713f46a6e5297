package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/idgen"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/logging"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// CreateUser provisions a staff account (agent, admin, or super_admin).
// Accounts start pending with no agent number; the number is assigned
// separately through AssignAgentNumber.
func (h *Handler) CreateUser(c *gin.Context) {
	var req models.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if !req.Role.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid role",
			Message: "role must be agent, admin, or super_admin",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := h.store.CreateUser(ctx, req)
	if err != nil {
		respondError(c, err, "Failed to create user")
		return
	}

	adminEmail, _ := c.Get("email")
	logging.LogKV("info", "staff account provisioned", map[string]interface{}{
		"by":           adminEmail,
		"target_email": user.Email,
		"target_role":  string(user.Role),
		"request_id":   logging.GetRequestID(c),
	})

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "User created successfully",
		Data:    user,
	})
}

// GetUsers lists staff accounts with search, filtering, and pagination.
func (h *Handler) GetUsers(c *gin.Context) {
	params := models.UserSearchParams{
		Page:  1,
		Limit: 20,
		Sort:  "created_at",
		Order: "desc",
	}

	if page := c.Query("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}
	if limit := c.Query("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 && l <= 100 {
			params.Limit = l
		}
	}
	if search := c.Query("search"); search != "" {
		params.Search = strings.TrimSpace(search)
	}
	if role := c.Query("role"); role != "" {
		if r := models.UserRole(role); r.IsValid() {
			params.Role = &r
		}
	}
	if status := c.Query("status"); status != "" {
		if s := models.UserStatus(status); s.IsValid() {
			params.Status = &s
		}
	}
	if sort := c.Query("sort"); sort != "" {
		params.Sort = sort
	}
	if order := c.Query("order"); order == "asc" || order == "desc" {
		params.Order = order
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	response, err := h.store.ListUsers(ctx, params)
	if err != nil {
		respondError(c, err, "Failed to retrieve users")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetUserByID retrieves a single staff account.
func (h *Handler) GetUserByID(c *gin.Context) {
	userID := c.Param("user_id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// AssignAgentNumber composes and stores an account's agent number. The
// 4-digit suffix comes from a sensitive personal identifier: it is used for
// composition only and never logged or persisted on its own. Re-invoking
// this endpoint is the only way to change an existing number.
func (h *Handler) AssignAgentNumber(c *gin.Context) {
	userID := c.Param("user_id")

	var req models.AgentNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := h.store.GetUser(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve user")
		return
	}

	year := req.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	number, err := idgen.AgentNumber(user.Role, year, req.Suffix)
	if err != nil {
		respondError(c, err, "Failed to compose agent number")
		return
	}

	updated, err := h.store.AssignAgentNumber(ctx, userID, number)
	if err != nil {
		respondError(c, err, "Failed to assign agent number")
		return
	}

	adminEmail, _ := c.Get("email")
	logging.LogKV("info", "agent number assigned", map[string]interface{}{
		"by":           adminEmail,
		"user_id":      userID,
		"agent_number": number,
		"request_id":   logging.GetRequestID(c),
	})

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Agent number assigned successfully",
		Data:    updated,
	})
}

// UpdateUserStatus activates or deactivates a staff account. The agent
// number is untouched either way: deactivation never releases it and
// reactivation restores the account exactly as it was.
func (h *Handler) UpdateUserStatus(c *gin.Context) {
	userID := c.Param("user_id")

	var req models.UserStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid status",
			Message: "status must be pending, active, or inactive",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := h.store.SetUserStatus(ctx, userID, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update user status")
		return
	}

	adminEmail, _ := c.Get("email")
	logging.LogKV("info", "staff account status changed", map[string]interface{}{
		"by":         adminEmail,
		"user_id":    userID,
		"status":     string(req.Status),
		"reason":     req.Reason,
		"request_id": logging.GetRequestID(c),
	})

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "User status updated successfully",
		Data:    user,
	})
}

// GetMissingCommissions runs the reconciliation audit: active,
// agent-enrolled members with no commission on record. Each row is an
// enrollment whose commission step failed and needs a retry.
func (h *Handler) GetMissingCommissions(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	missing, err := h.store.ListMissingCommissions(ctx)
	if err != nil {
		respondError(c, err, "Failed to run missing-commissions audit")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"missing": missing,
		"total":   len(missing),
	})
}

// UpdateCommissionStatus applies an admin lifecycle transition to a
// commission. Cancelling an unpaid commission cancels its payout too.
func (h *Handler) UpdateCommissionStatus(c *gin.Context) {
	commissionID := c.Param("commission_id")

	var req models.CommissionStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid status",
			Message: "status must be pending, active, or cancelled",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	commission, err := h.store.SetCommissionStatus(ctx, commissionID, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update commission status")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Commission status updated successfully",
		Data:    commission,
	})
}

// GetPayments lists recorded processor payments, optionally for one member.
func (h *Handler) GetPayments(c *gin.Context) {
	page, limit := parsePagination(c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	response, err := h.store.ListPayments(ctx, c.Query("member_id"), page, limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve payments")
		return
	}

	c.JSON(http.StatusOK, response)
}
