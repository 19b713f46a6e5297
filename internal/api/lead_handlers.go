package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// CreateLead records a prospect. Agents always own the leads they create;
// only admins may assign a lead to somebody else.
func (h *Handler) CreateLead(c *gin.Context) {
	callerID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid user",
			Message: "Could not extract user ID from token",
		})
		return
	}

	var req models.LeadCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if !IsAdminRequest(c) || req.AssignedTo == nil {
		req.AssignedTo = &callerID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lead, err := h.store.CreateLead(ctx, req)
	if err != nil {
		respondError(c, err, "Failed to create lead")
		return
	}

	c.JSON(http.StatusCreated, models.SuccessResponse{
		Message: "Lead created successfully",
		Data:    lead,
	})
}

// GetLeads lists leads. Agents see their own assignments; admins may filter
// by assignee and status.
func (h *Handler) GetLeads(c *gin.Context) {
	callerID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid user",
			Message: "Could not extract user ID from token",
		})
		return
	}

	page, limit := parsePagination(c)
	params := models.LeadSearchParams{Page: page, Limit: limit}

	if status := c.Query("status"); status != "" {
		s := models.LeadStatus(status)
		if !s.IsValid() {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "Invalid status",
				Message: "status must be new, contacted, qualified, enrolled, or closed",
			})
			return
		}
		params.Status = &s
	}

	if IsAdminRequest(c) {
		params.AssignedTo = c.Query("assigned_to")
	} else {
		params.AssignedTo = callerID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	response, err := h.store.ListLeads(ctx, params)
	if err != nil {
		respondError(c, err, "Failed to retrieve leads")
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateLead moves a lead through the pipeline. Agents may update their own
// leads but not reassign them; reassignment requires an admin role.
func (h *Handler) UpdateLead(c *gin.Context) {
	leadID := c.Param("lead_id")

	callerID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid user",
			Message: "Could not extract user ID from token",
		})
		return
	}

	var req models.LeadUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if req.Status != nil && !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid status",
			Message: "status must be new, contacted, qualified, enrolled, or closed",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !IsAdminRequest(c) {
		lead, err := h.store.GetLead(ctx, leadID)
		if err != nil {
			respondError(c, err, "Failed to retrieve lead")
			return
		}
		if lead.AssignedTo == nil || *lead.AssignedTo != callerID {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "Forbidden",
				Message: "You may only update leads assigned to you",
			})
			return
		}
		if req.AssignedTo != nil && *req.AssignedTo != callerID {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "Forbidden",
				Message: "Reassigning a lead requires an admin role",
			})
			return
		}
	}

	lead, err := h.store.UpdateLead(ctx, leadID, req)
	if err != nil {
		respondError(c, err, "Failed to update lead")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Lead updated successfully",
		Data:    lead,
	})
}
