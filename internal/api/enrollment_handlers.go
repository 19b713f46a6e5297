package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/logging"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// CreateEnrollment enrolls a member and records the enrolling agent's
// commission. The two writes are deliberately decoupled: the member insert
// commits on its own, and a commission failure is reported in the response
// (and picked up by the missing-commissions audit) without failing the
// enrollment.
func (h *Handler) CreateEnrollment(c *gin.Context) {
	callerID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid user",
			Message: "Could not extract user ID from token",
		})
		return
	}

	var req models.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if !req.CoverageType.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid coverage type",
			Message: fmt.Sprintf("unknown coverage type %q", req.CoverageType),
		})
		return
	}

	// Admins may enroll on behalf of another agent; everyone else enrolls
	// as themselves.
	agentID := callerID
	if req.AgentID != "" && req.AgentID != callerID {
		if !IsAdminRequest(c) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "Forbidden",
				Message: "Only admins may enroll on behalf of another agent",
			})
			return
		}
		agentID = req.AgentID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Resolve the enrolling agent and plan up front so a dangling reference
	// fails the request before any row is written.
	agent, err := h.store.GetUser(ctx, agentID)
	if err != nil {
		respondError(c, err, "Failed to resolve enrolling agent")
		return
	}
	plan, err := h.store.GetPlan(ctx, req.PlanID)
	if err != nil {
		respondError(c, err, "Failed to resolve plan")
		return
	}

	member, err := h.store.CreateMember(ctx, req, &agent.ID, time.Now().UTC())
	if err != nil {
		respondError(c, err, "Failed to enroll member")
		return
	}

	resp := models.EnrollmentResponse{Member: *member}

	// The member row is committed at this point. Whatever happens to the
	// commission step, the enrollment stands.
	commission, _, err := h.recordCommission(ctx, agent, member, plan.Tier)
	if err != nil {
		logging.LogKV("error", "commission recording failed", map[string]interface{}{
			"member_id":  member.ID,
			"agent_id":   agent.ID,
			"request_id": logging.GetRequestID(c),
			"error":      err.Error(),
		})
		resp.CommissionError = err.Error()
	} else {
		resp.Commission = commission
	}

	c.JSON(http.StatusCreated, resp)
}

// recordCommission computes the commission for one enrollment and upserts
// it. The amount is always recomputed from the rate table; caller-supplied
// amounts are never trusted. Enrollments performed by admin accounts are
// recorded with payable=false so they stay out of payout aggregates.
func (h *Handler) recordCommission(ctx context.Context, agent *models.User, member *models.Member, tier models.PlanTier) (*models.Commission, bool, error) {
	amount, err := h.calc.Calculate(tier, member.CoverageType, member.RxAddon)
	if err != nil {
		return nil, false, err
	}

	return h.store.UpsertCommission(ctx, models.Commission{
		AgentID:      agent.ID,
		MemberID:     member.ID,
		PlanTier:     tier,
		CoverageType: member.CoverageType,
		RxAddon:      member.RxAddon,
		Amount:       amount,
		Payable:      !agent.Role.IsAdmin(),
	})
}

// GetMembers lists members. Agents see only their own enrollments; admins
// may filter by agent or see everything.
func (h *Handler) GetMembers(c *gin.Context) {
	callerID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid user",
			Message: "Could not extract user ID from token",
		})
		return
	}

	page, limit := parsePagination(c)
	params := models.MemberSearchParams{
		Page:       page,
		Limit:      limit,
		Search:     strings.TrimSpace(c.Query("search")),
		ActiveOnly: c.Query("active_only") == "true",
	}
	if IsAdminRequest(c) {
		params.AgentID = c.Query("agent_id")
	} else {
		params.AgentID = callerID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	response, err := h.store.ListMembers(ctx, params)
	if err != nil {
		respondError(c, err, "Failed to retrieve members")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetMember retrieves a single member. Agents may only read members they
// enrolled.
func (h *Handler) GetMember(c *gin.Context) {
	memberID := c.Param("member_id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	member, ok := h.loadMemberForCaller(c, ctx, memberID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, member)
}

// UpdateMember applies a partial update. Agents may edit contact fields on
// their own members; plan and financial fields require an admin role.
// Plan or coverage changes never silently recompute the recorded
// commission; re-running the commission endpoint is the explicit path.
func (h *Handler) UpdateMember(c *gin.Context) {
	memberID := c.Param("member_id")

	var req models.MemberUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid request",
			Message: err.Error(),
		})
		return
	}

	if req.CoverageType != nil && !req.CoverageType.IsValid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Invalid coverage type",
			Message: fmt.Sprintf("unknown coverage type %q", *req.CoverageType),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, ok := h.loadMemberForCaller(c, ctx, memberID); !ok {
		return
	}
	if req.HasPlanChanges() && !IsAdminRequest(c) {
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error:   "Forbidden",
			Message: "Plan and financial fields require an admin role",
		})
		return
	}

	member, err := h.store.UpdateMember(ctx, memberID, req)
	if err != nil {
		respondError(c, err, "Failed to update member")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Member updated successfully",
		Data:    member,
	})
}

// DeactivateMember soft-deletes a member. The customer number stays
// reserved for the record and is never reissued.
func (h *Handler) DeactivateMember(c *gin.Context) {
	memberID := c.Param("member_id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, ok := h.loadMemberForCaller(c, ctx, memberID); !ok {
		return
	}

	if err := h.store.DeactivateMember(ctx, memberID); err != nil {
		respondError(c, err, "Failed to deactivate member")
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Message: "Member deactivated successfully",
	})
}

// loadMemberForCaller fetches a member and enforces ownership: non-admin
// callers may only touch members they enrolled. Writes the error response
// itself and reports success through the bool.
func (h *Handler) loadMemberForCaller(c *gin.Context, ctx context.Context, memberID string) (*models.Member, bool) {
	callerID, ok := GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "Invalid user",
			Message: "Could not extract user ID from token",
		})
		return nil, false
	}

	member, err := h.store.GetMember(ctx, memberID)
	if err != nil {
		respondError(c, err, "Failed to retrieve member")
		return nil, false
	}

	if !IsAdminRequest(c) {
		if member.EnrolledBy == nil || *member.EnrolledBy != callerID {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error:   "Forbidden",
				Message: "You may only access members you enrolled",
			})
			return nil, false
		}
	}

	return member, true
}
