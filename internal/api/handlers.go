package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/commission"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/db"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// Store is the persistence surface the handlers depend on. *db.Database is
// the production implementation; tests substitute their own.
type Store interface {
	Health(ctx context.Context) error

	CreateUser(ctx context.Context, req models.UserCreateRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, params models.UserSearchParams) (*models.UserListResponse, error)
	AssignAgentNumber(ctx context.Context, userID, agentNumber string) (*models.User, error)
	SetUserStatus(ctx context.Context, userID string, status models.UserStatus) (*models.User, error)

	CreatePlan(ctx context.Context, req models.PlanCreateRequest) (*models.Plan, error)
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error)
	UpdatePlan(ctx context.Context, id string, req models.PlanUpdateRequest) (*models.Plan, error)

	CreateMember(ctx context.Context, req models.EnrollmentRequest, agentID *string, now time.Time) (*models.Member, error)
	GetMember(ctx context.Context, id string) (*models.Member, error)
	ListMembers(ctx context.Context, params models.MemberSearchParams) (*models.MemberListResponse, error)
	UpdateMember(ctx context.Context, id string, req models.MemberUpdateRequest) (*models.Member, error)
	DeactivateMember(ctx context.Context, id string) error

	UpsertCommission(ctx context.Context, c models.Commission) (*models.Commission, bool, error)
	GetCommissionByMember(ctx context.Context, memberID string) (*models.Commission, error)
	ListCommissions(ctx context.Context, filter models.CommissionFilter) (*models.CommissionListResponse, error)
	SummarizeCommissions(ctx context.Context, filter models.CommissionFilter) (*models.CommissionSummary, error)
	MarkCommissionPaid(ctx context.Context, memberID string) (*models.Commission, error)
	SetCommissionStatus(ctx context.Context, commissionID string, status models.CommissionStatus) (*models.Commission, error)
	ListMissingCommissions(ctx context.Context) ([]models.MissingCommission, error)

	RecordPayment(ctx context.Context, memberID, transactionID string, amount decimal.Decimal) (*models.Payment, bool, error)
	ListPayments(ctx context.Context, memberID string, page, limit int) (*models.PaymentListResponse, error)

	CreateLead(ctx context.Context, req models.LeadCreateRequest) (*models.Lead, error)
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	ListLeads(ctx context.Context, params models.LeadSearchParams) (*models.LeadListResponse, error)
	UpdateLead(ctx context.Context, id string, req models.LeadUpdateRequest) (*models.Lead, error)
}

var _ Store = (*db.Database)(nil)

// Handler holds the store and commission calculator and provides HTTP handlers
type Handler struct {
	store Store
	calc  *commission.Calculator
}

// NewHandler creates a new handler instance
func NewHandler(store Store, calc *commission.Calculator) *Handler {
	return &Handler{
		store: store,
		calc:  calc,
	}
}

// Health checks the health of the service
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.store.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "Database connection failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "enrollment-service",
		"timestamp": time.Now().UTC(),
	})
}

// respondError maps classified errors onto the HTTP error contract.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "Not found",
			Message: err.Error(),
		})
	case models.IsConflict(err):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "Conflict",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   fallback,
			Message: err.Error(),
		})
	}
}

// parsePagination reads page/limit query parameters with sane bounds.
func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
