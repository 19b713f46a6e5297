package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/idgen"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// mockStore is an in-memory Store for handler tests. It reproduces the
// semantics the real queries provide: the per-year counter is claimed
// atomically, at most one commission row exists per member, agent numbers
// and payment transaction IDs are unique. Error fields inject failures.
type mockStore struct {
	mu sync.Mutex

	users       map[string]*models.User
	plans       map[string]*models.Plan
	members     map[string]*models.Member
	commissions map[string]*models.Commission // keyed by member ID
	payments    map[string]*models.Payment    // keyed by transaction ID
	leads       map[string]*models.Lead
	counters    map[int]int64

	memberOrder     []string
	commissionOrder []string
	paymentOrder    []string
	leadOrder       []string

	healthErr           error
	createMemberErr     error
	upsertCommissionErr error
}

var _ Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		users:       map[string]*models.User{},
		plans:       map[string]*models.Plan{},
		members:     map[string]*models.Member{},
		commissions: map[string]*models.Commission{},
		payments:    map[string]*models.Payment{},
		leads:       map[string]*models.Lead{},
		counters:    map[int]int64{},
	}
}

// seedUser registers an active staff account and returns it.
func (s *mockStore) seedUser(role models.UserRole) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     fmt.Sprintf("%s-%s@getmydpc.test", role, uuid.NewString()[:8]),
		FirstName: "Test",
		LastName:  "Staff",
		Role:      role,
		Status:    models.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = u
	return copyUser(u)
}

// seedPlan registers a plan and returns it.
func (s *mockStore) seedPlan(name string, tier models.PlanTier, price string) *models.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	p := &models.Plan{
		ID:           uuid.NewString(),
		Name:         name,
		Tier:         tier,
		MonthlyPrice: decimal.RequireFromString(price),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.plans[p.ID] = p
	return copyPlan(p)
}

func copyUser(u *models.User) *models.User {
	out := *u
	if u.AgentNumber != nil {
		n := *u.AgentNumber
		out.AgentNumber = &n
	}
	return &out
}

func copyPlan(p *models.Plan) *models.Plan {
	out := *p
	return &out
}

func copyMember(m *models.Member) *models.Member {
	out := *m
	return &out
}

func copyCommission(c *models.Commission) *models.Commission {
	out := *c
	if c.PaidAt != nil {
		t := *c.PaidAt
		out.PaidAt = &t
	}
	return &out
}

func copyLead(l *models.Lead) *models.Lead {
	out := *l
	if l.AssignedTo != nil {
		a := *l.AssignedTo
		out.AssignedTo = &a
	}
	return &out
}

func paginate(total, page, limit int) (start, end int) {
	if limit <= 0 {
		return 0, total
	}
	start = (page - 1) * limit
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return start, end
}

func (s *mockStore) Health(ctx context.Context) error {
	return s.healthErr
}

func (s *mockStore) CreateUser(ctx context.Context, req models.UserCreateRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == req.Email {
			return nil, models.NewConflictError("user", fmt.Sprintf("email %s is already registered", req.Email))
		}
	}

	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Status:    models.UserStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = u
	return copyUser(u), nil
}

func (s *mockStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user", id)
	}
	return copyUser(u), nil
}

func (s *mockStore) ListUsers(ctx context.Context, params models.UserSearchParams) (*models.UserListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []models.User{}
	for _, u := range s.users {
		if params.Role != nil && u.Role != *params.Role {
			continue
		}
		if params.Status != nil && u.Status != *params.Status {
			continue
		}
		if params.Search != "" {
			needle := strings.ToLower(params.Search)
			hay := strings.ToLower(u.FirstName + " " + u.LastName + " " + u.Email)
			if u.AgentNumber != nil {
				hay += " " + *u.AgentNumber
			}
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		matched = append(matched, *copyUser(u))
	}

	total := len(matched)
	start, end := paginate(total, params.Page, params.Limit)
	totalPages := 0
	if params.Limit > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}
	return &models.UserListResponse{
		Users:      matched[start:end],
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *mockStore) AssignAgentNumber(ctx context.Context, userID, agentNumber string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, models.NewNotFoundError("user", userID)
	}
	for _, other := range s.users {
		if other.ID != userID && other.AgentNumber != nil && *other.AgentNumber == agentNumber {
			return nil, models.NewConflictError("agent_number", fmt.Sprintf("agent number %s is already assigned", agentNumber))
		}
	}
	u.AgentNumber = &agentNumber
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

func (s *mockStore) SetUserStatus(ctx context.Context, userID string, status models.UserStatus) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, models.NewNotFoundError("user", userID)
	}
	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	return copyUser(u), nil
}

func (s *mockStore) CreatePlan(ctx context.Context, req models.PlanCreateRequest) (*models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.plans {
		if p.Name == req.Name {
			return nil, models.NewConflictError("plan", fmt.Sprintf("plan name %s already exists", req.Name))
		}
	}
	now := time.Now().UTC()
	p := &models.Plan{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Tier:         req.Tier,
		MonthlyPrice: req.MonthlyPrice,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.plans[p.ID] = p
	return copyPlan(p), nil
}

func (s *mockStore) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, models.NewNotFoundError("plan", id)
	}
	return copyPlan(p), nil
}

func (s *mockStore) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans := []models.Plan{}
	for _, p := range s.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		plans = append(plans, *copyPlan(p))
	}
	return plans, nil
}

func (s *mockStore) UpdatePlan(ctx context.Context, id string, req models.PlanUpdateRequest) (*models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, models.NewNotFoundError("plan", id)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.MonthlyPrice != nil {
		p.MonthlyPrice = *req.MonthlyPrice
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	p.UpdatedAt = time.Now().UTC()
	return copyPlan(p), nil
}

func (s *mockStore) CreateMember(ctx context.Context, req models.EnrollmentRequest, agentID *string, now time.Time) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createMemberErr != nil {
		return nil, s.createMemberErr
	}
	if _, ok := s.plans[req.PlanID]; !ok {
		return nil, models.NewNotFoundError("plan", req.PlanID)
	}

	// Counter claim and member insert happen under one lock, mirroring the
	// real store's single transaction.
	year := now.Year()
	s.counters[year]++
	seq := s.counters[year]

	m := &models.Member{
		ID:                uuid.NewString(),
		CustomerNumber:    idgen.CustomerNumber(year, seq),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		PlanID:            req.PlanID,
		CoverageType:      req.CoverageType,
		RxAddon:           req.RxAddon,
		TotalMonthlyPrice: req.TotalMonthlyPrice,
		EnrolledBy:        agentID,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.members[m.ID] = m
	s.memberOrder = append(s.memberOrder, m.ID)
	return copyMember(m), nil
}

func (s *mockStore) GetMember(ctx context.Context, id string) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return nil, models.NewNotFoundError("member", id)
	}
	return copyMember(m), nil
}

func (s *mockStore) ListMembers(ctx context.Context, params models.MemberSearchParams) (*models.MemberListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []models.Member{}
	for i := len(s.memberOrder) - 1; i >= 0; i-- {
		m := s.members[s.memberOrder[i]]
		if params.AgentID != "" && (m.EnrolledBy == nil || *m.EnrolledBy != params.AgentID) {
			continue
		}
		if params.ActiveOnly && !m.IsActive {
			continue
		}
		if params.Search != "" {
			needle := strings.ToLower(params.Search)
			hay := strings.ToLower(m.FirstName+" "+m.LastName+" "+m.Email) + " " + m.CustomerNumber
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		matched = append(matched, *copyMember(m))
	}

	total := len(matched)
	start, end := paginate(total, params.Page, params.Limit)
	return &models.MemberListResponse{
		Members: matched[start:end],
		Total:   total,
		Page:    params.Page,
		Limit:   params.Limit,
	}, nil
}

func (s *mockStore) UpdateMember(ctx context.Context, id string, req models.MemberUpdateRequest) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return nil, models.NewNotFoundError("member", id)
	}
	if req.PlanID != nil {
		if _, ok := s.plans[*req.PlanID]; !ok {
			return nil, models.NewNotFoundError("plan", *req.PlanID)
		}
		m.PlanID = *req.PlanID
	}
	if req.FirstName != nil {
		m.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		m.LastName = *req.LastName
	}
	if req.Email != nil {
		m.Email = *req.Email
	}
	if req.Phone != nil {
		m.Phone = req.Phone
	}
	if req.CoverageType != nil {
		m.CoverageType = *req.CoverageType
	}
	if req.RxAddon != nil {
		m.RxAddon = *req.RxAddon
	}
	if req.TotalMonthlyPrice != nil {
		m.TotalMonthlyPrice = *req.TotalMonthlyPrice
	}
	m.UpdatedAt = time.Now().UTC()
	return copyMember(m), nil
}

func (s *mockStore) DeactivateMember(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return models.NewNotFoundError("member", id)
	}
	m.IsActive = false
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *mockStore) UpsertCommission(ctx context.Context, c models.Commission) (*models.Commission, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertCommissionErr != nil {
		return nil, false, s.upsertCommissionErr
	}
	if _, ok := s.members[c.MemberID]; !ok {
		return nil, false, models.NewNotFoundError("member", c.MemberID)
	}

	now := time.Now().UTC()
	existing, ok := s.commissions[c.MemberID]
	if !ok {
		created := &models.Commission{
			ID:            uuid.NewString(),
			AgentID:       c.AgentID,
			MemberID:      c.MemberID,
			PlanTier:      c.PlanTier,
			CoverageType:  c.CoverageType,
			RxAddon:       c.RxAddon,
			Amount:        c.Amount,
			Payable:       c.Payable,
			Status:        models.CommissionStatusPending,
			PaymentStatus: models.PaymentStatusUnpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		s.commissions[c.MemberID] = created
		s.commissionOrder = append(s.commissionOrder, c.MemberID)
		return copyCommission(created), true, nil
	}

	// The conflict update only touches rows still awaiting payout.
	if existing.PaymentStatus != models.PaymentStatusUnpaid {
		return copyCommission(existing), false, nil
	}
	existing.AgentID = c.AgentID
	existing.PlanTier = c.PlanTier
	existing.CoverageType = c.CoverageType
	existing.RxAddon = c.RxAddon
	existing.Amount = c.Amount
	existing.Payable = c.Payable
	existing.UpdatedAt = now
	return copyCommission(existing), false, nil
}

func (s *mockStore) GetCommissionByMember(ctx context.Context, memberID string) (*models.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.commissions[memberID]
	if !ok {
		return nil, models.NewNotFoundError("commission", memberID)
	}
	return copyCommission(c), nil
}

func commissionMatches(c *models.Commission, filter models.CommissionFilter) bool {
	if filter.AgentID != "" && c.AgentID != filter.AgentID {
		return false
	}
	if filter.PaymentStatus != nil && c.PaymentStatus != *filter.PaymentStatus {
		return false
	}
	if filter.Status != nil && c.Status != *filter.Status {
		return false
	}
	if filter.DateFrom != nil && c.CreatedAt.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && !c.CreatedAt.Before(*filter.DateTo) {
		return false
	}
	return true
}

func (s *mockStore) ListCommissions(ctx context.Context, filter models.CommissionFilter) (*models.CommissionListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []models.Commission{}
	for i := len(s.commissionOrder) - 1; i >= 0; i-- {
		c := s.commissions[s.commissionOrder[i]]
		if commissionMatches(c, filter) {
			matched = append(matched, *copyCommission(c))
		}
	}

	total := len(matched)
	start, end := paginate(total, filter.Page, filter.Limit)
	return &models.CommissionListResponse{
		Commissions: matched[start:end],
		Total:       total,
		Page:        filter.Page,
		Limit:       filter.Limit,
	}, nil
}

func (s *mockStore) SummarizeCommissions(ctx context.Context, filter models.CommissionFilter) (*models.CommissionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &models.CommissionSummary{
		TotalAmount:   decimal.Zero,
		PayableAmount: decimal.Zero,
		UnpaidAmount:  decimal.Zero,
		PaidAmount:    decimal.Zero,
	}
	for _, memberID := range s.commissionOrder {
		c := s.commissions[memberID]
		if !commissionMatches(c, filter) {
			continue
		}
		summary.Count++
		summary.TotalAmount = summary.TotalAmount.Add(c.Amount)
		if c.Payable && c.Status != models.CommissionStatusCancelled && c.PaymentStatus != models.PaymentStatusCancelled {
			summary.PayableAmount = summary.PayableAmount.Add(c.Amount)
		}
		if c.Payable && c.Status != models.CommissionStatusCancelled && c.PaymentStatus == models.PaymentStatusUnpaid {
			summary.UnpaidAmount = summary.UnpaidAmount.Add(c.Amount)
		}
		if c.Payable && c.PaymentStatus == models.PaymentStatusPaid {
			summary.PaidAmount = summary.PaidAmount.Add(c.Amount)
		}
	}
	return summary, nil
}

func (s *mockStore) MarkCommissionPaid(ctx context.Context, memberID string) (*models.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.commissions[memberID]
	if !ok {
		return nil, models.NewNotFoundError("commission", memberID)
	}
	switch c.PaymentStatus {
	case models.PaymentStatusUnpaid:
		now := time.Now().UTC()
		c.PaymentStatus = models.PaymentStatusPaid
		if c.Status == models.CommissionStatusPending {
			c.Status = models.CommissionStatusActive
		}
		c.PaidAt = &now
		c.UpdatedAt = now
		return copyCommission(c), nil
	case models.PaymentStatusPaid:
		return copyCommission(c), nil
	default:
		return nil, models.NewConflictError("commission", fmt.Sprintf("commission for member %s is %s", memberID, c.PaymentStatus))
	}
}

func (s *mockStore) SetCommissionStatus(ctx context.Context, commissionID string, status models.CommissionStatus) (*models.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.commissions {
		if c.ID != commissionID {
			continue
		}
		c.Status = status
		if status == models.CommissionStatusCancelled && c.PaymentStatus == models.PaymentStatusUnpaid {
			c.PaymentStatus = models.PaymentStatusCancelled
		}
		c.UpdatedAt = time.Now().UTC()
		return copyCommission(c), nil
	}
	return nil, models.NewNotFoundError("commission", commissionID)
}

func (s *mockStore) ListMissingCommissions(ctx context.Context) ([]models.MissingCommission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	missing := []models.MissingCommission{}
	for _, id := range s.memberOrder {
		m := s.members[id]
		if !m.IsActive || m.EnrolledBy == nil {
			continue
		}
		if _, ok := s.commissions[m.ID]; ok {
			continue
		}
		plan := s.plans[m.PlanID]
		missing = append(missing, models.MissingCommission{
			MemberID:       m.ID,
			CustomerNumber: m.CustomerNumber,
			MemberName:     m.FirstName + " " + m.LastName,
			AgentID:        *m.EnrolledBy,
			PlanTier:       plan.Tier,
			CoverageType:   m.CoverageType,
			RxAddon:        m.RxAddon,
			EnrolledAt:     m.CreatedAt,
		})
	}
	return missing, nil
}

func (s *mockStore) RecordPayment(ctx context.Context, memberID, transactionID string, amount decimal.Decimal) (*models.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.payments[transactionID]; ok {
		out := *existing
		return &out, false, nil
	}
	if _, ok := s.members[memberID]; !ok {
		return nil, false, models.NewNotFoundError("member", memberID)
	}

	p := &models.Payment{
		ID:            uuid.NewString(),
		MemberID:      memberID,
		TransactionID: transactionID,
		Amount:        amount,
		ReceivedAt:    time.Now().UTC(),
	}
	s.payments[transactionID] = p
	s.paymentOrder = append(s.paymentOrder, transactionID)
	out := *p
	return &out, true, nil
}

func (s *mockStore) ListPayments(ctx context.Context, memberID string, page, limit int) (*models.PaymentListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []models.Payment{}
	for i := len(s.paymentOrder) - 1; i >= 0; i-- {
		p := s.payments[s.paymentOrder[i]]
		if memberID != "" && p.MemberID != memberID {
			continue
		}
		matched = append(matched, *p)
	}

	total := len(matched)
	start, end := paginate(total, page, limit)
	return &models.PaymentListResponse{
		Payments: matched[start:end],
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

func (s *mockStore) CreateLead(ctx context.Context, req models.LeadCreateRequest) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.AssignedTo != nil {
		if _, ok := s.users[*req.AssignedTo]; !ok {
			return nil, models.NewNotFoundError("user", *req.AssignedTo)
		}
	}

	now := time.Now().UTC()
	l := &models.Lead{
		ID:         uuid.NewString(),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Notes:      req.Notes,
		Status:     models.LeadStatusNew,
		AssignedTo: req.AssignedTo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.leads[l.ID] = l
	s.leadOrder = append(s.leadOrder, l.ID)
	return copyLead(l), nil
}

func (s *mockStore) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leads[id]
	if !ok {
		return nil, models.NewNotFoundError("lead", id)
	}
	return copyLead(l), nil
}

func (s *mockStore) ListLeads(ctx context.Context, params models.LeadSearchParams) (*models.LeadListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []models.Lead{}
	for i := len(s.leadOrder) - 1; i >= 0; i-- {
		l := s.leads[s.leadOrder[i]]
		if params.Status != nil && l.Status != *params.Status {
			continue
		}
		if params.AssignedTo != "" && (l.AssignedTo == nil || *l.AssignedTo != params.AssignedTo) {
			continue
		}
		matched = append(matched, *copyLead(l))
	}

	total := len(matched)
	start, end := paginate(total, params.Page, params.Limit)
	return &models.LeadListResponse{
		Leads: matched[start:end],
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}, nil
}

func (s *mockStore) UpdateLead(ctx context.Context, id string, req models.LeadUpdateRequest) (*models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.leads[id]
	if !ok {
		return nil, models.NewNotFoundError("lead", id)
	}
	if req.AssignedTo != nil {
		if _, ok := s.users[*req.AssignedTo]; !ok {
			return nil, models.NewNotFoundError("user", *req.AssignedTo)
		}
		l.AssignedTo = req.AssignedTo
	}
	if req.Status != nil {
		l.Status = *req.Status
	}
	if req.Notes != nil {
		l.Notes = req.Notes
	}
	l.UpdatedAt = time.Now().UTC()
	return copyLead(l), nil
}
