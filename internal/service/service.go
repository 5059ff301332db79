// Package service holds the workflows that span more than one entity:
// recording a sale at the configured price, the void approval flow,
// shift reconciliation, attendance and payroll generation.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"efuelpos/backend/internal/domain"
	"efuelpos/backend/internal/facade"
	"efuelpos/backend/internal/fuel"
	"efuelpos/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

var ErrInsufficientStock = errors.New("insufficient stock")

type Service struct {
	storage *facade.Facade
}

func New(storage *facade.Facade) *Service {
	return &Service{storage: storage}
}

type SaleRequest struct {
	Nominal       int64  `json:"nominal"`
	PaymentMethod string `json:"payment_method"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
}

type SaleResult struct {
	Transaction domain.TransactionRecord `json:"transaction"`
	Debt        *domain.Debt             `json:"debt,omitempty"`
}

// RecordSale prices the nominal using the stored settings and pricing
// rules, checks the tank holds enough fuel, and records the sale. A DEBT
// sale also opens a debt for the named customer.
func (s *Service) RecordSale(ctx context.Context, req SaleRequest) (*SaleResult, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentCash
	}
	if req.PaymentMethod == domain.PaymentDebt && strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: debt sale requires a customer name", store.ErrValidation)
	}

	settings, err := s.storage.Settings(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := s.storage.PricingRules(ctx)
	if err != nil {
		return nil, err
	}

	quote := fuel.CalculateWithPrices(req.Nominal, settings.BasePricePerLiter, settings.CostPricePerLiter, fuel.RulesFromPricing(rules))

	stock, err := s.storage.CurrentStock(ctx)
	if err != nil {
		return nil, err
	}
	if stock < quote.Liter {
		return nil, ErrInsufficientStock
	}

	tx, err := s.storage.AddTransaction(ctx, domain.NewTransaction{
		Nominal:       req.Nominal,
		Liter:         quote.Liter,
		Profit:        quote.Profit,
		IsSpecialRule: quote.IsSpecialRule,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	result := &SaleResult{Transaction: *tx}
	if req.PaymentMethod == domain.PaymentDebt {
		debt, err := s.storage.AddDebt(ctx, domain.Debt{
			CustomerName: strings.TrimSpace(req.CustomerName),
			Phone:        strings.TrimSpace(req.CustomerPhone),
			Amount:       req.Nominal,
		})
		if err != nil {
			return nil, err
		}
		result.Debt = debt
	}

	return result, nil
}

// PayDebt applies a payment to an open debt. The payment is capped at
// the outstanding balance; a fully paid debt flips to PAID.
func (s *Service) PayDebt(ctx context.Context, id string, amount int64) (*domain.Debt, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", store.ErrValidation)
	}

	debts, err := s.storage.Debts(ctx)
	if err != nil {
		return nil, err
	}
	var debt *domain.Debt
	for i := range debts {
		if debts[i].ID == id {
			debt = &debts[i]
			break
		}
	}
	if debt == nil {
		return nil, store.ErrNotFound
	}
	if debt.Status == domain.DebtStatusPaid {
		return nil, fmt.Errorf("%w: debt already paid", store.ErrValidation)
	}

	remaining := debt.Amount - debt.AmountPaid
	if amount > remaining {
		amount = remaining
	}
	paid := debt.AmountPaid + amount
	status := debt.Status
	if paid >= debt.Amount {
		status = domain.DebtStatusPaid
	}

	err = s.storage.UpdateDebt(ctx, id, domain.DebtUpdate{AmountPaid: &paid, Status: &status})
	if err != nil {
		return nil, err
	}

	debt.AmountPaid = paid
	debt.Status = status
	s.audit(ctx, "debt_payment", fmt.Sprintf("debt=%s,amount=%d,status=%s", id, amount, status))
	return debt, nil
}

// FileVoidRequest records a cashier's request to reverse a transaction,
// restock or expense. The target record is untouched until an admin
// approves.
func (s *Service) FileVoidRequest(ctx context.Context, req domain.VoidRequest) (*domain.VoidRequest, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("authentication required")
	}
	req.RequestedBy = actor.Username

	if req.Type == domain.RequestTransactionVoid && req.LiterVolume <= 0 {
		transactions, err := s.storage.Transactions(ctx)
		if err != nil {
			return nil, err
		}
		for _, tx := range transactions {
			if tx.ID == req.TargetID {
				req.LiterVolume = tx.Liter
				break
			}
		}
	}

	created, err := s.storage.AddVoidRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "void_request_filed", fmt.Sprintf("request=%s,type=%s,target=%s", created.ID, created.Type, created.TargetID))
	return created, nil
}

// ApproveVoidRequest executes the requested reversal and marks the
// request APPROVED. Admin only.
func (s *Service) ApproveVoidRequest(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	req, err := s.pendingRequest(ctx, id)
	if err != nil {
		return err
	}

	switch req.Type {
	case domain.RequestTransactionVoid:
		if req.LiterVolume <= 0 {
			return fmt.Errorf("%w: request has no liter volume to restore", store.ErrValidation)
		}
		if err := s.storage.VoidTransaction(ctx, req.TargetID, req.LiterVolume); err != nil {
			return err
		}
	case domain.RequestStockVoid:
		if err := s.storage.VoidInventoryLog(ctx, req.TargetID); err != nil {
			return err
		}
	case domain.RequestExpenseVoid:
		if err := s.storage.DeleteExpense(ctx, req.TargetID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown request type %q", store.ErrValidation, req.Type)
	}

	if err := s.resolveRequest(ctx, id, domain.RequestApproved); err != nil {
		return err
	}
	s.audit(ctx, "void_request_approved", fmt.Sprintf("request=%s,type=%s,target=%s", req.ID, req.Type, req.TargetID))
	return nil
}

// RejectVoidRequest marks a pending request REJECTED without touching
// the target record. Admin only.
func (s *Service) RejectVoidRequest(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	req, err := s.pendingRequest(ctx, id)
	if err != nil {
		return err
	}
	if err := s.resolveRequest(ctx, id, domain.RequestRejected); err != nil {
		return err
	}
	s.audit(ctx, "void_request_rejected", fmt.Sprintf("request=%s,type=%s,target=%s", req.ID, req.Type, req.TargetID))
	return nil
}

func (s *Service) pendingRequest(ctx context.Context, id string) (*domain.VoidRequest, error) {
	requests, err := s.storage.VoidRequests(ctx)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		if requests[i].ID == id {
			if requests[i].Status != domain.RequestPending {
				return nil, fmt.Errorf("%w: request already resolved", store.ErrValidation)
			}
			return &requests[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Service) resolveRequest(ctx context.Context, id string, status string) error {
	now := time.Now().UTC()
	return s.storage.UpdateVoidRequest(ctx, id, domain.VoidRequestUpdate{
		Status:     &status,
		ResolvedAt: &now,
	})
}

// OpenShift starts a cash drawer session. Only one open shift per user.
func (s *Service) OpenShift(ctx context.Context, cashierName string, openingCash int64) (*domain.Shift, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("authentication required")
	}

	shifts, err := s.storage.Shifts(ctx)
	if err != nil {
		return nil, err
	}
	for _, shift := range shifts {
		if shift.UserID == actor.Username && shift.Status == domain.ShiftStatusOpen {
			return nil, fmt.Errorf("%w: shift already open", store.ErrValidation)
		}
	}

	if strings.TrimSpace(cashierName) == "" {
		cashierName = actor.Username
	}
	return s.storage.AddShift(ctx, domain.Shift{
		UserID:      actor.Username,
		CashierName: cashierName,
		OpeningCash: openingCash,
	})
}

// CloseShift reconciles the drawer. Expected cash is the opening float
// plus every CASH sale recorded since the shift started; the difference
// against the counted amount is stored with the closed shift.
func (s *Service) CloseShift(ctx context.Context, id string, closingCash int64) (*domain.Shift, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("authentication required")
	}

	shifts, err := s.storage.Shifts(ctx)
	if err != nil {
		return nil, err
	}
	var shift *domain.Shift
	for i := range shifts {
		if shifts[i].ID == id {
			shift = &shifts[i]
			break
		}
	}
	if shift == nil {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, fmt.Errorf("%w: shift already closed", store.ErrValidation)
	}
	if shift.UserID != actor.Username && actor.Role != "admin" {
		return nil, fmt.Errorf("shift belongs to another cashier")
	}

	transactions, err := s.storage.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	expected := shift.OpeningCash
	for _, tx := range transactions {
		if tx.PaymentMethod == domain.PaymentCash && !tx.Timestamp.Before(shift.StartTime) {
			expected += tx.Nominal
		}
	}

	now := time.Now().UTC()
	difference := closingCash - expected
	status := domain.ShiftStatusClosed
	err = s.storage.UpdateShift(ctx, id, domain.ShiftUpdate{
		EndTime:        &now,
		ClosingCash:    &closingCash,
		ExpectedCash:   &expected,
		DifferenceCash: &difference,
		Status:         &status,
	})
	if err != nil {
		return nil, err
	}

	shift.EndTime = &now
	shift.ClosingCash = closingCash
	shift.ExpectedCash = expected
	shift.DifferenceCash = difference
	shift.Status = status
	s.audit(ctx, "shift_closed", fmt.Sprintf("shift=%s,expected=%d,counted=%d,diff=%d", id, expected, closingCash, difference))
	return shift, nil
}

type ClockInRequest struct {
	EmployeeID   string  `json:"employee_id"`
	PhotoURL     string  `json:"photo_url,omitempty"`
	LocationLat  float64 `json:"location_lat,omitempty"`
	LocationLong float64 `json:"location_long,omitempty"`
	Status       string  `json:"status,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// ClockIn opens today's attendance log for the employee. A second clock
// in on the same day is rejected.
func (s *Service) ClockIn(ctx context.Context, req ClockInRequest) (*domain.AttendanceLog, error) {
	today := time.Now().UTC().Format("2006-01-02")
	existing, err := s.storage.Attendance(ctx, today)
	if err != nil {
		return nil, err
	}
	for _, entry := range existing {
		if entry.EmployeeID == req.EmployeeID {
			return nil, fmt.Errorf("%w: already clocked in today", store.ErrValidation)
		}
	}

	if req.Status == "" {
		req.Status = domain.AttendancePresent
	}
	now := time.Now().UTC()
	return s.storage.AddAttendance(ctx, domain.AttendanceLog{
		EmployeeID:     req.EmployeeID,
		Date:           today,
		ClockIn:        &now,
		PhotoInURL:     req.PhotoURL,
		LocationInLat:  req.LocationLat,
		LocationInLong: req.LocationLong,
		Status:         req.Status,
		Notes:          req.Notes,
	})
}

type ClockOutRequest struct {
	EmployeeID   string  `json:"employee_id"`
	PhotoURL     string  `json:"photo_url,omitempty"`
	LocationLat  float64 `json:"location_lat,omitempty"`
	LocationLong float64 `json:"location_long,omitempty"`
}

// ClockOut closes today's open log for the employee.
func (s *Service) ClockOut(ctx context.Context, req ClockOutRequest) (*domain.AttendanceLog, error) {
	today := time.Now().UTC().Format("2006-01-02")
	existing, err := s.storage.Attendance(ctx, today)
	if err != nil {
		return nil, err
	}
	var entry *domain.AttendanceLog
	for i := range existing {
		if existing[i].EmployeeID == req.EmployeeID {
			entry = &existing[i]
			break
		}
	}
	if entry == nil {
		return nil, store.ErrNotFound
	}
	if entry.ClockOut != nil {
		return nil, fmt.Errorf("%w: already clocked out", store.ErrValidation)
	}

	now := time.Now().UTC()
	updates := domain.AttendanceUpdate{
		ClockOut:        &now,
		PhotoOutURL:     &req.PhotoURL,
		LocationOutLat:  &req.LocationLat,
		LocationOutLong: &req.LocationLong,
	}
	if err := s.storage.UpdateAttendance(ctx, entry.ID, updates); err != nil {
		return nil, err
	}
	updates.Apply(entry)
	return entry, nil
}

type PayrollResult struct {
	Slips   []domain.PayrollSlip `json:"slips"`
	Skipped []string             `json:"skipped,omitempty"`
}

// GeneratePayroll builds DRAFT slips for every active employee over the
// period. Commission is the employee's rate applied to the total profit
// of sales in the period. Employees already covered by a slip for the
// same period are skipped. Admin only.
func (s *Service) GeneratePayroll(ctx context.Context, periodStart string, periodEnd string) (*PayrollResult, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return nil, fmt.Errorf("admin role required")
	}

	start, err := time.Parse("2006-01-02", periodStart)
	if err != nil {
		return nil, fmt.Errorf("%w: bad period start: %v", store.ErrValidation, err)
	}
	end, err := time.Parse("2006-01-02", periodEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: bad period end: %v", store.ErrValidation, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: period end before start", store.ErrValidation)
	}
	endExclusive := end.AddDate(0, 0, 1)

	employees, err := s.storage.Employees(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.storage.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.storage.PayrollSlips(ctx)
	if err != nil {
		return nil, err
	}

	var periodProfit int64
	for _, tx := range transactions {
		if !tx.Timestamp.Before(start) && tx.Timestamp.Before(endExclusive) {
			periodProfit += tx.Profit
		}
	}

	covered := map[string]bool{}
	for _, slip := range existing {
		if slip.PeriodStart == periodStart && slip.PeriodEnd == periodEnd {
			covered[slip.EmployeeID] = true
		}
	}

	result := &PayrollResult{}
	for _, employee := range employees {
		if !employee.IsActive {
			continue
		}
		if covered[employee.ID] {
			result.Skipped = append(result.Skipped, employee.ID)
			continue
		}

		commission := int64(math.Round(employee.CommissionRate * float64(periodProfit)))
		slip, err := s.storage.AddPayrollSlip(ctx, domain.PayrollSlip{
			EmployeeID:      employee.ID,
			EmployeeName:    employee.FullName,
			PeriodStart:     periodStart,
			PeriodEnd:       periodEnd,
			BaseSalary:      employee.BaseSalary,
			TotalCommission: commission,
			NetSalary:       employee.BaseSalary + commission,
			Status:          domain.PayrollDraft,
		})
		if err != nil {
			return nil, err
		}
		result.Slips = append(result.Slips, *slip)
	}

	s.audit(ctx, "payroll_generated", fmt.Sprintf("period=%s..%s,slips=%d,skipped=%d", periodStart, periodEnd, len(result.Slips), len(result.Skipped)))
	return result, nil
}

func (s *Service) audit(ctx context.Context, action string, detail string) {
	actor, _ := ActorFromContext(ctx)
	s.storage.LogAudit(ctx, actor.Username, actor.Username, action, detail)
}
