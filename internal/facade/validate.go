package facade

import (
	"fmt"
	"strings"

	"efuelpos/backend/internal/domain"
	"efuelpos/backend/internal/store"
)

// Shape checks run before any write is attempted. Failures surface
// synchronously to the caller and are never retried or enqueued.

const maxNotesLen = 500

func validateNewTransaction(tx domain.NewTransaction) error {
	if tx.Nominal < 100 {
		return fmt.Errorf("%w: nominal must be at least Rp 100", store.ErrValidation)
	}
	if tx.Liter <= 0 {
		return fmt.Errorf("%w: liter must be positive", store.ErrValidation)
	}
	switch tx.PaymentMethod {
	case domain.PaymentCash, domain.PaymentDebt, domain.PaymentQRIS:
	default:
		return fmt.Errorf("%w: unknown payment method %q", store.ErrValidation, tx.PaymentMethod)
	}
	return nil
}

func validateNewInventoryLog(log domain.NewInventoryLog) error {
	switch log.Type {
	case domain.InventoryIn, domain.InventoryOut, domain.InventoryAdjustment:
	default:
		return fmt.Errorf("%w: unknown inventory type %q", store.ErrValidation, log.Type)
	}
	if log.Volume <= 0 {
		return fmt.Errorf("%w: volume must be positive", store.ErrValidation)
	}
	if log.CostPerLiter < 0 {
		return fmt.Errorf("%w: cost per liter must not be negative", store.ErrValidation)
	}
	if len(log.Notes) > maxNotesLen {
		return fmt.Errorf("%w: notes longer than %d characters", store.ErrValidation, maxNotesLen)
	}
	return nil
}

func validateNewExpense(expense domain.NewExpense) error {
	if strings.TrimSpace(expense.Description) == "" {
		return fmt.Errorf("%w: expense description is required", store.ErrValidation)
	}
	if expense.Amount <= 0 {
		return fmt.Errorf("%w: expense amount must be positive", store.ErrValidation)
	}
	return nil
}

func validateNewEmployee(employee domain.NewEmployee) error {
	if len(strings.TrimSpace(employee.FullName)) < 2 {
		return fmt.Errorf("%w: employee name too short", store.ErrValidation)
	}
	switch employee.Role {
	case domain.RoleManager, domain.RoleCashier, domain.RoleStaff, domain.RoleCleaning:
	default:
		return fmt.Errorf("%w: unknown employee role %q", store.ErrValidation, employee.Role)
	}
	if employee.BaseSalary < 0 {
		return fmt.Errorf("%w: base salary must not be negative", store.ErrValidation)
	}
	if employee.CommissionRate < 0 || employee.CommissionRate > 1 {
		return fmt.Errorf("%w: commission rate must be between 0 and 1", store.ErrValidation)
	}
	return nil
}

func validateAttendance(log domain.AttendanceLog) error {
	if strings.TrimSpace(log.EmployeeID) == "" {
		return fmt.Errorf("%w: employee id is required", store.ErrValidation)
	}
	switch log.Status {
	case domain.AttendancePresent, domain.AttendanceLate, domain.AttendanceAbsent,
		domain.AttendanceSick, domain.AttendanceLeave:
	default:
		return fmt.Errorf("%w: unknown attendance status %q", store.ErrValidation, log.Status)
	}
	return nil
}

func validateDebt(debt domain.Debt) error {
	if strings.TrimSpace(debt.CustomerName) == "" {
		return fmt.Errorf("%w: customer name is required", store.ErrValidation)
	}
	if debt.Amount <= 0 {
		return fmt.Errorf("%w: debt amount must be positive", store.ErrValidation)
	}
	return nil
}

func validateShift(shift domain.Shift) error {
	if strings.TrimSpace(shift.UserID) == "" {
		return fmt.Errorf("%w: shift user id is required", store.ErrValidation)
	}
	if shift.OpeningCash < 0 {
		return fmt.Errorf("%w: opening cash must not be negative", store.ErrValidation)
	}
	return nil
}

func validateVoidRequest(req domain.VoidRequest) error {
	switch req.Type {
	case domain.RequestTransactionVoid, domain.RequestStockVoid, domain.RequestExpenseVoid:
	default:
		return fmt.Errorf("%w: unknown request type %q", store.ErrValidation, req.Type)
	}
	if strings.TrimSpace(req.TargetID) == "" {
		return fmt.Errorf("%w: request target id is required", store.ErrValidation)
	}
	return nil
}

func validateSettings(settings domain.StoreSettings) error {
	if settings.BasePricePerLiter < 1 {
		return fmt.Errorf("%w: base price per liter must be positive", store.ErrValidation)
	}
	if settings.CostPricePerLiter < 1 {
		return fmt.Errorf("%w: cost price per liter must be positive", store.ErrValidation)
	}
	return nil
}
