package store

import (
	"context"
	"errors"

	"efuelpos/backend/internal/domain"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// Remote is the backend the facade writes through when the kiosk is
// online. A nil Remote means the backend is unconfigured; the facade then
// treats every call as remote-unreachable and works local-only.
type Remote interface {
	InsertTransaction(ctx context.Context, tx domain.TransactionRecord) (*domain.TransactionRecord, error)
	SelectTransactions(ctx context.Context) ([]domain.TransactionRecord, error)
	// VoidTransaction removes a sale and records the compensating
	// adjustment in a single server-side transaction.
	VoidTransaction(ctx context.Context, id string, adjustment domain.InventoryLog) error

	InsertInventoryLog(ctx context.Context, log domain.InventoryLog) (*domain.InventoryLog, error)
	SelectInventoryLogs(ctx context.Context) ([]domain.InventoryLog, error)
	VoidInventoryLog(ctx context.Context, id string, adjustment domain.InventoryLog) error

	InsertExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	SelectExpenses(ctx context.Context) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	InsertDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error)
	SelectDebts(ctx context.Context) ([]domain.Debt, error)
	UpdateDebt(ctx context.Context, id string, updates domain.DebtUpdate) error

	InsertEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	SelectEmployees(ctx context.Context) ([]domain.Employee, error)
	UpdateEmployee(ctx context.Context, id string, updates domain.EmployeeUpdate) error
	DeleteEmployee(ctx context.Context, id string) error

	InsertAttendance(ctx context.Context, log domain.AttendanceLog) (*domain.AttendanceLog, error)
	SelectAttendance(ctx context.Context, date string) ([]domain.AttendanceLog, error)
	UpdateAttendance(ctx context.Context, id string, updates domain.AttendanceUpdate) error

	InsertPayrollSlip(ctx context.Context, slip domain.PayrollSlip) (*domain.PayrollSlip, error)
	SelectPayrollSlips(ctx context.Context) ([]domain.PayrollSlip, error)

	InsertShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	SelectShifts(ctx context.Context) ([]domain.Shift, error)
	UpdateShift(ctx context.Context, id string, updates domain.ShiftUpdate) error

	InsertVoidRequest(ctx context.Context, req domain.VoidRequest) (*domain.VoidRequest, error)
	SelectVoidRequests(ctx context.Context) ([]domain.VoidRequest, error)
	UpdateVoidRequest(ctx context.Context, id string, updates domain.VoidRequestUpdate) error

	InsertAuditLog(ctx context.Context, entry domain.AuditLog) error
	SelectAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)

	UpsertSettings(ctx context.Context, settings domain.StoreSettings) error
	SelectSettings(ctx context.Context) (*domain.StoreSettings, error)
	SelectPricingRules(ctx context.Context) ([]domain.PricingRule, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error

	Ping(ctx context.Context) error
}
