// Package memory is an in-process backend used in dev mode and in tests.
// It implements the same interface as the Postgres store and can be told
// to fail, which is how the fallback and replay paths are exercised.
package memory

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"efuelpos/backend/internal/domain"
	"efuelpos/backend/internal/store"
)

var errUnavailable = errors.New("backend unavailable")

type Store struct {
	mu           sync.RWMutex
	failuresLeft int
	offline      bool

	transactions []domain.TransactionRecord
	inventory    []domain.InventoryLog
	expenses     []domain.Expense
	debts        []domain.Debt
	employees    []domain.Employee
	attendance   []domain.AttendanceLog
	payroll      []domain.PayrollSlip
	shifts       []domain.Shift
	requests     []domain.VoidRequest
	auditLogs    []domain.AuditLog
	settings     *domain.StoreSettings
	pricingRules []domain.PricingRule
	users        map[string]domain.UserAccount
}

func New() *Store {
	return &Store{users: map[string]domain.UserAccount{}}
}

// NewSeeded builds a store with dev accounts. Credentials come from
// SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; hardcoded dev defaults
// are used with a warning when unset. Dev mode only, a configured
// DATABASE_URL bypasses this store entirely.
func NewSeeded() *Store {
	s := New()

	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		s.users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// FailNext makes the next n calls return an error, simulating a backend
// outage of a known length.
func (s *Store) FailNext(n int) {
	s.mu.Lock()
	s.failuresLeft = n
	s.mu.Unlock()
}

// SetOffline makes every call fail until turned back on.
func (s *Store) SetOffline(offline bool) {
	s.mu.Lock()
	s.offline = offline
	s.mu.Unlock()
}

func (s *Store) checkAvailable() error {
	if s.offline {
		return errUnavailable
	}
	if s.failuresLeft > 0 {
		s.failuresLeft--
		return errUnavailable
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkAvailable()
}

func (s *Store) InsertTransaction(_ context.Context, tx domain.TransactionRecord) (*domain.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	for _, existing := range s.transactions {
		if existing.ID == tx.ID {
			saved := existing
			return &saved, nil
		}
	}
	s.transactions = append([]domain.TransactionRecord{tx}, s.transactions...)
	saved := tx
	return &saved, nil
}

func (s *Store) SelectTransactions(context.Context) ([]domain.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.TransactionRecord, len(s.transactions))
	copy(out, s.transactions)
	return out, nil
}

func (s *Store) VoidTransaction(_ context.Context, id string, adjustment domain.InventoryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	found := false
	for _, tx := range s.transactions {
		if tx.ID == id {
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}
	s.inventory = append([]domain.InventoryLog{adjustment}, s.inventory...)
	return nil
}

func (s *Store) InsertInventoryLog(_ context.Context, entry domain.InventoryLog) (*domain.InventoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	for _, existing := range s.inventory {
		if existing.ID == entry.ID {
			saved := existing
			return &saved, nil
		}
	}
	s.inventory = append([]domain.InventoryLog{entry}, s.inventory...)
	saved := entry
	return &saved, nil
}

func (s *Store) SelectInventoryLogs(context.Context) ([]domain.InventoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.InventoryLog, len(s.inventory))
	copy(out, s.inventory)
	return out, nil
}

func (s *Store) VoidInventoryLog(_ context.Context, id string, adjustment domain.InventoryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	found := false
	for _, entry := range s.inventory {
		if entry.ID == id {
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}
	s.inventory = append([]domain.InventoryLog{adjustment}, s.inventory...)
	return nil
}

func (s *Store) InsertExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	s.expenses = append([]domain.Expense{expense}, s.expenses...)
	saved := expense
	return &saved, nil
}

func (s *Store) SelectExpenses(context.Context) ([]domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	for i, expense := range s.expenses {
		if expense.ID == id {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) InsertDebt(_ context.Context, debt domain.Debt) (*domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	s.debts = append([]domain.Debt{debt}, s.debts...)
	saved := debt
	return &saved, nil
}

func (s *Store) SelectDebts(context.Context) ([]domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.Debt, len(s.debts))
	copy(out, s.debts)
	return out, nil
}

func (s *Store) UpdateDebt(_ context.Context, id string, updates domain.DebtUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	for i := range s.debts {
		if s.debts[i].ID == id {
			updates.Apply(&s.debts[i])
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) InsertEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	s.employees = append(s.employees, employee)
	saved := employee
	return &saved, nil
}

func (s *Store) SelectEmployees(context.Context) ([]domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.Employee, len(s.employees))
	copy(out, s.employees)
	return out, nil
}

func (s *Store) UpdateEmployee(_ context.Context, id string, updates domain.EmployeeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	for i := range s.employees {
		if s.employees[i].ID == id {
			updates.Apply(&s.employees[i])
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	for i, employee := range s.employees {
		if employee.ID == id {
			s.employees = append(s.employees[:i], s.employees[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) InsertAttendance(_ context.Context, entry domain.AttendanceLog) (*domain.AttendanceLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	s.attendance = append(s.attendance, entry)
	saved := entry
	return &saved, nil
}

func (s *Store) SelectAttendance(_ context.Context, date string) ([]domain.AttendanceLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.AttendanceLog, 0, len(s.attendance))
	for _, entry := range s.attendance {
		if date == "" || entry.Date == date {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *Store) UpdateAttendance(_ context.Context, id string, updates domain.AttendanceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	for i := range s.attendance {
		if s.attendance[i].ID == id {
			updates.Apply(&s.attendance[i])
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) InsertPayrollSlip(_ context.Context, slip domain.PayrollSlip) (*domain.PayrollSlip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	s.payroll = append(s.payroll, slip)
	saved := slip
	return &saved, nil
}

func (s *Store) SelectPayrollSlips(context.Context) ([]domain.PayrollSlip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.PayrollSlip, len(s.payroll))
	copy(out, s.payroll)
	return out, nil
}

func (s *Store) InsertShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	s.shifts = append(s.shifts, shift)
	saved := shift
	return &saved, nil
}

func (s *Store) SelectShifts(context.Context) ([]domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.Shift, len(s.shifts))
	copy(out, s.shifts)
	return out, nil
}

func (s *Store) UpdateShift(_ context.Context, id string, updates domain.ShiftUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	for i := range s.shifts {
		if s.shifts[i].ID == id {
			updates.Apply(&s.shifts[i])
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) InsertVoidRequest(_ context.Context, req domain.VoidRequest) (*domain.VoidRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	s.requests = append(s.requests, req)
	saved := req
	return &saved, nil
}

func (s *Store) SelectVoidRequests(context.Context) ([]domain.VoidRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.VoidRequest, len(s.requests))
	copy(out, s.requests)
	return out, nil
}

func (s *Store) UpdateVoidRequest(_ context.Context, id string, updates domain.VoidRequestUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	for i := range s.requests {
		if s.requests[i].ID == id {
			updates.Apply(&s.requests[i])
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) InsertAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	s.auditLogs = append([]domain.AuditLog{entry}, s.auditLogs...)
	return nil
}

func (s *Store) SelectAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.AuditLog, len(s.auditLogs))
	copy(out, s.auditLogs)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpsertSettings(_ context.Context, settings domain.StoreSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	saved := settings
	s.settings = &saved
	return nil
}

func (s *Store) SelectSettings(context.Context) (*domain.StoreSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	if s.settings == nil {
		return nil, store.ErrNotFound
	}
	saved := *s.settings
	return &saved, nil
}

func (s *Store) SelectPricingRules(context.Context) ([]domain.PricingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.PricingRule, len(s.pricingRules))
	copy(out, s.pricingRules)
	return out, nil
}

// SeedPricingRules replaces the rule set, used in dev mode setup.
func (s *Store) SeedPricingRules(rules []domain.PricingRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pricingRules = make([]domain.PricingRule, len(rules))
	copy(s.pricingRules, rules)
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	if _, exists := s.users[user.Username]; exists {
		return store.ErrValidation
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return nil, err
	}
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAvailable(); err != nil {
		return err
	}
	user, exists := s.users[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}
