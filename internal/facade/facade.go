// Package facade gives every feature one resilient call per operation.
// A write is attempted against the remote backend first; when the
// backend is absent or failing, the record lands in the local mirror
// with the same pre-generated id and the operation is queued for replay.
// The caller is never told a remote error occurred.
package facade

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"efuelpos/backend/internal/cache"
	"efuelpos/backend/internal/domain"
	"efuelpos/backend/internal/store"
	"efuelpos/backend/internal/store/local"
	"efuelpos/backend/internal/syncq"
	"efuelpos/backend/internal/uid"
)

const stockCacheTTL = 30 * time.Second

type Facade struct {
	remote store.Remote // nil when the backend is unconfigured
	local  *local.Store
	queue  *syncq.Queue
	stock  cache.StockCache
}

func New(remote store.Remote, localStore *local.Store, queue *syncq.Queue, stockCache cache.StockCache) *Facade {
	if stockCache == nil {
		stockCache = cache.NoopStockCache{}
	}
	return &Facade{
		remote: remote,
		local:  localStore,
		queue:  queue,
		stock:  stockCache,
	}
}

// withFallback is the one generic remote-then-local path every write
// goes through. remoteOp runs only when a backend is configured; on any
// remote error the local mutation is applied and the same logical
// operation is enqueued for replay. The id inside payload was generated
// before the remote attempt, so the caller, the local mirror and the
// eventual remote row all agree on it.
func (f *Facade) withFallback(ctx context.Context, action syncq.Action, payload any, remoteOp func(context.Context) error, localOp func() error) error {
	if f.remote != nil {
		err := remoteOp(ctx)
		if err == nil {
			return nil
		}
		log.Printf("[storage] remote %s failed, falling back to local: %v", action, err)
	}

	if err := localOp(); err != nil {
		return err
	}
	return f.queue.Enqueue(action, payload)
}

// readFallback answers a list read from the remote backend when it is
// configured and reachable, and from the local mirror otherwise. One
// source answers per call; results are never merged, so records still
// waiting in the queue are invisible to remote-backed reads.
func readFallback[T any](ctx context.Context, f *Facade, key string, remoteOp func(context.Context) ([]T, error)) ([]T, error) {
	if f.remote != nil {
		items, err := remoteOp(ctx)
		if err == nil {
			return items, nil
		}
		log.Printf("[storage] remote read %s failed, using local: %v", key, err)
	}

	items := []T{}
	if err := f.local.Read(key, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func prependLocal[T any](db *local.Store, key string, record T) error {
	items := []T{}
	return db.Mutate(key, &items, func() error {
		items = append([]T{record}, items...)
		return nil
	})
}

func appendLocal[T any](db *local.Store, key string, record T) error {
	items := []T{}
	return db.Mutate(key, &items, func() error {
		items = append(items, record)
		return nil
	})
}

func updateLocal[T any](db *local.Store, key string, match func(*T) bool, apply func(*T)) error {
	items := []T{}
	return db.Mutate(key, &items, func() error {
		for i := range items {
			if match(&items[i]) {
				apply(&items[i])
				return nil
			}
		}
		return store.ErrNotFound
	})
}

func removeLocal[T any](db *local.Store, key string, match func(*T) bool) error {
	items := []T{}
	return db.Mutate(key, &items, func() error {
		kept := items[:0]
		for i := range items {
			if !match(&items[i]) {
				kept = append(kept, items[i])
			}
		}
		items = kept
		return nil
	})
}

// --- Transactions ---

func (f *Facade) AddTransaction(ctx context.Context, tx domain.NewTransaction) (*domain.TransactionRecord, error) {
	if tx.PaymentMethod == "" {
		tx.PaymentMethod = domain.PaymentCash
	}
	if err := validateNewTransaction(tx); err != nil {
		return nil, err
	}

	record := domain.TransactionRecord{
		ID:            uid.New(),
		Nominal:       tx.Nominal,
		Liter:         tx.Liter,
		Profit:        tx.Profit,
		IsSpecialRule: tx.IsSpecialRule,
		PaymentMethod: tx.PaymentMethod,
		Timestamp:     time.Now().UTC(),
	}

	err := f.withFallback(ctx, syncq.ActionInsertTransaction, record,
		func(ctx context.Context) error {
			saved, err := f.remote.InsertTransaction(ctx, record)
			if err != nil {
				return err
			}
			record = *saved
			return nil
		},
		func() error {
			return prependLocal(f.local, local.KeyTransactions, record)
		},
	)
	if err != nil {
		return nil, err
	}

	f.invalidateStock(ctx)
	return &record, nil
}

func (f *Facade) Transactions(ctx context.Context) ([]domain.TransactionRecord, error) {
	return readFallback(ctx, f, local.KeyTransactions, f.remoteTransactions)
}

func (f *Facade) remoteTransactions(ctx context.Context) ([]domain.TransactionRecord, error) {
	return f.remote.SelectTransactions(ctx)
}

// VoidTransaction reverses a sale's effect on stock with a compensating
// ADJUSTMENT log. The sale record itself stays in the ledger; stock is a
// fold over history and is never set directly.
func (f *Facade) VoidTransaction(ctx context.Context, id string, literToRestore float64) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: transaction id is required", store.ErrValidation)
	}
	if literToRestore <= 0 {
		return fmt.Errorf("%w: liter to restore must be positive", store.ErrValidation)
	}

	adjustment := domain.InventoryLog{
		ID:     uid.New(),
		Date:   time.Now().UTC(),
		Type:   domain.InventoryAdjustment,
		Volume: literToRestore,
		Notes:  "void transaction " + id,
	}
	payload := syncq.VoidPayload{ID: id, Adjustment: adjustment}

	err := f.withFallback(ctx, syncq.ActionDeleteTransaction, payload,
		func(ctx context.Context) error {
			return f.remote.VoidTransaction(ctx, id, adjustment)
		},
		func() error {
			return prependLocal(f.local, local.KeyInventory, adjustment)
		},
	)
	if err != nil {
		return err
	}

	f.invalidateStock(ctx)
	return nil
}

// --- Inventory ---

func (f *Facade) AddInventoryLog(ctx context.Context, entry domain.NewInventoryLog) (*domain.InventoryLog, error) {
	if err := validateNewInventoryLog(entry); err != nil {
		return nil, err
	}

	record := domain.InventoryLog{
		ID:           uid.New(),
		Date:         time.Now().UTC(),
		Type:         entry.Type,
		Volume:       entry.Volume,
		CostPerLiter: entry.CostPerLiter,
		Notes:        entry.Notes,
	}

	err := f.withFallback(ctx, syncq.ActionInsertInventory, record,
		func(ctx context.Context) error {
			saved, err := f.remote.InsertInventoryLog(ctx, record)
			if err != nil {
				return err
			}
			record = *saved
			return nil
		},
		func() error {
			return prependLocal(f.local, local.KeyInventory, record)
		},
	)
	if err != nil {
		return nil, err
	}

	f.invalidateStock(ctx)
	return &record, nil
}

func (f *Facade) InventoryLogs(ctx context.Context) ([]domain.InventoryLog, error) {
	return readFallback(ctx, f, local.KeyInventory, f.remoteInventoryLogs)
}

func (f *Facade) remoteInventoryLogs(ctx context.Context) ([]domain.InventoryLog, error) {
	return f.remote.SelectInventoryLogs(ctx)
}

// VoidInventoryLog reverses a restock (or manual outbound) with a
// compensating ADJUSTMENT of the opposite sign.
func (f *Facade) VoidInventoryLog(ctx context.Context, id string) error {
	logs, err := f.InventoryLogs(ctx)
	if err != nil {
		return err
	}
	var target *domain.InventoryLog
	for i := range logs {
		if logs[i].ID == id {
			target = &logs[i]
			break
		}
	}
	if target == nil {
		return store.ErrNotFound
	}

	volume := -target.Volume
	if target.Type == domain.InventoryOut {
		volume = target.Volume
	}
	adjustment := domain.InventoryLog{
		ID:     uid.New(),
		Date:   time.Now().UTC(),
		Type:   domain.InventoryAdjustment,
		Volume: volume,
		Notes:  "void inventory log " + id,
	}
	payload := syncq.VoidPayload{ID: id, Adjustment: adjustment}

	err = f.withFallback(ctx, syncq.ActionDeleteStock, payload,
		func(ctx context.Context) error {
			return f.remote.VoidInventoryLog(ctx, id, adjustment)
		},
		func() error {
			return prependLocal(f.local, local.KeyInventory, adjustment)
		},
	)
	if err != nil {
		return err
	}

	f.invalidateStock(ctx)
	return nil
}

// CurrentStock derives the tank level as a pure fold over the inventory
// ledger and the sales history: inbound and adjustment volumes minus
// sold liters minus manual outbound volumes, rounded to 2 decimals.
func (f *Facade) CurrentStock(ctx context.Context) (float64, error) {
	if liters, ok, err := f.stock.GetStock(ctx); err == nil && ok {
		return liters, nil
	}

	logs, err := f.InventoryLogs(ctx)
	if err != nil {
		return 0, err
	}
	transactions, err := f.Transactions(ctx)
	if err != nil {
		return 0, err
	}

	var totalIn, manualOut, totalSold float64
	for _, entry := range logs {
		switch entry.Type {
		case domain.InventoryIn, domain.InventoryAdjustment:
			totalIn += entry.Volume
		case domain.InventoryOut:
			manualOut += entry.Volume
		}
	}
	for _, tx := range transactions {
		totalSold += tx.Liter
	}

	liters := math.Round((totalIn-totalSold-manualOut)*100) / 100
	if err := f.stock.SetStock(ctx, liters, stockCacheTTL); err != nil {
		log.Printf("[storage] stock cache set failed: %v", err)
	}
	return liters, nil
}

func (f *Facade) invalidateStock(ctx context.Context) {
	if err := f.stock.Invalidate(ctx); err != nil {
		log.Printf("[storage] stock cache invalidate failed: %v", err)
	}
}

// --- Expenses ---

func (f *Facade) AddExpense(ctx context.Context, expense domain.NewExpense) (*domain.Expense, error) {
	if err := validateNewExpense(expense); err != nil {
		return nil, err
	}

	record := domain.Expense{
		ID:          uid.New(),
		Date:        time.Now().UTC(),
		Category:    expense.Category,
		Description: expense.Description,
		Amount:      expense.Amount,
	}

	err := f.withFallback(ctx, syncq.ActionInsertExpense, record,
		func(ctx context.Context) error {
			saved, err := f.remote.InsertExpense(ctx, record)
			if err != nil {
				return err
			}
			record = *saved
			return nil
		},
		func() error {
			return prependLocal(f.local, local.KeyExpenses, record)
		},
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (f *Facade) Expenses(ctx context.Context) ([]domain.Expense, error) {
	return readFallback(ctx, f, local.KeyExpenses, f.remoteExpenses)
}

func (f *Facade) remoteExpenses(ctx context.Context) ([]domain.Expense, error) {
	return f.remote.SelectExpenses(ctx)
}

func (f *Facade) DeleteExpense(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: expense id is required", store.ErrValidation)
	}
	payload := syncq.DeletePayload{ID: id}

	return f.withFallback(ctx, syncq.ActionDeleteExpense, payload,
		func(ctx context.Context) error {
			return f.remote.DeleteExpense(ctx, id)
		},
		func() error {
			return removeLocal(f.local, local.KeyExpenses, func(e *domain.Expense) bool {
				return e.ID == id
			})
		},
	)
}

// --- Debts ---

func (f *Facade) AddDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error) {
	if err := validateDebt(debt); err != nil {
		return nil, err
	}
	debt.ID = uid.New()
	debt.Status = domain.DebtStatusOpen
	debt.CreatedAt = time.Now().UTC()

	err := f.withFallback(ctx, syncq.ActionInsertDebt, debt,
		func(ctx context.Context) error {
			saved, err := f.remote.InsertDebt(ctx, debt)
			if err != nil {
				return err
			}
			debt = *saved
			return nil
		},
		func() error {
			return prependLocal(f.local, local.KeyDebts, debt)
		},
	)
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

func (f *Facade) Debts(ctx context.Context) ([]domain.Debt, error) {
	return readFallback(ctx, f, local.KeyDebts, f.remoteDebts)
}

func (f *Facade) remoteDebts(ctx context.Context) ([]domain.Debt, error) {
	return f.remote.SelectDebts(ctx)
}

func (f *Facade) UpdateDebt(ctx context.Context, id string, updates domain.DebtUpdate) error {
	payload := syncq.UpdateDebtPayload{ID: id, Updates: updates}

	return f.withFallback(ctx, syncq.ActionUpdateDebt, payload,
		func(ctx context.Context) error {
			return f.remote.UpdateDebt(ctx, id, updates)
		},
		func() error {
			return updateLocal(f.local, local.KeyDebts,
				func(d *domain.Debt) bool { return d.ID == id },
				func(d *domain.Debt) { updates.Apply(d) },
			)
		},
	)
}

// --- Employees ---

func (f *Facade) AddEmployee(ctx context.Context, employee domain.NewEmployee) (*domain.Employee, error) {
	if err := validateNewEmployee(employee); err != nil {
		return nil, err
	}

	record := domain.Employee{
		ID:             uid.New(),
		FullName:       strings.TrimSpace(employee.FullName),
		Phone:          employee.Phone,
		Address:        employee.Address,
		Role:           employee.Role,
		BaseSalary:     employee.BaseSalary,
		CommissionRate: employee.CommissionRate,
		JoinDate:       time.Now().UTC(),
		IsActive:       true,
	}

	err := f.withFallback(ctx, syncq.ActionInsertEmployee, record,
		func(ctx context.Context) error {
			saved, err := f.remote.InsertEmployee(ctx, record)
			if err != nil {
				return err
			}
			record = *saved
			return nil
		},
		func() error {
			return appendLocal(f.local, local.KeyEmployees, record)
		},
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (f *Facade) Employees(ctx context.Context) ([]domain.Employee, error) {
	return readFallback(ctx, f, local.KeyEmployees, f.remoteEmployees)
}

func (f *Facade) remoteEmployees(ctx context.Context) ([]domain.Employee, error) {
	return f.remote.SelectEmployees(ctx)
}

func (f *Facade) UpdateEmployee(ctx context.Context, id string, updates domain.EmployeeUpdate) error {
	payload := syncq.UpdateEmployeePayload{ID: id, Updates: updates}

	return f.withFallback(ctx, syncq.ActionUpdateEmployee, payload,
		func(ctx context.Context) error {
			return f.remote.UpdateEmployee(ctx, id, updates)
		},
		func() error {
			return updateLocal(f.local, local.KeyEmployees,
				func(e *domain.Employee) bool { return e.ID == id },
				func(e *domain.Employee) { updates.Apply(e) },
			)
		},
	)
}

func (f *Facade) DeleteEmployee(ctx context.Context, id string) error {
	payload := syncq.DeletePayload{ID: id}

	return f.withFallback(ctx, syncq.ActionDeleteEmployee, payload,
		func(ctx context.Context) error {
			return f.remote.DeleteEmployee(ctx, id)
		},
		func() error {
			return removeLocal(f.local, local.KeyEmployees, func(e *domain.Employee) bool {
				return e.ID == id
			})
		},
	)
}

// --- Attendance ---

func (f *Facade) AddAttendance(ctx context.Context, entry domain.AttendanceLog) (*domain.AttendanceLog, error) {
	if err := validateAttendance(entry); err != nil {
		return nil, err
	}
	if entry.ID == "" {
		entry.ID = uid.New()
	}
	if entry.Date == "" {
		entry.Date = time.Now().UTC().Format("2006-01-02")
	}

	record := entry
	err := f.withFallback(ctx, syncq.ActionInsertAttendance, record,
		func(ctx context.Context) error {
			saved, err := f.remote.InsertAttendance(ctx, record)
			if err != nil {
				return err
			}
			record = *saved
			return nil
		},
		func() error {
			return appendLocal(f.local, local.KeyAttendance, record)
		},
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Attendance lists logs, optionally filtered to one date (YYYY-MM-DD).
func (f *Facade) Attendance(ctx context.Context, date string) ([]domain.AttendanceLog, error) {
	logs, err := readFallback(ctx, f, local.KeyAttendance, func(ctx context.Context) ([]domain.AttendanceLog, error) {
		return f.remote.SelectAttendance(ctx, date)
	})
	if err != nil {
		return nil, err
	}
	if date == "" {
		return logs, nil
	}
	filtered := make([]domain.AttendanceLog, 0, len(logs))
	for _, entry := range logs {
		if entry.Date == date {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

func (f *Facade) UpdateAttendance(ctx context.Context, id string, updates domain.AttendanceUpdate) error {
	payload := syncq.UpdateAttendancePayload{ID: id, Updates: updates}

	return f.withFallback(ctx, syncq.ActionUpdateAttendance, payload,
		func(ctx context.Context) error {
			return f.remote.UpdateAttendance(ctx, id, updates)
		},
		func() error {
			return updateLocal(f.local, local.KeyAttendance,
				func(a *domain.AttendanceLog) bool { return a.ID == id },
				func(a *domain.AttendanceLog) { updates.Apply(a) },
			)
		},
	)
}

// --- Payroll ---

func (f *Facade) AddPayrollSlip(ctx context.Context, slip domain.PayrollSlip) (*domain.PayrollSlip, error) {
	if slip.ID == "" {
		slip.ID = uid.New()
	}
	if slip.Status == "" {
		slip.Status = domain.PayrollDraft
	}

	record := slip
	err := f.withFallback(ctx, syncq.ActionInsertPayroll, record,
		func(ctx context.Context) error {
			saved, err := f.remote.InsertPayrollSlip(ctx, record)
			if err != nil {
				return err
			}
			record = *saved
			return nil
		},
		func() error {
			return appendLocal(f.local, local.KeyPayroll, record)
		},
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (f *Facade) PayrollSlips(ctx context.Context) ([]domain.PayrollSlip, error) {
	return readFallback(ctx, f, local.KeyPayroll, f.remotePayrollSlips)
}

func (f *Facade) remotePayrollSlips(ctx context.Context) ([]domain.PayrollSlip, error) {
	return f.remote.SelectPayrollSlips(ctx)
}

// --- Shifts ---

func (f *Facade) AddShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if err := validateShift(shift); err != nil {
		return nil, err
	}
	shift.ID = uid.New()
	shift.Status = domain.ShiftStatusOpen
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}

	record := shift
	err := f.withFallback(ctx, syncq.ActionInsertShift, record,
		func(ctx context.Context) error {
			saved, err := f.remote.InsertShift(ctx, record)
			if err != nil {
				return err
			}
			record = *saved
			return nil
		},
		func() error {
			return appendLocal(f.local, local.KeyShifts, record)
		},
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (f *Facade) Shifts(ctx context.Context) ([]domain.Shift, error) {
	return readFallback(ctx, f, local.KeyShifts, f.remoteShifts)
}

func (f *Facade) remoteShifts(ctx context.Context) ([]domain.Shift, error) {
	return f.remote.SelectShifts(ctx)
}

func (f *Facade) UpdateShift(ctx context.Context, id string, updates domain.ShiftUpdate) error {
	payload := syncq.UpdateShiftPayload{ID: id, Updates: updates}

	return f.withFallback(ctx, syncq.ActionUpdateShift, payload,
		func(ctx context.Context) error {
			return f.remote.UpdateShift(ctx, id, updates)
		},
		func() error {
			return updateLocal(f.local, local.KeyShifts,
				func(s *domain.Shift) bool { return s.ID == id },
				func(s *domain.Shift) { updates.Apply(s) },
			)
		},
	)
}

// --- Void requests ---

func (f *Facade) AddVoidRequest(ctx context.Context, req domain.VoidRequest) (*domain.VoidRequest, error) {
	if err := validateVoidRequest(req); err != nil {
		return nil, err
	}
	req.ID = uid.New()
	req.Status = domain.RequestPending
	req.CreatedAt = time.Now().UTC()

	record := req
	err := f.withFallback(ctx, syncq.ActionInsertRequest, record,
		func(ctx context.Context) error {
			saved, err := f.remote.InsertVoidRequest(ctx, record)
			if err != nil {
				return err
			}
			record = *saved
			return nil
		},
		func() error {
			return appendLocal(f.local, local.KeyRequests, record)
		},
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (f *Facade) VoidRequests(ctx context.Context) ([]domain.VoidRequest, error) {
	return readFallback(ctx, f, local.KeyRequests, f.remoteVoidRequests)
}

func (f *Facade) remoteVoidRequests(ctx context.Context) ([]domain.VoidRequest, error) {
	return f.remote.SelectVoidRequests(ctx)
}

func (f *Facade) UpdateVoidRequest(ctx context.Context, id string, updates domain.VoidRequestUpdate) error {
	payload := syncq.UpdateRequestPayload{ID: id, Updates: updates}

	return f.withFallback(ctx, syncq.ActionUpdateRequest, payload,
		func(ctx context.Context) error {
			return f.remote.UpdateVoidRequest(ctx, id, updates)
		},
		func() error {
			return updateLocal(f.local, local.KeyRequests,
				func(r *domain.VoidRequest) bool { return r.ID == id },
				func(r *domain.VoidRequest) { updates.Apply(r) },
			)
		},
	)
}

// --- Audit ---

// LogAudit records an audit entry best-effort: failures are logged and
// never fail the calling operation.
func (f *Facade) LogAudit(ctx context.Context, actorID string, actorName string, action string, detail string) {
	entry := domain.AuditLog{
		ID:        uid.New(),
		ActorID:   actorID,
		ActorName: actorName,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}

	err := f.withFallback(ctx, syncq.ActionInsertAudit, entry,
		func(ctx context.Context) error {
			return f.remote.InsertAuditLog(ctx, entry)
		},
		func() error {
			return prependLocal(f.local, local.KeyAudit, entry)
		},
	)
	if err != nil {
		log.Printf("[storage] audit log %s failed: %v", action, err)
	}
}

func (f *Facade) AuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	entries, err := readFallback(ctx, f, local.KeyAudit, func(ctx context.Context) ([]domain.AuditLog, error) {
		return f.remote.SelectAuditLogs(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// --- Settings and pricing ---

// Settings returns the stored settings or the defaults when no row
// exists on either backend.
func (f *Facade) Settings(ctx context.Context) (domain.StoreSettings, error) {
	if f.remote != nil {
		settings, err := f.remote.SelectSettings(ctx)
		if err == nil && settings != nil {
			return *settings, nil
		}
		if err != nil {
			log.Printf("[storage] remote read settings failed, using local: %v", err)
		}
	}

	stored := []domain.StoreSettings{}
	if err := f.local.Read(local.KeySettings, &stored); err != nil {
		return domain.StoreSettings{}, err
	}
	if len(stored) > 0 {
		return stored[0], nil
	}
	return defaultSettings(), nil
}

func (f *Facade) UpdateSettings(ctx context.Context, settings domain.StoreSettings) error {
	if err := validateSettings(settings); err != nil {
		return err
	}
	if settings.ID == "" {
		settings.ID = uid.New()
	}
	settings.UpdatedAt = time.Now().UTC()

	return f.withFallback(ctx, syncq.ActionUpdateSettings, settings,
		func(ctx context.Context) error {
			return f.remote.UpsertSettings(ctx, settings)
		},
		func() error {
			return f.local.Write(local.KeySettings, []domain.StoreSettings{settings})
		},
	)
}

// PricingRules returns the special-amount overrides, seeding the local
// defaults on first use when no backend has any.
func (f *Facade) PricingRules(ctx context.Context) ([]domain.PricingRule, error) {
	if f.remote != nil {
		rules, err := f.remote.SelectPricingRules(ctx)
		if err == nil && len(rules) > 0 {
			return rules, nil
		}
		if err != nil {
			log.Printf("[storage] remote read pricing rules failed, using local: %v", err)
		}
	}

	rules := []domain.PricingRule{}
	if err := f.local.Read(local.KeyPricing, &rules); err != nil {
		return nil, err
	}
	if len(rules) > 0 {
		return rules, nil
	}

	rules = defaultPricingRules()
	if err := f.local.Write(local.KeyPricing, rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// --- Users ---

func (f *Facade) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || strings.TrimSpace(user.Password) == "" {
		return fmt.Errorf("%w: username and password are required", store.ErrValidation)
	}
	user.Username = username
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true

	return f.withFallback(ctx, syncq.ActionInsertUser, user,
		func(ctx context.Context) error {
			return f.remote.CreateUser(ctx, user)
		},
		func() error {
			return appendLocal(f.local, local.KeyUsers, user)
		},
	)
}

func (f *Facade) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	return readFallback(ctx, f, local.KeyUsers, func(ctx context.Context) ([]domain.UserAccount, error) {
		return f.remote.ListUsers(ctx)
	})
}

func (f *Facade) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: username and password are required", store.ErrValidation)
	}
	payload := syncq.UpdateUserPayload{Username: username, Password: password}

	return f.withFallback(ctx, syncq.ActionUpdateUser, payload,
		func(ctx context.Context) error {
			return f.remote.UpdateUserPassword(ctx, username, password)
		},
		func() error {
			return updateLocal(f.local, local.KeyUsers,
				func(u *domain.UserAccount) bool { return u.Username == username },
				func(u *domain.UserAccount) { u.Password = password },
			)
		},
	)
}

func defaultSettings() domain.StoreSettings {
	return domain.StoreSettings{
		ID:                "default",
		StoreName:         "E-Fuel POS",
		BasePricePerLiter: 12000,
		CostPricePerLiter: 10000,
	}
}

func defaultPricingRules() []domain.PricingRule {
	return []domain.PricingRule{
		{ID: uid.New(), Nominal: 6000, Liter: 0.5, IsActive: true},
		{ID: uid.New(), Nominal: 10000, Liter: 0.7, IsActive: true},
		{ID: uid.New(), Nominal: 15000, Liter: 1.2, IsActive: true},
	}
}
