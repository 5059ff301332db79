// Package postgres is the remote backend. The facade treats every error
// from here as a cue to fall back to the local mirror, so methods return
// the raw driver error and only translate sql.ErrNoRows.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"efuelpos/backend/internal/domain"
	"efuelpos/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) InsertTransaction(ctx context.Context, tx domain.TransactionRecord) (*domain.TransactionRecord, error) {
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, nominal, liter, profit, is_special_rule, payment_method, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING
	`, tx.ID, tx.Nominal, tx.Liter, tx.Profit, tx.IsSpecialRule, tx.PaymentMethod, tx.Timestamp)
	if err != nil {
		return nil, err
	}
	saved := tx
	return &saved, nil
}

func (s *Store) SelectTransactions(ctx context.Context) ([]domain.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nominal, liter, profit, is_special_rule, payment_method, created_at
		FROM transactions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.TransactionRecord, 0, 128)
	for rows.Next() {
		var tx domain.TransactionRecord
		if err := rows.Scan(&tx.ID, &tx.Nominal, &tx.Liter, &tx.Profit, &tx.IsSpecialRule, &tx.PaymentMethod, &tx.Timestamp); err != nil {
			return nil, err
		}
		tx.Timestamp = tx.Timestamp.UTC()
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

// VoidTransaction verifies the sale exists and records the compensating
// adjustment in one server-side transaction. The sale row is kept; the
// adjustment restores the stock it consumed.
func (s *Store) VoidTransaction(ctx context.Context, id string, adjustment domain.InventoryLog) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	var exists string
	err = pgTx.QueryRowContext(ctx, `
		SELECT id FROM transactions WHERE id = $1 FOR UPDATE
	`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}

	if err := insertInventoryLogTx(ctx, pgTx, adjustment); err != nil {
		return err
	}

	return pgTx.Commit()
}

func (s *Store) InsertInventoryLog(ctx context.Context, entry domain.InventoryLog) (*domain.InventoryLog, error) {
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_logs (id, date, type, volume, cost_per_liter, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.Date, entry.Type, entry.Volume, entry.CostPerLiter, entry.Notes)
	if err != nil {
		return nil, err
	}
	saved := entry
	return &saved, nil
}

func insertInventoryLogTx(ctx context.Context, tx *sql.Tx, entry domain.InventoryLog) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_logs (id, date, type, volume, cost_per_liter, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.Date, entry.Type, entry.Volume, entry.CostPerLiter, entry.Notes)
	return err
}

func (s *Store) SelectInventoryLogs(ctx context.Context) ([]domain.InventoryLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, type, volume, cost_per_liter, notes
		FROM inventory_logs
		ORDER BY date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.InventoryLog, 0, 64)
	for rows.Next() {
		var entry domain.InventoryLog
		if err := rows.Scan(&entry.ID, &entry.Date, &entry.Type, &entry.Volume, &entry.CostPerLiter, &entry.Notes); err != nil {
			return nil, err
		}
		entry.Date = entry.Date.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) VoidInventoryLog(ctx context.Context, id string, adjustment domain.InventoryLog) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	var exists string
	err = pgTx.QueryRowContext(ctx, `
		SELECT id FROM inventory_logs WHERE id = $1 FOR UPDATE
	`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}

	if err := insertInventoryLogTx(ctx, pgTx, adjustment); err != nil {
		return err
	}

	return pgTx.Commit()
}

func (s *Store) InsertExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, date, category, description, amount)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO NOTHING
	`, expense.ID, expense.Date, expense.Category, expense.Description, expense.Amount)
	if err != nil {
		return nil, err
	}
	saved := expense
	return &saved, nil
}

func (s *Store) SelectExpenses(ctx context.Context) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, category, description, amount
		FROM expenses
		ORDER BY date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 64)
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(&expense.ID, &expense.Date, &expense.Category, &expense.Description, &expense.Amount); err != nil {
			return nil, err
		}
		expense.Date = expense.Date.UTC()
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) InsertDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error) {
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO debts (id, customer_name, phone, amount, amount_paid, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING
	`, debt.ID, debt.CustomerName, debt.Phone, debt.Amount, debt.AmountPaid, debt.Status, debt.CreatedAt)
	if err != nil {
		return nil, err
	}
	saved := debt
	return &saved, nil
}

func (s *Store) SelectDebts(ctx context.Context) ([]domain.Debt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, phone, amount, amount_paid, status, created_at
		FROM debts
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	debts := make([]domain.Debt, 0, 32)
	for rows.Next() {
		var debt domain.Debt
		if err := rows.Scan(&debt.ID, &debt.CustomerName, &debt.Phone, &debt.Amount, &debt.AmountPaid, &debt.Status, &debt.CreatedAt); err != nil {
			return nil, err
		}
		debt.CreatedAt = debt.CreatedAt.UTC()
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return debts, nil
}

func (s *Store) UpdateDebt(ctx context.Context, id string, updates domain.DebtUpdate) error {
	debt, err := s.selectDebt(ctx, id)
	if err != nil {
		return err
	}
	updates.Apply(debt)

	_, err = s.db.ExecContext(ctx, `
		UPDATE debts
		SET amount_paid = $2, status = $3
		WHERE id = $1
	`, id, debt.AmountPaid, debt.Status)
	return err
}

func (s *Store) selectDebt(ctx context.Context, id string) (*domain.Debt, error) {
	var debt domain.Debt
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_name, phone, amount, amount_paid, status, created_at
		FROM debts
		WHERE id = $1
	`, id).Scan(&debt.ID, &debt.CustomerName, &debt.Phone, &debt.Amount, &debt.AmountPaid, &debt.Status, &debt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &debt, nil
}

func (s *Store) InsertEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.JoinDate.IsZero() {
		employee.JoinDate = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, full_name, phone, address, role, base_salary, commission_rate, join_date, is_active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING
	`, employee.ID, employee.FullName, employee.Phone, employee.Address, employee.Role,
		employee.BaseSalary, employee.CommissionRate, employee.JoinDate, employee.IsActive)
	if err != nil {
		return nil, err
	}
	saved := employee
	return &saved, nil
}

func (s *Store) SelectEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name, phone, address, role, base_salary, commission_rate, join_date, is_active
		FROM employees
		ORDER BY join_date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 16)
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.FullName, &e.Phone, &e.Address, &e.Role, &e.BaseSalary, &e.CommissionRate, &e.JoinDate, &e.IsActive); err != nil {
			return nil, err
		}
		e.JoinDate = e.JoinDate.UTC()
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, id string, updates domain.EmployeeUpdate) error {
	employee, err := s.selectEmployee(ctx, id)
	if err != nil {
		return err
	}
	updates.Apply(employee)

	_, err = s.db.ExecContext(ctx, `
		UPDATE employees
		SET full_name = $2, phone = $3, address = $4, role = $5,
			base_salary = $6, commission_rate = $7, is_active = $8
		WHERE id = $1
	`, id, employee.FullName, employee.Phone, employee.Address, employee.Role,
		employee.BaseSalary, employee.CommissionRate, employee.IsActive)
	return err
}

func (s *Store) selectEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	var e domain.Employee
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, phone, address, role, base_salary, commission_rate, join_date, is_active
		FROM employees
		WHERE id = $1
	`, id).Scan(&e.ID, &e.FullName, &e.Phone, &e.Address, &e.Role, &e.BaseSalary, &e.CommissionRate, &e.JoinDate, &e.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) InsertAttendance(ctx context.Context, entry domain.AttendanceLog) (*domain.AttendanceLog, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (
			id, employee_id, date, clock_in, clock_out, photo_in_url, photo_out_url,
			location_in_lat, location_in_long, location_out_lat, location_out_long, status, notes
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.EmployeeID, entry.Date, nullTime(entry.ClockIn), nullTime(entry.ClockOut),
		entry.PhotoInURL, entry.PhotoOutURL, entry.LocationInLat, entry.LocationInLong,
		entry.LocationOutLat, entry.LocationOutLong, entry.Status, entry.Notes)
	if err != nil {
		return nil, err
	}
	saved := entry
	return &saved, nil
}

func (s *Store) SelectAttendance(ctx context.Context, date string) ([]domain.AttendanceLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, clock_in, clock_out, photo_in_url, photo_out_url,
			location_in_lat, location_in_long, location_out_lat, location_out_long, status, notes
		FROM attendance
		WHERE ($1 = '' OR date = $1)
		ORDER BY date DESC, clock_in ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AttendanceLog, 0, 32)
	for rows.Next() {
		var entry domain.AttendanceLog
		var clockIn, clockOut sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.EmployeeID, &entry.Date, &clockIn, &clockOut,
			&entry.PhotoInURL, &entry.PhotoOutURL, &entry.LocationInLat, &entry.LocationInLong,
			&entry.LocationOutLat, &entry.LocationOutLong, &entry.Status, &entry.Notes); err != nil {
			return nil, err
		}
		if clockIn.Valid {
			at := clockIn.Time.UTC()
			entry.ClockIn = &at
		}
		if clockOut.Valid {
			at := clockOut.Time.UTC()
			entry.ClockOut = &at
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) UpdateAttendance(ctx context.Context, id string, updates domain.AttendanceUpdate) error {
	logs, err := s.SelectAttendance(ctx, "")
	if err != nil {
		return err
	}
	var entry *domain.AttendanceLog
	for i := range logs {
		if logs[i].ID == id {
			entry = &logs[i]
			break
		}
	}
	if entry == nil {
		return store.ErrNotFound
	}
	updates.Apply(entry)

	_, err = s.db.ExecContext(ctx, `
		UPDATE attendance
		SET clock_out = $2, photo_out_url = $3, location_out_lat = $4,
			location_out_long = $5, status = $6, notes = $7
		WHERE id = $1
	`, id, nullTime(entry.ClockOut), entry.PhotoOutURL, entry.LocationOutLat,
		entry.LocationOutLong, entry.Status, entry.Notes)
	return err
}

func (s *Store) InsertPayrollSlip(ctx context.Context, slip domain.PayrollSlip) (*domain.PayrollSlip, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll (
			id, employee_id, employee_name, period_start, period_end, base_salary,
			total_commission, total_deductions, total_bonuses, net_salary, status, payment_date
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO NOTHING
	`, slip.ID, slip.EmployeeID, slip.EmployeeName, slip.PeriodStart, slip.PeriodEnd, slip.BaseSalary,
		slip.TotalCommission, slip.TotalDeductions, slip.TotalBonuses, slip.NetSalary, slip.Status, nullTime(slip.PaymentDate))
	if err != nil {
		return nil, err
	}
	saved := slip
	return &saved, nil
}

func (s *Store) SelectPayrollSlips(ctx context.Context) ([]domain.PayrollSlip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, employee_name, period_start, period_end, base_salary,
			total_commission, total_deductions, total_bonuses, net_salary, status, payment_date
		FROM payroll
		ORDER BY period_start DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slips := make([]domain.PayrollSlip, 0, 16)
	for rows.Next() {
		var slip domain.PayrollSlip
		var paymentDate sql.NullTime
		if err := rows.Scan(&slip.ID, &slip.EmployeeID, &slip.EmployeeName, &slip.PeriodStart, &slip.PeriodEnd,
			&slip.BaseSalary, &slip.TotalCommission, &slip.TotalDeductions, &slip.TotalBonuses,
			&slip.NetSalary, &slip.Status, &paymentDate); err != nil {
			return nil, err
		}
		if paymentDate.Valid {
			at := paymentDate.Time.UTC()
			slip.PaymentDate = &at
		}
		slips = append(slips, slip)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slips, nil
}

func (s *Store) InsertShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (
			id, user_id, cashier_name, start_time, end_time, opening_cash,
			closing_cash, expected_cash, difference_cash, status
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING
	`, shift.ID, shift.UserID, shift.CashierName, shift.StartTime, nullTime(shift.EndTime),
		shift.OpeningCash, shift.ClosingCash, shift.ExpectedCash, shift.DifferenceCash, shift.Status)
	if err != nil {
		return nil, err
	}
	saved := shift
	return &saved, nil
}

func (s *Store) SelectShifts(ctx context.Context) ([]domain.Shift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, cashier_name, start_time, end_time, opening_cash,
			closing_cash, expected_cash, difference_cash, status
		FROM shifts
		ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0, 16)
	for rows.Next() {
		var shift domain.Shift
		var endTime sql.NullTime
		if err := rows.Scan(&shift.ID, &shift.UserID, &shift.CashierName, &shift.StartTime, &endTime,
			&shift.OpeningCash, &shift.ClosingCash, &shift.ExpectedCash, &shift.DifferenceCash, &shift.Status); err != nil {
			return nil, err
		}
		shift.StartTime = shift.StartTime.UTC()
		if endTime.Valid {
			at := endTime.Time.UTC()
			shift.EndTime = &at
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (s *Store) UpdateShift(ctx context.Context, id string, updates domain.ShiftUpdate) error {
	shifts, err := s.SelectShifts(ctx)
	if err != nil {
		return err
	}
	var shift *domain.Shift
	for i := range shifts {
		if shifts[i].ID == id {
			shift = &shifts[i]
			break
		}
	}
	if shift == nil {
		return store.ErrNotFound
	}
	updates.Apply(shift)

	_, err = s.db.ExecContext(ctx, `
		UPDATE shifts
		SET end_time = $2, closing_cash = $3, expected_cash = $4, difference_cash = $5, status = $6
		WHERE id = $1
	`, id, nullTime(shift.EndTime), shift.ClosingCash, shift.ExpectedCash, shift.DifferenceCash, shift.Status)
	return err
}

func (s *Store) InsertVoidRequest(ctx context.Context, req domain.VoidRequest) (*domain.VoidRequest, error) {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (id, type, target_id, liter_volume, reason, status, requested_by, created_at, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING
	`, req.ID, req.Type, req.TargetID, req.LiterVolume, req.Reason, req.Status, req.RequestedBy,
		req.CreatedAt, nullTime(req.ResolvedAt))
	if err != nil {
		return nil, err
	}
	saved := req
	return &saved, nil
}

func (s *Store) SelectVoidRequests(ctx context.Context) ([]domain.VoidRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, target_id, liter_volume, reason, status, requested_by, created_at, resolved_at
		FROM requests
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]domain.VoidRequest, 0, 16)
	for rows.Next() {
		var req domain.VoidRequest
		var resolvedAt sql.NullTime
		if err := rows.Scan(&req.ID, &req.Type, &req.TargetID, &req.LiterVolume, &req.Reason,
			&req.Status, &req.RequestedBy, &req.CreatedAt, &resolvedAt); err != nil {
			return nil, err
		}
		req.CreatedAt = req.CreatedAt.UTC()
		if resolvedAt.Valid {
			at := resolvedAt.Time.UTC()
			req.ResolvedAt = &at
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *Store) UpdateVoidRequest(ctx context.Context, id string, updates domain.VoidRequestUpdate) error {
	requests, err := s.SelectVoidRequests(ctx)
	if err != nil {
		return err
	}
	var req *domain.VoidRequest
	for i := range requests {
		if requests[i].ID == id {
			req = &requests[i]
			break
		}
	}
	if req == nil {
		return store.ErrNotFound
	}
	updates.Apply(req)

	_, err = s.db.ExecContext(ctx, `
		UPDATE requests
		SET status = $2, resolved_at = $3
		WHERE id = $1
	`, id, req.Status, nullTime(req.ResolvedAt))
	return err
}

func (s *Store) InsertAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, actor_name, action, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.ActorID, entry.ActorName, entry.Action, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) SelectAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, actor_name, action, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.ActorName, &entry.Action, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) UpsertSettings(ctx context.Context, settings domain.StoreSettings) error {
	if settings.UpdatedAt.IsZero() {
		settings.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO store_settings (id, store_name, base_price_per_liter, cost_price_per_liter, owner_phone, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id)
		DO UPDATE SET store_name = EXCLUDED.store_name,
			base_price_per_liter = EXCLUDED.base_price_per_liter,
			cost_price_per_liter = EXCLUDED.cost_price_per_liter,
			owner_phone = EXCLUDED.owner_phone,
			updated_at = EXCLUDED.updated_at
	`, settings.ID, settings.StoreName, settings.BasePricePerLiter, settings.CostPricePerLiter,
		settings.OwnerPhone, settings.UpdatedAt)
	return err
}

func (s *Store) SelectSettings(ctx context.Context) (*domain.StoreSettings, error) {
	var settings domain.StoreSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT id, store_name, base_price_per_liter, cost_price_per_liter, owner_phone, updated_at
		FROM store_settings
		ORDER BY updated_at DESC
		LIMIT 1
	`).Scan(&settings.ID, &settings.StoreName, &settings.BasePricePerLiter, &settings.CostPricePerLiter,
		&settings.OwnerPhone, &settings.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	settings.UpdatedAt = settings.UpdatedAt.UTC()
	return &settings, nil
}

func (s *Store) SelectPricingRules(ctx context.Context) ([]domain.PricingRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nominal, liter, is_active
		FROM pricing_rules
		ORDER BY nominal ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]domain.PricingRule, 0, 8)
	for rows.Next() {
		var rule domain.PricingRule
		if err := rows.Scan(&rule.ID, &rule.Nominal, &rule.Liter, &rule.IsActive); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrValidation
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password_hash, role, active, created_at
		FROM users
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 8)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
