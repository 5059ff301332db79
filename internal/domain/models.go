package domain

import "time"

// TransactionRecord is a single cash-register fuel sale. Cost is derived
// from liter and the cost price at read time and never persisted.
type TransactionRecord struct {
	ID            string    `json:"id"`
	Nominal       int64     `json:"nominal"`
	Liter         float64   `json:"liter"`
	Profit        int64     `json:"profit"`
	IsSpecialRule bool      `json:"is_special_rule"`
	PaymentMethod string    `json:"payment_method"`
	Timestamp     time.Time `json:"timestamp"`
}

type NewTransaction struct {
	Nominal       int64   `json:"nominal"`
	Liter         float64 `json:"liter"`
	Profit        int64   `json:"profit"`
	IsSpecialRule bool    `json:"is_special_rule"`
	PaymentMethod string  `json:"payment_method"`
}

type InventoryLog struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Type         string    `json:"type"`
	Volume       float64   `json:"volume"`
	CostPerLiter int64     `json:"cost_per_liter"`
	Notes        string    `json:"notes,omitempty"`
}

type NewInventoryLog struct {
	Type         string  `json:"type"`
	Volume       float64 `json:"volume"`
	CostPerLiter int64   `json:"cost_per_liter"`
	Notes        string  `json:"notes,omitempty"`
}

type Expense struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
}

type NewExpense struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

type Debt struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone,omitempty"`
	Amount       int64     `json:"amount"`
	AmountPaid   int64     `json:"amount_paid"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// DebtUpdate is a partial update; nil fields are left untouched.
type DebtUpdate struct {
	AmountPaid *int64  `json:"amount_paid,omitempty"`
	Status     *string `json:"status,omitempty"`
}

type Employee struct {
	ID             string    `json:"id"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone,omitempty"`
	Address        string    `json:"address,omitempty"`
	Role           string    `json:"role"`
	BaseSalary     int64     `json:"base_salary"`
	CommissionRate float64   `json:"commission_rate"`
	JoinDate       time.Time `json:"join_date"`
	IsActive       bool      `json:"is_active"`
}

type NewEmployee struct {
	FullName       string  `json:"full_name"`
	Phone          string  `json:"phone,omitempty"`
	Address        string  `json:"address,omitempty"`
	Role           string  `json:"role"`
	BaseSalary     int64   `json:"base_salary"`
	CommissionRate float64 `json:"commission_rate"`
}

type EmployeeUpdate struct {
	FullName       *string  `json:"full_name,omitempty"`
	Phone          *string  `json:"phone,omitempty"`
	Address        *string  `json:"address,omitempty"`
	Role           *string  `json:"role,omitempty"`
	BaseSalary     *int64   `json:"base_salary,omitempty"`
	CommissionRate *float64 `json:"commission_rate,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

type AttendanceLog struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employee_id"`
	Date            string     `json:"date"`
	ClockIn         *time.Time `json:"clock_in,omitempty"`
	ClockOut        *time.Time `json:"clock_out,omitempty"`
	PhotoInURL      string     `json:"photo_in_url,omitempty"`
	PhotoOutURL     string     `json:"photo_out_url,omitempty"`
	LocationInLat   float64    `json:"location_in_lat,omitempty"`
	LocationInLong  float64    `json:"location_in_long,omitempty"`
	LocationOutLat  float64    `json:"location_out_lat,omitempty"`
	LocationOutLong float64    `json:"location_out_long,omitempty"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
}

type AttendanceUpdate struct {
	ClockOut        *time.Time `json:"clock_out,omitempty"`
	PhotoOutURL     *string    `json:"photo_out_url,omitempty"`
	LocationOutLat  *float64   `json:"location_out_lat,omitempty"`
	LocationOutLong *float64   `json:"location_out_long,omitempty"`
	Status          *string    `json:"status,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

type PayrollSlip struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employee_id"`
	EmployeeName    string     `json:"employee_name,omitempty"`
	PeriodStart     string     `json:"period_start"`
	PeriodEnd       string     `json:"period_end"`
	BaseSalary      int64      `json:"base_salary"`
	TotalCommission int64      `json:"total_commission"`
	TotalDeductions int64      `json:"total_deductions"`
	TotalBonuses    int64      `json:"total_bonuses"`
	NetSalary       int64      `json:"net_salary"`
	Status          string     `json:"status"`
	PaymentDate     *time.Time `json:"payment_date,omitempty"`
}

type Shift struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	CashierName    string     `json:"cashier_name"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	OpeningCash    int64      `json:"opening_cash"`
	ClosingCash    int64      `json:"closing_cash"`
	ExpectedCash   int64      `json:"expected_cash"`
	DifferenceCash int64      `json:"difference_cash"`
	Status         string     `json:"status"`
}

type ShiftUpdate struct {
	EndTime        *time.Time `json:"end_time,omitempty"`
	ClosingCash    *int64     `json:"closing_cash,omitempty"`
	ExpectedCash   *int64     `json:"expected_cash,omitempty"`
	DifferenceCash *int64     `json:"difference_cash,omitempty"`
	Status         *string    `json:"status,omitempty"`
}

// VoidRequest is a cashier-filed request for an admin to reverse a
// previously recorded transaction, restock or expense.
type VoidRequest struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	TargetID    string     `json:"target_id"`
	LiterVolume float64    `json:"liter_volume,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	RequestedBy string     `json:"requested_by"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

type VoidRequestUpdate struct {
	Status     *string    `json:"status,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

type AuditLog struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreSettings is a single-row table, upserted as a whole.
type StoreSettings struct {
	ID                string    `json:"id"`
	StoreName         string    `json:"store_name"`
	BasePricePerLiter int64     `json:"base_price_per_liter"`
	CostPricePerLiter int64     `json:"cost_price_per_liter"`
	OwnerPhone        string    `json:"owner_phone,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PricingRule overrides the per-liter formula for one fixed nominal amount.
type PricingRule struct {
	ID       string  `json:"id"`
	Nominal  int64   `json:"nominal"`
	Liter    float64 `json:"liter"`
	IsActive bool    `json:"is_active"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	PaymentCash = "CASH"
	PaymentDebt = "DEBT"
	PaymentQRIS = "QRIS"
)

const (
	InventoryIn         = "IN"
	InventoryOut        = "OUT"
	InventoryAdjustment = "ADJUSTMENT"
)

const (
	DebtStatusOpen = "OPEN"
	DebtStatusPaid = "PAID"
)

const (
	RoleManager  = "MANAGER"
	RoleCashier  = "CASHIER"
	RoleStaff    = "STAFF"
	RoleCleaning = "CLEANING"
)

const (
	AttendancePresent = "PRESENT"
	AttendanceLate    = "LATE"
	AttendanceAbsent  = "ABSENT"
	AttendanceSick    = "SICK"
	AttendanceLeave   = "LEAVE"
)

const (
	PayrollDraft = "DRAFT"
	PayrollPaid  = "PAID"
)

const (
	ShiftStatusOpen   = "OPEN"
	ShiftStatusClosed = "CLOSED"
)

const (
	RequestTransactionVoid = "TRANSACTION_VOID"
	RequestStockVoid       = "STOCK_VOID"
	RequestExpenseVoid     = "EXPENSE_VOID"
)

const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestRejected = "REJECTED"
)
