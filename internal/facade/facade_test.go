package facade

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"efuelpos/backend/internal/domain"
	"efuelpos/backend/internal/store"
	"efuelpos/backend/internal/store/local"
	"efuelpos/backend/internal/store/memory"
	"efuelpos/backend/internal/syncq"
)

type offlineNetwork struct{}

func (offlineNetwork) Online() bool         { return false }
func (offlineNetwork) Changes() <-chan bool { return nil }

type harness struct {
	facade *Facade
	remote *memory.Store
	queue  *syncq.Queue
	local  *local.Store
}

func newHarness(t *testing.T, withRemote bool) *harness {
	t.Helper()
	db, err := local.Open(filepath.Join(t.TempDir(), "kiosk.db"))
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{local: db}
	var remote store.Remote
	if withRemote {
		h.remote = memory.New()
		remote = h.remote
	}
	// Offline network keeps drains synchronous and test-driven.
	h.queue = syncq.New(db, remote, offlineNetwork{}, syncq.DefaultMaxRetries, time.Minute)
	h.facade = New(remote, db, h.queue, nil)
	return h
}

func queueLen(t *testing.T, q *syncq.Queue) int {
	t.Helper()
	items, err := q.Items()
	if err != nil {
		t.Fatalf("queue items: %v", err)
	}
	return len(items)
}

func TestAddTransactionRemoteSuccess(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	tx, err := h.facade.AddTransaction(ctx, domain.NewTransaction{
		Nominal: 10000, Liter: 0.7, Profit: 3000, IsSpecialRule: true,
	})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("transaction id missing")
	}
	if tx.PaymentMethod != domain.PaymentCash {
		t.Fatalf("payment method = %s, want default CASH", tx.PaymentMethod)
	}

	if n := queueLen(t, h.queue); n != 0 {
		t.Fatalf("queue length = %d, want 0 after remote success", n)
	}
	saved, _ := h.remote.SelectTransactions(ctx)
	if len(saved) != 1 || saved[0].ID != tx.ID {
		t.Fatalf("remote transactions = %+v", saved)
	}
}

func TestAddTransactionFallsBackAndKeepsID(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	h.remote.SetOffline(true)
	tx, err := h.facade.AddTransaction(ctx, domain.NewTransaction{Nominal: 12000, Liter: 1.0, Profit: 2000})
	if err != nil {
		t.Fatalf("add transaction while offline: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("transaction id missing")
	}

	// Caller sees success; the write sits locally plus one queue item.
	locals, err := h.facade.Transactions(ctx)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(locals) != 1 || locals[0].ID != tx.ID {
		t.Fatalf("local transactions = %+v", locals)
	}
	if n := queueLen(t, h.queue); n != 1 {
		t.Fatalf("queue length = %d, want 1", n)
	}

	h.remote.SetOffline(false)
	h.queue.Drain(ctx)

	saved, _ := h.remote.SelectTransactions(ctx)
	if len(saved) != 1 {
		t.Fatalf("remote transactions after drain = %d, want 1", len(saved))
	}
	if saved[0].ID != tx.ID {
		t.Fatalf("replayed id = %s, want the id handed to the caller %s", saved[0].ID, tx.ID)
	}
	if n := queueLen(t, h.queue); n != 0 {
		t.Fatalf("queue length after drain = %d, want 0", n)
	}
}

func TestAddTransactionValidation(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	cases := []domain.NewTransaction{
		{Nominal: 50, Liter: 0.01},
		{Nominal: 10000, Liter: 0},
		{Nominal: 10000, Liter: 0.7, PaymentMethod: "CHECK"},
	}
	for i, tc := range cases {
		if _, err := h.facade.AddTransaction(ctx, tc); !errors.Is(err, store.ErrValidation) {
			t.Errorf("case %d: err = %v, want ErrValidation", i, err)
		}
	}
	if n := queueLen(t, h.queue); n != 0 {
		t.Fatalf("invalid writes must never be queued, queue length = %d", n)
	}
}

func TestCurrentStockFold(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	if _, err := h.facade.AddInventoryLog(ctx, domain.NewInventoryLog{Type: domain.InventoryIn, Volume: 100}); err != nil {
		t.Fatalf("restock: %v", err)
	}
	if _, err := h.facade.AddTransaction(ctx, domain.NewTransaction{Nominal: 10000, Liter: 0.7, Profit: 3000}); err != nil {
		t.Fatalf("sale: %v", err)
	}
	if _, err := h.facade.AddInventoryLog(ctx, domain.NewInventoryLog{Type: domain.InventoryOut, Volume: 2.5, Notes: "spill"}); err != nil {
		t.Fatalf("outbound: %v", err)
	}

	stock, err := h.facade.CurrentStock(ctx)
	if err != nil {
		t.Fatalf("current stock: %v", err)
	}
	if stock != 96.8 {
		t.Fatalf("stock = %v, want 96.8", stock)
	}
}

func TestVoidTransactionRestoresStockViaAdjustment(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	if _, err := h.facade.AddInventoryLog(ctx, domain.NewInventoryLog{Type: domain.InventoryIn, Volume: 100}); err != nil {
		t.Fatalf("restock: %v", err)
	}
	tx, err := h.facade.AddTransaction(ctx, domain.NewTransaction{Nominal: 10000, Liter: 0.7, Profit: 3000})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}

	stock, _ := h.facade.CurrentStock(ctx)
	if stock != 99.3 {
		t.Fatalf("stock after sale = %v, want 99.3", stock)
	}

	if err := h.facade.VoidTransaction(ctx, tx.ID, tx.Liter); err != nil {
		t.Fatalf("void: %v", err)
	}

	stock, _ = h.facade.CurrentStock(ctx)
	if stock != 100 {
		t.Fatalf("stock after void = %v, want 100", stock)
	}

	// The sale row stays; the reversal is a new ADJUSTMENT entry.
	transactions, _ := h.facade.Transactions(ctx)
	if len(transactions) != 1 {
		t.Fatalf("transactions = %d, want original row kept", len(transactions))
	}
	logs, _ := h.facade.InventoryLogs(ctx)
	foundAdjustment := false
	for _, entry := range logs {
		if entry.Type == domain.InventoryAdjustment && entry.Volume == tx.Liter {
			foundAdjustment = true
		}
	}
	if !foundAdjustment {
		t.Fatalf("no compensating adjustment found in %+v", logs)
	}
}

func TestVoidInventoryLogCompensates(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	entry, err := h.facade.AddInventoryLog(ctx, domain.NewInventoryLog{Type: domain.InventoryIn, Volume: 40})
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if err := h.facade.VoidInventoryLog(ctx, entry.ID); err != nil {
		t.Fatalf("void: %v", err)
	}

	stock, err := h.facade.CurrentStock(ctx)
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if stock != 0 {
		t.Fatalf("stock after voided restock = %v, want 0", stock)
	}
}

func TestDeleteExpenseQueuesWhileOffline(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	expense, err := h.facade.AddExpense(ctx, domain.NewExpense{Category: "maintenance", Description: "ganti selang", Amount: 45000})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	h.remote.SetOffline(true)
	if err := h.facade.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if n := queueLen(t, h.queue); n != 1 {
		t.Fatalf("queue length = %d, want 1", n)
	}

	h.remote.SetOffline(false)
	h.queue.Drain(ctx)

	remaining, _ := h.remote.SelectExpenses(ctx)
	if len(remaining) != 0 {
		t.Fatalf("remote expenses after replayed delete = %+v", remaining)
	}
}

func TestReadsNeverMergeSources(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	// One record lands remotely, one only locally while offline.
	if _, err := h.facade.AddExpense(ctx, domain.NewExpense{Category: "ops", Description: "listrik", Amount: 20000}); err != nil {
		t.Fatalf("add expense: %v", err)
	}
	h.remote.SetOffline(true)
	if _, err := h.facade.AddExpense(ctx, domain.NewExpense{Category: "ops", Description: "air", Amount: 8000}); err != nil {
		t.Fatalf("add expense offline: %v", err)
	}
	h.remote.SetOffline(false)

	expenses, err := h.facade.Expenses(ctx)
	if err != nil {
		t.Fatalf("expenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("remote-backed read returned %d records, want 1 (no merging)", len(expenses))
	}
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	settings, err := h.facade.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings.BasePricePerLiter != 12000 || settings.CostPricePerLiter != 10000 {
		t.Fatalf("default settings = %+v", settings)
	}

	settings.BasePricePerLiter = 13000
	if err := h.facade.UpdateSettings(ctx, settings); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	reread, err := h.facade.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if reread.BasePricePerLiter != 13000 {
		t.Fatalf("base price = %d, want 13000", reread.BasePricePerLiter)
	}
}

func TestPricingRulesSeeded(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	rules, err := h.facade.PricingRules(ctx)
	if err != nil {
		t.Fatalf("pricing rules: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("seeded rules = %d, want 3", len(rules))
	}
	byNominal := map[int64]float64{}
	for _, rule := range rules {
		byNominal[rule.Nominal] = rule.Liter
	}
	if byNominal[6000] != 0.5 || byNominal[10000] != 0.7 || byNominal[15000] != 1.2 {
		t.Fatalf("seeded rules = %+v", byNominal)
	}
}

func TestUpdateDebtAppliesLocally(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	debt, err := h.facade.AddDebt(ctx, domain.Debt{CustomerName: "Pak Budi", Amount: 50000})
	if err != nil {
		t.Fatalf("add debt: %v", err)
	}
	if debt.Status != domain.DebtStatusOpen {
		t.Fatalf("new debt status = %s, want OPEN", debt.Status)
	}

	paid := int64(50000)
	status := domain.DebtStatusPaid
	if err := h.facade.UpdateDebt(ctx, debt.ID, domain.DebtUpdate{AmountPaid: &paid, Status: &status}); err != nil {
		t.Fatalf("update debt: %v", err)
	}

	debts, _ := h.facade.Debts(ctx)
	if len(debts) != 1 || debts[0].Status != domain.DebtStatusPaid || debts[0].AmountPaid != 50000 {
		t.Fatalf("debts = %+v", debts)
	}
}
