package syncq

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"efuelpos/backend/internal/domain"
	"efuelpos/backend/internal/store"
	"efuelpos/backend/internal/store/local"
	"efuelpos/backend/internal/store/memory"
)

type offlineNetwork struct{}

func (offlineNetwork) Online() bool         { return false }
func (offlineNetwork) Changes() <-chan bool { return nil }

func newTestQueue(t *testing.T, remote store.Remote, maxRetries int) (*Queue, *local.Store) {
	t.Helper()
	db, err := local.Open(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	// Offline network so Enqueue never spawns a background drain;
	// tests call Drain themselves.
	return New(db, remote, offlineNetwork{}, maxRetries, time.Minute), db
}

func sampleTransaction(id string) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:            id,
		Nominal:       10000,
		Liter:         0.7,
		Profit:        3000,
		IsSpecialRule: true,
		PaymentMethod: domain.PaymentCash,
		Timestamp:     time.Now().UTC(),
	}
}

func TestEnqueuePersists(t *testing.T) {
	remote := memory.New()
	q, _ := newTestQueue(t, remote, DefaultMaxRetries)

	if err := q.Enqueue(ActionInsertTransaction, sampleTransaction("tx-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	items, err := q.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("queue length = %d, want 1", len(items))
	}
	if items[0].Action != ActionInsertTransaction {
		t.Fatalf("action = %s, want %s", items[0].Action, ActionInsertTransaction)
	}
	if items[0].RetryCount != 0 {
		t.Fatalf("retry count = %d, want 0", items[0].RetryCount)
	}
	if items[0].ID == "" || items[0].EnqueuedAt.IsZero() {
		t.Fatalf("item missing id or timestamp: %+v", items[0])
	}
}

func TestDrainReplaysInOrder(t *testing.T) {
	remote := memory.New()
	q, _ := newTestQueue(t, remote, DefaultMaxRetries)

	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		if err := q.Enqueue(ActionInsertTransaction, sampleTransaction(id)); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}

	q.Drain(context.Background())

	items, err := q.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("queue length after drain = %d, want 0", len(items))
	}

	saved, err := remote.SelectTransactions(context.Background())
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(saved) != 3 {
		t.Fatalf("remote has %d transactions, want 3", len(saved))
	}
	// Memory store prepends, so insertion order tx-1..tx-3 reads back reversed.
	for i, want := range []string{"tx-3", "tx-2", "tx-1"} {
		if saved[i].ID != want {
			t.Fatalf("remote[%d] = %s, want %s", i, saved[i].ID, want)
		}
	}
}

func TestDrainRetriesThenSucceeds(t *testing.T) {
	remote := memory.New()
	q, _ := newTestQueue(t, remote, DefaultMaxRetries)

	if err := q.Enqueue(ActionInsertTransaction, sampleTransaction("tx-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	remote.FailNext(2)
	q.Drain(context.Background())

	items, err := q.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("queue length = %d, want 1", len(items))
	}
	if items[0].RetryCount != 1 {
		t.Fatalf("retry count = %d, want 1", items[0].RetryCount)
	}

	q.Drain(context.Background())
	items, _ = q.Items()
	if len(items) != 1 || items[0].RetryCount != 2 {
		t.Fatalf("after second drain: %+v", items)
	}

	q.Drain(context.Background())
	items, _ = q.Items()
	if len(items) != 0 {
		t.Fatalf("queue length after successful drain = %d, want 0", len(items))
	}

	saved, _ := remote.SelectTransactions(context.Background())
	if len(saved) != 1 || saved[0].ID != "tx-1" {
		t.Fatalf("remote transactions = %+v", saved)
	}
}

func TestDrainDropsAtRetryCeiling(t *testing.T) {
	remote := memory.New()
	q, _ := newTestQueue(t, remote, DefaultMaxRetries)

	if err := q.Enqueue(ActionInsertTransaction, sampleTransaction("tx-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	remote.SetOffline(true)
	for i := 0; i < DefaultMaxRetries; i++ {
		q.Drain(context.Background())
	}

	items, err := q.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("item should be dropped after %d attempts, queue = %+v", DefaultMaxRetries, items)
	}

	remote.SetOffline(false)
	saved, _ := remote.SelectTransactions(context.Background())
	if len(saved) != 0 {
		t.Fatalf("dropped item must never reach the remote, got %+v", saved)
	}
}

func TestPayloadSurvivesRetries(t *testing.T) {
	remote := memory.New()
	q, _ := newTestQueue(t, remote, DefaultMaxRetries)

	original := sampleTransaction("tx-keep")
	if err := q.Enqueue(ActionInsertTransaction, original); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	remote.FailNext(3)
	q.Drain(context.Background())
	q.Drain(context.Background())
	q.Drain(context.Background())

	items, _ := q.Items()
	if len(items) != 1 {
		t.Fatalf("queue length = %d, want 1", len(items))
	}

	q.Drain(context.Background())
	saved, _ := remote.SelectTransactions(context.Background())
	if len(saved) != 1 {
		t.Fatalf("remote transactions = %d, want 1", len(saved))
	}
	got := saved[0]
	if got.ID != original.ID || got.Nominal != original.Nominal || got.Liter != original.Liter ||
		got.Profit != original.Profit || got.IsSpecialRule != original.IsSpecialRule {
		t.Fatalf("payload changed across retries: got %+v, want %+v", got, original)
	}
}

func TestDrainSkipsWithoutRemote(t *testing.T) {
	q, _ := newTestQueue(t, nil, DefaultMaxRetries)
	if err := q.Enqueue(ActionInsertTransaction, sampleTransaction("tx-1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	q.Drain(context.Background())

	items, _ := q.Items()
	if len(items) != 1 {
		t.Fatalf("queue must hold items while no backend is configured, got %d", len(items))
	}
	if items[0].RetryCount != 0 {
		t.Fatalf("retry count must not advance without a backend, got %d", items[0].RetryCount)
	}
}

func TestQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queue.db")

	db, err := local.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	q := New(db, nil, offlineNetwork{}, DefaultMaxRetries, time.Minute)
	if err := q.Enqueue(ActionInsertExpense, domain.Expense{ID: "exp-1", Amount: 5000, Description: "oli"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2, err := local.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db2.Close()
	q2 := New(db2, nil, offlineNetwork{}, DefaultMaxRetries, time.Minute)

	items, err := q2.Items()
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].Action != ActionInsertExpense {
		t.Fatalf("queue after reopen = %+v", items)
	}
}
