// Package syncq is the durable offline write queue. Remote writes that
// failed are recorded here by the facade and replayed in insertion order
// whenever connectivity allows. Replay is at-least-once: an item is
// removed on success or after the retry ceiling, never before.
package syncq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"efuelpos/backend/internal/domain"
	"efuelpos/backend/internal/store"
	"efuelpos/backend/internal/store/local"
	"efuelpos/backend/internal/uid"
)

// Action tags a pending remote operation for replay dispatch.
type Action string

const (
	ActionInsertTransaction Action = "INSERT_TRANSACTION"
	ActionDeleteTransaction Action = "DELETE_TRANSACTION"
	ActionInsertInventory   Action = "INSERT_INVENTORY"
	ActionDeleteStock       Action = "DELETE_STOCK"
	ActionInsertExpense     Action = "INSERT_EXPENSE"
	ActionDeleteExpense     Action = "DELETE_EXPENSE"
	ActionUpdateSettings    Action = "UPDATE_SETTINGS"
	ActionInsertEmployee    Action = "INSERT_EMPLOYEE"
	ActionUpdateEmployee    Action = "UPDATE_EMPLOYEE"
	ActionDeleteEmployee    Action = "DELETE_EMPLOYEE"
	ActionInsertAttendance  Action = "INSERT_ATTENDANCE"
	ActionUpdateAttendance  Action = "UPDATE_ATTENDANCE"
	ActionInsertDebt        Action = "INSERT_DEBT"
	ActionUpdateDebt        Action = "UPDATE_DEBT"
	ActionInsertShift       Action = "INSERT_SHIFT"
	ActionUpdateShift       Action = "UPDATE_SHIFT"
	ActionInsertRequest     Action = "INSERT_REQUEST"
	ActionUpdateRequest     Action = "UPDATE_REQUEST"
	ActionInsertAudit       Action = "INSERT_AUDIT"
	ActionInsertPayroll     Action = "INSERT_PAYROLL"
	ActionInsertUser        Action = "INSERT_USER"
	ActionUpdateUser        Action = "UPDATE_USER"
)

// Item is one pending remote operation. Payload is the JSON encoding of
// the typed payload for the action; decoding happens at dispatch.
type Item struct {
	ID         string          `json:"id"`
	Action     Action          `json:"action"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"timestamp"`
	RetryCount int             `json:"retry_count"`
}

// VoidPayload compensates a sale or restock: the target row is verified
// and the adjustment inserted in the same server-side transaction.
type VoidPayload struct {
	ID         string              `json:"id"`
	Adjustment domain.InventoryLog `json:"adjustment"`
}

type DeletePayload struct {
	ID string `json:"id"`
}

type UpdateEmployeePayload struct {
	ID      string                `json:"id"`
	Updates domain.EmployeeUpdate `json:"updates"`
}

type UpdateAttendancePayload struct {
	ID      string                  `json:"id"`
	Updates domain.AttendanceUpdate `json:"updates"`
}

type UpdateDebtPayload struct {
	ID      string            `json:"id"`
	Updates domain.DebtUpdate `json:"updates"`
}

type UpdateShiftPayload struct {
	ID      string             `json:"id"`
	Updates domain.ShiftUpdate `json:"updates"`
}

type UpdateRequestPayload struct {
	ID      string                   `json:"id"`
	Updates domain.VoidRequestUpdate `json:"updates"`
}

type UpdateUserPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NetworkStatus reports device connectivity. It only decides when a
// drain is attempted; it never blocks an operation.
type NetworkStatus interface {
	Online() bool
	// Changes emits true/false on connectivity transitions. A nil
	// channel is allowed and simply never fires.
	Changes() <-chan bool
}

// AlwaysOnline is the status source for deployments without a network
// probe: every enqueue immediately attempts a drain.
type AlwaysOnline struct{}

func (AlwaysOnline) Online() bool         { return true }
func (AlwaysOnline) Changes() <-chan bool { return nil }

const DefaultMaxRetries = 5

// Queue drains pending items against the remote backend. At most one
// drain pass runs at a time; items are replayed strictly in list order.
type Queue struct {
	local      *local.Store
	remote     store.Remote
	network    NetworkStatus
	maxRetries int
	interval   time.Duration

	drainMu sync.Mutex
}

func New(localStore *local.Store, remote store.Remote, network NetworkStatus, maxRetries int, interval time.Duration) *Queue {
	if network == nil {
		network = AlwaysOnline{}
	}
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Queue{
		local:      localStore,
		remote:     remote,
		network:    network,
		maxRetries: maxRetries,
		interval:   interval,
	}
}

// Items returns a snapshot of the pending queue.
func (q *Queue) Items() ([]Item, error) {
	items := []Item{}
	if err := q.local.Read(local.KeySyncQueue, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Enqueue durably appends a pending operation and, when the device is
// online, kicks off a drain without blocking the caller.
func (q *Queue) Enqueue(action Action, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", action, err)
	}
	item := Item{
		ID:         uid.New(),
		Action:     action,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
		RetryCount: 0,
	}

	items := []Item{}
	err = q.local.Mutate(local.KeySyncQueue, &items, func() error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[sync] queued %s (queue length %d)", action, len(items))

	if q.network.Online() {
		go q.Drain(context.Background())
	}
	return nil
}

// Drain replays every currently queued item in insertion order. Each
// item is removed on success, retried on failure and dropped once its
// retry count reaches the ceiling. Overlapping calls return immediately;
// sequential processing is the only ordering guarantee offered.
func (q *Queue) Drain(ctx context.Context) {
	if !q.drainMu.TryLock() {
		return
	}
	defer q.drainMu.Unlock()

	if q.remote == nil {
		return
	}

	snapshot, err := q.Items()
	if err != nil {
		log.Printf("[sync] read queue: %v", err)
		return
	}
	if len(snapshot) == 0 {
		return
	}
	log.Printf("[sync] draining %d item(s)", len(snapshot))

	for _, item := range snapshot {
		if ctx.Err() != nil {
			return
		}
		if err := q.dispatch(ctx, item); err != nil {
			retries := item.RetryCount + 1
			if retries >= q.maxRetries {
				// Accepted data-loss mode: the operation is gone
				// from the remote backend for good. Logged only.
				log.Printf("[sync] item %s (%s) failed %d times, dropping: %v", item.ID, item.Action, retries, err)
				q.remove(item.ID)
			} else {
				log.Printf("[sync] item %s (%s) failed (attempt %d): %v", item.ID, item.Action, retries, err)
				q.setRetryCount(item.ID, retries)
			}
			continue
		}
		q.remove(item.ID)
	}
}

// Run owns the periodic and on-reconnect triggers until ctx is
// cancelled. Meant to be started once from main.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	changes := q.network.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if online {
				log.Printf("[sync] connectivity restored, draining")
				q.Drain(ctx)
			}
		case <-ticker.C:
			if q.network.Online() {
				q.Drain(ctx)
			}
		}
	}
}

func (q *Queue) remove(id string) {
	items := []Item{}
	err := q.local.Mutate(local.KeySyncQueue, &items, func() error {
		kept := items[:0]
		for _, item := range items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		items = kept
		return nil
	})
	if err != nil {
		log.Printf("[sync] remove item %s: %v", id, err)
	}
}

func (q *Queue) setRetryCount(id string, retries int) {
	items := []Item{}
	err := q.local.Mutate(local.KeySyncQueue, &items, func() error {
		for i := range items {
			if items[i].ID == id {
				items[i].RetryCount = retries
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[sync] update retry count for %s: %v", id, err)
	}
}

// dispatch decodes the item payload for its action tag and invokes the
// matching remote operation. The switch is exhaustive over Action.
func (q *Queue) dispatch(ctx context.Context, item Item) error {
	switch item.Action {
	case ActionInsertTransaction:
		var tx domain.TransactionRecord
		if err := json.Unmarshal(item.Payload, &tx); err != nil {
			return err
		}
		_, err := q.remote.InsertTransaction(ctx, tx)
		return err
	case ActionDeleteTransaction:
		var p VoidPayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.VoidTransaction(ctx, p.ID, p.Adjustment)
	case ActionInsertInventory:
		var logEntry domain.InventoryLog
		if err := json.Unmarshal(item.Payload, &logEntry); err != nil {
			return err
		}
		_, err := q.remote.InsertInventoryLog(ctx, logEntry)
		return err
	case ActionDeleteStock:
		var p VoidPayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.VoidInventoryLog(ctx, p.ID, p.Adjustment)
	case ActionInsertExpense:
		var expense domain.Expense
		if err := json.Unmarshal(item.Payload, &expense); err != nil {
			return err
		}
		_, err := q.remote.InsertExpense(ctx, expense)
		return err
	case ActionDeleteExpense:
		var p DeletePayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.DeleteExpense(ctx, p.ID)
	case ActionUpdateSettings:
		var settings domain.StoreSettings
		if err := json.Unmarshal(item.Payload, &settings); err != nil {
			return err
		}
		return q.remote.UpsertSettings(ctx, settings)
	case ActionInsertEmployee:
		var employee domain.Employee
		if err := json.Unmarshal(item.Payload, &employee); err != nil {
			return err
		}
		_, err := q.remote.InsertEmployee(ctx, employee)
		return err
	case ActionUpdateEmployee:
		var p UpdateEmployeePayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.UpdateEmployee(ctx, p.ID, p.Updates)
	case ActionDeleteEmployee:
		var p DeletePayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.DeleteEmployee(ctx, p.ID)
	case ActionInsertAttendance:
		var logEntry domain.AttendanceLog
		if err := json.Unmarshal(item.Payload, &logEntry); err != nil {
			return err
		}
		_, err := q.remote.InsertAttendance(ctx, logEntry)
		return err
	case ActionUpdateAttendance:
		var p UpdateAttendancePayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.UpdateAttendance(ctx, p.ID, p.Updates)
	case ActionInsertDebt:
		var debt domain.Debt
		if err := json.Unmarshal(item.Payload, &debt); err != nil {
			return err
		}
		_, err := q.remote.InsertDebt(ctx, debt)
		return err
	case ActionUpdateDebt:
		var p UpdateDebtPayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.UpdateDebt(ctx, p.ID, p.Updates)
	case ActionInsertShift:
		var shift domain.Shift
		if err := json.Unmarshal(item.Payload, &shift); err != nil {
			return err
		}
		_, err := q.remote.InsertShift(ctx, shift)
		return err
	case ActionUpdateShift:
		var p UpdateShiftPayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.UpdateShift(ctx, p.ID, p.Updates)
	case ActionInsertRequest:
		var req domain.VoidRequest
		if err := json.Unmarshal(item.Payload, &req); err != nil {
			return err
		}
		_, err := q.remote.InsertVoidRequest(ctx, req)
		return err
	case ActionUpdateRequest:
		var p UpdateRequestPayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.UpdateVoidRequest(ctx, p.ID, p.Updates)
	case ActionInsertAudit:
		var entry domain.AuditLog
		if err := json.Unmarshal(item.Payload, &entry); err != nil {
			return err
		}
		return q.remote.InsertAuditLog(ctx, entry)
	case ActionInsertPayroll:
		var slip domain.PayrollSlip
		if err := json.Unmarshal(item.Payload, &slip); err != nil {
			return err
		}
		_, err := q.remote.InsertPayrollSlip(ctx, slip)
		return err
	case ActionInsertUser:
		var user domain.UserAccount
		if err := json.Unmarshal(item.Payload, &user); err != nil {
			return err
		}
		return q.remote.CreateUser(ctx, user)
	case ActionUpdateUser:
		var p UpdateUserPayload
		if err := json.Unmarshal(item.Payload, &p); err != nil {
			return err
		}
		return q.remote.UpdateUserPassword(ctx, p.Username, p.Password)
	default:
		return fmt.Errorf("unknown sync action %q", item.Action)
	}
}
