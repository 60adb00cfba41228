package services

import (
	"context"
	"sync"
	"time"

	"github.com/acecasino/settlement_api/internal/domain/entities"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type fakeExecutor struct {
	mu      sync.Mutex
	outcome entities.SettlementOutcome
	calls   []*entities.TransferBatch
	routes  []entities.Route
}

func (e *fakeExecutor) Execute(_ context.Context, route entities.Route, batch *entities.TransferBatch) entities.SettlementOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, batch)
	e.routes = append(e.routes, route)
	return e.outcome
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) Notify(msg string) error {
	n.messages = append(n.messages, msg)
	return n.err
}

type memoryHistoryRepo struct {
	mu        sync.Mutex
	rows      map[int64]entities.SettlementHistory
	nextID    int64
	createErr error
	updateErr error
}

func newMemoryHistoryRepo() *memoryHistoryRepo {
	return &memoryHistoryRepo{rows: make(map[int64]entities.SettlementHistory)}
}

func (r *memoryHistoryRepo) Create(_ context.Context, h *entities.SettlementHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	h.ID = r.nextID
	h.Created = time.Now()
	h.Updated = h.Created
	r.rows[h.ID] = *h
	return nil
}

func (r *memoryHistoryRepo) GetByID(_ context.Context, id int64) (*entities.SettlementHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (r *memoryHistoryRepo) GetByTxHash(_ context.Context, txHash string) (*entities.SettlementHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.rows {
		if h.TxHash == txHash {
			h := h
			return &h, nil
		}
	}
	return nil, nil
}

func (r *memoryHistoryRepo) List(_ context.Context, route string, limit, offset int) ([]entities.SettlementHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.SettlementHistory
	for id := r.nextID; id > 0; id-- {
		h, ok := r.rows[id]
		if !ok || (route != "" && h.Route != route) {
			continue
		}
		out = append(out, h)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryHistoryRepo) GetByStatus(_ context.Context, status entities.SettlementStatus, olderThan time.Time, limit int) ([]entities.SettlementHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.SettlementHistory
	for id := int64(1); id <= r.nextID; id++ {
		h, ok := r.rows[id]
		if !ok || h.Status != status || !h.Updated.Before(olderThan) {
			continue
		}
		out = append(out, h)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryHistoryRepo) Update(_ context.Context, h *entities.SettlementHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	h.Updated = time.Now()
	r.rows[h.ID] = *h
	return nil
}

func (r *memoryHistoryRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *memoryHistoryRepo) get(id int64) entities.SettlementHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

// seed stores a row as is, keeping the given Updated time
func (r *memoryHistoryRepo) seed(h entities.SettlementHistory) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	h.ID = r.nextID
	r.rows[h.ID] = h
	return h.ID
}

type memoryErrorLogs struct {
	entries []entities.ErrorLogs
}

func (m *memoryErrorLogs) GetAll(_ context.Context) ([]entities.ErrorLogs, error) {
	return m.entries, nil
}

func (m *memoryErrorLogs) Create(_ context.Context, e *entities.ErrorLogs) error {
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memoryErrorLogs) SendErrMsg(ctx context.Context, code, route string, err error) error {
	return m.Create(ctx, &entities.ErrorLogs{Code: code, Route: route, Msg: err.Error()})
}

type fakeReceipts struct {
	receipts map[common.Hash]*types.Receipt
	err      error
}

func (f *fakeReceipts) LookupReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.receipts[txHash], nil
}
