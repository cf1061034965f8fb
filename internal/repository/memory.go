package repository

import (
	"context"
	"errors"
	"maps"
	"sync"

	"support-router/internal/domain"
)

// Memory is an in-process Writer with the same write semantics as Client:
// puts replace whole rows and user updates create missing rows.
// It backs the local runner and tests.
type Memory struct {
	mu          sync.Mutex
	orders      map[string]domain.Order
	orderWrites map[string]int
	users       map[string]map[string]any
	complaints  []domain.Complaint
	logs        []domain.InteractionLog
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		orders:      make(map[string]domain.Order),
		orderWrites: make(map[string]int),
		users:       make(map[string]map[string]any),
	}
}

func (m *Memory) PutOrder(_ context.Context, order domain.Order) error {
	if order.OrderID == "" {
		return errors.New("repository: PutOrder: order_id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.OrderID] = order
	m.orderWrites[order.OrderID]++
	return nil
}

func (m *Memory) PutPasswordReset(_ context.Context, reset domain.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[reset.UserID] = map[string]any{
		keyUserID:                     reset.UserID,
		"password_reset_token":        reset.Token,
		"password_reset_requested_at": reset.RequestedAt,
	}
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, userID string, assignments []domain.Assignment) error {
	if _, err := updateExpression(assignments); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.users[userID]
	if !ok {
		row = map[string]any{keyUserID: userID}
		m.users[userID] = row
	}
	for _, a := range assignments {
		row[a.Attr] = a.Value
	}
	return nil
}

func (m *Memory) PutComplaint(_ context.Context, complaint domain.Complaint) error {
	if complaint.ComplaintID == "" {
		return errors.New("repository: PutComplaint: complaint_id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complaints = append(m.complaints, complaint)
	return nil
}

func (m *Memory) PutInteractionLog(_ context.Context, entry domain.InteractionLog) error {
	if entry.LogID == "" {
		return errors.New("repository: PutInteractionLog: log_id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, entry)
	return nil
}

// Order returns the stored order row.
func (m *Memory) Order(orderID string) (domain.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	return o, ok
}

// OrderWrites reports how many times the order row has been written.
func (m *Memory) OrderWrites(orderID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderWrites[orderID]
}

// User returns a copy of the stored user row.
func (m *Memory) User(userID string) (map[string]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.users[userID]
	if !ok {
		return nil, false
	}
	return maps.Clone(row), true
}

// Complaints returns all complaint rows in write order.
func (m *Memory) Complaints() []domain.Complaint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Complaint(nil), m.complaints...)
}

// Logs returns all interaction log rows in write order.
func (m *Memory) Logs() []domain.InteractionLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.InteractionLog(nil), m.logs...)
}
