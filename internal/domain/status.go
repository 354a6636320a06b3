package domain

import "strings"

// Order statuses. Only draft orders participate in lock accounting.
const (
	OrderStatusDraft     = "draft"
	OrderStatusSubmitted = "submitted"
	OrderStatusReceived  = "received"
	OrderStatusCancelled = "cancelled"
)

var orderStatusTransitions = map[string][]string{
	OrderStatusDraft:     {OrderStatusSubmitted, OrderStatusCancelled},
	OrderStatusSubmitted: {OrderStatusReceived},
	OrderStatusReceived:  {},
	OrderStatusCancelled: {},
}

// ParseOrderStatus returns the canonical status for a label (case-insensitive).
func ParseOrderStatus(label string) (string, bool) {
	status := strings.ToLower(strings.TrimSpace(label))
	if _, ok := orderStatusTransitions[status]; !ok {
		return "", false
	}
	return status, true
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
