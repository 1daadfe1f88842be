package domain

// WorkOrderStatus is the lifecycle state of a scheduled visit.
type WorkOrderStatus string

const (
	StatusPending    WorkOrderStatus = "PENDING"
	StatusCommitted  WorkOrderStatus = "COMMITTED"
	StatusInProgress WorkOrderStatus = "IN_PROGRESS"
	StatusCompleted  WorkOrderStatus = "COMPLETED"
	StatusPartial    WorkOrderStatus = "PARTIAL"
	StatusCancelled  WorkOrderStatus = "CANCELLED"
	StatusFailed     WorkOrderStatus = "FAILED"
)

// allowedTransitions is the closed transition table. Terminal states have no
// entry. The PENDING -> IN_PROGRESS edge is deliberately absent: it is
// reserved for StartVisit, which also stamps the visit timestamp.
var allowedTransitions = map[WorkOrderStatus][]WorkOrderStatus{
	StatusPending:    {StatusCommitted, StatusCancelled},
	StatusCommitted:  {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusPartial, StatusFailed},
}

// CanTransition reports whether the transition table permits moving from one
// status to another.
func CanTransition(from, to WorkOrderStatus) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s WorkOrderStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s WorkOrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCommitted, StatusInProgress,
		StatusCompleted, StatusPartial, StatusCancelled, StatusFailed:
		return true
	}
	return false
}
