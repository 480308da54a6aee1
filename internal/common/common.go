package common

// Bid lifecycle statuses. Status is the single source of truth for a bid;
// the is_winning/is_accepted columns are derived bookkeeping.
const (
	Pending   = "PENDING"
	Accepted  = "ACCEPTED"
	Rejected  = "REJECTED"
	Withdrawn = "WITHDRAWN"
	Completed = "COMPLETED"
	Cancelled = "CANCELLED"
)

// Task statuses as reported by the remote task service.
const (
	TaskOpen       = "OPEN"
	TaskInProgress = "IN_PROGRESS"
	TaskCompleted  = "COMPLETED"
	TaskAccepted   = "ACCEPTED"
	TaskCancelled  = "CANCELLED"
)

// System-generated rejection reasons.
const (
	ReasonLostSettlement = "Automatic rejection: Another bid was selected as winner"
	ReasonLostManual     = "Another bid was accepted for this task"
)

var bidStatuses = map[string]struct{}{
	Pending:   {},
	Accepted:  {},
	Rejected:  {},
	Withdrawn: {},
	Completed: {},
	Cancelled: {},
}

// IsBidStatus reports whether s names a known bid status.
func IsBidStatus(s string) bool {
	_, ok := bidStatuses[s]
	return ok
}

// IsTerminalBidStatus reports whether a bid in status s can never change again.
func IsTerminalBidStatus(s string) bool {
	switch s {
	case Rejected, Withdrawn, Completed, Cancelled:
		return true
	}

	return false
}
