package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Task is the remote system of record's view of a task. It is never stored
// locally, only read through the task service client.
type Task struct {
	Id                 int64      `json:"id"`
	Title              string     `json:"title"`
	Status             string     `json:"status"`
	OwnerId            int64      `json:"ownerId"`
	OwnerEmail         string     `json:"ownerEmail"`
	BiddingDeadline    *time.Time `json:"biddingDeadline"`
	CompletionDeadline *time.Time `json:"completionDeadline"`
	AssignedUserId     *int64     `json:"assignedUserId"`
}

// BiddingStatus is the task service's answer to "can this task take bids".
type BiddingStatus struct {
	TaskId           int64      `json:"taskId"`
	IsOpenForBidding bool       `json:"isOpenForBidding"`
	Status           string     `json:"status"`
	BiddingDeadline  *time.Time `json:"biddingDeadline"`
}

// TaskAssignment is sent to the task service when a winner is settled.
type TaskAssignment struct {
	TaskId             int64           `json:"taskId"`
	AssignedUserId     int64           `json:"assignedUserId"`
	AssignedUserEmail  string          `json:"assignedUserEmail"`
	AssignedAt         time.Time       `json:"assignedAt"`
	AssignmentReason   string          `json:"assignmentReason"`
	WinningBidAmount   decimal.Decimal `json:"winningBidAmount"`
	WinningBidProposal string          `json:"winningBidProposal"`
}

// TaskStatusUpdate is a best-effort state/timestamp sync toward the task service.
type TaskStatusUpdate struct {
	TaskId      int64      `json:"taskId"`
	Status      string     `json:"status"`
	Message     string     `json:"message"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
