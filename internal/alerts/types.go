package alerts

import (
	"time"
)

// Task type constants
const (
	TaskAssignedBidderEmail = "email:task_assigned_bidder"
	TaskAssignedOwnerEmail  = "email:task_assigned_owner"
	UpiSubmittedEmail       = "email:upi_submitted"
	WorkAcceptedEmail       = "email:work_accepted"
)

const emailQueue = "emails"

// Common envelope for email notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Assignment notification sent to the winning bidder
type TaskAssignedBidderPayload struct {
	TaskId             int64         `json:"task_id"`
	BidderEmail        string        `json:"bidder_email"`
	OwnerEmail         string        `json:"owner_email"`
	TaskTitle          string        `json:"task_title"`
	Amount             string        `json:"amount"`
	CompletionDeadline *time.Time    `json:"completion_deadline"`
	Envelope           EmailEnvelope `json:"envelope"`
	SentAt             time.Time     `json:"sent_at"`
}

// Assignment notification sent to the task owner
type TaskAssignedOwnerPayload struct {
	TaskId      int64         `json:"task_id"`
	OwnerEmail  string        `json:"owner_email"`
	BidderEmail string        `json:"bidder_email"`
	TaskTitle   string        `json:"task_title"`
	Amount      string        `json:"amount"`
	Proposal    string        `json:"proposal"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// UPI submission notification sent to the task owner
type UpiSubmittedPayload struct {
	TaskId      int64         `json:"task_id"`
	OwnerEmail  string        `json:"owner_email"`
	BidderEmail string        `json:"bidder_email"`
	TaskTitle   string        `json:"task_title"`
	UpiId       string        `json:"upi_id"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Work acceptance notification sent to the bidder
type WorkAcceptedPayload struct {
	TaskId      int64         `json:"task_id"`
	BidderEmail string        `json:"bidder_email"`
	OwnerEmail  string        `json:"owner_email"`
	TaskTitle   string        `json:"task_title"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}
