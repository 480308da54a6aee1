package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// db model
type Bid struct {
	Id               uuid.UUID       `json:"id" db:"id"`
	TaskId           int64           `json:"taskId" db:"task_id"`
	BidderId         int64           `json:"bidderId" db:"bidder_id"`
	BidderEmail      string          `json:"bidderEmail" db:"bidder_email"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	Proposal         string          `json:"proposal" db:"proposal"`
	Status           string          `json:"status" db:"status"`
	IsWinning        bool            `json:"isWinning" db:"is_winning"`
	IsAccepted       bool            `json:"isAccepted" db:"is_accepted"`
	AcceptedAt       *time.Time      `json:"acceptedAt" db:"accepted_at"`
	RejectedAt       *time.Time      `json:"rejectedAt" db:"rejected_at"`
	RejectionReason  string          `json:"rejectionReason" db:"rejection_reason"`
	UpiId            *string         `json:"upiId" db:"upi_id"`
	UpiIdSubmittedAt *time.Time      `json:"upiIdSubmittedAt" db:"upi_id_submitted_at"`
	UpiIdViewed      bool            `json:"upiIdViewed" db:"upi_id_viewed"`
	UpiIdViewedAt    *time.Time      `json:"upiIdViewedAt" db:"upi_id_viewed_at"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// HasUpiId reports whether a payment handle was submitted for this bid.
func (b *Bid) HasUpiId() bool {
	return b.UpiId != nil && *b.UpiId != ""
}

// service + repo input model
type PlaceBidInput struct {
	TaskId      int64
	BidderId    int64
	BidderEmail string
	Amount      decimal.Decimal
	Proposal    string
	// Status should be set: PENDING
	// Id and CreatedAt set automatically
}

// controller model
type BidOutputModel struct {
	Id              string     `json:"id"`
	TaskId          int64      `json:"taskId"`
	BidderId        int64      `json:"bidderId"`
	BidderEmail     string     `json:"bidderEmail"`
	Amount          string     `json:"amount"`
	Proposal        string     `json:"proposal"`
	Status          string     `json:"status"`
	IsWinning       bool       `json:"isWinning"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	AcceptedAt      *time.Time `json:"acceptedAt,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	UpiId           string     `json:"upiId,omitempty"`
	UpiIdViewed     bool       `json:"upiIdViewed"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// BidStatistics is an aggregate count view over all stored bids.
type BidStatistics struct {
	TotalBids     int64 `json:"totalBids"`
	PendingBids   int64 `json:"pendingBids"`
	AcceptedBids  int64 `json:"acceptedBids"`
	RejectedBids  int64 `json:"rejectedBids"`
	WithdrawnBids int64 `json:"withdrawnBids"`
	CompletedBids int64 `json:"completedBids"`
	CancelledBids int64 `json:"cancelledBids"`
	WinningBids   int64 `json:"winningBids"`
}
