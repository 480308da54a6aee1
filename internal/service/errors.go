package service

import "errors"

var (
	ErrBidNotFound  = errors.New("bid not found")
	ErrTaskNotFound = errors.New("task not found")

	ErrOwnerCannotBid = errors.New("task owners cannot bid on their own tasks")
	ErrDuplicateBid   = errors.New("a bid for this task by this bidder already exists")

	ErrBiddingClosed         = errors.New("task is not open for bidding")
	ErrBiddingDeadlinePassed = errors.New("bidding period has expired")
	ErrAmountOutOfRange      = errors.New("bid amount is outside the allowed range")
	ErrInvalidUpiId          = errors.New("UPI id must be between 5 and 50 characters")
	ErrUnknownBidStatus      = errors.New("unknown bid status")

	ErrNotBidOwner  = errors.New("caller is not the bidder of this bid")
	ErrNotTaskOwner = errors.New("caller is not the owner of this task")

	ErrTaskServiceUnavailable = errors.New("task service is unavailable")

	ErrBidNotPending         = errors.New("bid is not pending")
	ErrBidNotAccepted        = errors.New("bid is not accepted")
	ErrUpiAlreadySubmitted   = errors.New("UPI id has already been submitted for this bid")
	ErrUpiNotSubmitted       = errors.New("UPI id has not been submitted for this bid")
	ErrUpiNotViewed          = errors.New("UPI id must be viewed before accepting work")
	ErrTaskDeadlineExpired   = errors.New("task completion deadline has expired")
	ErrOnlyRejectedDeletable = errors.New("only rejected bids can be deleted")
)
