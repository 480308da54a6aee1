package service

import (
	"context"
	"log"
	"strings"
	"time"

	"bidding-management-api/internal/common"
	"bidding-management-api/internal/entity"

	"github.com/google/uuid"
)

const (
	minUpiIdLength = 5
	maxUpiIdLength = 50
)

// SubmitUpiId records the winning bidder's payment handle. Allowed only on an
// accepted bid, once, and only while the task's completion deadline has not
// passed.
func (s *BidService) SubmitUpiId(ctx context.Context, bidId uuid.UUID, callerId int64, upiId string) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidId)
	if err != nil {
		return nil, err
	}

	if bid.BidderId != callerId {
		return nil, ErrNotBidOwner
	}

	if bid.Status != common.Accepted {
		return nil, ErrBidNotAccepted
	}

	if bid.HasUpiId() {
		return nil, ErrUpiAlreadySubmitted
	}

	upiId = strings.TrimSpace(upiId)
	if len(upiId) < minUpiIdLength || len(upiId) > maxUpiIdLength {
		return nil, ErrInvalidUpiId
	}

	if s.completionDeadlineExpired(ctx, bid.TaskId) {
		return nil, ErrTaskDeadlineExpired
	}

	if err := s.bidRepo.SubmitUpiId(ctx, bidId, upiId, time.Now()); err != nil {
		return nil, err
	}

	updated, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, err
	}

	if s.notify {
		task := s.tasks.GetTask(ctx, bid.TaskId)
		if err := s.notifier.NotifyUpiSubmitted(bid.TaskId, task.OwnerEmail, bid.BidderEmail, task.Title, upiId); err != nil {
			log.Printf("UPI submission notification for bid %s failed: %v", bidId, err)
		}
	}

	return mapBid(updated), nil
}

// ViewUpiId reveals the submitted payment handle and records the first view.
// Viewing again is a read, not a second transition: the original viewed
// timestamp stands.
func (s *BidService) ViewUpiId(ctx context.Context, bidId uuid.UUID) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidId)
	if err != nil {
		return nil, err
	}

	if bid.Status != common.Accepted {
		return nil, ErrBidNotAccepted
	}

	if !bid.HasUpiId() {
		return nil, ErrUpiNotSubmitted
	}

	if s.completionDeadlineExpired(ctx, bid.TaskId) {
		return nil, ErrTaskDeadlineExpired
	}

	if !bid.UpiIdViewed {
		if err := s.bidRepo.MarkUpiIdViewed(ctx, bidId, time.Now()); err != nil {
			return nil, err
		}

		bid, err = s.getBid(ctx, bidId)
		if err != nil {
			return nil, err
		}
	}

	return mapBidRevealed(bid), nil
}

// AcceptCompletedWork is the owner's final sign-off. It requires the payment
// handle to have been both submitted and viewed, so the owner cannot close out
// the task without having seen where to pay.
func (s *BidService) AcceptCompletedWork(ctx context.Context, bidId uuid.UUID, callerId int64) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidId)
	if err != nil {
		return nil, err
	}

	if err := s.requireTaskOwner(ctx, bid.TaskId, callerId); err != nil {
		return nil, err
	}

	if bid.Status != common.Accepted {
		return nil, ErrBidNotAccepted
	}

	if !bid.HasUpiId() {
		return nil, ErrUpiNotSubmitted
	}

	if !bid.UpiIdViewed {
		return nil, ErrUpiNotViewed
	}

	if s.completionDeadlineExpired(ctx, bid.TaskId) {
		return nil, ErrTaskDeadlineExpired
	}

	now := time.Now()
	if err := s.bidRepo.UpdateBidStatus(ctx, bidId, common.Completed); err != nil {
		return nil, err
	}

	if err := s.tasks.CompleteTask(ctx, bid.TaskId, now); err != nil {
		log.Printf("work accepted on bid %s, task %d completion sync failed: %v", bidId, bid.TaskId, err)
	}

	completed, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, err
	}

	if s.notify {
		task := s.tasks.GetTask(ctx, bid.TaskId)
		if err := s.notifier.NotifyWorkAccepted(bid.TaskId, bid.BidderEmail, task.OwnerEmail, task.Title); err != nil {
			log.Printf("work accepted notification for bid %s failed: %v", bidId, err)
		}
	}

	return mapBid(completed), nil
}

// completionDeadlineExpired consults the task service; an unknown deadline
// (including the synthetic far-future fallback on outage) counts as not
// expired, so the payment flow is never blocked by a task service hiccup.
func (s *BidService) completionDeadlineExpired(ctx context.Context, taskId int64) bool {
	task := s.tasks.GetTask(ctx, taskId)
	if task.CompletionDeadline == nil {
		return false
	}

	return time.Now().After(*task.CompletionDeadline)
}
