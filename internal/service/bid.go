package service

import (
	"context"
	"errors"
	"log"
	"time"

	"bidding-management-api/internal/common"
	"bidding-management-api/internal/config"
	"bidding-management-api/internal/entity"
	"bidding-management-api/internal/repo"
	"bidding-management-api/internal/repo/repo_errors"
	"bidding-management-api/internal/taskclient"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BidService struct {
	bidRepo  repo.Bid
	tasks    taskclient.TaskService
	notifier Notifier

	minBidAmount decimal.Decimal
	maxBidAmount decimal.Decimal
	notify       bool
}

func NewBidService(repos *repo.Repositories, tasks taskclient.TaskService, notifier Notifier, cfg *config.Config) *BidService {
	return &BidService{
		bidRepo:      repos.Bid,
		tasks:        tasks,
		notifier:     notifier,
		minBidAmount: cfg.MinBidAmount,
		maxBidAmount: cfg.MaxBidAmount,
		notify:       cfg.NotificationEnabled && notifier != nil,
	}
}

func (s *BidService) PlaceBid(ctx context.Context, input *entity.PlaceBidInput) (*entity.BidOutputModel, error) {
	if !s.tasks.TaskExists(ctx, input.TaskId) {
		return nil, ErrTaskNotFound
	}

	// Fail-closed: on task service outage IsOwner reports true, and the
	// placement is rejected rather than risking an owner self-bid.
	if s.tasks.IsOwner(ctx, input.TaskId, input.BidderId) {
		return nil, ErrOwnerCannotBid
	}

	bidding := s.tasks.GetBiddingStatus(ctx, input.TaskId)
	if !bidding.IsOpenForBidding {
		if bidding.BiddingDeadline != nil && time.Now().After(*bidding.BiddingDeadline) {
			return nil, ErrBiddingDeadlinePassed
		}

		return nil, ErrBiddingClosed
	}

	if input.Amount.LessThan(s.minBidAmount) || input.Amount.GreaterThan(s.maxBidAmount) {
		return nil, ErrAmountOutOfRange
	}

	exists, err := s.bidRepo.ExistsByTaskAndBidder(ctx, input.TaskId, input.BidderId)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateBid
	}

	bidId, err := s.bidRepo.CreateBid(ctx, input)
	if err != nil {
		if errors.Is(err, repo_errors.ErrAlreadyExists) {
			return nil, ErrDuplicateBid
		}

		return nil, err
	}

	if err := s.recomputeWinningBid(ctx, input.TaskId); err != nil {
		log.Printf("bid %s placed, winning flag recompute failed for task %d: %v", bidId, input.TaskId, err)
	}

	bid, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, err
	}

	return mapBid(bid), nil
}

func (s *BidService) GetBidById(ctx context.Context, bidId uuid.UUID) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidId)
	if err != nil {
		return nil, err
	}

	return mapBid(bid), nil
}

func (s *BidService) GetTaskBids(ctx context.Context, taskId int64, pg *entity.PaginationInput) ([]entity.BidOutputModel, error) {
	bids, err := s.bidRepo.GetTaskBids(ctx, taskId, pg)
	if err != nil {
		return nil, err
	}

	return mapBids(bids), nil
}

func (s *BidService) GetBidderBids(ctx context.Context, bidderId int64, pg *entity.PaginationInput) ([]entity.BidOutputModel, error) {
	bids, err := s.bidRepo.GetBidderBids(ctx, bidderId, pg)
	if err != nil {
		return nil, err
	}

	return mapBids(bids), nil
}

func (s *BidService) GetBidsByStatus(ctx context.Context, status string, pg *entity.PaginationInput) ([]entity.BidOutputModel, error) {
	if !common.IsBidStatus(status) {
		return nil, ErrUnknownBidStatus
	}

	bids, err := s.bidRepo.GetBidsByStatus(ctx, status, pg)
	if err != nil {
		return nil, err
	}

	return mapBids(bids), nil
}

func (s *BidService) GetBidderActiveBids(ctx context.Context, bidderId int64) ([]entity.BidOutputModel, error) {
	bids, err := s.bidRepo.GetBidderBidsByStatuses(ctx, bidderId, []string{common.Pending, common.Accepted})
	if err != nil {
		return nil, err
	}

	return mapBids(bids), nil
}

func (s *BidService) GetBidderCompletedBids(ctx context.Context, bidderId int64) ([]entity.BidOutputModel, error) {
	bids, err := s.bidRepo.GetBidderBidsByStatuses(ctx, bidderId, []string{common.Completed})
	if err != nil {
		return nil, err
	}

	return mapBids(bids), nil
}

func (s *BidService) GetWinningBidForTask(ctx context.Context, taskId int64) (*entity.BidOutputModel, error) {
	bid, err := s.bidRepo.GetWinningBidForTask(ctx, taskId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrBidNotFound
		}

		return nil, err
	}

	return mapBid(bid), nil
}

func (s *BidService) GetAcceptedBidForTask(ctx context.Context, taskId int64) (*entity.BidOutputModel, error) {
	bid, err := s.bidRepo.GetAcceptedBidForTask(ctx, taskId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrBidNotFound
		}

		return nil, err
	}

	return mapBid(bid), nil
}

func (s *BidService) GetStatistics(ctx context.Context) (*entity.BidStatistics, error) {
	return s.bidRepo.GetStatistics(ctx)
}

// AcceptBid is the owner's manual decision. It carries the same side effect as
// automatic settlement: every other pending bid for the task is rejected.
// The bid transition is authoritative and local; the task-side sync and the
// notifications are best-effort.
func (s *BidService) AcceptBid(ctx context.Context, bidId uuid.UUID, callerId int64) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidId)
	if err != nil {
		return nil, err
	}

	if err := s.requireTaskOwner(ctx, bid.TaskId, callerId); err != nil {
		return nil, err
	}

	if bid.Status != common.Pending {
		return nil, ErrBidNotPending
	}

	now := time.Now()
	if err := s.bidRepo.SettleTask(ctx, bid.TaskId, bid.Id, common.ReasonLostManual, now); err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) || errors.Is(err, repo_errors.ErrNoPendingBids) {
			// Lost the race against a sweep tick or another accept.
			return nil, ErrBidNotPending
		}

		return nil, err
	}

	if err := s.tasks.AcceptTask(ctx, bid.TaskId, now); err != nil {
		log.Printf("bid %s accepted, task %d acceptance sync failed: %v", bidId, bid.TaskId, err)
	}

	accepted, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, err
	}

	s.sendAssignmentNotifications(ctx, accepted)

	return mapBid(accepted), nil
}

func (s *BidService) RejectBid(ctx context.Context, bidId uuid.UUID, callerId int64, reason string) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidId)
	if err != nil {
		return nil, err
	}

	if err := s.requireTaskOwner(ctx, bid.TaskId, callerId); err != nil {
		return nil, err
	}

	if bid.Status != common.Pending {
		return nil, ErrBidNotPending
	}

	if reason == "" {
		reason = "Bid rejected by task owner"
	}

	if err := s.bidRepo.RejectBid(ctx, bidId, reason, time.Now()); err != nil {
		return nil, err
	}

	if err := s.recomputeWinningBid(ctx, bid.TaskId); err != nil {
		log.Printf("bid %s rejected, winning flag recompute failed for task %d: %v", bidId, bid.TaskId, err)
	}

	rejected, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, err
	}

	return mapBid(rejected), nil
}

func (s *BidService) WithdrawBid(ctx context.Context, bidId uuid.UUID, callerId int64) (*entity.BidOutputModel, error) {
	bid, err := s.getBid(ctx, bidId)
	if err != nil {
		return nil, err
	}

	if bid.BidderId != callerId {
		return nil, ErrNotBidOwner
	}

	if bid.Status != common.Pending {
		return nil, ErrBidNotPending
	}

	if err := s.bidRepo.UpdateBidStatus(ctx, bidId, common.Withdrawn); err != nil {
		return nil, err
	}

	if err := s.recomputeWinningBid(ctx, bid.TaskId); err != nil {
		log.Printf("bid %s withdrawn, winning flag recompute failed for task %d: %v", bidId, bid.TaskId, err)
	}

	withdrawn, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, err
	}

	return mapBid(withdrawn), nil
}

func (s *BidService) DeleteBid(ctx context.Context, bidId uuid.UUID, callerId int64) error {
	bid, err := s.getBid(ctx, bidId)
	if err != nil {
		return err
	}

	if bid.BidderId != callerId {
		return ErrNotBidOwner
	}

	if bid.Status != common.Rejected {
		return ErrOnlyRejectedDeletable
	}

	return s.bidRepo.DeleteBid(ctx, bidId)
}

func (s *BidService) getBid(ctx context.Context, bidId uuid.UUID) (*entity.Bid, error) {
	bid, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return nil, ErrBidNotFound
		}

		return nil, err
	}

	return bid, nil
}

// requireTaskOwner gates owner-only decisions. Unlike the placement guard,
// which blocks on an unverifiable check, a decision is denied outright when
// ownership cannot be confirmed with the task service.
func (s *BidService) requireTaskOwner(ctx context.Context, taskId, callerId int64) error {
	isOwner, err := s.tasks.VerifyOwner(ctx, taskId, callerId)
	if err != nil {
		log.Printf("ownership check for task %d failed: %v", taskId, err)
		return ErrTaskServiceUnavailable
	}
	if !isOwner {
		return ErrNotTaskOwner
	}

	return nil
}

// recomputeWinningBid refreshes the advisory is_winning flag across the
// task's pending bids. This is bookkeeping for display, not a commitment;
// settlement makes the authoritative decision.
func (s *BidService) recomputeWinningBid(ctx context.Context, taskId int64) error {
	pending, err := s.bidRepo.GetPendingTaskBids(ctx, taskId)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		return nil
	}

	best := SelectWinner(pending)
	for _, bid := range pending {
		if bid.IsWinning && bid.Id != best.Id {
			if err := s.bidRepo.SetWinningFlag(ctx, bid.Id, false); err != nil {
				return err
			}
		}
	}
	if !best.IsWinning {
		if err := s.bidRepo.SetWinningFlag(ctx, best.Id, true); err != nil {
			return err
		}
	}

	return nil
}

func (s *BidService) sendAssignmentNotifications(ctx context.Context, bid *entity.Bid) {
	if !s.notify {
		return
	}

	task := s.tasks.GetTask(ctx, bid.TaskId)
	if err := s.notifier.NotifyTaskAssignedToBidder(bid.TaskId, bid.BidderEmail, task.OwnerEmail,
		task.Title, bid.Amount, task.CompletionDeadline); err != nil {
		log.Printf("assignment notification to bidder %s failed: %v", bid.BidderEmail, err)
	}
	if err := s.notifier.NotifyTaskAssignedToOwner(bid.TaskId, task.OwnerEmail, bid.BidderEmail,
		task.Title, bid.Amount, bid.Proposal); err != nil {
		log.Printf("assignment notification to owner %s failed: %v", task.OwnerEmail, err)
	}
}
