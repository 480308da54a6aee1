package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"bidding-management-api/internal/common"
	"bidding-management-api/internal/config"
	"bidding-management-api/internal/entity"
	"bidding-management-api/internal/repo"
	"bidding-management-api/internal/repo/repo_errors"
	"bidding-management-api/internal/taskclient"
)

// SweepConfig is the scheduler-facing view of the settlement settings.
type SweepConfig struct {
	AutoAssignmentEnabled bool          `json:"autoAssignmentEnabled"`
	NotificationEnabled   bool          `json:"notificationEnabled"`
	AssignmentInterval    time.Duration `json:"assignmentInterval"`
	CancellationInterval  time.Duration `json:"cancellationInterval"`
}

type SettlementService struct {
	bidRepo  repo.Bid
	tasks    taskclient.TaskService
	notifier Notifier
	cfg      SweepConfig
	notify   bool
}

func NewSettlementService(repos *repo.Repositories, tasks taskclient.TaskService, notifier Notifier, cfg *config.Config) *SettlementService {
	return &SettlementService{
		bidRepo:  repos.Bid,
		tasks:    tasks,
		notifier: notifier,
		cfg: SweepConfig{
			AutoAssignmentEnabled: cfg.AutoAssignmentEnabled,
			NotificationEnabled:   cfg.NotificationEnabled,
			AssignmentInterval:    cfg.AssignmentSweepInterval,
			CancellationInterval:  cfg.CancellationSweepInterval,
		},
		notify: cfg.NotificationEnabled && notifier != nil,
	}
}

func (s *SettlementService) Config() SweepConfig {
	return s.cfg
}

// SelectWinner picks the winning bid from a non-empty slice: lowest amount
// first, then earliest placement, then smallest id. The id tiebreak makes the
// result total even for bids created in the same instant.
func SelectWinner(bids []entity.Bid) *entity.Bid {
	sorted := make([]entity.Bid, len(bids))
	copy(sorted, bids)

	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := sorted[i].Amount.Cmp(sorted[j].Amount)
		if cmp != 0 {
			return cmp < 0
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}

		return sorted[i].Id.String() < sorted[j].Id.String()
	})

	return &sorted[0]
}

// SettleTask resolves one task: picks the winner among its pending bids,
// accepts it and rejects the rest atomically, then syncs the assignment to the
// task service and fires notifications. Safe to call concurrently with a
// manual accept; the loser of that race observes no pending bids and returns
// nil.
func (s *SettlementService) SettleTask(ctx context.Context, taskId int64) error {
	pending, err := s.bidRepo.GetPendingTaskBids(ctx, taskId)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	winner := SelectWinner(pending)
	now := time.Now()

	err = s.bidRepo.SettleTask(ctx, taskId, winner.Id, common.ReasonLostSettlement, now)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNoPendingBids) || errors.Is(err, repo_errors.ErrNotFound) {
			// Another settle or a manual accept got there first.
			return nil
		}

		return err
	}

	if err := s.tasks.AssignTask(ctx, &entity.TaskAssignment{
		TaskId:             taskId,
		AssignedUserId:     winner.BidderId,
		AssignedUserEmail:  winner.BidderEmail,
		AssignedAt:         now,
		AssignmentReason:   "Lowest bid selected at bidding deadline",
		WinningBidAmount:   winner.Amount,
		WinningBidProposal: winner.Proposal,
	}); err != nil {
		log.Printf("task %d settled to bid %s, assignment sync failed: %v", taskId, winner.Id, err)
	}

	if s.notify {
		task := s.tasks.GetTask(ctx, taskId)
		if err := s.notifier.NotifyTaskAssignedToBidder(taskId, winner.BidderEmail, task.OwnerEmail,
			task.Title, winner.Amount, task.CompletionDeadline); err != nil {
			log.Printf("settlement notification to bidder %s failed: %v", winner.BidderEmail, err)
		}
		if err := s.notifier.NotifyTaskAssignedToOwner(taskId, task.OwnerEmail, winner.BidderEmail,
			task.Title, winner.Amount, winner.Proposal); err != nil {
			log.Printf("settlement notification to owner %s failed: %v", task.OwnerEmail, err)
		}
	}

	log.Printf("task %d settled: bid %s by %d won at %s among %d bids",
		taskId, winner.Id, winner.BidderId, winner.Amount.StringFixed(2), len(pending))

	return nil
}

// CancelTask voids every pending and accepted bid for a task whose completion
// deadline passed without the work being accepted.
func (s *SettlementService) CancelTask(ctx context.Context, taskId int64) error {
	cancelled, err := s.bidRepo.CancelTaskBids(ctx, taskId, time.Now())
	if err != nil {
		return err
	}
	if len(cancelled) == 0 {
		return nil
	}

	if err := s.tasks.UpdateTaskStatus(ctx, taskId, common.TaskCancelled,
		"Completion deadline passed without accepted work"); err != nil {
		log.Printf("task %d cancelled locally, status sync failed: %v", taskId, err)
	}

	log.Printf("task %d cancelled: %d bids voided", taskId, len(cancelled))

	return nil
}

// TasksReadyForAssignment lists tasks with pending bids whose bidding deadline
// has passed. A task whose deadline the task service cannot report is not
// ready; the fallback keeps bidding open rather than settling blind.
func (s *SettlementService) TasksReadyForAssignment(ctx context.Context) ([]int64, error) {
	taskIds, err := s.bidRepo.TaskIdsWithBidsIn(ctx, []string{common.Pending})
	if err != nil {
		return nil, err
	}

	ready := make([]int64, 0)
	for _, taskId := range taskIds {
		if s.biddingDeadlinePassed(ctx, taskId) {
			ready = append(ready, taskId)
		}
	}

	return ready, nil
}

// RunAssignmentSweep settles every task that is ready. Failures are isolated
// per task so one bad task cannot stall the sweep. Returns the number of
// tasks settled.
func (s *SettlementService) RunAssignmentSweep(ctx context.Context) (int, error) {
	ready, err := s.TasksReadyForAssignment(ctx)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, taskId := range ready {
		if err := s.SettleTask(ctx, taskId); err != nil {
			log.Printf("assignment sweep: settling task %d failed: %v", taskId, err)
			continue
		}
		settled++
	}

	return settled, nil
}

// RunCancellationSweep cancels tasks whose completion deadline passed while
// bids were still live. Returns the number of tasks cancelled.
func (s *SettlementService) RunCancellationSweep(ctx context.Context) (int, error) {
	taskIds, err := s.bidRepo.TaskIdsWithBidsIn(ctx, []string{common.Pending, common.Accepted})
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, taskId := range taskIds {
		task := s.tasks.GetTask(ctx, taskId)
		if task.CompletionDeadline == nil || time.Now().Before(*task.CompletionDeadline) {
			continue
		}

		if err := s.CancelTask(ctx, taskId); err != nil {
			log.Printf("cancellation sweep: cancelling task %d failed: %v", taskId, err)
			continue
		}
		cancelled++
	}

	return cancelled, nil
}

func (s *SettlementService) biddingDeadlinePassed(ctx context.Context, taskId int64) bool {
	status := s.tasks.GetBiddingStatus(ctx, taskId)
	if status.BiddingDeadline == nil {
		return false
	}

	return time.Now().After(*status.BiddingDeadline)
}
