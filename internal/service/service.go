package service

import (
	"context"
	"time"

	"bidding-management-api/internal/config"
	"bidding-management-api/internal/entity"
	"bidding-management-api/internal/repo"
	"bidding-management-api/internal/taskclient"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Diagnostics interface {
	Ping() error
}

type Bid interface {
	PlaceBid(ctx context.Context, input *entity.PlaceBidInput) (*entity.BidOutputModel, error)
	GetBidById(ctx context.Context, bidId uuid.UUID) (*entity.BidOutputModel, error)

	GetTaskBids(ctx context.Context, taskId int64, pg *entity.PaginationInput) ([]entity.BidOutputModel, error)
	GetBidderBids(ctx context.Context, bidderId int64, pg *entity.PaginationInput) ([]entity.BidOutputModel, error)
	GetBidsByStatus(ctx context.Context, status string, pg *entity.PaginationInput) ([]entity.BidOutputModel, error)
	GetBidderActiveBids(ctx context.Context, bidderId int64) ([]entity.BidOutputModel, error)
	GetBidderCompletedBids(ctx context.Context, bidderId int64) ([]entity.BidOutputModel, error)
	GetWinningBidForTask(ctx context.Context, taskId int64) (*entity.BidOutputModel, error)
	GetAcceptedBidForTask(ctx context.Context, taskId int64) (*entity.BidOutputModel, error)
	GetStatistics(ctx context.Context) (*entity.BidStatistics, error)

	AcceptBid(ctx context.Context, bidId uuid.UUID, callerId int64) (*entity.BidOutputModel, error)
	RejectBid(ctx context.Context, bidId uuid.UUID, callerId int64, reason string) (*entity.BidOutputModel, error)
	WithdrawBid(ctx context.Context, bidId uuid.UUID, callerId int64) (*entity.BidOutputModel, error)
	DeleteBid(ctx context.Context, bidId uuid.UUID, callerId int64) error

	SubmitUpiId(ctx context.Context, bidId uuid.UUID, callerId int64, upiId string) (*entity.BidOutputModel, error)
	ViewUpiId(ctx context.Context, bidId uuid.UUID) (*entity.BidOutputModel, error)
	AcceptCompletedWork(ctx context.Context, bidId uuid.UUID, callerId int64) (*entity.BidOutputModel, error)
}

type Settlement interface {
	RunAssignmentSweep(ctx context.Context) (int, error)
	RunCancellationSweep(ctx context.Context) (int, error)
	SettleTask(ctx context.Context, taskId int64) error
	CancelTask(ctx context.Context, taskId int64) error
	TasksReadyForAssignment(ctx context.Context) ([]int64, error)
	Config() SweepConfig
}

// Notifier is the best-effort notification sink; internal/alerts provides the
// asynq-backed implementation. A nil Notifier disables notifications.
type Notifier interface {
	NotifyTaskAssignedToBidder(taskId int64, bidderEmail, ownerEmail, taskTitle string, amount decimal.Decimal, completionDeadline *time.Time) error
	NotifyTaskAssignedToOwner(taskId int64, ownerEmail, bidderEmail, taskTitle string, amount decimal.Decimal, proposal string) error
	NotifyUpiSubmitted(taskId int64, ownerEmail, bidderEmail, taskTitle, upiId string) error
	NotifyWorkAccepted(taskId int64, bidderEmail, ownerEmail, taskTitle string) error
}

type Services struct {
	Diagnostics Diagnostics
	Bid         Bid
	Settlement  Settlement
}

func NewServices(repos *repo.Repositories, tasks taskclient.TaskService, notifier Notifier, cfg *config.Config) *Services {
	return &Services{
		Diagnostics: NewDiagnosticsService(repos),
		Bid:         NewBidService(repos, tasks, notifier, cfg),
		Settlement:  NewSettlementService(repos, tasks, notifier, cfg),
	}
}
