package repo

import (
	"context"
	"time"

	"bidding-management-api/internal/entity"
	"bidding-management-api/internal/repo/pgdb"
	"bidding-management-api/pkg/postgres"

	"github.com/google/uuid"
)

type Diagnostics interface {
	Ping() error
}

type Bid interface {
	CreateBid(ctx context.Context, input *entity.PlaceBidInput) (uuid.UUID, error)
	GetBidById(ctx context.Context, id uuid.UUID) (*entity.Bid, error)
	ExistsByTaskAndBidder(ctx context.Context, taskId, bidderId int64) (bool, error)
	DeleteBid(ctx context.Context, id uuid.UUID) error

	GetTaskBids(ctx context.Context, taskId int64, pg *entity.PaginationInput) ([]entity.Bid, error)
	GetPendingTaskBids(ctx context.Context, taskId int64) ([]entity.Bid, error)
	GetBidderBids(ctx context.Context, bidderId int64, pg *entity.PaginationInput) ([]entity.Bid, error)
	GetBidsByStatus(ctx context.Context, status string, pg *entity.PaginationInput) ([]entity.Bid, error)
	GetBidderBidsByStatuses(ctx context.Context, bidderId int64, statuses []string) ([]entity.Bid, error)
	GetWinningBidForTask(ctx context.Context, taskId int64) (*entity.Bid, error)
	GetAcceptedBidForTask(ctx context.Context, taskId int64) (*entity.Bid, error)
	GetStatistics(ctx context.Context) (*entity.BidStatistics, error)

	// TaskIdsWithBidsIn returns distinct task ids having at least one bid
	// whose status is in the given set. Used by the settlement sweeps.
	TaskIdsWithBidsIn(ctx context.Context, statuses []string) ([]int64, error)

	UpdateBidStatus(ctx context.Context, id uuid.UUID, status string) error
	RejectBid(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
	SetWinningFlag(ctx context.Context, id uuid.UUID, winning bool) error
	SubmitUpiId(ctx context.Context, id uuid.UUID, upiId string, at time.Time) error
	MarkUpiIdViewed(ctx context.Context, id uuid.UUID, at time.Time) error

	// SettleTask accepts winnerId and rejects every other pending bid of the
	// task in one transaction keyed by the task's pending rows, so two
	// concurrent settlements of the same task cannot both pick a winner.
	SettleTask(ctx context.Context, taskId int64, winnerId uuid.UUID, reason string, at time.Time) error

	// CancelTaskBids moves every PENDING/ACCEPTED bid of the task to CANCELLED
	// in one transaction and returns the affected bids.
	CancelTaskBids(ctx context.Context, taskId int64, at time.Time) ([]entity.Bid, error)
}

type Repositories struct {
	Diagnostics
	Bid
}

func NewRepositories(p *postgres.Postgres) *Repositories {
	return &Repositories{
		Diagnostics: pgdb.NewDiagnosticsRepo(p),
		Bid:         pgdb.NewBidRepo(p),
	}
}
