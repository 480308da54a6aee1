package pgdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bidding-management-api/internal/common"
	"bidding-management-api/internal/entity"
	"bidding-management-api/internal/repo/repo_errors"
	"bidding-management-api/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const bidColumns = "id, task_id, bidder_id, bidder_email, amount, proposal, status, " +
	"is_winning, is_accepted, accepted_at, rejected_at, rejection_reason, " +
	"upi_id, upi_id_submitted_at, upi_id_viewed, upi_id_viewed_at, created_at, updated_at"

type BidRepo struct {
	*postgres.Postgres
}

func NewBidRepo(pgdb *postgres.Postgres) *BidRepo {
	return &BidRepo{pgdb}
}

func scanBid(row squirrel.RowScanner) (*entity.Bid, error) {
	var bid entity.Bid
	var upiId sql.NullString
	var rejectionReason sql.NullString

	err := row.Scan(&bid.Id, &bid.TaskId, &bid.BidderId, &bid.BidderEmail, &bid.Amount,
		&bid.Proposal, &bid.Status, &bid.IsWinning, &bid.IsAccepted, &bid.AcceptedAt,
		&bid.RejectedAt, &rejectionReason, &upiId, &bid.UpiIdSubmittedAt,
		&bid.UpiIdViewed, &bid.UpiIdViewedAt, &bid.CreatedAt, &bid.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo_errors.ErrNotFound
		}

		return nil, err
	}

	if rejectionReason.Valid {
		bid.RejectionReason = rejectionReason.String
	}
	if upiId.Valid {
		bid.UpiId = &upiId.String
	}

	return &bid, nil
}

func (r *BidRepo) CreateBid(ctx context.Context, input *entity.PlaceBidInput) (uuid.UUID, error) {
	createBidReq, args, _ := r.SqlBuilder.
		Insert("bids").
		Columns("task_id", "bidder_id", "bidder_email", "amount", "proposal", "status", "is_winning", "is_accepted").
		Values(input.TaskId, input.BidderId, input.BidderEmail, input.Amount, input.Proposal, common.Pending, false, false).
		Suffix("RETURNING id").
		ToSql()

	var bidId uuid.UUID
	err := r.Database.QueryRowContext(ctx, createBidReq, args...).Scan(&bidId)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return uuid.Nil, repo_errors.ErrAlreadyExists
		}

		return uuid.Nil, err
	}

	return bidId, nil
}

func (r *BidRepo) GetBidById(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	getBidReq, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("id = ?", id).
		ToSql()

	return scanBid(r.Database.QueryRowContext(ctx, getBidReq, args...))
}

func (r *BidRepo) ExistsByTaskAndBidder(ctx context.Context, taskId, bidderId int64) (bool, error) {
	existsReq, args, _ := r.SqlBuilder.
		Select("1").
		From("bids").
		Where("task_id = ? AND bidder_id = ?", taskId, bidderId).
		Limit(1).
		ToSql()

	var one int
	err := r.Database.QueryRowContext(ctx, existsReq, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (r *BidRepo) DeleteBid(ctx context.Context, id uuid.UUID) error {
	deleteReq, args, _ := r.SqlBuilder.
		Delete("bids").
		Where("id = ?", id).
		ToSql()

	result, err := r.Database.ExecContext(ctx, deleteReq, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repo_errors.ErrNotFound
	}

	return nil
}

func (r *BidRepo) queryBids(ctx context.Context, query string, args []interface{}) ([]entity.Bid, error) {
	rows, err := r.Database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := make([]entity.Bid, 0)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}

		bids = append(bids, *bid)
	}

	return bids, rows.Err()
}

func (r *BidRepo) GetTaskBids(ctx context.Context, taskId int64, pg *entity.PaginationInput) ([]entity.Bid, error) {
	query, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("task_id = ?", taskId).
		OrderBy("amount ASC", "created_at ASC").
		Limit(uint64(pg.Limit)).
		Offset(uint64(pg.Offset)).
		ToSql()

	return r.queryBids(ctx, query, args)
}

func (r *BidRepo) GetPendingTaskBids(ctx context.Context, taskId int64) ([]entity.Bid, error) {
	query, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("task_id = ? AND status = ?", taskId, common.Pending).
		OrderBy("amount ASC", "created_at ASC", "id ASC").
		ToSql()

	return r.queryBids(ctx, query, args)
}

func (r *BidRepo) GetBidderBids(ctx context.Context, bidderId int64, pg *entity.PaginationInput) ([]entity.Bid, error) {
	query, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("bidder_id = ?", bidderId).
		OrderBy("created_at DESC").
		Limit(uint64(pg.Limit)).
		Offset(uint64(pg.Offset)).
		ToSql()

	return r.queryBids(ctx, query, args)
}

func (r *BidRepo) GetBidsByStatus(ctx context.Context, status string, pg *entity.PaginationInput) ([]entity.Bid, error) {
	query, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("status = ?", status).
		OrderBy("created_at DESC").
		Limit(uint64(pg.Limit)).
		Offset(uint64(pg.Offset)).
		ToSql()

	return r.queryBids(ctx, query, args)
}

func (r *BidRepo) GetBidderBidsByStatuses(ctx context.Context, bidderId int64, statuses []string) ([]entity.Bid, error) {
	query, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where(squirrel.And{
			squirrel.Eq{"bidder_id": bidderId},
			squirrel.Eq{"status": statuses},
		}).
		OrderBy("created_at DESC").
		ToSql()

	return r.queryBids(ctx, query, args)
}

func (r *BidRepo) GetWinningBidForTask(ctx context.Context, taskId int64) (*entity.Bid, error) {
	query, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("task_id = ? AND is_winning = true", taskId).
		Limit(1).
		ToSql()

	return scanBid(r.Database.QueryRowContext(ctx, query, args...))
}

func (r *BidRepo) GetAcceptedBidForTask(ctx context.Context, taskId int64) (*entity.Bid, error) {
	query, args, _ := r.SqlBuilder.
		Select(bidColumns).
		From("bids").
		Where("task_id = ? AND status = ?", taskId, common.Accepted).
		Limit(1).
		ToSql()

	return scanBid(r.Database.QueryRowContext(ctx, query, args...))
}

func (r *BidRepo) GetStatistics(ctx context.Context) (*entity.BidStatistics, error) {
	query, args, _ := r.SqlBuilder.
		Select(
			"count(*)",
			"count(*) filter (where status = 'PENDING')",
			"count(*) filter (where status = 'ACCEPTED')",
			"count(*) filter (where status = 'REJECTED')",
			"count(*) filter (where status = 'WITHDRAWN')",
			"count(*) filter (where status = 'COMPLETED')",
			"count(*) filter (where status = 'CANCELLED')",
			"count(*) filter (where is_winning)",
		).
		From("bids").
		ToSql()

	var stats entity.BidStatistics
	err := r.Database.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalBids, &stats.PendingBids, &stats.AcceptedBids, &stats.RejectedBids,
		&stats.WithdrawnBids, &stats.CompletedBids, &stats.CancelledBids, &stats.WinningBids)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

func (r *BidRepo) TaskIdsWithBidsIn(ctx context.Context, statuses []string) ([]int64, error) {
	query, args, _ := r.SqlBuilder.
		Select("DISTINCT task_id").
		From("bids").
		Where(squirrel.Eq{"status": statuses}).
		OrderBy("task_id ASC").
		ToSql()

	rows, err := r.Database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taskIds := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		taskIds = append(taskIds, id)
	}

	return taskIds, rows.Err()
}

func (r *BidRepo) UpdateBidStatus(ctx context.Context, id uuid.UUID, status string) error {
	builder := r.SqlBuilder.
		Update("bids").
		Set("status", status).
		Set("updated_at", time.Now())

	switch status {
	case common.Accepted:
		builder = builder.Set("is_accepted", true).Set("is_winning", true).Set("accepted_at", time.Now())
	case common.Completed:
		// The bid keeps its winning mark for history, but is no longer the
		// task's live accepted bid.
		builder = builder.Set("is_accepted", false)
	case common.Withdrawn, common.Cancelled:
		builder = builder.Set("is_winning", false).Set("is_accepted", false)
	}

	query, args, _ := builder.Where("id = ?", id).ToSql()

	return r.execExpectingRow(ctx, query, args)
}

func (r *BidRepo) RejectBid(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	query, args, _ := r.SqlBuilder.
		Update("bids").
		Set("status", common.Rejected).
		Set("is_winning", false).
		Set("is_accepted", false).
		Set("rejection_reason", reason).
		Set("rejected_at", at).
		Set("updated_at", at).
		Where("id = ?", id).
		ToSql()

	return r.execExpectingRow(ctx, query, args)
}

func (r *BidRepo) SetWinningFlag(ctx context.Context, id uuid.UUID, winning bool) error {
	query, args, _ := r.SqlBuilder.
		Update("bids").
		Set("is_winning", winning).
		Set("updated_at", time.Now()).
		Where("id = ?", id).
		ToSql()

	return r.execExpectingRow(ctx, query, args)
}

func (r *BidRepo) SubmitUpiId(ctx context.Context, id uuid.UUID, upiId string, at time.Time) error {
	query, args, _ := r.SqlBuilder.
		Update("bids").
		Set("upi_id", upiId).
		Set("upi_id_submitted_at", at).
		Set("updated_at", at).
		Where("id = ?", id).
		ToSql()

	return r.execExpectingRow(ctx, query, args)
}

func (r *BidRepo) MarkUpiIdViewed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query, args, _ := r.SqlBuilder.
		Update("bids").
		Set("upi_id_viewed", true).
		Set("upi_id_viewed_at", at).
		Set("updated_at", at).
		Where("id = ?", id).
		ToSql()

	return r.execExpectingRow(ctx, query, args)
}

// SettleTask runs winner application as one transaction. The FOR UPDATE read
// of the task's pending rows is the per-task locking boundary: a second
// settlement of the same task blocks here, then sees no pending rows.
func (r *BidRepo) SettleTask(ctx context.Context, taskId int64, winnerId uuid.UUID, reason string, at time.Time) error {
	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	lockReq, args, _ := r.SqlBuilder.
		Select("id").
		From("bids").
		Where("task_id = ? AND status = ?", taskId, common.Pending).
		Suffix("FOR UPDATE").
		ToSql()

	rows, err := tx.QueryContext(ctx, lockReq, args...)
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}

	winnerLocked := false
	locked := 0
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			if e := tx.Rollback(); e != nil {
				return e
			}

			return err
		}

		locked++
		if id == winnerId {
			winnerLocked = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}

	if locked == 0 {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return repo_errors.ErrNoPendingBids
	}
	if !winnerLocked {
		// Another settlement got here first and the chosen bid already left PENDING.
		if e := tx.Rollback(); e != nil {
			return e
		}

		return repo_errors.ErrNotFound
	}

	acceptReq, args, _ := r.SqlBuilder.
		Update("bids").
		Set("status", common.Accepted).
		Set("is_accepted", true).
		Set("is_winning", true).
		Set("accepted_at", at).
		Set("updated_at", at).
		Where("id = ?", winnerId).
		ToSql()

	if _, err = tx.ExecContext(ctx, acceptReq, args...); err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}

	rejectReq, args, _ := r.SqlBuilder.
		Update("bids").
		Set("status", common.Rejected).
		Set("is_winning", false).
		Set("is_accepted", false).
		Set("rejection_reason", reason).
		Set("rejected_at", at).
		Set("updated_at", at).
		Where("task_id = ? AND status = ? AND id <> ?", taskId, common.Pending, winnerId).
		ToSql()

	if _, err = tx.ExecContext(ctx, rejectReq, args...); err != nil {
		if e := tx.Rollback(); e != nil {
			return e
		}

		return err
	}

	return tx.Commit()
}

func (r *BidRepo) CancelTaskBids(ctx context.Context, taskId int64, at time.Time) ([]entity.Bid, error) {
	tx, err := r.Database.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	cancelReq, args, _ := r.SqlBuilder.
		Update("bids").
		Set("status", common.Cancelled).
		Set("is_winning", false).
		Set("is_accepted", false).
		Set("updated_at", at).
		Where(squirrel.And{
			squirrel.Eq{"task_id": taskId},
			squirrel.Eq{"status": []string{common.Pending, common.Accepted}},
		}).
		Suffix("RETURNING " + bidColumns).
		ToSql()

	rows, err := tx.QueryContext(ctx, cancelReq, args...)
	if err != nil {
		if e := tx.Rollback(); e != nil {
			return nil, e
		}

		return nil, err
	}

	cancelled := make([]entity.Bid, 0)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			rows.Close()
			if e := tx.Rollback(); e != nil {
				return nil, e
			}

			return nil, err
		}

		cancelled = append(cancelled, *bid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		if e := tx.Rollback(); e != nil {
			return nil, e
		}

		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return cancelled, nil
}

func (r *BidRepo) execExpectingRow(ctx context.Context, query string, args []interface{}) error {
	result, err := r.Database.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repo_errors.ErrNotFound
	}

	return nil
}
