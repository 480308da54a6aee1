package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bidding-management-api/internal/common"
	"bidding-management-api/internal/config"
	"bidding-management-api/internal/entity"
	"bidding-management-api/internal/repo"
	"bidding-management-api/internal/repo/repo_errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeBidRepo is an in-memory repo.Bid used by the service tests. Transitions
// mirror the SQL implementation closely enough that the services cannot tell
// the difference.
type fakeBidRepo struct {
	mu   sync.Mutex
	bids map[uuid.UUID]*entity.Bid
}

func newFakeBidRepo() *fakeBidRepo {
	return &fakeBidRepo{bids: make(map[uuid.UUID]*entity.Bid)}
}

func (f *fakeBidRepo) seed(b entity.Bid) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()

	if b.Id == uuid.Nil {
		b.Id = uuid.New()
	}
	if b.Status == "" {
		b.Status = common.Pending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	copied := b
	f.bids[b.Id] = &copied

	return b.Id
}

func (f *fakeBidRepo) CreateBid(_ context.Context, input *entity.PlaceBidInput) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.bids {
		if b.TaskId == input.TaskId && b.BidderId == input.BidderId {
			return uuid.Nil, repo_errors.ErrAlreadyExists
		}
	}

	id := uuid.New()
	now := time.Now()
	f.bids[id] = &entity.Bid{
		Id:          id,
		TaskId:      input.TaskId,
		BidderId:    input.BidderId,
		BidderEmail: input.BidderEmail,
		Amount:      input.Amount,
		Proposal:    input.Proposal,
		Status:      common.Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return id, nil
}

func (f *fakeBidRepo) GetBidById(_ context.Context, id uuid.UUID) (*entity.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bids[id]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	copied := *b

	return &copied, nil
}

func (f *fakeBidRepo) ExistsByTaskAndBidder(_ context.Context, taskId, bidderId int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.bids {
		if b.TaskId == taskId && b.BidderId == bidderId {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeBidRepo) DeleteBid(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.bids[id]; !ok {
		return repo_errors.ErrNotFound
	}
	delete(f.bids, id)

	return nil
}

func (f *fakeBidRepo) list(filter func(*entity.Bid) bool) []entity.Bid {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]entity.Bid, 0)
	for _, b := range f.bids {
		if filter(b) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}

		return out[i].Id.String() < out[j].Id.String()
	})

	return out
}

func (f *fakeBidRepo) GetTaskBids(_ context.Context, taskId int64, _ *entity.PaginationInput) ([]entity.Bid, error) {
	return f.list(func(b *entity.Bid) bool { return b.TaskId == taskId }), nil
}

func (f *fakeBidRepo) GetPendingTaskBids(_ context.Context, taskId int64) ([]entity.Bid, error) {
	pending := f.list(func(b *entity.Bid) bool {
		return b.TaskId == taskId && b.Status == common.Pending
	})
	sort.Slice(pending, func(i, j int) bool {
		cmp := pending[i].Amount.Cmp(pending[j].Amount)
		if cmp != 0 {
			return cmp < 0
		}
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}

		return pending[i].Id.String() < pending[j].Id.String()
	})

	return pending, nil
}

func (f *fakeBidRepo) GetBidderBids(_ context.Context, bidderId int64, _ *entity.PaginationInput) ([]entity.Bid, error) {
	return f.list(func(b *entity.Bid) bool { return b.BidderId == bidderId }), nil
}

func (f *fakeBidRepo) GetBidsByStatus(_ context.Context, status string, _ *entity.PaginationInput) ([]entity.Bid, error) {
	return f.list(func(b *entity.Bid) bool { return b.Status == status }), nil
}

func (f *fakeBidRepo) GetBidderBidsByStatuses(_ context.Context, bidderId int64, statuses []string) ([]entity.Bid, error) {
	set := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}

	return f.list(func(b *entity.Bid) bool { return b.BidderId == bidderId && set[b.Status] }), nil
}

func (f *fakeBidRepo) GetWinningBidForTask(_ context.Context, taskId int64) (*entity.Bid, error) {
	winning := f.list(func(b *entity.Bid) bool { return b.TaskId == taskId && b.IsWinning })
	if len(winning) == 0 {
		return nil, repo_errors.ErrNotFound
	}

	return &winning[0], nil
}

func (f *fakeBidRepo) GetAcceptedBidForTask(_ context.Context, taskId int64) (*entity.Bid, error) {
	accepted := f.list(func(b *entity.Bid) bool {
		return b.TaskId == taskId && b.Status == common.Accepted && b.IsAccepted
	})
	if len(accepted) == 0 {
		return nil, repo_errors.ErrNotFound
	}

	return &accepted[0], nil
}

func (f *fakeBidRepo) GetStatistics(_ context.Context) (*entity.BidStatistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := &entity.BidStatistics{}
	for _, b := range f.bids {
		stats.TotalBids++
		switch b.Status {
		case common.Pending:
			stats.PendingBids++
		case common.Accepted:
			stats.AcceptedBids++
		case common.Rejected:
			stats.RejectedBids++
		case common.Withdrawn:
			stats.WithdrawnBids++
		case common.Completed:
			stats.CompletedBids++
		case common.Cancelled:
			stats.CancelledBids++
		}
		if b.IsWinning {
			stats.WinningBids++
		}
	}

	return stats, nil
}

func (f *fakeBidRepo) TaskIdsWithBidsIn(_ context.Context, statuses []string) ([]int64, error) {
	set := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[int64]bool)
	out := make([]int64, 0)
	for _, b := range f.bids {
		if set[b.Status] && !seen[b.TaskId] {
			seen[b.TaskId] = true
			out = append(out, b.TaskId)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out, nil
}

func (f *fakeBidRepo) UpdateBidStatus(_ context.Context, id uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bids[id]
	if !ok {
		return repo_errors.ErrNotFound
	}

	b.Status = status
	b.UpdatedAt = time.Now()
	switch status {
	case common.Accepted:
		now := time.Now()
		b.IsAccepted = true
		b.IsWinning = true
		b.AcceptedAt = &now
	case common.Completed:
		b.IsAccepted = false
	case common.Withdrawn, common.Cancelled:
		b.IsWinning = false
		b.IsAccepted = false
	}

	return nil
}

func (f *fakeBidRepo) RejectBid(_ context.Context, id uuid.UUID, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bids[id]
	if !ok {
		return repo_errors.ErrNotFound
	}

	b.Status = common.Rejected
	b.IsWinning = false
	b.IsAccepted = false
	b.RejectionReason = reason
	b.RejectedAt = &at
	b.UpdatedAt = at

	return nil
}

func (f *fakeBidRepo) SetWinningFlag(_ context.Context, id uuid.UUID, winning bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bids[id]
	if !ok {
		return repo_errors.ErrNotFound
	}
	b.IsWinning = winning

	return nil
}

func (f *fakeBidRepo) SubmitUpiId(_ context.Context, id uuid.UUID, upiId string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bids[id]
	if !ok {
		return repo_errors.ErrNotFound
	}
	b.UpiId = &upiId
	b.UpiIdSubmittedAt = &at
	b.UpdatedAt = at

	return nil
}

func (f *fakeBidRepo) MarkUpiIdViewed(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bids[id]
	if !ok {
		return repo_errors.ErrNotFound
	}
	b.UpiIdViewed = true
	b.UpiIdViewedAt = &at
	b.UpdatedAt = at

	return nil
}

func (f *fakeBidRepo) SettleTask(_ context.Context, taskId int64, winnerId uuid.UUID, reason string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pending := make([]*entity.Bid, 0)
	for _, b := range f.bids {
		if b.TaskId == taskId && b.Status == common.Pending {
			pending = append(pending, b)
		}
	}
	if len(pending) == 0 {
		return repo_errors.ErrNoPendingBids
	}

	var winner *entity.Bid
	for _, b := range pending {
		if b.Id == winnerId {
			winner = b
			break
		}
	}
	if winner == nil {
		return repo_errors.ErrNotFound
	}

	winner.Status = common.Accepted
	winner.IsAccepted = true
	winner.IsWinning = true
	winner.AcceptedAt = &at
	winner.UpdatedAt = at
	for _, b := range pending {
		if b.Id == winnerId {
			continue
		}
		b.Status = common.Rejected
		b.IsWinning = false
		b.IsAccepted = false
		b.RejectionReason = reason
		b.RejectedAt = &at
		b.UpdatedAt = at
	}

	return nil
}

func (f *fakeBidRepo) CancelTaskBids(_ context.Context, taskId int64, at time.Time) ([]entity.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cancelled := make([]entity.Bid, 0)
	for _, b := range f.bids {
		if b.TaskId != taskId {
			continue
		}
		if b.Status != common.Pending && b.Status != common.Accepted {
			continue
		}
		b.Status = common.Cancelled
		b.IsWinning = false
		b.IsAccepted = false
		b.UpdatedAt = at
		cancelled = append(cancelled, *b)
	}

	return cancelled, nil
}

// fakeTaskService is a scriptable taskclient.TaskService. Zero value behaves
// like a healthy remote with every task existing, open and owned by ownerId.
type fakeTaskService struct {
	ownerId            int64
	unreachable        bool
	missingTasks       map[int64]bool
	closedTasks        map[int64]bool
	biddingDeadlines   map[int64]time.Time
	completionDeadline map[int64]time.Time

	mu          sync.Mutex
	assigned    []entity.TaskAssignment
	accepted    []int64
	completed   []int64
	statusCalls []string
}

func newFakeTaskService(ownerId int64) *fakeTaskService {
	return &fakeTaskService{
		ownerId:            ownerId,
		missingTasks:       make(map[int64]bool),
		closedTasks:        make(map[int64]bool),
		biddingDeadlines:   make(map[int64]time.Time),
		completionDeadline: make(map[int64]time.Time),
	}
}

func (f *fakeTaskService) TaskExists(_ context.Context, taskId int64) bool {
	return !f.missingTasks[taskId]
}

func (f *fakeTaskService) IsOwner(_ context.Context, _ int64, userId int64) bool {
	if f.unreachable {
		return true
	}

	return userId == f.ownerId
}

func (f *fakeTaskService) VerifyOwner(_ context.Context, _ int64, userId int64) (bool, error) {
	if f.unreachable {
		return false, errors.New("task service unreachable")
	}

	return userId == f.ownerId, nil
}

func (f *fakeTaskService) GetBiddingStatus(_ context.Context, taskId int64) *entity.BiddingStatus {
	status := &entity.BiddingStatus{
		TaskId:           taskId,
		IsOpenForBidding: !f.closedTasks[taskId],
		Status:           common.TaskOpen,
	}
	if d, ok := f.biddingDeadlines[taskId]; ok {
		deadline := d
		status.BiddingDeadline = &deadline
	}

	return status
}

func (f *fakeTaskService) GetTask(_ context.Context, taskId int64) *entity.Task {
	task := &entity.Task{
		Id:         taskId,
		Title:      "test task",
		Status:     common.TaskOpen,
		OwnerId:    f.ownerId,
		OwnerEmail: "owner@example.com",
	}
	if d, ok := f.completionDeadline[taskId]; ok {
		deadline := d
		task.CompletionDeadline = &deadline
	}

	return task
}

func (f *fakeTaskService) AssignTask(_ context.Context, assignment *entity.TaskAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned = append(f.assigned, *assignment)

	return nil
}

func (f *fakeTaskService) AcceptTask(_ context.Context, taskId int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, taskId)

	return nil
}

func (f *fakeTaskService) CompleteTask(_ context.Context, taskId int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, taskId)

	return nil
}

func (f *fakeTaskService) UpdateTaskStatus(_ context.Context, _ int64, status, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, status)

	return nil
}

// fakeNotifier records delivered notification kinds.
type fakeNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (f *fakeNotifier) record(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

func (f *fakeNotifier) NotifyTaskAssignedToBidder(int64, string, string, string, decimal.Decimal, *time.Time) error {
	f.record("assigned-bidder")
	return nil
}

func (f *fakeNotifier) NotifyTaskAssignedToOwner(int64, string, string, string, decimal.Decimal, string) error {
	f.record("assigned-owner")
	return nil
}

func (f *fakeNotifier) NotifyUpiSubmitted(int64, string, string, string, string) error {
	f.record("upi-submitted")
	return nil
}

func (f *fakeNotifier) NotifyWorkAccepted(int64, string, string, string) error {
	f.record("work-accepted")
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		MinBidAmount:              decimal.RequireFromString("50.00"),
		MaxBidAmount:              decimal.RequireFromString("10000.00"),
		AutoAssignmentEnabled:     true,
		NotificationEnabled:       true,
		AssignmentSweepInterval:   time.Minute,
		CancellationSweepInterval: time.Minute,
	}
}

func newTestServices(repoFake *fakeBidRepo, tasks *fakeTaskService, notifier Notifier) (*BidService, *SettlementService) {
	repos := &repo.Repositories{Bid: repoFake}
	cfg := testConfig()

	return NewBidService(repos, tasks, notifier, cfg), NewSettlementService(repos, tasks, notifier, cfg)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
