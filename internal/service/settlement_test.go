package service

import (
	"context"
	"testing"
	"time"

	"bidding-management-api/internal/common"
	"bidding-management-api/internal/entity"

	"github.com/google/uuid"
)

func TestSelectWinnerPrefersLowestAmount(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	bids := []entity.Bid{
		{Id: uuid.New(), Amount: amount("100.00"), CreatedAt: t1},
		{Id: uuid.New(), Amount: amount("75.00"), CreatedAt: t1.Add(time.Hour)},
		{Id: uuid.New(), Amount: amount("80.00"), CreatedAt: t1.Add(2 * time.Hour)},
	}

	winner := SelectWinner(bids)
	if !winner.Amount.Equal(amount("75.00")) {
		t.Fatalf("expected 75.00 to win, got %s", winner.Amount)
	}
}

func TestSelectWinnerBreaksTiesByCreationTime(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	early := entity.Bid{Id: uuid.New(), Amount: amount("90.00"), CreatedAt: t1}
	late := entity.Bid{Id: uuid.New(), Amount: amount("90.00"), CreatedAt: t1.Add(time.Minute)}
	expensive := entity.Bid{Id: uuid.New(), Amount: amount("100.00"), CreatedAt: t1.Add(-time.Hour)}

	winner := SelectWinner([]entity.Bid{expensive, late, early})
	if winner.Id != early.Id {
		t.Fatalf("expected earliest equal-amount bid to win")
	}
}

func TestSelectWinnerIsDeterministicOnFullTies(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := entity.Bid{Id: uuid.MustParse("00000000-0000-0000-0000-00000000000a"), Amount: amount("90.00"), CreatedAt: t1}
	b := entity.Bid{Id: uuid.MustParse("00000000-0000-0000-0000-00000000000b"), Amount: amount("90.00"), CreatedAt: t1}

	first := SelectWinner([]entity.Bid{a, b})
	second := SelectWinner([]entity.Bid{b, a})
	if first.Id != second.Id {
		t.Fatalf("winner must not depend on input order: %s vs %s", first.Id, second.Id)
	}
	if first.Id != a.Id {
		t.Fatalf("expected smallest id to win the full tie")
	}
}

func TestSettleTaskAcceptsWinnerRejectsRest(t *testing.T) {
	repoFake := newFakeBidRepo()
	tasks := newFakeTaskService(1)
	notifier := &fakeNotifier{}
	_, settlement := newTestServices(repoFake, tasks, notifier)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	aId := repoFake.seed(entity.Bid{TaskId: 10, BidderId: 2, Amount: amount("80.00"), CreatedAt: t1})
	bId := repoFake.seed(entity.Bid{TaskId: 10, BidderId: 3, Amount: amount("80.00"), CreatedAt: t1.Add(time.Minute)})
	cId := repoFake.seed(entity.Bid{TaskId: 10, BidderId: 4, Amount: amount("75.00"), CreatedAt: t1.Add(2 * time.Minute)})

	if err := settlement.SettleTask(context.Background(), 10); err != nil {
		t.Fatalf("SettleTask: %v", err)
	}

	winner, _ := repoFake.GetBidById(context.Background(), cId)
	if winner.Status != common.Accepted || !winner.IsAccepted || !winner.IsWinning {
		t.Fatalf("cheapest bid should be accepted, got %+v", winner)
	}
	if winner.AcceptedAt == nil {
		t.Errorf("acceptedAt should be set on the winner")
	}

	for _, id := range []uuid.UUID{aId, bId} {
		loser, _ := repoFake.GetBidById(context.Background(), id)
		if loser.Status != common.Rejected {
			t.Errorf("bid %s should be rejected, got %s", id, loser.Status)
		}
		if loser.RejectionReason != common.ReasonLostSettlement {
			t.Errorf("bid %s: unexpected rejection reason %q", id, loser.RejectionReason)
		}
	}

	if len(tasks.assigned) != 1 {
		t.Fatalf("expected one assignment sync, got %d", len(tasks.assigned))
	}
	if tasks.assigned[0].AssignedUserId != 4 {
		t.Errorf("assignment should go to bidder 4, got %d", tasks.assigned[0].AssignedUserId)
	}
	if len(notifier.kinds) != 2 {
		t.Errorf("expected bidder and owner notifications, got %v", notifier.kinds)
	}
}

func TestSettleTaskWithNoPendingBidsIsNoOp(t *testing.T) {
	repoFake := newFakeBidRepo()
	tasks := newFakeTaskService(1)
	_, settlement := newTestServices(repoFake, tasks, nil)

	if err := settlement.SettleTask(context.Background(), 10); err != nil {
		t.Fatalf("SettleTask on empty task should be a no-op, got %v", err)
	}
	if len(tasks.assigned) != 0 {
		t.Errorf("no assignment expected")
	}
}

func TestTasksReadyForAssignment(t *testing.T) {
	repoFake := newFakeBidRepo()
	tasks := newFakeTaskService(1)
	_, settlement := newTestServices(repoFake, tasks, nil)

	repoFake.seed(entity.Bid{TaskId: 10, BidderId: 2, Amount: amount("80.00")})
	repoFake.seed(entity.Bid{TaskId: 11, BidderId: 2, Amount: amount("80.00")})
	repoFake.seed(entity.Bid{TaskId: 12, BidderId: 2, Amount: amount("80.00")})
	repoFake.seed(entity.Bid{TaskId: 13, BidderId: 2, Amount: amount("80.00"), Status: common.Accepted})

	tasks.biddingDeadlines[10] = time.Now().Add(-time.Hour) // expired
	tasks.biddingDeadlines[11] = time.Now().Add(time.Hour)  // still open
	// task 12 has no known deadline: not ready

	ready, err := settlement.TasksReadyForAssignment(context.Background())
	if err != nil {
		t.Fatalf("TasksReadyForAssignment: %v", err)
	}
	if len(ready) != 1 || ready[0] != 10 {
		t.Fatalf("expected only task 10 ready, got %v", ready)
	}
}

func TestRunAssignmentSweepSettlesExpiredTasks(t *testing.T) {
	repoFake := newFakeBidRepo()
	tasks := newFakeTaskService(1)
	_, settlement := newTestServices(repoFake, tasks, nil)

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repoFake.seed(entity.Bid{TaskId: 10, BidderId: 2, Amount: amount("80.00"), CreatedAt: t1})
	repoFake.seed(entity.Bid{TaskId: 10, BidderId: 3, Amount: amount("80.00"), CreatedAt: t1.Add(time.Minute)})
	cId := repoFake.seed(entity.Bid{TaskId: 10, BidderId: 4, Amount: amount("75.00"), CreatedAt: t1.Add(2 * time.Minute)})
	untouchedId := repoFake.seed(entity.Bid{TaskId: 11, BidderId: 2, Amount: amount("60.00"), CreatedAt: t1})

	tasks.biddingDeadlines[10] = time.Now().Add(-time.Minute)
	tasks.biddingDeadlines[11] = time.Now().Add(time.Hour)

	settled, err := settlement.RunAssignmentSweep(context.Background())
	if err != nil {
		t.Fatalf("RunAssignmentSweep: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected 1 task settled, got %d", settled)
	}

	winner, _ := repoFake.GetBidById(context.Background(), cId)
	if winner.Status != common.Accepted {
		t.Errorf("cheapest bid on expired task should win, got %s", winner.Status)
	}
	untouched, _ := repoFake.GetBidById(context.Background(), untouchedId)
	if untouched.Status != common.Pending {
		t.Errorf("task with live deadline must not be settled, got %s", untouched.Status)
	}
}

func TestRunCancellationSweepVoidsExpiredTasks(t *testing.T) {
	repoFake := newFakeBidRepo()
	tasks := newFakeTaskService(1)
	_, settlement := newTestServices(repoFake, tasks, nil)

	pendingId := repoFake.seed(entity.Bid{TaskId: 10, BidderId: 2, Amount: amount("80.00")})
	acceptedId := repoFake.seed(entity.Bid{TaskId: 10, BidderId: 3, Amount: amount("90.00"), Status: common.Accepted, IsAccepted: true})
	liveId := repoFake.seed(entity.Bid{TaskId: 11, BidderId: 2, Amount: amount("80.00")})

	tasks.completionDeadline[10] = time.Now().Add(-time.Hour)
	tasks.completionDeadline[11] = time.Now().Add(time.Hour)

	cancelled, err := settlement.RunCancellationSweep(context.Background())
	if err != nil {
		t.Fatalf("RunCancellationSweep: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected 1 task cancelled, got %d", cancelled)
	}

	for _, id := range []uuid.UUID{pendingId, acceptedId} {
		b, _ := repoFake.GetBidById(context.Background(), id)
		if b.Status != common.Cancelled {
			t.Errorf("bid %s should be CANCELLED, got %s", id, b.Status)
		}
		if b.IsWinning || b.IsAccepted {
			t.Errorf("cancelled bid %s must drop its flags", id)
		}
	}

	live, _ := repoFake.GetBidById(context.Background(), liveId)
	if live.Status != common.Pending {
		t.Errorf("task within deadline must stay untouched, got %s", live.Status)
	}

	if len(tasks.statusCalls) != 1 || tasks.statusCalls[0] != common.TaskCancelled {
		t.Errorf("expected one CANCELLED status sync, got %v", tasks.statusCalls)
	}
}

func TestRunCancellationSweepSkipsUnknownDeadline(t *testing.T) {
	repoFake := newFakeBidRepo()
	tasks := newFakeTaskService(1)
	_, settlement := newTestServices(repoFake, tasks, nil)

	id := repoFake.seed(entity.Bid{TaskId: 10, BidderId: 2, Amount: amount("80.00")})

	cancelled, err := settlement.RunCancellationSweep(context.Background())
	if err != nil {
		t.Fatalf("RunCancellationSweep: %v", err)
	}
	if cancelled != 0 {
		t.Fatalf("task without known deadline must not be cancelled")
	}

	b, _ := repoFake.GetBidById(context.Background(), id)
	if b.Status != common.Pending {
		t.Errorf("bid should stay pending, got %s", b.Status)
	}
}

func TestSettlementConfigReflectsSettings(t *testing.T) {
	repoFake := newFakeBidRepo()
	tasks := newFakeTaskService(1)
	_, settlement := newTestServices(repoFake, tasks, nil)

	cfg := settlement.Config()
	if !cfg.AutoAssignmentEnabled {
		t.Errorf("auto assignment should be enabled in the test config")
	}
	if cfg.AssignmentInterval != time.Minute || cfg.CancellationInterval != time.Minute {
		t.Errorf("unexpected intervals: %+v", cfg)
	}
}
