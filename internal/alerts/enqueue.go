package alerts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// Notifier enqueues notification emails on the asynq queue. Every method is
// best-effort from the caller's point of view: the caller logs the error and
// moves on, it never rolls back a bid transition because an email failed.
type Notifier struct {
	client *asynq.Client
}

func NewNotifier(redisAddr string) *Notifier {
	return &Notifier{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
	}
}

func (n *Notifier) Close() error {
	return n.client.Close()
}

func (n *Notifier) enqueue(taskType string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = n.client.Enqueue(asynq.NewTask(taskType, b), asynq.Queue(emailQueue))

	return err
}

func (n *Notifier) NotifyTaskAssignedToBidder(taskId int64, bidderEmail, ownerEmail, taskTitle string, amount decimal.Decimal, completionDeadline *time.Time) error {
	body := fmt.Sprintf("Your bid of %s on task %q was accepted. The task owner is %s.",
		amount.StringFixed(2), taskTitle, ownerEmail)
	if completionDeadline != nil {
		body += fmt.Sprintf(" Complete the work before %s.", completionDeadline.Format(time.RFC1123))
	}

	return n.enqueue(TaskAssignedBidderEmail, TaskAssignedBidderPayload{
		TaskId:             taskId,
		BidderEmail:        bidderEmail,
		OwnerEmail:         ownerEmail,
		TaskTitle:          taskTitle,
		Amount:             amount.StringFixed(2),
		CompletionDeadline: completionDeadline,
		Envelope: EmailEnvelope{
			To:      bidderEmail,
			Subject: fmt.Sprintf("Your bid on %q won", taskTitle),
			Body:    body,
		},
		SentAt: time.Now(),
	})
}

func (n *Notifier) NotifyTaskAssignedToOwner(taskId int64, ownerEmail, bidderEmail, taskTitle string, amount decimal.Decimal, proposal string) error {
	return n.enqueue(TaskAssignedOwnerEmail, TaskAssignedOwnerPayload{
		TaskId:      taskId,
		OwnerEmail:  ownerEmail,
		BidderEmail: bidderEmail,
		TaskTitle:   taskTitle,
		Amount:      amount.StringFixed(2),
		Proposal:    proposal,
		Envelope: EmailEnvelope{
			To:      ownerEmail,
			Subject: fmt.Sprintf("Task %q assigned", taskTitle),
			Body: fmt.Sprintf("Your task %q was assigned to %s for %s.\n\nProposal: %s",
				taskTitle, bidderEmail, amount.StringFixed(2), proposal),
		},
		SentAt: time.Now(),
	})
}

func (n *Notifier) NotifyUpiSubmitted(taskId int64, ownerEmail, bidderEmail, taskTitle, upiId string) error {
	return n.enqueue(UpiSubmittedEmail, UpiSubmittedPayload{
		TaskId:      taskId,
		OwnerEmail:  ownerEmail,
		BidderEmail: bidderEmail,
		TaskTitle:   taskTitle,
		UpiId:       upiId,
		Envelope: EmailEnvelope{
			To:      ownerEmail,
			Subject: fmt.Sprintf("Payment details submitted for %q", taskTitle),
			Body: fmt.Sprintf("%s submitted a UPI id for task %q. View it in the app to proceed with payment.",
				bidderEmail, taskTitle),
		},
		SentAt: time.Now(),
	})
}

func (n *Notifier) NotifyWorkAccepted(taskId int64, bidderEmail, ownerEmail, taskTitle string) error {
	return n.enqueue(WorkAcceptedEmail, WorkAcceptedPayload{
		TaskId:      taskId,
		BidderEmail: bidderEmail,
		OwnerEmail:  ownerEmail,
		TaskTitle:   taskTitle,
		Envelope: EmailEnvelope{
			To:      bidderEmail,
			Subject: fmt.Sprintf("Work accepted for %q", taskTitle),
			Body: fmt.Sprintf("%s accepted your work on task %q. Payment will be made to your submitted UPI id.",
				ownerEmail, taskTitle),
		},
		SentAt: time.Now(),
	})
}
