package alerts

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// Worker drains the email queue and delivers through the Mailer.
type Worker struct {
	server *asynq.Server
	mailer *Mailer
}

func NewWorker(redisAddr string, mailer *Mailer) *Worker {
	return &Worker{
		server: asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				emailQueue: 10,
			},
		}),
		mailer: mailer,
	}
}

// Start runs the worker in the background. Errors stop the worker, not the service.
func (w *Worker) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskAssignedBidderEmail, w.handleEnvelope)
	mux.HandleFunc(TaskAssignedOwnerEmail, w.handleEnvelope)
	mux.HandleFunc(UpiSubmittedEmail, w.handleEnvelope)
	mux.HandleFunc(WorkAcceptedEmail, w.handleEnvelope)

	go func() {
		if err := w.server.Run(mux); err != nil {
			log.Printf("alerts worker stopped: %v", err)
		}
	}()
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// Every payload type embeds the same envelope, which is all delivery needs.
type envelopeOnly struct {
	Envelope EmailEnvelope `json:"envelope"`
}

func (w *Worker) handleEnvelope(_ context.Context, t *asynq.Task) error {
	var p envelopeOnly
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	if err := w.mailer.SendEmail(p.Envelope.To, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("alerts: %s send failed: %v", t.Type(), err)
		return err
	}

	log.Printf("alerts: %s sent to %s", t.Type(), p.Envelope.To)

	return nil
}
