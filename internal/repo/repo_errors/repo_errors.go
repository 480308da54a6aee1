package repo_errors

import "errors"

var (
	ErrNotFound      = errors.New("requested record not found")
	ErrAlreadyExists = errors.New("record already exists")
	// ErrNoPendingBids is returned by settlement when the read of the task's
	// pending bids inside the transaction comes back empty.
	ErrNoPendingBids = errors.New("no pending bids for task")
)
