package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bidding-management-api/internal/common"
	"bidding-management-api/internal/entity"
)

// TaskService is the narrow view of the remote task system of record. Reads
// carry fallback semantics (see each method); mutations are best-effort and
// report failure to the caller instead of guessing.
type TaskService interface {
	TaskExists(ctx context.Context, taskId int64) bool
	IsOwner(ctx context.Context, taskId, userId int64) bool
	VerifyOwner(ctx context.Context, taskId, userId int64) (bool, error)
	GetBiddingStatus(ctx context.Context, taskId int64) *entity.BiddingStatus
	GetTask(ctx context.Context, taskId int64) *entity.Task

	AssignTask(ctx context.Context, assignment *entity.TaskAssignment) error
	AcceptTask(ctx context.Context, taskId int64, acceptedAt time.Time) error
	CompleteTask(ctx context.Context, taskId int64, completedAt time.Time) error
	UpdateTaskStatus(ctx context.Context, taskId int64, status, message string) error
}

const (
	fallbackBiddingWindow    = 24 * time.Hour
	fallbackCompletionWindow = 60 * 24 * time.Hour
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("task service: GET %s: unexpected status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) putJSON(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("task service: PUT %s: unexpected status %d", path, resp.StatusCode)
	}

	return nil
}

// TaskExists falls back to true when the task service is unreachable, so a
// transient outage does not block legitimate bids. The deadline and duplicate
// checks still apply downstream.
func (c *Client) TaskExists(ctx context.Context, taskId int64) bool {
	var exists bool
	if err := c.getJSON(ctx, fmt.Sprintf("/tasks/%d/exists", taskId), &exists); err != nil {
		logFallback("TaskExists", taskId, err, "assuming task exists")
		return true
	}

	return exists
}

type ownershipResponse struct {
	TaskId  int64 `json:"taskId"`
	UserId  int64 `json:"userId"`
	IsOwner bool  `json:"isOwner"`
}

// IsOwner fails closed: when ownership cannot be verified the caller is
// treated as the owner, which blocks the bid. Losing a bid beats letting an
// owner bid on their own task. Decisions that require being the owner must
// use VerifyOwner instead.
func (c *Client) IsOwner(ctx context.Context, taskId, userId int64) bool {
	isOwner, err := c.VerifyOwner(ctx, taskId, userId)
	if err != nil {
		logFallback("IsOwner", taskId, err, "assuming caller is owner, blocking the action")
		return true
	}

	return isOwner
}

// VerifyOwner reports ownership without a fallback: when the task service
// cannot be reached the error is returned and the caller decides nothing.
func (c *Client) VerifyOwner(ctx context.Context, taskId, userId int64) (bool, error) {
	var resp ownershipResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/tasks/%d/owner/%d", taskId, userId), &resp); err != nil {
		return false, err
	}

	return resp.IsOwner, nil
}

// GetBiddingStatus falls back to "open, deadline in 24h" so bidding stays
// available during task service outages.
func (c *Client) GetBiddingStatus(ctx context.Context, taskId int64) *entity.BiddingStatus {
	var status entity.BiddingStatus
	if err := c.getJSON(ctx, fmt.Sprintf("/tasks/%d/bidding-status", taskId), &status); err != nil {
		logFallback("GetBiddingStatus", taskId, err, "assuming bidding open for 24h")
		deadline := time.Now().Add(fallbackBiddingWindow)
		return &entity.BiddingStatus{
			TaskId:           taskId,
			IsOpenForBidding: true,
			Status:           common.TaskOpen,
			BiddingDeadline:  &deadline,
		}
	}

	return &status
}

// GetTask falls back to a synthetic task with a far-future completion
// deadline, so an outage never counts as deadline expiry.
func (c *Client) GetTask(ctx context.Context, taskId int64) *entity.Task {
	var task entity.Task
	if err := c.getJSON(ctx, fmt.Sprintf("/tasks/%d", taskId), &task); err != nil {
		logFallback("GetTask", taskId, err, "returning synthetic task with far-future deadline")
		completion := time.Now().Add(fallbackCompletionWindow)
		return &entity.Task{
			Id:                 taskId,
			Title:              "unavailable",
			Status:             common.TaskOpen,
			CompletionDeadline: &completion,
		}
	}

	return &task
}

func (c *Client) AssignTask(ctx context.Context, assignment *entity.TaskAssignment) error {
	return c.putJSON(ctx, fmt.Sprintf("/tasks/%d/assign", assignment.TaskId), assignment)
}

func (c *Client) AcceptTask(ctx context.Context, taskId int64, acceptedAt time.Time) error {
	return c.putJSON(ctx, fmt.Sprintf("/tasks/%d/accept", taskId), &entity.TaskStatusUpdate{
		TaskId:     taskId,
		Status:     common.TaskInProgress,
		Message:    "bid accepted",
		AcceptedAt: &acceptedAt,
		UpdatedAt:  acceptedAt,
	})
}

func (c *Client) CompleteTask(ctx context.Context, taskId int64, completedAt time.Time) error {
	return c.putJSON(ctx, fmt.Sprintf("/tasks/%d/complete", taskId), &entity.TaskStatusUpdate{
		TaskId:      taskId,
		Status:      common.TaskCompleted,
		Message:     "work accepted and task completed",
		CompletedAt: &completedAt,
		UpdatedAt:   completedAt,
	})
}

func (c *Client) UpdateTaskStatus(ctx context.Context, taskId int64, status, message string) error {
	return c.putJSON(ctx, fmt.Sprintf("/tasks/%d/status", taskId), &entity.TaskStatusUpdate{
		TaskId:    taskId,
		Status:    status,
		Message:   message,
		UpdatedAt: time.Now(),
	})
}
