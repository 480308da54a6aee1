package controller

import (
	"net/http"
	"strconv"

	"bidding-management-api/internal/service"

	"github.com/labstack/echo"
)

type settlementRoutesHandler struct {
	settlementService service.Settlement
}

func newSettlementRoutesHandler(outer *echo.Group, services *service.Services) *settlementRoutesHandler {
	h := &settlementRoutesHandler{settlementService: services.Settlement}
	outer.POST("/settlement/tasks/:taskId/select", h.SelectWinner)
	outer.POST("/settlement/tasks/:taskId/cancel", h.CancelTask)
	outer.GET("/settlement/ready", h.GetReadyTasks)
	outer.GET("/settlement/config", h.GetConfig)

	return h
}

type settlementResult struct {
	TaskId int64  `json:"taskId"`
	Result string `json:"result"`
}

func (h *settlementRoutesHandler) SelectWinner(c echo.Context) error {
	taskId, err := strconv.ParseInt(c.Param("taskId"), 10, 64)
	if err != nil || taskId <= 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id must be a positive integer"})
	}

	if err := h.settlementService.SettleTask(c.Request().Context(), taskId); err != nil {
		if e := c.JSON(http.StatusInternalServerError, errorResponse{"Settlement failed"}); e != nil {
			return e
		}

		return err
	}

	return c.JSON(http.StatusOK, settlementResult{TaskId: taskId, Result: "settled"})
}

func (h *settlementRoutesHandler) CancelTask(c echo.Context) error {
	taskId, err := strconv.ParseInt(c.Param("taskId"), 10, 64)
	if err != nil || taskId <= 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id must be a positive integer"})
	}

	if err := h.settlementService.CancelTask(c.Request().Context(), taskId); err != nil {
		if e := c.JSON(http.StatusInternalServerError, errorResponse{"Cancellation failed"}); e != nil {
			return e
		}

		return err
	}

	return c.JSON(http.StatusOK, settlementResult{TaskId: taskId, Result: "cancelled"})
}

func (h *settlementRoutesHandler) GetReadyTasks(c echo.Context) error {
	taskIds, err := h.settlementService.TasksReadyForAssignment(c.Request().Context())
	if err != nil {
		if e := c.JSON(http.StatusInternalServerError, errorResponse{"Error"}); e != nil {
			return e
		}

		return err
	}

	return c.JSON(http.StatusOK, taskIds)
}

func (h *settlementRoutesHandler) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, h.settlementService.Config())
}
