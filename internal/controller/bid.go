package controller

import (
	"net/http"
	"strconv"

	"bidding-management-api/internal/entity"
	"bidding-management-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo"
	"github.com/shopspring/decimal"
)

type bidRoutesHandler struct {
	bidService service.Bid
	validate   *validator.Validate
}

func newBidRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *bidRoutesHandler {
	h := &bidRoutesHandler{bidService: services.Bid, validate: v}
	outer.POST("/bids", h.PostBid)
	outer.GET("/bids/statistics", h.GetStatistics)
	outer.GET("/bids/:bidId", h.GetBid)
	outer.DELETE("/bids/:bidId", h.DeleteBid)

	outer.GET("/bids/task/:taskId", h.GetTaskBids)
	outer.GET("/bids/task/:taskId/winning", h.GetWinningBid)
	outer.GET("/bids/task/:taskId/accepted", h.GetAcceptedBid)

	outer.GET("/bids/user/:userId", h.GetBidderBids)
	outer.GET("/bids/user/:userId/active", h.GetBidderActiveBids)
	outer.GET("/bids/user/:userId/completed", h.GetBidderCompletedBids)
	outer.GET("/bids/status/:status", h.GetBidsByStatus)

	outer.POST("/bids/:bidId/accept", h.AcceptBid)
	outer.POST("/bids/:bidId/reject", h.RejectBid)
	outer.POST("/bids/:bidId/withdraw", h.WithdrawBid)

	outer.POST("/bids/:bidId/upi", h.SubmitUpiId)
	outer.POST("/bids/:bidId/upi/view", h.ViewUpiId)
	outer.POST("/bids/:bidId/accept-work", h.AcceptCompletedWork)

	return h
}

type postBidInput struct {
	TaskId   int64   `json:"taskId" validate:"required,gt=0"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Proposal string  `json:"proposal" validate:"required,max=2000"`
}

func (h *bidRoutesHandler) PostBid(c echo.Context) error {
	caller, ok := getCallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{"Please provide your user id"})
	}

	var input postBidInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	model := &entity.PlaceBidInput{
		TaskId:      input.TaskId,
		BidderId:    caller.UserId,
		BidderEmail: caller.Email,
		Amount:      decimal.NewFromFloat(input.Amount),
		Proposal:    input.Proposal,
	}

	bid, err := h.bidService.PlaceBid(c.Request().Context(), model)
	if err == nil {
		if e := c.JSON(http.StatusCreated, bid); e != nil {
			return e
		}

		return nil
	}

	switch err {
	case service.ErrTaskNotFound:
		if e := c.JSON(http.StatusNotFound, errorResponse{"There is no task with given id"}); e != nil {
			return e
		}
	case service.ErrOwnerCannotBid:
		if e := c.JSON(http.StatusForbidden, errorResponse{"You can't bid on your own task"}); e != nil {
			return e
		}
	case service.ErrDuplicateBid:
		if e := c.JSON(http.StatusConflict, errorResponse{"You have already placed a bid on this task"}); e != nil {
			return e
		}
	case service.ErrBiddingDeadlinePassed:
		if e := c.JSON(http.StatusConflict, errorResponse{"Bidding period for this task has expired"}); e != nil {
			return e
		}
	case service.ErrBiddingClosed:
		if e := c.JSON(http.StatusConflict, errorResponse{"Task is not open for bidding"}); e != nil {
			return e
		}
	case service.ErrAmountOutOfRange:
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Bid amount is outside the allowed range"}); e != nil {
			return e
		}
	default:
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Error"}); e != nil {
			return e
		}
	}

	return err
}

func (h *bidRoutesHandler) GetBid(c echo.Context) error {
	bidId, ok := parseBidId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id must be a valid uuid"})
	}

	bid, err := h.bidService.GetBidById(c.Request().Context(), bidId)
	if err == nil {
		if e := c.JSON(http.StatusOK, bid); e != nil {
			return e
		}

		return nil
	}

	return h.respondBidError(c, err)
}

type listInput struct {
	Limit  int `query:"limit" validate:"gte=0,lte=50"`
	Offset int `query:"offset" validate:"gte=0"`
}

func (h *bidRoutesHandler) GetTaskBids(c echo.Context) error {
	taskId, ok := parseTaskId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id must be a positive integer"})
	}

	pg, err := h.bindPagination(c)
	if err != nil {
		return err
	}

	bids, err := h.bidService.GetTaskBids(c.Request().Context(), taskId, pg)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bids)
}

func (h *bidRoutesHandler) GetWinningBid(c echo.Context) error {
	taskId, ok := parseTaskId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id must be a positive integer"})
	}

	bid, err := h.bidService.GetWinningBidForTask(c.Request().Context(), taskId)
	if err != nil {
		if err == service.ErrBidNotFound {
			return c.JSON(http.StatusNotFound, errorResponse{"There is no winning bid for this task"})
		}

		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

func (h *bidRoutesHandler) GetAcceptedBid(c echo.Context) error {
	taskId, ok := parseTaskId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Task id must be a positive integer"})
	}

	bid, err := h.bidService.GetAcceptedBidForTask(c.Request().Context(), taskId)
	if err != nil {
		if err == service.ErrBidNotFound {
			return c.JSON(http.StatusNotFound, errorResponse{"There is no accepted bid for this task"})
		}

		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

func (h *bidRoutesHandler) GetBidderBids(c echo.Context) error {
	bidderId, ok := parseUserId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"User id must be a positive integer"})
	}

	pg, err := h.bindPagination(c)
	if err != nil {
		return err
	}

	bids, err := h.bidService.GetBidderBids(c.Request().Context(), bidderId, pg)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bids)
}

func (h *bidRoutesHandler) GetBidderActiveBids(c echo.Context) error {
	bidderId, ok := parseUserId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"User id must be a positive integer"})
	}

	bids, err := h.bidService.GetBidderActiveBids(c.Request().Context(), bidderId)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bids)
}

func (h *bidRoutesHandler) GetBidderCompletedBids(c echo.Context) error {
	bidderId, ok := parseUserId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"User id must be a positive integer"})
	}

	bids, err := h.bidService.GetBidderCompletedBids(c.Request().Context(), bidderId)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bids)
}

func (h *bidRoutesHandler) GetBidsByStatus(c echo.Context) error {
	pg, err := h.bindPagination(c)
	if err != nil {
		return err
	}

	bids, err := h.bidService.GetBidsByStatus(c.Request().Context(), c.Param("status"), pg)
	if err != nil {
		if err == service.ErrUnknownBidStatus {
			return c.JSON(http.StatusBadRequest, errorResponse{"Unknown bid status"})
		}

		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bids)
}

func (h *bidRoutesHandler) GetStatistics(c echo.Context) error {
	stats, err := h.bidService.GetStatistics(c.Request().Context())
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *bidRoutesHandler) AcceptBid(c echo.Context) error {
	caller, ok := getCallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{"Please provide your user id"})
	}

	bidId, ok := parseBidId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id must be a valid uuid"})
	}

	bid, err := h.bidService.AcceptBid(c.Request().Context(), bidId, caller.UserId)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

type rejectBidInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *bidRoutesHandler) RejectBid(c echo.Context) error {
	caller, ok := getCallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{"Please provide your user id"})
	}

	bidId, ok := parseBidId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id must be a valid uuid"})
	}

	var input rejectBidInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	bid, err := h.bidService.RejectBid(c.Request().Context(), bidId, caller.UserId, input.Reason)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

func (h *bidRoutesHandler) WithdrawBid(c echo.Context) error {
	caller, ok := getCallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{"Please provide your user id"})
	}

	bidId, ok := parseBidId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id must be a valid uuid"})
	}

	bid, err := h.bidService.WithdrawBid(c.Request().Context(), bidId, caller.UserId)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

func (h *bidRoutesHandler) DeleteBid(c echo.Context) error {
	caller, ok := getCallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{"Please provide your user id"})
	}

	bidId, ok := parseBidId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id must be a valid uuid"})
	}

	if err := h.bidService.DeleteBid(c.Request().Context(), bidId, caller.UserId); err != nil {
		return h.respondBidError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type submitUpiInput struct {
	UpiId string `json:"upiId" validate:"required,min=5,max=50"`
}

func (h *bidRoutesHandler) SubmitUpiId(c echo.Context) error {
	caller, ok := getCallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{"Please provide your user id"})
	}

	bidId, ok := parseBidId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id must be a valid uuid"})
	}

	var input submitUpiInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	bid, err := h.bidService.SubmitUpiId(c.Request().Context(), bidId, caller.UserId, input.UpiId)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

func (h *bidRoutesHandler) ViewUpiId(c echo.Context) error {
	bidId, ok := parseBidId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id must be a valid uuid"})
	}

	bid, err := h.bidService.ViewUpiId(c.Request().Context(), bidId)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

func (h *bidRoutesHandler) AcceptCompletedWork(c echo.Context) error {
	caller, ok := getCallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorResponse{"Please provide your user id"})
	}

	bidId, ok := parseBidId(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{"Bid id must be a valid uuid"})
	}

	bid, err := h.bidService.AcceptCompletedWork(c.Request().Context(), bidId, caller.UserId)
	if err != nil {
		return h.respondBidError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

// respondBidError maps typed service errors onto status codes shared by most
// handlers; handlers with route-specific wording handle those cases before
// delegating here.
func (h *bidRoutesHandler) respondBidError(c echo.Context, err error) error {
	switch err {
	case service.ErrBidNotFound:
		if e := c.JSON(http.StatusNotFound, errorResponse{"There is no bid with given id"}); e != nil {
			return e
		}
	case service.ErrTaskNotFound:
		if e := c.JSON(http.StatusNotFound, errorResponse{"There is no task with given id"}); e != nil {
			return e
		}
	case service.ErrNotBidOwner:
		if e := c.JSON(http.StatusForbidden, errorResponse{"Only the bidder can perform this action"}); e != nil {
			return e
		}
	case service.ErrNotTaskOwner:
		if e := c.JSON(http.StatusForbidden, errorResponse{"Only the task owner can perform this action"}); e != nil {
			return e
		}
	case service.ErrTaskServiceUnavailable:
		if e := c.JSON(http.StatusServiceUnavailable, errorResponse{"Task service is unavailable, try again later"}); e != nil {
			return e
		}
	case service.ErrBidNotPending:
		if e := c.JSON(http.StatusConflict, errorResponse{"Bid is not in pending state"}); e != nil {
			return e
		}
	case service.ErrBidNotAccepted:
		if e := c.JSON(http.StatusConflict, errorResponse{"Bid is not in accepted state"}); e != nil {
			return e
		}
	case service.ErrUpiAlreadySubmitted:
		if e := c.JSON(http.StatusConflict, errorResponse{"UPI id has already been submitted"}); e != nil {
			return e
		}
	case service.ErrUpiNotSubmitted:
		if e := c.JSON(http.StatusConflict, errorResponse{"UPI id has not been submitted yet"}); e != nil {
			return e
		}
	case service.ErrUpiNotViewed:
		if e := c.JSON(http.StatusConflict, errorResponse{"UPI id must be viewed before accepting the work"}); e != nil {
			return e
		}
	case service.ErrTaskDeadlineExpired:
		if e := c.JSON(http.StatusConflict, errorResponse{"Task completion deadline has expired"}); e != nil {
			return e
		}
	case service.ErrOnlyRejectedDeletable:
		if e := c.JSON(http.StatusConflict, errorResponse{"Only rejected bids can be deleted"}); e != nil {
			return e
		}
	case service.ErrInvalidUpiId:
		if e := c.JSON(http.StatusBadRequest, errorResponse{"UPI id must be between 5 and 50 characters"}); e != nil {
			return e
		}
	default:
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Error"}); e != nil {
			return e
		}
	}

	return err
}

func (h *bidRoutesHandler) bindPagination(c echo.Context) (*entity.PaginationInput, error) {
	var input listInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{"Input data is not formed correctly"}); e != nil {
			return nil, e
		}

		return nil, err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{getAllErrorMessages(err)}); e != nil {
			return nil, e
		}

		return nil, err
	}

	return entity.NewPaginationInput(input.Limit, input.Offset), nil
}

func parseBidId(c echo.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("bidId"))
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

func parseTaskId(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("taskId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func parseUserId(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}
