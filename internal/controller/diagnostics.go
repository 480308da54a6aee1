package controller

import (
	"net/http"

	"bidding-management-api/internal/service"

	"github.com/labstack/echo"
)

type diagnosticRoutesHandler struct {
	diagnosticService service.Diagnostics
}

func newDiagnosticRoutesHandler(outer *echo.Group, services *service.Services) *diagnosticRoutesHandler {
	h := &diagnosticRoutesHandler{services.Diagnostics}
	outer.GET("/ping", h.Ping)

	return h
}

func (h *diagnosticRoutesHandler) Ping(c echo.Context) error {
	err := h.diagnosticService.Ping()
	if err != nil {
		if e := c.JSON(http.StatusInternalServerError, errorResponse{"Database is unreachable"}); e != nil {
			return e
		}

		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
