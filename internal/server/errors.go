package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kode4food/bizunit/internal/block"
	"github.com/kode4food/bizunit/internal/catalog"
	"github.com/kode4food/bizunit/internal/plan"
	"github.com/kode4food/bizunit/pkg/api"
	"github.com/kode4food/bizunit/pkg/log"
)

// ErrInvalidBody is returned when a request body cannot be decoded
var ErrInvalidBody = errors.New("invalid request body")

var statusByKind = []struct {
	err    error
	status int
}{
	{catalog.ErrPlanNotFound, http.StatusNotFound},
	{catalog.ErrInvalidName, http.StatusBadRequest},
	{ErrInvalidBody, http.StatusBadRequest},
	{api.ErrParsePlan, http.StatusBadRequest},
	{api.ErrPlanMissing, http.StatusBadRequest},
	{api.ErrFlowMissing, http.StatusBadRequest},
	{plan.ErrLoad, http.StatusUnprocessableEntity},
	{block.ErrInvalidArgument, http.StatusBadRequest},
	{block.ErrAuthorization, http.StatusForbidden},
	{block.ErrStorage, http.StatusBadGateway},
}

// statusFor maps a failure onto the HTTP status reported to the caller
func statusFor(err error) int {
	for _, s := range statusByKind {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	res := api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	}
	if be, ok := block.AsError(err); ok {
		res.Type = be.Type
		res.Action = be.Action
		res.Extra = be.Extra
	}
	if status >= http.StatusInternalServerError {
		s.Logger.Error("Request failed",
			log.Error(err),
			log.BlockType(res.Type),
			log.BlockAction(res.Action))
	}
	c.JSON(status, res)
}
