package controllers

import (
	"errors"
	"net/http"

	"github.com/computersciencehouse/quickpoll/logging"
	"github.com/computersciencehouse/quickpoll/transport"
	"github.com/computersciencehouse/quickpoll/voting"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{voting.ErrPollNotFound, http.StatusNotFound},
	{voting.ErrChoiceNotFound, http.StatusNotFound},
	{voting.ErrDuplicateTitle, http.StatusConflict},
	{voting.ErrPollExpired, http.StatusForbidden},
}

// respondError writes the most specific status for err. Anything unknown is
// logged and reported as a generic server error.
func respondError(g *gin.Context, err error) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			g.JSON(e.status, &transport.ErrorResponse{Error: e.err.Error()})
			return
		}
	}

	logging.Logger.WithFields(logrus.Fields{
		"module":    "controllers",
		"method":    logging.Caller(1),
		"requestId": g.GetString("requestId"),
		"error":     err,
	}).Error("unexpected failure")
	g.JSON(http.StatusInternalServerError, &transport.ErrorResponse{Error: transport.ServerErrorMessage})
}
