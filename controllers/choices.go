package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/computersciencehouse/quickpoll/database"
	"github.com/computersciencehouse/quickpoll/logging"
	"github.com/computersciencehouse/quickpoll/sse"
	"github.com/computersciencehouse/quickpoll/validation"
	"github.com/computersciencehouse/quickpoll/voting"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// publishTimeout caps how long a vote response waits on a busy broker.
const publishTimeout = 500 * time.Millisecond

type ChoiceService interface {
	CreateChoice(ctx context.Context, title, pollID string) (*database.Choice, error)
	CastVote(ctx context.Context, choiceID string) (*database.Choice, error)
	Result(ctx context.Context, pollID string) (*voting.Result, error)
}

// Publisher receives the fresh result of a poll after each vote.
type Publisher interface {
	Publish(ctx context.Context, event sse.NotificationEvent) error
}

type ChoiceController struct {
	service   ChoiceService
	publisher Publisher
}

// NewChoiceController builds the controller; publisher may be nil.
func NewChoiceController(service ChoiceService, publisher Publisher) *ChoiceController {
	return &ChoiceController{
		service:   service,
		publisher: publisher,
	}
}

func (c *ChoiceController) RegisterRoutes(engine *gin.Engine) {
	engine.POST("/choice", c.createChoice)
	engine.POST("/choice/:id/vote", c.castVote)
}

// createChoice handles POST /choice
func (c *ChoiceController) createChoice(g *gin.Context) {
	record, ok := bindShape(g, validation.ChoiceCreate)
	if !ok {
		return
	}

	choice, err := c.service.CreateChoice(g.Request.Context(), stringField(record, "title"), stringField(record, "pollId"))
	if err != nil {
		respondError(g, err)
		return
	}

	g.JSON(http.StatusCreated, choice)
}

// castVote handles POST /choice/:id/vote
func (c *ChoiceController) castVote(g *gin.Context) {
	choice, err := c.service.CastVote(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondError(g, err)
		return
	}

	c.publishResult(g.Request.Context(), choice.PollID)

	g.Status(http.StatusCreated)
}

// publishResult is best effort: the vote is already stored, so failures are only logged.
func (c *ChoiceController) publishResult(ctx context.Context, pollID string) {
	if c.publisher == nil {
		return
	}

	log := logging.Logger.WithFields(logrus.Fields{"module": "controllers", "method": "publishResult", "poll": pollID})

	result, err := c.service.Result(ctx, pollID)
	if err != nil {
		log.WithError(err).Warn("could not compute result for live update")
		return
	}

	payload, err := json.Marshal(NewResultResponse(result))
	if err != nil {
		log.WithError(err).Warn("could not encode live update")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := c.publisher.Publish(ctx, sse.NotificationEvent{EventName: pollID, Payload: string(payload)}); err != nil {
		log.WithError(err).Warn("live update dropped")
	}
}
