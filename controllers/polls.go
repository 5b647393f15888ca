package controllers

import (
	"context"
	"net/http"

	"github.com/computersciencehouse/quickpoll/database"
	"github.com/computersciencehouse/quickpoll/validation"
	"github.com/computersciencehouse/quickpoll/voting"
	"github.com/gin-gonic/gin"
)

type PollService interface {
	CreatePoll(ctx context.Context, title, expireAt string) (*database.Poll, error)
	ListPolls(ctx context.Context) ([]*database.Poll, error)
	ListChoices(ctx context.Context, pollID string) ([]*database.Choice, error)
	Result(ctx context.Context, pollID string) (*voting.Result, error)
}

type PollController struct {
	service PollService
}

func NewPollController(service PollService) *PollController {
	return &PollController{service: service}
}

func (c *PollController) RegisterRoutes(engine *gin.Engine) {
	engine.POST("/poll", c.createPoll)
	engine.GET("/poll", c.listPolls)
	engine.GET("/poll/:id/choice", c.listChoices)
	engine.GET("/poll/:id/result", c.result)
}

// ResultResponse is a poll with either its leading choice or voting.NoVotesResult.
type ResultResponse struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	ExpireAt string `json:"expireAt"`
	Result   any    `json:"result"`
}

func NewResultResponse(r *voting.Result) ResultResponse {
	resp := ResultResponse{
		ID:       r.Poll.ID,
		Title:    r.Poll.Title,
		ExpireAt: r.Poll.ExpireAt,
		Result:   voting.NoVotesResult,
	}
	if r.Winner != nil {
		resp.Result = r.Winner
	}
	return resp
}

// createPoll handles POST /poll
func (c *PollController) createPoll(g *gin.Context) {
	record, ok := bindShape(g, validation.PollCreate)
	if !ok {
		return
	}

	poll, err := c.service.CreatePoll(g.Request.Context(), stringField(record, "title"), expireAtField(record))
	if err != nil {
		respondError(g, err)
		return
	}

	g.JSON(http.StatusCreated, poll)
}

// listPolls handles GET /poll
func (c *PollController) listPolls(g *gin.Context) {
	polls, err := c.service.ListPolls(g.Request.Context())
	if err != nil {
		respondError(g, err)
		return
	}

	g.JSON(http.StatusOK, polls)
}

// listChoices handles GET /poll/:id/choice
func (c *PollController) listChoices(g *gin.Context) {
	choices, err := c.service.ListChoices(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondError(g, err)
		return
	}

	g.JSON(http.StatusOK, choices)
}

// result handles GET /poll/:id/result
func (c *PollController) result(g *gin.Context) {
	result, err := c.service.Result(g.Request.Context(), g.Param("id"))
	if err != nil {
		respondError(g, err)
		return
	}

	g.JSON(http.StatusOK, NewResultResponse(result))
}
