package controllers

import (
	"context"
	"net/http"

	"github.com/computersciencehouse/quickpoll/logging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store Pinger
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store: store}
}

func (c *HealthController) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", c.health)
}

func (c *HealthController) health(g *gin.Context) {
	if err := c.store.Ping(g.Request.Context()); err != nil {
		logging.Logger.WithFields(logrus.Fields{"module": "controllers", "method": "health", "error": err}).Warn("store ping failed")
		g.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	g.JSON(http.StatusOK, gin.H{"status": "ok"})
}
